package chunker

import (
	"strings"

	"github.com/fachebot/talk-digest/internal/transcript"
)

// MaxWords 单个分块的词数上限
const MaxWords = 2000

// WordCount 按空白切分统计词数
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Chunk 按消息顺序把内容拼成不超过 MaxWords 个词的分块
func Chunk(records []transcript.Record) []string {
	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.Content
	}
	return Split(texts, MaxWords)
}

// Split 贪心地把连续文本用空格拼接成分块。
// 单条文本本身超过上限时独占一个分块，不做截断
func Split(texts []string, maxWords int) []string {
	chunks := make([]string, 0)
	buffer := make([]string, 0)
	total := 0

	flush := func() {
		chunks = append(chunks, strings.Join(buffer, " "))
		buffer = buffer[:0]
		total = 0
	}

	for _, text := range texts {
		n := WordCount(text)
		if total+n > maxWords && len(buffer) > 0 {
			flush()
		}
		buffer = append(buffer, text)
		total += n
	}
	if len(buffer) > 0 {
		flush()
	}
	return chunks
}
