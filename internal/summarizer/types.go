package summarizer

import (
	"fmt"
	"strings"
)

// ChunkResult 单个分块的总结结果，Index 从 1 开始
type ChunkResult struct {
	Index int
	Text  string
	Err   error
}

// Failed 该分块是否生成失败
func (r ChunkResult) Failed() bool {
	return r.Err != nil
}

// Content 失败时返回占位文本
func (r ChunkResult) Content() string {
	if r.Failed() {
		return placeholder(r.Index)
	}
	return r.Text
}

func placeholder(index int) string {
	return fmt.Sprintf("Summary part %d unavailable", index)
}

// Summary 按分块顺序排列的总结，Intro 非空时置于最前
type Summary struct {
	Parts []ChunkResult
	Intro string
}

// Body 各分块总结以空行连接，不含导语
func (s *Summary) Body() string {
	texts := make([]string, len(s.Parts))
	for i, part := range s.Parts {
		texts[i] = part.Content()
	}
	return strings.Join(texts, "\n\n")
}

// Text 最终输出文本
func (s *Summary) Text() string {
	if s.Intro == "" {
		return s.Body()
	}
	return s.Intro + "\n\n" + s.Body()
}

// FailedParts 失败的分块数
func (s *Summary) FailedParts() int {
	n := 0
	for _, part := range s.Parts {
		if part.Failed() {
			n++
		}
	}
	return n
}
