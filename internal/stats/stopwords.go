package stats

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadStopWords 读取停用词文件，每行一个词
func LoadStopWords(path string) (map[string]struct{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取停用词失败: %w", err)
	}
	defer f.Close()

	words := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			words[strings.ToLower(word)] = struct{}{}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取停用词失败: %w", err)
	}
	return words, nil
}
