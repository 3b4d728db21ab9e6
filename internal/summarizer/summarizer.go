package summarizer

import (
	"context"
	"fmt"

	"github.com/fachebot/talk-digest/internal/logger"
)

// textGenerator 调用 LLM 生成文本（便于测试注入 mock）
type textGenerator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

type Summarizer struct {
	generator textGenerator
}

func NewSummarizer(generator textGenerator) *Summarizer {
	return &Summarizer{generator: generator}
}

// Summarize 逐个分块顺序调用 LLM。单个分块失败时以占位文本代替并继续处理后续分块
func (s *Summarizer) Summarize(ctx context.Context, chunks []string, model string) *Summary {
	summary := &Summary{Parts: make([]ChunkResult, 0, len(chunks))}
	for i, chunk := range chunks {
		index := i + 1
		logger.Debugf("[Summarizer] 处理 chunk %d/%d", index, len(chunks))

		text, err := s.generator.Generate(ctx, summaryPrompt(chunk), model)
		if err != nil {
			logger.Warnf("[Summarizer] 总结 chunk %d 失败: %v", index, err)
		}
		summary.Parts = append(summary.Parts, ChunkResult{Index: index, Text: text, Err: err})
	}
	return summary
}

// GenerateIntro 根据完整总结生成简报导语
func (s *Summarizer) GenerateIntro(ctx context.Context, summary, model string) (string, error) {
	intro, err := s.generator.Generate(ctx, newsletterPrompt(summary), model)
	if err != nil {
		return "", fmt.Errorf("生成简报导语失败: %w", err)
	}
	return intro, nil
}

// WithIntro 为总结添加导语。失败时记录警告，总结保持不变，错误仅用于统计
func (s *Summarizer) WithIntro(ctx context.Context, summary *Summary, model string) error {
	intro, err := s.GenerateIntro(ctx, summary.Body(), model)
	if err != nil {
		logger.Warnf("[Summarizer] %v", err)
		return err
	}
	summary.Intro = intro
	return nil
}
