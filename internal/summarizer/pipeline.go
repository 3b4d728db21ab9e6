package summarizer

import (
	"context"
	"errors"

	"github.com/fachebot/talk-digest/internal/chunker"
	"github.com/fachebot/talk-digest/internal/logger"
	"github.com/fachebot/talk-digest/internal/metrics"
	"github.com/fachebot/talk-digest/internal/transcript"
)

var (
	ErrNoMessagesParsed  = errors.New("未解析到任何消息")
	ErrNoMessagesInRange = errors.New("所选日期区间内没有消息")
)

// Request 一次总结请求
type Request struct {
	Transcript string // 已解码的聊天导出文本
	Window     transcript.DateWindow
	Newsletter bool
	Model      string // 为空时由 LLM 路由选择默认模型
}

// Result 总结结果及各阶段计数
type Result struct {
	Parsed      int
	Skipped     int
	Filtered    int
	Chunks      int
	Failed      int
	IntroFailed bool
	Summary     *Summary
}

// Text 最终输出文本
func (r *Result) Text() string {
	return r.Summary.Text()
}

// Pipeline 解析 -> 日期过滤 -> 分块 -> 总结 -> 可选导语
type Pipeline struct {
	summarizer *Summarizer
	metrics    *metrics.Metrics
}

// NewPipeline m 为 nil 时使用 metrics.Default
func NewPipeline(generator textGenerator, m *metrics.Metrics) *Pipeline {
	if m == nil {
		m = metrics.Default
	}
	return &Pipeline{summarizer: NewSummarizer(generator), metrics: m}
}

// Run 执行一次完整的总结流程。无消息或区间内无消息时返回哨兵错误，
// 生成失败不会中断流程
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	parsed := transcript.Parse(req.Transcript, transcript.DayFirst)
	result := &Result{Parsed: len(parsed.Records), Skipped: len(parsed.Skipped)}
	p.metrics.RecordsParsed.Add(float64(result.Parsed))
	p.metrics.RecordsSkipped.Add(float64(result.Skipped))
	if parsed.Empty() {
		return result, ErrNoMessagesParsed
	}
	logger.Infof("[Pipeline] 解析到 %d 条消息，跳过 %d 条", result.Parsed, result.Skipped)

	filtered := transcript.FilterByDateRange(parsed.Records, req.Window)
	result.Filtered = len(filtered)
	if len(filtered) == 0 {
		return result, ErrNoMessagesInRange
	}
	logger.Infof("[Pipeline] %s 区间内共 %d 条消息", req.Window, result.Filtered)

	chunks := chunker.Chunk(filtered)
	result.Chunks = len(chunks)
	p.metrics.Chunks.Add(float64(result.Chunks))

	summary := p.summarizer.Summarize(ctx, chunks, req.Model)
	result.Failed = summary.FailedParts()
	p.metrics.ChunkFailures.Add(float64(result.Failed))

	if req.Newsletter {
		if err := p.summarizer.WithIntro(ctx, summary, req.Model); err != nil {
			result.IntroFailed = true
			p.metrics.IntroFailures.Inc()
		}
	}

	result.Summary = summary
	logger.Infof("[Pipeline] 完成总结: %d 个分块，失败 %d 个", result.Chunks, result.Failed)
	return result, nil
}
