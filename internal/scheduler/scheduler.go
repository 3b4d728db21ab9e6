package scheduler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fachebot/talk-digest/internal/config"
	"github.com/fachebot/talk-digest/internal/logger"
	"github.com/fachebot/talk-digest/internal/metrics"
	"github.com/fachebot/talk-digest/internal/output"
	"github.com/fachebot/talk-digest/internal/store"
	"github.com/fachebot/talk-digest/internal/summarizer"
	"github.com/fachebot/talk-digest/internal/transcript"
	"github.com/robfig/cron/v3"
)

// digestRunner 执行一次区间总结（便于测试注入 mock）
type digestRunner interface {
	Run(ctx context.Context, req summarizer.Request) (*summarizer.Result, error)
}

// runStore 运行记录存储（便于测试注入 mock）
type runStore interface {
	GetOrCreate(ctx context.Context, startDate, endDate time.Time, model string, newsletter bool, status store.Status) (*store.DigestRun, error)
	Get(ctx context.Context, id string) (*store.DigestRun, error)
	GetIncompleteRuns(ctx context.Context) ([]*store.DigestRun, error)
	MarkInProgress(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, summary, outputPath string) error
	MarkFailed(ctx context.Context, id, errorMsg string) error
}

// Status 调度器状态
type Status struct {
	Cron       string     `json:"cron"`
	Transcript string     `json:"transcript"`
	RangeDays  int        `json:"range_days"`
	Busy       bool       `json:"busy"`
	NextRun    *time.Time `json:"next_run,omitempty"`
}

type Scheduler struct {
	cron     *cron.Cron
	pipeline digestRunner
	runs     runStore
	metrics  *metrics.Metrics
	config   *config.Summary
	model    string
	now      func() time.Time
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	runMu    sync.Mutex
	busy     atomic.Bool
}

// locUTC 调度与区间计算统一使用 UTC
var locUTC = time.UTC

func NewScheduler(pipeline digestRunner, runs runStore, m *metrics.Metrics, cfg *config.Summary, model string) *Scheduler {
	if m == nil {
		m = metrics.Default
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(locUTC)),
		pipeline: pipeline,
		runs:     runs,
		metrics:  m,
		config:   cfg,
		model:    model,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	s.mu.Lock()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.mu.Unlock()

	if s.config.Cron == "" {
		logger.Warnf("[Scheduler] 未配置 Summary.Cron，仅恢复未完成的总结")
	} else {
		_, err := s.cron.AddFunc(s.config.Cron, s.runDigest)
		if err != nil {
			return fmt.Errorf("注册定时总结任务失败: %w", err)
		}
	}

	s.cron.Start()
	logger.Infof("[Scheduler] 调度器已启动，定时总结任务: %q", s.config.Cron)

	// 启动时恢复未完成的任务
	go s.recoverDigests()

	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Infof("[Scheduler] 调度器已停止")
}

// Status 返回当前状态
func (s *Scheduler) Status() Status {
	status := Status{
		Cron:       s.config.Cron,
		Transcript: s.config.Transcript,
		RangeDays:  s.rangeDays(),
		Busy:       s.busy.Load(),
	}
	if entries := s.cron.Entries(); len(entries) > 0 && !entries[0].Next.IsZero() {
		next := entries[0].Next
		status.NextRun = &next
	}
	return status
}

func (s *Scheduler) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

func (s *Scheduler) rangeDays() int {
	if s.config.RangeDays <= 0 {
		return 1
	}
	return s.config.RangeDays
}

// currentRange 最近 RangeDays 个完整自然日，不含今天
func (s *Scheduler) currentRange() (time.Time, time.Time) {
	now := s.now().In(locUTC)
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, locUTC)
	return todayStart.AddDate(0, 0, -s.rangeDays()), todayStart.AddDate(0, 0, -1)
}

// runDigest 执行定时总结任务（cron 触发）
func (s *Scheduler) runDigest() {
	ctx := s.baseContext()
	select {
	case <-ctx.Done():
		logger.Infof("[Scheduler] 任务已取消，退出")
		return
	default:
	}

	if _, err := s.RunOnce(ctx); err != nil {
		logger.Errorf("[Scheduler] 定时总结执行失败: %v", err)
	}
}

// RunOnce 总结当前区间。已完成的区间直接返回已有记录，失败的区间会重新执行
func (s *Scheduler) RunOnce(ctx context.Context) (*store.DigestRun, error) {
	startDate, endDate := s.currentRange()
	logger.Infof("[Scheduler] 开始执行定时总结，区间: %s", transcript.NewDateWindow(startDate, endDate))

	// 在读取聊天记录前创建运行记录，便于崩溃恢复
	run, err := s.runs.GetOrCreate(ctx, startDate, endDate, s.model, s.config.Newsletter, store.StatusInProgress)
	if err != nil {
		return nil, fmt.Errorf("获取或创建运行记录失败: %w", err)
	}

	switch run.Status {
	case store.StatusCompleted:
		logger.Infof("[Scheduler] 区间已总结，跳过")
		s.metrics.Runs.WithLabelValues(metrics.StatusSkipped).Inc()
		return run, nil
	case store.StatusFailed, store.StatusPending:
		if err := s.runs.MarkInProgress(ctx, run.ID); err != nil {
			return nil, err
		}
		run.Status = store.StatusInProgress
	}

	return run, s.execute(ctx, run)
}

// recoverDigests 恢复未完成的运行记录
func (s *Scheduler) recoverDigests() {
	ctx := s.baseContext()
	logger.Infof("[Scheduler] 开始恢复未完成的总结")

	incompleteRuns, err := s.runs.GetIncompleteRuns(ctx)
	if err != nil {
		logger.Errorf("[Scheduler] 查询未完成运行记录失败: %v", err)
		return
	}

	for _, run := range incompleteRuns {
		select {
		case <-ctx.Done():
			logger.Infof("[Scheduler] 恢复已取消")
			return
		default:
		}
		logger.Infof("[Scheduler] 恢复未完成运行记录: %s", transcript.NewDateWindow(run.StartDate, run.EndDate))
		if err := s.execute(ctx, run); err != nil {
			logger.Errorf("[Scheduler] 恢复运行记录失败: %v", err)
		}
	}

	logger.Infof("[Scheduler] 恢复完成，共 %d 条", len(incompleteRuns))
}

// execute 对运行记录执行一次完整总结并更新状态，同一时间只执行一个。
// 获取锁后重新读取记录，等待期间已被其他任务完成的区间直接跳过
func (s *Scheduler) execute(ctx context.Context, run *store.DigestRun) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	current, err := s.runs.Get(ctx, run.ID)
	if err != nil {
		return fmt.Errorf("读取运行记录失败: %w", err)
	}
	if current.Status == store.StatusCompleted {
		logger.Infof("[Scheduler] %s 已由其他任务完成，跳过", transcript.NewDateWindow(run.StartDate, run.EndDate))
		s.metrics.Runs.WithLabelValues(metrics.StatusSkipped).Inc()
		*run = *current
		return nil
	}

	s.busy.Store(true)
	defer s.busy.Store(false)

	summary, outputPath, err := s.digest(ctx, run)
	if err != nil {
		s.metrics.Runs.WithLabelValues(metrics.StatusFailed).Inc()
		if markErr := s.runs.MarkFailed(ctx, run.ID, err.Error()); markErr != nil {
			logger.Errorf("[Scheduler] 标记运行失败状态出错: %v", markErr)
		}
		run.Status, run.ErrorMessage = store.StatusFailed, err.Error()
		return err
	}

	s.metrics.Runs.WithLabelValues(metrics.StatusCompleted).Inc()
	if err := s.runs.MarkCompleted(ctx, run.ID, summary, outputPath); err != nil {
		return fmt.Errorf("标记运行完成状态失败: %w", err)
	}
	run.Status, run.Summary, run.OutputPath = store.StatusCompleted, summary, outputPath
	logger.Infof("[Scheduler] 总结任务完成: %s", outputPath)
	return nil
}

// digest 读取聊天记录、生成总结并写入输出目录。区间内无消息时视为完成，不生成文件
func (s *Scheduler) digest(ctx context.Context, run *store.DigestRun) (string, string, error) {
	raw, err := transcript.ReadFile(s.config.Transcript)
	if err != nil {
		return "", "", err
	}

	window := transcript.NewDateWindow(run.StartDate, run.EndDate)
	result, err := s.pipeline.Run(ctx, summarizer.Request{
		Transcript: raw,
		Window:     window,
		Newsletter: run.Newsletter,
		Model:      run.Model,
	})
	if errors.Is(err, summarizer.ErrNoMessagesParsed) || errors.Is(err, summarizer.ErrNoMessagesInRange) {
		logger.Infof("[Scheduler] %s: %v，跳过生成", window, err)
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(s.config.OutputDir, 0755); err != nil {
		return "", "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	outputPath := filepath.Join(s.config.OutputDir, output.DigestFilename(
		run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02")))

	text := result.Text()
	if err := output.WriteFile(outputPath, text); err != nil {
		return "", "", err
	}
	return text, outputPath, nil
}
