package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fachebot/talk-digest/internal/api"
	"github.com/fachebot/talk-digest/internal/config"
	"github.com/fachebot/talk-digest/internal/logger"
	"github.com/fachebot/talk-digest/internal/scheduler"
	"github.com/fachebot/talk-digest/internal/svc"
	"github.com/spf13/cobra"
)

// ServeDeps serve 与 runs 命令的依赖
type ServeDeps struct {
	LoadConfig func(cmd *cobra.Command) (*config.Config, error)
}

func defaultServeDeps() *ServeDeps {
	return &ServeDeps{LoadConfig: loadConfig}
}

// NewServeCommand 创建 serve 命令：定时总结 + HTTP 接口
func NewServeCommand(deps *ServeDeps) *cobra.Command {
	if deps == nil {
		deps = defaultServeDeps()
	}

	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled digest and the HTTP status API",
		Long: `Run the scheduled digest and the HTTP status API.

The configured transcript (Summary.Transcript) is summarized on the Summary.Cron
schedule over the last Summary.RangeDays complete days. Each run is recorded in
the sqlite store, and runs left unfinished by a previous process are resumed on
start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := deps.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), c)
		},
	}
}

func runServe(ctx context.Context, c *config.Config) error {
	// 创建服务上下文
	svcCtx, err := svc.NewServiceContext(ctx, c, true)
	if err != nil {
		return err
	}
	defer svcCtx.Close()

	// 创建并启动调度器
	schedulerInstance := scheduler.NewScheduler(
		svcCtx.Pipeline,
		svcCtx.DigestRunModel,
		svcCtx.Metrics,
		&c.Summary,
		c.SummaryModel(),
	)
	if err := schedulerInstance.Start(); err != nil {
		return err
	}

	server := api.NewServer(c.Server.Port, schedulerInstance, svcCtx.DigestRunModel, nil)
	go func() {
		if err := server.Start(); err != nil {
			logger.Errorf("[API] HTTP 服务异常退出: %v", err)
		}
	}()

	// 等待程序退出
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch

	// 优雅关闭
	logger.Infof("正在关闭服务...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("[API] 关闭失败, %v", err)
	}
	schedulerInstance.Stop()
	logger.Infof("服务已停止")
	return nil
}
