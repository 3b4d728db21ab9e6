package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/fachebot/talk-digest/internal/config"
	"github.com/fachebot/talk-digest/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

const defaultConfigFile = "etc/config.yaml"

var configFile string

// NewRootCommand 创建根命令及全部子命令
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "talk-digest",
		Short:         "Summarize exported WhatsApp group chats with an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// 标准输出只保留命令结果
			logger.SetOutput(cmd.ErrOrStderr())
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "file", "f", defaultConfigFile, "the config file")

	root.AddCommand(
		NewSummarizeCommand(nil),
		NewStatsCommand(),
		NewServeCommand(nil),
		NewRunsCommand(nil),
	)
	return root
}

// Execute 程序入口
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		logger.Fatalf("%s", err)
	}
}

// loadConfig 加载 .env 与配置文件。使用默认路径且文件不存在时退回默认配置
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("读取 .env 失败, %v", err)
	}

	c, err := config.LoadFromFile(configFile)
	if f := cmd.Flag("file"); errors.Is(err, os.ErrNotExist) && (f == nil || !f.Changed) {
		c = config.Default()
		c.ApplyEnv()
		err = c.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败, %w", err)
	}

	logger.Setup(logger.Options{Dir: c.Log.Dir, Level: c.Log.Level})
	return c, nil
}
