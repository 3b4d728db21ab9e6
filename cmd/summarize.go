package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fachebot/talk-digest/internal/config"
	"github.com/fachebot/talk-digest/internal/output"
	"github.com/fachebot/talk-digest/internal/summarizer"
	"github.com/fachebot/talk-digest/internal/svc"
	"github.com/fachebot/talk-digest/internal/transcript"
	"github.com/spf13/cobra"
)

// pipelineRunner 执行一次总结（便于测试注入）
type pipelineRunner interface {
	Run(ctx context.Context, req summarizer.Request) (*summarizer.Result, error)
}

// SummarizeDeps summarize 命令的依赖
type SummarizeDeps struct {
	LoadConfig  func(cmd *cobra.Command) (*config.Config, error)
	NewPipeline func(ctx context.Context, c *config.Config) (pipelineRunner, error)
}

// DefaultSummarizeDeps 生产环境依赖
func DefaultSummarizeDeps() *SummarizeDeps {
	return &SummarizeDeps{
		LoadConfig: loadConfig,
		NewPipeline: func(ctx context.Context, c *config.Config) (pipelineRunner, error) {
			svcCtx, err := svc.NewServiceContext(ctx, c, false)
			if err != nil {
				return nil, err
			}
			return svcCtx.Pipeline, nil
		},
	}
}

// NewSummarizeCommand 创建 summarize 命令
func NewSummarizeCommand(deps *SummarizeDeps) *cobra.Command {
	if deps == nil {
		deps = DefaultSummarizeDeps()
	}

	var newsletter bool
	var model string

	cmd := &cobra.Command{
		Use:   "summarize <transcript> <output> <start MM/DD/YYYY> <end MM/DD/YYYY>",
		Short: "Summarize a chat export over an inclusive date range",
		Long: `Summarize a chat export over an inclusive date range.

Messages are split into chunks of at most 2000 words, each chunk is summarized
by the selected model, and the parts are joined in order. A chunk that fails
is replaced by a placeholder. With --newsletter an introduction paragraph is
generated from the joined summary and placed in front of it.

Examples:
  talk-digest summarize chat.txt summary.txt 03/01/2024 03/07/2024
  talk-digest summarize chat.txt summary.txt 03/01/2024 03/07/2024 --newsletter
  talk-digest summarize chat.txt summary.txt 03/01/2024 03/07/2024 --model local`,
		Args: cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := deps.LoadConfig(cmd)
			if err != nil {
				return err
			}
			return runSummarize(cmd.Context(), cmd.OutOrStdout(), deps, c, summarizeArgs{
				transcriptPath: args[0],
				outputPath:     args[1],
				start:          args[2],
				end:            args[3],
				newsletter:     newsletter,
				model:          model,
			})
		},
	}

	cmd.Flags().BoolVar(&newsletter, "newsletter", false, "Prepend a newsletter introduction")
	cmd.Flags().StringVar(&model, "model", "", "Model id: gemini-*, models/gemini-*, local, or an OpenAI-compatible model (default from config)")

	return cmd
}

type summarizeArgs struct {
	transcriptPath string
	outputPath     string
	start          string
	end            string
	newsletter     bool
	model          string
}

// runSummarize 每个失败路径只打印一行状态信息，不返回错误
func runSummarize(ctx context.Context, out io.Writer, deps *SummarizeDeps, c *config.Config, args summarizeArgs) error {
	start, err := transcript.ParseDate(args.start, transcript.MonthFirst)
	if err != nil {
		fmt.Fprintln(out, "Invalid date format. Use MM/DD/YYYY")
		return nil
	}
	end, err := transcript.ParseDate(args.end, transcript.MonthFirst)
	if err != nil {
		fmt.Fprintln(out, "Invalid date format. Use MM/DD/YYYY")
		return nil
	}
	return summarizeWindow(ctx, out, deps, c, args, transcript.NewDateWindow(start, end))
}

func summarizeWindow(ctx context.Context, out io.Writer, deps *SummarizeDeps, c *config.Config, args summarizeArgs, window transcript.DateWindow) error {
	raw, err := transcript.ReadFile(args.transcriptPath)
	if err != nil {
		fmt.Fprintf(out, "File read error: %v\n", err)
		return nil
	}

	pipeline, err := deps.NewPipeline(ctx, c)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(ctx, summarizer.Request{
		Transcript: raw,
		Window:     window,
		Newsletter: args.newsletter,
		Model:      args.model,
	})
	switch {
	case errors.Is(err, summarizer.ErrNoMessagesParsed):
		fmt.Fprintln(out, "No messages parsed. Check chat file format.")
		return nil
	case errors.Is(err, summarizer.ErrNoMessagesInRange):
		fmt.Fprintln(out, "No messages in selected date range")
		return nil
	case err != nil:
		return err
	}

	text := result.Text()
	banner := strings.Repeat("*", 20)
	fmt.Fprintf(out, "\n%s FINAL SUMMARY %s\n%s\n", banner, banner, text)

	if err := output.WriteFile(args.outputPath, text); err != nil {
		fmt.Fprintf(out, "File save error: %v\n", err)
		return nil
	}
	fmt.Fprintf(out, "Summary saved to %s\n", args.outputPath)
	return nil
}
