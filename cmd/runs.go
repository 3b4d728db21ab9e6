package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fachebot/talk-digest/internal/store"
	"github.com/fachebot/talk-digest/internal/svc"
	"github.com/spf13/cobra"
)

// NewRunsCommand 创建 runs 命令
func NewRunsCommand(deps *ServeDeps) *cobra.Command {
	if deps == nil {
		deps = defaultServeDeps()
	}

	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded scheduled digest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := deps.LoadConfig(cmd)
			if err != nil {
				return err
			}
			svcCtx, err := svc.NewServiceContext(cmd.Context(), c, true)
			if err != nil {
				return err
			}
			defer svcCtx.Close()

			runs, err := svcCtx.DigestRunModel.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("查询运行记录失败: %w", err)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

func printRuns(out io.Writer, runs []*store.DigestRun) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRANGE\tMODEL\tSTATUS\tOUTPUT\tERROR")
	for _, run := range runs {
		model := run.Model
		if model == "" {
			model = "-"
		}
		fmt.Fprintf(w, "%s\t%s ~ %s\t%s\t%s\t%s\t%s\n",
			shortID(run.ID),
			run.StartDate.Format("2006-01-02"), run.EndDate.Format("2006-01-02"),
			model, run.Status, run.OutputPath, run.ErrorMessage)
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
