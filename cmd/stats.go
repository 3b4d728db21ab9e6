package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fachebot/talk-digest/internal/stats"
	"github.com/fachebot/talk-digest/internal/transcript"
	"github.com/spf13/cobra"
)

// NewStatsCommand 创建 stats 命令
func NewStatsCommand() *cobra.Command {
	var user, stopWordsFile string
	var top int
	var daily bool

	cmd := &cobra.Command{
		Use:   "stats <transcript>",
		Short: "Print descriptive statistics for a chat export",
		Long: `Print descriptive statistics for a chat export.

Examples:
  talk-digest stats chat.txt
  talk-digest stats chat.txt --user Alice
  talk-digest stats chat.txt --stop-words stop_hinglish.txt --top 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := transcript.ReadFile(args[0])
			if err != nil {
				return err
			}

			var stopWords map[string]struct{}
			if stopWordsFile != "" {
				if stopWords, err = stats.LoadStopWords(stopWordsFile); err != nil {
					return err
				}
			}

			result := transcript.Parse(raw, transcript.DayFirst)
			if result.Empty() {
				fmt.Fprintln(cmd.OutOrStdout(), "No messages parsed. Check chat file format.")
				return nil
			}
			printStats(cmd.OutOrStdout(), result.Records, user, stopWords, top, daily)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", stats.Overall, "Restrict statistics to one author")
	cmd.Flags().StringVar(&stopWordsFile, "stop-words", "", "File with one stop word per line")
	cmd.Flags().IntVar(&top, "top", 10, "Number of common words to show")
	cmd.Flags().BoolVar(&daily, "daily", false, "Also print the per-day message counts")

	return cmd
}

func printStats(out io.Writer, records []transcript.Record, user string, stopWords map[string]struct{}, top int, daily bool) {
	o := stats.Fetch(records, user)
	fmt.Fprintf(out, "== %s ==\n", user)
	fmt.Fprintf(out, "Messages: %d\nWords: %d\nMedia shared: %d\nLinks shared: %d\n", o.Messages, o.Words, o.Media, o.Links)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

	fmt.Fprintln(out, "\n== Monthly timeline ==")
	for _, p := range stats.MonthlyTimeline(records, user) {
		fmt.Fprintf(w, "%s\t%d\n", p.Label, p.Count)
	}
	w.Flush()

	if daily {
		fmt.Fprintln(out, "\n== Daily timeline ==")
		for _, p := range stats.DailyTimeline(records, user) {
			fmt.Fprintf(w, "%s\t%d\n", p.Date.Format("2006-01-02"), p.Count)
		}
		w.Flush()
	}

	fmt.Fprintln(out, "\n== Week activity ==")
	for _, d := range stats.WeekActivity(records, user) {
		fmt.Fprintf(w, "%s\t%d\n", d.Day, d.Count)
	}
	w.Flush()

	if day, hour, count := stats.ActivityHeatmap(records, user).Busiest(); count > 0 {
		fmt.Fprintf(out, "Busiest slot: %s %d-%d (%d messages)\n", day, hour, (hour+1)%24, count)
	}

	if user == stats.Overall {
		fmt.Fprintln(out, "\n== Most busy users ==")
		for _, u := range stats.BusiestUsers(records, 5) {
			fmt.Fprintf(w, "%s\t%d\t%.2f%%\n", u.User, u.Messages, u.Percentage)
		}
		w.Flush()
	}

	words := stats.CommonWords(records, user, stopWords, top)
	if len(words) > 0 {
		fmt.Fprintln(out, "\n== Most common words ==")
		parts := make([]string, len(words))
		for i, word := range words {
			parts[i] = fmt.Sprintf("%s(%d)", word.Word, word.Count)
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
	}
}
