package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fachebot/talk-digest/internal/config"
	"github.com/fachebot/talk-digest/internal/store"
	"github.com/fachebot/talk-digest/internal/summarizer"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	req    summarizer.Request
	result *summarizer.Result
	err    error
	calls  int
}

func (f *fakePipeline) Run(ctx context.Context, req summarizer.Request) (*summarizer.Result, error) {
	f.calls++
	f.req = req
	return f.result, f.err
}

func testDeps(p *fakePipeline) *SummarizeDeps {
	return &SummarizeDeps{
		LoadConfig: func(*cobra.Command) (*config.Config, error) { return config.Default(), nil },
		NewPipeline: func(context.Context, *config.Config) (pipelineRunner, error) {
			return p, nil
		},
	}
}

func writeTranscript(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chat.txt")
	require.NoError(t, os.WriteFile(path, []byte("1/3/24, 9:00 AM - Alice: hi"), 0644))
	return path
}

func executeSummarize(t *testing.T, p *fakePipeline, args ...string) string {
	t.Helper()
	cmd := NewSummarizeCommand(testDeps(p))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestNewSummarizeCommand(t *testing.T) {
	cmd := NewSummarizeCommand(nil)

	assert.Equal(t, "summarize", strings.Fields(cmd.Use)[0])
	assert.NotEmpty(t, cmd.Short)
	require.NotNil(t, cmd.Flags().Lookup("newsletter"))
	require.NotNil(t, cmd.Flags().Lookup("model"))
	assert.Error(t, cmd.Args(cmd, []string{"a", "b", "c"}))
}

func TestSummarize_Success(t *testing.T) {
	p := &fakePipeline{result: &summarizer.Result{Summary: &summarizer.Summary{
		Intro: "intro",
		Parts: []summarizer.ChunkResult{{Index: 1, Text: "S1"}, {Index: 2, Err: errors.New("x")}},
	}}}
	outputPath := filepath.Join(t.TempDir(), "summary.txt")

	out := executeSummarize(t, p, writeTranscript(t), outputPath, "03/01/2024", "03/07/2024", "--newsletter", "--model", "local")

	assert.Contains(t, out, "******************** FINAL SUMMARY ********************")
	assert.Contains(t, out, "Summary saved to "+outputPath)
	assert.True(t, p.req.Newsletter)
	assert.Equal(t, "local", p.req.Model)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), p.req.Window.Start)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), p.req.Window.End)
	assert.Equal(t, "1/3/24, 9:00 AM - Alice: hi", p.req.Transcript)

	data, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "intro\n\nS1\n\nSummary part 2 unavailable", string(data))
}

func TestSummarize_StatusLines(t *testing.T) {
	tests := []struct {
		name      string
		start     string
		end       string
		err       error
		output    string
		want      string
		wantCalls int
	}{
		{"开始日期格式错误", "2024-03-01", "03/07/2024", nil, "", "Invalid date format. Use MM/DD/YYYY", 0},
		{"结束日期格式错误", "03/01/2024", "31/03/2024", nil, "", "Invalid date format. Use MM/DD/YYYY", 0},
		{"未解析到消息", "03/01/2024", "03/07/2024", summarizer.ErrNoMessagesParsed, "", "No messages parsed. Check chat file format.", 1},
		{"区间内无消息", "03/01/2024", "03/07/2024", summarizer.ErrNoMessagesInRange, "", "No messages in selected date range", 1},
		{"保存失败", "03/01/2024", "03/07/2024", nil, "missing/dir/summary.txt", "File save error:", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakePipeline{err: tt.err, result: &summarizer.Result{Summary: &summarizer.Summary{}}}
			outputPath := filepath.Join(t.TempDir(), "summary.txt")
			if tt.output != "" {
				outputPath = filepath.Join(t.TempDir(), tt.output)
			}

			out := executeSummarize(t, p, writeTranscript(t), outputPath, tt.start, tt.end)
			assert.Contains(t, out, tt.want)
			assert.Equal(t, tt.wantCalls, p.calls)

			if tt.err != nil || tt.wantCalls == 0 {
				_, err := os.Stat(outputPath)
				assert.True(t, os.IsNotExist(err), "失败时不应写入文件")
			}
		})
	}
}

func TestSummarize_MissingTranscript(t *testing.T) {
	p := &fakePipeline{}
	out := executeSummarize(t, p, filepath.Join(t.TempDir(), "missing.txt"), "out.txt", "03/01/2024", "03/07/2024")
	assert.Contains(t, out, "File read error:")
	assert.Equal(t, 0, p.calls)
}

func TestStatsCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.txt")
	raw := strings.Join([]string{
		"1/3/24, 9:00 AM - Alice: hello world https://example.com",
		"1/3/24, 9:05 AM - Bob: <Media omitted>",
		"2/3/24, 10:15 AM - Alice: hello again",
		"2/3/24, 10:16 AM - Alice added Carol",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cmd := NewStatsCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path, "--daily"})
	require.NoError(t, cmd.Execute())

	got := out.String()
	assert.Contains(t, got, "Messages: 4")
	assert.Contains(t, got, "Media shared: 1")
	assert.Contains(t, got, "Links shared: 1")
	assert.Contains(t, got, "Mar 2024")
	assert.Contains(t, got, "2024-03-02")
	assert.Contains(t, got, "== Most busy users ==")
	assert.Contains(t, got, "hello(2)")
}

func TestStatsCommand_NoMessages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.txt")
	require.NoError(t, os.WriteFile(path, []byte("nothing here"), 0644))

	cmd := NewStatsCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "No messages parsed. Check chat file format.")
}

func TestPrintRuns(t *testing.T) {
	var out bytes.Buffer
	printRuns(&out, nil)
	assert.Equal(t, "No runs recorded\n", out.String())

	out.Reset()
	printRuns(&out, []*store.DigestRun{{
		ID:           "0123456789abcdef",
		StartDate:    time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
		Status:       store.StatusFailed,
		ErrorMessage: "quota",
	}})
	got := out.String()
	assert.Contains(t, got, "01234567")
	assert.Contains(t, got, "2024-03-01 ~ 2024-03-07")
	assert.Contains(t, got, "failed")
	assert.Contains(t, got, "quota")
}

func TestLoadConfig_DefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	root := NewRootCommand()
	c, err := loadConfig(root)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultModel, c.LLM.DefaultModel)
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	root := NewRootCommand()
	require.NoError(t, root.PersistentFlags().Set("file", filepath.Join(t.TempDir(), "missing.yaml")))

	_, err := loadConfig(root)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNewRootCommand(t *testing.T) {
	root := NewRootCommand()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"summarize", "stats", "serve", "runs"})
	assert.NotNil(t, root.PersistentFlags().ShorthandLookup("f"))
}
