package stats

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fachebot/talk-digest/internal/transcript"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

// 2024-03-04 为星期一
func fixture() []transcript.Record {
	return []transcript.Record{
		{Timestamp: at(2024, 3, 4, 9), Author: transcript.GroupNotification, Content: "Alice added Bob"},
		{Timestamp: at(2024, 3, 4, 9), Author: "Alice", Content: "Hello hello world"},
		{Timestamp: at(2024, 3, 4, 10), Author: "Bob", Content: "see https://example.com and www.go.dev"},
		{Timestamp: at(2024, 3, 5, 23), Author: "Alice", Content: transcript.MediaOmitted},
		{Timestamp: at(2024, 4, 1, 9), Author: "Alice", Content: "the world is big"},
		{Timestamp: at(2024, 4, 2, 9), Author: "Carol", Content: "The end"},
	}
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name string
		user string
		want Overview
	}{
		{"全部成员", Overall, Overview{Messages: 6, Words: 19, Media: 1, Links: 2}},
		{"空用户等同全部", "", Overview{Messages: 6, Words: 19, Media: 1, Links: 2}},
		{"单个成员", "Alice", Overview{Messages: 3, Words: 9, Media: 1, Links: 0}},
		{"不存在的成员", "Zed", Overview{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fetch(fixture(), tt.user))
		})
	}
}

func TestExtractURLs(t *testing.T) {
	got := ExtractURLs("a https://example.com/x?y=1 b http://foo.bar c www.go.dev <https://in.angle>")
	assert.Equal(t, []string{"https://example.com/x?y=1", "http://foo.bar", "www.go.dev", "https://in.angle"}, got)
}

func TestBusiestUsers(t *testing.T) {
	got := BusiestUsers(fixture(), 2)
	require.Len(t, got, 2)
	assert.Equal(t, UserShare{User: "Alice", Messages: 3, Percentage: 75}, got[0])
	assert.Equal(t, UserShare{User: transcript.GroupNotification, Messages: 1, Percentage: 25}, got[1])

	got = BusiestUsers(fixture(), 5)
	require.Len(t, got, 4)
	assert.Equal(t, 16.67, got[1].Percentage)

	assert.Empty(t, BusiestUsers(nil, 5))
}

func TestCommonWords(t *testing.T) {
	stop := map[string]struct{}{"the": {}, "is": {}}

	got := CommonWords(fixture(), Overall, stop, 3)
	assert.Equal(t, []WordFreq{{"hello", 2}, {"world", 2}, {"see", 1}}, got)

	got = CommonWords(fixture(), "Carol", stop, 10)
	assert.Equal(t, []WordFreq{{"end", 1}}, got)

	got = CommonWords(fixture(), "Alice", nil, 0)
	assert.Len(t, got, 5)
}

func TestWeekActivity(t *testing.T) {
	got := WeekActivity(fixture(), Overall)
	assert.Equal(t, []DayCount{
		{time.Monday, 4},
		{time.Tuesday, 2},
	}, got)
}

func TestActivityHeatmap(t *testing.T) {
	h := ActivityHeatmap(fixture(), Overall)
	assert.Equal(t, 3, h[time.Monday][9])
	assert.Equal(t, 1, h[time.Monday][10])
	assert.Equal(t, 1, h[time.Tuesday][23])

	day, hour, count := h.Busiest()
	assert.Equal(t, time.Monday, day)
	assert.Equal(t, 9, hour)
	assert.Equal(t, 3, count)
}

func TestMonthlyTimeline(t *testing.T) {
	records := append(fixture(), transcript.Record{Timestamp: at(2023, 12, 31, 9), Author: "Bob", Content: "old"})

	got := MonthlyTimeline(records, Overall)
	assert.Equal(t, []TimelinePoint{
		{"Dec 2023", 1},
		{"Mar 2024", 4},
		{"Apr 2024", 2},
	}, got)
}

func TestDailyTimeline(t *testing.T) {
	got := DailyTimeline(fixture(), "Alice")
	assert.Equal(t, []DailyPoint{
		{at(2024, 3, 4, 0), 1},
		{at(2024, 3, 5, 0), 1},
		{at(2024, 4, 1, 0), 1},
	}, got)
}

func TestUsers(t *testing.T) {
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, Users(fixture()))
}

func TestLoadStopWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.txt")
	require.NoError(t, os.WriteFile(path, []byte("The\n  is \n\nand\n"), 0644))

	words, err := LoadStopWords(path)
	require.NoError(t, err)
	assert.Len(t, words, 3)
	assert.Contains(t, words, "the")
	assert.Contains(t, words, "is")

	_, err = LoadStopWords(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
