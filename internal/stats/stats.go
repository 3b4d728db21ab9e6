package stats

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/fachebot/talk-digest/internal/transcript"
)

// Overall 统计全部成员
const Overall = "Overall"

var urlRegex = regexp.MustCompile(`(?:https?://|www\.)[^\s<>"{}|\\^` + "`" + `\[\]]+`)

// Overview 消息概览
type Overview struct {
	Messages int
	Words    int
	Media    int
	Links    int
}

// UserShare 成员发言数及占比（百分比，保留两位小数）
type UserShare struct {
	User       string
	Messages   int
	Percentage float64
}

// WordFreq 词频
type WordFreq struct {
	Word  string
	Count int
}

// DayCount 星期维度的消息数
type DayCount struct {
	Day   time.Weekday
	Count int
}

// TimelinePoint 按月统计的消息数，Label 形如 "Jan 2025"
type TimelinePoint struct {
	Label string
	Count int
}

// DailyPoint 按日统计的消息数
type DailyPoint struct {
	Date  time.Time
	Count int
}

// Heatmap 星期 × 小时的消息数，列对应 Record.Period()
type Heatmap [7][24]int

func byUser(records []transcript.Record, user string) []transcript.Record {
	if user == "" || user == Overall {
		return records
	}
	filtered := make([]transcript.Record, 0)
	for _, r := range records {
		if r.Author == user {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ExtractURLs 提取文本中的链接
func ExtractURLs(text string) []string {
	return urlRegex.FindAllString(text, -1)
}

// Fetch 统计消息数、词数、媒体数与链接数
func Fetch(records []transcript.Record, user string) Overview {
	var o Overview
	for _, r := range byUser(records, user) {
		o.Messages++
		o.Words += len(strings.Fields(r.Content))
		if r.IsMedia() {
			o.Media++
		}
		o.Links += len(ExtractURLs(r.Content))
	}
	return o
}

// BusiestUsers 发言最多的前 n 个成员，占比相对于这 n 个成员的总数
func BusiestUsers(records []transcript.Record, n int) []UserShare {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range records {
		if _, ok := counts[r.Author]; !ok {
			order = append(order, r.Author)
		}
		counts[r.Author]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if n > 0 && len(order) > n {
		order = order[:n]
	}

	total := 0
	for _, user := range order {
		total += counts[user]
	}

	shares := make([]UserShare, 0, len(order))
	for _, user := range order {
		shares = append(shares, UserShare{
			User:       user,
			Messages:   counts[user],
			Percentage: round2(float64(counts[user]) * 100 / float64(total)),
		})
	}
	return shares
}

// CommonWords 高频词，排除系统通知、媒体消息与停用词，词频相同时按首次出现顺序
func CommonWords(records []transcript.Record, user string, stopWords map[string]struct{}, n int) []WordFreq {
	counts := make(map[string]int)
	order := make([]string, 0)
	for _, r := range byUser(records, user) {
		if r.IsNotification() || r.IsMedia() {
			continue
		}
		for _, word := range strings.Fields(strings.ToLower(r.Content)) {
			if _, stop := stopWords[word]; stop {
				continue
			}
			if _, ok := counts[word]; !ok {
				order = append(order, word)
			}
			counts[word]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if n > 0 && len(order) > n {
		order = order[:n]
	}

	words := make([]WordFreq, 0, len(order))
	for _, word := range order {
		words = append(words, WordFreq{Word: word, Count: counts[word]})
	}
	return words
}

// WeekActivity 各星期的消息数，从多到少排列，只包含有消息的星期
func WeekActivity(records []transcript.Record, user string) []DayCount {
	var counts [7]int
	for _, r := range byUser(records, user) {
		counts[r.Timestamp.Weekday()]++
	}

	days := make([]DayCount, 0, 7)
	for d, c := range counts {
		if c > 0 {
			days = append(days, DayCount{Day: time.Weekday(d), Count: c})
		}
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Count > days[j].Count
	})
	return days
}

// ActivityHeatmap 按星期与小时统计消息数
func ActivityHeatmap(records []transcript.Record, user string) Heatmap {
	var h Heatmap
	for _, r := range byUser(records, user) {
		h[r.Timestamp.Weekday()][r.Timestamp.Hour()]++
	}
	return h
}

// Busiest 返回消息最多的星期与小时
func (h Heatmap) Busiest() (time.Weekday, int, int) {
	var day time.Weekday
	hour, best := 0, 0
	for d := range h {
		for hr, c := range h[d] {
			if c > best {
				day, hour, best = time.Weekday(d), hr, c
			}
		}
	}
	return day, hour, best
}

// MonthlyTimeline 按月统计，按时间先后排列
func MonthlyTimeline(records []transcript.Record, user string) []TimelinePoint {
	counts := make(map[time.Time]int)
	for _, r := range byUser(records, user) {
		y, m, _ := r.Timestamp.Date()
		counts[time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)]++
	}

	months := make([]time.Time, 0, len(counts))
	for m := range counts {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	points := make([]TimelinePoint, 0, len(months))
	for _, m := range months {
		points = append(points, TimelinePoint{Label: m.Format("Jan 2006"), Count: counts[m]})
	}
	return points
}

// DailyTimeline 按日统计，按日期先后排列
func DailyTimeline(records []transcript.Record, user string) []DailyPoint {
	counts := make(map[time.Time]int)
	for _, r := range byUser(records, user) {
		d := r.Date()
		counts[time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)]++
	}

	days := make([]time.Time, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	points := make([]DailyPoint, 0, len(days))
	for _, d := range days {
		points = append(points, DailyPoint{Date: d, Count: counts[d]})
	}
	return points
}

// Users 按首次发言顺序返回成员列表，不含系统通知
func Users(records []transcript.Record) []string {
	seen := make(map[string]bool)
	users := make([]string, 0)
	for _, r := range records {
		if r.IsNotification() || seen[r.Author] {
			continue
		}
		seen[r.Author] = true
		users = append(users, r.Author)
	}
	return users
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
