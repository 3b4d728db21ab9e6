package transcript

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fachebot/talk-digest/internal/logger"
)

// DateOrder 数字日期 a/b/y 的解释顺序
type DateOrder int

const (
	// DayFirst 聊天记录时间戳使用：a 为日、b 为月；若不是合法日期而月在前合法，则按月在前解释
	DayFirst DateOrder = iota
	// MonthFirst 命令行日期区间使用：严格按 MM/DD/YYYY 解释，不做回退
	MonthFirst
)

func (o DateOrder) String() string {
	switch o {
	case DayFirst:
		return "day-first"
	case MonthFirst:
		return "month-first"
	default:
		return fmt.Sprintf("DateOrder(%d)", int(o))
	}
}

// 导出文件常在时间与 AM/PM 之间使用窄不换行空格 U+202F，Go 的 \s 只匹配 ASCII 空白
const ws = `[\s\x{00A0}\x{202F}]`

var (
	// 时间戳标记：3/1/24, 9:00 AM -
	markerRegex = regexp.MustCompile(`(\d{1,2}/\d{1,2}/\d{2,4},` + ws + `*\d{1,2}:\d{2}` + ws + `*(?:am|pm|AM|PM))` + ws + `*-` + ws + `*`)

	// 归一化后的时间戳各字段
	timestampRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2,4}), ?(\d{1,2}):(\d{2}) ?([AaPp][Mm])$`)

	// 消息体开头的 "发送者: "
	authorRegex = regexp.MustCompile(`^([^:\n]+):(?:\s|$)`)

	spaceReplacer = strings.NewReplacer("\u202f", " ", "\u00a0", " ")
)

// ParseFailure 被跳过的时间戳及原因
type ParseFailure struct {
	Timestamp string
	Err       error
}

// ParseResult 解析结果，Records 保持在原文中的出现顺序
type ParseResult struct {
	Records []Record
	Skipped []ParseFailure
}

// Empty 是否没有解析出任何消息
func (r *ParseResult) Empty() bool {
	return r == nil || len(r.Records) == 0
}

// Parse 将聊天导出文本切分为有序的消息记录。
// 文本按时间戳标记切分，首个标记之前的内容（导出头信息）被丢弃；
// 时间戳无法解析的消息被跳过并记录在 Skipped 中，不返回错误。
func Parse(raw string, order DateOrder) *ParseResult {
	result := &ParseResult{Records: make([]Record, 0)}

	matches := markerRegex.FindAllStringSubmatchIndex(raw, -1)
	for i, m := range matches {
		ts := raw[m[2]:m[3]]
		bodyEnd := len(raw)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := raw[m[1]:bodyEnd]

		timestamp, err := ParseTimestamp(ts, order)
		if err != nil {
			logger.Debugf("[Parser] 跳过无法解析的时间戳 %q: %v", ts, err)
			result.Skipped = append(result.Skipped, ParseFailure{Timestamp: ts, Err: err})
			continue
		}

		author, content := splitAuthor(body)
		result.Records = append(result.Records, Record{
			Timestamp: timestamp,
			Author:    author,
			Content:   content,
		})
	}

	return result
}

// splitAuthor 拆出消息体开头的发送者，未匹配时作者为 GroupNotification
func splitAuthor(body string) (string, string) {
	loc := authorRegex.FindStringSubmatchIndex(body)
	if loc == nil {
		return GroupNotification, strings.TrimSpace(body)
	}
	author := strings.TrimSpace(body[loc[2]:loc[3]])
	return author, strings.TrimSpace(body[loc[1]:])
}

// normalizeSpaces 把特殊空格替换为普通空格并合并连续空白
func normalizeSpaces(s string) string {
	return strings.Join(strings.Fields(spaceReplacer.Replace(s)), " ")
}

// ParseTimestamp 解析 "M/D/YY, H:MM AM" 形式的时间戳，结果为 UTC
func ParseTimestamp(ts string, order DateOrder) (time.Time, error) {
	norm := normalizeSpaces(ts)
	m := timestampRegex.FindStringSubmatch(norm)
	if m == nil {
		return time.Time{}, fmt.Errorf("时间戳格式不匹配: %q", norm)
	}

	first, _ := strconv.Atoi(m[1])
	second, _ := strconv.Atoi(m[2])
	year, err := expandYear(m[3])
	if err != nil {
		return time.Time{}, err
	}

	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	if hour < 1 || hour > 12 {
		return time.Time{}, fmt.Errorf("小时超出范围: %d", hour)
	}
	if minute > 59 {
		return time.Time{}, fmt.Errorf("分钟超出范围: %d", minute)
	}
	if strings.EqualFold(m[6], "pm") {
		if hour != 12 {
			hour += 12
		}
	} else if hour == 12 {
		hour = 0
	}

	month, day, err := resolveDate(first, second, year, order)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC), nil
}

// resolveDate 按日期顺序确定 (月, 日)
func resolveDate(first, second, year int, order DateOrder) (int, int, error) {
	switch order {
	case DayFirst:
		if validDate(year, second, first) {
			return second, first, nil
		}
		if validDate(year, first, second) {
			return first, second, nil
		}
	case MonthFirst:
		if validDate(year, first, second) {
			return first, second, nil
		}
	default:
		return 0, 0, fmt.Errorf("未知的日期顺序: %s", order)
	}
	return 0, 0, fmt.Errorf("无效日期: %d/%d/%d (%s)", first, second, year, order)
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Month() == time.Month(month) && t.Day() == day
}

// expandYear 两位年份以 69 为界：00-68 => 20xx，69-99 => 19xx（与 time.Parse 的 "06" 一致）。
// 界限固定，不随当前年份按前后 50 年滑动，因此 "70"~"75" 始终解析为 197x
func expandYear(s string) (int, error) {
	y, _ := strconv.Atoi(s)
	switch len(s) {
	case 2:
		if y >= 69 {
			return 1900 + y, nil
		}
		return 2000 + y, nil
	case 4:
		return y, nil
	default:
		return 0, fmt.Errorf("无法识别的年份: %q", s)
	}
}

// ParseDate 解析日期区间端点，MonthFirst 为 MM/DD/YYYY，DayFirst 为 DD/MM/YYYY
func ParseDate(s string, order DateOrder) (time.Time, error) {
	layout, format := "1/2/2006", "MM/DD/YYYY"
	if order == DayFirst {
		layout, format = "2/1/2006", "DD/MM/YYYY"
	}
	t, err := time.Parse(layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("日期 %q 不符合 %s 格式: %w", s, format, err)
	}
	return t, nil
}
