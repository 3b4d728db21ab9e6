package transcript

import "time"

// DateWindow 闭区间 [Start, End]，只比较日历日期。Start 晚于 End 时不匹配任何消息
type DateWindow struct {
	Start time.Time
	End   time.Time
}

// NewDateWindow 创建日期区间，时分秒被忽略
func NewDateWindow(start, end time.Time) DateWindow {
	return DateWindow{Start: truncateToDay(start), End: truncateToDay(end)}
}

// Contains 判断时间所在日历日是否落在区间内（含两端）
func (w DateWindow) Contains(t time.Time) bool {
	d := civilDay(t)
	return civilDay(w.Start) <= d && d <= civilDay(w.End)
}

// String 格式化为 "2006-01-02 ~ 2006-01-02"
func (w DateWindow) String() string {
	return w.Start.Format("2006-01-02") + " ~ " + w.End.Format("2006-01-02")
}

// FilterByDateRange 保留日期落在区间内的消息，顺序不变；无匹配时返回空切片
func FilterByDateRange(records []Record, window DateWindow) []Record {
	filtered := make([]Record, 0)
	for _, r := range records {
		if window.Contains(r.Timestamp) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// civilDay 以 yyyymmdd 整数表示日历日，避免不同时区的 time.Time 直接比较
func civilDay(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
