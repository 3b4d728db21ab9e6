package transcript

import (
	"fmt"
	"strings"
	"time"
)

// GroupNotification 未识别出 "Name: " 前缀的消息（入群、改名等系统事件）的作者
const GroupNotification = "group_notification"

// MediaOmitted 导出时被省略的媒体消息内容
const MediaOmitted = "<Media omitted>"

// Record 聊天记录中解析出的一条消息
type Record struct {
	Timestamp time.Time
	Author    string
	Content   string
}

// Date 消息所在日历日的零点（忽略时分）
func (r Record) Date() time.Time {
	return truncateToDay(r.Timestamp)
}

// Period 消息所在的小时区间，如 "23-0"
func (r Record) Period() string {
	h := r.Timestamp.Hour()
	return fmt.Sprintf("%d-%d", h, (h+1)%24)
}

// IsMedia 是否为省略的媒体消息
func (r Record) IsMedia() bool {
	return strings.Contains(r.Content, MediaOmitted)
}

// IsNotification 是否为系统通知
func (r Record) IsNotification() bool {
	return r.Author == GroupNotification
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
