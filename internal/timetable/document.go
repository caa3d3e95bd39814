package timetable

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Document 持久化的时间表文档：课程目录 + 周课表
type Document struct {
	Subjects Directory      `json:"subjects"`
	Schedule WeeklySchedule `json:"schedule"`
}

// DecodeDocument 从 JSON 读取时间表文档，未知字段忽略
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("解析时间表文档失败: %w", err)
	}
	if doc.Subjects == nil {
		doc.Subjects = Directory{}
	}
	if doc.Schedule == nil {
		doc.Schedule = WeeklySchedule{}
	}
	return &doc, nil
}

// Project 对文档中的某一天做投影
func (d *Document) Project(day string, showFreePeriods bool, now TimeOfDay) []DisplayEntry {
	return ProjectDay(day, d.Schedule, d.Subjects, showFreePeriods, now)
}

// ── 星期标识 ──

var dayKeys = [7]string{"SUN", "MON", "TUE", "WED", "THU", "FRI", "SAT"}

// DayKey time.Weekday → "MON" … "SUN"
func DayKey(wd time.Weekday) string {
	return dayKeys[wd%7]
}

// WeekDays 周一到周日的展示顺序
func WeekDays() []string {
	return []string{"MON", "TUE", "WED", "THU", "FRI", "SAT", "SUN"}
}

// ParseDayKey 校验星期标识
func ParseDayKey(s string) (time.Weekday, bool) {
	for i, k := range dayKeys {
		if k == s {
			return time.Weekday(i), true
		}
	}
	return time.Sunday, false
}
