package dto

import (
	"time"

	"github.com/Joy2225/timetable/internal/timetable"
)

// ── 课表维护 ──

// SubjectInput 课程定义；code 缺省时取目录中的键
type SubjectInput struct {
	Name      string `json:"name" binding:"required,max=100"`
	Code      string `json:"code" binding:"omitempty,max=40"`
	Faculty   string `json:"faculty" binding:"omitempty,max=100"`
	ShortName string `json:"short_name" binding:"omitempty,max=12"`
}

// CreateTimetableRequest 创建课表请求
type CreateTimetableRequest struct {
	Year     string                  `json:"year" binding:"required,keypart"`
	Section  string                  `json:"section" binding:"required,keypart"`
	Semester string                  `json:"semester" binding:"required,keypart"`
	Subjects map[string]SubjectInput `json:"subjects" binding:"dive"`
	Schedule map[string][]string     `json:"schedule" binding:"dive,keys,daykey,endkeys,max=14"`
}

// UpdateTimetableRequest 整体替换课表内容（需携带当前版本号）
type UpdateTimetableRequest struct {
	Version  int                     `json:"version" binding:"required,min=1"`
	Subjects map[string]SubjectInput `json:"subjects" binding:"dive"`
	Schedule map[string][]string     `json:"schedule" binding:"dive,keys,daykey,endkeys,max=14"`
}

// TimetableListRequest 课表列表筛选
type TimetableListRequest struct {
	Year     string `form:"year" binding:"omitempty,keypart"`
	Semester string `form:"semester" binding:"omitempty,keypart"`
}

// TimetableResponse 课表详情
type TimetableResponse struct {
	Key       string                   `json:"key"`
	Year      string                   `json:"year"`
	Section   string                   `json:"section"`
	Semester  string                   `json:"semester"`
	Subjects  timetable.Directory      `json:"subjects"`
	Schedule  timetable.WeeklySchedule `json:"schedule"`
	Version   int                      `json:"version"`
	UpdatedAt time.Time                `json:"updated_at"`
}

// ── 投影 ──

// ProjectionQuery 投影查询参数；show_free 缺省取配置值，at 缺省取当前时间
type ProjectionQuery struct {
	ShowFree *bool  `form:"show_free"`
	At       string `form:"at" binding:"omitempty,timeofday"`
}

// DayProjectionResponse 单日投影
type DayProjectionResponse struct {
	Key          string                   `json:"key"`
	Day          string                   `json:"day"`
	At           string                   `json:"at"`
	ActivePeriod *int                     `json:"active_period"`
	Entries      []timetable.DisplayEntry `json:"entries"`
}

// WeekProjectionResponse 整周投影（按周一到周日排列，仅含已配置的日期）
type WeekProjectionResponse struct {
	Key  string                  `json:"key"`
	Days []DayProjectionResponse `json:"days"`
}

// ── 导出 ──

// ExportICSQuery 日历导出参数；from 缺省为今天
type ExportICSQuery struct {
	From string `form:"from" binding:"omitempty,datetime=2006-01-02"`
}
