package dto

import (
	"time"

	"github.com/Joy2225/timetable/internal/timetable"
)

// ConfigureWidgetRequest 挂件绑定课表
type ConfigureWidgetRequest struct {
	TimetableKey    string `json:"timetable_key" binding:"required,max=120"`
	ShowFreePeriods *bool  `json:"show_free_periods"`
}

// WidgetResponse 挂件配置
type WidgetResponse struct {
	WidgetID        string    `json:"widget_id"`
	TimetableKey    string    `json:"timetable_key"`
	ShowFreePeriods bool      `json:"show_free_periods"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// WidgetRenderResponse 挂件渲染结果；ValidUntil 为下一个节次边界
type WidgetRenderResponse struct {
	WidgetID     string                   `json:"widget_id"`
	TimetableKey string                   `json:"timetable_key"`
	Day          string                   `json:"day"`
	RenderedAt   time.Time                `json:"rendered_at"`
	ValidUntil   time.Time                `json:"valid_until"`
	Entries      []timetable.DisplayEntry `json:"entries"`
	Cached       bool                     `json:"cached"`
}
