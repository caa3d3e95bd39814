package dto

import "time"

// PeriodQuery 节次查询参数
type PeriodQuery struct {
	At string `form:"at" binding:"omitempty,timeofday"`
}

// PeriodResponse 节次
type PeriodResponse struct {
	Index int    `json:"index"`
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

// CurrentPeriodResponse 当前节次；不在任何节次内时 Period 为空
type CurrentPeriodResponse struct {
	At     string          `json:"at"`
	Active bool            `json:"active"`
	Period *PeriodResponse `json:"period,omitempty"`
}

// NextBoundaryResponse 下一次刷新时刻与下一节开始时间
type NextBoundaryResponse struct {
	At              time.Time `json:"at"`
	NextBoundary    time.Time `json:"next_boundary"`
	NextPeriodIndex int       `json:"next_period_index"`
	NextPeriodStart time.Time `json:"next_period_start"`
}
