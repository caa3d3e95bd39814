package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Joy2225/timetable/internal/dto"
	"github.com/Joy2225/timetable/internal/service"
	"github.com/Joy2225/timetable/pkg/response"
)

// PeriodHandler 节次时钟 HTTP 处理器
type PeriodHandler struct {
	timetableSvc service.TimetableService
}

// NewPeriodHandler 创建 PeriodHandler
func NewPeriodHandler(timetableSvc service.TimetableService) *PeriodHandler {
	return &PeriodHandler{timetableSvc: timetableSvc}
}

// ListPeriods 节次时间表
// GET /api/v1/periods
func (h *PeriodHandler) ListPeriods(c *gin.Context) {
	periods := h.timetableSvc.Periods()
	response.OKList(c, periods, len(periods))
}

// CurrentPeriod 当前节次
// GET /api/v1/periods/current?at=HH:MM
func (h *PeriodHandler) CurrentPeriod(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.timetableSvc.CurrentPeriod(q.At)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, resp)
}

// NextBoundary 下一个刷新边界
// GET /api/v1/periods/next?at=HH:MM
func (h *PeriodHandler) NextBoundary(c *gin.Context) {
	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.timetableSvc.NextBoundary(q.At)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, resp)
}
