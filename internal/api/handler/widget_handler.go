package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Joy2225/timetable/internal/dto"
	"github.com/Joy2225/timetable/internal/service"
	"github.com/Joy2225/timetable/pkg/response"
)

// WidgetHandler 桌面挂件 HTTP 处理器
type WidgetHandler struct {
	widgetSvc service.WidgetService
}

// NewWidgetHandler 创建 WidgetHandler
func NewWidgetHandler(widgetSvc service.WidgetService) *WidgetHandler {
	return &WidgetHandler{widgetSvc: widgetSvc}
}

// ConfigureWidget 挂件绑定课表
// PUT /api/v1/widgets/:id
func (h *WidgetHandler) ConfigureWidget(c *gin.Context) {
	id, ok := MustGetWidgetID(c)
	if !ok {
		return
	}

	var req dto.ConfigureWidgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	w, err := h.widgetSvc.Configure(c.Request.Context(), id, &req)
	if err != nil {
		h.handleWidgetError(c, err)
		return
	}

	response.OK(c, w)
}

// GetWidget 挂件配置
// GET /api/v1/widgets/:id
func (h *WidgetHandler) GetWidget(c *gin.Context) {
	id, ok := MustGetWidgetID(c)
	if !ok {
		return
	}

	w, err := h.widgetSvc.Get(c.Request.Context(), id)
	if err != nil {
		h.handleWidgetError(c, err)
		return
	}

	response.OK(c, w)
}

// RenderWidget 挂件今日条目
// GET /api/v1/widgets/:id/render?at=HH:MM
func (h *WidgetHandler) RenderWidget(c *gin.Context) {
	id, ok := MustGetWidgetID(c)
	if !ok {
		return
	}

	var q dto.PeriodQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.widgetSvc.Render(c.Request.Context(), id, q.At)
	if err != nil {
		h.handleWidgetError(c, err)
		return
	}

	response.OK(c, resp)
}

// handleWidgetError 挂件错误优先，其余交给课表模块
func (h *WidgetHandler) handleWidgetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWidgetNotFound):
		response.NotFound(c, 21001, "挂件未配置")
	default:
		handleTimetableError(c, err)
	}
}
