package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Joy2225/timetable/internal/dto"
	"github.com/Joy2225/timetable/internal/service"
	"github.com/Joy2225/timetable/internal/timetable"
	pkgerrors "github.com/Joy2225/timetable/pkg/errors"
	"github.com/Joy2225/timetable/pkg/response"
)

// TimetableHandler 课表模块 HTTP 处理器
type TimetableHandler struct {
	timetableSvc service.TimetableService
}

// NewTimetableHandler 创建 TimetableHandler
func NewTimetableHandler(timetableSvc service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetableSvc: timetableSvc}
}

// CreateTimetable 创建课表
// POST /api/v1/timetables
func (h *TimetableHandler) CreateTimetable(c *gin.Context) {
	var req dto.CreateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tt, err := h.timetableSvc.Create(c.Request.Context(), &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.Created(c, tt)
}

// ListTimetables 课表列表
// GET /api/v1/timetables?year=&semester=
func (h *TimetableHandler) ListTimetables(c *gin.Context) {
	var req dto.TimetableListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	list, err := h.timetableSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}

	response.OKList(c, list, len(list))
}

// GetTimetable 课表详情
// GET /api/v1/timetables/:key
func (h *TimetableHandler) GetTimetable(c *gin.Context) {
	key, ok := MustGetParam(c, "key", "课表标识不能为空")
	if !ok {
		return
	}

	tt, err := h.timetableSvc.GetByKey(c.Request.Context(), key)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, tt)
}

// UpdateTimetable 整体替换课表内容
// PUT /api/v1/timetables/:key
func (h *TimetableHandler) UpdateTimetable(c *gin.Context) {
	key, ok := MustGetParam(c, "key", "课表标识不能为空")
	if !ok {
		return
	}

	var req dto.UpdateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	tt, err := h.timetableSvc.Update(c.Request.Context(), key, &req)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, tt)
}

// DeleteTimetable 删除课表
// DELETE /api/v1/timetables/:key
func (h *TimetableHandler) DeleteTimetable(c *gin.Context) {
	key, ok := MustGetParam(c, "key", "课表标识不能为空")
	if !ok {
		return
	}

	if err := h.timetableSvc.Delete(c.Request.Context(), key); err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, nil)
}

// ProjectDay 单日投影
// GET /api/v1/timetables/:key/days/:day?show_free=&at=
func (h *TimetableHandler) ProjectDay(c *gin.Context) {
	key, ok := MustGetParam(c, "key", "课表标识不能为空")
	if !ok {
		return
	}
	day, ok := MustGetDay(c)
	if !ok {
		return
	}

	var q dto.ProjectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.timetableSvc.ProjectDay(c.Request.Context(), key, day, &q)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, resp)
}

// ProjectWeek 整周投影
// GET /api/v1/timetables/:key/week?show_free=&at=
func (h *TimetableHandler) ProjectWeek(c *gin.Context) {
	key, ok := MustGetParam(c, "key", "课表标识不能为空")
	if !ok {
		return
	}

	var q dto.ProjectionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	resp, err := h.timetableSvc.ProjectWeek(c.Request.Context(), key, &q)
	if err != nil {
		handleTimetableError(c, err)
		return
	}

	response.OK(c, resp)
}

// handleTimetableError 统一处理课表模块业务错误（挂件与导出模块共用）
func handleTimetableError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, timetable.ErrInvalidKey):
		response.BadRequest(c, 20001, "课表标识格式应为 year_section_semester")
	case errors.Is(err, service.ErrTimetableNotFound):
		response.NotFound(c, 20002, "课表不存在")
	case errors.Is(err, service.ErrTimetableExists):
		response.Conflict(c, 20003, "课表已存在")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 20004, "课表已被修改，请刷新后重试")
	case errors.Is(err, service.ErrInvalidDay):
		response.BadRequest(c, 20005, "星期应为 MON 至 SUN")
	case errors.Is(err, service.ErrInvalidTime):
		response.BadRequest(c, 20006, "时间格式无效")
	default:
		response.InternalError(c)
	}
}
