package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Joy2225/timetable/internal/dto"
	"github.com/Joy2225/timetable/internal/service"
	"github.com/Joy2225/timetable/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportExcel 导出整周课表
// GET /api/v1/timetables/:key/export/xlsx
func (h *ExportHandler) ExportExcel(c *gin.Context) {
	key, ok := MustGetParam(c, "key", "课表标识不能为空")
	if !ok {
		return
	}

	buf, filename, err := h.exportSvc.ExportWeekExcel(c.Request.Context(), key)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.File(c, filename, contentTypeXLSX, buf.Bytes())
}

// ExportICS 导出日历
// GET /api/v1/timetables/:key/export/ics?from=YYYY-MM-DD
func (h *ExportHandler) ExportICS(c *gin.Context) {
	key, ok := MustGetParam(c, "key", "课表标识不能为空")
	if !ok {
		return
	}

	var q dto.ExportICSQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	body, filename, err := h.exportSvc.ExportICS(c.Request.Context(), key, q.From)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	response.File(c, filename, contentTypeICS, body)
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportEmpty):
		response.BadRequest(c, 22001, "课表中没有可导出的课程")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleTimetableError(c, err)
	}
}
