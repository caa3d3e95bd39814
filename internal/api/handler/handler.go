package handler

import "github.com/Joy2225/timetable/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Timetable *TimetableHandler
	Period    *PeriodHandler
	Widget    *WidgetHandler
	Export    *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Timetable: NewTimetableHandler(svc.Timetable),
		Period:    NewPeriodHandler(svc.Timetable),
		Widget:    NewWidgetHandler(svc.Widget),
		Export:    NewExportHandler(svc.Export),
	}
}
