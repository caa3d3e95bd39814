package service

import (
	"go.uber.org/zap"

	"github.com/Joy2225/timetable/config"
	"github.com/Joy2225/timetable/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Timetable TimetableService
	Widget    WidgetService
	Export    ExportService
}

// NewService 创建 Service 聚合；cache 可为 nil（Redis 不可用时降级为实时渲染）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	cache SnapshotCache,
	logger *zap.Logger,
) *Service {
	return &Service{
		Timetable: NewTimetableService(&cfg.Timetable, repo, cache, logger),
		Widget:    NewWidgetService(cfg, repo, cache, logger),
		Export:    NewExportService(&cfg.Timetable, repo, logger),
	}
}
