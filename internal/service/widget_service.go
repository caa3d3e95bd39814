package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Joy2225/timetable/config"
	"github.com/Joy2225/timetable/internal/dto"
	"github.com/Joy2225/timetable/internal/model"
	"github.com/Joy2225/timetable/internal/repository"
	"github.com/Joy2225/timetable/internal/timetable"
	"github.com/Joy2225/timetable/pkg/redis"
)

// ── 挂件模块业务错误 ──

var (
	ErrWidgetNotFound = errors.New("挂件未配置")
)

// SnapshotCache 挂件渲染快照缓存，由 pkg/redis.Client 实现
type SnapshotCache interface {
	GetSnapshot(ctx context.Context, widgetID string) ([]byte, error)
	SetSnapshot(ctx context.Context, widgetID string, payload []byte, ttl time.Duration) error
	DeleteSnapshot(ctx context.Context, widgetIDs ...string) error
}

// WidgetService 桌面挂件业务接口
//
// 渲染结果只在节次边界处变化，因此快照缓存到下一个边界为止；
// 刷新任务在每个边界重新渲染所有挂件。
type WidgetService interface {
	Configure(ctx context.Context, widgetID string, req *dto.ConfigureWidgetRequest) (*dto.WidgetResponse, error)
	Get(ctx context.Context, widgetID string) (*dto.WidgetResponse, error)
	Render(ctx context.Context, widgetID, at string) (*dto.WidgetRenderResponse, error)
	RefreshAll(ctx context.Context) (int, error)
}

type widgetService struct {
	repo        *repository.Repository
	cache       SnapshotCache
	clock       wallClock
	showFree    bool
	snapshotTTL time.Duration
	logger      *zap.Logger
}

// NewWidgetService 创建 WidgetService 实例；cache 为 nil 时每次实时渲染
func NewWidgetService(cfg *config.Config, repo *repository.Repository, cache SnapshotCache, logger *zap.Logger) WidgetService {
	return &widgetService{
		repo:        repo,
		cache:       cache,
		clock:       newWallClock(cfg.Timetable.Location()),
		showFree:    cfg.Timetable.ShowFreePeriods,
		snapshotTTL: cfg.Redis.SnapshotTTL,
		logger:      logger,
	}
}

// ────────────────────── Configure ──────────────────────

func (s *widgetService) Configure(ctx context.Context, widgetID string, req *dto.ConfigureWidgetRequest) (*dto.WidgetResponse, error) {
	k, err := timetable.ParseKey(req.TimetableKey)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Timetable.GetByKey(ctx, k.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		s.logger.Error("查询课表失败", zap.String("key", k.String()), zap.Error(err))
		return nil, err
	}

	w := &model.Widget{
		WidgetID:        widgetID,
		TimetableKey:    k.String(),
		ShowFreePeriods: s.showFree,
	}
	if req.ShowFreePeriods != nil {
		w.ShowFreePeriods = *req.ShowFreePeriods
	}

	if err := s.repo.Widget.Upsert(ctx, w); err != nil {
		s.logger.Error("保存挂件配置失败", zap.String("widget_id", widgetID), zap.Error(err))
		return nil, err
	}

	s.dropSnapshot(ctx, widgetID)
	s.logger.Info("挂件已绑定课表",
		zap.String("widget_id", widgetID),
		zap.String("key", w.TimetableKey),
		zap.Bool("show_free_periods", w.ShowFreePeriods),
	)
	return toWidgetResponse(w), nil
}

// ────────────────────── Get ──────────────────────

func (s *widgetService) Get(ctx context.Context, widgetID string) (*dto.WidgetResponse, error) {
	w, err := s.load(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	return toWidgetResponse(w), nil
}

// ────────────────────── Render ──────────────────────

// Render 渲染挂件今天的条目。at 为空时优先读快照并回写；指定 at 时总是实时计算
func (s *widgetService) Render(ctx context.Context, widgetID, at string) (*dto.WidgetRenderResponse, error) {
	now, err := s.clock.resolve(at)
	if err != nil {
		return nil, err
	}

	if at == "" {
		if snap, ok := s.readSnapshot(ctx, widgetID, now); ok {
			return snap, nil
		}
	}

	w, err := s.load(ctx, widgetID)
	if err != nil {
		return nil, err
	}
	resp, err := s.render(ctx, w, now)
	if err != nil {
		return nil, err
	}

	if at == "" {
		s.writeSnapshot(ctx, resp)
	}
	return resp, nil
}

// ────────────────────── RefreshAll ──────────────────────

// RefreshAll 按当前时间重新渲染所有挂件并写入快照，返回成功数量
func (s *widgetService) RefreshAll(ctx context.Context) (int, error) {
	widgets, err := s.repo.Widget.List(ctx)
	if err != nil {
		s.logger.Error("列出挂件失败", zap.Error(err))
		return 0, err
	}

	now := s.clock.Now()
	refreshed := 0
	for i := range widgets {
		if err := ctx.Err(); err != nil {
			return refreshed, err
		}
		resp, err := s.render(ctx, &widgets[i], now)
		if err != nil {
			s.logger.Warn("挂件刷新失败",
				zap.String("widget_id", widgets[i].WidgetID),
				zap.Error(err),
			)
			s.dropSnapshot(ctx, widgets[i].WidgetID)
			continue
		}
		s.writeSnapshot(ctx, resp)
		refreshed++
	}

	s.logger.Debug("挂件刷新完成", zap.Int("total", len(widgets)), zap.Int("refreshed", refreshed))
	return refreshed, nil
}

// ── 辅助函数 ──

func (s *widgetService) load(ctx context.Context, widgetID string) (*model.Widget, error) {
	w, err := s.repo.Widget.GetByID(ctx, widgetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWidgetNotFound
		}
		s.logger.Error("查询挂件失败", zap.String("widget_id", widgetID), zap.Error(err))
		return nil, err
	}
	return w, nil
}

func (s *widgetService) render(ctx context.Context, w *model.Widget, now time.Time) (*dto.WidgetRenderResponse, error) {
	tt, err := s.repo.Timetable.GetByKey(ctx, w.TimetableKey)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		return nil, err
	}

	day := timetable.DayKey(now.Weekday())
	return &dto.WidgetRenderResponse{
		WidgetID:     w.WidgetID,
		TimetableKey: w.TimetableKey,
		Day:          day,
		RenderedAt:   now,
		ValidUntil:   timetable.NextBoundary(now),
		Entries:      tt.Document().Project(day, w.ShowFreePeriods, timetable.FromTime(now)),
	}, nil
}

func (s *widgetService) readSnapshot(ctx context.Context, widgetID string, now time.Time) (*dto.WidgetRenderResponse, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.GetSnapshot(ctx, widgetID)
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.logger.Warn("读取挂件快照失败", zap.String("widget_id", widgetID), zap.Error(err))
		}
		return nil, false
	}

	var snap dto.WidgetRenderResponse
	if err := json.Unmarshal(payload, &snap); err != nil {
		s.logger.Warn("挂件快照已损坏", zap.String("widget_id", widgetID), zap.Error(err))
		return nil, false
	}
	// 跨过边界或日期已切换的快照视为过期
	if !now.Before(snap.ValidUntil) || snap.Day != timetable.DayKey(now.Weekday()) {
		return nil, false
	}
	snap.Cached = true
	return &snap, true
}

func (s *widgetService) writeSnapshot(ctx context.Context, resp *dto.WidgetRenderResponse) {
	if s.cache == nil {
		return
	}
	ttl := resp.ValidUntil.Sub(resp.RenderedAt)
	if s.snapshotTTL > 0 && ttl > s.snapshotTTL {
		ttl = s.snapshotTTL
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("序列化挂件快照失败", zap.String("widget_id", resp.WidgetID), zap.Error(err))
		return
	}
	if err := s.cache.SetSnapshot(ctx, resp.WidgetID, payload, ttl); err != nil {
		s.logger.Warn("写入挂件快照失败", zap.String("widget_id", resp.WidgetID), zap.Error(err))
	}
}

func (s *widgetService) dropSnapshot(ctx context.Context, widgetID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteSnapshot(ctx, widgetID); err != nil {
		s.logger.Warn("清除挂件快照失败", zap.String("widget_id", widgetID), zap.Error(err))
	}
}

func toWidgetResponse(w *model.Widget) *dto.WidgetResponse {
	return &dto.WidgetResponse{
		WidgetID:        w.WidgetID,
		TimetableKey:    w.TimetableKey,
		ShowFreePeriods: w.ShowFreePeriods,
		UpdatedAt:       w.UpdatedAt,
	}
}
