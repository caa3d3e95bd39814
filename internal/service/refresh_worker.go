package service

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Joy2225/timetable/internal/timetable"
)

// refreshLockKey 多实例部署时只有持锁实例执行刷新
const refreshLockKey = "widget-refresh:leader"

const refreshLockTTL = 2 * time.Minute

// Locker 分布式锁，由 pkg/redis.Client 实现
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, string, error)
	Unlock(ctx context.Context, key, token string) error
}

// RefreshWorker 在每个节次边界刷新所有挂件快照
type RefreshWorker struct {
	widgets WidgetService
	locker  Locker
	loc     *time.Location
	logger  *zap.Logger

	mu     sync.Mutex
	wg     sync.WaitGroup
	cron   *cron.Cron
	cancel context.CancelFunc
}

// NewRefreshWorker 创建刷新任务；locker 为 nil 时视为单实例部署
func NewRefreshWorker(widgets WidgetService, locker Locker, loc *time.Location, logger *zap.Logger) *RefreshWorker {
	if loc == nil {
		loc = time.Local
	}
	return &RefreshWorker{widgets: widgets, locker: locker, loc: loc, logger: logger}
}

// Start 注册边界 cron 任务并立即执行一次刷新
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	c := cron.New(cron.WithLocation(w.loc))
	for _, spec := range timetable.BoundaryCronSpecs() {
		if _, err := c.AddFunc(spec, func() { w.runOnce(runCtx) }); err != nil {
			cancel()
			return err
		}
	}
	w.cancel = cancel
	c.Start()
	w.cron = c

	w.logger.Info("挂件刷新任务已启动",
		zap.Int("jobs", len(c.Entries())),
		zap.String("timezone", w.loc.String()),
	)

	// 启动时状态可能已跨过边界，先补一次
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.runOnce(runCtx)
	}()
	return nil
}

// Stop 停止 cron 并等待进行中的刷新结束
func (w *RefreshWorker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		<-w.cron.Stop().Done()
		w.cron = nil
	}
	w.wg.Wait()
}

// runOnce 执行一次刷新
func (w *RefreshWorker) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if w.locker != nil {
		acquired, token, err := w.locker.TryLock(ctx, refreshLockKey, refreshLockTTL)
		if err != nil {
			w.logger.Warn("获取刷新锁失败", zap.Error(err))
			return
		}
		if !acquired {
			w.logger.Debug("刷新锁被其他实例持有，跳过本次刷新")
			return
		}
		defer func() {
			if err := w.locker.Unlock(context.Background(), refreshLockKey, token); err != nil {
				w.logger.Warn("释放刷新锁失败", zap.Error(err))
			}
		}()
	}

	start := time.Now()
	n, err := w.widgets.RefreshAll(ctx)
	if err != nil {
		w.logger.Error("挂件刷新失败", zap.Int("refreshed", n), zap.Error(err))
		return
	}
	w.logger.Info("挂件刷新完成",
		zap.Int("refreshed", n),
		zap.Duration("elapsed", time.Since(start)),
	)
}
