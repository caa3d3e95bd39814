package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Joy2225/timetable/internal/model"
)

// WidgetRepository 挂件配置数据访问接口
type WidgetRepository interface {
	GetByID(ctx context.Context, id string) (*model.Widget, error)
	Upsert(ctx context.Context, w *model.Widget) error
	List(ctx context.Context) ([]model.Widget, error)
	ListByTimetable(ctx context.Context, key string) ([]model.Widget, error)
}

type widgetRepo struct {
	db *gorm.DB
}

// NewWidgetRepo 创建 WidgetRepository 实例
func NewWidgetRepo(db *gorm.DB) WidgetRepository {
	return &widgetRepo{db: db}
}

func (r *widgetRepo) GetByID(ctx context.Context, id string) (*model.Widget, error) {
	var w model.Widget
	err := r.db.WithContext(ctx).
		Where("widget_id = ?", id).
		First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// Upsert 挂件 ID 已存在时覆盖绑定课表与空闲课开关
func (r *widgetRepo) Upsert(ctx context.Context, w *model.Widget) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "widget_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"timetable_key":     w.TimetableKey,
				"show_free_periods": w.ShowFreePeriods,
				"updated_at":        gorm.Expr("NOW()"),
			}),
		}).
		Create(w).Error
}

func (r *widgetRepo) List(ctx context.Context) ([]model.Widget, error) {
	var list []model.Widget
	err := r.db.WithContext(ctx).Order("widget_id ASC").Find(&list).Error
	return list, err
}

func (r *widgetRepo) ListByTimetable(ctx context.Context, key string) ([]model.Widget, error) {
	var list []model.Widget
	err := r.db.WithContext(ctx).
		Where("timetable_key = ?", key).
		Order("widget_id ASC").
		Find(&list).Error
	return list, err
}

