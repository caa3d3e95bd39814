package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Joy2225/timetable/internal/model"
	pkgerrors "github.com/Joy2225/timetable/pkg/errors"
)

// TimetableRepository 课表数据访问接口
type TimetableRepository interface {
	Create(ctx context.Context, tt *model.Timetable) error
	GetByKey(ctx context.Context, key string) (*model.Timetable, error)
	List(ctx context.Context, year, semester string) ([]model.Timetable, error)
	Update(ctx context.Context, tt *model.Timetable) error
	Delete(ctx context.Context, key string) error
}

type timetableRepo struct {
	db *gorm.DB
}

// NewTimetableRepo 创建 TimetableRepository 实例
func NewTimetableRepo(db *gorm.DB) TimetableRepository {
	return &timetableRepo{db: db}
}

func (r *timetableRepo) Create(ctx context.Context, tt *model.Timetable) error {
	err := r.db.WithContext(ctx).Create(tt).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return pkgerrors.ErrDuplicateKey
	}
	return err
}

func (r *timetableRepo) GetByKey(ctx context.Context, key string) (*model.Timetable, error) {
	var tt model.Timetable
	err := r.db.WithContext(ctx).
		Where("timetable_key = ?", key).
		First(&tt).Error
	if err != nil {
		return nil, err
	}
	return &tt, nil
}

func (r *timetableRepo) List(ctx context.Context, year, semester string) ([]model.Timetable, error) {
	var list []model.Timetable
	db := r.db.WithContext(ctx)

	if year != "" {
		db = db.Where("year = ?", year)
	}
	if semester != "" {
		db = db.Where("semester = ?", semester)
	}

	err := db.Order("year ASC, section ASC, semester ASC").Find(&list).Error
	return list, err
}

// Update 按版本号更新课表内容，版本不匹配返回 ErrOptimisticLock
func (r *timetableRepo) Update(ctx context.Context, tt *model.Timetable) error {
	oldVersion := tt.Version
	result := r.db.WithContext(ctx).
		Model(tt).
		Where("timetable_id = ? AND version = ?", tt.TimetableID, oldVersion).
		Updates(map[string]interface{}{
			"subjects":   tt.Subjects,
			"schedule":   tt.Schedule,
			"updated_at": gorm.Expr("NOW()"),
			"version":    oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	tt.Version = oldVersion + 1
	return nil
}

func (r *timetableRepo) Delete(ctx context.Context, key string) error {
	result := r.db.WithContext(ctx).
		Where("timetable_key = ?", key).
		Delete(&model.Timetable{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
