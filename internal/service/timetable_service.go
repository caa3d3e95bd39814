package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Joy2225/timetable/config"
	"github.com/Joy2225/timetable/internal/dto"
	"github.com/Joy2225/timetable/internal/model"
	"github.com/Joy2225/timetable/internal/repository"
	"github.com/Joy2225/timetable/internal/timetable"
	pkgerrors "github.com/Joy2225/timetable/pkg/errors"
)

// ── 课表模块业务错误 ──

var (
	ErrTimetableNotFound = errors.New("课表不存在")
	ErrTimetableExists   = errors.New("课表已存在")
	ErrInvalidDay        = errors.New("无效的星期标识")
)

// TimetableService 课表业务接口
type TimetableService interface {
	Create(ctx context.Context, req *dto.CreateTimetableRequest) (*dto.TimetableResponse, error)
	GetByKey(ctx context.Context, key string) (*dto.TimetableResponse, error)
	List(ctx context.Context, req *dto.TimetableListRequest) ([]dto.TimetableResponse, error)
	Update(ctx context.Context, key string, req *dto.UpdateTimetableRequest) (*dto.TimetableResponse, error)
	Delete(ctx context.Context, key string) error

	ProjectDay(ctx context.Context, key, day string, q *dto.ProjectionQuery) (*dto.DayProjectionResponse, error)
	ProjectWeek(ctx context.Context, key string, q *dto.ProjectionQuery) (*dto.WeekProjectionResponse, error)

	Periods() []dto.PeriodResponse
	CurrentPeriod(at string) (*dto.CurrentPeriodResponse, error)
	NextBoundary(at string) (*dto.NextBoundaryResponse, error)
}

type timetableService struct {
	repo     *repository.Repository
	cache    SnapshotCache
	clock    wallClock
	showFree bool
	logger   *zap.Logger
}

// NewTimetableService 创建 TimetableService 实例；cache 可为 nil
func NewTimetableService(cfg *config.TimetableConfig, repo *repository.Repository, cache SnapshotCache, logger *zap.Logger) TimetableService {
	return &timetableService{
		repo:     repo,
		cache:    cache,
		clock:    newWallClock(cfg.Location()),
		showFree: cfg.ShowFreePeriods,
		logger:   logger,
	}
}

// ────────────────────── Create ──────────────────────

func (s *timetableService) Create(ctx context.Context, req *dto.CreateTimetableRequest) (*dto.TimetableResponse, error) {
	key := timetable.Key{Year: req.Year, Section: req.Section, Semester: req.Semester}
	tt := &model.Timetable{
		TimetableKey: key.String(),
		Year:         key.Year,
		Section:      key.Section,
		Semester:     key.Semester,
	}
	tt.SetDocument(buildDocument(req.Subjects, req.Schedule))

	if err := s.repo.Timetable.Create(ctx, tt); err != nil {
		if errors.Is(err, pkgerrors.ErrDuplicateKey) {
			return nil, ErrTimetableExists
		}
		s.logger.Error("创建课表失败", zap.String("key", tt.TimetableKey), zap.Error(err))
		return nil, err
	}

	s.logger.Info("课表已创建", zap.String("key", tt.TimetableKey))
	return toTimetableResponse(tt), nil
}

// ────────────────────── GetByKey / List ──────────────────────

func (s *timetableService) GetByKey(ctx context.Context, key string) (*dto.TimetableResponse, error) {
	tt, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return toTimetableResponse(tt), nil
}

func (s *timetableService) List(ctx context.Context, req *dto.TimetableListRequest) ([]dto.TimetableResponse, error) {
	list, err := s.repo.Timetable.List(ctx, req.Year, req.Semester)
	if err != nil {
		s.logger.Error("列出课表失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.TimetableResponse, 0, len(list))
	for i := range list {
		result = append(result, *toTimetableResponse(&list[i]))
	}
	return result, nil
}

// ────────────────────── Update ──────────────────────

func (s *timetableService) Update(ctx context.Context, key string, req *dto.UpdateTimetableRequest) (*dto.TimetableResponse, error) {
	tt, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	tt.Version = req.Version
	tt.SetDocument(buildDocument(req.Subjects, req.Schedule))

	if err := s.repo.Timetable.Update(ctx, tt); err != nil {
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新课表失败", zap.String("key", key), zap.Error(err))
		}
		return nil, err
	}

	s.invalidateWidgets(ctx, tt.TimetableKey)
	return toTimetableResponse(tt), nil
}

// ────────────────────── Delete ──────────────────────

// Delete 软删除课表；绑定的挂件保留配置，渲染时返回课表不存在
func (s *timetableService) Delete(ctx context.Context, key string) error {
	k, err := timetable.ParseKey(key)
	if err != nil {
		return err
	}
	key = k.String()

	if err := s.repo.Timetable.Delete(ctx, key); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTimetableNotFound
		}
		s.logger.Error("删除课表失败", zap.String("key", key), zap.Error(err))
		return err
	}

	s.invalidateWidgets(ctx, key)
	s.logger.Info("课表已删除", zap.String("key", key))
	return nil
}

// ────────────────────── Projection ──────────────────────

func (s *timetableService) ProjectDay(ctx context.Context, key, day string, q *dto.ProjectionQuery) (*dto.DayProjectionResponse, error) {
	if _, ok := timetable.ParseDayKey(day); !ok {
		return nil, ErrInvalidDay
	}
	at, err := s.clock.resolve(q.At)
	if err != nil {
		return nil, err
	}
	tt, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	resp := projectDay(tt.TimetableKey, day, tt.Document(), s.showFreeOr(q.ShowFree), at)
	return &resp, nil
}

func (s *timetableService) ProjectWeek(ctx context.Context, key string, q *dto.ProjectionQuery) (*dto.WeekProjectionResponse, error) {
	at, err := s.clock.resolve(q.At)
	if err != nil {
		return nil, err
	}
	tt, err := s.load(ctx, key)
	if err != nil {
		return nil, err
	}

	doc := tt.Document()
	showFree := s.showFreeOr(q.ShowFree)
	resp := &dto.WeekProjectionResponse{Key: tt.TimetableKey, Days: []dto.DayProjectionResponse{}}
	for _, day := range timetable.WeekDays() {
		if _, ok := doc.Schedule[day]; !ok {
			continue
		}
		resp.Days = append(resp.Days, projectDay(tt.TimetableKey, day, doc, showFree, at))
	}
	return resp, nil
}

// ────────────────────── Periods ──────────────────────

func (s *timetableService) Periods() []dto.PeriodResponse {
	periods := timetable.Periods()
	labels := timetable.SlotLabels()
	result := make([]dto.PeriodResponse, 0, len(periods))
	for i, p := range periods {
		result = append(result, dto.PeriodResponse{
			Index: i,
			Start: p.Start.String(),
			End:   p.End.String(),
			Label: labels[i],
		})
	}
	return result
}

func (s *timetableService) CurrentPeriod(at string) (*dto.CurrentPeriodResponse, error) {
	now, err := s.clock.resolve(at)
	if err != nil {
		return nil, err
	}

	tod := timetable.FromTime(now)
	resp := &dto.CurrentPeriodResponse{At: tod.String()}
	if idx, ok := timetable.ClassifyPeriod(tod); ok {
		p := s.Periods()[idx]
		resp.Active = true
		resp.Period = &p
	}
	return resp, nil
}

func (s *timetableService) NextBoundary(at string) (*dto.NextBoundaryResponse, error) {
	now, err := s.clock.resolve(at)
	if err != nil {
		return nil, err
	}

	idx, start := timetable.NextPeriodStart(now)
	return &dto.NextBoundaryResponse{
		At:              now,
		NextBoundary:    timetable.NextBoundary(now),
		NextPeriodIndex: idx,
		NextPeriodStart: start,
	}, nil
}

// ── 辅助函数 ──

// load 解析课表键并读取课表
func (s *timetableService) load(ctx context.Context, key string) (*model.Timetable, error) {
	k, err := timetable.ParseKey(key)
	if err != nil {
		return nil, err
	}
	tt, err := s.repo.Timetable.GetByKey(ctx, k.String())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimetableNotFound
		}
		s.logger.Error("查询课表失败", zap.String("key", key), zap.Error(err))
		return nil, err
	}
	return tt, nil
}

func (s *timetableService) showFreeOr(v *bool) bool {
	if v != nil {
		return *v
	}
	return s.showFree
}

// invalidateWidgets 课表变更后清除绑定挂件的快照
func (s *timetableService) invalidateWidgets(ctx context.Context, key string) {
	widgets, err := s.repo.Widget.ListByTimetable(ctx, key)
	if err != nil {
		s.logger.Warn("查询绑定挂件失败，快照将等待自然过期", zap.String("key", key), zap.Error(err))
		return
	}
	s.dropSnapshots(ctx, widgets)
}

func (s *timetableService) dropSnapshots(ctx context.Context, widgets []model.Widget) {
	if s.cache == nil || len(widgets) == 0 {
		return
	}
	ids := make([]string, len(widgets))
	for i := range widgets {
		ids[i] = widgets[i].WidgetID
	}
	if err := s.cache.DeleteSnapshot(ctx, ids...); err != nil {
		s.logger.Warn("清除挂件快照失败", zap.Strings("widgets", ids), zap.Error(err))
	}
}

// buildDocument 将请求中的课程与课表转换为文档；code 缺省取目录键
func buildDocument(subjects map[string]dto.SubjectInput, schedule map[string][]string) *timetable.Document {
	doc := &timetable.Document{
		Subjects: make(timetable.Directory, len(subjects)),
		Schedule: make(timetable.WeeklySchedule, len(schedule)),
	}
	for code, in := range subjects {
		if in.Code == "" {
			in.Code = code
		}
		doc.Subjects[code] = timetable.NewSubject(in.Name, in.Code, in.Faculty, in.ShortName)
	}
	for day, codes := range schedule {
		doc.Schedule[day] = append([]string(nil), codes...)
	}
	return doc
}

func projectDay(key, day string, doc *timetable.Document, showFree bool, at time.Time) dto.DayProjectionResponse {
	tod := timetable.FromTime(at)
	resp := dto.DayProjectionResponse{
		Key:     key,
		Day:     day,
		At:      tod.String(),
		Entries: doc.Project(day, showFree, tod),
	}
	if idx, ok := timetable.ClassifyPeriod(tod); ok {
		resp.ActivePeriod = &idx
	}
	return resp
}

func toTimetableResponse(tt *model.Timetable) *dto.TimetableResponse {
	doc := tt.Document()
	return &dto.TimetableResponse{
		Key:       tt.TimetableKey,
		Year:      tt.Year,
		Section:   tt.Section,
		Semester:  tt.Semester,
		Subjects:  doc.Subjects,
		Schedule:  doc.Schedule,
		Version:   tt.Version,
		UpdatedAt: tt.UpdatedAt,
	}
}
