package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Joy2225/timetable/config"
	"github.com/Joy2225/timetable/internal/model"
	"github.com/Joy2225/timetable/internal/repository"
	pkgerrors "github.com/Joy2225/timetable/pkg/errors"
	"github.com/Joy2225/timetable/pkg/redis"
)

// ── Mock TimetableRepository ──

type mockTimetableRepo struct {
	timetables map[string]*model.Timetable
}

func newMockTimetableRepo() *mockTimetableRepo {
	return &mockTimetableRepo{timetables: make(map[string]*model.Timetable)}
}

func (m *mockTimetableRepo) Create(_ context.Context, tt *model.Timetable) error {
	if _, ok := m.timetables[tt.TimetableKey]; ok {
		return pkgerrors.ErrDuplicateKey
	}
	if tt.TimetableID == "" {
		tt.TimetableID = "tt-" + tt.TimetableKey
	}
	tt.Version = 1
	m.timetables[tt.TimetableKey] = tt
	return nil
}

func (m *mockTimetableRepo) GetByKey(_ context.Context, key string) (*model.Timetable, error) {
	if tt, ok := m.timetables[key]; ok {
		cp := *tt
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTimetableRepo) List(_ context.Context, year, semester string) ([]model.Timetable, error) {
	var result []model.Timetable
	for _, tt := range m.timetables {
		if year != "" && tt.Year != year {
			continue
		}
		if semester != "" && tt.Semester != semester {
			continue
		}
		result = append(result, *tt)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TimetableKey < result[j].TimetableKey })
	return result, nil
}

func (m *mockTimetableRepo) Update(_ context.Context, tt *model.Timetable) error {
	cur, ok := m.timetables[tt.TimetableKey]
	if !ok || cur.Version != tt.Version {
		return pkgerrors.ErrOptimisticLock
	}
	tt.Version++
	cp := *tt
	m.timetables[tt.TimetableKey] = &cp
	return nil
}

func (m *mockTimetableRepo) Delete(_ context.Context, key string) error {
	if _, ok := m.timetables[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.timetables, key)
	return nil
}

// ── Mock WidgetRepository ──

type mockWidgetRepo struct {
	widgets map[string]*model.Widget
}

func newMockWidgetRepo() *mockWidgetRepo {
	return &mockWidgetRepo{widgets: make(map[string]*model.Widget)}
}

func (m *mockWidgetRepo) GetByID(_ context.Context, id string) (*model.Widget, error) {
	if w, ok := m.widgets[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockWidgetRepo) Upsert(_ context.Context, w *model.Widget) error {
	cp := *w
	m.widgets[w.WidgetID] = &cp
	return nil
}

func (m *mockWidgetRepo) List(_ context.Context) ([]model.Widget, error) {
	var result []model.Widget
	for _, w := range m.widgets {
		result = append(result, *w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].WidgetID < result[j].WidgetID })
	return result, nil
}

func (m *mockWidgetRepo) ListByTimetable(ctx context.Context, key string) ([]model.Widget, error) {
	all, _ := m.List(ctx)
	var result []model.Widget
	for _, w := range all {
		if w.TimetableKey == key {
			result = append(result, w)
		}
	}
	return result, nil
}

// ── Mock SnapshotCache ──

type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	deleted []string
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockCache) GetSnapshot(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.entries[id]; ok {
		return b, nil
	}
	return nil, redis.ErrCacheMiss
}

func (m *mockCache) SetSnapshot(_ context.Context, id string, payload []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[id] = payload
	m.ttls[id] = ttl
	return nil
}

func (m *mockCache) DeleteSnapshot(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.entries, id)
		m.deleted = append(m.deleted, id)
	}
	return nil
}

// ── 测试辅助 ──

var testLoc = time.FixedZone("IST", 5*3600+1800)

// 2025-01-06 是周一
func mondayAt(h, m int) time.Time {
	return time.Date(2025, 1, 6, h, m, 0, 0, testLoc)
}

func fixedClock(t time.Time) wallClock {
	return wallClock{loc: testLoc, now: func() time.Time { return t }}
}

func testConfig() *config.Config {
	return &config.Config{
		Redis: config.RedisConfig{SnapshotTTL: 12 * time.Hour},
		Timetable: config.TimetableConfig{
			Timezone:        "UTC",
			ShowFreePeriods: true,
		},
	}
}

func newTestRepository() (*repository.Repository, *mockTimetableRepo, *mockWidgetRepo) {
	ttRepo := newMockTimetableRepo()
	wRepo := newMockWidgetRepo()
	return &repository.Repository{Timetable: ttRepo, Widget: wRepo}, ttRepo, wRepo
}
