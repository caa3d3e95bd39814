package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/Joy2225/timetable/internal/dto"
	"github.com/Joy2225/timetable/internal/model"
	"github.com/Joy2225/timetable/internal/timetable"
	pkgerrors "github.com/Joy2225/timetable/pkg/errors"
)

// ── 测试辅助 ──

func setupTestTimetableService() (*timetableService, *mockTimetableRepo, *mockWidgetRepo, *mockCache) {
	repo, ttRepo, wRepo := newTestRepository()
	cache := newMockCache()
	cfg := testConfig()
	svc := NewTimetableService(&cfg.Timetable, repo, cache, zap.NewNop()).(*timetableService)
	svc.clock = fixedClock(mondayAt(9, 30))
	return svc, ttRepo, wRepo, cache
}

func sampleCreateRequest() *dto.CreateTimetableRequest {
	return &dto.CreateTimetableRequest{
		Year:     "3rd",
		Section:  "A",
		Semester: "5",
		Subjects: map[string]dto.SubjectInput{
			"CS101":   {Name: "Computer Science", Faculty: "Dr. Rao"},
			"PHY201":  {Name: "Engineering Physics"},
			"MATH301": {Name: "Linear Algebra", ShortName: "LA"},
		},
		Schedule: map[string][]string{
			"MON": {"CS101", "FREE", "PHY201", "CS101_LAB", "MATH301"},
			"WED": {"PHY201_LAB", "FREE", "MATH301"},
		},
	}
}

// ── Create 测试 ──

func TestTimetableService_Create_Success(t *testing.T) {
	svc, ttRepo, _, _ := setupTestTimetableService()

	result, err := svc.Create(context.Background(), sampleCreateRequest())
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if result.Key != "3rd_A_5" {
		t.Errorf("期望Key=3rd_A_5，实际=%s", result.Key)
	}
	if result.Subjects["CS101"].ShortName != "CS" {
		t.Errorf("期望shortName按名称推导为CS，实际=%s", result.Subjects["CS101"].ShortName)
	}
	if result.Subjects["CS101"].Code != "CS101" {
		t.Errorf("期望code缺省取目录键，实际=%s", result.Subjects["CS101"].Code)
	}
	if result.Subjects["MATH301"].ShortName != "LA" {
		t.Errorf("显式shortName不应被覆盖，实际=%s", result.Subjects["MATH301"].ShortName)
	}
	if _, ok := ttRepo.timetables["3rd_A_5"]; !ok {
		t.Error("课表未写入仓储")
	}
}

func TestTimetableService_Create_Duplicate(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()

	if _, err := svc.Create(context.Background(), sampleCreateRequest()); err != nil {
		t.Fatalf("首次 Create 应成功: %v", err)
	}
	_, err := svc.Create(context.Background(), sampleCreateRequest())
	if !errors.Is(err, ErrTimetableExists) {
		t.Errorf("期望 ErrTimetableExists，实际: %v", err)
	}
}

// ── GetByKey / List 测试 ──

func TestTimetableService_GetByKey_InvalidKey(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()

	_, err := svc.GetByKey(context.Background(), "3rd_A")
	if !errors.Is(err, timetable.ErrInvalidKey) {
		t.Errorf("期望 ErrInvalidKey，实际: %v", err)
	}
}

func TestTimetableService_GetByKey_NotFound(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()

	_, err := svc.GetByKey(context.Background(), "3rd_B_5")
	if !errors.Is(err, ErrTimetableNotFound) {
		t.Errorf("期望 ErrTimetableNotFound，实际: %v", err)
	}
}

func TestTimetableService_List_Filter(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()
	ctx := context.Background()

	req := sampleCreateRequest()
	svc.Create(ctx, req)
	req.Section = "B"
	svc.Create(ctx, req)
	req.Year, req.Semester = "2nd", "3"
	svc.Create(ctx, req)

	list, err := svc.List(ctx, &dto.TimetableListRequest{Year: "3rd"})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("期望 2 条，实际 %d", len(list))
	}
	if list[0].Key != "3rd_A_5" || list[1].Key != "3rd_B_5" {
		t.Errorf("排序不符: %s, %s", list[0].Key, list[1].Key)
	}
}

// ── Update / Delete 测试 ──

func TestTimetableService_Update_BumpsVersionAndDropsSnapshots(t *testing.T) {
	svc, _, wRepo, cache := setupTestTimetableService()
	ctx := context.Background()
	svc.Create(ctx, sampleCreateRequest())
	wRepo.widgets["desk"] = &model.Widget{WidgetID: "desk", TimetableKey: "3rd_A_5"}
	cache.entries["desk"] = []byte(`{}`)

	result, err := svc.Update(ctx, "3rd_A_5", &dto.UpdateTimetableRequest{
		Version:  1,
		Subjects: map[string]dto.SubjectInput{"ENG": {Name: "Technical English"}},
		Schedule: map[string][]string{"TUE": {"ENG"}},
	})
	if err != nil {
		t.Fatalf("Update 应成功: %v", err)
	}
	if result.Version != 2 {
		t.Errorf("期望 version=2，实际=%d", result.Version)
	}
	if _, ok := result.Schedule["MON"]; ok {
		t.Error("Update 应整体替换课表")
	}
	if _, ok := cache.entries["desk"]; ok {
		t.Error("绑定挂件的快照应被清除")
	}
}

func TestTimetableService_Update_StaleVersion(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()
	ctx := context.Background()
	svc.Create(ctx, sampleCreateRequest())

	_, err := svc.Update(ctx, "3rd_A_5", &dto.UpdateTimetableRequest{Version: 7})
	if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
		t.Errorf("期望 ErrOptimisticLock，实际: %v", err)
	}
}

func TestTimetableService_Delete(t *testing.T) {
	svc, ttRepo, _, _ := setupTestTimetableService()
	ctx := context.Background()
	svc.Create(ctx, sampleCreateRequest())

	if err := svc.Delete(ctx, "3rd_A_5"); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if len(ttRepo.timetables) != 0 {
		t.Error("课表应已删除")
	}
	if err := svc.Delete(ctx, "3rd_A_5"); !errors.Is(err, ErrTimetableNotFound) {
		t.Errorf("重复删除期望 ErrTimetableNotFound，实际: %v", err)
	}
}

// ── Projection 测试 ──

func TestTimetableService_ProjectDay_Monday(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()
	ctx := context.Background()
	svc.Create(ctx, sampleCreateRequest())

	resp, err := svc.ProjectDay(ctx, "3rd_A_5", "MON", &dto.ProjectionQuery{})
	if err != nil {
		t.Fatalf("ProjectDay 应成功: %v", err)
	}
	if resp.At != "09:30" {
		t.Errorf("期望 at=09:30，实际=%s", resp.At)
	}
	if resp.ActivePeriod == nil || *resp.ActivePeriod != 1 {
		t.Errorf("期望活跃节次=1，实际=%v", resp.ActivePeriod)
	}
	if len(resp.Entries) != 5 {
		t.Fatalf("期望 5 个条目（默认展示空闲课），实际 %d", len(resp.Entries))
	}
	lab := resp.Entries[3]
	if !lab.IsLab || lab.StartIndex != 3 || lab.EndIndex != 5 || lab.SlotLabel != "10:50-1:05" {
		t.Errorf("实验课条目不符: %+v", lab)
	}
	if !resp.Entries[1].IsActive {
		t.Error("9:30 时第 1 个槽位的空闲课应为活跃")
	}
}

func TestTimetableService_ProjectDay_HideFreeAndExplicitTime(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()
	ctx := context.Background()
	svc.Create(ctx, sampleCreateRequest())

	hide := false
	resp, err := svc.ProjectDay(ctx, "3rd_A_5", "MON", &dto.ProjectionQuery{ShowFree: &hide, At: "11:10"})
	if err != nil {
		t.Fatalf("ProjectDay 应成功: %v", err)
	}
	if len(resp.Entries) != 4 {
		t.Fatalf("隐藏空闲课后期望 4 个条目，实际 %d", len(resp.Entries))
	}
	if !resp.Entries[2].IsActive || !resp.Entries[2].IsLab {
		t.Errorf("11:10 时实验课应为活跃: %+v", resp.Entries[2])
	}
}

func TestTimetableService_ProjectDay_Errors(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()
	ctx := context.Background()
	svc.Create(ctx, sampleCreateRequest())

	if _, err := svc.ProjectDay(ctx, "3rd_A_5", "FUNDAY", &dto.ProjectionQuery{}); !errors.Is(err, ErrInvalidDay) {
		t.Errorf("期望 ErrInvalidDay，实际: %v", err)
	}
	if _, err := svc.ProjectDay(ctx, "3rd_A_5", "MON", &dto.ProjectionQuery{At: "noon"}); !errors.Is(err, ErrInvalidTime) {
		t.Errorf("期望 ErrInvalidTime，实际: %v", err)
	}

	resp, err := svc.ProjectDay(ctx, "3rd_A_5", "SUN", &dto.ProjectionQuery{})
	if err != nil {
		t.Fatalf("未配置的星期不应报错: %v", err)
	}
	if resp.Entries == nil || len(resp.Entries) != 0 {
		t.Errorf("未配置的星期应返回空列表，实际 %v", resp.Entries)
	}
}

func TestTimetableService_ProjectWeek_OrdersConfiguredDays(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()
	ctx := context.Background()
	svc.Create(ctx, sampleCreateRequest())

	resp, err := svc.ProjectWeek(ctx, "3rd_A_5", &dto.ProjectionQuery{})
	if err != nil {
		t.Fatalf("ProjectWeek 应成功: %v", err)
	}
	if len(resp.Days) != 2 || resp.Days[0].Day != "MON" || resp.Days[1].Day != "WED" {
		t.Fatalf("期望 MON、WED 两天，实际 %+v", resp.Days)
	}
	if resp.Days[1].Entries[0].SlotLabel != "8:10-10:25" {
		t.Errorf("WED 首个实验课标签不符: %s", resp.Days[1].Entries[0].SlotLabel)
	}
}

// ── Periods 测试 ──

func TestTimetableService_Periods(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()

	periods := svc.Periods()
	if len(periods) != timetable.PeriodCount {
		t.Fatalf("期望 %d 节，实际 %d", timetable.PeriodCount, len(periods))
	}
	if periods[5].Start != "14:00" || periods[5].Label != "2:00-2:50" {
		t.Errorf("第 5 节不符: %+v", periods[5])
	}
}

func TestTimetableService_CurrentPeriod(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()

	resp, err := svc.CurrentPeriod("")
	if err != nil {
		t.Fatalf("CurrentPeriod 应成功: %v", err)
	}
	if !resp.Active || resp.Period.Index != 1 {
		t.Errorf("9:30 应处于第 1 节: %+v", resp)
	}

	resp, err = svc.CurrentPeriod("10:45")
	if err != nil {
		t.Fatalf("CurrentPeriod 应成功: %v", err)
	}
	if resp.Active || resp.Period != nil {
		t.Errorf("课间不应有活跃节次: %+v", resp)
	}
}

func TestTimetableService_NextBoundary(t *testing.T) {
	svc, _, _, _ := setupTestTimetableService()

	resp, err := svc.NextBoundary("15:40")
	if err != nil {
		t.Fatalf("NextBoundary 应成功: %v", err)
	}
	midnight := mondayAt(0, 0).AddDate(0, 0, 1)
	if !resp.NextBoundary.Equal(midnight) {
		t.Errorf("末节结束后下一个边界应为次日零点，期望 %s，实际 %s", midnight, resp.NextBoundary)
	}
	want := mondayAt(8, 10).AddDate(0, 0, 1)
	if resp.NextPeriodIndex != 0 || !resp.NextPeriodStart.Equal(want) {
		t.Errorf("下一节应为次日第 0 节: %d %s", resp.NextPeriodIndex, resp.NextPeriodStart)
	}

	resp, _ = svc.NextBoundary("09:30")
	if !resp.NextBoundary.Equal(mondayAt(9, 50)) {
		t.Errorf("9:30 的下一个边界应为 9:50，实际 %s", resp.NextBoundary)
	}
}
