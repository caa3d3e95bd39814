package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Joy2225/timetable/config"
	"github.com/Joy2225/timetable/internal/model"
	"github.com/Joy2225/timetable/internal/repository"
	"github.com/Joy2225/timetable/internal/timetable"
)

// ── 导出模块业务错误 ──

var (
	ErrExportEmpty        = errors.New("课表中没有可导出的课程")
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

// ExportService 导出业务接口
//
//   - Excel：行为星期，列为 7 个名义槽位，实验课跨列合并
//   - ICS：每个非空闲条目一条按周重复的 VEVENT，起止时间取节次时间表
type ExportService interface {
	ExportWeekExcel(ctx context.Context, key string) (*bytes.Buffer, string, error)
	ExportICS(ctx context.Context, key, from string) ([]byte, string, error)
}

type exportService struct {
	repo   *repository.Repository
	clock  wallClock
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(cfg *config.TimetableConfig, repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{
		repo:   repo,
		clock:  newWallClock(cfg.Location()),
		logger: logger,
	}
}

// 不落在任何节次内的时刻，投影结果不会标记活跃条目
const noActiveTime = timetable.TimeOfDay(-1)

// ═══════════════════════════════════════════════════════════
// ExportWeekExcel — 导出整周课表为 Excel
// ═══════════════════════════════════════════════════════════
//
// 输出格式：
//   - 第 1 行：标题（合并）
//   - 第 2 行：星期 | 8:10-9:00 | … | 2:50-3:40
//   - 之后每个已配置的星期一行；单元格为 "课程名 (简称)"，实验课合并其跨度
//   - 超出 7 个槽位的条目不写入

func (s *exportService) ExportWeekExcel(ctx context.Context, key string) (*bytes.Buffer, string, error) {
	tt, err := s.load(ctx, key)
	if err != nil {
		return nil, "", err
	}
	doc := tt.Document()

	days := configuredDays(doc)
	if len(days) == 0 {
		return nil, "", ErrExportEmpty
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Timetable"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	lastCol := colName(timetable.PeriodCount)
	f.SetColWidth(sheetName, "A", "A", 10)
	f.SetColWidth(sheetName, "B", lastCol, 24)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	labStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2EFDA"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})
	cellStyle, _ := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
	})

	// 标题行
	f.SetCellValue(sheetName, "A1", fmt.Sprintf("Timetable %s", tt.TimetableKey))
	f.MergeCell(sheetName, "A1", cell(lastCol, 1))
	f.SetCellStyle(sheetName, "A1", cell(lastCol, 1), headerStyle)

	// 表头
	f.SetCellValue(sheetName, cell("A", 2), "Day")
	for i, label := range timetable.SlotLabels() {
		f.SetCellValue(sheetName, cell(colName(i+1), 2), label)
	}
	f.SetCellStyle(sheetName, cell("A", 2), cell(lastCol, 2), headerStyle)

	// 数据行
	row := 3
	for _, day := range days {
		f.SetCellValue(sheetName, cell("A", row), day)
		for _, e := range doc.Project(day, true, noActiveTime) {
			if e.StartIndex >= timetable.PeriodCount {
				continue
			}
			end := e.EndIndex
			if end >= timetable.PeriodCount {
				end = timetable.PeriodCount - 1
			}

			first := cell(colName(e.StartIndex+1), row)
			last := cell(colName(end+1), row)
			f.SetCellValue(sheetName, first, cellText(e))

			style := cellStyle
			if e.IsLab {
				style = labStyle
				if end > e.StartIndex {
					f.MergeCell(sheetName, first, last)
				}
			}
			f.SetCellStyle(sheetName, first, last, style)
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.String("key", key), zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	return buf, fmt.Sprintf("timetable_%s.xlsx", tt.TimetableKey), nil
}

// ═══════════════════════════════════════════════════════════
// ExportICS — 导出按周重复的日历
// ═══════════════════════════════════════════════════════════
//
// 每个星期取 from 当天或之后的第一个对应日期作为首次发生，按周重复；
// 空闲课、未知课程与超出槽位的条目不导出。

func (s *exportService) ExportICS(ctx context.Context, key, from string) ([]byte, string, error) {
	start, err := s.resolveFrom(from)
	if err != nil {
		return nil, "", err
	}
	tt, err := s.load(ctx, key)
	if err != nil {
		return nil, "", err
	}
	doc := tt.Document()

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//timetable//weekly schedule//EN")
	cal.SetXWRCalName(tt.TimetableKey)
	cal.SetXWRTimezone(s.clock.loc.String())

	periods := timetable.Periods()
	stamp := s.clock.Now()
	count := 0

	for _, day := range configuredDays(doc) {
		wd, _ := timetable.ParseDayKey(day)
		date := firstOnOrAfter(start, wd)

		for _, e := range doc.Project(day, false, noActiveTime) {
			if e.StartIndex >= timetable.PeriodCount || e.IsUnknown() {
				continue
			}
			end := e.EndIndex
			if end >= timetable.PeriodCount {
				end = timetable.PeriodCount - 1
			}

			uid := uuid.NewSHA1(uuid.NameSpaceURL,
				[]byte(fmt.Sprintf("%s/%s/%d", tt.TimetableKey, day, e.StartIndex))).String()
			event := cal.AddEvent(uid + "@timetable")
			event.SetDtStampTime(stamp)
			event.SetStartAt(periods[e.StartIndex].Start.On(date))
			event.SetEndAt(periods[end].End.On(date))
			event.SetSummary(cellText(e))
			event.SetDescription(e.SlotLabel)
			event.AddRrule("FREQ=WEEKLY")
			count++
		}
	}

	if count == 0 {
		return nil, "", ErrExportEmpty
	}

	s.logger.Info("导出日历", zap.String("key", tt.TimetableKey), zap.Int("events", count))
	return []byte(cal.Serialize()), fmt.Sprintf("timetable_%s.ics", tt.TimetableKey), nil
}

// ── 辅助函数 ──

func (s *exportService) load(ctx context.Context, key string) (*model.Timetable, error) {
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

func (s *exportService) resolveFrom(from string) (time.Time, error) {
	if from == "" {
		return s.clock.Now(), nil
	}
	d, err := time.ParseInLocation("2006-01-02", from, s.clock.loc)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return d, nil
}

// configuredDays 按周一到周日返回课表中出现的星期
func configuredDays(doc *timetable.Document) []string {
	var days []string
	for _, day := range timetable.WeekDays() {
		if _, ok := doc.Schedule[day]; ok {
			days = append(days, day)
		}
	}
	return days
}

func firstOnOrAfter(d time.Time, wd time.Weekday) time.Time {
	offset := (int(wd) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

func cellText(e timetable.DisplayEntry) string {
	text := e.Name
	if e.ShortName != "" && e.ShortName != e.Name {
		text = fmt.Sprintf("%s (%s)", e.Name, e.ShortName)
	}
	if e.IsLab {
		text += " Lab"
	}
	return text
}

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
