package timetable

import "strings"

const (
	// FreeCode 空闲课代码
	FreeCode = "FREE"
	// LabSuffix 实验课标记后缀
	LabSuffix = "_LAB"
	// UnknownSlotLabel 实验课出现在非约定位置时的槽位标签
	UnknownSlotLabel = "⚠️ UNKNOWN"
)

var slotLabels = [PeriodCount]string{
	"8:10-9:00",
	"9:00-9:50",
	"9:50-10:40",
	"11:00-11:50",
	"11:50-12:40",
	"2:00-2:50",
	"2:50-3:40",
}

// LabBlockCount 每天最多的实验块数
const LabBlockCount = 3

var labSlotLabels = [LabBlockCount]string{
	"8:10-10:25",
	"10:50-1:05",
	"1:25-3:40",
}

// SlotLabels 常规槽位标签副本
func SlotLabels() [PeriodCount]string { return slotLabels }

// LabSlotLabels 实验槽位标签副本
func LabSlotLabels() [LabBlockCount]string { return labSlotLabels }

// WeeklySchedule 星期 → 当天课程代码序列
type WeeklySchedule map[string][]string

// DisplayEntry 展示条目；StartIndex/EndIndex 为名义槽位闭区间
type DisplayEntry struct {
	Name       string `json:"name"`
	ShortName  string `json:"short_name"`
	SlotLabel  string `json:"slot_label"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
	IsLab      bool   `json:"is_lab"`
	IsActive   bool   `json:"is_active"`

	free    bool
	unknown bool
}

// IsFree 条目是否来自空闲课
func (e DisplayEntry) IsFree() bool { return e.free }

// IsUnknown 条目是否来自未知课程
func (e DisplayEntry) IsUnknown() bool { return e.unknown }

// Span 条目占用的名义槽位数
func (e DisplayEntry) Span() int { return e.EndIndex - e.StartIndex + 1 }

// ════════════════════════════════════════════════════════════
// ProjectDay — 将一天的课程代码展开为展示条目
// ════════════════════════════════════════════════════════════
//
// 单遍折叠，两个累加器各自推进：
//   - cursor：名义槽位游标，决定起始下标、常规标签与实验标签
//   - labsSeen：本次遍历已见实验课数量，只决定实验课跨度（首个 3，其余 2）
//
// showFreePeriods 为 false 时省略空闲课条目，但游标照常推进。
// day 不在 schedule 中时返回空列表。

// ProjectDay 计算 day 的展示条目
func ProjectDay(day string, schedule WeeklySchedule, subjects SubjectLookup, showFreePeriods bool, now TimeOfDay) []DisplayEntry {
	codes, ok := schedule[day]
	if !ok {
		return []DisplayEntry{}
	}

	active, hasActive := ClassifyPeriod(now)
	entries := make([]DisplayEntry, 0, len(codes))

	var st foldState
	for _, code := range codes {
		var e DisplayEntry
		e, st = st.step(code, subjects)
		if e.free && !showFreePeriods {
			continue
		}
		e.IsActive = hasActive && e.StartIndex <= active && active <= e.EndIndex
		entries = append(entries, e)
	}
	return entries
}

type foldState struct {
	cursor   int
	labsSeen int
}

// step 消费一个课程代码，返回条目与推进后的状态
func (st foldState) step(code string, subjects SubjectLookup) (DisplayEntry, foldState) {
	base, isLab := strings.CutSuffix(code, LabSuffix)
	subject := resolveSubject(base, subjects)

	span := 1
	label := regularSlotLabel(st.cursor)
	next := st
	if isLab {
		span = 2
		if st.labsSeen == 0 {
			span = 3
		}
		label = labSlotLabel(st.cursor)
		next.labsSeen++
	}
	next.cursor += span

	return DisplayEntry{
		Name:       subject.Name,
		ShortName:  subject.ShortName,
		SlotLabel:  label,
		StartIndex: st.cursor,
		EndIndex:   st.cursor + span - 1,
		IsLab:      isLab,
		free:       subject.IsFree(),
		unknown:    subject.IsUnknown(),
	}, next
}

func regularSlotLabel(cursor int) string {
	if cursor < 0 || cursor >= len(slotLabels) {
		return UnknownSlotLabel
	}
	return slotLabels[cursor]
}

// labSlotLabel 按游标而非实验课序号选择标签：0、3、5 为约定起点
func labSlotLabel(cursor int) string {
	switch cursor {
	case 0:
		return labSlotLabels[0]
	case 3:
		return labSlotLabels[1]
	case 5:
		return labSlotLabels[2]
	default:
		return UnknownSlotLabel
	}
}
