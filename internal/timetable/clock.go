package timetable

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ── 一天中的时刻 ──

// TimeOfDay 当天零点起经过的秒数
type TimeOfDay int

const secondsPerDay = 24 * 60 * 60

// Clock 由时、分构造 TimeOfDay
func Clock(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60)
}

// ClockSec 由时、分、秒构造 TimeOfDay
func ClockSec(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// FromTime 取 t 在其自身时区下的墙上时间
func FromTime(t time.Time) TimeOfDay {
	return ClockSec(t.Hour(), t.Minute(), t.Second())
}

// ParseTimeOfDay 解析 "HH:MM" 或 "HH:MM:SS"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("无效的时间格式 %q", s)
	}
	limits := []int{23, 59, 59}
	vals := make([]int, 3)
	for i, p := range parts {
		if !isDigits(p) {
			return 0, fmt.Errorf("无效的时间格式 %q", s)
		}
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > limits[i] {
			return 0, fmt.Errorf("无效的时间格式 %q", s)
		}
		vals[i] = n
	}
	return ClockSec(vals[0], vals[1], vals[2]), nil
}

// isDigits 一到两位 ASCII 数字，不接受正负号
func isDigits(s string) bool {
	if len(s) == 0 || len(s) > 2 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Hour 小时部分
func (t TimeOfDay) Hour() int { return int(t) / 3600 }

// Minute 分钟部分
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }

// Second 秒部分
func (t TimeOfDay) Second() int { return int(t) % 60 }

// On 将时刻落到 date 所在日期（沿用 date 的时区）
func (t TimeOfDay) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour(), t.Minute(), t.Second(), 0, date.Location())
}

// String 格式化为 "HH:MM"，秒不为零时为 "HH:MM:SS"
func (t TimeOfDay) String() string {
	if t.Second() != 0 {
		return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
	}
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// ── 节次时间表 ──

// Period 一节常规课的时间区间 [Start, End)
type Period struct {
	Start TimeOfDay
	End   TimeOfDay
}

// Contains 半开区间判定：Start <= t < End
func (p Period) Contains(t TimeOfDay) bool {
	return p.Start <= t && t < p.End
}

// PeriodCount 常规节次数（名义槽位网格大小）
const PeriodCount = 7

// 课间 10:40-11:00、午休 12:40-14:00 不属于任何节次
var periodTable = [PeriodCount]Period{
	{Clock(8, 10), Clock(9, 0)},
	{Clock(9, 0), Clock(9, 50)},
	{Clock(9, 50), Clock(10, 40)},
	{Clock(11, 0), Clock(11, 50)},
	{Clock(11, 50), Clock(12, 40)},
	{Clock(14, 0), Clock(14, 50)},
	{Clock(14, 50), Clock(15, 40)},
}

// Periods 返回节次表副本
func Periods() [PeriodCount]Period {
	return periodTable
}

// ClassifyPeriod 返回 now 所处的常规节次下标（0 起）。
// 落在课间、午休、上课前或放学后时第二个返回值为 false。
func ClassifyPeriod(now TimeOfDay) (int, bool) {
	for i, p := range periodTable {
		if p.Contains(now) {
			return i, true
		}
	}
	return 0, false
}
