package timetable

import (
	"fmt"
	"sort"
	"time"
)

// Boundaries 节次起止时刻去重升序，活跃节次只会在这些时刻发生变化
func Boundaries() []TimeOfDay {
	seen := make(map[TimeOfDay]bool, PeriodCount*2)
	out := make([]TimeOfDay, 0, PeriodCount*2)
	for _, p := range periodTable {
		for _, t := range []TimeOfDay{p.Start, p.End} {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// NextBoundary 返回 now 之后最近的边界时刻；当天已无边界时返回次日零点（日期切换）
func NextBoundary(now time.Time) time.Time {
	tod := FromTime(now)
	for _, b := range Boundaries() {
		if b > tod {
			return b.On(now)
		}
	}
	return NextMidnight(now)
}

// NextMidnight 返回 now 所在时区的次日零点
func NextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// NextPeriodStart 返回 now 之后下一节课的下标与开始时间；当天已无课时取次日第一节
func NextPeriodStart(now time.Time) (int, time.Time) {
	tod := FromTime(now)
	for i, p := range periodTable {
		if p.Start > tod {
			return i, p.Start.On(now)
		}
	}
	return 0, periodTable[0].Start.On(now.AddDate(0, 0, 1))
}

// midnightCronSpec 日期切换，挂件改为展示新一天的课表
const midnightCronSpec = "0 0 * * *"

// BoundaryCronSpecs 零点加上每个边界各一条 5 段式 cron 表达式（分 时 日 月 周）
func BoundaryCronSpecs() []string {
	bs := Boundaries()
	specs := make([]string, 0, len(bs)+1)
	specs = append(specs, midnightCronSpec)
	for _, b := range bs {
		specs = append(specs, fmt.Sprintf("%d %d * * *", b.Minute(), b.Hour()))
	}
	return specs
}
