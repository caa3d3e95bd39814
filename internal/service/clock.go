package service

import (
	"errors"
	"time"

	"github.com/Joy2225/timetable/internal/timetable"
)

// ErrInvalidTime 时间参数无法解析
var ErrInvalidTime = errors.New("无效的时间参数")

// wallClock 按配置时区读取当前时间，测试中替换 now
type wallClock struct {
	loc *time.Location
	now func() time.Time
}

func newWallClock(loc *time.Location) wallClock {
	if loc == nil {
		loc = time.Local
	}
	return wallClock{loc: loc, now: time.Now}
}

// Now 当前时间（配置时区）
func (c wallClock) Now() time.Time {
	return c.now().In(c.loc)
}

// resolve at 为空时取当前时间，否则取今天的 at 时刻
func (c wallClock) resolve(at string) (time.Time, error) {
	now := c.Now()
	if at == "" {
		return now, nil
	}
	tod, err := timetable.ParseTimeOfDay(at)
	if err != nil {
		return time.Time{}, ErrInvalidTime
	}
	return tod.On(now), nil
}
