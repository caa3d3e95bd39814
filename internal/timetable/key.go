package timetable

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidKey 时间表标识格式错误
var ErrInvalidKey = errors.New("无效的时间表标识")

// Key 时间表标识：年级 + 班级 + 学期，序列化为 "year_section_semester"
type Key struct {
	Year     string `json:"year"`
	Section  string `json:"section"`
	Semester string `json:"semester"`
}

func (k Key) String() string {
	return k.Year + "_" + k.Section + "_" + k.Semester
}

// ParseKey 解析 "year_section_semester"，段数不为 3 时报错
func ParseKey(s string) (Key, error) {
	sp := strings.Split(s, "_")
	if len(sp) != 3 {
		return Key{}, fmt.Errorf("%w: %s", ErrInvalidKey, s)
	}
	return Key{Year: sp[0], Section: sp[1], Semester: sp[2]}, nil
}
