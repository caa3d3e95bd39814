package timetable

import (
	"encoding/json"
	"strings"
	"unicode"
	"unicode/utf8"
)

type subjectKind uint8

const (
	kindRegular subjectKind = iota
	kindFree
	kindUnknown
)

// Subject 课程信息
type Subject struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	Faculty   string `json:"faculty"`
	ShortName string `json:"short_name"`

	kind subjectKind
}

// 哨兵课程：以 kind 区分身份，字段相同的普通课程不会被视为哨兵
var (
	Free    = Subject{Name: "Free", ShortName: "F", kind: kindFree}
	Unknown = Subject{Name: "⚠️ Unknown", ShortName: "U", kind: kindUnknown}
)

// NewSubject 创建课程；shortName 为空时按名称推导
func NewSubject(name, code, faculty, shortName string) Subject {
	if shortName == "" {
		shortName = DeriveShortName(name)
	}
	return Subject{Name: name, Code: code, Faculty: faculty, ShortName: shortName}
}

// IsFree 是否为空闲课哨兵
func (s Subject) IsFree() bool { return s.kind == kindFree }

// IsUnknown 是否为未知课程哨兵
func (s Subject) IsUnknown() bool { return s.kind == kindUnknown }

// UnmarshalJSON 同时接受 short_name 与旧文档中的 shortName，缺省时按名称推导，未知字段忽略
func (s *Subject) UnmarshalJSON(data []byte) error {
	type plain Subject
	var p struct {
		plain
		LegacyShortName string `json:"shortName"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	short := p.ShortName
	if short == "" {
		short = p.LegacyShortName
	}
	*s = NewSubject(p.Name, p.Code, p.Faculty, short)
	return nil
}

// DeriveShortName 按空格切分名称，取每个单词首字符中的大写字母拼接。
// "Computer Science" → "CS"，"Intro to Networks" → "IN"
func DeriveShortName(name string) string {
	var b strings.Builder
	for _, w := range strings.Split(name, " ") {
		r, _ := utf8.DecodeRuneInString(w)
		if r != utf8.RuneError && unicode.IsUpper(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SubjectLookup 按课程代码查找课程
type SubjectLookup interface {
	Lookup(code string) (Subject, bool)
}

// Directory 课程代码 → 课程
type Directory map[string]Subject

// Lookup 实现 SubjectLookup
func (d Directory) Lookup(code string) (Subject, bool) {
	s, ok := d[code]
	return s, ok
}

// resolveSubject 解析课程代码，查不到时降级为 Unknown
func resolveSubject(code string, subjects SubjectLookup) Subject {
	if code == FreeCode {
		return Free
	}
	if subjects == nil {
		return Unknown
	}
	if s, ok := subjects.Lookup(code); ok {
		return s
	}
	return Unknown
}
