package model

import (
	"gorm.io/datatypes"

	"github.com/Joy2225/timetable/internal/timetable"
)

// Timetable 班级课表 — 对应 timetables
// Subjects/Schedule 以 JSONB 存储，结构与课表文档一致
type Timetable struct {
	TimetableID  string                                       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"timetable_id"`
	TimetableKey string                                       `gorm:"type:varchar(120);not null"                     json:"timetable_key"`
	Year         string                                       `gorm:"type:varchar(20);not null"                      json:"year"`
	Section      string                                       `gorm:"type:varchar(40);not null"                      json:"section"`
	Semester     string                                       `gorm:"type:varchar(20);not null"                      json:"semester"`
	Subjects     datatypes.JSONType[timetable.Directory]      `gorm:"type:jsonb;not null"                            json:"subjects"`
	Schedule     datatypes.JSONType[timetable.WeeklySchedule] `gorm:"type:jsonb;not null"                            json:"schedule"`
	VersionedModel
}

// TableName 指定表名
func (Timetable) TableName() string { return "timetables" }

// Key 还原课表键
func (t *Timetable) Key() timetable.Key {
	return timetable.Key{Year: t.Year, Section: t.Section, Semester: t.Semester}
}

// Document 转换为投影所需的课表文档
func (t *Timetable) Document() *timetable.Document {
	doc := &timetable.Document{
		Subjects: t.Subjects.Data(),
		Schedule: t.Schedule.Data(),
	}
	if doc.Subjects == nil {
		doc.Subjects = timetable.Directory{}
	}
	if doc.Schedule == nil {
		doc.Schedule = timetable.WeeklySchedule{}
	}
	return doc
}

// SetDocument 写入课表文档内容
func (t *Timetable) SetDocument(doc *timetable.Document) {
	t.Subjects = datatypes.NewJSONType(doc.Subjects)
	t.Schedule = datatypes.NewJSONType(doc.Schedule)
}
