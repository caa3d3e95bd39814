package model

// Widget 桌面挂件实例配置 — 对应 widgets
type Widget struct {
	WidgetID        string `gorm:"type:varchar(64);primaryKey"   json:"widget_id"`
	TimetableKey    string `gorm:"type:varchar(120);not null"    json:"timetable_key"`
	ShowFreePeriods bool   `gorm:"not null;default:true"         json:"show_free_periods"`
	BaseModel
}

// TableName 指定表名
func (Widget) TableName() string { return "widgets" }
