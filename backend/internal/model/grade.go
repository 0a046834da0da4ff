package model

import "time"

// Grade 评分表，对应 grades
// 每个 (学生, 领域, 等级) 至多一行；未评分即无记录
type Grade struct {
	StudentID string    `gorm:"type:varchar(64);primaryKey" json:"student_id"`
	AreaID    string    `gorm:"type:varchar(36);primaryKey" json:"area_id"`
	Level     string    `gorm:"type:varchar(1);primaryKey"  json:"level"`
	Color     string    `gorm:"type:varchar(10);not null"   json:"color"`
	UpdatedAt time.Time `gorm:"not null"                    json:"updated_at"`
}

// TableName 指定表名
func (Grade) TableName() string { return "grades" }
