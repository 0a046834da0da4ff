package model

import "time"

// Assignment 作业条目表，对应 assignments
// 每行是某学生在某领域某等级上的一条作业，Position 为该等级列表内的顺序（0 为最新）
type Assignment struct {
	AssignmentID uint      `gorm:"primaryKey;autoIncrement"                                    json:"-"`
	StudentID    string    `gorm:"type:varchar(64);not null;index:idx_assignments_student_area" json:"student_id"`
	AreaID       string    `gorm:"type:varchar(36);not null;index:idx_assignments_student_area" json:"area_id"`
	Name         string    `gorm:"type:varchar(200);not null"                                  json:"name"`
	Level        string    `gorm:"type:varchar(1);not null"                                    json:"level"`
	Color        string    `gorm:"type:varchar(10);not null"                                   json:"color"`
	Position     int       `gorm:"not null;default:0"                                          json:"position"`
	CreatedAt    time.Time `gorm:"not null"                                                    json:"created_at"`
}

// TableName 指定表名
func (Assignment) TableName() string { return "assignments" }
