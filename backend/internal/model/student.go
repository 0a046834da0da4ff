package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Student 学生表，对应 students
// StudentID 可由导入数据指定，未指定时生成 UUID
type Student struct {
	StudentID string `gorm:"type:varchar(64);primaryKey"     json:"id"`
	CourseID  string `gorm:"type:varchar(36);not null;index" json:"course_id"`
	Name      string `gorm:"type:varchar(100);not null"      json:"name"`
	Hidden    bool   `gorm:"not null;default:false"          json:"hidden"`
	SoftDeleteModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }

// BeforeCreate 生成主键
func (s *Student) BeforeCreate(_ *gorm.DB) error {
	if s.StudentID == "" {
		s.StudentID = uuid.NewString()
	}
	return nil
}
