package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Course 课程表，对应 courses
// 名称全局唯一（含已软删除的课程），评估领域结构变更时递增 Version
type Course struct {
	CourseID    string `gorm:"type:varchar(36);primaryKey"          json:"id"`
	Name        string `gorm:"type:varchar(100);not null;uniqueIndex" json:"name"`
	DisplayName string `gorm:"type:varchar(100);not null"           json:"display_name"`
	Color       string `gorm:"type:varchar(20)"                     json:"color,omitempty"`
	VersionedModel
}

// TableName 指定表名
func (Course) TableName() string { return "courses" }

// BeforeCreate 生成主键并初始化版本号
func (c *Course) BeforeCreate(_ *gorm.DB) error {
	if c.CourseID == "" {
		c.CourseID = uuid.NewString()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	return nil
}
