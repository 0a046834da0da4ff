package model

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AssessmentArea 评估领域表，对应 assessment_areas
// 对外按 sort_order 的位置寻址，AreaID 为稳定标识，学生数据按 AreaID 关联
type AssessmentArea struct {
	AreaID      string `gorm:"type:varchar(36);primaryKey"      json:"id"`
	CourseID    string `gorm:"type:varchar(36);not null;index"  json:"course_id"`
	Name        string `gorm:"type:varchar(150);not null"       json:"name"`
	Description string `gorm:"type:varchar(500);not null;default:''" json:"description"`
	SortOrder   int    `gorm:"not null;default:0"               json:"sort_order"`
	BaseModel
}

// TableName 指定表名
func (AssessmentArea) TableName() string { return "assessment_areas" }

// BeforeCreate 生成主键
func (a *AssessmentArea) BeforeCreate(_ *gorm.DB) error {
	if a.AreaID == "" {
		a.AreaID = uuid.NewString()
	}
	return nil
}
