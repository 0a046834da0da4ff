package dto

import "assessment-matrix/backend/internal/matrix"

// ── 评分模块 DTO ──

// SetGradeRequest 设置某领域某等级的评分，GradeColor 为 null 表示清除
type SetGradeRequest struct {
	AreaIndex  *int    `json:"areaIndex"  binding:"required,min=0"`
	Level      string  `json:"level"      binding:"required,level"`
	GradeColor *string `json:"gradeColor" binding:"omitempty,grade_color"`
}

// BatchGradeRequest 按顺序应用多条评分
type BatchGradeRequest struct {
	Updates []SetGradeRequest `json:"updates" binding:"required,min=1,dive"`
}

// GradeResponse 评分结果：新的三元组与实际变化的等级
type GradeResponse struct {
	AreaIndex int            `json:"areaIndex"`
	Grades    matrix.Grades  `json:"grades"`
	Changed   []matrix.Level `json:"changed"`
}
