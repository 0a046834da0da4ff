package dto

import "time"

// ── 作业模块 DTO ──

// LevelColorRequest 某一等级上的作业颜色
type LevelColorRequest struct {
	Level string `json:"level" binding:"required,level"`
	Color string `json:"color" binding:"required,entry_color"`
}

// AddAssignmentRequest 为学生添加作业
// Requirements 为评估领域名称，未知名称忽略
type AddAssignmentRequest struct {
	Requirements   []string            `json:"requirements"   binding:"required,min=1"`
	LevelColors    []LevelColorRequest `json:"levelColors"    binding:"required,min=1,dive"`
	AssignmentName string              `json:"assignmentName" binding:"required"`
}

// EditAssignmentRequest 按名称整体替换某领域内的作业
type EditAssignmentRequest struct {
	AreaIndex      *int                `json:"areaIndex"      binding:"required,min=0"`
	AssignmentName string              `json:"assignmentName" binding:"required"`
	NewLevelColors []LevelColorRequest `json:"newLevelColors" binding:"required,dive"`
}

// BulkAssignmentRequest 为课程内全部可见学生添加作业（E/C/A 均为 green）
type BulkAssignmentRequest struct {
	Requirements   []string `json:"requirements"   binding:"required,min=1"`
	AssignmentName string   `json:"assignmentName" binding:"required"`
}

// AddAssignmentResponse 添加作业结果
type AddAssignmentResponse struct {
	AreaIndexes []int                  `json:"areaIndexes"`
	Student     *StudentDetailResponse `json:"student"`
}

// LastAssignmentResponse 最近一次作业
type LastAssignmentResponse struct {
	AssignmentName string    `json:"assignmentName"`
	CreatedAt      time.Time `json:"createdAt"`
	Removed        int       `json:"removed,omitempty"`
}

// BulkAssignmentResponse 批量添加结果
type BulkAssignmentResponse struct {
	StudentsUpdated int `json:"studentsUpdated"`
}
