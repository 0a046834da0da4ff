package dto

import "assessment-matrix/backend/internal/matrix"

// ── 学生模块 DTO ──

// CreateStudentRequest 新增学生
type CreateStudentRequest struct {
	Name string `json:"name" binding:"required"`
}

// RenameStudentRequest 修改学生姓名
type RenameStudentRequest struct {
	Name string `json:"name" binding:"required"`
}

// SetHiddenRequest 隐藏 / 显示学生
type SetHiddenRequest struct {
	Hidden *bool `json:"hidden" binding:"required"`
}

// StudentListRequest 学生列表查询参数
type StudentListRequest struct {
	IncludeHidden *bool `form:"includeHidden"`
}

// StudentSummary 学生列表项，也是导出 / 导入的记录格式
type StudentSummary struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Hidden bool   `json:"hidden"`
}

// StudentDetailResponse 学生详情，Assignments 与课程评估领域一一对应
type StudentDetailResponse struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Hidden      bool          `json:"hidden"`
	Assignments []matrix.Cell `json:"assignments"`
}

// DeletedStudentResponse 已删除学生
type DeletedStudentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	ExpiryInfo
}

// ImportStudent 导入的单条学生记录
type ImportStudent struct {
	ID     string `json:"id"     binding:"required,max=64"`
	Name   string `json:"name"   binding:"required"`
	Hidden bool   `json:"hidden"`
}

// ImportStudentsRequest 批量导入学生
type ImportStudentsRequest struct {
	Students []ImportStudent `json:"students" binding:"required,dive"`
}
