package dto

// ── 课程模块 DTO ──

// CreateCourseRequest 创建课程请求
type CreateCourseRequest struct {
	CourseName  string `json:"courseName"  binding:"required"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color"       binding:"omitempty,max=20"`
}

// UpdateCourseRequest 重命名 / 修改课程展示信息
type UpdateCourseRequest struct {
	NewCourseName  string `json:"newCourseName"  binding:"required"`
	NewDisplayName string `json:"newDisplayName" binding:"required"`
	NewColor       string `json:"newColor"       binding:"omitempty,max=20"`
}

// RestoreCourseRequest 恢复已删除课程，可选以新名称恢复
type RestoreCourseRequest struct {
	NewCourseName string `json:"newCourseName"`
}

// CourseResponse 课程信息
type CourseResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	Color       string `json:"color,omitempty"`
	Version     int    `json:"version"`
}

// DeletedCourseResponse 已删除课程
type DeletedCourseResponse struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
	ExpiryInfo
}
