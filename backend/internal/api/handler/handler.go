package handler

import "assessment-matrix/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	Course     *CourseHandler
	Area       *AreaHandler
	Student    *StudentHandler
	Assignment *AssignmentHandler
	Grade      *GradeHandler
	Settings   *SettingsHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		Course:     NewCourseHandler(svc.Course),
		Area:       NewAreaHandler(svc.Area),
		Student:    NewStudentHandler(svc.Student),
		Assignment: NewAssignmentHandler(svc.Assignment),
		Grade:      NewGradeHandler(svc.Grade),
		Settings:   NewSettingsHandler(svc.Settings),
		Export:     NewExportHandler(svc.Export),
	}
}
