package service

import (
	"go.uber.org/zap"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/repository"
	"assessment-matrix/backend/pkg/jwt"
	"assessment-matrix/backend/pkg/redis"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth       AuthService
	Course     CourseService
	Area       AreaService
	Student    StudentService
	Assignment AssignmentService
	Grade      GradeService
	Settings   SettingsService
	Export     ExportService
	Retention  RetentionService
}

// NewService 创建 Service 聚合；rdb 可为 nil（Redis 未启用）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	rdb *redis.Client,
	logger *zap.Logger,
) *Service {
	return &Service{
		Auth:       NewAuthService(&cfg.Auth, jwtMgr, rdb, logger),
		Course:     NewCourseService(cfg.Limits, cfg.Retention, repo, logger),
		Area:       NewAreaService(cfg.Limits, repo, logger),
		Student:    NewStudentService(cfg.Limits, cfg.Retention, repo, logger),
		Assignment: NewAssignmentService(cfg.Limits, repo, logger),
		Grade:      NewGradeService(repo, logger),
		Settings:   NewSettingsService(repo, logger),
		Export:     NewExportService(repo, logger),
		Retention:  NewRetentionService(cfg.Retention, repo, logger),
	}
}
