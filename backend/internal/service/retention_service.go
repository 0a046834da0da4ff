package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/repository"
)

// PurgeResult 一次清理的结果
type PurgeResult struct {
	Courses  int `json:"courses"`
	Students int `json:"students"`
}

// RetentionService 软删除数据保留策略：超过保留期的课程与学生被物理删除
type RetentionService interface {
	PurgeExpired(ctx context.Context, now time.Time) (*PurgeResult, error)
}

type retentionService struct {
	cfg    config.RetentionConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewRetentionService 创建 RetentionService 实例
func NewRetentionService(cfg config.RetentionConfig, repo *repository.Repository, logger *zap.Logger) RetentionService {
	return &retentionService{cfg: cfg, repo: repo, logger: logger}
}

// PurgeExpired 每门课程在单独的事务中删除（含领域、学生及其单元格）
func (s *retentionService) PurgeExpired(ctx context.Context, now time.Time) (*PurgeResult, error) {
	result := &PurgeResult{}

	// 1. 过期课程
	courseCutoff := now.AddDate(0, -s.cfg.DeletedCourseMonths, 0)
	courses, err := s.repo.Course.ListDeletedBefore(ctx, courseCutoff)
	if err != nil {
		s.logger.Error("查询过期课程失败", zap.Error(err))
		return nil, err
	}

	for _, c := range courses {
		err := runInTx(ctx, s.repo, s.logger, func(r *repository.Repository) error {
			ids, err := r.Student.ListIDsByCourseUnscoped(ctx, c.CourseID)
			if err != nil {
				return err
			}
			if err := purgeStudents(ctx, r, ids); err != nil {
				return err
			}
			if err := r.Area.DeleteByCourse(ctx, c.CourseID); err != nil {
				return err
			}
			return r.Course.HardDelete(ctx, c.CourseID)
		})
		if err != nil {
			s.logger.Error("清理过期课程失败", zap.String("course", c.Name), zap.Error(err))
			return nil, err
		}
		result.Courses++
	}

	// 2. 过期学生（所在课程仍存在）
	studentCutoff := now.AddDate(0, -s.cfg.DeletedStudentMonths, 0)
	students, err := s.repo.Student.ListDeletedBefore(ctx, studentCutoff)
	if err != nil {
		s.logger.Error("查询过期学生失败", zap.Error(err))
		return nil, err
	}
	if len(students) > 0 {
		ids := make([]string, len(students))
		for i := range students {
			ids[i] = students[i].StudentID
		}
		err := runInTx(ctx, s.repo, s.logger, func(r *repository.Repository) error {
			return purgeStudents(ctx, r, ids)
		})
		if err != nil {
			s.logger.Error("清理过期学生失败", zap.Int("count", len(ids)), zap.Error(err))
			return nil, err
		}
		result.Students = len(ids)
	}

	if result.Courses > 0 || result.Students > 0 {
		s.logger.Info("过期数据清理完成",
			zap.Int("courses", result.Courses),
			zap.Int("students", result.Students),
		)
	}
	return result, nil
}

func purgeStudents(ctx context.Context, r *repository.Repository, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := r.Assignment.DeleteByStudents(ctx, ids); err != nil {
		return err
	}
	if err := r.Grade.DeleteByStudents(ctx, ids); err != nil {
		return err
	}
	return r.Student.HardDelete(ctx, ids)
}
