package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
	pkgerrors "assessment-matrix/backend/pkg/errors"
)

// ── 课程模块业务错误 ──

var (
	ErrCourseNotFound        = errors.New("课程不存在")
	ErrCourseExists          = errors.New("课程名称已存在")
	ErrDeletedCourseNotFound = errors.New("已删除的课程不存在")
)

// CourseService 课程业务接口
type CourseService interface {
	List(ctx context.Context) ([]dto.CourseResponse, error)
	Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error)
	Update(ctx context.Context, name string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error)
	Delete(ctx context.Context, name string) error
	ListDeleted(ctx context.Context, now time.Time) ([]dto.DeletedCourseResponse, error)
	Restore(ctx context.Context, name string, req *dto.RestoreCourseRequest) (*dto.CourseResponse, error)
}

type courseService struct {
	limits    config.LimitsConfig
	retention config.RetentionConfig
	repo      *repository.Repository
	logger    *zap.Logger
}

// NewCourseService 创建 CourseService 实例
func NewCourseService(
	limits config.LimitsConfig,
	retention config.RetentionConfig,
	repo *repository.Repository,
	logger *zap.Logger,
) CourseService {
	return &courseService{limits: limits, retention: retention, repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *courseService) List(ctx context.Context) ([]dto.CourseResponse, error) {
	courses, err := s.repo.Course.List(ctx)
	if err != nil {
		s.logger.Error("列出课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.CourseResponse, 0, len(courses))
	for i := range courses {
		result = append(result, *toCourseResponse(&courses[i]))
	}
	return result, nil
}

// ────────────────────── Create ──────────────────────

// Create 课程名称全局唯一，已软删除的课程同样占用名称
func (s *courseService) Create(ctx context.Context, req *dto.CreateCourseRequest) (*dto.CourseResponse, error) {
	name, err := checkName(req.CourseName, s.limits.MaxCourseNameLength)
	if err != nil {
		return nil, err
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = name
	}
	if _, err := checkName(displayName, s.limits.MaxCourseNameLength); err != nil {
		return nil, err
	}

	if err := s.ensureNameFree(ctx, name, ""); err != nil {
		return nil, err
	}

	course := &model.Course{
		Name:        name,
		DisplayName: displayName,
		Color:       req.Color,
	}
	if err := s.repo.Course.Create(ctx, course); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrCourseExists
		}
		s.logger.Error("创建课程失败", zap.String("course", name), zap.Error(err))
		return nil, err
	}

	s.logger.Info("课程已创建", zap.String("course", name))
	return toCourseResponse(course), nil
}

// ────────────────────── Update ──────────────────────

func (s *courseService) Update(ctx context.Context, name string, req *dto.UpdateCourseRequest) (*dto.CourseResponse, error) {
	newName, err := checkName(req.NewCourseName, s.limits.MaxCourseNameLength)
	if err != nil {
		return nil, err
	}
	newDisplayName, err := checkName(req.NewDisplayName, s.limits.MaxCourseNameLength)
	if err != nil {
		return nil, err
	}

	course, err := getCourse(ctx, s.repo, s.logger, name)
	if err != nil {
		return nil, err
	}

	if newName != course.Name {
		if err := s.ensureNameFree(ctx, newName, course.CourseID); err != nil {
			return nil, err
		}
	}

	course.Name = newName
	course.DisplayName = newDisplayName
	course.Color = req.NewColor

	if err := s.repo.Course.Update(ctx, course); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrCourseExists
		}
		if !errors.Is(err, pkgerrors.ErrOptimisticLock) {
			s.logger.Error("更新课程失败", zap.String("course", name), zap.Error(err))
		}
		return nil, err
	}

	return toCourseResponse(course), nil
}

// ────────────────────── Delete ──────────────────────

func (s *courseService) Delete(ctx context.Context, name string) error {
	course, err := getCourse(ctx, s.repo, s.logger, name)
	if err != nil {
		return err
	}

	if err := s.repo.Course.Delete(ctx, course.CourseID); err != nil {
		s.logger.Error("删除课程失败", zap.String("course", name), zap.Error(err))
		return err
	}

	s.logger.Info("课程已删除", zap.String("course", name))
	return nil
}

// ────────────────────── ListDeleted ──────────────────────

// ListDeleted 已超过保留期的课程不再列出
func (s *courseService) ListDeleted(ctx context.Context, now time.Time) ([]dto.DeletedCourseResponse, error) {
	courses, err := s.repo.Course.ListDeleted(ctx)
	if err != nil {
		s.logger.Error("列出已删除课程失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.DeletedCourseResponse, 0, len(courses))
	for _, c := range courses {
		info, ok := expiryInfo(c.DeletedAt.Time, now, s.retention.DeletedCourseMonths, s.retention.ExpiryWarningDays)
		if !ok {
			continue
		}
		result = append(result, dto.DeletedCourseResponse{
			Name:        c.Name,
			DisplayName: c.DisplayName,
			ExpiryInfo:  info,
		})
	}
	return result, nil
}

// ────────────────────── Restore ──────────────────────

func (s *courseService) Restore(ctx context.Context, name string, req *dto.RestoreCourseRequest) (*dto.CourseResponse, error) {
	target := name
	if strings.TrimSpace(req.NewCourseName) != "" {
		n, err := checkName(req.NewCourseName, s.limits.MaxCourseNameLength)
		if err != nil {
			return nil, err
		}
		target = n
	}

	// 1. 目标名称不能被活动课程占用
	if _, err := s.repo.Course.GetByName(ctx, target); err == nil {
		return nil, ErrCourseExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询课程失败", zap.String("course", target), zap.Error(err))
		return nil, err
	}

	// 2. 查找已删除课程
	course, err := s.repo.Course.GetDeletedByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeletedCourseNotFound
		}
		s.logger.Error("查询已删除课程失败", zap.String("course", name), zap.Error(err))
		return nil, err
	}

	// 3. 改名恢复时，新名称也不能被其他已删除课程占用
	displayName := course.DisplayName
	if target != name {
		if err := s.ensureNameFree(ctx, target, course.CourseID); err != nil {
			return nil, err
		}
		displayName = target
	}

	if err := s.repo.Course.Restore(ctx, course.CourseID, target, displayName); err != nil {
		if pkgerrors.IsDuplicate(err) {
			return nil, ErrCourseExists
		}
		s.logger.Error("恢复课程失败", zap.String("course", name), zap.Error(err))
		return nil, err
	}

	course.Name = target
	course.DisplayName = displayName
	s.logger.Info("课程已恢复", zap.String("course", name), zap.String("as", target))
	return toCourseResponse(course), nil
}

// ── 内部辅助方法 ──

// ensureNameFree 名称未被其他课程（含已删除）占用；selfID 为当前课程
func (s *courseService) ensureNameFree(ctx context.Context, name, selfID string) error {
	existing, err := s.repo.Course.GetByNameUnscoped(ctx, name)
	if err == nil {
		if existing.CourseID != selfID {
			return ErrCourseExists
		}
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	s.logger.Error("检查课程名称失败", zap.String("course", name), zap.Error(err))
	return err
}

func toCourseResponse(c *model.Course) *dto.CourseResponse {
	return &dto.CourseResponse{
		Name:        c.Name,
		DisplayName: c.DisplayName,
		Color:       c.Color,
		Version:     c.Version,
	}
}
