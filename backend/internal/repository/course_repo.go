package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"assessment-matrix/backend/internal/model"
	pkgerrors "assessment-matrix/backend/pkg/errors"
)

// CourseRepository 课程数据访问接口
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	GetByName(ctx context.Context, name string) (*model.Course, error)
	// GetByNameUnscoped 包含已软删除的课程，用于名称冲突检查
	GetByNameUnscoped(ctx context.Context, name string) (*model.Course, error)
	GetDeletedByName(ctx context.Context, name string) (*model.Course, error)
	List(ctx context.Context) ([]model.Course, error)
	ListDeleted(ctx context.Context) ([]model.Course, error)
	// Update 基于 version 的乐观锁更新，成功后 version 自增
	Update(ctx context.Context, course *model.Course) error
	Delete(ctx context.Context, id string) error
	// MarkDeleted 以指定时间软删除，用于导入已删除的课程
	MarkDeleted(ctx context.Context, id string, at time.Time) error
	Restore(ctx context.Context, id, name, displayName string) error
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]model.Course, error)
	HardDelete(ctx context.Context, id string) error
}

type courseRepo struct {
	db *gorm.DB
}

// NewCourseRepo 创建 CourseRepository 实例
func NewCourseRepo(db *gorm.DB) CourseRepository {
	return &courseRepo{db: db}
}

func (r *courseRepo) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepo) GetByName(ctx context.Context, name string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetByNameUnscoped(ctx context.Context, name string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).Unscoped().
		Where("name = ?", name).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) GetDeletedByName(ctx context.Context, name string) (*model.Course, error) {
	var course model.Course
	err := r.db.WithContext(ctx).Unscoped().
		Where("name = ? AND deleted_at IS NOT NULL", name).
		First(&course).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepo) List(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) ListDeleted(ctx context.Context) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL").
		Order("deleted_at DESC").
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) Update(ctx context.Context, course *model.Course) error {
	oldVersion := course.Version
	result := r.db.WithContext(ctx).
		Model(&model.Course{}).
		Where("course_id = ? AND version = ?", course.CourseID, oldVersion).
		Updates(map[string]interface{}{
			"name":         course.Name,
			"display_name": course.DisplayName,
			"color":        course.Color,
			"version":      oldVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ErrOptimisticLock
	}
	course.Version = oldVersion + 1
	return nil
}

func (r *courseRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("course_id = ?", id).
		Delete(&model.Course{}).Error
}

func (r *courseRepo) MarkDeleted(ctx context.Context, id string, at time.Time) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&model.Course{}).
		Where("course_id = ?", id).
		Update("deleted_at", at).Error
}

func (r *courseRepo) Restore(ctx context.Context, id, name, displayName string) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&model.Course{}).
		Where("course_id = ?", id).
		Updates(map[string]interface{}{
			"name":         name,
			"display_name": displayName,
			"deleted_at":   nil,
		}).Error
}

func (r *courseRepo) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]model.Course, error) {
	var courses []model.Course
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&courses).Error
	return courses, err
}

func (r *courseRepo) HardDelete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().
		Where("course_id = ?", id).
		Delete(&model.Course{}).Error
}
