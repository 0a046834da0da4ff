package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assessment-matrix/backend/internal/model"
)

// StudentRepository 学生数据访问接口
type StudentRepository interface {
	Create(ctx context.Context, student *model.Student) error
	GetByID(ctx context.Context, courseID, id string) (*model.Student, error)
	GetDeletedByID(ctx context.Context, courseID, id string) (*model.Student, error)
	ListByCourse(ctx context.Context, courseID string, includeHidden bool) ([]model.Student, error)
	ListDeleted(ctx context.Context, courseID string) ([]model.Student, error)
	CountByCourse(ctx context.Context, courseID string) (int64, error)
	Update(ctx context.Context, student *model.Student) error
	// Upsert 按主键插入或覆盖（同时清除软删除标记），用于导入
	Upsert(ctx context.Context, student *model.Student) error
	Delete(ctx context.Context, id string) error
	Restore(ctx context.Context, id string) error
	// ListIDsByCourseUnscoped 课程下全部学生 ID（含已删除），用于彻底清理
	ListIDsByCourseUnscoped(ctx context.Context, courseID string) ([]string, error)
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]model.Student, error)
	HardDelete(ctx context.Context, ids []string) error
}

type studentRepo struct {
	db *gorm.DB
}

// NewStudentRepo 创建 StudentRepository 实例
func NewStudentRepo(db *gorm.DB) StudentRepository {
	return &studentRepo{db: db}
}

func (r *studentRepo) Create(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}

func (r *studentRepo) GetByID(ctx context.Context, courseID, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).
		Where("course_id = ? AND student_id = ?", courseID, id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) GetDeletedByID(ctx context.Context, courseID, id string) (*model.Student, error) {
	var student model.Student
	err := r.db.WithContext(ctx).Unscoped().
		Where("course_id = ? AND student_id = ? AND deleted_at IS NOT NULL", courseID, id).
		First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

func (r *studentRepo) ListByCourse(ctx context.Context, courseID string, includeHidden bool) ([]model.Student, error) {
	var students []model.Student
	db := r.db.WithContext(ctx).Where("course_id = ?", courseID)

	if !includeHidden {
		db = db.Where("hidden = ?", false)
	}

	err := db.Order("LOWER(name) ASC, student_id ASC").Find(&students).Error
	return students, err
}

func (r *studentRepo) ListDeleted(ctx context.Context, courseID string) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).Unscoped().
		Where("course_id = ? AND deleted_at IS NOT NULL", courseID).
		Order("deleted_at DESC").
		Find(&students).Error
	return students, err
}

func (r *studentRepo) CountByCourse(ctx context.Context, courseID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("course_id = ?", courseID).
		Count(&n).Error
	return n, err
}

func (r *studentRepo) Update(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).
		Model(&model.Student{}).
		Where("student_id = ?", student.StudentID).
		Updates(map[string]interface{}{
			"name":   student.Name,
			"hidden": student.Hidden,
		}).Error
}

func (r *studentRepo) Upsert(ctx context.Context, student *model.Student) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"course_id", "name", "hidden", "deleted_at", "updated_at"}),
		}).
		Create(student).Error
}

func (r *studentRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ?", id).
		Delete(&model.Student{}).Error
}

func (r *studentRepo) Restore(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Unscoped().
		Model(&model.Student{}).
		Where("student_id = ?", id).
		Update("deleted_at", nil).Error
}

func (r *studentRepo) ListIDsByCourseUnscoped(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).Unscoped().
		Model(&model.Student{}).
		Where("course_id = ?", courseID).
		Pluck("student_id", &ids).Error
	return ids, err
}

func (r *studentRepo) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]model.Student, error) {
	var students []model.Student
	err := r.db.WithContext(ctx).Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", cutoff).
		Find(&students).Error
	return students, err
}

func (r *studentRepo) HardDelete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Unscoped().
		Where("student_id IN ?", ids).
		Delete(&model.Student{}).Error
}
