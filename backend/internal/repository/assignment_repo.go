package repository

import (
	"context"

	"gorm.io/gorm"

	"assessment-matrix/backend/internal/model"
)

// AssignmentRepository 作业条目数据访问接口
type AssignmentRepository interface {
	// ListByStudents 按 (学生, 领域, 等级, position) 顺序返回
	ListByStudents(ctx context.Context, studentIDs []string) ([]model.Assignment, error)
	// ReplaceByStudent 删除学生全部作业后写入 rows（整体替换）
	ReplaceByStudent(ctx context.Context, studentID string, rows []model.Assignment) error
	DeleteByStudents(ctx context.Context, studentIDs []string) error
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) ListByStudents(ctx context.Context, studentIDs []string) ([]model.Assignment, error) {
	var rows []model.Assignment
	if len(studentIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("student_id IN ?", studentIDs).
		Order("student_id ASC, area_id ASC, level ASC, position ASC").
		Find(&rows).Error
	return rows, err
}

func (r *assignmentRepo) ReplaceByStudent(ctx context.Context, studentID string, rows []model.Assignment) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("student_id = ?", studentID).Delete(&model.Assignment{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].AssignmentID = 0
		rows[i].StudentID = studentID
	}
	return db.CreateInBatches(rows, 200).Error
}

func (r *assignmentRepo) DeleteByStudents(ctx context.Context, studentIDs []string) error {
	if len(studentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("student_id IN ?", studentIDs).
		Delete(&model.Assignment{}).Error
}
