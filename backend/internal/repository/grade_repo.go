package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assessment-matrix/backend/internal/model"
)

// GradeRepository 评分数据访问接口
type GradeRepository interface {
	ListByStudents(ctx context.Context, studentIDs []string) ([]model.Grade, error)
	// Upsert 写入单个等级的评分
	Upsert(ctx context.Context, grade *model.Grade) error
	// Clear 清除单个等级的评分（未评分即无记录）
	Clear(ctx context.Context, studentID, areaID, level string) error
	ReplaceByStudent(ctx context.Context, studentID string, rows []model.Grade) error
	DeleteByStudents(ctx context.Context, studentIDs []string) error
}

type gradeRepo struct {
	db *gorm.DB
}

// NewGradeRepo 创建 GradeRepository 实例
func NewGradeRepo(db *gorm.DB) GradeRepository {
	return &gradeRepo{db: db}
}

func (r *gradeRepo) ListByStudents(ctx context.Context, studentIDs []string) ([]model.Grade, error) {
	var rows []model.Grade
	if len(studentIDs) == 0 {
		return rows, nil
	}
	err := r.db.WithContext(ctx).
		Where("student_id IN ?", studentIDs).
		Find(&rows).Error
	return rows, err
}

func (r *gradeRepo) Upsert(ctx context.Context, grade *model.Grade) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "student_id"}, {Name: "area_id"}, {Name: "level"}},
			DoUpdates: clause.AssignmentColumns([]string{"color", "updated_at"}),
		}).
		Create(grade).Error
}

func (r *gradeRepo) Clear(ctx context.Context, studentID, areaID, level string) error {
	return r.db.WithContext(ctx).
		Where("student_id = ? AND area_id = ? AND level = ?", studentID, areaID, level).
		Delete(&model.Grade{}).Error
}

func (r *gradeRepo) ReplaceByStudent(ctx context.Context, studentID string, rows []model.Grade) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("student_id = ?", studentID).Delete(&model.Grade{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].StudentID = studentID
	}
	return db.Create(&rows).Error
}

func (r *gradeRepo) DeleteByStudents(ctx context.Context, studentIDs []string) error {
	if len(studentIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Where("student_id IN ?", studentIDs).
		Delete(&model.Grade{}).Error
}
