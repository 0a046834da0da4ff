package repository

import (
	"context"

	"gorm.io/gorm"

	"assessment-matrix/backend/internal/model"
)

// AreaRepository 评估领域数据访问接口
type AreaRepository interface {
	ListByCourse(ctx context.Context, courseID string) ([]model.AssessmentArea, error)
	// ReplaceForCourse 以给定顺序整体替换课程的领域序列：
	// 保存列表中的领域并重写 sort_order，删除不在列表中的领域
	ReplaceForCourse(ctx context.Context, courseID string, areas []model.AssessmentArea) error
	DeleteByCourse(ctx context.Context, courseID string) error
}

type areaRepo struct {
	db *gorm.DB
}

// NewAreaRepo 创建 AreaRepository 实例
func NewAreaRepo(db *gorm.DB) AreaRepository {
	return &areaRepo{db: db}
}

func (r *areaRepo) ListByCourse(ctx context.Context, courseID string) ([]model.AssessmentArea, error) {
	var areas []model.AssessmentArea
	err := r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Order("sort_order ASC").
		Find(&areas).Error
	return areas, err
}

func (r *areaRepo) ReplaceForCourse(ctx context.Context, courseID string, areas []model.AssessmentArea) error {
	db := r.db.WithContext(ctx)

	keep := make([]string, 0, len(areas))
	for i := range areas {
		areas[i].CourseID = courseID
		areas[i].SortOrder = i
		result := db.Model(&model.AssessmentArea{}).
			Where("area_id = ? AND course_id = ?", areas[i].AreaID, courseID).
			Updates(map[string]interface{}{
				"name":        areas[i].Name,
				"description": areas[i].Description,
				"sort_order":  i,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			if err := db.Create(&areas[i]).Error; err != nil {
				return err
			}
		}
		keep = append(keep, areas[i].AreaID)
	}

	del := db.Where("course_id = ?", courseID)
	if len(keep) > 0 {
		del = del.Where("area_id NOT IN ?", keep)
	}
	return del.Delete(&model.AssessmentArea{}).Error
}

func (r *areaRepo) DeleteByCourse(ctx context.Context, courseID string) error {
	return r.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Delete(&model.AssessmentArea{}).Error
}
