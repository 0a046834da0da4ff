package service

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/matrix"
	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
	pkgerrors "assessment-matrix/backend/pkg/errors"
)

// ── 评估领域模块业务错误 ──

var (
	ErrAreaNameExists = errors.New("评估领域名称已存在")
	ErrTooManyAreas   = errors.New("评估领域数量已达上限")
)

// AreaService 评估领域业务接口
//
// 结构性变更（新增 / 删除 / 移动）在同一事务内：
//   - 加载课程的领域序列与全部学生（含已删除）的单元格
//   - 通过 matrix 保持 assignments[i] ↔ areas[i] 对齐
//   - 保存领域序列、整体替换每个学生的单元格、递增课程版本（乐观锁）
type AreaService interface {
	List(ctx context.Context, courseName string) ([]dto.AreaResponse, error)
	Create(ctx context.Context, courseName string, req *dto.AreaRequest) (*dto.AreaResponse, error)
	Update(ctx context.Context, courseName string, index int, req *dto.AreaRequest) (*dto.AreaResponse, error)
	Delete(ctx context.Context, courseName string, index int) error
	Reorder(ctx context.Context, courseName string, from, to int) ([]dto.AreaResponse, error)
}

type areaService struct {
	limits config.LimitsConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAreaService 创建 AreaService 实例
func NewAreaService(limits config.LimitsConfig, repo *repository.Repository, logger *zap.Logger) AreaService {
	return &areaService{limits: limits, repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *areaService) List(ctx context.Context, courseName string) ([]dto.AreaResponse, error) {
	course, err := getCourse(ctx, s.repo, s.logger, courseName)
	if err != nil {
		return nil, err
	}
	areas, err := loadAreas(ctx, s.repo, course.CourseID)
	if err != nil {
		s.logger.Error("列出评估领域失败", zap.String("course", courseName), zap.Error(err))
		return nil, err
	}
	return toAreaResponses(areas), nil
}

// ────────────────────── Create ──────────────────────

func (s *areaService) Create(ctx context.Context, courseName string, req *dto.AreaRequest) (*dto.AreaResponse, error) {
	name, err := s.checkArea(req)
	if err != nil {
		return nil, err
	}

	var created dto.AreaResponse
	err = s.mutate(ctx, courseName, true, func(m *matrix.Matrix) error {
		if matrix.IndexOfArea(m.Areas, name) >= 0 {
			return ErrAreaNameExists
		}
		if s.limits.MaxAreasPerCourse > 0 && len(m.Areas) >= s.limits.MaxAreasPerCourse {
			return ErrTooManyAreas
		}
		idx, err := m.InsertArea(matrix.Area{ID: uuid.NewString(), Name: name, Description: req.Description})
		if err != nil {
			return err
		}
		created = dto.AreaResponse{Index: idx, Name: m.Areas[idx].Name, Description: m.Areas[idx].Description}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// ────────────────────── Update ──────────────────────

// Update 只修改名称与描述，学生数据不变
func (s *areaService) Update(ctx context.Context, courseName string, index int, req *dto.AreaRequest) (*dto.AreaResponse, error) {
	var updated dto.AreaResponse
	err := s.mutate(ctx, courseName, false, func(m *matrix.Matrix) error {
		if index < 0 || index >= len(m.Areas) {
			return matrix.ErrInvalidIndex
		}
		name, err := s.checkArea(req)
		if err != nil {
			return err
		}
		if other := matrix.IndexOfArea(m.Areas, name); other >= 0 && other != index {
			return ErrAreaNameExists
		}
		if err := m.UpdateArea(index, name, req.Description); err != nil {
			return err
		}
		updated = dto.AreaResponse{Index: index, Name: m.Areas[index].Name, Description: m.Areas[index].Description}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ────────────────────── Delete ──────────────────────

func (s *areaService) Delete(ctx context.Context, courseName string, index int) error {
	return s.mutate(ctx, courseName, true, func(m *matrix.Matrix) error {
		removed, err := m.DeleteArea(index)
		if err != nil {
			return err
		}
		s.logger.Info("删除评估领域",
			zap.String("course", courseName),
			zap.Int("index", index),
			zap.String("area", removed.Name),
		)
		return nil
	})
}

// ────────────────────── Reorder ──────────────────────

func (s *areaService) Reorder(ctx context.Context, courseName string, from, to int) ([]dto.AreaResponse, error) {
	var areas []matrix.Area
	err := s.mutate(ctx, courseName, true, func(m *matrix.Matrix) error {
		if err := m.ReorderArea(from, to); err != nil {
			return err
		}
		areas = m.Areas
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toAreaResponses(areas), nil
}

// ── 内部辅助方法 ──

func (s *areaService) checkArea(req *dto.AreaRequest) (string, error) {
	name, err := checkName(req.Name, s.limits.MaxAreaNameLength)
	if err != nil {
		return "", err
	}
	if s.limits.MaxAreaDescriptionLength > 0 && utf8.RuneCountInString(req.Description) > s.limits.MaxAreaDescriptionLength {
		return "", ErrDescriptionTooLong
	}
	return name, nil
}

// mutate 在一个事务内加载课程矩阵、执行 op 并整体保存
// withStudents 为 false 时仅保存领域序列
func (s *areaService) mutate(ctx context.Context, courseName string, withStudents bool, op func(m *matrix.Matrix) error) error {
	err := runInTx(ctx, s.repo, s.logger, func(r *repository.Repository) error {
		course, err := getCourse(ctx, r, s.logger, courseName)
		if err != nil {
			return err
		}
		areas, err := loadAreas(ctx, r, course.CourseID)
		if err != nil {
			return err
		}

		m := &matrix.Matrix{Areas: areas}
		if withStudents {
			// 已删除的学生同样跟随领域变化，恢复后仍保持对齐
			ids, err := r.Student.ListIDsByCourseUnscoped(ctx, course.CourseID)
			if err != nil {
				return err
			}
			students := make([]model.Student, len(ids))
			for i, id := range ids {
				students[i] = model.Student{StudentID: id}
			}
			if m.Students, err = loadRecords(ctx, r, students, areas); err != nil {
				return err
			}
		}

		if err := op(m); err != nil {
			return err
		}

		rows := make([]model.AssessmentArea, len(m.Areas))
		for i, a := range m.Areas {
			if a.ID == "" {
				a.ID = uuid.NewString()
				m.Areas[i].ID = a.ID
			}
			rows[i] = model.AssessmentArea{AreaID: a.ID, Name: a.Name, Description: a.Description}
		}
		if err := r.Area.ReplaceForCourse(ctx, course.CourseID, rows); err != nil {
			return err
		}

		now := nowFunc()
		for _, rec := range m.Students {
			if err := saveRecord(ctx, r, rec, m.Areas, now); err != nil {
				return err
			}
		}

		return r.Course.Update(ctx, course)
	})
	if err != nil {
		if !isAreaBusinessError(err) {
			s.logger.Error("评估领域变更失败", zap.String("course", courseName), zap.Error(err))
		}
		return err
	}
	return nil
}

func isAreaBusinessError(err error) bool {
	return errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrAreaNameExists) ||
		errors.Is(err, ErrTooManyAreas) ||
		errors.Is(err, ErrNameTooLong) ||
		errors.Is(err, ErrDescriptionTooLong) ||
		errors.Is(err, matrix.ErrInvalidIndex) ||
		errors.Is(err, matrix.ErrEmptyName) ||
		errors.Is(err, pkgerrors.ErrOptimisticLock)
}

func toAreaResponses(areas []matrix.Area) []dto.AreaResponse {
	result := make([]dto.AreaResponse, len(areas))
	for i, a := range areas {
		result[i] = dto.AreaResponse{Index: i, Name: a.Name, Description: a.Description}
	}
	return result
}
