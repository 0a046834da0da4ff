package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/matrix"
	"assessment-matrix/backend/internal/repository"
)

// ── 作业模块业务错误 ──

var (
	ErrNoAssignments = errors.New("该学生暂无作业")
)

// AssignmentService 作业条目业务接口
// 每个操作在一个事务内读取学生记录、修改、整体替换其作业条目
type AssignmentService interface {
	Add(ctx context.Context, courseName, studentID string, req *dto.AddAssignmentRequest) (*dto.AddAssignmentResponse, error)
	Edit(ctx context.Context, courseName, studentID string, req *dto.EditAssignmentRequest) (*dto.StudentDetailResponse, error)
	Delete(ctx context.Context, courseName, studentID string, areaIndex int, level string, position int) (*dto.StudentDetailResponse, error)
	DeleteAll(ctx context.Context, courseName, studentID string) (*dto.StudentDetailResponse, error)
	Last(ctx context.Context, courseName, studentID string) (*dto.LastAssignmentResponse, error)
	UndoLast(ctx context.Context, courseName, studentID string) (*dto.LastAssignmentResponse, error)
	Bulk(ctx context.Context, courseName string, req *dto.BulkAssignmentRequest) (*dto.BulkAssignmentResponse, error)
}

type assignmentService struct {
	limits config.LimitsConfig
	repo   *repository.Repository
	logger *zap.Logger
}

// NewAssignmentService 创建 AssignmentService 实例
func NewAssignmentService(limits config.LimitsConfig, repo *repository.Repository, logger *zap.Logger) AssignmentService {
	return &assignmentService{limits: limits, repo: repo, logger: logger}
}

// ────────────────────── Add ──────────────────────

// Add 未知的领域名称直接跳过，不视为错误
func (s *assignmentService) Add(ctx context.Context, courseName, studentID string, req *dto.AddAssignmentRequest) (*dto.AddAssignmentResponse, error) {
	name, err := checkName(req.AssignmentName, s.limits.MaxAssignmentNameLength)
	if err != nil {
		return nil, err
	}
	lcs, err := parseLevelColors(req.LevelColors)
	if err != nil {
		return nil, err
	}

	var resp dto.AddAssignmentResponse
	err = s.withRecord(ctx, courseName, studentID, func(r *repository.Repository, rec *matrix.Record, areas []matrix.Area) error {
		touched := rec.AddAssignment(areas, req.Requirements, lcs, name, nowFunc())
		if len(touched) > 0 {
			if err := saveEntries(ctx, r, rec, areas); err != nil {
				return err
			}
		}
		resp.AreaIndexes = touched
		if resp.AreaIndexes == nil {
			resp.AreaIndexes = []int{}
		}
		resp.Student = toStudentDetail(rec, len(areas))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ────────────────────── Edit ──────────────────────

// Edit 同名条目整体替换，保留最早找到的 createdAt
func (s *assignmentService) Edit(ctx context.Context, courseName, studentID string, req *dto.EditAssignmentRequest) (*dto.StudentDetailResponse, error) {
	name, err := checkName(req.AssignmentName, s.limits.MaxAssignmentNameLength)
	if err != nil {
		return nil, err
	}
	lcs, err := parseLevelColors(req.NewLevelColors)
	if err != nil {
		return nil, err
	}
	areaIndex := 0
	if req.AreaIndex != nil {
		areaIndex = *req.AreaIndex
	}

	var detail *dto.StudentDetailResponse
	err = s.withRecord(ctx, courseName, studentID, func(r *repository.Repository, rec *matrix.Record, areas []matrix.Area) error {
		if err := rec.EditAssignment(len(areas), areaIndex, name, lcs, nowFunc()); err != nil {
			return err
		}
		if err := saveEntries(ctx, r, rec, areas); err != nil {
			return err
		}
		detail = toStudentDetail(rec, len(areas))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ────────────────────── Delete ──────────────────────

func (s *assignmentService) Delete(ctx context.Context, courseName, studentID string, areaIndex int, level string, position int) (*dto.StudentDetailResponse, error) {
	var detail *dto.StudentDetailResponse
	err := s.withRecord(ctx, courseName, studentID, func(r *repository.Repository, rec *matrix.Record, areas []matrix.Area) error {
		if _, err := rec.DeleteAssignment(areaIndex, matrix.Level(level), position); err != nil {
			return err
		}
		if err := saveEntries(ctx, r, rec, areas); err != nil {
			return err
		}
		detail = toStudentDetail(rec, len(areas))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ────────────────────── DeleteAll ──────────────────────

// DeleteAll 每个单元格重置为空（含评分）
func (s *assignmentService) DeleteAll(ctx context.Context, courseName, studentID string) (*dto.StudentDetailResponse, error) {
	var detail *dto.StudentDetailResponse
	err := s.withRecord(ctx, courseName, studentID, func(r *repository.Repository, rec *matrix.Record, areas []matrix.Area) error {
		rec.ResetCells(len(areas))
		if err := saveRecord(ctx, r, rec, areas, nowFunc()); err != nil {
			return err
		}
		detail = toStudentDetail(rec, len(areas))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// ────────────────────── Last / UndoLast ──────────────────────

func (s *assignmentService) Last(ctx context.Context, courseName, studentID string) (*dto.LastAssignmentResponse, error) {
	var resp *dto.LastAssignmentResponse
	err := s.withRecord(ctx, courseName, studentID, func(_ *repository.Repository, rec *matrix.Record, _ []matrix.Area) error {
		latest, ok := rec.Latest()
		if !ok {
			return ErrNoAssignments
		}
		resp = &dto.LastAssignmentResponse{AssignmentName: latest.Name, CreatedAt: latest.CreatedAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// UndoLast 删除与最新条目同名且同一创建时间的全部条目（一次添加操作的所有领域与等级）
func (s *assignmentService) UndoLast(ctx context.Context, courseName, studentID string) (*dto.LastAssignmentResponse, error) {
	var resp *dto.LastAssignmentResponse
	err := s.withRecord(ctx, courseName, studentID, func(r *repository.Repository, rec *matrix.Record, areas []matrix.Area) error {
		latest, ok := rec.Latest()
		if !ok {
			return ErrNoAssignments
		}
		removed := rec.RemoveEntries(latest.Name, latest.CreatedAt)
		if err := saveEntries(ctx, r, rec, areas); err != nil {
			return err
		}
		resp = &dto.LastAssignmentResponse{
			AssignmentName: latest.Name,
			CreatedAt:      latest.CreatedAt,
			Removed:        removed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("撤销最近作业",
		zap.String("course", courseName),
		zap.String("student", studentID),
		zap.String("assignment", resp.AssignmentName),
		zap.Int("removed", resp.Removed),
	)
	return resp, nil
}

// ────────────────────── Bulk ──────────────────────

// Bulk 为全部可见学生在 E/C/A 三个等级各添加一条 green 作业，单事务
func (s *assignmentService) Bulk(ctx context.Context, courseName string, req *dto.BulkAssignmentRequest) (*dto.BulkAssignmentResponse, error) {
	name, err := checkName(req.AssignmentName, s.limits.MaxAssignmentNameLength)
	if err != nil {
		return nil, err
	}
	lcs := make([]matrix.LevelColor, 0, len(matrix.Levels))
	for _, l := range matrix.Levels {
		lcs = append(lcs, matrix.LevelColor{Level: l, Color: matrix.ColorGreen})
	}

	updated := 0
	err = runInTx(ctx, s.repo, s.logger, func(r *repository.Repository) error {
		course, err := getCourse(ctx, r, s.logger, courseName)
		if err != nil {
			return err
		}
		areas, err := loadAreas(ctx, r, course.CourseID)
		if err != nil {
			return err
		}
		students, err := r.Student.ListByCourse(ctx, course.CourseID, false)
		if err != nil {
			return err
		}
		records, err := loadRecords(ctx, r, students, areas)
		if err != nil {
			return err
		}

		now := nowFunc()
		for _, rec := range records {
			if touched := rec.AddAssignment(areas, req.Requirements, lcs, name, now); len(touched) > 0 {
				if err := saveEntries(ctx, r, rec, areas); err != nil {
					return err
				}
			}
			updated++
		}
		return nil
	})
	if err != nil {
		if !isLedgerBusinessError(err) {
			s.logger.Error("批量添加作业失败", zap.String("course", courseName), zap.Error(err))
		}
		return nil, err
	}

	return &dto.BulkAssignmentResponse{StudentsUpdated: updated}, nil
}

// ── 内部辅助方法 ──

// withRecord 在事务内加载课程领域与学生记录后执行 fn
func (s *assignmentService) withRecord(
	ctx context.Context,
	courseName, studentID string,
	fn func(r *repository.Repository, rec *matrix.Record, areas []matrix.Area) error,
) error {
	err := runInTx(ctx, s.repo, s.logger, func(r *repository.Repository) error {
		rec, areas, err := loadStudentRecord(ctx, r, s.logger, courseName, studentID)
		if err != nil {
			return err
		}
		return fn(r, rec, areas)
	})
	if err != nil && !isLedgerBusinessError(err) {
		s.logger.Error("作业操作失败",
			zap.String("course", courseName),
			zap.String("student", studentID),
			zap.Error(err),
		)
	}
	return err
}

// loadStudentRecord 课程 → 领域 → 学生 → 记录
func loadStudentRecord(ctx context.Context, r *repository.Repository, logger *zap.Logger, courseName, studentID string) (*matrix.Record, []matrix.Area, error) {
	course, err := getCourse(ctx, r, logger, courseName)
	if err != nil {
		return nil, nil, err
	}
	student, err := getStudent(ctx, r, logger, course.CourseID, studentID)
	if err != nil {
		return nil, nil, err
	}
	areas, err := loadAreas(ctx, r, course.CourseID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := loadRecord(ctx, r, student, areas)
	if err != nil {
		return nil, nil, err
	}
	return rec, areas, nil
}

func parseLevelColors(in []dto.LevelColorRequest) ([]matrix.LevelColor, error) {
	out := make([]matrix.LevelColor, 0, len(in))
	for _, lc := range in {
		v := matrix.LevelColor{Level: matrix.Level(lc.Level), Color: matrix.Color(lc.Color)}
		if err := v.Validate(); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func isLedgerBusinessError(err error) bool {
	return errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrStudentNotFound) ||
		errors.Is(err, ErrNoAssignments) ||
		errors.Is(err, matrix.ErrInvalidIndex) ||
		errors.Is(err, matrix.ErrInvalidPath) ||
		errors.Is(err, matrix.ErrEmptyName) ||
		errors.Is(err, matrix.ErrInvalidLevel) ||
		errors.Is(err, matrix.ErrInvalidColor) ||
		errors.Is(err, matrix.ErrInvalidGrade)
}
