package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/matrix"
	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
)

// GradeService 评分业务接口
type GradeService interface {
	Set(ctx context.Context, courseName, studentID string, req *dto.SetGradeRequest) (*dto.GradeResponse, error)
	// Batch 按顺序应用，后一条基于前一条的结果；单事务，任一失败全部回滚
	Batch(ctx context.Context, courseName, studentID string, req *dto.BatchGradeRequest) ([]dto.GradeResponse, error)
}

type gradeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewGradeService 创建 GradeService 实例
func NewGradeService(repo *repository.Repository, logger *zap.Logger) GradeService {
	return &gradeService{repo: repo, logger: logger}
}

type gradeUpdate struct {
	areaIndex int
	level     matrix.Level
	color     matrix.Color
}

// ────────────────────── Set ──────────────────────

func (s *gradeService) Set(ctx context.Context, courseName, studentID string, req *dto.SetGradeRequest) (*dto.GradeResponse, error) {
	results, err := s.apply(ctx, courseName, studentID, []dto.SetGradeRequest{*req})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// ────────────────────── Batch ──────────────────────

func (s *gradeService) Batch(ctx context.Context, courseName, studentID string, req *dto.BatchGradeRequest) ([]dto.GradeResponse, error) {
	return s.apply(ctx, courseName, studentID, req.Updates)
}

// ── 内部辅助方法 ──

func (s *gradeService) apply(ctx context.Context, courseName, studentID string, reqs []dto.SetGradeRequest) ([]dto.GradeResponse, error) {
	updates := make([]gradeUpdate, 0, len(reqs))
	for _, req := range reqs {
		u, err := parseGradeUpdate(req)
		if err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}

	results := make([]dto.GradeResponse, 0, len(updates))
	err := runInTx(ctx, s.repo, s.logger, func(r *repository.Repository) error {
		rec, areas, err := loadStudentRecord(ctx, r, s.logger, courseName, studentID)
		if err != nil {
			return err
		}

		now := nowFunc()
		for _, u := range updates {
			next, changed, err := rec.SetGrade(len(areas), u.areaIndex, u.level, u.color)
			if err != nil {
				return err
			}
			if err := persistGrades(ctx, r, studentID, areas[u.areaIndex].ID, next, changed, now); err != nil {
				return err
			}
			if changed == nil {
				changed = []matrix.Level{}
			}
			results = append(results, dto.GradeResponse{AreaIndex: u.areaIndex, Grades: next, Changed: changed})
		}
		return nil
	})
	if err != nil {
		if !isLedgerBusinessError(err) {
			s.logger.Error("评分失败",
				zap.String("course", courseName),
				zap.String("student", studentID),
				zap.Error(err),
			)
		}
		return nil, err
	}
	return results, nil
}

// persistGrades 只写入实际变化的等级：有颜色则 upsert，null 则删除
func persistGrades(ctx context.Context, r *repository.Repository, studentID, areaID string, grades matrix.Grades, changed []matrix.Level, now time.Time) error {
	for _, l := range changed {
		c := grades.Get(l)
		if c == matrix.ColorNone {
			if err := r.Grade.Clear(ctx, studentID, areaID, string(l)); err != nil {
				return err
			}
			continue
		}
		if err := r.Grade.Upsert(ctx, &model.Grade{
			StudentID: studentID,
			AreaID:    areaID,
			Level:     string(l),
			Color:     string(c),
			UpdatedAt: now,
		}); err != nil {
			return err
		}
	}
	return nil
}

func parseGradeUpdate(req dto.SetGradeRequest) (gradeUpdate, error) {
	level, err := matrix.ParseLevel(req.Level)
	if err != nil {
		return gradeUpdate{}, err
	}
	color := matrix.ColorNone
	if req.GradeColor != nil {
		color = matrix.Color(*req.GradeColor)
	}
	if err := matrix.ValidateGrade(level, color); err != nil {
		return gradeUpdate{}, err
	}
	u := gradeUpdate{level: level, color: color, areaIndex: -1}
	if req.AreaIndex != nil {
		u.areaIndex = *req.AreaIndex
	}
	return u, nil
}
