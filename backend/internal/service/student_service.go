package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/matrix"
	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
)

// ── 学生模块业务错误 ──

var (
	ErrStudentNotFound        = errors.New("学生不存在")
	ErrDeletedStudentNotFound = errors.New("已删除的学生不存在")
	ErrTooManyStudents        = errors.New("学生数量已达上限")
)

// StudentService 学生业务接口
type StudentService interface {
	List(ctx context.Context, courseName string, includeHidden bool) ([]dto.StudentSummary, error)
	Get(ctx context.Context, courseName, id string) (*dto.StudentDetailResponse, error)
	Create(ctx context.Context, courseName string, req *dto.CreateStudentRequest) (*dto.StudentDetailResponse, error)
	Rename(ctx context.Context, courseName, id string, req *dto.RenameStudentRequest) (*dto.StudentSummary, error)
	SetHidden(ctx context.Context, courseName, id string, hidden bool) (*dto.StudentSummary, error)
	Delete(ctx context.Context, courseName, id string) error
	ListDeleted(ctx context.Context, courseName string, now time.Time) ([]dto.DeletedStudentResponse, error)
	Restore(ctx context.Context, courseName, id string) error
	Import(ctx context.Context, courseName string, req *dto.ImportStudentsRequest) (int, error)
	Export(ctx context.Context, courseName string, now time.Time) ([]dto.StudentSummary, string, error)
}

type studentService struct {
	limits    config.LimitsConfig
	retention config.RetentionConfig
	repo      *repository.Repository
	logger    *zap.Logger
}

// NewStudentService 创建 StudentService 实例
func NewStudentService(
	limits config.LimitsConfig,
	retention config.RetentionConfig,
	repo *repository.Repository,
	logger *zap.Logger,
) StudentService {
	return &studentService{limits: limits, retention: retention, repo: repo, logger: logger}
}

// ────────────────────── List ──────────────────────

func (s *studentService) List(ctx context.Context, courseName string, includeHidden bool) ([]dto.StudentSummary, error) {
	course, err := getCourse(ctx, s.repo, s.logger, courseName)
	if err != nil {
		return nil, err
	}

	students, err := s.repo.Student.ListByCourse(ctx, course.CourseID, includeHidden)
	if err != nil {
		s.logger.Error("列出学生失败", zap.String("course", courseName), zap.Error(err))
		return nil, err
	}

	result := make([]dto.StudentSummary, 0, len(students))
	for i := range students {
		result = append(result, toStudentSummary(&students[i]))
	}
	return result, nil
}

// ────────────────────── Get ──────────────────────

// Get 单元格按评估领域补齐，缺失的单元格返回空单元格
func (s *studentService) Get(ctx context.Context, courseName, id string) (*dto.StudentDetailResponse, error) {
	course, err := getCourse(ctx, s.repo, s.logger, courseName)
	if err != nil {
		return nil, err
	}
	student, err := getStudent(ctx, s.repo, s.logger, course.CourseID, id)
	if err != nil {
		return nil, err
	}

	areas, err := loadAreas(ctx, s.repo, course.CourseID)
	if err != nil {
		s.logger.Error("查询评估领域失败", zap.String("course", courseName), zap.Error(err))
		return nil, err
	}
	rec, err := loadRecord(ctx, s.repo, student, areas)
	if err != nil {
		s.logger.Error("加载学生记录失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	return toStudentDetail(rec, len(areas)), nil
}

// ────────────────────── Create ──────────────────────

func (s *studentService) Create(ctx context.Context, courseName string, req *dto.CreateStudentRequest) (*dto.StudentDetailResponse, error) {
	name, err := checkName(req.Name, s.limits.MaxStudentNameLength)
	if err != nil {
		return nil, err
	}

	course, err := getCourse(ctx, s.repo, s.logger, courseName)
	if err != nil {
		return nil, err
	}

	if s.limits.MaxStudentsPerCourse > 0 {
		count, err := s.repo.Student.CountByCourse(ctx, course.CourseID)
		if err != nil {
			s.logger.Error("统计学生数量失败", zap.String("course", courseName), zap.Error(err))
			return nil, err
		}
		if count >= int64(s.limits.MaxStudentsPerCourse) {
			return nil, ErrTooManyStudents
		}
	}

	areas, err := loadAreas(ctx, s.repo, course.CourseID)
	if err != nil {
		s.logger.Error("查询评估领域失败", zap.String("course", courseName), zap.Error(err))
		return nil, err
	}

	student := &model.Student{CourseID: course.CourseID, Name: name}
	if err := s.repo.Student.Create(ctx, student); err != nil {
		s.logger.Error("创建学生失败", zap.String("course", courseName), zap.Error(err))
		return nil, err
	}

	s.logger.Info("学生已创建", zap.String("course", courseName), zap.String("id", student.StudentID))
	return toStudentDetail(matrix.NewRecord(student.StudentID, student.Name, len(areas)), len(areas)), nil
}

// ────────────────────── Rename / SetHidden ──────────────────────

func (s *studentService) Rename(ctx context.Context, courseName, id string, req *dto.RenameStudentRequest) (*dto.StudentSummary, error) {
	name, err := checkName(req.Name, s.limits.MaxStudentNameLength)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, courseName, id, func(st *model.Student) { st.Name = name })
}

func (s *studentService) SetHidden(ctx context.Context, courseName, id string, hidden bool) (*dto.StudentSummary, error) {
	return s.update(ctx, courseName, id, func(st *model.Student) { st.Hidden = hidden })
}

// ────────────────────── Delete ──────────────────────

func (s *studentService) Delete(ctx context.Context, courseName, id string) error {
	course, err := getCourse(ctx, s.repo, s.logger, courseName)
	if err != nil {
		return err
	}
	if _, err := getStudent(ctx, s.repo, s.logger, course.CourseID, id); err != nil {
		return err
	}

	if err := s.repo.Student.Delete(ctx, id); err != nil {
		s.logger.Error("删除学生失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── ListDeleted ──────────────────────

func (s *studentService) ListDeleted(ctx context.Context, courseName string, now time.Time) ([]dto.DeletedStudentResponse, error) {
	course, err := getCourse(ctx, s.repo, s.logger, courseName)
	if err != nil {
		return nil, err
	}

	students, err := s.repo.Student.ListDeleted(ctx, course.CourseID)
	if err != nil {
		s.logger.Error("列出已删除学生失败", zap.String("course", courseName), zap.Error(err))
		return nil, err
	}

	result := make([]dto.DeletedStudentResponse, 0, len(students))
	for _, st := range students {
		info, ok := expiryInfo(st.DeletedAt.Time, now, s.retention.DeletedStudentMonths, s.retention.ExpiryWarningDays)
		if !ok {
			continue
		}
		result = append(result, dto.DeletedStudentResponse{ID: st.StudentID, Name: st.Name, ExpiryInfo: info})
	}
	return result, nil
}

// ────────────────────── Restore ──────────────────────

func (s *studentService) Restore(ctx context.Context, courseName, id string) error {
	course, err := getCourse(ctx, s.repo, s.logger, courseName)
	if err != nil {
		return err
	}

	if _, err := s.repo.Student.GetDeletedByID(ctx, course.CourseID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeletedStudentNotFound
		}
		s.logger.Error("查询已删除学生失败", zap.String("id", id), zap.Error(err))
		return err
	}

	if err := s.repo.Student.Restore(ctx, id); err != nil {
		s.logger.Error("恢复学生失败", zap.String("id", id), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── Import / Export ──────────────────────

// Import 按 ID 覆盖写入，已删除的同 ID 学生被恢复；全部成功或全部回滚
func (s *studentService) Import(ctx context.Context, courseName string, req *dto.ImportStudentsRequest) (int, error) {
	students := make([]model.Student, 0, len(req.Students))
	for i, in := range req.Students {
		name, err := checkName(in.Name, s.limits.MaxStudentNameLength)
		if err != nil {
			return 0, fmt.Errorf("第 %d 条: %w", i+1, err)
		}
		students = append(students, model.Student{StudentID: in.ID, Name: name, Hidden: in.Hidden})
	}

	err := runInTx(ctx, s.repo, s.logger, func(r *repository.Repository) error {
		course, err := getCourse(ctx, r, s.logger, courseName)
		if err != nil {
			return err
		}
		for i := range students {
			students[i].CourseID = course.CourseID
			if err := r.Student.Upsert(ctx, &students[i]); err != nil {
				s.logger.Error("导入学生写入失败，事务回滚",
					zap.String("id", students[i].StudentID), zap.Error(err))
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("学生导入完成", zap.String("course", courseName), zap.Int("count", len(students)))
	return len(students), nil
}

func (s *studentService) Export(ctx context.Context, courseName string, now time.Time) ([]dto.StudentSummary, string, error) {
	list, err := s.List(ctx, courseName, true)
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("%s_students_%s.json", courseName, now.UTC().Format("2006-01-02T15-04-05"))
	return list, filename, nil
}

// ── 内部辅助方法 ──

func (s *studentService) update(ctx context.Context, courseName, id string, apply func(st *model.Student)) (*dto.StudentSummary, error) {
	course, err := getCourse(ctx, s.repo, s.logger, courseName)
	if err != nil {
		return nil, err
	}
	student, err := getStudent(ctx, s.repo, s.logger, course.CourseID, id)
	if err != nil {
		return nil, err
	}

	apply(student)
	if err := s.repo.Student.Update(ctx, student); err != nil {
		s.logger.Error("更新学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}

	summary := toStudentSummary(student)
	return &summary, nil
}

func toStudentSummary(st *model.Student) dto.StudentSummary {
	return dto.StudentSummary{ID: st.StudentID, Name: st.Name, Hidden: st.Hidden}
}
