package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/matrix"
	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
)

// ── 通用业务错误 ──

var (
	ErrNameTooLong        = errors.New("名称过长")
	ErrDescriptionTooLong = errors.New("描述过长")
)

// nowFunc 作业与评分的时间戳，截断到微秒以便与数据库往返后仍可精确比较
var nowFunc = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// ── 事务 ──

// runInTx 在单个事务内执行 fn；repo 未绑定数据库时直接在原聚合上执行
func runInTx(ctx context.Context, repo *repository.Repository, logger *zap.Logger, fn func(r *repository.Repository) error) error {
	fnDone := false
	err := repo.Transaction(ctx, func(r *repository.Repository) error {
		if err := fn(r); err != nil {
			return err
		}
		fnDone = true
		return nil
	})
	if err != nil && fnDone {
		logger.Error("提交事务失败", zap.Error(err))
	}
	return err
}

// ── 校验 ──

// checkName 去除首尾空白后校验非空与长度（按字符计）
func checkName(name string, maxLen int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", matrix.ErrEmptyName
	}
	if maxLen > 0 && utf8.RuneCountInString(name) > maxLen {
		return "", ErrNameTooLong
	}
	return name, nil
}

// ── 课程聚合加载 ──

func getCourse(ctx context.Context, repo *repository.Repository, logger *zap.Logger, name string) (*model.Course, error) {
	course, err := repo.Course.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		logger.Error("查询课程失败", zap.String("course", name), zap.Error(err))
		return nil, err
	}
	return course, nil
}

func getStudent(ctx context.Context, repo *repository.Repository, logger *zap.Logger, courseID, id string) (*model.Student, error) {
	student, err := repo.Student.GetByID(ctx, courseID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		logger.Error("查询学生失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return student, nil
}

// loadAreas 按位置顺序返回课程的评估领域
func loadAreas(ctx context.Context, repo *repository.Repository, courseID string) ([]matrix.Area, error) {
	rows, err := repo.Area.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	areas := make([]matrix.Area, len(rows))
	for i, row := range rows {
		areas[i] = matrix.Area{ID: row.AreaID, Name: row.Name, Description: row.Description}
	}
	return areas, nil
}

// loadRecords 读取学生的作业与评分，组装为与 areas 对齐的记录
func loadRecords(ctx context.Context, repo *repository.Repository, students []model.Student, areas []matrix.Area) ([]*matrix.Record, error) {
	if len(students) == 0 {
		return []*matrix.Record{}, nil
	}
	ids := make([]string, len(students))
	for i := range students {
		ids[i] = students[i].StudentID
	}

	rows, err := repo.Assignment.ListByStudents(ctx, ids)
	if err != nil {
		return nil, err
	}
	grades, err := repo.Grade.ListByStudents(ctx, ids)
	if err != nil {
		return nil, err
	}
	return buildRecords(students, areas, rows, grades), nil
}

func loadRecord(ctx context.Context, repo *repository.Repository, student *model.Student, areas []matrix.Area) (*matrix.Record, error) {
	records, err := loadRecords(ctx, repo, []model.Student{*student}, areas)
	if err != nil {
		return nil, err
	}
	return records[0], nil
}

// buildRecords 行数据 → 记录；已不存在的领域上的行被忽略
func buildRecords(students []model.Student, areas []matrix.Area, rows []model.Assignment, grades []model.Grade) []*matrix.Record {
	index := make(map[string]int, len(areas))
	for i, a := range areas {
		index[a.ID] = i
	}

	records := make([]*matrix.Record, len(students))
	byID := make(map[string]*matrix.Record, len(students))
	for i, s := range students {
		rec := matrix.NewRecord(s.StudentID, s.Name, len(areas))
		rec.Hidden = s.Hidden
		records[i] = rec
		byID[s.StudentID] = rec
	}

	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, func(a, b model.Assignment) int {
		return cmp.Compare(a.Position, b.Position)
	})
	for _, row := range sorted {
		rec, ok := byID[row.StudentID]
		if !ok {
			continue
		}
		idx, ok := index[row.AreaID]
		level := matrix.Level(row.Level)
		if !ok || !level.Valid() {
			continue
		}
		cell := &rec.Cells[idx]
		cell.SetEntries(level, append(cell.Entries(level), matrix.Entry{
			Name:      row.Name,
			Color:     matrix.Color(row.Color),
			CreatedAt: row.CreatedAt,
		}))
	}

	for _, g := range grades {
		rec, ok := byID[g.StudentID]
		if !ok {
			continue
		}
		idx, ok := index[g.AreaID]
		if !ok {
			continue
		}
		rec.Cells[idx].Grades.Set(matrix.Level(g.Level), matrix.Color(g.Color))
	}
	return records
}

// ── 记录持久化 ──

// assignmentRows 记录 → 作业行，Position 为等级列表内的下标
func assignmentRows(rec *matrix.Record, areas []matrix.Area) []model.Assignment {
	var rows []model.Assignment
	for i, a := range areas {
		cell := rec.Cell(i)
		for _, l := range matrix.Levels {
			for pos, e := range cell.Entries(l) {
				rows = append(rows, model.Assignment{
					StudentID: rec.ID,
					AreaID:    a.ID,
					Name:      e.Name,
					Level:     string(l),
					Color:     string(e.Color),
					Position:  pos,
					CreatedAt: e.CreatedAt,
				})
			}
		}
	}
	return rows
}

func gradeRows(rec *matrix.Record, areas []matrix.Area, now time.Time) []model.Grade {
	var rows []model.Grade
	for i, a := range areas {
		grades := rec.Cell(i).Grades
		for _, l := range matrix.Levels {
			if c := grades.Get(l); c != matrix.ColorNone {
				rows = append(rows, model.Grade{
					StudentID: rec.ID,
					AreaID:    a.ID,
					Level:     string(l),
					Color:     string(c),
					UpdatedAt: now,
				})
			}
		}
	}
	return rows
}

// saveEntries 整体替换学生的作业条目，评分不变
func saveEntries(ctx context.Context, repo *repository.Repository, rec *matrix.Record, areas []matrix.Area) error {
	return repo.Assignment.ReplaceByStudent(ctx, rec.ID, assignmentRows(rec, areas))
}

// saveRecord 整体替换学生的全部单元格（作业与评分）
func saveRecord(ctx context.Context, repo *repository.Repository, rec *matrix.Record, areas []matrix.Area, now time.Time) error {
	if err := saveEntries(ctx, repo, rec, areas); err != nil {
		return err
	}
	return repo.Grade.ReplaceByStudent(ctx, rec.ID, gradeRows(rec, areas, now))
}

// ── 响应转换 ──

func toStudentDetail(rec *matrix.Record, areaCount int) *dto.StudentDetailResponse {
	cells := make([]matrix.Cell, areaCount)
	for i := range cells {
		cells[i] = rec.Cell(i)
	}
	return &dto.StudentDetailResponse{
		ID:          rec.ID,
		Name:        rec.Name,
		Hidden:      rec.Hidden,
		Assignments: cells,
	}
}

// expiryInfo 计算软删除记录的到期信息；已过保留期时 ok=false
func expiryInfo(deletedAt, now time.Time, months, warnDays int) (dto.ExpiryInfo, bool) {
	expiresAt := deletedAt.AddDate(0, months, 0)
	if !expiresAt.After(now) {
		return dto.ExpiryInfo{}, false
	}
	return dto.ExpiryInfo{
		DeletedAt:           deletedAt.Format("2006-01-02"),
		WillExpireSoon:      !expiresAt.After(now.AddDate(0, 0, warnDays)),
		DaysUntilExpiration: int(expiresAt.Sub(now).Hours() / 24),
	}, true
}
