// Package legacy 将旧版 JSON 文件目录导入数据库。
//
// 目录结构：
//
//	<dir>/courses/<课程名>/{course_meta.json, assessmentAreas.json, students.json}
//	<dir>/deleted_courses/<课程名>/... 以及可选的 .deletion_info.json
//	<dir>/app_settings.json
package legacy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"assessment-matrix/backend/internal/matrix"
	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
)

// ErrCourseExists 同名课程已存在（含已删除），跳过导入
var ErrCourseExists = errors.New("课程已存在")

// Result 导入统计
type Result struct {
	Courses  []string `json:"courses"`
	Skipped  []string `json:"skipped"`
	Students int      `json:"students"`
	Settings int      `json:"settings"`
}

// Importer 旧版数据导入器
type Importer struct {
	repo   *repository.Repository
	logger *zap.Logger
	now    func() time.Time
}

// NewImporter 创建 Importer
func NewImporter(repo *repository.Repository, logger *zap.Logger) *Importer {
	return &Importer{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ── 旧版文件格式 ──

type courseMeta struct {
	DisplayName string `json:"displayName"`
	Color       string `json:"color"`
}

type legacyArea struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type legacyEntry struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"createdAt"`
}

type legacyCell struct {
	E      []legacyEntry      `json:"E"`
	C      []legacyEntry      `json:"C"`
	A      []legacyEntry      `json:"A"`
	Grades map[string]*string `json:"grades"`
}

type legacyStudent struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Hidden      bool         `json:"hidden"`
	Assignments []legacyCell `json:"assignments"`
}

type deletionInfo struct {
	DeletedAt string `json:"deletedAt"`
}

// ────────────────────── ImportDir ──────────────────────

// ImportDir 导入 dir 下的全部课程与应用设置；每门课程单独一个事务
func (im *Importer) ImportDir(ctx context.Context, dir string) (*Result, error) {
	result := &Result{}

	active, err := courseDirs(filepath.Join(dir, "courses"))
	if err != nil {
		return nil, err
	}
	deleted, err := courseDirs(filepath.Join(dir, "deleted_courses"))
	if err != nil {
		return nil, err
	}

	for _, path := range active {
		im.importOne(ctx, path, nil, result)
	}
	for _, path := range deleted {
		at := im.readDeletedAt(path)
		im.importOne(ctx, path, &at, result)
	}

	n, err := im.importSettings(ctx, filepath.Join(dir, "app_settings.json"))
	if err != nil {
		return result, err
	}
	result.Settings = n
	return result, nil
}

func (im *Importer) importOne(ctx context.Context, path string, deletedAt *time.Time, result *Result) {
	name := filepath.Base(path)
	students, err := im.ImportCourse(ctx, path, deletedAt)
	switch {
	case errors.Is(err, ErrCourseExists):
		im.logger.Warn("课程已存在，跳过", zap.String("course", name))
		result.Skipped = append(result.Skipped, name)
	case err != nil:
		im.logger.Error("导入课程失败", zap.String("course", name), zap.Error(err))
		result.Skipped = append(result.Skipped, name)
	default:
		im.logger.Info("课程导入完成", zap.String("course", name), zap.Int("students", students))
		result.Courses = append(result.Courses, name)
		result.Students += students
	}
}

// ────────────────────── ImportCourse ──────────────────────

// ImportCourse 导入单个课程目录，目录名即课程名；deletedAt 非空时导入为已删除课程
func (im *Importer) ImportCourse(ctx context.Context, path string, deletedAt *time.Time) (int, error) {
	name := filepath.Base(path)
	if _, err := im.repo.Course.GetByNameUnscoped(ctx, name); err == nil {
		return 0, ErrCourseExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}

	meta := courseMeta{DisplayName: name}
	if err := readJSON(filepath.Join(path, "course_meta.json"), &meta); err != nil {
		return 0, err
	}
	if strings.TrimSpace(meta.DisplayName) == "" {
		meta.DisplayName = name
	}
	var areas []legacyArea
	if err := readJSON(filepath.Join(path, "assessmentAreas.json"), &areas); err != nil {
		return 0, err
	}
	var students []legacyStudent
	if err := readJSON(filepath.Join(path, "students.json"), &students); err != nil {
		return 0, err
	}

	err := im.repo.Transaction(ctx, func(r *repository.Repository) error {
		return im.writeCourse(ctx, r, name, meta, areas, students, deletedAt)
	})
	if err != nil {
		return 0, err
	}
	return len(students), nil
}

func (im *Importer) writeCourse(
	ctx context.Context,
	r *repository.Repository,
	name string,
	meta courseMeta,
	areas []legacyArea,
	students []legacyStudent,
	deletedAt *time.Time,
) error {
	course := &model.Course{Name: name, DisplayName: meta.DisplayName, Color: meta.Color}
	if err := r.Course.Create(ctx, course); err != nil {
		return fmt.Errorf("创建课程失败: %w", err)
	}

	rows := make([]model.AssessmentArea, len(areas))
	for i, a := range areas {
		rows[i] = model.AssessmentArea{CourseID: course.CourseID, Name: a.Name, Description: a.Description, SortOrder: i}
	}
	if err := r.Area.ReplaceForCourse(ctx, course.CourseID, rows); err != nil {
		return fmt.Errorf("写入评估领域失败: %w", err)
	}

	for _, ls := range students {
		st := &model.Student{StudentID: ls.ID, CourseID: course.CourseID, Name: ls.Name, Hidden: ls.Hidden}
		if err := r.Student.Upsert(ctx, st); err != nil {
			return fmt.Errorf("写入学生 %s 失败: %w", ls.ID, err)
		}
		entries, grades := im.convertCells(st.StudentID, ls.Assignments, rows)
		if err := r.Assignment.ReplaceByStudent(ctx, st.StudentID, entries); err != nil {
			return fmt.Errorf("写入学生 %s 作业失败: %w", ls.ID, err)
		}
		if err := r.Grade.ReplaceByStudent(ctx, st.StudentID, grades); err != nil {
			return fmt.Errorf("写入学生 %s 评分失败: %w", ls.ID, err)
		}
	}

	if deletedAt != nil {
		return r.Course.MarkDeleted(ctx, course.CourseID, *deletedAt)
	}
	return nil
}

// convertCells 超出领域数量的单元格丢弃；缺失颜色按 grey，缺失时间按导入时间；
// 评分经 ApplyGrade 一致化后写入
func (im *Importer) convertCells(studentID string, cells []legacyCell, areas []model.AssessmentArea) ([]model.Assignment, []model.Grade) {
	now := im.now()
	var entries []model.Assignment
	var grades []model.Grade

	for i, cell := range cells {
		if i >= len(areas) {
			break
		}
		areaID := areas[i].AreaID
		for _, level := range matrix.Levels {
			for pos, e := range cell.entries(level) {
				if strings.TrimSpace(e.Name) == "" {
					continue
				}
				color := matrix.Color(e.Color)
				if !color.Valid() {
					color = matrix.ColorGrey
				}
				entries = append(entries, model.Assignment{
					StudentID: studentID,
					AreaID:    areaID,
					Name:      e.Name,
					Level:     string(level),
					Color:     string(color),
					Position:  pos,
					CreatedAt: parseTime(e.CreatedAt, now),
				})
			}
		}

		// 按 E、C、A 顺序重放评分，得到满足等级约束的三元组
		var triple matrix.Grades
		for _, level := range matrix.Levels {
			g := cell.Grades[string(level)]
			if g == nil || *g == "" {
				continue
			}
			if err := matrix.ValidateGrade(level, matrix.Color(*g)); err != nil {
				im.logger.Warn("忽略非法评分",
					zap.String("student", studentID),
					zap.Int("area_index", i),
					zap.String("level", string(level)),
					zap.String("color", *g),
				)
				continue
			}
			triple, _ = matrix.ApplyGrade(triple, level, matrix.Color(*g))
		}
		for _, level := range matrix.Levels {
			if c := triple.Get(level); c != matrix.ColorNone {
				grades = append(grades, model.Grade{StudentID: studentID, AreaID: areaID, Level: string(level), Color: string(c), UpdatedAt: now})
			}
		}
	}
	return entries, grades
}

func (c legacyCell) entries(level matrix.Level) []legacyEntry {
	switch level {
	case matrix.LevelE:
		return c.E
	case matrix.LevelC:
		return c.C
	default:
		return c.A
	}
}

// ────────────────────── 应用设置 ──────────────────────

func (im *Importer) importSettings(ctx context.Context, path string) (int, error) {
	settings := map[string]json.RawMessage{}
	if err := readJSON(path, &settings); err != nil {
		return 0, err
	}
	for key, value := range settings {
		row := &model.AppSetting{Key: key, Value: datatypes.JSON(value), UpdatedAt: im.now()}
		if err := im.repo.AppSetting.Upsert(ctx, row); err != nil {
			return 0, fmt.Errorf("写入设置 %s 失败: %w", key, err)
		}
	}
	return len(settings), nil
}

// ── 内部辅助方法 ──

func (im *Importer) readDeletedAt(path string) time.Time {
	var info deletionInfo
	if err := readJSON(filepath.Join(path, ".deletion_info.json"), &info); err != nil {
		im.logger.Warn("读取删除信息失败，使用当前时间", zap.String("path", path), zap.Error(err))
	}
	return parseTime(info.DeletedAt, im.now())
}

// courseDirs 列出子目录；目录不存在时返回空
func courseDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取目录 %s 失败: %w", root, err)
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs, nil
}

// readJSON 文件不存在时保持 v 不变
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("解析 %s 失败: %w", filepath.Base(path), err)
	}
	return nil
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02"}

func parseTime(s string, fallback time.Time) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return fallback
}
