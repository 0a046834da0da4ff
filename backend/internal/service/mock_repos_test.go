package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
	pkgerrors "assessment-matrix/backend/pkg/errors"
)

// ── Mock 聚合 ──

type mockRepos struct {
	course     *mockCourseRepo
	area       *mockAreaRepo
	student    *mockStudentRepo
	assignment *mockAssignmentRepo
	grade      *mockGradeRepo
	setting    *mockAppSettingRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	m := &mockRepos{
		course:     newMockCourseRepo(),
		area:       newMockAreaRepo(),
		student:    newMockStudentRepo(),
		assignment: newMockAssignmentRepo(),
		grade:      newMockGradeRepo(),
		setting:    newMockAppSettingRepo(),
	}
	repo := &repository.Repository{
		Course:     m.course,
		Area:       m.area,
		Student:    m.student,
		Assignment: m.assignment,
		Grade:      m.grade,
		AppSetting: m.setting,
	}
	return repo, m
}

// ── Mock CourseRepository ──

type mockCourseRepo struct {
	courses map[string]*model.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]*model.Course)}
}

func (m *mockCourseRepo) find(name string, deleted *bool) *model.Course {
	for _, c := range m.courses {
		if c.Name != name {
			continue
		}
		if deleted != nil && c.DeletedAt.Valid != *deleted {
			continue
		}
		return c
	}
	return nil
}

func (m *mockCourseRepo) Create(_ context.Context, course *model.Course) error {
	if m.find(course.Name, nil) != nil {
		return gorm.ErrDuplicatedKey
	}
	if course.CourseID == "" {
		course.CourseID = "course-" + course.Name
	}
	if course.Version == 0 {
		course.Version = 1
	}
	c := *course
	m.courses[c.CourseID] = &c
	return nil
}

func (m *mockCourseRepo) GetByName(_ context.Context, name string) (*model.Course, error) {
	active := false
	if c := m.find(name, &active); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetByNameUnscoped(_ context.Context, name string) (*model.Course, error) {
	if c := m.find(name, nil); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) GetDeletedByName(_ context.Context, name string) (*model.Course, error) {
	deleted := true
	if c := m.find(name, &deleted); c != nil {
		cp := *c
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockCourseRepo) list(deleted bool) []model.Course {
	var result []model.Course
	for _, c := range m.courses {
		if c.DeletedAt.Valid == deleted {
			result = append(result, *c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

func (m *mockCourseRepo) List(_ context.Context) ([]model.Course, error) {
	return m.list(false), nil
}

func (m *mockCourseRepo) ListDeleted(_ context.Context) ([]model.Course, error) {
	return m.list(true), nil
}

func (m *mockCourseRepo) Update(_ context.Context, course *model.Course) error {
	stored, ok := m.courses[course.CourseID]
	if !ok || stored.DeletedAt.Valid || stored.Version != course.Version {
		return pkgerrors.ErrOptimisticLock
	}
	stored.Name = course.Name
	stored.DisplayName = course.DisplayName
	stored.Color = course.Color
	stored.Version++
	course.Version = stored.Version
	return nil
}

func (m *mockCourseRepo) Delete(_ context.Context, id string) error {
	if c, ok := m.courses[id]; ok {
		c.DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
	}
	return nil
}

func (m *mockCourseRepo) MarkDeleted(_ context.Context, id string, at time.Time) error {
	if c, ok := m.courses[id]; ok {
		c.DeletedAt = gorm.DeletedAt{Time: at, Valid: true}
	}
	return nil
}

func (m *mockCourseRepo) Restore(_ context.Context, id, name, displayName string) error {
	c, ok := m.courses[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	c.Name = name
	c.DisplayName = displayName
	c.DeletedAt = gorm.DeletedAt{}
	return nil
}

func (m *mockCourseRepo) ListDeletedBefore(_ context.Context, cutoff time.Time) ([]model.Course, error) {
	var result []model.Course
	for _, c := range m.courses {
		if c.DeletedAt.Valid && c.DeletedAt.Time.Before(cutoff) {
			result = append(result, *c)
		}
	}
	return result, nil
}

func (m *mockCourseRepo) HardDelete(_ context.Context, id string) error {
	delete(m.courses, id)
	return nil
}

// ── Mock AreaRepository ──

type mockAreaRepo struct {
	areas map[string][]model.AssessmentArea
}

func newMockAreaRepo() *mockAreaRepo {
	return &mockAreaRepo{areas: make(map[string][]model.AssessmentArea)}
}

func (m *mockAreaRepo) ListByCourse(_ context.Context, courseID string) ([]model.AssessmentArea, error) {
	return append([]model.AssessmentArea(nil), m.areas[courseID]...), nil
}

func (m *mockAreaRepo) ReplaceForCourse(_ context.Context, courseID string, areas []model.AssessmentArea) error {
	rows := make([]model.AssessmentArea, len(areas))
	for i, a := range areas {
		a.CourseID = courseID
		a.SortOrder = i
		rows[i] = a
	}
	m.areas[courseID] = rows
	return nil
}

func (m *mockAreaRepo) DeleteByCourse(_ context.Context, courseID string) error {
	delete(m.areas, courseID)
	return nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	if student.StudentID == "" {
		student.StudentID = "stu-" + student.Name
	}
	if _, ok := m.students[student.StudentID]; ok {
		return gorm.ErrDuplicatedKey
	}
	s := *student
	m.students[s.StudentID] = &s
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, courseID, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok && s.CourseID == courseID && !s.DeletedAt.Valid {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetDeletedByID(_ context.Context, courseID, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok && s.CourseID == courseID && s.DeletedAt.Valid {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) filter(fn func(s *model.Student) bool) []model.Student {
	var result []model.Student
	for _, s := range m.students {
		if fn(s) {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		a, b := strings.ToLower(result[i].Name), strings.ToLower(result[j].Name)
		if a != b {
			return a < b
		}
		return result[i].StudentID < result[j].StudentID
	})
	return result
}

func (m *mockStudentRepo) ListByCourse(_ context.Context, courseID string, includeHidden bool) ([]model.Student, error) {
	return m.filter(func(s *model.Student) bool {
		return s.CourseID == courseID && !s.DeletedAt.Valid && (includeHidden || !s.Hidden)
	}), nil
}

func (m *mockStudentRepo) ListDeleted(_ context.Context, courseID string) ([]model.Student, error) {
	return m.filter(func(s *model.Student) bool {
		return s.CourseID == courseID && s.DeletedAt.Valid
	}), nil
}

func (m *mockStudentRepo) CountByCourse(_ context.Context, courseID string) (int64, error) {
	var n int64
	for _, s := range m.students {
		if s.CourseID == courseID && !s.DeletedAt.Valid {
			n++
		}
	}
	return n, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	s, ok := m.students[student.StudentID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	s.Name = student.Name
	s.Hidden = student.Hidden
	return nil
}

func (m *mockStudentRepo) Upsert(_ context.Context, student *model.Student) error {
	s := *student
	s.DeletedAt = gorm.DeletedAt{}
	m.students[s.StudentID] = &s
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) error {
	if s, ok := m.students[id]; ok {
		s.DeletedAt = gorm.DeletedAt{Time: time.Now().UTC(), Valid: true}
	}
	return nil
}

func (m *mockStudentRepo) Restore(_ context.Context, id string) error {
	if s, ok := m.students[id]; ok {
		s.DeletedAt = gorm.DeletedAt{}
	}
	return nil
}

func (m *mockStudentRepo) ListIDsByCourseUnscoped(_ context.Context, courseID string) ([]string, error) {
	var ids []string
	for _, s := range m.filter(func(s *model.Student) bool { return s.CourseID == courseID }) {
		ids = append(ids, s.StudentID)
	}
	return ids, nil
}

func (m *mockStudentRepo) ListDeletedBefore(_ context.Context, cutoff time.Time) ([]model.Student, error) {
	return m.filter(func(s *model.Student) bool {
		return s.DeletedAt.Valid && s.DeletedAt.Time.Before(cutoff)
	}), nil
}

func (m *mockStudentRepo) HardDelete(_ context.Context, ids []string) error {
	for _, id := range ids {
		delete(m.students, id)
	}
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	rows map[string][]model.Assignment
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{rows: make(map[string][]model.Assignment)}
}

func (m *mockAssignmentRepo) ListByStudents(_ context.Context, studentIDs []string) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, id := range studentIDs {
		result = append(result, m.rows[id]...)
	}
	return result, nil
}

func (m *mockAssignmentRepo) ReplaceByStudent(_ context.Context, studentID string, rows []model.Assignment) error {
	if len(rows) == 0 {
		delete(m.rows, studentID)
		return nil
	}
	m.rows[studentID] = append([]model.Assignment(nil), rows...)
	return nil
}

func (m *mockAssignmentRepo) DeleteByStudents(_ context.Context, studentIDs []string) error {
	for _, id := range studentIDs {
		delete(m.rows, id)
	}
	return nil
}

// ── Mock GradeRepository ──

type mockGradeRepo struct {
	grades map[string]model.Grade
}

func newMockGradeRepo() *mockGradeRepo {
	return &mockGradeRepo{grades: make(map[string]model.Grade)}
}

func gradeKey(studentID, areaID, level string) string {
	return studentID + "|" + areaID + "|" + level
}

func (m *mockGradeRepo) ListByStudents(_ context.Context, studentIDs []string) ([]model.Grade, error) {
	want := make(map[string]bool, len(studentIDs))
	for _, id := range studentIDs {
		want[id] = true
	}
	var result []model.Grade
	for _, g := range m.grades {
		if want[g.StudentID] {
			result = append(result, g)
		}
	}
	return result, nil
}

func (m *mockGradeRepo) Upsert(_ context.Context, grade *model.Grade) error {
	m.grades[gradeKey(grade.StudentID, grade.AreaID, grade.Level)] = *grade
	return nil
}

func (m *mockGradeRepo) Clear(_ context.Context, studentID, areaID, level string) error {
	delete(m.grades, gradeKey(studentID, areaID, level))
	return nil
}

func (m *mockGradeRepo) ReplaceByStudent(ctx context.Context, studentID string, rows []model.Grade) error {
	_ = m.DeleteByStudents(ctx, []string{studentID})
	for i := range rows {
		_ = m.Upsert(ctx, &rows[i])
	}
	return nil
}

func (m *mockGradeRepo) DeleteByStudents(_ context.Context, studentIDs []string) error {
	for _, id := range studentIDs {
		for k, g := range m.grades {
			if g.StudentID == id {
				delete(m.grades, k)
			}
		}
	}
	return nil
}

// ── Mock AppSettingRepository ──

type mockAppSettingRepo struct {
	settings map[string]model.AppSetting
}

func newMockAppSettingRepo() *mockAppSettingRepo {
	return &mockAppSettingRepo{settings: make(map[string]model.AppSetting)}
}

func (m *mockAppSettingRepo) List(_ context.Context) ([]model.AppSetting, error) {
	result := make([]model.AppSetting, 0, len(m.settings))
	for _, s := range m.settings {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (m *mockAppSettingRepo) Upsert(_ context.Context, setting *model.AppSetting) error {
	m.settings[setting.Key] = *setting
	return nil
}

func (m *mockAppSettingRepo) DeleteAll(_ context.Context) error {
	m.settings = make(map[string]model.AppSetting)
	return nil
}

// ── 测试数据 ──

// seedCourse 创建课程与按顺序排列的评估领域，领域 ID 为 "area-<名称>"
func seedCourse(m *mockRepos, name string, areaNames ...string) *model.Course {
	c := &model.Course{CourseID: "course-" + name, Name: name, DisplayName: name}
	_ = m.course.Create(context.Background(), c)
	rows := make([]model.AssessmentArea, len(areaNames))
	for i, n := range areaNames {
		rows[i] = model.AssessmentArea{AreaID: "area-" + n, Name: n}
	}
	_ = m.area.ReplaceForCourse(context.Background(), c.CourseID, rows)
	return c
}

func seedStudent(m *mockRepos, courseID, id, name string, hidden bool) {
	_ = m.student.Create(context.Background(), &model.Student{
		StudentID: id,
		CourseID:  courseID,
		Name:      name,
		Hidden:    hidden,
	})
}
