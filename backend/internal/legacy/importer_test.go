package legacy

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
)

// ── 测试辅助 ──

func newTestRepo(t *testing.T) *repository.Repository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	return repository.NewRepository(db)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const studentsJSON = `[
  {
    "id": "s1",
    "name": "Ann",
    "hidden": true,
    "assignments": [
      {
        "E": [
          {"name": "Quiz 2", "color": "green", "createdAt": "2025-03-02T10:00:00.000Z"},
          {"name": "Quiz 1"}
        ],
        "C": [],
        "A": [],
        "grades": {"E": "yellow", "C": "grey", "A": null}
      },
      {"E": [], "C": [{"name": "Essay", "color": "red", "createdAt": "2025-03-01T09:00:00.000Z"}], "A": [], "grades": {}},
      {"E": [{"name": "Extra cell"}], "C": [], "A": [], "grades": {}}
    ]
  }
]`

func newLegacyDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	math := filepath.Join(dir, "courses", "Math")
	writeFile(t, filepath.Join(math, "course_meta.json"), `{"displayName": "数学", "color": "#ff0000"}`)
	writeFile(t, filepath.Join(math, "assessmentAreas.json"), `[{"name": "Algebra", "description": "eq"}, {"name": "Geometry"}]`)
	writeFile(t, filepath.Join(math, "students.json"), studentsJSON)

	old := filepath.Join(dir, "deleted_courses", "History")
	writeFile(t, filepath.Join(old, "assessmentAreas.json"), `[]`)
	writeFile(t, filepath.Join(old, ".deletion_info.json"), `{"deletedAt": "2025-01-15 08:30:00"}`)

	writeFile(t, filepath.Join(dir, "app_settings.json"), `{"theme": "dark", "columns": [1, 2]}`)
	return dir
}

// ── ImportDir ──

func TestImportDir(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	im := NewImporter(repo, zap.NewNop())
	importedAt := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	im.now = func() time.Time { return importedAt }

	result, err := im.ImportDir(ctx, newLegacyDir(t))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Math", "History"}, result.Courses)
	assert.Empty(t, result.Skipped)
	assert.Equal(t, 1, result.Students)
	assert.Equal(t, 2, result.Settings)

	// 课程元数据
	math, err := repo.Course.GetByName(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, "数学", math.DisplayName)
	assert.Equal(t, "#ff0000", math.Color)

	// 已删除课程保留原删除时间，默认展示名为目录名
	history, err := repo.Course.GetDeletedByName(ctx, "History")
	require.NoError(t, err)
	assert.Equal(t, "History", history.DisplayName)
	assert.True(t, history.DeletedAt.Time.Equal(time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)))

	// 领域顺序
	areas, err := repo.Area.ListByCourse(ctx, math.CourseID)
	require.NoError(t, err)
	require.Len(t, areas, 2)
	assert.Equal(t, "Algebra", areas[0].Name)
	assert.Equal(t, "eq", areas[0].Description)
	assert.Equal(t, "Geometry", areas[1].Name)

	// 学生
	st, err := repo.Student.GetByID(ctx, math.CourseID, "s1")
	require.NoError(t, err)
	assert.True(t, st.Hidden)

	// 作业：超出领域数量的单元格被丢弃；缺失颜色为 grey、缺失时间为导入时间
	rows, err := repo.Assignment.ListByStudents(ctx, []string{"s1"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	byName := map[string]model.Assignment{}
	for _, r := range rows {
		byName[r.Name] = r
	}
	assert.Equal(t, 0, byName["Quiz 2"].Position)
	assert.Equal(t, 1, byName["Quiz 1"].Position)
	assert.Equal(t, "grey", byName["Quiz 1"].Color)
	assert.True(t, byName["Quiz 1"].CreatedAt.Equal(importedAt))
	assert.Equal(t, areas[1].AreaID, byName["Essay"].AreaID)
	assert.Equal(t, "C", byName["Essay"].Level)

	// 评分：C=grey 非法被忽略，A=null 无记录
	grades, err := repo.Grade.ListByStudents(ctx, []string{"s1"})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "E", grades[0].Level)
	assert.Equal(t, "yellow", grades[0].Color)

	// 应用设置
	settings, err := repo.AppSetting.List(ctx)
	require.NoError(t, err)
	assert.Len(t, settings, 2)
}

func TestImportDir_SkipsExistingCourse(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Course.Create(ctx, &model.Course{Name: "Math", DisplayName: "Math"}))

	result, err := NewImporter(repo, zap.NewNop()).ImportDir(ctx, newLegacyDir(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Math"}, result.Skipped)
	assert.Equal(t, []string{"History"}, result.Courses)
	assert.Equal(t, 0, result.Students)
}

func TestImportDir_EmptyDir(t *testing.T) {
	result, err := NewImporter(newTestRepo(t), zap.NewNop()).ImportDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, result.Courses)
	assert.Zero(t, result.Settings)
}

func TestImportCourse_BadJSON(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "Broken")
	writeFile(t, filepath.Join(dir, "students.json"), `{not json`)

	_, err := NewImporter(repo, zap.NewNop()).ImportCourse(ctx, dir, nil)
	require.Error(t, err)

	_, err = repo.Course.GetByNameUnscoped(ctx, "Broken")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestImportCourse_NormalizesGrades(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "Physics")
	writeFile(t, filepath.Join(dir, "assessmentAreas.json"), `[{"name": "Forces"}, {"name": "Energy"}]`)
	writeFile(t, filepath.Join(dir, "students.json"), `[
  {"id": "p1", "name": "Cid", "assignments": [
    {"E": [], "C": [], "A": [], "grades": {"E": null, "C": "green", "A": "green"}},
    {"E": [], "C": [], "A": [], "grades": {"E": "red", "C": "green"}}
  ]}
]`)

	_, err := NewImporter(repo, zap.NewNop()).ImportCourse(ctx, dir, nil)
	require.NoError(t, err)

	course, err := repo.Course.GetByName(ctx, "Physics")
	require.NoError(t, err)
	areas, err := repo.Area.ListByCourse(ctx, course.CourseID)
	require.NoError(t, err)
	require.Len(t, areas, 2)

	grades, err := repo.Grade.ListByStudents(ctx, []string{"p1"})
	require.NoError(t, err)
	got := map[string]map[string]string{}
	for _, g := range grades {
		if got[g.AreaID] == nil {
			got[g.AreaID] = map[string]string{}
		}
		got[g.AreaID][g.Level] = g.Color
	}

	// 缺少 E 的 C/A 评分会抬升 E，而不是留下无基础的高等级
	assert.Equal(t, map[string]string{"E": "green", "C": "green", "A": "green"}, got[areas[0].AreaID])
	// C 不能强于 E
	assert.Equal(t, map[string]string{"E": "green", "C": "green"}, got[areas[1].AreaID])
}

func TestParseTime(t *testing.T) {
	fallback := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, time.Date(2025, 3, 2, 10, 0, 0, 0, time.UTC), parseTime("2025-03-02T10:00:00.000Z", fallback))
	assert.Equal(t, time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC), parseTime("2025-01-15 08:30:00", fallback))
	assert.Equal(t, fallback, parseTime("", fallback))
	assert.Equal(t, fallback, parseTime("yesterday", fallback))
}
