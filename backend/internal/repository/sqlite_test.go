package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
	pkgerrors "assessment-matrix/backend/pkg/errors"
)

// ═══════════════════════════════════════════════════════════
// Test Setup
// ═══════════════════════════════════════════════════════════

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedCourse(t *testing.T, repo *repository.Repository, name string) *model.Course {
	t.Helper()
	course := &model.Course{Name: name, DisplayName: name}
	require.NoError(t, repo.Course.Create(context.Background(), course))
	return course
}

// ═══════════════════════════════════════════════════════════
// Course
// ═══════════════════════════════════════════════════════════

func TestCourseRepo_SoftDeleteAndRestore(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "Math")
	assert.NotEmpty(t, course.CourseID)
	assert.Equal(t, 1, course.Version)

	require.NoError(t, repo.Course.Delete(ctx, course.CourseID))

	_, err := repo.Course.GetByName(ctx, "Math")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	unscoped, err := repo.Course.GetByNameUnscoped(ctx, "Math")
	require.NoError(t, err)
	assert.Equal(t, course.CourseID, unscoped.CourseID)

	deleted, err := repo.Course.ListDeleted(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.True(t, deleted[0].DeletedAt.Valid)

	require.NoError(t, repo.Course.Restore(ctx, course.CourseID, "Math 2", "Math 2"))
	restored, err := repo.Course.GetByName(ctx, "Math 2")
	require.NoError(t, err)
	assert.False(t, restored.DeletedAt.Valid)
}

func TestCourseRepo_OptimisticLock(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "Science")

	copy1, err := repo.Course.GetByName(ctx, "Science")
	require.NoError(t, err)
	copy2, err := repo.Course.GetByName(ctx, "Science")
	require.NoError(t, err)

	copy1.Color = "#ff0000"
	require.NoError(t, repo.Course.Update(ctx, copy1))
	assert.Equal(t, course.Version+1, copy1.Version)

	copy2.Color = "#00ff00"
	assert.ErrorIs(t, repo.Course.Update(ctx, copy2), pkgerrors.ErrOptimisticLock)
}

func TestCourseRepo_ListDeletedBeforeAndHardDelete(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewRepository(db)
	ctx := context.Background()
	old := seedCourse(t, repo, "Old")
	recent := seedCourse(t, repo, "Recent")

	longAgo := time.Now().UTC().AddDate(0, -7, 0)
	require.NoError(t, db.Unscoped().Model(&model.Course{}).
		Where("course_id = ?", old.CourseID).Update("deleted_at", longAgo).Error)
	require.NoError(t, repo.Course.Delete(ctx, recent.CourseID))

	expired, err := repo.Course.ListDeletedBefore(ctx, time.Now().UTC().AddDate(0, -6, 0))
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, old.CourseID, expired[0].CourseID)

	require.NoError(t, repo.Course.HardDelete(ctx, old.CourseID))
	_, err = repo.Course.GetByNameUnscoped(ctx, "Old")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// ═══════════════════════════════════════════════════════════
// Area
// ═══════════════════════════════════════════════════════════

func TestAreaRepo_ReplaceForCourse(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "Art")

	areas := []model.AssessmentArea{
		{AreaID: "a-1", Name: "Drawing"},
		{AreaID: "a-2", Name: "Painting"},
		{AreaID: "a-3", Name: "Sculpture"},
	}
	require.NoError(t, repo.Area.ReplaceForCourse(ctx, course.CourseID, areas))

	reordered := []model.AssessmentArea{areas[2], areas[0]}
	require.NoError(t, repo.Area.ReplaceForCourse(ctx, course.CourseID, reordered))

	got, err := repo.Area.ListByCourse(ctx, course.CourseID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Sculpture", got[0].Name)
	assert.Equal(t, 0, got[0].SortOrder)
	assert.Equal(t, "Drawing", got[1].Name)
	assert.Equal(t, 1, got[1].SortOrder)

	require.NoError(t, repo.Area.ReplaceForCourse(ctx, course.CourseID, nil))
	got, err = repo.Area.ListByCourse(ctx, course.CourseID)
	require.NoError(t, err)
	assert.Empty(t, got)
}

// ═══════════════════════════════════════════════════════════
// Student
// ═══════════════════════════════════════════════════════════

func TestStudentRepo_ListAndHidden(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "History")

	require.NoError(t, repo.Student.Create(ctx, &model.Student{CourseID: course.CourseID, Name: "bob"}))
	require.NoError(t, repo.Student.Create(ctx, &model.Student{CourseID: course.CourseID, Name: "Alice"}))
	require.NoError(t, repo.Student.Create(ctx, &model.Student{CourseID: course.CourseID, Name: "Carl", Hidden: true}))

	visible, err := repo.Student.ListByCourse(ctx, course.CourseID, false)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "Alice", visible[0].Name)
	assert.Equal(t, "bob", visible[1].Name)

	all, err := repo.Student.ListByCourse(ctx, course.CourseID, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	n, err := repo.Student.CountByCourse(ctx, course.CourseID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestStudentRepo_UpsertRestoresDeleted(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "Music")

	require.NoError(t, repo.Student.Create(ctx, &model.Student{StudentID: "s-1", CourseID: course.CourseID, Name: "Ana"}))
	require.NoError(t, repo.Student.Delete(ctx, "s-1"))

	deleted, err := repo.Student.ListDeleted(ctx, course.CourseID)
	require.NoError(t, err)
	require.Len(t, deleted, 1)

	require.NoError(t, repo.Student.Upsert(ctx, &model.Student{StudentID: "s-1", CourseID: course.CourseID, Name: "Ana B", Hidden: true}))

	got, err := repo.Student.GetByID(ctx, course.CourseID, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "Ana B", got.Name)
	assert.True(t, got.Hidden)
}

func TestStudentRepo_RestoreAndHardDelete(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	course := seedCourse(t, repo, "Drama")

	require.NoError(t, repo.Student.Create(ctx, &model.Student{StudentID: "s-9", CourseID: course.CourseID, Name: "Eve"}))
	require.NoError(t, repo.Student.Delete(ctx, "s-9"))

	_, err := repo.Student.GetDeletedByID(ctx, course.CourseID, "s-9")
	require.NoError(t, err)
	require.NoError(t, repo.Student.Restore(ctx, "s-9"))
	_, err = repo.Student.GetByID(ctx, course.CourseID, "s-9")
	require.NoError(t, err)

	ids, err := repo.Student.ListIDsByCourseUnscoped(ctx, course.CourseID)
	require.NoError(t, err)
	assert.Equal(t, []string{"s-9"}, ids)

	require.NoError(t, repo.Student.HardDelete(ctx, ids))
	_, err = repo.Student.GetByID(ctx, course.CourseID, "s-9")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

// ═══════════════════════════════════════════════════════════
// Assignment & Grade
// ═══════════════════════════════════════════════════════════

func TestAssignmentRepo_ReplaceByStudent(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()
	ts := time.Date(2025, 8, 5, 10, 0, 0, 0, time.UTC)

	first := []model.Assignment{
		{AreaID: "a-1", Name: "Quiz1", Level: "E", Color: "green", Position: 0, CreatedAt: ts},
		{AreaID: "a-1", Name: "Quiz0", Level: "E", Color: "red", Position: 1, CreatedAt: ts.Add(-time.Hour)},
	}
	require.NoError(t, repo.Assignment.ReplaceByStudent(ctx, "s-1", first))

	second := []model.Assignment{
		{AreaID: "a-2", Name: "Essay", Level: "C", Color: "yellow", Position: 0, CreatedAt: ts},
	}
	require.NoError(t, repo.Assignment.ReplaceByStudent(ctx, "s-1", second))

	rows, err := repo.Assignment.ListByStudents(ctx, []string{"s-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Essay", rows[0].Name)
	assert.True(t, rows[0].CreatedAt.Equal(ts))

	require.NoError(t, repo.Assignment.DeleteByStudents(ctx, []string{"s-1"}))
	rows, err = repo.Assignment.ListByStudents(ctx, []string{"s-1"})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGradeRepo_UpsertAndClear(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Grade.Upsert(ctx, &model.Grade{StudentID: "s-1", AreaID: "a-1", Level: "E", Color: "yellow"}))
	require.NoError(t, repo.Grade.Upsert(ctx, &model.Grade{StudentID: "s-1", AreaID: "a-1", Level: "E", Color: "green"}))
	require.NoError(t, repo.Grade.Upsert(ctx, &model.Grade{StudentID: "s-1", AreaID: "a-1", Level: "C", Color: "green"}))

	rows, err := repo.Grade.ListByStudents(ctx, []string{"s-1"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.Grade.Clear(ctx, "s-1", "a-1", "C"))
	rows, err = repo.Grade.ListByStudents(ctx, []string{"s-1"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "green", rows[0].Color)
}

// ═══════════════════════════════════════════════════════════
// AppSetting
// ═══════════════════════════════════════════════════════════

func TestAppSettingRepo(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.AppSetting.Upsert(ctx, &model.AppSetting{Key: "theme", Value: datatypes.JSON(`"dark"`)}))
	require.NoError(t, repo.AppSetting.Upsert(ctx, &model.AppSetting{Key: "theme", Value: datatypes.JSON(`"light"`)}))

	settings, err := repo.AppSetting.List(ctx)
	require.NoError(t, err)
	require.Len(t, settings, 1)
	assert.JSONEq(t, `"light"`, string(settings[0].Value))

	require.NoError(t, repo.AppSetting.DeleteAll(ctx))
	settings, err = repo.AppSetting.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, settings)
}

// ═══════════════════════════════════════════════════════════
// Transaction
// ═══════════════════════════════════════════════════════════

func TestTransaction_RollbackAndCommit(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()

	tx, err := repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.WithTx(tx).Course.Create(ctx, &model.Course{Name: "Rolled", DisplayName: "Rolled"}))
	require.NoError(t, tx.Rollback().Error)

	_, err = repo.Course.GetByName(ctx, "Rolled")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	tx, err = repo.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, repo.WithTx(tx).Course.Create(ctx, &model.Course{Name: "Kept", DisplayName: "Kept"}))
	require.NoError(t, tx.Commit().Error)

	_, err = repo.Course.GetByName(ctx, "Kept")
	assert.NoError(t, err)
}

func TestRepository_NilDB(t *testing.T) {
	repo := &repository.Repository{}
	tx, err := repo.BeginTx(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, tx)
	assert.Same(t, repo, repo.WithTx(nil))
}

func TestRepository_Transaction(t *testing.T) {
	repo := repository.NewRepository(newTestDB(t))
	ctx := context.Background()

	err := repo.Transaction(ctx, func(r *repository.Repository) error {
		require.NoError(t, r.Course.Create(ctx, &model.Course{Name: "Failed", DisplayName: "Failed"}))
		return errors.New("中途失败")
	})
	assert.EqualError(t, err, "中途失败")
	_, err = repo.Course.GetByName(ctx, "Failed")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.PanicsWithValue(t, "崩溃", func() {
		_ = repo.Transaction(ctx, func(r *repository.Repository) error {
			require.NoError(t, r.Course.Create(ctx, &model.Course{Name: "Panicked", DisplayName: "Panicked"}))
			panic("崩溃")
		})
	})
	_, err = repo.Course.GetByName(ctx, "Panicked")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound, "panic 后应回滚并释放连接")

	require.NoError(t, repo.Transaction(ctx, func(r *repository.Repository) error {
		return r.Course.Create(ctx, &model.Course{Name: "Committed", DisplayName: "Committed"})
	}))
	_, err = repo.Course.GetByName(ctx, "Committed")
	assert.NoError(t, err)
}

func TestRepository_Transaction_NilDB(t *testing.T) {
	repo := &repository.Repository{}
	var got *repository.Repository
	require.NoError(t, repo.Transaction(context.Background(), func(r *repository.Repository) error {
		got = r
		return nil
	}))
	assert.Same(t, repo, got)
}
