package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Course     CourseRepository
	Area       AreaRepository
	Student    StudentRepository
	Assignment AssignmentRepository
	Grade      GradeRepository
	AppSetting AppSettingRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:         db,
		Course:     NewCourseRepo(db),
		Area:       NewAreaRepo(db),
		Student:    NewStudentRepo(db),
		Assignment: NewAssignmentRepo(db),
		Grade:      NewGradeRepo(db),
		AppSetting: NewAppSettingRepo(db),
	}
}

// BeginTx 开启事务。未绑定数据库（单元测试中的 mock 聚合）时返回 nil 事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return tx, nil
}

// WithTx 返回绑定到事务的 Repository 聚合；tx 为 nil 时返回自身
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Transaction 在事务内执行 fn：fn 返回错误或 panic 时回滚，否则提交。
// 未绑定数据库时 fn 直接作用于自身
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(p)
		}
	}()

	if err := fn(r.WithTx(tx)); err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}
	if tx != nil {
		return tx.Commit().Error
	}
	return nil
}
