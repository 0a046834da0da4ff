package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"assessment-matrix/backend/internal/model"
)

// AppSettingRepository 应用设置数据访问接口
type AppSettingRepository interface {
	List(ctx context.Context) ([]model.AppSetting, error)
	Upsert(ctx context.Context, setting *model.AppSetting) error
	DeleteAll(ctx context.Context) error
}

type appSettingRepo struct {
	db *gorm.DB
}

// NewAppSettingRepo 创建 AppSettingRepository 实例
func NewAppSettingRepo(db *gorm.DB) AppSettingRepository {
	return &appSettingRepo{db: db}
}

func (r *appSettingRepo) List(ctx context.Context) ([]model.AppSetting, error) {
	var settings []model.AppSetting
	err := r.db.WithContext(ctx).Order("key ASC").Find(&settings).Error
	return settings, err
}

func (r *appSettingRepo) Upsert(ctx context.Context, setting *model.AppSetting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
}

func (r *appSettingRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&model.AppSetting{}).Error
}
