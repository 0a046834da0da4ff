package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"assessment-matrix/backend/internal/model"
	"assessment-matrix/backend/internal/repository"
)

// SettingsService 应用设置业务接口（键 → 任意 JSON 值）
type SettingsService interface {
	Get(ctx context.Context) (map[string]json.RawMessage, error)
	Save(ctx context.Context, settings map[string]json.RawMessage) error
	Reset(ctx context.Context) error
}

type settingsService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewSettingsService 创建 SettingsService 实例
func NewSettingsService(repo *repository.Repository, logger *zap.Logger) SettingsService {
	return &settingsService{repo: repo, logger: logger}
}

// ────────────────────── Get ──────────────────────

func (s *settingsService) Get(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.repo.AppSetting.List(ctx)
	if err != nil {
		s.logger.Error("查询应用设置失败", zap.Error(err))
		return nil, err
	}

	result := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		result[row.Key] = json.RawMessage(row.Value)
	}
	return result, nil
}

// ────────────────────── Save ──────────────────────

// Save 逐键覆盖写入，未出现的键保持不变
func (s *settingsService) Save(ctx context.Context, settings map[string]json.RawMessage) error {
	now := nowFunc()
	return runInTx(ctx, s.repo, s.logger, func(r *repository.Repository) error {
		for key, value := range settings {
			if err := r.AppSetting.Upsert(ctx, &model.AppSetting{
				Key:       key,
				Value:     datatypes.JSON(value),
				UpdatedAt: now,
			}); err != nil {
				s.logger.Error("保存应用设置失败", zap.String("key", key), zap.Error(err))
				return err
			}
		}
		return nil
	})
}

// ────────────────────── Reset ──────────────────────

func (s *settingsService) Reset(ctx context.Context) error {
	if err := s.repo.AppSetting.DeleteAll(ctx); err != nil {
		s.logger.Error("重置应用设置失败", zap.Error(err))
		return err
	}
	return nil
}
