package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	gormlogger "gorm.io/gorm/logger"

	"assessment-matrix/backend/config"
)

// NewLogger 根据配置初始化 Zap 日志实例
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	switch cfg.Format {
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		zapCfg = zap.NewProductionConfig()
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}

	return logger.With(zap.String("app", "assessment-matrix")), nil
}

// gormWriter 将 GORM 日志转发到 Zap
type gormWriter struct {
	sugar *zap.SugaredLogger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.sugar.Infof(format, args...)
}

// NewGormLogger 创建写入 Zap 的 GORM 日志器，SQL 日志级别跟随应用日志级别
func NewGormLogger(logger *zap.Logger, level string) gormlogger.Interface {
	return gormlogger.New(gormWriter{sugar: logger.Named("gorm").Sugar()}, gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  GormLevel(level),
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// GormLevel 将应用日志级别映射为 GORM 日志级别：debug 输出全部 SQL，其余仅输出告警与错误
func GormLevel(level string) gormlogger.LogLevel {
	switch level {
	case "debug":
		return gormlogger.Info
	case "info", "warn":
		return gormlogger.Warn
	case "error":
		return gormlogger.Error
	default:
		return gormlogger.Silent
	}
}
