// legacy-import 将旧版 JSON 数据目录导入到当前配置的数据库。
//
//	legacy-import -dir ./data [-config ./config/config.yaml]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/legacy"
	"assessment-matrix/backend/internal/repository"
	"assessment-matrix/backend/pkg/database"
	applogger "assessment-matrix/backend/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	dir := flag.String("dir", "data", "旧版数据目录（包含 courses/ 子目录）")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if sqlDB, _ := db.DB(); sqlDB != nil {
			sqlDB.Close()
		}
	}()
	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	importer := legacy.NewImporter(repository.NewRepository(db), logger)
	result, err := importer.ImportDir(ctx, *dir)
	if err != nil {
		logger.Error("导入失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("导入完成",
		zap.Strings("courses", result.Courses),
		zap.Strings("skipped", result.Skipped),
		zap.Int("students", result.Students),
		zap.Int("settings", result.Settings),
	)
}
