package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/api/handler"
	"assessment-matrix/backend/internal/api/router"
	"assessment-matrix/backend/internal/api/validator"
	"assessment-matrix/backend/internal/job"
	"assessment-matrix/backend/internal/repository"
	"assessment-matrix/backend/internal/service"
	"assessment-matrix/backend/pkg/database"
	"assessment-matrix/backend/pkg/jwt"
	applogger "assessment-matrix/backend/pkg/logger"
	"assessment-matrix/backend/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	if err := database.Migrate(db, cfg.Database.Driver, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单与登录限流将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 5. 初始化 JWT 管理器与请求校验
	jwtMgr := jwt.NewManager(&cfg.Auth)
	if err := validator.Setup(); err != nil {
		logger.Fatal("注册请求校验规则失败", zap.Error(err))
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, logger)
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := router.Setup(cfg, h, db, jwtMgr, rdb, logger)

	// 8. 保留期清理任务
	var retentionJob *job.RetentionJob
	if cfg.Retention.Enabled {
		retentionJob, err = job.NewRetentionJob(cfg.Retention.SweepCron, svc.Retention, logger)
		if err != nil {
			logger.Fatal("注册保留期清理任务失败", zap.Error(err), zap.String("cron", cfg.Retention.SweepCron))
		}
		retentionJob.Start()
	}

	// 9. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}
	if retentionJob != nil {
		retentionJob.Stop(ctx)
	}

	// 关闭数据库连接
	if sqlDB, _ := db.DB(); sqlDB != nil {
		sqlDB.Close()
	}

	// 关闭 Redis 连接
	if rdb != nil {
		rdb.Close()
	}

	logger.Info("服务器已关闭")
}
