package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"assessment-matrix/backend/config"
	"assessment-matrix/backend/internal/api/handler"
	"assessment-matrix/backend/internal/api/middleware"
	"assessment-matrix/backend/pkg/jwt"
	"assessment-matrix/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎；rdb 可为 nil
func Setup(cfg *config.Config, h *handler.Handler, db *gorm.DB, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", healthCheck(db, rdb))

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		v1.POST("/auth/login", middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window), h.Auth.Login)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 应用设置
			settings := authorized.Group("/app-settings")
			{
				settings.GET("", h.Settings.Get)
				settings.POST("", h.Settings.Save)
				settings.DELETE("", h.Settings.Reset)
			}

			// 课程模块
			authorized.GET("/courses", h.Course.List)
			authorized.POST("/courses", h.Course.Create)
			authorized.GET("/deleted-courses", h.Course.ListDeleted)
			authorized.POST("/deleted-courses/:course/restore", h.Course.Restore)

			course := authorized.Group("/courses/:course")
			{
				course.PUT("", h.Course.Update)
				course.DELETE("", h.Course.Delete)

				// 评估领域
				course.GET("/areas", h.Area.List)
				course.POST("/areas", h.Area.Create)
				course.POST("/areas/reorder", h.Area.Reorder)
				course.PUT("/areas/:index", h.Area.Update)
				course.DELETE("/areas/:index", h.Area.Delete)

				// 学生
				course.GET("/students", h.Student.List)
				course.POST("/students", h.Student.Create)
				course.GET("/students/export", h.Student.Export)
				course.POST("/students/import", h.Student.Import)
				course.GET("/students/:id", h.Student.Get)
				course.PUT("/students/:id", h.Student.Rename)
				course.PUT("/students/:id/hidden", h.Student.SetHidden)
				course.DELETE("/students/:id", h.Student.Delete)
				course.GET("/deleted-students", h.Student.ListDeleted)
				course.POST("/deleted-students/:id/restore", h.Student.Restore)

				// 作业
				course.POST("/students/:id/assignments", h.Assignment.Add)
				course.PUT("/students/:id/assignments", h.Assignment.Edit)
				course.DELETE("/students/:id/assignments", h.Assignment.DeleteAll)
				course.GET("/students/:id/assignments/last", h.Assignment.Last)
				course.DELETE("/students/:id/assignments/last", h.Assignment.UndoLast)
				course.DELETE("/students/:id/assignments/:index/:level/:position", h.Assignment.Delete)
				course.POST("/assignments/bulk", h.Assignment.Bulk)

				// 评分
				course.PUT("/students/:id/grades", h.Grade.Set)
				course.POST("/students/:id/grades/batch", h.Grade.Batch)

				// 导出
				course.GET("/export/matrix", h.Export.ExportMatrix)
				course.GET("/export/calendar", h.Export.ExportCalendar)
			}
		}
	}

	return r
}

// healthCheck 检查数据库与 Redis（若启用）连通性
func healthCheck(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := gin.H{"status": "ok", "database": "ok"}
		code := http.StatusOK

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status["status"], status["database"] = "degraded", "unavailable"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(ctx); err != nil {
				status["status"], status["redis"] = "degraded", "unavailable"
				code = http.StatusServiceUnavailable
			}
		}

		c.JSON(code, status)
	}
}
