package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"assessment-matrix/backend/internal/api/validator"
	"assessment-matrix/backend/internal/matrix"
	"assessment-matrix/backend/internal/service"
	pkgerrors "assessment-matrix/backend/pkg/errors"
	"assessment-matrix/backend/pkg/response"
)

// MustGetUsername 从 Gin 上下文中安全提取 username。
// 如果 JWT 中间件未正确注入，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUsername(c *gin.Context) (string, bool) {
	v, exists := c.Get("username")
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetToken 提取当前 Access Token 的 jti 与过期时间（登出使用）
func MustGetToken(c *gin.Context) (string, time.Time, bool) {
	jti, _ := c.Get("token_jti")
	exp, _ := c.Get("token_exp")
	s, ok1 := jti.(string)
	t, ok2 := exp.(time.Time)
	if !ok1 || !ok2 || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", time.Time{}, false
	}
	return s, t, true
}

// bindJSON 绑定并校验请求体；失败时写入 400 并返回 false
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", validator.Translate(err))
		return false
	}
	return true
}

// pathInt 解析非负整数路径参数
func pathInt(c *gin.Context, name string) (int, bool) {
	v, err := strconv.Atoi(c.Param(name))
	if err != nil || v < 0 {
		response.BadRequest(c, 12002, "评估领域索引无效")
		return 0, false
	}
	return v, true
}

// handleCommonError 处理各模块共享的错误
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseNotFound):
		response.NotFound(c, 11001, "课程不存在")
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 13001, "学生不存在")
	case errors.Is(err, matrix.ErrInvalidIndex):
		response.BadRequest(c, 12002, "评估领域索引无效")
	case errors.Is(err, matrix.ErrInvalidPath):
		response.BadRequest(c, 13002, "作业路径无效")
	case errors.Is(err, matrix.ErrEmptyName):
		response.BadRequest(c, 10006, "名称不能为空")
	case errors.Is(err, service.ErrNameTooLong):
		response.BadRequest(c, 10006, "名称过长")
	case errors.Is(err, service.ErrDescriptionTooLong):
		response.BadRequest(c, 10006, "描述过长")
	case errors.Is(err, matrix.ErrInvalidLevel):
		response.BadRequest(c, 14001, "熟练度等级无效")
	case errors.Is(err, matrix.ErrInvalidColor):
		response.BadRequest(c, 14001, "颜色无效")
	case errors.Is(err, matrix.ErrInvalidGrade):
		response.BadRequest(c, 14001, "该等级不允许此评分颜色")
	case errors.Is(err, pkgerrors.ErrOptimisticLock):
		response.Conflict(c, 15001, "数据已被其他操作修改，请刷新后重试")
	default:
		response.InternalError(c)
	}
}
