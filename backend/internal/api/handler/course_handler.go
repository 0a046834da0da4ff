package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/service"
	"assessment-matrix/backend/pkg/response"
)

// CourseHandler 课程模块 HTTP 处理器
type CourseHandler struct {
	courseSvc service.CourseService
}

// NewCourseHandler 创建 CourseHandler
func NewCourseHandler(courseSvc service.CourseService) *CourseHandler {
	return &CourseHandler{courseSvc: courseSvc}
}

// List 课程列表
// GET /api/v1/courses
func (h *CourseHandler) List(c *gin.Context) {
	result, err := h.courseSvc.List(c.Request.Context())
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.OK(c, result)
}

// Create 创建课程
// POST /api/v1/courses
func (h *CourseHandler) Create(c *gin.Context) {
	var req dto.CreateCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.courseSvc.Create(c.Request.Context(), &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.Created(c, result)
}

// Update 重命名 / 修改课程
// PUT /api/v1/courses/:course
func (h *CourseHandler) Update(c *gin.Context) {
	var req dto.UpdateCourseRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.courseSvc.Update(c.Request.Context(), c.Param("course"), &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 软删除课程
// DELETE /api/v1/courses/:course
func (h *CourseHandler) Delete(c *gin.Context) {
	if err := h.courseSvc.Delete(c.Request.Context(), c.Param("course")); err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListDeleted 已删除课程列表（含保留期信息）
// GET /api/v1/deleted-courses
func (h *CourseHandler) ListDeleted(c *gin.Context) {
	result, err := h.courseSvc.ListDeleted(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.OK(c, result)
}

// Restore 恢复已删除课程，请求体可为空
// POST /api/v1/deleted-courses/:course/restore
func (h *CourseHandler) Restore(c *gin.Context) {
	var req dto.RestoreCourseRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	result, err := h.courseSvc.Restore(c.Request.Context(), c.Param("course"), &req)
	if err != nil {
		h.handleCourseError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *CourseHandler) handleCourseError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCourseExists):
		response.Conflict(c, 11003, "课程名称已存在")
	case errors.Is(err, service.ErrDeletedCourseNotFound):
		response.NotFound(c, 11004, "已删除的课程不存在")
	default:
		handleCommonError(c, err)
	}
}
