package handler

import (
	"github.com/gin-gonic/gin"

	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/service"
	"assessment-matrix/backend/pkg/response"
)

// GradeHandler 评分模块 HTTP 处理器
type GradeHandler struct {
	gradeSvc service.GradeService
}

// NewGradeHandler 创建 GradeHandler
func NewGradeHandler(gradeSvc service.GradeService) *GradeHandler {
	return &GradeHandler{gradeSvc: gradeSvc}
}

// Set 设置单个评分，gradeColor 为 null 表示清除
// PUT /api/v1/courses/:course/students/:id/grades
func (h *GradeHandler) Set(c *gin.Context) {
	var req dto.SetGradeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.gradeSvc.Set(c.Request.Context(), c.Param("course"), c.Param("id"), &req)
	if err != nil {
		handleCommonError(c, err)
		return
	}
	response.OK(c, result)
}

// Batch 按顺序应用多条评分，任一失败全部回滚
// POST /api/v1/courses/:course/students/:id/grades/batch
func (h *GradeHandler) Batch(c *gin.Context) {
	var req dto.BatchGradeRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.gradeSvc.Batch(c.Request.Context(), c.Param("course"), c.Param("id"), &req)
	if err != nil {
		handleCommonError(c, err)
		return
	}
	response.OK(c, result)
}
