package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/service"
	"assessment-matrix/backend/pkg/response"
)

// AssignmentHandler 作业模块 HTTP 处理器
type AssignmentHandler struct {
	assignmentSvc service.AssignmentService
}

// NewAssignmentHandler 创建 AssignmentHandler
func NewAssignmentHandler(assignmentSvc service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentSvc: assignmentSvc}
}

// Add 为学生添加作业
// POST /api/v1/courses/:course/students/:id/assignments
func (h *AssignmentHandler) Add(c *gin.Context) {
	var req dto.AddAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.assignmentSvc.Add(c.Request.Context(), c.Param("course"), c.Param("id"), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// Edit 按名称替换某领域内的作业
// PUT /api/v1/courses/:course/students/:id/assignments
func (h *AssignmentHandler) Edit(c *gin.Context) {
	var req dto.EditAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.assignmentSvc.Edit(c.Request.Context(), c.Param("course"), c.Param("id"), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 按位置删除单条作业
// DELETE /api/v1/courses/:course/students/:id/assignments/:index/:level/:position
func (h *AssignmentHandler) Delete(c *gin.Context) {
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}
	position, ok := pathInt(c, "position")
	if !ok {
		return
	}

	result, err := h.assignmentSvc.Delete(c.Request.Context(), c.Param("course"), c.Param("id"), index, c.Param("level"), position)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// DeleteAll 清空学生所有单元格（含评分）
// DELETE /api/v1/courses/:course/students/:id/assignments
func (h *AssignmentHandler) DeleteAll(c *gin.Context) {
	result, err := h.assignmentSvc.DeleteAll(c.Request.Context(), c.Param("course"), c.Param("id"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// Last 最近一次添加的作业
// GET /api/v1/courses/:course/students/:id/assignments/last
func (h *AssignmentHandler) Last(c *gin.Context) {
	result, err := h.assignmentSvc.Last(c.Request.Context(), c.Param("course"), c.Param("id"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// UndoLast 撤销最近一次添加的作业
// DELETE /api/v1/courses/:course/students/:id/assignments/last
func (h *AssignmentHandler) UndoLast(c *gin.Context) {
	result, err := h.assignmentSvc.UndoLast(c.Request.Context(), c.Param("course"), c.Param("id"))
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

// Bulk 为课程内全部可见学生添加作业
// POST /api/v1/courses/:course/assignments/bulk
func (h *AssignmentHandler) Bulk(c *gin.Context) {
	var req dto.BulkAssignmentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.assignmentSvc.Bulk(c.Request.Context(), c.Param("course"), &req)
	if err != nil {
		h.handleAssignmentError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *AssignmentHandler) handleAssignmentError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNoAssignments) {
		response.NotFound(c, 13006, "该学生暂无作业")
		return
	}
	handleCommonError(c, err)
}
