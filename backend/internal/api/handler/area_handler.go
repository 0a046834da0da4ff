package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/service"
	"assessment-matrix/backend/pkg/response"
)

// AreaHandler 评估领域模块 HTTP 处理器
type AreaHandler struct {
	areaSvc service.AreaService
}

// NewAreaHandler 创建 AreaHandler
func NewAreaHandler(areaSvc service.AreaService) *AreaHandler {
	return &AreaHandler{areaSvc: areaSvc}
}

// List 按位置顺序列出评估领域
// GET /api/v1/courses/:course/areas
func (h *AreaHandler) List(c *gin.Context) {
	result, err := h.areaSvc.List(c.Request.Context(), c.Param("course"))
	if err != nil {
		h.handleAreaError(c, err)
		return
	}
	response.OK(c, result)
}

// Create 在末尾追加评估领域，所有学生同步追加空单元格
// POST /api/v1/courses/:course/areas
func (h *AreaHandler) Create(c *gin.Context) {
	var req dto.AreaRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.areaSvc.Create(c.Request.Context(), c.Param("course"), &req)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}
	response.Created(c, result)
}

// Update 修改领域名称与描述，不影响学生单元格
// PUT /api/v1/courses/:course/areas/:index
func (h *AreaHandler) Update(c *gin.Context) {
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}
	var req dto.AreaRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.areaSvc.Update(c.Request.Context(), c.Param("course"), index, &req)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 删除领域及所有学生在该位置的单元格
// DELETE /api/v1/courses/:course/areas/:index
func (h *AreaHandler) Delete(c *gin.Context) {
	index, ok := pathInt(c, "index")
	if !ok {
		return
	}

	if err := h.areaSvc.Delete(c.Request.Context(), c.Param("course"), index); err != nil {
		h.handleAreaError(c, err)
		return
	}
	response.OK(c, nil)
}

// Reorder 移动领域位置，学生单元格同步移动
// POST /api/v1/courses/:course/areas/reorder
func (h *AreaHandler) Reorder(c *gin.Context) {
	var req dto.ReorderAreaRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.areaSvc.Reorder(c.Request.Context(), c.Param("course"), *req.From, *req.To)
	if err != nil {
		h.handleAreaError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *AreaHandler) handleAreaError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAreaNameExists):
		response.Conflict(c, 12003, "评估领域名称已存在")
	case errors.Is(err, service.ErrTooManyAreas):
		response.BadRequest(c, 12004, "评估领域数量已达上限")
	default:
		handleCommonError(c, err)
	}
}
