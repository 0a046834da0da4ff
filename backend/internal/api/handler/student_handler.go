package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"assessment-matrix/backend/internal/dto"
	"assessment-matrix/backend/internal/service"
	"assessment-matrix/backend/pkg/response"
)

// StudentHandler 学生模块 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// List 学生列表，默认不含隐藏学生
// GET /api/v1/courses/:course/students?includeHidden=true
func (h *StudentHandler) List(c *gin.Context) {
	var req dto.StudentListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}
	includeHidden := req.IncludeHidden != nil && *req.IncludeHidden

	result, err := h.studentSvc.List(c.Request.Context(), c.Param("course"), includeHidden)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, result)
}

// Create 新增学生，单元格数量与课程领域一致
// POST /api/v1/courses/:course/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.studentSvc.Create(c.Request.Context(), c.Param("course"), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.Created(c, result)
}

// Get 学生详情（含全部单元格）
// GET /api/v1/courses/:course/students/:id
func (h *StudentHandler) Get(c *gin.Context) {
	result, err := h.studentSvc.Get(c.Request.Context(), c.Param("course"), c.Param("id"))
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, result)
}

// Rename 修改学生姓名
// PUT /api/v1/courses/:course/students/:id
func (h *StudentHandler) Rename(c *gin.Context) {
	var req dto.RenameStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.studentSvc.Rename(c.Request.Context(), c.Param("course"), c.Param("id"), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, result)
}

// SetHidden 隐藏 / 显示学生
// PUT /api/v1/courses/:course/students/:id/hidden
func (h *StudentHandler) SetHidden(c *gin.Context) {
	var req dto.SetHiddenRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.studentSvc.SetHidden(c.Request.Context(), c.Param("course"), c.Param("id"), *req.Hidden)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, result)
}

// Delete 软删除学生
// DELETE /api/v1/courses/:course/students/:id
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.studentSvc.Delete(c.Request.Context(), c.Param("course"), c.Param("id")); err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, nil)
}

// ListDeleted 已删除学生列表（含保留期信息）
// GET /api/v1/courses/:course/deleted-students
func (h *StudentHandler) ListDeleted(c *gin.Context) {
	result, err := h.studentSvc.ListDeleted(c.Request.Context(), c.Param("course"), time.Now().UTC())
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, result)
}

// Restore 恢复已删除学生
// POST /api/v1/courses/:course/deleted-students/:id/restore
func (h *StudentHandler) Restore(c *gin.Context) {
	if err := h.studentSvc.Restore(c.Request.Context(), c.Param("course"), c.Param("id")); err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, nil)
}

// Import 按 id 合并导入学生名单
// POST /api/v1/courses/:course/students/import
func (h *StudentHandler) Import(c *gin.Context) {
	var req dto.ImportStudentsRequest
	if !bindJSON(c, &req) {
		return
	}

	count, err := h.studentSvc.Import(c.Request.Context(), c.Param("course"), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}
	response.OK(c, dto.CountResponse{Count: count})
}

// Export 下载学生名单 JSON
// GET /api/v1/courses/:course/students/export
func (h *StudentHandler) Export(c *gin.Context) {
	list, filename, err := h.studentSvc.Export(c.Request.Context(), c.Param("course"), time.Now())
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.JSON(http.StatusOK, list)
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTooManyStudents):
		response.BadRequest(c, 13004, "学生数量已达上限")
	case errors.Is(err, service.ErrDeletedStudentNotFound):
		response.NotFound(c, 13005, "已删除的学生不存在")
	default:
		handleCommonError(c, err)
	}
}
