package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"assessment-matrix/backend/internal/service"
	"assessment-matrix/backend/pkg/response"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	icsContentType  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportMatrix 导出课程评估矩阵
// GET /api/v1/courses/:course/export/matrix
func (h *ExportHandler) ExportMatrix(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportMatrix(c.Request.Context(), c.Param("course"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ExportCalendar 导出课程作业日历
// GET /api/v1/courses/:course/export/calendar
func (h *ExportHandler) ExportCalendar(c *gin.Context) {
	body, filename, err := h.exportSvc.ExportCalendar(c.Request.Context(), c.Param("course"))
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	setDownloadHeaders(c, filename)
	c.Data(http.StatusOK, icsContentType, []byte(body))
}

// setDownloadHeaders 设置下载响应头
func setDownloadHeaders(c *gin.Context, filename string) {
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoStudents):
		response.NotFound(c, 16101, "该课程暂无可见学生")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		handleCommonError(c, err)
	}
}
