package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"assessment-matrix/backend/internal/service"
	"assessment-matrix/backend/pkg/response"
)

// SettingsHandler 应用设置 HTTP 处理器
type SettingsHandler struct {
	settingsSvc service.SettingsService
}

// NewSettingsHandler 创建 SettingsHandler
func NewSettingsHandler(settingsSvc service.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsSvc: settingsSvc}
}

// Get 读取全部设置
// GET /api/v1/app-settings
func (h *SettingsHandler) Get(c *gin.Context) {
	result, err := h.settingsSvc.Get(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// Save 合并保存设置，值为任意 JSON
// POST /api/v1/app-settings
func (h *SettingsHandler) Save(c *gin.Context) {
	var req map[string]json.RawMessage
	if !bindJSON(c, &req) {
		return
	}

	if err := h.settingsSvc.Save(c.Request.Context(), req); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// Reset 清空全部设置
// DELETE /api/v1/app-settings
func (h *SettingsHandler) Reset(c *gin.Context) {
	if err := h.settingsSvc.Reset(c.Request.Context()); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}
