package dto

// ── 认证模块 DTO ──

// LoginRequest 教师登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,max=100"`
	Password string `json:"password" binding:"required,max=72"`
}

// TokenResponse 登录成功响应
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn"` // 秒
	Username    string `json:"username"`
}
