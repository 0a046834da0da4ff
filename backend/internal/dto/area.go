package dto

// ── 评估领域模块 DTO ──

// AreaRequest 新增 / 修改评估领域
type AreaRequest struct {
	Name        string `json:"name"        binding:"required"`
	Description string `json:"description"`
}

// ReorderAreaRequest 移动评估领域位置
type ReorderAreaRequest struct {
	From *int `json:"from" binding:"required,min=0"`
	To   *int `json:"to"   binding:"required,min=0"`
}

// AreaResponse 评估领域（Index 为当前位置）
type AreaResponse struct {
	Index       int    `json:"index"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
