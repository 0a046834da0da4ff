package dto

// ── 通用响应 ──

// CountResponse 批量操作影响数量
type CountResponse struct {
	Count int `json:"count"`
}

// ExpiryInfo 软删除记录的保留期信息
type ExpiryInfo struct {
	DeletedAt           string `json:"deletedAt"` // YYYY-MM-DD
	WillExpireSoon      bool   `json:"willExpireSoon"`
	DaysUntilExpiration int    `json:"daysUntilExpiration"`
}
