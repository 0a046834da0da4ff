package model

import (
	"time"

	"gorm.io/datatypes"
)

// AppSetting 应用设置表，对应 app_settings（键值对，值为任意 JSON）
type AppSetting struct {
	Key       string         `gorm:"type:varchar(100);primaryKey" json:"key"`
	Value     datatypes.JSON `gorm:"not null"                     json:"value"`
	UpdatedAt time.Time      `gorm:"not null"                     json:"updated_at"`
}

// TableName 指定表名
func (AppSetting) TableName() string { return "app_settings" }

// AllModels 全部表模型，用于 sqlite 自动建表与测试
func AllModels() []interface{} {
	return []interface{}{
		&Course{},
		&AssessmentArea{},
		&Student{},
		&Assignment{},
		&Grade{},
		&AppSetting{},
	}
}
