package models

import (
	"time"
)

type Ingredient struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	Name    string  `gorm:"not null;uniqueIndex" json:"name"`
	Aliases string  `gorm:"size:500" json:"aliases"` // 别名，逗号分隔 (e.g. "E129,Allura Red")
	Verdict Verdict `gorm:"type:varchar(20);default:'unknown';not null" json:"verdict"`
	Reason  string  `gorm:"type:text" json:"reason"` // 评级理由，支持 Markdown

	// AutoFlagProducts 为 true 时，评级变更会级联重算引用该成分的产品
	AutoFlagProducts bool `gorm:"default:true" json:"auto_flag_products"`

	// FlaggedProductCount 是级联维护的反规范化缓存，不是事实来源
	FlaggedProductCount int `gorm:"default:0" json:"flagged_product_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
