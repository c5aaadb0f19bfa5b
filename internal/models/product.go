package models

import (
	"time"
)

type Product struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Pid     string `gorm:"uniqueIndex;size:8;not null" json:"pid"`
	Name    string `gorm:"not null" json:"name"`
	Brand   string `gorm:"size:100;index" json:"brand"`
	Barcode string `gorm:"uniqueIndex;size:32" json:"barcode"`

	// 成分列表（多对多）
	Ingredients []Ingredient `gorm:"many2many:product_ingredients;" json:"ingredients"`

	// Verdict 由解析器计算得出；RuleApplied 记录产生该评级的规则（审计用）
	Verdict     Verdict `gorm:"type:varchar(20);default:'unknown';not null" json:"verdict"`
	RuleApplied string  `gorm:"size:200" json:"rule_applied"`

	// 人工覆盖：VerdictOverride 为 true 时级联永远不会改写 Verdict
	VerdictOverride       bool       `gorm:"default:false" json:"verdict_override"`
	VerdictOverrideReason string     `gorm:"size:500" json:"verdict_override_reason"`
	OverriddenBy          string     `gorm:"size:100" json:"overridden_by"`
	OverriddenAt          *time.Time `json:"overridden_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
