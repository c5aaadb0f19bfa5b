package models

import (
	"time"
)

// Subscription 条码检测完成提醒订阅（"出结果后通知我"）
type Subscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Barcode   string    `gorm:"size:32;not null;index;uniqueIndex:idx_barcode_email" json:"barcode"`
	Email     string    `gorm:"size:200;not null;uniqueIndex:idx_barcode_email" json:"email"`
	Notified  bool      `gorm:"default:false" json:"notified"`
	CreatedAt time.Time `json:"created_at"`
}
