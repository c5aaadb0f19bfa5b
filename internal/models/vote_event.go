package models

import (
	"time"
)

// VoteType 投票类型，权重体现意图强度而非单纯热度
type VoteType string

const (
	VoteTypeSearch     VoteType = "search"
	VoteTypeScan       VoteType = "scan"
	VoteTypeMemberScan VoteType = "member_scan"
)

// IsScan 扫码类事件（scan/member_scan）计入速度时间窗，搜索不计
func (t VoteType) IsScan() bool {
	return t == VoteTypeScan || t == VoteTypeMemberScan
}

// VoteEvent 投票流水，只追加不修改。
// 时间窗统计（24h/7d）直接对该表做窗口计数，自带纠偏能力。
type VoteEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductVoteID uint      `gorm:"not null;index" json:"product_vote_id"`
	VoteType      VoteType  `gorm:"type:varchar(20);not null" json:"vote_type"`
	Weight        int       `gorm:"not null" json:"weight"`
	Fingerprint   string    `gorm:"size:64;not null" json:"fingerprint"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}
