package models

import (
	"time"
)

// QueueStatus 众筹检测请求的状态
type QueueStatus string

const (
	StatusCollectingVotes  QueueStatus = "collecting_votes"
	StatusThresholdReached QueueStatus = "threshold_reached"
	StatusQueued           QueueStatus = "queued"
	StatusTesting          QueueStatus = "testing"
	StatusComplete         QueueStatus = "complete"
)

// UrgencyFlag 速度分级
const (
	UrgencyNormal   = "normal"
	UrgencyTrending = "trending"
	UrgencyUrgent   = "urgent"
)

// ProductVote 众筹检测队列条目，按条码唯一
type ProductVote struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	Barcode string `gorm:"uniqueIndex;size:32;not null" json:"barcode"`

	// 扫码用户上报的产品信息（已消毒处理，仅供参考）
	ProductName  string `gorm:"size:200" json:"product_name"`
	ProductBrand string `gorm:"size:100" json:"product_brand"`

	// 加权票数：除管理员显式重置外单调不减，只允许原子自增
	TotalWeightedVotes int `gorm:"default:0;not null" json:"total_weighted_votes"`
	SearchCount        int `gorm:"default:0;not null" json:"search_count"`
	ScanCount          int `gorm:"default:0;not null" json:"scan_count"`
	MemberScanCount    int `gorm:"default:0;not null" json:"member_scan_count"`

	// UniqueVoterCount 是 vote_fingerprints 表上的计数缓存
	UniqueVoterCount int `gorm:"default:0;not null" json:"unique_voter_count"`

	FundingThreshold   int         `gorm:"default:1000;not null" json:"funding_threshold"`
	Status             QueueStatus `gorm:"type:varchar(20);default:'collecting_votes';not null;index" json:"status"`
	ThresholdReachedAt *time.Time  `json:"threshold_reached_at"`

	// 速度指标：由 vote_events 时间窗重算，不做增量累加
	ScansLast24h  int     `gorm:"column:scans_last_24h;default:0" json:"scans_last_24h"`
	ScansLast7d   int     `gorm:"column:scans_last_7d;default:0" json:"scans_last_7d"`
	VelocityScore float64 `gorm:"default:0" json:"velocity_score"`
	UrgencyFlag   string  `gorm:"size:20;default:'normal'" json:"urgency_flag"`

	// 检测完成后关联到正式产品（complete 状态的前置条件）
	LinkedProductID *uint    `gorm:"index" json:"linked_product_id"`
	LinkedProduct   *Product `gorm:"foreignKey:LinkedProductID" json:"linked_product,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoteFingerprint 唯一投票者集合。
// 用独立表 + 唯一索引代替无限增长的行内列表，成员判断 O(1) 由数据库保证。
type VoteFingerprint struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	ProductVoteID uint      `gorm:"not null;index;uniqueIndex:idx_vote_fp" json:"product_vote_id"`
	Fingerprint   string    `gorm:"size:64;not null;uniqueIndex:idx_vote_fp" json:"fingerprint"`
	CreatedAt     time.Time `json:"created_at"`
}
