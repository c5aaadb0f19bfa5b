package services

import (
	"os"
	"safescan/internal/utils"
	"strconv"
	"sync"
)

// VoteConfig 投票权重与众筹阈值。
// 这些是业务参数而不是算法契约，全部支持环境变量覆盖。
type VoteConfig struct {
	WeightSearch     int // 搜索 = 1
	WeightScan       int // 扫码 = 5
	WeightMemberScan int // 会员扫码 = 20

	// 新条码默认的众筹目标票数
	DefaultFundingThreshold int
}

var DefaultVoteConfig = VoteConfig{
	WeightSearch:            1,
	WeightScan:              5,
	WeightMemberScan:        20,
	DefaultFundingThreshold: 1000,
}

var (
	voteConfig     VoteConfig
	voteConfigOnce sync.Once
)

// GetVoteConfig 获取单例配置（首次调用时读取环境变量，并发安全）
func GetVoteConfig() VoteConfig {
	voteConfigOnce.Do(func() {
		cfg := DefaultVoteConfig
		cfg.WeightSearch = envInt("VOTE_WEIGHT_SEARCH", cfg.WeightSearch)
		cfg.WeightScan = envInt("VOTE_WEIGHT_SCAN", cfg.WeightScan)
		cfg.WeightMemberScan = envInt("VOTE_WEIGHT_MEMBER_SCAN", cfg.WeightMemberScan)
		cfg.DefaultFundingThreshold = envInt("FUNDING_THRESHOLD", cfg.DefaultFundingThreshold)
		voteConfig = cfg
	})
	return voteConfig
}

// GetVelocityConfig 速度分级参数（分界值可调）
func GetVelocityConfig() utils.VelocityConfig {
	cfg := utils.DefaultVelocityConfig
	cfg.TrendingThreshold = envFloat("VELOCITY_TRENDING_THRESHOLD", cfg.TrendingThreshold)
	cfg.UrgentThreshold = envFloat("VELOCITY_URGENT_THRESHOLD", cfg.UrgentThreshold)
	return cfg
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}
