package utils

import (
	"math"
)

type VelocityConfig struct {
	Weight24h         float64 // 24 小时窗权重 (3.0)
	Weight7d          float64 // 7 天窗权重 (1.0)
	ScaleFactor       float64 // 放大系数 (10)
	TrendingThreshold float64 // trending 分界
	UrgentThreshold   float64 // urgent 分界
}

var DefaultVelocityConfig = VelocityConfig{
	Weight24h:         3.0,
	Weight7d:          1.0,
	ScaleFactor:       10.0, // 让分数落在 0-几十 的区间，便于阈值分级
	TrendingThreshold: 10.0,
	UrgentThreshold:   25.0,
}

// CalculateVelocity 根据 24h/7d 扫码量计算速度分。
// 要求：随扫码频率单调递增，且 24h 窗的权重显著高于 7d 窗（越近的行为越重要）。
func CalculateVelocity(scans24h, scans7d int, cfg VelocityConfig) float64 {
	if scans24h < 0 {
		scans24h = 0
	}
	if scans7d < 0 {
		scans7d = 0
	}

	// 对数平滑 (Log Smoothing)
	// log10(n + 1) -> 确保 n=0 时结果为 0，同时压制刷票的边际收益
	score24 := math.Log10(float64(scans24h)+1) * cfg.Weight24h
	score7 := math.Log10(float64(scans7d)+1) * cfg.Weight7d

	return (score24 + score7) * cfg.ScaleFactor
}

// TierUrgency 按速度分划分紧急级别 normal/trending/urgent。
// 分界值是可调的业务参数，不属于算法契约。
func TierUrgency(score float64, cfg VelocityConfig) string {
	switch {
	case score >= cfg.UrgentThreshold:
		return "urgent"
	case score >= cfg.TrendingThreshold:
		return "trending"
	default:
		return "normal"
	}
}
