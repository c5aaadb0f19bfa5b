package services

import (
	"errors"
	"log"
	"time"

	"safescan/internal/db"
	"safescan/internal/models"
	"safescan/internal/utils"

	"gorm.io/gorm"
)

// 投票校验错误
var (
	ErrInvalidVoteType  = errors.New("invalid vote type (want search/scan/member_scan)")
	ErrEmptyBarcode     = errors.New("barcode is required")
	ErrEmptyFingerprint = errors.New("voter fingerprint is required")
)

// VoteMeta 扫码端附带的产品信息（不可信输入，入库前消毒）
type VoteMeta struct {
	ProductName  string
	ProductBrand string
}

// weightFor 返回投票类型对应的权重
func weightFor(t models.VoteType) (int, error) {
	cfg := GetVoteConfig()
	switch t {
	case models.VoteTypeSearch:
		return cfg.WeightSearch, nil
	case models.VoteTypeScan:
		return cfg.WeightScan, nil
	case models.VoteTypeMemberScan:
		return cfg.WeightMemberScan, nil
	default:
		return 0, ErrInvalidVoteType
	}
}

// RecordVote 记录一次对未检测条码的加权投票。
//
// 按条码 upsert 队列条目；加权票数和各类型计数用 SQL 原子自增
// （并发投票下读-改-写会丢更新，这里必须走 gorm.Expr）。
// 唯一投票者靠 vote_fingerprints 的复合唯一索引去重；
// 相同 (条码, 指纹, 类型) 紧接着再投不会撑大唯一投票者集合，但流水照记。
// 时间窗指标（24h/7d）对 vote_events 做窗口计数重算，不做增量累加。
// 票数过线的瞬间把状态推进到 threshold_reached 并记录时间。
func RecordVote(barcode string, voteType models.VoteType, fingerprint string, meta *VoteMeta) (*models.ProductVote, error) {
	if barcode == "" {
		return nil, ErrEmptyBarcode
	}
	if fingerprint == "" {
		return nil, ErrEmptyFingerprint
	}
	weight, err := weightFor(voteType)
	if err != nil {
		return nil, err
	}

	pv, err := findOrCreateVote(barcode, meta)
	if err != nil {
		return nil, err
	}

	// 唯一投票者集合：唯一索引冲突说明该指纹已投过，静默跳过；
	// 其他错误（存储故障）只丢这一次计数，记日志便于排查
	fp := models.VoteFingerprint{ProductVoteID: pv.ID, Fingerprint: fingerprint}
	if err := db.DB.Create(&fp).Error; err == nil {
		db.DB.Model(&models.ProductVote{}).Where("id = ?", pv.ID).
			UpdateColumn("unique_voter_count", gorm.Expr("unique_voter_count + ?", 1))
	} else if !errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Printf("记录条码 %s 投票指纹失败: %v", barcode, err)
	}

	// 投票流水（窗口统计和对账的事实来源）
	event := models.VoteEvent{
		ProductVoteID: pv.ID,
		VoteType:      voteType,
		Weight:        weight,
		Fingerprint:   fingerprint,
	}

	// 流水和计数器必须同一事务落库：总票数恒等于流水的加权和，
	// 不允许只写成功一半留下对不上账的孤儿流水
	counterCol := map[models.VoteType]string{
		models.VoteTypeSearch:     "search_count",
		models.VoteTypeScan:       "scan_count",
		models.VoteTypeMemberScan: "member_scan_count",
	}[voteType]
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		// 原子自增：加权总票数 + 对应类型计数
		return tx.Model(&models.ProductVote{}).Where("id = ?", pv.ID).
			UpdateColumns(map[string]interface{}{
				"total_weighted_votes": gorm.Expr("total_weighted_votes + ?", weight),
				counterCol:             gorm.Expr(counterCol + " + ?", 1),
			}).Error
	})
	if err != nil {
		return nil, err
	}

	// 重算速度窗口与紧急级别
	if err := RefreshVelocity(pv.ID); err != nil {
		log.Printf("重算条码 %s 速度指标失败: %v", barcode, err)
	}

	// 过线检查：带条件的 UPDATE 保证并发下只翻转一次
	now := time.Now()
	res := db.DB.Model(&models.ProductVote{}).
		Where("id = ? AND status = ? AND total_weighted_votes >= funding_threshold",
			pv.ID, models.StatusCollectingVotes).
		UpdateColumns(map[string]interface{}{
			"status":               models.StatusThresholdReached,
			"threshold_reached_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		log.Printf("条码 %s 达到众筹阈值，进入 threshold_reached", barcode)
	}

	// 回读最新状态返回给调用方
	var fresh models.ProductVote
	if err := db.DB.First(&fresh, pv.ID).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}

// findOrCreateVote 按条码取队列条目，首见创建。
// 并发首见同一条码时依赖唯一索引兜底，创建失败则回读已有行。
func findOrCreateVote(barcode string, meta *VoteMeta) (*models.ProductVote, error) {
	var pv models.ProductVote
	err := db.DB.Where("barcode = ?", barcode).First(&pv).Error
	if err == nil {
		// 已有条目缺产品信息时补全
		if pv.ProductName == "" && meta != nil && meta.ProductName != "" {
			db.DB.Model(&pv).UpdateColumns(map[string]interface{}{
				"product_name":  utils.SanitizeText(meta.ProductName),
				"product_brand": utils.SanitizeText(meta.ProductBrand),
			})
		}
		return &pv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	pv = models.ProductVote{
		Barcode:          barcode,
		FundingThreshold: GetVoteConfig().DefaultFundingThreshold,
		Status:           models.StatusCollectingVotes,
		UrgencyFlag:      models.UrgencyNormal,
	}
	if meta != nil {
		pv.ProductName = utils.SanitizeText(meta.ProductName)
		pv.ProductBrand = utils.SanitizeText(meta.ProductBrand)
	}
	if err := db.DB.Create(&pv).Error; err != nil {
		// 大概率是并发创建撞了唯一索引
		if err2 := db.DB.Where("barcode = ?", barcode).First(&pv).Error; err2 != nil {
			return nil, err
		}
	}
	return &pv, nil
}

// RefreshVelocity 重算单个条目的 24h/7d 扫码窗口、速度分和紧急级别。
// 窗口直接数 vote_events，自带纠偏能力（计数器漂移、时钟回拨都能自愈）。
func RefreshVelocity(productVoteID uint) error {
	now := time.Now()
	scanTypes := []models.VoteType{models.VoteTypeScan, models.VoteTypeMemberScan}

	var last24, last7 int64
	err := db.DB.Model(&models.VoteEvent{}).
		Where("product_vote_id = ? AND vote_type IN ? AND created_at >= ?",
			productVoteID, scanTypes, now.Add(-24*time.Hour)).
		Count(&last24).Error
	if err != nil {
		return err
	}
	err = db.DB.Model(&models.VoteEvent{}).
		Where("product_vote_id = ? AND vote_type IN ? AND created_at >= ?",
			productVoteID, scanTypes, now.Add(-7*24*time.Hour)).
		Count(&last7).Error
	if err != nil {
		return err
	}

	vcfg := GetVelocityConfig()
	score := utils.CalculateVelocity(int(last24), int(last7), vcfg)
	urgency := utils.TierUrgency(score, vcfg)

	return db.DB.Model(&models.ProductVote{}).Where("id = ?", productVoteID).
		UpdateColumns(map[string]interface{}{
			"scans_last_24h": last24,
			"scans_last_7d":  last7,
			"velocity_score": score,
			"urgency_flag":   urgency,
		}).Error
}
