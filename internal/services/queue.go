package services

import (
	"errors"
	"fmt"
	"log"

	"safescan/internal/db"
	"safescan/internal/models"

	"gorm.io/gorm"
)

var ErrBarcodeNotFound = errors.New("barcode not found in testing queue")

// AdvanceQueue 管理端推进队列状态（threshold_reached→queued、queued→testing）。
// 先在内存里过状态机校验，落库时带上 WHERE status = 旧状态，
// 并发下另一个请求抢先改了状态就按非法迁移报错，绝不覆盖。
func AdvanceQueue(barcode string, to models.QueueStatus) (*models.ProductVote, error) {
	var pv models.ProductVote
	if err := db.DB.Where("barcode = ?", barcode).First(&pv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBarcodeNotFound
		}
		return nil, err
	}

	from := pv.Status
	if err := Advance(&pv, to); err != nil {
		return nil, err
	}

	res := db.DB.Model(&models.ProductVote{}).
		Where("id = ? AND status = ?", pv.ID, from).
		UpdateColumn("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}

	log.Printf("队列条目 %s 状态推进 %s → %s", barcode, from, to)
	return &pv, nil
}

// CompleteTesting 检测完成：testing → complete，关联正式产品并通知订阅者。
// complete 不允许在没有关联产品的情况下出现。
func CompleteTesting(barcode string, productID uint) (*models.ProductVote, error) {
	var pv models.ProductVote
	if err := db.DB.Where("barcode = ?", barcode).First(&pv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBarcodeNotFound
		}
		return nil, err
	}

	var product models.Product
	if err := db.DB.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: linked product %d does not exist", ErrMissingLinkedProduct, productID)
		}
		return nil, err
	}

	from := pv.Status
	pv.LinkedProductID = &product.ID
	if err := Advance(&pv, models.StatusComplete); err != nil {
		return nil, err
	}

	res := db.DB.Model(&models.ProductVote{}).
		Where("id = ? AND status = ?", pv.ID, from).
		UpdateColumns(map[string]interface{}{
			"status":            models.StatusComplete,
			"linked_product_id": product.ID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: status changed concurrently", ErrInvalidTransition)
	}

	// complete 触发一次订阅者通知
	GetNotifyService().NotifyProductTested(barcode, product.Name)

	log.Printf("条码 %s 检测完成，已关联产品 %s", barcode, product.Pid)
	return &pv, nil
}

// ResetQueue 管理员显式重置：唯一允许的回退路径。
// 清空票数、指纹集合和流水，回到 collecting_votes 重新积累。
func ResetQueue(barcode string) (*models.ProductVote, error) {
	var pv models.ProductVote
	if err := db.DB.Where("barcode = ?", barcode).First(&pv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBarcodeNotFound
		}
		return nil, err
	}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_vote_id = ?", pv.ID).Delete(&models.VoteFingerprint{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_vote_id = ?", pv.ID).Delete(&models.VoteEvent{}).Error; err != nil {
			return err
		}
		return tx.Model(&models.ProductVote{}).Where("id = ?", pv.ID).
			UpdateColumns(map[string]interface{}{
				"status":               models.StatusCollectingVotes,
				"total_weighted_votes": 0,
				"search_count":         0,
				"scan_count":           0,
				"member_scan_count":    0,
				"unique_voter_count":   0,
				"scans_last_24h":       0,
				"scans_last_7d":        0,
				"velocity_score":       0,
				"urgency_flag":         models.UrgencyNormal,
				"threshold_reached_at": nil,
				"linked_product_id":    nil,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("管理员重置了条码 %s 的众筹进度", barcode)

	var fresh models.ProductVote
	if err := db.DB.First(&fresh, pv.ID).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}
