package services

import (
	"errors"
	"fmt"
	"safescan/internal/models"
)

// 状态机领域错误
var (
	ErrInvalidTransition    = errors.New("invalid queue status transition")
	ErrMissingLinkedProduct = errors.New("complete requires a linked product")
	ErrUnknownStatus        = errors.New("unknown queue status")
)

// statusOrder 状态的线性顺序：collecting_votes → threshold_reached → queued → testing → complete
var statusOrder = map[models.QueueStatus]int{
	models.StatusCollectingVotes:  0,
	models.StatusThresholdReached: 1,
	models.StatusQueued:           2,
	models.StatusTesting:          3,
	models.StatusComplete:         4,
}

// CanTransition 校验状态迁移是否合法。
// 只允许前进一步：不许跳级，不许倒退（倒退只能走管理员显式重置）。
// 非法迁移返回带 from→to 说明的领域错误，绝不静默纠正。
func CanTransition(from, to models.QueueStatus) error {
	fromOrder, ok := statusOrder[from]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	toOrder, ok := statusOrder[to]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}

	if toOrder != fromOrder+1 {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, from, to)
	}
	return nil
}

// Advance 在内存中推进状态（校验 + 不变量检查），由调用方负责持久化。
// complete 的前置条件：LinkedProductID 必须已设置。
func Advance(pv *models.ProductVote, to models.QueueStatus) error {
	if err := CanTransition(pv.Status, to); err != nil {
		return err
	}
	if to == models.StatusComplete && pv.LinkedProductID == nil {
		return ErrMissingLinkedProduct
	}
	pv.Status = to
	return nil
}
