package services

import (
	"log"
	"sync"
	"time"

	"safescan/internal/db"
	"safescan/internal/models"
)

// VelocityService 提供异步重算队列条目速度指标的服务。
// 投票请求里会同步重算一次保证响应新鲜；这个服务负责"没有新票时的衰减"：
// 读队列时调度一次异步刷新，加上每天凌晨的全量刷新。
type VelocityService struct {
	queue   chan uint // 待刷新的 ProductVote ID 队列
	pending map[uint]bool
	mu      sync.Mutex
}

var (
	velocityService *VelocityService
	velocityOnce    sync.Once
)

// GetVelocityService 获取单例速度刷新服务
func GetVelocityService() *VelocityService {
	velocityOnce.Do(func() {
		velocityService = &VelocityService{
			queue:   make(chan uint, 1000), // 缓冲队列，防止阻塞
			pending: make(map[uint]bool),
		}
		go velocityService.worker()
	})
	return velocityService
}

// ScheduleRefresh 将条目加入刷新队列（异步）。
// 去重机制避免短时间内重复刷新同一条目。
func (s *VelocityService) ScheduleRefresh(voteID uint) {
	s.mu.Lock()
	if s.pending[voteID] {
		s.mu.Unlock()
		return
	}
	s.pending[voteID] = true
	s.mu.Unlock()

	// 非阻塞发送到队列
	select {
	case s.queue <- voteID:
	default:
		// 队列满了，移除 pending 标记
		s.mu.Lock()
		delete(s.pending, voteID)
		s.mu.Unlock()
		log.Printf("速度刷新队列已满，跳过条目 %d", voteID)
	}
}

// worker 后台批量处理刷新请求
func (s *VelocityService) worker() {
	batch := make([]uint, 0, 50)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case voteID := <-s.queue:
			batch = append(batch, voteID)
			if len(batch) >= 50 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.processBatch(batch)
				batch = batch[:0]
			}
		}
	}
}

func (s *VelocityService) processBatch(voteIDs []uint) {
	for _, voteID := range voteIDs {
		if err := RefreshVelocity(voteID); err != nil {
			log.Printf("刷新条目 %d 速度指标失败: %v", voteID, err)
		}

		s.mu.Lock()
		delete(s.pending, voteID)
		s.mu.Unlock()
	}
}

// StartScheduledRefresh 启动定时刷新任务（每天凌晨 3 点执行）
func (s *VelocityService) StartScheduledRefresh() {
	go func() {
		for {
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}
			time.Sleep(time.Until(next))

			log.Println("开始定时刷新队列速度指标...")
			s.refreshActiveEntries()
			log.Println("定时刷新队列速度指标完成")
		}
	}()
}

// refreshActiveEntries 刷新所有还在积累/排队中的条目（已完成的不再关心速度）
func (s *VelocityService) refreshActiveEntries() {
	var entries []models.ProductVote
	db.DB.Where("status IN ?", []models.QueueStatus{
		models.StatusCollectingVotes,
		models.StatusThresholdReached,
		models.StatusQueued,
	}).Select("id").Find(&entries)

	count := 0
	for _, e := range entries {
		if err := RefreshVelocity(e.ID); err != nil {
			log.Printf("定时刷新条目 %d 失败: %v", e.ID, err)
			continue
		}
		count++
	}
	log.Printf("本次刷新 %d 个队列条目", count)
}
