package handlers

import (
	"net/http"

	"safescan/internal/db"
	"safescan/internal/models"
	"safescan/internal/services"
	"safescan/internal/utils"

	"github.com/gin-gonic/gin"
)

type QueueHandler struct{}

func NewQueueHandler() *QueueHandler {
	return &QueueHandler{}
}

// List 公开的检测队列（按票数/速度排序）。
// 读队列时顺手调度一次异步速度刷新，让长时间没新票的条目也能正常衰减。
func (h *QueueHandler) List(c *gin.Context) {
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize := 50

	query := db.DB.Model(&models.ProductVote{})
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	} else {
		query = query.Where("status != ?", models.StatusComplete)
	}

	var total int64
	query.Count(&total)

	var entries []models.ProductVote
	sort := c.DefaultQuery("sort", "votes")
	if sort == "velocity" {
		query = query.Order("velocity_score DESC")
	} else {
		query = query.Order("total_weighted_votes DESC")
	}
	query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&entries)

	for _, e := range entries {
		services.GetVelocityService().ScheduleRefresh(e.ID)
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
		"page":    page,
	})
}

// Get 单个条码的众筹进度
func (h *QueueHandler) Get(c *gin.Context) {
	var pv models.ProductVote
	if err := db.DB.Where("barcode = ?", c.Param("barcode")).First(&pv).Error; err != nil {
		JSONError(c, http.StatusNotFound, "barcode not found in testing queue")
		return
	}
	c.JSON(http.StatusOK, pv)
}

type advanceRequest struct {
	Status models.QueueStatus `json:"status" binding:"required"`
}

// Advance 管理端推进队列状态（threshold_reached→queued、queued→testing）。
// 跳级或回退会被状态机用 400 拒绝，错误里写明非法迁移的来龙去脉。
func (h *QueueHandler) Advance(c *gin.Context) {
	if currentAdmin(c) == nil {
		c.Status(http.StatusForbidden)
		return
	}

	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "status is required")
		return
	}

	pv, err := services.AdvanceQueue(c.Param("barcode"), req.Status)
	if err != nil {
		DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, pv)
}

type completeRequest struct {
	ProductPid string `json:"product_pid" binding:"required"`
}

// Complete 检测完成：关联正式产品并把状态推到 complete，触发订阅者通知
func (h *QueueHandler) Complete(c *gin.Context) {
	if currentAdmin(c) == nil {
		c.Status(http.StatusForbidden)
		return
	}

	var req completeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "product_pid is required")
		return
	}

	var product models.Product
	if err := db.DB.Where("pid = ?", req.ProductPid).First(&product).Error; err != nil {
		JSONError(c, http.StatusNotFound, "product not found")
		return
	}

	pv, err := services.CompleteTesting(c.Param("barcode"), product.ID)
	if err != nil {
		DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, pv)
}

// Reset 管理员显式重置众筹进度（唯一允许的回退路径）
func (h *QueueHandler) Reset(c *gin.Context) {
	if currentAdmin(c) == nil {
		c.Status(http.StatusForbidden)
		return
	}

	pv, err := services.ResetQueue(c.Param("barcode"))
	if err != nil {
		DomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, pv)
}
