package handlers

import (
	"net/http"
	"strings"

	"safescan/internal/db"
	"safescan/internal/models"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct{}

func NewSubscriptionHandler() *SubscriptionHandler {
	return &SubscriptionHandler{}
}

type subscribeRequest struct {
	Barcode string `json:"barcode" binding:"required"`
	Email   string `json:"email" binding:"required"`
}

// Subscribe 订阅"检测完成提醒"。重复订阅视为成功（幂等）。
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "barcode and email are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		JSONError(c, http.StatusBadRequest, "invalid email address")
		return
	}

	sub := models.Subscription{
		Barcode: req.Barcode,
		Email:   req.Email,
	}
	if err := db.DB.Create(&sub).Error; err != nil {
		// 唯一索引冲突 = 已订阅过，返回成功即可
		var existing models.Subscription
		if err2 := db.DB.Where("barcode = ? AND email = ?", req.Barcode, req.Email).First(&existing).Error; err2 != nil {
			JSONError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true, "already_subscribed": true})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"ok": true})
}
