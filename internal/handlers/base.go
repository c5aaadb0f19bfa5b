package handlers

import (
	"errors"
	"net/http"
	"safescan/internal/middleware"
	"safescan/internal/models"
	"safescan/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// JSONError 统一的错误响应
func JSONError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// DomainError 把领域错误映射为对应的 HTTP 状态码。
// 非法状态迁移/校验失败 → 400，找不到 → 404，其余按存储不可用 → 500。
func DomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrMissingLinkedProduct),
		errors.Is(err, services.ErrUnknownStatus),
		errors.Is(err, services.ErrInvalidVoteType),
		errors.Is(err, services.ErrEmptyBarcode),
		errors.Is(err, services.ErrEmptyFingerprint):
		JSONError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrBarcodeNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		JSONError(c, http.StatusNotFound, err.Error())
	default:
		JSONError(c, http.StatusInternalServerError, err.Error())
	}
}

// currentAdmin 取当前登录的管理员，非管理员返回 nil
func currentAdmin(c *gin.Context) *models.User {
	u, exists := c.Get(middleware.CheckUserKey)
	if !exists {
		return nil
	}
	user := u.(*models.User)
	if user.Role != "admin" {
		return nil
	}
	return user
}
