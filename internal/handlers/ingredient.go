package handlers

import (
	"net/http"
	"safescan/internal/db"
	"safescan/internal/models"
	"safescan/internal/services"
	"safescan/internal/utils"

	"github.com/gin-gonic/gin"
)

type IngredientHandler struct{}

func NewIngredientHandler() *IngredientHandler {
	return &IngredientHandler{}
}

// List 成分列表（支持按名称/别名模糊搜索）
func (h *IngredientHandler) List(c *gin.Context) {
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize := 50

	query := db.DB.Model(&models.Ingredient{})
	if q := c.Query("q"); q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR aliases LIKE ?", like, like)
	}
	if v := c.Query("verdict"); v != "" {
		query = query.Where("verdict = ?", v)
	}

	var total int64
	query.Count(&total)

	var ingredients []models.Ingredient
	query.Order("flagged_product_count DESC, name ASC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&ingredients)

	c.JSON(http.StatusOK, gin.H{
		"ingredients": ingredients,
		"total":       total,
		"page":        page,
	})
}

// Get 成分详情，附带渲染好的评级理由 HTML
func (h *IngredientHandler) Get(c *gin.Context) {
	var ing models.Ingredient
	if err := db.DB.First(&ing, c.Param("id")).Error; err != nil {
		JSONError(c, http.StatusNotFound, "ingredient not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ingredient":  ing,
		"reason_html": utils.RenderMarkdown(ing.Reason),
	})
}

type ingredientRequest struct {
	Name             string `json:"name" binding:"required"`
	Aliases          string `json:"aliases"`
	Reason           string `json:"reason"`
	AutoFlagProducts *bool  `json:"auto_flag_products"`
}

// Create 管理端新建成分（初始评级 unknown，评级变更走专门接口）
func (h *IngredientHandler) Create(c *gin.Context) {
	if currentAdmin(c) == nil {
		c.Status(http.StatusForbidden)
		return
	}

	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "name is required")
		return
	}

	ing := models.Ingredient{
		Name:             req.Name,
		Aliases:          req.Aliases,
		Reason:           req.Reason,
		Verdict:          models.VerdictUnknown,
		AutoFlagProducts: true,
	}
	if req.AutoFlagProducts != nil {
		ing.AutoFlagProducts = *req.AutoFlagProducts
	}

	if err := db.DB.Create(&ing).Error; err != nil {
		JSONError(c, http.StatusConflict, "ingredient already exists")
		return
	}

	c.JSON(http.StatusCreated, ing)
}

// Update 管理端编辑成分基本信息（不含评级）
func (h *IngredientHandler) Update(c *gin.Context) {
	if currentAdmin(c) == nil {
		c.Status(http.StatusForbidden)
		return
	}

	var ing models.Ingredient
	if err := db.DB.First(&ing, c.Param("id")).Error; err != nil {
		JSONError(c, http.StatusNotFound, "ingredient not found")
		return
	}

	var req ingredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "name is required")
		return
	}

	updates := map[string]interface{}{
		"name":    req.Name,
		"aliases": req.Aliases,
		"reason":  req.Reason,
	}
	if req.AutoFlagProducts != nil {
		updates["auto_flag_products"] = *req.AutoFlagProducts
	}
	if err := db.DB.Model(&ing).Updates(updates).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, ing)
}

type verdictRequest struct {
	Verdict models.Verdict `json:"verdict" binding:"required"`
	Reason  string         `json:"reason"`
}

// UpdateVerdict 管理端修改成分评级，触发级联重算。
// 响应里带上级联结果 {flagged_count, errors}，部分失败不影响 200。
func (h *IngredientHandler) UpdateVerdict(c *gin.Context) {
	if currentAdmin(c) == nil {
		c.Status(http.StatusForbidden)
		return
	}

	var req verdictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "verdict is required")
		return
	}
	if !req.Verdict.IsValid() {
		JSONError(c, http.StatusBadRequest, "invalid verdict (want safe/caution/avoid/unknown)")
		return
	}

	var ing models.Ingredient
	if err := db.DB.First(&ing, c.Param("id")).Error; err != nil {
		JSONError(c, http.StatusNotFound, "ingredient not found")
		return
	}

	prev := ing.Verdict
	updates := map[string]interface{}{"verdict": req.Verdict}
	if req.Reason != "" {
		updates["reason"] = req.Reason
	}
	if err := db.DB.Model(&ing).Updates(updates).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	ing.Verdict = req.Verdict

	// 级联在请求内同步执行（分页 + 单产品失败隔离，见 services.OnIngredientVerdictChanged）
	result := services.OnIngredientVerdictChanged(&ing, prev, req.Verdict)

	c.JSON(http.StatusOK, gin.H{
		"ingredient":    ing,
		"flagged_count": result.FlaggedCount,
		"errors":        result.Errors,
	})
}
