package handlers

import (
	"errors"
	"net/http"
	"time"

	"safescan/internal/db"
	"safescan/internal/models"
	"safescan/internal/services"
	"safescan/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProductHandler struct{}

func NewProductHandler() *ProductHandler {
	return &ProductHandler{}
}

// List 产品列表（按评级/品牌过滤 + 名称搜索）
func (h *ProductHandler) List(c *gin.Context) {
	page := utils.StringToInt(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize := 20

	query := db.DB.Model(&models.Product{})
	if v := c.Query("verdict"); v != "" {
		query = query.Where("verdict = ?", v)
	}
	if brand := c.Query("brand"); brand != "" {
		query = query.Where("brand = ?", brand)
	}
	if q := c.Query("q"); q != "" {
		query = query.Where("name LIKE ?", "%"+q+"%")
	}

	var total int64
	query.Count(&total)

	var products []models.Product
	query.Order("updated_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&products)

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"total":    total,
		"page":     page,
	})
}

// ingredientView 详情里每个成分带渲染好的理由 HTML
type ingredientView struct {
	models.Ingredient
	ReasonHTML string `json:"reason_html"`
}

// Detail 产品详情：成分清单 + 各成分评级与理由
func (h *ProductHandler) Detail(c *gin.Context) {
	var product models.Product
	if err := db.DB.Preload("Ingredients").Where("pid = ?", c.Param("pid")).First(&product).Error; err != nil {
		JSONError(c, http.StatusNotFound, "product not found")
		return
	}

	views := make([]ingredientView, 0, len(product.Ingredients))
	for _, ing := range product.Ingredients {
		views = append(views, ingredientView{
			Ingredient: ing,
			ReasonHTML: utils.RenderMarkdown(ing.Reason),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"product":     product,
		"ingredients": views,
	})
}

// GetByBarcode 扫码查询（消费端热路径，走本地 LRU 缓存）。
// 查不到时返回 404 并提示可以投票众筹检测，顺带附上该条码当前的众筹进度。
func (h *ProductHandler) GetByBarcode(c *gin.Context) {
	barcode := c.Param("barcode")
	cacheKey := "product:barcode:" + barcode

	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		c.JSON(http.StatusOK, cached.(gin.H))
		return
	}

	var product models.Product
	err := db.DB.Preload("Ingredients").Where("barcode = ?", barcode).First(&product).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			JSONError(c, http.StatusInternalServerError, err.Error())
			return
		}

		// 未检测过的条码：告诉前端可以发起众筹投票
		resp := gin.H{
			"error":    "product not tested yet",
			"can_vote": true,
		}
		var pv models.ProductVote
		if err := db.DB.Where("barcode = ?", barcode).First(&pv).Error; err == nil {
			resp["queue_entry"] = pv
		}
		c.JSON(http.StatusNotFound, resp)
		return
	}

	resp := gin.H{"product": product}
	// 评级变更靠级联 Purge 缓存，TTL 只是兜底
	utils.GetCache().Set(cacheKey, resp, 5*time.Minute)
	c.JSON(http.StatusOK, resp)
}

type productRequest struct {
	Name          string `json:"name" binding:"required"`
	Brand         string `json:"brand"`
	Barcode       string `json:"barcode"`
	IngredientIDs []uint `json:"ingredient_ids"`
}

// Create 管理端录入产品（通常来自实验室检测结果），录入时即计算评级
func (h *ProductHandler) Create(c *gin.Context) {
	if currentAdmin(c) == nil {
		c.Status(http.StatusForbidden)
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "name is required")
		return
	}

	var ingredients []models.Ingredient
	if len(req.IngredientIDs) > 0 {
		db.DB.Find(&ingredients, req.IngredientIDs)
	}

	product := models.Product{
		Pid:         utils.GenerateRandomCode(8),
		Name:        req.Name,
		Brand:       req.Brand,
		Barcode:     req.Barcode,
		Ingredients: ingredients,
	}

	res := services.ResolveVerdict(&product, req.IngredientIDs, services.LookupFromIngredients(ingredients))
	product.Verdict = res.Verdict
	product.RuleApplied = res.RuleApplied

	if err := db.DB.Create(&product).Error; err != nil {
		JSONError(c, http.StatusConflict, "product with this pid/barcode already exists")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// Update 管理端编辑产品；成分变化后重算评级（覆盖状态除外）
func (h *ProductHandler) Update(c *gin.Context) {
	if currentAdmin(c) == nil {
		c.Status(http.StatusForbidden)
		return
	}

	var product models.Product
	if err := db.DB.Preload("Ingredients").Where("pid = ?", c.Param("pid")).First(&product).Error; err != nil {
		JSONError(c, http.StatusNotFound, "product not found")
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "name is required")
		return
	}

	updates := map[string]interface{}{
		"name":    req.Name,
		"brand":   req.Brand,
		"barcode": req.Barcode,
	}
	if err := db.DB.Model(&product).Updates(updates).Error; err != nil {
		JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if req.IngredientIDs != nil {
		var ingredients []models.Ingredient
		if len(req.IngredientIDs) > 0 {
			db.DB.Find(&ingredients, req.IngredientIDs)
		}
		if err := db.DB.Model(&product).Association("Ingredients").Replace(ingredients); err != nil {
			JSONError(c, http.StatusInternalServerError, err.Error())
			return
		}
		product.Ingredients = ingredients
	}

	if _, err := services.RecomputeProductVerdict(&product); err != nil {
		JSONError(c, http.StatusInternalServerError, err.Error())
		return
	}
	utils.GetCache().Delete("product:barcode:" + product.Barcode)

	c.JSON(http.StatusOK, product)
}

type overrideRequest struct {
	Enable  bool           `json:"enable"`
	Verdict models.Verdict `json:"verdict"` // 开启覆盖时人工指定的评级
	Reason  string         `json:"reason"`
}

// Override 设置/撤销人工覆盖。
// 开启后级联永远不会改写该产品的评级；撤销时立即按成分重算一次。
func (h *ProductHandler) Override(c *gin.Context) {
	admin := currentAdmin(c)
	if admin == nil {
		c.Status(http.StatusForbidden)
		return
	}

	var product models.Product
	if err := db.DB.Preload("Ingredients").Where("pid = ?", c.Param("pid")).First(&product).Error; err != nil {
		JSONError(c, http.StatusNotFound, "product not found")
		return
	}

	var req overrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		JSONError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Enable {
		if req.Reason == "" {
			JSONError(c, http.StatusBadRequest, "override reason is required")
			return
		}
		if !req.Verdict.IsValid() {
			JSONError(c, http.StatusBadRequest, "invalid verdict (want safe/caution/avoid/unknown)")
			return
		}

		now := time.Now()
		err := db.DB.Model(&product).Updates(map[string]interface{}{
			"verdict":                 req.Verdict,
			"rule_applied":            "manual_override",
			"verdict_override":        true,
			"verdict_override_reason": req.Reason,
			"overridden_by":           admin.Username,
			"overridden_at":           now,
		}).Error
		if err != nil {
			JSONError(c, http.StatusInternalServerError, err.Error())
			return
		}
	} else {
		err := db.DB.Model(&product).Updates(map[string]interface{}{
			"verdict_override":        false,
			"verdict_override_reason": "",
			"overridden_by":           "",
			"overridden_at":           nil,
		}).Error
		if err != nil {
			JSONError(c, http.StatusInternalServerError, err.Error())
			return
		}

		// 撤销覆盖后立即重算
		product.VerdictOverride = false
		if _, err := services.RecomputeProductVerdict(&product); err != nil {
			JSONError(c, http.StatusInternalServerError, err.Error())
			return
		}
	}

	utils.GetCache().Delete("product:barcode:" + product.Barcode)

	var fresh models.Product
	db.DB.Where("pid = ?", product.Pid).First(&fresh)
	c.JSON(http.StatusOK, fresh)
}
