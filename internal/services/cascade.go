package services

import (
	"log"
	"safescan/internal/db"
	"safescan/internal/models"
	"safescan/internal/utils"
)

// CascadeError 级联中单个产品的更新失败记录
type CascadeError struct {
	ProductID uint   `json:"product_id"`
	Pid       string `json:"pid"`
	Error     string `json:"error"`
}

// CascadeResult 一次级联运行的结果
type CascadeResult struct {
	FlaggedCount int            `json:"flagged_count"`
	Errors       []CascadeError `json:"errors"`
}

// cascadePageSize 分页大小，避免无界扫描把请求拖死
const cascadePageSize = 500

// OnIngredientVerdictChanged 成分评级变更后的级联重算。
//
// 仅在评级真正变化且 AutoFlagProducts=true 时执行。逐页（keyset 分页）拉取
// 引用该成分的产品，跳过人工覆盖的，显式调用纯函数解析器，结果有变化才落库。
// 单个产品失败只记录到 Errors，不中断批次（尽力而为，跨产品不开事务）。
//
// 可观察副作用：新评级为 avoid 时，把成分的 FlaggedProductCount 更新为
// 本次实际改动的产品数。
func OnIngredientVerdictChanged(ing *models.Ingredient, prev, next models.Verdict) CascadeResult {
	result := CascadeResult{Errors: []CascadeError{}}

	if prev == next || !ing.AutoFlagProducts {
		return result
	}

	log.Printf("成分 %s 评级变更 %s → %s，开始级联重算", ing.Name, prev, next)

	changed := 0
	lastID := uint(0)
	for {
		var products []models.Product
		err := db.DB.Preload("Ingredients").
			Joins("JOIN product_ingredients pi ON pi.product_id = products.id").
			Where("pi.ingredient_id = ? AND products.id > ?", ing.ID, lastID).
			Order("products.id").
			Limit(cascadePageSize).
			Find(&products).Error
		if err != nil {
			// 分页查询本身失败属于存储不可用，记录后终止本次级联（重试交给调用方）
			log.Printf("级联分页查询失败 (ingredient=%d, after=%d): %v", ing.ID, lastID, err)
			result.Errors = append(result.Errors, CascadeError{Error: "page query failed: " + err.Error()})
			break
		}
		if len(products) == 0 {
			break
		}

		for i := range products {
			p := &products[i]
			lastID = p.ID

			if p.VerdictOverride {
				// 人工覆盖的产品级联永远不碰
				continue
			}

			res := ResolveVerdict(p, ingredientIDs(p.Ingredients), LookupFromIngredients(p.Ingredients))
			if !res.Changed {
				continue
			}

			err := db.DB.Model(&models.Product{}).Where("id = ?", p.ID).
				UpdateColumns(map[string]interface{}{
					"verdict":      res.Verdict,
					"rule_applied": res.RuleApplied,
				}).Error
			if err != nil {
				// 单个产品失败不中断其余产品
				log.Printf("级联更新产品 %s 失败: %v", p.Pid, err)
				result.Errors = append(result.Errors, CascadeError{ProductID: p.ID, Pid: p.Pid, Error: err.Error()})
				continue
			}
			changed++
		}

		if len(products) < cascadePageSize {
			break
		}
	}

	result.FlaggedCount = changed

	// FlaggedProductCount 是派生缓存，只由级联重算，不作为事实来源
	if next == models.VerdictAvoid {
		if err := db.DB.Model(&models.Ingredient{}).Where("id = ?", ing.ID).
			UpdateColumn("flagged_product_count", changed).Error; err != nil {
			log.Printf("更新成分 %d flagged_product_count 失败: %v", ing.ID, err)
		}
	}

	// 条码缓存里可能残留旧评级
	utils.GetCache().Purge()

	log.Printf("级联完成：改动 %d 个产品，失败 %d 个", changed, len(result.Errors))
	return result
}

// RecomputeProductVerdict 重算单个产品的评级并按需落库。
// 管理端修改产品成分或撤销覆盖后调用。
func RecomputeProductVerdict(p *models.Product) (Resolution, error) {
	res := ResolveVerdict(p, ingredientIDs(p.Ingredients), LookupFromIngredients(p.Ingredients))
	if res.Overridden || !res.Changed {
		return res, nil
	}

	err := db.DB.Model(&models.Product{}).Where("id = ?", p.ID).
		UpdateColumns(map[string]interface{}{
			"verdict":      res.Verdict,
			"rule_applied": res.RuleApplied,
		}).Error
	if err != nil {
		return res, err
	}
	p.Verdict = res.Verdict
	p.RuleApplied = res.RuleApplied
	utils.GetCache().Delete("product:barcode:" + p.Barcode)
	return res, nil
}

func ingredientIDs(ingredients []models.Ingredient) []uint {
	ids := make([]uint, 0, len(ingredients))
	for _, ing := range ingredients {
		ids = append(ids, ing.ID)
	}
	return ids
}
