package services

import (
	"fmt"
	"safescan/internal/models"
)

// VerdictLookup 按成分 ID 解析当前评级的查询能力。
// 返回 false 表示成分已被删除等原因无法解析。
type VerdictLookup func(ingredientID uint) (*models.Ingredient, bool)

// Resolution 评级解析结果
type Resolution struct {
	Verdict     models.Verdict
	RuleApplied string // 产生该评级的规则标识（审计用）
	Changed     bool   // 与产品当前存储的评级是否不同
	Overridden  bool   // 产品处于人工覆盖状态，解析被跳过
}

// ResolveVerdict 计算产品的聚合安全评级。纯函数，不做任何持久化，由调用方落库。
//
// 规则：最高严重度胜出 (avoid > caution > safe > unknown)。
// 人工覆盖的产品直接跳过，存储的评级原样保留。
// 无法解析的成分引用按 unknown 处理，不中断其余成分的解析。
// 幂等：输入不变时重复计算得到相同评级且 Changed=false。
func ResolveVerdict(product *models.Product, refIDs []uint, lookup VerdictLookup) Resolution {
	if product.VerdictOverride {
		// 覆盖状态下解析器不运行
		return Resolution{
			Verdict:     product.Verdict,
			RuleApplied: product.RuleApplied,
			Overridden:  true,
		}
	}

	verdict := models.VerdictUnknown
	rule := "no_ingredients"

	for _, id := range refIDs {
		ing, ok := lookup(id)
		if !ok {
			// 成分已删除：该引用按 unknown 降级，继续处理其他成分
			candidate := models.VerdictUnknown
			if candidate.Severity() > verdict.Severity() {
				verdict = candidate
				rule = fmt.Sprintf("ingredient:%d:missing", id)
			}
			continue
		}

		iv := ing.Verdict
		if !iv.IsValid() {
			iv = models.VerdictUnknown
		}
		if iv.Severity() > verdict.Severity() {
			verdict = iv
			rule = fmt.Sprintf("ingredient:%s:%s", ing.Name, iv)
		}
	}

	return Resolution{
		Verdict:     verdict,
		RuleApplied: rule,
		Changed:     verdict != product.Verdict,
	}
}

// LookupFromIngredients 把预加载好的成分列表包装成 VerdictLookup。
// 级联分页查询时已经 Preload 了成分，避免逐个回表。
func LookupFromIngredients(ingredients []models.Ingredient) VerdictLookup {
	byID := make(map[uint]*models.Ingredient, len(ingredients))
	for i := range ingredients {
		byID[ingredients[i].ID] = &ingredients[i]
	}
	return func(id uint) (*models.Ingredient, bool) {
		ing, ok := byID[id]
		return ing, ok
	}
}
