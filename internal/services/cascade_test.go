package services

import (
	"fmt"
	"testing"

	"safescan/internal/db"
	"safescan/internal/models"
)

// seedCascadeFixture 种出规格里的场景：
// Red Dye 40 引用于两个产品，其中一个处于人工覆盖
func seedCascadeFixture(t *testing.T) (redDye models.Ingredient, normal, overridden models.Product) {
	t.Helper()

	redDye = models.Ingredient{Name: "Red Dye 40", Verdict: models.VerdictSafe, AutoFlagProducts: true}
	citric := models.Ingredient{Name: "Citric Acid", Verdict: models.VerdictSafe, AutoFlagProducts: true}
	if err := db.DB.Create(&redDye).Error; err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}
	if err := db.DB.Create(&citric).Error; err != nil {
		t.Fatalf("seed ingredient: %v", err)
	}

	normal = models.Product{
		Pid: "prd00001", Name: "Fruity Rings", Barcode: "1000000000001",
		Verdict:     models.VerdictSafe,
		Ingredients: []models.Ingredient{redDye, citric},
	}
	overridden = models.Product{
		Pid: "prd00002", Name: "Berry Pops", Barcode: "1000000000002",
		Verdict:               models.VerdictSafe,
		RuleApplied:           "manual_override",
		VerdictOverride:       true,
		VerdictOverrideReason: "lab re-verified formulation",
		Ingredients:           []models.Ingredient{redDye},
	}
	if err := db.DB.Create(&normal).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	if err := db.DB.Create(&overridden).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return redDye, normal, overridden
}

func TestCascadeRedDye40Scenario(t *testing.T) {
	setupTestDB(t)
	redDye, normal, overridden := seedCascadeFixture(t)

	// 管理端先落库新评级，再触发级联
	db.DB.Model(&redDye).UpdateColumn("verdict", models.VerdictAvoid)
	redDye.Verdict = models.VerdictAvoid

	result := OnIngredientVerdictChanged(&redDye, models.VerdictSafe, models.VerdictAvoid)

	if result.FlaggedCount != 1 {
		t.Errorf("Expected flagged_count 1, got %d", result.FlaggedCount)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}

	// 未覆盖的产品：评级变 avoid，RuleApplied 指向肇事成分
	var fresh models.Product
	db.DB.First(&fresh, normal.ID)
	if fresh.Verdict != models.VerdictAvoid {
		t.Errorf("Expected avoid, got %s", fresh.Verdict)
	}
	if fresh.RuleApplied != "ingredient:Red Dye 40:avoid" {
		t.Errorf("Expected rule citing Red Dye 40, got %q", fresh.RuleApplied)
	}

	// 覆盖的产品：评级和覆盖理由都原封不动
	var frozen models.Product
	db.DB.First(&frozen, overridden.ID)
	if frozen.Verdict != models.VerdictSafe {
		t.Errorf("Overridden product must be untouched, got %s", frozen.Verdict)
	}
	if frozen.VerdictOverrideReason != "lab re-verified formulation" {
		t.Errorf("Override reason must survive cascade, got %q", frozen.VerdictOverrideReason)
	}

	// 反规范化计数 = 本次实际改动的产品数
	var ing models.Ingredient
	db.DB.First(&ing, redDye.ID)
	if ing.FlaggedProductCount != 1 {
		t.Errorf("Expected flagged_product_count 1, got %d", ing.FlaggedProductCount)
	}
}

func TestCascadeNoopWhenVerdictUnchanged(t *testing.T) {
	setupTestDB(t)
	redDye, _, _ := seedCascadeFixture(t)

	result := OnIngredientVerdictChanged(&redDye, models.VerdictSafe, models.VerdictSafe)
	if result.FlaggedCount != 0 || len(result.Errors) != 0 {
		t.Errorf("Expected no-op for unchanged verdict, got %+v", result)
	}
}

func TestCascadeNoopWhenAutoFlagDisabled(t *testing.T) {
	setupTestDB(t)
	redDye, normal, _ := seedCascadeFixture(t)

	db.DB.Model(&redDye).UpdateColumns(map[string]interface{}{
		"verdict":            models.VerdictAvoid,
		"auto_flag_products": false,
	})
	redDye.Verdict = models.VerdictAvoid
	redDye.AutoFlagProducts = false

	result := OnIngredientVerdictChanged(&redDye, models.VerdictSafe, models.VerdictAvoid)
	if result.FlaggedCount != 0 {
		t.Errorf("Expected no cascade when auto_flag_products=false, got %d", result.FlaggedCount)
	}

	var fresh models.Product
	db.DB.First(&fresh, normal.ID)
	if fresh.Verdict != models.VerdictSafe {
		t.Errorf("Product must be untouched, got %s", fresh.Verdict)
	}
}

func TestCascadeIdempotentSecondRun(t *testing.T) {
	setupTestDB(t)
	redDye, _, _ := seedCascadeFixture(t)

	db.DB.Model(&redDye).UpdateColumn("verdict", models.VerdictAvoid)
	redDye.Verdict = models.VerdictAvoid

	first := OnIngredientVerdictChanged(&redDye, models.VerdictSafe, models.VerdictAvoid)
	if first.FlaggedCount != 1 {
		t.Fatalf("Expected first run to flag 1 product, got %d", first.FlaggedCount)
	}

	// 同样的变更再跑一遍：所有产品已是重算后的评级，不应再有改动
	second := OnIngredientVerdictChanged(&redDye, models.VerdictSafe, models.VerdictAvoid)
	if second.FlaggedCount != 0 {
		t.Errorf("Expected second run to change nothing, got %d", second.FlaggedCount)
	}
}

func TestCascadePartialFailureIsolation(t *testing.T) {
	setupTestDB(t)
	redDye, normal, _ := seedCascadeFixture(t)

	third := models.Product{
		Pid: "prd00003", Name: "Rainbow Chews", Barcode: "1000000000003",
		Verdict:     models.VerdictSafe,
		Ingredients: []models.Ingredient{redDye},
	}
	if err := db.DB.Create(&third).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}

	// 用触发器让第一个产品的评级落库必然失败，模拟单行写入故障
	db.DB.Exec(fmt.Sprintf(`CREATE TRIGGER block_one_product
BEFORE UPDATE OF verdict ON products WHEN NEW.id = %d
BEGIN SELECT RAISE(ABORT, 'disk I/O error'); END;`, normal.ID))

	db.DB.Model(&redDye).UpdateColumn("verdict", models.VerdictAvoid)
	redDye.Verdict = models.VerdictAvoid
	result := OnIngredientVerdictChanged(&redDye, models.VerdictSafe, models.VerdictAvoid)

	// 失败的产品进 Errors，批次继续
	if len(result.Errors) != 1 {
		t.Fatalf("Expected exactly 1 error, got %v", result.Errors)
	}
	if result.Errors[0].Pid != normal.Pid {
		t.Errorf("Expected error for %s, got %s", normal.Pid, result.Errors[0].Pid)
	}
	if result.FlaggedCount != 1 {
		t.Errorf("Expected the remaining product to be flagged, got %d", result.FlaggedCount)
	}

	var survivor models.Product
	db.DB.First(&survivor, third.ID)
	if survivor.Verdict != models.VerdictAvoid {
		t.Errorf("Later product must still be re-verdicted, got %s", survivor.Verdict)
	}
	var failed models.Product
	db.DB.First(&failed, normal.ID)
	if failed.Verdict != models.VerdictSafe {
		t.Errorf("Failed product must keep its old verdict, got %s", failed.Verdict)
	}

	// 反规范化计数只含真正改动的产品
	var ing models.Ingredient
	db.DB.First(&ing, redDye.ID)
	if ing.FlaggedProductCount != 1 {
		t.Errorf("Expected flagged_product_count 1, got %d", ing.FlaggedProductCount)
	}
}

func TestCascadeRevertRestoresVerdict(t *testing.T) {
	setupTestDB(t)
	redDye, normal, _ := seedCascadeFixture(t)

	db.DB.Model(&redDye).UpdateColumn("verdict", models.VerdictAvoid)
	redDye.Verdict = models.VerdictAvoid
	OnIngredientVerdictChanged(&redDye, models.VerdictSafe, models.VerdictAvoid)

	// 评级改回 safe：级联把产品也改回来，不留旧评级
	db.DB.Model(&redDye).UpdateColumn("verdict", models.VerdictSafe)
	redDye.Verdict = models.VerdictSafe
	result := OnIngredientVerdictChanged(&redDye, models.VerdictAvoid, models.VerdictSafe)

	if result.FlaggedCount != 1 {
		t.Errorf("Expected revert to change 1 product, got %d", result.FlaggedCount)
	}
	var fresh models.Product
	db.DB.First(&fresh, normal.ID)
	if fresh.Verdict != models.VerdictSafe {
		t.Errorf("Expected product back to safe, got %s", fresh.Verdict)
	}
}
