package services

import (
	"safescan/internal/models"
	"testing"
)

func lookupFor(ings ...models.Ingredient) VerdictLookup {
	return LookupFromIngredients(ings)
}

func TestResolveVerdictHighestSeverityWins(t *testing.T) {
	ings := []models.Ingredient{
		{ID: 1, Name: "Citric Acid", Verdict: models.VerdictSafe},
		{ID: 2, Name: "Red Dye 40", Verdict: models.VerdictAvoid},
		{ID: 3, Name: "Aspartame", Verdict: models.VerdictCaution},
	}
	product := &models.Product{Verdict: models.VerdictUnknown}

	res := ResolveVerdict(product, []uint{1, 2, 3}, lookupFor(ings...))
	if res.Verdict != models.VerdictAvoid {
		t.Errorf("Expected avoid, got %s", res.Verdict)
	}
	if res.RuleApplied != "ingredient:Red Dye 40:avoid" {
		t.Errorf("Expected rule citing Red Dye 40, got %q", res.RuleApplied)
	}
	if !res.Changed {
		t.Error("Expected Changed=true for unknown → avoid")
	}
}

func TestResolveVerdictCautionBeatsSafe(t *testing.T) {
	ings := []models.Ingredient{
		{ID: 1, Name: "Citric Acid", Verdict: models.VerdictSafe},
		{ID: 2, Name: "Titanium Dioxide", Verdict: models.VerdictCaution},
	}
	product := &models.Product{Verdict: models.VerdictUnknown}

	res := ResolveVerdict(product, []uint{1, 2}, lookupFor(ings...))
	if res.Verdict != models.VerdictCaution {
		t.Errorf("Expected caution, got %s", res.Verdict)
	}
}

func TestResolveVerdictAllSafe(t *testing.T) {
	ings := []models.Ingredient{
		{ID: 1, Name: "Citric Acid", Verdict: models.VerdictSafe},
		{ID: 2, Name: "Ascorbic Acid", Verdict: models.VerdictSafe},
	}
	product := &models.Product{Verdict: models.VerdictUnknown}

	res := ResolveVerdict(product, []uint{1, 2}, lookupFor(ings...))
	if res.Verdict != models.VerdictSafe {
		t.Errorf("Expected safe, got %s", res.Verdict)
	}
}

func TestResolveVerdictOverrideSkipsResolver(t *testing.T) {
	ings := []models.Ingredient{
		{ID: 1, Name: "Red Dye 40", Verdict: models.VerdictAvoid},
	}
	product := &models.Product{
		Verdict:         models.VerdictSafe,
		RuleApplied:     "manual_override",
		VerdictOverride: true,
	}

	res := ResolveVerdict(product, []uint{1}, lookupFor(ings...))
	if !res.Overridden {
		t.Error("Expected Overridden=true")
	}
	if res.Changed {
		t.Error("Override must never produce a change")
	}
	if res.Verdict != models.VerdictSafe || res.RuleApplied != "manual_override" {
		t.Errorf("Stored verdict must stand as-is, got %s / %q", res.Verdict, res.RuleApplied)
	}
}

func TestResolveVerdictMissingIngredientDegradesToUnknown(t *testing.T) {
	ings := []models.Ingredient{
		{ID: 1, Name: "Citric Acid", Verdict: models.VerdictSafe},
	}
	product := &models.Product{Verdict: models.VerdictUnknown}

	// ID 99 无法解析：按 unknown 降级，不中断其余成分
	res := ResolveVerdict(product, []uint{1, 99}, lookupFor(ings...))
	if res.Verdict != models.VerdictSafe {
		t.Errorf("Expected safe (missing ref degrades to unknown, safe wins), got %s", res.Verdict)
	}

	// 只有无法解析的引用时整体为 unknown
	res = ResolveVerdict(&models.Product{Verdict: models.VerdictSafe}, []uint{99}, lookupFor(ings...))
	if res.Verdict != models.VerdictUnknown {
		t.Errorf("Expected unknown for all-missing refs, got %s", res.Verdict)
	}
}

func TestResolveVerdictEmptyIngredientList(t *testing.T) {
	product := &models.Product{Verdict: models.VerdictUnknown}
	res := ResolveVerdict(product, nil, lookupFor())
	if res.Verdict != models.VerdictUnknown {
		t.Errorf("Expected unknown for empty list, got %s", res.Verdict)
	}
	if res.Changed {
		t.Error("unknown → unknown must not be a change")
	}
}

func TestResolveVerdictIdempotent(t *testing.T) {
	ings := []models.Ingredient{
		{ID: 1, Name: "Red Dye 40", Verdict: models.VerdictAvoid},
	}
	product := &models.Product{Verdict: models.VerdictUnknown}

	first := ResolveVerdict(product, []uint{1}, lookupFor(ings...))
	if !first.Changed {
		t.Fatal("Expected first resolution to change the verdict")
	}

	// 模拟落库后再算一次：输入不变，结果相同且 Changed=false
	product.Verdict = first.Verdict
	product.RuleApplied = first.RuleApplied
	second := ResolveVerdict(product, []uint{1}, lookupFor(ings...))
	if second.Verdict != first.Verdict {
		t.Errorf("Recomputation changed the verdict: %s → %s", first.Verdict, second.Verdict)
	}
	if second.Changed {
		t.Error("Recomputing with unchanged inputs must report Changed=false")
	}
}
