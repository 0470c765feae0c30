package workflow

import (
	"context"
	"testing"

	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/shopspring/decimal"
)

func masterFixture() *fakeStore {
	store := newFakeStore(testOrder())
	store.candidates = map[string][]models.AlternateCandidate{}
	store.contracts = map[string]*models.ContractMaterial{}
	store.determinations = map[string]bool{}
	return store
}

func contractMaterial(code string, remaining int64, factor string) *models.ContractMaterial {
	f, _ := decimal.NewFromString(factor)
	return &models.ContractMaterial{
		MaterialCode:     code,
		RemainingQty:     decimal.NewFromInt(remaining),
		ConversionFactor: f,
	}
}

func altOrder() *models.Order {
	return &models.Order{ID: 7, SoldTo: "100001", ContractNo: "CT-2026-001"}
}

func altLine(material string, qty int64) *models.OrderLine {
	return &models.OrderLine{ItemNo: models.ItemNoFromInt(10), MaterialCode: material, RequestQty: decimal.NewFromInt(qty)}
}

func TestResolveAlternatesQuantityFilter(t *testing.T) {
	store := masterFixture()
	store.candidates["CA125D100"] = []models.AlternateCandidate{
		{Code: "CA125D090", Priority: 1},
		{Code: "CA125D110", Priority: 2},
	}
	// 1 sales unit = 1 ton; only the second alternate can cover 100 tons.
	store.contracts["CA125D090"] = contractMaterial("CA125D090", 40, "1")
	store.contracts["CA125D110"] = contractMaterial("CA125D110", 500, "1")

	result, err := ResolveAlternateMaterials(context.Background(), store, altOrder(), altLine("CA125D100", 100))
	if err != nil {
		t.Fatalf("ResolveAlternateMaterials: %v", err)
	}
	for _, code := range result.Codes {
		if code == "CA125D090" {
			t.Fatal("under-covered alternate must never reach the candidate list")
		}
	}
	if len(result.Codes) != 1 || result.Codes[0] != "CA125D110" {
		t.Errorf("codes = %v, want [CA125D110]", result.Codes)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Reason != ReasonNotEnoughQtyInContract {
		t.Errorf("rejected = %+v, want one NOT_ENOUGH_QTY_IN_CONTRACT", result.Rejected)
	}
}

func TestResolveAlternatesConversionFactorApplies(t *testing.T) {
	store := masterFixture()
	store.candidates["CA125D100"] = []models.AlternateCandidate{{Code: "CA125D090", Priority: 1}}
	// 0.5 tons per unit: 100 requested units need 50 tons, 80 units remain
	// (= 40 tons), so the candidate falls short despite 80 > 50.
	store.contracts["CA125D090"] = contractMaterial("CA125D090", 80, "0.5")

	result, err := ResolveAlternateMaterials(context.Background(), store, altOrder(), altLine("CA125D100", 100))
	if err != nil {
		t.Fatalf("ResolveAlternateMaterials: %v", err)
	}
	if len(result.Codes) != 0 {
		t.Errorf("codes = %v, want none", result.Codes)
	}
	if result.Reason != ReasonNotEnoughQtyInContract {
		t.Errorf("reason = %s, want NOT_ENOUGH_QTY_IN_CONTRACT", result.Reason)
	}
}

func TestResolveAlternatesPrefixMatchNeedsDetermination(t *testing.T) {
	store := masterFixture()
	store.candidates["CA125D100"] = []models.AlternateCandidate{
		{Code: "CA125D085", Priority: 1, MatchedByPrefix: true},
		{Code: "CA125D095", Priority: 2, MatchedByPrefix: true},
	}
	store.determinations["CA125D095"] = true
	store.contracts["CA125D085"] = contractMaterial("CA125D085", 1000, "1")
	store.contracts["CA125D095"] = contractMaterial("CA125D095", 1000, "1")

	result, err := ResolveAlternateMaterials(context.Background(), store, altOrder(), altLine("CA125D100", 100))
	if err != nil {
		t.Fatalf("ResolveAlternateMaterials: %v", err)
	}
	if len(result.Codes) != 1 || result.Codes[0] != "CA125D095" {
		t.Errorf("codes = %v, want [CA125D095]", result.Codes)
	}
	if len(result.Rejected) != 1 || result.Rejected[0].Reason != ReasonNoMaterialDetermination {
		t.Errorf("rejected = %+v, want one NO_MATERIAL_DETERMINATION", result.Rejected)
	}
}

func TestResolveAlternatesExactMatchSkipsDetermination(t *testing.T) {
	store := masterFixture()
	store.candidates["CA125D100"] = []models.AlternateCandidate{{Code: "CA125D090", Priority: 1}}
	store.contracts["CA125D090"] = contractMaterial("CA125D090", 1000, "1")

	result, err := ResolveAlternateMaterials(context.Background(), store, altOrder(), altLine("CA125D100", 100))
	if err != nil {
		t.Fatalf("ResolveAlternateMaterials: %v", err)
	}
	if len(result.Codes) != 1 {
		t.Errorf("codes = %v, want the exact-rule alternate without an entitlement check", result.Codes)
	}
}

func TestResolveAlternatesNoContractCoverage(t *testing.T) {
	store := masterFixture()
	store.candidates["CA125D100"] = []models.AlternateCandidate{{Code: "CA125D090", Priority: 1}}

	result, err := ResolveAlternateMaterials(context.Background(), store, altOrder(), altLine("CA125D100", 100))
	if err != nil {
		t.Fatalf("ResolveAlternateMaterials: %v", err)
	}
	if len(result.Codes) != 0 || result.Reason != ReasonNoMaterialInContract {
		t.Errorf("result = %+v, want NO_MATERIAL_IN_CONTRACT", result)
	}
}

func TestResolveAlternatesNoRuleMatches(t *testing.T) {
	store := masterFixture()

	result, err := ResolveAlternateMaterials(context.Background(), store, altOrder(), altLine("CA125D100", 100))
	if err != nil {
		t.Fatalf("ResolveAlternateMaterials: %v", err)
	}
	if result.Reason != ReasonNotMatched {
		t.Errorf("reason = %s, want NOT_MATCHED", result.Reason)
	}
}

func TestResolveAlternatesPriorityOrder(t *testing.T) {
	store := masterFixture()
	store.candidates["CA125D100"] = []models.AlternateCandidate{
		{Code: "CA125D110", Priority: 5},
		{Code: "CA125D090", Priority: 1},
		{Code: "CA125D095", Priority: 3},
	}
	for _, code := range []string{"CA125D090", "CA125D095", "CA125D110"} {
		store.contracts[code] = contractMaterial(code, 1000, "1")
	}

	result, err := ResolveAlternateMaterials(context.Background(), store, altOrder(), altLine("CA125D100", 100))
	if err != nil {
		t.Fatalf("ResolveAlternateMaterials: %v", err)
	}
	want := []string{"CA125D090", "CA125D095", "CA125D110"}
	if len(result.Codes) != len(want) {
		t.Fatalf("codes = %v, want %v", result.Codes, want)
	}
	for i := range want {
		if result.Codes[i] != want[i] {
			t.Errorf("codes[%d] = %s, want %s", i, result.Codes[i], want[i])
		}
	}
}
