package models

import "testing"

func TestDeriveClassificationPurity(t *testing.T) {
	cases := []struct {
		onHand        bool
		hasOperations bool
		want          Classification
	}{
		{true, false, ClassificationATP},
		{false, false, ClassificationATPFuture},
		{true, true, ClassificationCTP},
		{false, true, ClassificationCTP},
	}
	for _, tc := range cases {
		if got := DeriveClassification(tc.onHand, tc.hasOperations); got != tc.want {
			t.Errorf("DeriveClassification(%v, %v) = %s, want %s", tc.onHand, tc.hasOperations, got, tc.want)
		}
	}
}

func TestNeedsAllocationPartition(t *testing.T) {
	specialPlants := []string{"754F", "756F"}

	ordinary := OrderLine{Plant: "751F"}
	if !ordinary.NeedsAllocation(OrderTypeDomestic, specialPlants) {
		t.Error("ordinary line must go to the planning engine")
	}

	container := OrderLine{Plant: "751F", ItemCategory: ItemCategoryContainer}
	if container.NeedsAllocation(OrderTypeDomestic, specialPlants) {
		t.Error("container line always bypasses allocation")
	}

	special := OrderLine{Plant: "754F"}
	if special.NeedsAllocation(OrderTypeExport, specialPlants) {
		t.Error("special-plant line always bypasses allocation")
	}

	outsourced := OrderLine{Plant: "751F", IsOutsource: true}
	if outsourced.NeedsAllocation(OrderTypeExport, specialPlants) {
		t.Error("outsourced material bypasses allocation on export orders")
	}
	if !outsourced.NeedsAllocation(OrderTypeDomestic, specialPlants) {
		t.Error("outsourced material still needs allocation on domestic orders")
	}
}

func TestGradeGram(t *testing.T) {
	if got := GradeGram("CA125D1000117094N"); got != "CA125D1000" {
		t.Errorf("GradeGram = %q, want CA125D1000", got)
	}
	if got := GradeGram("SHORT"); got != "SHORT" {
		t.Errorf("GradeGram of a short code = %q, want unchanged", got)
	}
}
