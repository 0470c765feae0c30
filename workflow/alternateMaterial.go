package workflow

import (
	"context"
	"sort"

	"github.com/mmdatafocus/eorder_backend/models"
)

// ResolutionReason says why an alternate candidate (or a whole line) yielded
// no substitution.
type ResolutionReason string

const (
	ReasonNotMatched              ResolutionReason = "NOT_MATCHED"
	ReasonNoMaterialInContract    ResolutionReason = "NO_MATERIAL_IN_CONTRACT"
	ReasonNoMaterialDetermination ResolutionReason = "NO_MATERIAL_DETERMINATION"
	ReasonNotEnoughQtyInContract  ResolutionReason = "NOT_ENOUGH_QTY_IN_CONTRACT"
)

// RejectedAlternate records one candidate dropped by the pipeline.
type RejectedAlternate struct {
	Code   string
	Reason ResolutionReason
}

// LineAlternates is the resolution result for one order line. Codes is the
// priority-ordered list offered to the planning engine; empty Codes plus a
// Reason means no substitute survived.
type LineAlternates struct {
	Codes    []string
	Reason   ResolutionReason
	Rejected []RejectedAlternate
}

// ResolveAlternateMaterials runs the substitution pipeline for one line:
// rule match, entitlement check for prefix matches, contract coverage, then
// remaining-quantity check in tons. Survivors keep their configured priority
// order.
func ResolveAlternateMaterials(ctx context.Context, master MasterDataStore, order *models.Order, line *models.OrderLine) (*LineAlternates, error) {
	result := &LineAlternates{}

	candidates, err := master.AlternateCandidates(ctx, order.SoldTo, line.MaterialCode)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		result.Reason = ReasonNotMatched
		return result, nil
	}

	type survivor struct {
		code     string
		priority int
	}
	var survivors []survivor

	for _, cand := range candidates {
		if cand.MatchedByPrefix {
			entitled, err := master.HasMaterialDetermination(ctx, order.SoldTo, cand.Code)
			if err != nil {
				return nil, err
			}
			if !entitled {
				result.Rejected = append(result.Rejected, RejectedAlternate{Code: cand.Code, Reason: ReasonNoMaterialDetermination})
				continue
			}
		}

		cm, err := master.ContractMaterial(ctx, order.ContractNo, cand.Code)
		if err != nil {
			return nil, err
		}
		if cm == nil {
			result.Rejected = append(result.Rejected, RejectedAlternate{Code: cand.Code, Reason: ReasonNoMaterialInContract})
			continue
		}

		requestedTons := line.RequestQty.Mul(cm.ConversionFactor)
		if cm.RemainingTons().LessThan(requestedTons) {
			result.Rejected = append(result.Rejected, RejectedAlternate{Code: cand.Code, Reason: ReasonNotEnoughQtyInContract})
			continue
		}

		survivors = append(survivors, survivor{code: cand.Code, priority: cand.Priority})
	}

	if len(survivors) == 0 {
		if len(result.Rejected) > 0 {
			result.Reason = result.Rejected[0].Reason
		} else {
			result.Reason = ReasonNotMatched
		}
		return result, nil
	}

	sort.SliceStable(survivors, func(i, j int) bool { return survivors[i].priority < survivors[j].priority })
	for _, s := range survivors {
		result.Codes = append(result.Codes, s.code)
	}
	return result, nil
}
