package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/shopspring/decimal"
)

// ApplyAllocation persists a fully successful engine answer: confirmed
// quantities and dates on existing lines, fresh sub-lines for engine splits.
// The order's line-number counter is advanced and saved BEFORE any sub-line
// is written, so a crash between the two can waste numbers but never reuse
// one.
func ApplyAllocation(ctx context.Context, store OrderStore, order *models.Order, outcomes []LineOutcome) error {
	byItemNo := make(map[models.ItemNo]*models.OrderLine, len(order.Lines))
	for _, line := range order.Lines {
		byItemNo[line.ItemNo] = line
	}

	grouped := make(map[models.ItemNo][]LineOutcome)
	for _, o := range outcomes {
		grouped[o.ItemNo] = append(grouped[o.ItemNo], o)
	}

	splitCount := 0
	for itemNo, group := range grouped {
		if _, ok := byItemNo[itemNo]; !ok {
			return fmt.Errorf("engine answered unknown line %s", itemNo)
		}
		if len(group) > 1 {
			splitCount += len(group) - 1
		}
	}

	nextItemNo := 0
	if splitCount > 0 {
		first, err := store.AdvanceLatestItemNo(ctx, order, splitCount)
		if err != nil {
			return err
		}
		nextItemNo = first
	}

	var dirtyLines []*models.OrderLine
	var dirtyAllocs []*models.OrderLineIplan
	var newLines []*models.OrderLine
	var newOutcomes []LineOutcome

	// Deterministic order so retries write the same sub-line numbering.
	itemNos := make([]models.ItemNo, 0, len(grouped))
	for itemNo := range grouped {
		itemNos = append(itemNos, itemNo)
	}
	sort.Slice(itemNos, func(i, j int) bool { return itemNos[i].Int() < itemNos[j].Int() })

	for _, itemNo := range itemNos {
		group := grouped[itemNo]
		sort.Slice(group, func(i, j int) bool { return group[i].SplitSeq < group[j].SplitSeq })

		parent := byItemNo[itemNo]
		applyOutcomeToLine(parent, group[0])
		dirtyLines = append(dirtyLines, parent)
		dirtyAllocs = append(dirtyAllocs, parent.Iplan)

		for _, extra := range group[1:] {
			sub := &models.OrderLine{
				OrderId:      order.ID,
				ItemNo:       models.ItemNoFromInt(nextItemNo),
				MaterialCode: parent.MaterialCode,
				Plant:        parent.Plant,
				ItemCategory: parent.ItemCategory,
				SalesUnit:    parent.SalesUnit,
				RequestQty:   extra.ConfirmedQty,
				RequestDate:  parent.RequestDate,
				IsOutsource:  parent.IsOutsource,
				IsNew:        true,
			}
			nextItemNo += models.ItemNoStep
			applyOutcomeToLine(sub, extra)
			newLines = append(newLines, sub)
			newOutcomes = append(newOutcomes, extra)
		}
	}

	if err := store.SaveLines(ctx, dirtyLines); err != nil {
		return err
	}
	if len(newLines) > 0 {
		if err := store.SaveLines(ctx, newLines); err != nil {
			return err
		}
		// Sub-line allocation rows need the ids assigned on insert.
		for i, sub := range newLines {
			alloc := buildAllocation(newOutcomes[i])
			alloc.OrderLineId = sub.ID
			sub.Iplan = alloc
			dirtyAllocs = append(dirtyAllocs, alloc)
		}
		order.Lines = append(order.Lines, newLines...)
	}
	return store.SaveAllocations(ctx, dirtyAllocs)
}

func applyOutcomeToLine(line *models.OrderLine, o LineOutcome) {
	line.ConfirmedQty = o.ConfirmedQty
	line.ConfirmedDate = o.ConfirmedDate
	if o.WarehouseCode != "" {
		line.Plant = o.WarehouseCode
	}
	line.AttentionType = models.AttentionNone
	line.SetStatus(models.ItemStatusBeingProcess)

	if line.ID != 0 {
		alloc := line.Iplan
		if alloc == nil {
			alloc = &models.OrderLineIplan{OrderLineId: line.ID}
		}
		fillAllocation(alloc, o)
		line.Iplan = alloc
	}
}

func buildAllocation(o LineOutcome) *models.OrderLineIplan {
	alloc := &models.OrderLineIplan{}
	fillAllocation(alloc, o)
	return alloc
}

func fillAllocation(alloc *models.OrderLineIplan, o LineOutcome) {
	alloc.OnHandStock = o.OnHand
	alloc.ConfirmedQty = o.ConfirmedQty
	alloc.ConfirmedDate = o.ConfirmedDate
	alloc.Classification = o.Classification
	alloc.BlockCode = o.BlockCode
	alloc.RunCode = o.RunCode
	alloc.WorkCentreCode = o.WorkCentreCode
	alloc.PaperMachine = o.PaperMachine

	if ops, err := json.Marshal(o.Operations); err == nil && len(o.Operations) > 0 {
		alloc.OperationsJSON = ops
	} else {
		alloc.OperationsJSON = nil
	}
	if raw, err := json.Marshal(o.Raw); err == nil {
		alloc.RetainedResponseJSON = raw
	}
}

// RevertAllocation undoes the local effects of ApplyAllocation once the
// reservation has been released remotely. Without this, lines keep confirmed
// values and retained payloads describing a reservation that no longer
// exists, leaving the order half-written.
func RevertAllocation(ctx context.Context, store OrderStore, order *models.Order) error {
	var dirtyLines []*models.OrderLine
	var dirtyAllocs []*models.OrderLineIplan
	for _, line := range order.Lines {
		alloc := line.Iplan
		if alloc == nil || len(alloc.RetainedResponseJSON) == 0 {
			continue
		}
		line.ConfirmedQty = decimal.Zero
		line.ConfirmedDate = nil
		line.SetStatus(models.ItemStatusCreated)

		alloc.OnHandStock = false
		alloc.ConfirmedQty = decimal.Zero
		alloc.ConfirmedDate = nil
		alloc.Classification = ""
		alloc.BlockCode = ""
		alloc.RunCode = ""
		alloc.WorkCentreCode = ""
		alloc.PaperMachine = ""
		alloc.OperationsJSON = nil
		alloc.RetainedResponseJSON = nil

		dirtyLines = append(dirtyLines, line)
		dirtyAllocs = append(dirtyAllocs, alloc)
	}
	if err := store.SaveLines(ctx, dirtyLines); err != nil {
		return err
	}
	return store.SaveAllocations(ctx, dirtyAllocs)
}

// ApplyRejections marks the lines the engine refused: rejected status, R1
// attention, confirmed fields cleared. Lines whose reservations succeeded are
// left untouched; the caller rolls those back remotely.
func ApplyRejections(ctx context.Context, store OrderStore, order *models.Order, outcomes []LineOutcome) error {
	byItemNo := make(map[models.ItemNo]*models.OrderLine, len(order.Lines))
	for _, line := range order.Lines {
		byItemNo[line.ItemNo] = line
	}

	var dirty []*models.OrderLine
	for _, o := range FailedOutcomes(outcomes) {
		line, ok := byItemNo[o.ItemNo]
		if !ok {
			continue
		}
		line.SetStatus(models.ItemStatusRejected)
		line.AttentionType = models.AttentionR1
		line.ConfirmedQty = decimal.Zero
		line.ConfirmedDate = nil
		if line.Iplan != nil {
			line.Iplan.ConfirmedQty = decimal.Zero
			line.Iplan.ConfirmedDate = nil
			line.Iplan.Classification = ""
			line.Iplan.RetainedResponseJSON = nil
		}
		dirty = append(dirty, line)
	}
	return store.SaveLines(ctx, dirty)
}

// FlagAttention stamps an attention marker on the given lines.
func FlagAttention(ctx context.Context, store OrderStore, lines []*models.OrderLine, attention models.AttentionType) error {
	for _, line := range lines {
		line.AttentionType = attention
	}
	return store.SaveLines(ctx, lines)
}

// ClearRetainedResponses drops the raw engine payloads kept for rollback,
// once COMMIT has been acknowledged.
func ClearRetainedResponses(ctx context.Context, store OrderStore, lines []*models.OrderLine) error {
	var dirty []*models.OrderLineIplan
	for _, line := range lines {
		if line.Iplan != nil && len(line.Iplan.RetainedResponseJSON) > 0 {
			line.Iplan.RetainedResponseJSON = nil
			dirty = append(dirty, line.Iplan)
		}
	}
	return store.SaveAllocations(ctx, dirty)
}
