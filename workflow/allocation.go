package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/eorder_backend/config"
	"github.com/mmdatafocus/eorder_backend/gateway"
	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// PlanningGateway is the planning-engine surface the saga drives.
type PlanningGateway interface {
	RequestPlan(ctx context.Context, req *gateway.PlanRequest) (*gateway.EngineResponse, error)
	Confirm(ctx context.Context, req *gateway.ConfirmRequest) (*gateway.EngineResponse, error)
}

// ErpGateway is the sales-document surface the saga drives.
type ErpGateway interface {
	CreateOrder(ctx context.Context, req *gateway.SapOrderRequest) (*gateway.SapOrderResponse, error)
	UpdateOrder(ctx context.Context, req *gateway.SapOrderRequest) (*gateway.SapOrderResponse, error)
}

// CommitmentEngine runs the order-commitment saga: reserve capacity in the
// planning engine, persist the sales document in the ERP, then confirm or
// release the reservation. Calls are strictly sequential; capacity is never
// reserved without a way to release it before the ERP document exists.
type CommitmentEngine struct {
	Store    OrderStore
	Master   MasterDataStore
	Planning PlanningGateway
	Erp      ErpGateway
	Logger   *logrus.Logger

	Sender            string
	SpecialPlants     []string
	AlternatesEnabled bool
	SapTestRun        bool
}

// LineMessage is one caller-facing rejection detail.
type LineMessage struct {
	ItemNo  models.ItemNo `json:"item_no,omitempty"`
	Code    string        `json:"code,omitempty"`
	Message string        `json:"message"`
}

// CommitResult is what mutation handlers and upload processors receive.
type CommitResult struct {
	Success     bool               `json:"success"`
	OrderStatus models.OrderStatus `json:"order_status"`
	SoNo        string             `json:"so_no,omitempty"`
	Messages    []LineMessage      `json:"messages,omitempty"`
}

// Commit drives one order through the full saga. A returned error is a
// transport or infrastructure fault; expected business rejections come back
// as a CommitResult with Success=false. Callers serialize per order (lock or
// single-writer queue) before calling.
func (e *CommitmentEngine) Commit(ctx context.Context, order *models.Order) (*CommitResult, error) {
	headerCode := e.headerCode(order)

	var toAllocate, bypass []*models.OrderLine
	for _, line := range order.Lines {
		if line.NeedsAllocation(order.OrderType, e.SpecialPlants) {
			toAllocate = append(toAllocate, line)
		} else {
			bypass = append(bypass, line)
		}
	}

	var outcomes []LineOutcome
	if len(toAllocate) > 0 {
		planReq, err := e.buildPlanRequest(ctx, order, toAllocate, headerCode)
		if err != nil {
			return nil, err
		}
		// Nothing is reserved until the engine answers; a transport fault
		// here needs no compensation.
		resp, err := e.Planning.RequestPlan(ctx, planReq)
		if err != nil {
			return nil, err
		}
		outcomes, err = ClassifyEngineResponse(resp)
		if err != nil {
			return nil, err
		}

		requested := requestedQuantities(toAllocate)
		if !FullySuccessful(outcomes, requested) {
			if err := ApplyRejections(ctx, e.Store, order, outcomes); err != nil {
				config.LogError(e.Logger, "workflow", "Commit", headerCode, nil, err)
			}
			e.rollback(ctx, headerCode, SuccessfulOutcomes(outcomes))
			return &CommitResult{
				Success:     false,
				OrderStatus: order.Status,
				Messages:    rejectionMessages(order, outcomes, requested),
			}, nil
		}

		if err := ApplyAllocation(ctx, e.Store, order, outcomes); err != nil {
			e.rollback(ctx, headerCode, outcomes)
			return nil, err
		}
	}
	if err := e.applyBypassDates(ctx, bypass); err != nil {
		return nil, err
	}

	erpReq := e.buildErpRequest(order)
	var erpResp *gateway.SapOrderResponse
	var err error
	if order.SoNo == "" {
		erpResp, err = e.Erp.CreateOrder(ctx, erpReq)
	} else {
		erpResp, err = e.Erp.UpdateOrder(ctx, erpReq)
	}
	if err != nil {
		// Document state unknown; release the reservation and undo the
		// local allocation writes before raising, so the order does not
		// stay half-written claiming a reservation that is gone.
		e.rollback(ctx, headerCode, outcomes)
		if revertErr := RevertAllocation(ctx, e.Store, order); revertErr != nil {
			config.LogError(e.Logger, "workflow", "Commit", headerCode, nil, revertErr)
		}
		return nil, err
	}
	if erpResp.HasError() {
		e.rollback(ctx, headerCode, outcomes)
		if revertErr := RevertAllocation(ctx, e.Store, order); revertErr != nil {
			config.LogError(e.Logger, "workflow", "Commit", headerCode, nil, revertErr)
		}
		if statusErr := e.Store.UpdateOrderStatus(ctx, order, models.OrderStatusBeingProcess); statusErr != nil {
			config.LogError(e.Logger, "workflow", "Commit", headerCode, nil, statusErr)
		}
		return &CommitResult{
			Success:     false,
			OrderStatus: models.OrderStatusBeingProcess,
			Messages:    erpMessages(erpResp),
		}, nil
	}

	if order.SoNo == "" && erpResp.Salesdocument != "" {
		order.SoNo = erpResp.Salesdocument
		if err := e.Store.SaveOrder(ctx, order); err != nil {
			return nil, err
		}
	}
	// A retried create can leave an older local row pointing at the same
	// sales document; drop it before anyone reads two orders for one.
	if err := e.Store.DeleteDuplicateOrders(ctx, order.SoNo, order.ID); err != nil {
		config.LogError(e.Logger, "workflow", "Commit", order.SoNo, nil, err)
	}

	status := models.OrderStatusComplete
	linePair := models.ItemStatusComplete
	if erpResp.CreditBlocked() {
		status = models.OrderStatusReceived
		linePair = models.ItemStatusBeingProcess
	}
	for _, line := range order.Lines {
		line.SetStatus(linePair)
	}
	if err := e.Store.SaveLines(ctx, order.Lines); err != nil {
		return nil, err
	}
	if err := e.Store.UpdateOrderStatus(ctx, order, status); err != nil {
		return nil, err
	}

	result := &CommitResult{Success: true, OrderStatus: status, SoNo: order.SoNo}
	if len(outcomes) > 0 {
		e.confirmCommit(ctx, order, headerCode)
	}
	return result, nil
}

// confirmCommit finalizes the reservation after the ERP document exists.
// There is no compensating action against a created sales document, so every
// failure here degrades to an R5 attention flag instead of failing the saga.
func (e *CommitmentEngine) confirmCommit(ctx context.Context, order *models.Order, headerCode string) {
	allocated := allocatedLines(order)
	if len(allocated) == 0 {
		return
	}

	req := e.buildCommitRequest(order, headerCode, allocated)
	ackResp, err := e.Planning.Confirm(ctx, req)
	if err != nil {
		config.LogError(e.Logger, "workflow", "confirmCommit", headerCode, nil, err)
		if flagErr := FlagAttention(ctx, e.Store, allocated, models.AttentionR5); flagErr != nil {
			config.LogError(e.Logger, "workflow", "confirmCommit", headerCode, nil, flagErr)
		}
		return
	}

	ackOutcomes, err := ClassifyEngineResponse(ackResp)
	if err != nil {
		config.LogError(e.Logger, "workflow", "confirmCommit", headerCode, nil, err)
		if flagErr := FlagAttention(ctx, e.Store, allocated, models.AttentionR5); flagErr != nil {
			config.LogError(e.Logger, "workflow", "confirmCommit", headerCode, nil, flagErr)
		}
		return
	}

	failed := make(map[models.ItemNo]bool)
	for _, o := range FailedOutcomes(ackOutcomes) {
		failed[o.ItemNo] = true
	}

	var flagged, acknowledged []*models.OrderLine
	for _, line := range allocated {
		if failed[line.ItemNo] {
			flagged = append(flagged, line)
		} else {
			acknowledged = append(acknowledged, line)
		}
	}
	if len(flagged) > 0 {
		if err := FlagAttention(ctx, e.Store, flagged, models.AttentionR5); err != nil {
			config.LogError(e.Logger, "workflow", "confirmCommit", headerCode, nil, err)
		}
	}
	if err := ClearRetainedResponses(ctx, e.Store, acknowledged); err != nil {
		config.LogError(e.Logger, "workflow", "confirmCommit", headerCode, nil, err)
	}
}

// rollback releases reserved capacity. Best-effort: a failure is logged and
// swallowed because every rollback caller is already on a failure path.
func (e *CommitmentEngine) rollback(ctx context.Context, headerCode string, reserved []LineOutcome) {
	if len(reserved) == 0 {
		return
	}
	lines := make([]gateway.ConfirmLine, 0, len(reserved))
	for _, o := range reserved {
		lineNumber := o.Raw.LineNumber
		if lineNumber == "" {
			lineNumber = o.ItemNo.Padded()
		}
		lines = append(lines, gateway.ConfirmLine{
			LineNumber: lineNumber,
			Status:     string(models.ConfirmRollback),
		})
	}
	req := &gateway.ConfirmRequest{
		DDQConfirm: gateway.DDQConfirm{
			RequestId: uuid.New().String(),
			Sender:    e.Sender,
			Headers: []gateway.ConfirmHeader{{
				HeaderCode: headerCode,
				Lines:      lines,
			}},
		},
	}
	if _, err := e.Planning.Confirm(ctx, req); err != nil {
		config.LogError(e.Logger, "workflow", "rollback", headerCode, nil, err)
	}
}

func (e *CommitmentEngine) buildPlanRequest(ctx context.Context, order *models.Order, lines []*models.OrderLine, headerCode string) (*gateway.PlanRequest, error) {
	ddqLines := make([]gateway.DDQLine, 0, len(lines))
	for _, line := range lines {
		qty, _ := line.RequestQty.Float64()
		ddqLine := gateway.DDQLine{
			LineNumber:    line.ItemNo.Padded(),
			LocationCode:  line.Plant,
			ProductCode:   line.MaterialCode,
			Quantity:      qty,
			Unit:          line.SalesUnit,
			RequestDate:   isoDate(line.RequestDate),
			InquiryMethod: gateway.InquiryMethodStandard,
		}
		if e.AlternatesEnabled && order.ContractNo != "" {
			resolution, err := ResolveAlternateMaterials(ctx, e.Master, order, line)
			if err != nil {
				// Non-fatal: the line proceeds with its requested material.
				config.LogError(e.Logger, "workflow", "buildPlanRequest", string(line.ItemNo), line.MaterialCode, err)
			} else if len(resolution.Codes) > 0 {
				ddqLine.AlternateProducts = resolution.Codes
			}
		}
		ddqLines = append(ddqLines, ddqLine)
	}
	return &gateway.PlanRequest{
		DDQRequest: gateway.DDQRequest{
			RequestId: uuid.New().String(),
			Sender:    e.Sender,
			Headers: []gateway.DDQHeader{{
				HeaderCode: headerCode,
				AutoCreate: "Y",
				Lines:      ddqLines,
			}},
		},
	}, nil
}

func (e *CommitmentEngine) buildCommitRequest(order *models.Order, headerCode string, allocated []*models.OrderLine) *gateway.ConfirmRequest {
	lines := make([]gateway.ConfirmLine, 0, len(allocated))
	for _, line := range allocated {
		confirmLine := gateway.ConfirmLine{
			LineNumber:              line.ItemNo.Padded(),
			Status:                  string(models.ConfirmCommit),
			OnHandQuantityConfirmed: "N",
		}
		if line.Iplan != nil && line.Iplan.OnHandStock {
			confirmLine.OnHandQuantityConfirmed = "Y"
		}
		if order.IsExport() {
			confirmLine.OrderInformation = []gateway.OrderInformationItem{{
				OrderNumber:           order.SoNo,
				LineNumber:            line.ItemNo.Padded(),
				ShippingMark:          order.ShippingMark,
				ProformaInvoiceNumber: order.ProformaInvoiceNo,
				CustomerName:          order.SoldToName,
				Country:               order.Country,
			}}
		}
		lines = append(lines, confirmLine)
	}
	return &gateway.ConfirmRequest{
		DDQConfirm: gateway.DDQConfirm{
			RequestId: uuid.New().String(),
			Sender:    e.Sender,
			Headers: []gateway.ConfirmHeader{{
				HeaderCode: headerCode,
				Lines:      lines,
			}},
		},
	}
}

func (e *CommitmentEngine) buildErpRequest(order *models.Order) *gateway.SapOrderRequest {
	creating := order.SoNo == ""

	req := &gateway.SapOrderRequest{
		PiMessageId: uuid.New().String(),
		OrderHeaderIn: gateway.SapOrderHeader{
			DocType:   order.DocType,
			SalesOrg:  order.SalesOrg,
			DistrChan: order.DistributionChannel,
			Division:  order.Division,
			Currency:  order.CurrencyCode,
			PmntTrms:  order.PaymentTerm,
			ReqDateH:  sapDate(order.RequestDate),
			RefDoc:    order.ContractNo,
		},
		OrderPartners: []gateway.SapPartner{
			{PartnRole: "AG", PartnNumb: order.SoldTo},
		},
	}
	if e.SapTestRun {
		req.TestRun = "X"
	}
	if order.ShipTo != "" {
		req.OrderPartners = append(req.OrderPartners, gateway.SapPartner{PartnRole: "WE", PartnNumb: order.ShipTo})
	}
	if order.BillTo != "" {
		req.OrderPartners = append(req.OrderPartners, gateway.SapPartner{PartnRole: "RE", PartnNumb: order.BillTo})
	}
	if !creating {
		req.Salesdocument = order.SoNo
		req.OrderHeaderInX = &gateway.SapOrderHeaderX{UpdateFlag: string(models.UpdateFlagUpdate)}
	}

	for _, line := range order.Lines {
		qty := line.RequestQty
		reqDate := line.RequestDate
		if !line.ConfirmedQty.IsZero() {
			qty = line.ConfirmedQty
		}
		if line.ConfirmedDate != nil {
			reqDate = line.ConfirmedDate
		} else if line.ConfirmDateUI != nil {
			reqDate = line.ConfirmDateUI
		}

		itmNumber := line.ItemNo.Padded()
		req.OrderItemsIn = append(req.OrderItemsIn, gateway.SapOrderItem{
			ItmNumber: itmNumber,
			Material:  line.MaterialCode,
			Plant:     line.Plant,
			TargetQty: qty.String(),
			TargetQu:  line.SalesUnit,
			ItemCateg: string(line.ItemCategory),
		})
		req.OrderSchedulesIn = append(req.OrderSchedulesIn, gateway.SapSchedule{
			ItmNumber: itmNumber,
			SchedLine: "0001",
			ReqDate:   sapDate(reqDate),
			ReqQty:    qty.String(),
		})
		if !creating {
			flag := string(models.UpdateFlagUpdate)
			if line.IsNew {
				flag = string(models.UpdateFlagInsert)
			}
			req.OrderItemsInX = append(req.OrderItemsInX, gateway.SapOrderItemX{
				ItmNumber:  itmNumber,
				UpdateFlag: flag,
				Material:   line.MaterialCode,
				Plant:      line.Plant,
				TargetQty:  qty.String(),
			})
			req.OrderSchedulesInX = append(req.OrderSchedulesInX, gateway.SapScheduleX{
				ItmNumber:  itmNumber,
				SchedLine:  "0001",
				UpdateFlag: flag,
				ReqDate:    sapDate(reqDate),
				ReqQty:     qty.String(),
			})
		}
	}
	return req
}

// applyBypassDates fills confirmed values for lines that never visit the
// planning engine: the user-accepted date stands in for an engine date.
func (e *CommitmentEngine) applyBypassDates(ctx context.Context, bypass []*models.OrderLine) error {
	var dirty []*models.OrderLine
	for _, line := range bypass {
		if line.ConfirmDateUI == nil {
			continue
		}
		line.ConfirmedQty = line.RequestQty
		line.ConfirmedDate = line.ConfirmDateUI
		dirty = append(dirty, line)
	}
	return e.Store.SaveLines(ctx, dirty)
}

func (e *CommitmentEngine) headerCode(order *models.Order) string {
	if order.SoNo != "" {
		return order.SoNo
	}
	return models.ItemNoFromInt(order.ID).Padded()
}

func requestedQuantities(lines []*models.OrderLine) map[models.ItemNo]decimal.Decimal {
	requested := make(map[models.ItemNo]decimal.Decimal, len(lines))
	for _, line := range lines {
		requested[line.ItemNo] = line.RequestQty
	}
	return requested
}

func rejectionMessages(order *models.Order, outcomes []LineOutcome, requested map[models.ItemNo]decimal.Decimal) []LineMessage {
	var messages []LineMessage
	answered := make(map[models.ItemNo]bool, len(outcomes))
	for _, o := range outcomes {
		answered[o.ItemNo] = true
		if o.Success {
			continue
		}
		messages = append(messages, LineMessage{
			ItemNo:  o.ItemNo,
			Code:    o.FailureCode,
			Message: o.FailureMessage,
		})
	}
	for _, line := range order.Lines {
		if _, ok := requested[line.ItemNo]; !ok {
			continue
		}
		if !answered[line.ItemNo] {
			messages = append(messages, LineMessage{
				ItemNo:  line.ItemNo,
				Message: "no allocation answer received for line",
			})
		}
	}
	return messages
}

func erpMessages(resp *gateway.SapOrderResponse) []LineMessage {
	var messages []LineMessage
	for _, m := range resp.Messages() {
		if m.Type == gateway.SapMessageError || m.Type == gateway.SapMessageAbort {
			messages = append(messages, LineMessage{Code: m.Number, Message: m.Message})
		}
	}
	return messages
}

// allocatedLines returns the lines holding a live reservation, split
// sub-lines included.
func allocatedLines(order *models.Order) []*models.OrderLine {
	var allocated []*models.OrderLine
	for _, line := range order.Lines {
		if line.Iplan != nil && len(line.Iplan.RetainedResponseJSON) > 0 {
			allocated = append(allocated, line)
		}
	}
	return allocated
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func sapDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("20060102")
}
