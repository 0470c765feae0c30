package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/eorder_backend/gateway"
	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/mmdatafocus/eorder_backend/utils"
	"github.com/shopspring/decimal"
)

// LineOutcome is one engine answer normalized to a per-line verdict. A split
// produces several outcomes sharing an ItemNo, distinguished by SplitSeq.
type LineOutcome struct {
	ItemNo   models.ItemNo
	SplitSeq int

	Success        bool
	ConfirmedQty   decimal.Decimal
	ConfirmedDate  *time.Time
	WarehouseCode  string
	OnHand         bool
	Operations     []gateway.PlanResponseOperation
	Classification models.Classification

	BlockCode      string
	RunCode        string
	WorkCentreCode string
	PaperMachine   string

	FailureCode    string
	FailureMessage string

	Raw gateway.PlanResponseLine
}

func (o LineOutcome) IsSplit() bool {
	return o.SplitSeq > 0
}

// ClassifyEngineResponse normalizes whichever body shape the engine chose.
// The same inquiry can come back as DDQResponse, DDQOrderUpdateResponse or a
// bare DDQAcknowledge; an empty envelope is an error, never a success.
func ClassifyEngineResponse(resp *gateway.EngineResponse) ([]LineOutcome, error) {
	if resp == nil {
		return nil, fmt.Errorf("engine response missing")
	}
	switch {
	case resp.DDQResponse != nil:
		return classifyResponseBody(resp.DDQResponse)
	case resp.DDQOrderUpdateResponse != nil:
		return classifyResponseBody(resp.DDQOrderUpdateResponse)
	case resp.DDQAcknowledge != nil:
		return classifyAcknowledge(resp.DDQAcknowledge), nil
	default:
		return nil, fmt.Errorf("engine response carried no recognizable body")
	}
}

func classifyResponseBody(body *gateway.DDQResponse) ([]LineOutcome, error) {
	var outcomes []LineOutcome
	for _, header := range body.Headers {
		for _, line := range header.Lines {
			itemNo, seq, ok := models.ParseEngineLineNumber(line.LineNumber)
			if !ok {
				return nil, fmt.Errorf("unparseable engine line number %q", line.LineNumber)
			}
			outcome := LineOutcome{
				ItemNo:   itemNo,
				SplitSeq: seq,
				Raw:      line,
			}
			switch line.ReturnStatus {
			case gateway.ReturnStatusSuccess, gateway.ReturnStatusPartialSuccess:
				outcome.Success = true
				if qty, err := decimal.NewFromString(line.Quantity.String()); err == nil {
					outcome.ConfirmedQty = qty
				}
				if t, ok := utils.ParseWireDate(line.DispatchDate); ok {
					outcome.ConfirmedDate = &t
				}
				outcome.WarehouseCode = line.WarehouseCode
				outcome.OnHand = line.OnHandStock
				outcome.Operations = line.Operations
				outcome.Classification = models.DeriveClassification(line.OnHandStock, len(line.Operations) > 0)
				outcome.BlockCode = line.BlockCode
				outcome.RunCode = line.RunCode
				outcome.WorkCentreCode = line.WorkCentreCode
				outcome.PaperMachine = line.PaperMachine
			default:
				outcome.FailureCode = line.ReturnCode
				outcome.FailureMessage = line.ReturnCodeDescription
			}
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes, nil
}

func classifyAcknowledge(body *gateway.DDQAcknowledge) []LineOutcome {
	var outcomes []LineOutcome
	for _, header := range body.Headers {
		for _, line := range header.Lines {
			itemNo, seq, ok := models.ParseEngineLineNumber(line.LineNumber)
			if !ok {
				continue
			}
			outcome := LineOutcome{ItemNo: itemNo, SplitSeq: seq}
			if line.ReturnStatus == gateway.ReturnStatusSuccess {
				outcome.Success = true
			} else {
				outcome.FailureCode = line.ReturnCode
				outcome.FailureMessage = line.ReturnCodeDescription
			}
			outcomes = append(outcomes, outcome)
		}
	}
	return outcomes
}

// FullySuccessful decides whether every requested line was served in full.
// A requested line the engine did not answer counts as a failure: a short
// response must never pass for a complete allocation.
func FullySuccessful(outcomes []LineOutcome, requested map[models.ItemNo]decimal.Decimal) bool {
	served := make(map[models.ItemNo]decimal.Decimal, len(requested))
	for _, o := range outcomes {
		if !o.Success {
			return false
		}
		served[o.ItemNo] = served[o.ItemNo].Add(o.ConfirmedQty)
	}
	for itemNo, want := range requested {
		got, ok := served[itemNo]
		if !ok {
			return false
		}
		if got.LessThan(want) {
			return false
		}
	}
	return true
}

// SuccessfulOutcomes filters the outcomes that hold a live reservation.
func SuccessfulOutcomes(outcomes []LineOutcome) []LineOutcome {
	var ok []LineOutcome
	for _, o := range outcomes {
		if o.Success {
			ok = append(ok, o)
		}
	}
	return ok
}

// FailedOutcomes filters the rejected answers.
func FailedOutcomes(outcomes []LineOutcome) []LineOutcome {
	var failed []LineOutcome
	for _, o := range outcomes {
		if !o.Success {
			failed = append(failed, o)
		}
	}
	return failed
}

// SapErrorText joins the error and abort messages from an ERP reply.
func SapErrorText(resp *gateway.SapOrderResponse) string {
	var parts []string
	for _, m := range resp.Messages() {
		if m.Type == gateway.SapMessageError || m.Type == gateway.SapMessageAbort {
			parts = append(parts, m.Message)
		}
	}
	return strings.Join(parts, "; ")
}
