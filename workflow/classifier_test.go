package workflow

import (
	"encoding/json"
	"testing"

	"github.com/mmdatafocus/eorder_backend/gateway"
	"github.com/mmdatafocus/eorder_backend/models"
	"github.com/shopspring/decimal"
)

func TestClassifyEngineResponseDDQResponseShape(t *testing.T) {
	resp := planEnvelope(
		successLine("000010", 100, true),
		failureLine("000020", "CAP01", "insufficient capacity"),
	)
	outcomes, err := ClassifyEngineResponse(resp)
	if err != nil {
		t.Fatalf("ClassifyEngineResponse: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	ok := outcomes[0]
	if !ok.Success || ok.ItemNo != models.ItemNoFromInt(10) {
		t.Errorf("first outcome = %+v, want success on line 10", ok)
	}
	if !ok.ConfirmedQty.Equal(decimal.NewFromInt(100)) {
		t.Errorf("confirmed qty = %s, want 100", ok.ConfirmedQty)
	}
	if ok.ConfirmedDate == nil {
		t.Error("confirmed date missing")
	}
	bad := outcomes[1]
	if bad.Success || bad.FailureCode != "CAP01" {
		t.Errorf("second outcome = %+v, want failure CAP01", bad)
	}
}

func TestClassifyEngineResponseOrderUpdateShape(t *testing.T) {
	resp := &gateway.EngineResponse{
		DDQOrderUpdateResponse: &gateway.DDQResponse{
			Headers: []gateway.PlanResponseHeader{{
				Lines: []gateway.PlanResponseLine{successLine("000010", 30, false)},
			}},
		},
	}
	outcomes, err := ClassifyEngineResponse(resp)
	if err != nil {
		t.Fatalf("ClassifyEngineResponse: %v", err)
	}
	if len(outcomes) != 1 || !outcomes[0].Success {
		t.Fatalf("outcomes = %+v, want one success", outcomes)
	}
	if outcomes[0].Classification != models.ClassificationATPFuture {
		t.Errorf("classification = %s, want ATP_FUTURE", outcomes[0].Classification)
	}
}

func TestClassifyEngineResponseAcknowledgeShape(t *testing.T) {
	resp := &gateway.EngineResponse{
		DDQAcknowledge: &gateway.DDQAcknowledge{
			Headers: []gateway.AckHeader{{Lines: []gateway.AckLine{
				{LineNumber: "000010", ReturnStatus: gateway.ReturnStatusSuccess},
				{LineNumber: "000020", ReturnStatus: gateway.ReturnStatusFailure, ReturnCode: "LCK01"},
			}}},
		},
	}
	outcomes, err := ClassifyEngineResponse(resp)
	if err != nil {
		t.Fatalf("ClassifyEngineResponse: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if !outcomes[0].Success || outcomes[1].Success {
		t.Errorf("outcomes = %+v, want success then failure", outcomes)
	}
}

func TestClassifyEngineResponseEmptyEnvelopeIsError(t *testing.T) {
	if _, err := ClassifyEngineResponse(&gateway.EngineResponse{}); err == nil {
		t.Error("an empty envelope must never pass for success")
	}
	if _, err := ClassifyEngineResponse(nil); err == nil {
		t.Error("a nil response must never pass for success")
	}
}

func TestClassifyEngineResponseRejectsBadLineNumber(t *testing.T) {
	resp := planEnvelope(gateway.PlanResponseLine{
		LineNumber:   "not-a-number",
		ReturnStatus: gateway.ReturnStatusSuccess,
		Quantity:     json.Number("10"),
	})
	if _, err := ClassifyEngineResponse(resp); err == nil {
		t.Error("an unattributable line must fail classification")
	}
}

func TestClassifySplitLines(t *testing.T) {
	resp := planEnvelope(
		func() gateway.PlanResponseLine {
			l := successLine("000010.001", 60, true)
			return l
		}(),
		func() gateway.PlanResponseLine {
			l := successLine("000010.002", 40, false)
			l.Operations = []gateway.PlanResponseOperation{{OperationCode: "PM02"}}
			return l
		}(),
	)
	outcomes, err := ClassifyEngineResponse(resp)
	if err != nil {
		t.Fatalf("ClassifyEngineResponse: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}
	if outcomes[0].ItemNo != models.ItemNoFromInt(10) || outcomes[1].ItemNo != models.ItemNoFromInt(10) {
		t.Error("both split outcomes must share the base item number")
	}
	if outcomes[0].SplitSeq != 1 || outcomes[1].SplitSeq != 2 {
		t.Errorf("split seqs = %d,%d, want 1,2", outcomes[0].SplitSeq, outcomes[1].SplitSeq)
	}
	if outcomes[1].Classification != models.ClassificationCTP {
		t.Errorf("operation-bearing split classification = %s, want CTP", outcomes[1].Classification)
	}
}

func TestFullySuccessfulShortResponse(t *testing.T) {
	requested := map[models.ItemNo]decimal.Decimal{
		models.ItemNoFromInt(10): decimal.NewFromInt(100),
		models.ItemNoFromInt(20): decimal.NewFromInt(50),
	}
	outcomes := []LineOutcome{
		{ItemNo: models.ItemNoFromInt(10), Success: true, ConfirmedQty: decimal.NewFromInt(100)},
	}
	if FullySuccessful(outcomes, requested) {
		t.Error("a response missing a requested line must not count as full success")
	}
}

func TestFullySuccessfulSplitQuantitiesSum(t *testing.T) {
	requested := map[models.ItemNo]decimal.Decimal{
		models.ItemNoFromInt(10): decimal.NewFromInt(100),
	}
	outcomes := []LineOutcome{
		{ItemNo: models.ItemNoFromInt(10), SplitSeq: 1, Success: true, ConfirmedQty: decimal.NewFromInt(60)},
		{ItemNo: models.ItemNoFromInt(10), SplitSeq: 2, Success: true, ConfirmedQty: decimal.NewFromInt(40)},
	}
	if !FullySuccessful(outcomes, requested) {
		t.Error("split outcomes summing to the requested quantity are a full success")
	}
	outcomes[1].ConfirmedQty = decimal.NewFromInt(30)
	if FullySuccessful(outcomes, requested) {
		t.Error("an under-served quantity must not count as full success")
	}
}

func TestFullySuccessfulAnyFailureFails(t *testing.T) {
	requested := map[models.ItemNo]decimal.Decimal{
		models.ItemNoFromInt(10): decimal.NewFromInt(100),
	}
	outcomes := []LineOutcome{
		{ItemNo: models.ItemNoFromInt(10), Success: true, ConfirmedQty: decimal.NewFromInt(100)},
		{ItemNo: models.ItemNoFromInt(20), Success: false},
	}
	if FullySuccessful(outcomes, requested) {
		t.Error("any failed outcome must fail the whole response")
	}
}

func TestSapErrorText(t *testing.T) {
	resp := &gateway.SapOrderResponse{
		Return: []gateway.SapReturn{
			{Type: gateway.SapMessageSuccess, Message: "fine"},
			{Type: gateway.SapMessageError, Message: "material blocked"},
		},
		Data: []gateway.SapReturn{
			{Type: gateway.SapMessageAbort, Message: "document rolled back"},
		},
	}
	got := SapErrorText(resp)
	want := "material blocked; document rolled back"
	if got != want {
		t.Errorf("SapErrorText = %q, want %q", got, want)
	}
}
