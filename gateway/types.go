package gateway

import "encoding/json"

// ---- iPlan DDQ wire format ----

// PlanRequest is the availability inquiry envelope (DDQ = demand-driven query).
type PlanRequest struct {
	DDQRequest DDQRequest `json:"DDQRequest"`
}

type DDQRequest struct {
	RequestId string      `json:"requestId"`
	Sender    string      `json:"sender"`
	Headers   []DDQHeader `json:"DDQRequestHeader"`
}

type DDQHeader struct {
	HeaderCode string    `json:"headerCode"`
	AutoCreate string    `json:"autoCreate"` // "Y" reserves, "N" inquires only
	Lines      []DDQLine `json:"DDQRequestLine"`
}

type DDQLine struct {
	LineNumber    string  `json:"lineNumber"`
	LocationCode  string  `json:"locationCode"`
	ProductCode   string  `json:"productCode"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit,omitempty"`
	RequestDate   string  `json:"requestDate"`
	InquiryMethod string  `json:"inquiryMethod"`

	// AlternateProducts lets the engine substitute when the primary product
	// cannot be served. Order is the substitution priority.
	AlternateProducts []string `json:"alternateProductCode,omitempty"`
}

// EngineResponse is the engine's reply envelope. Exactly one member is
// expected to be present; which one depends on the call and on how the engine
// chose to answer it.
type EngineResponse struct {
	DDQResponse            *DDQResponse    `json:"DDQResponse,omitempty"`
	DDQAcknowledge         *DDQAcknowledge `json:"DDQAcknowledge,omitempty"`
	DDQOrderUpdateResponse *DDQResponse    `json:"DDQOrderUpdateResponse,omitempty"`
}

type DDQResponse struct {
	RequestId string               `json:"requestId"`
	Headers   []PlanResponseHeader `json:"DDQResponseHeader"`
}

type PlanResponseHeader struct {
	HeaderCode string             `json:"headerCode"`
	Lines      []PlanResponseLine `json:"DDQResponseLine"`
}

// InquiryMethodStandard is the only inquiry mode this system submits; the
// engine supports others for interactive what-if tooling.
const InquiryMethodStandard = "STANDARD"

// Line-level return statuses.
const (
	ReturnStatusSuccess        = "SUCCESS"
	ReturnStatusFailure        = "FAILURE"
	ReturnStatusPartialSuccess = "PARTIAL SUCCESS"
)

// PlanResponseLine is one allocated (or rejected) line. LineNumber may carry
// a split suffix ("000010.002") when the engine broke the requested quantity
// into several dispatches.
type PlanResponseLine struct {
	LineNumber            string `json:"lineNumber"`
	ReturnStatus          string `json:"returnStatus"`
	ReturnCode            string `json:"returnCode,omitempty"`
	ReturnCodeDescription string `json:"returnCodeDescription,omitempty"`

	ProductCode   string      `json:"productCode,omitempty"`
	Quantity      json.Number `json:"quantity"`
	DispatchDate  string      `json:"dispatchDate,omitempty"`
	WarehouseCode string      `json:"warehouseCode,omitempty"`
	OnHandStock   bool        `json:"onHandStock"`

	BlockCode      string `json:"blockCode,omitempty"`
	RunCode        string `json:"runCode,omitempty"`
	WorkCentreCode string `json:"workCentreCode,omitempty"`
	PaperMachine   string `json:"paperMachine,omitempty"`

	Operations []PlanResponseOperation `json:"DDQResponseOperation,omitempty"`
}

type PlanResponseOperation struct {
	OperationCode  string      `json:"operationCode"`
	WorkCentreCode string      `json:"workCentreCode,omitempty"`
	StartDate      string      `json:"startDate,omitempty"`
	EndDate        string      `json:"endDate,omitempty"`
	Quantity       json.Number `json:"quantity,omitempty"`
}

// ConfirmRequest finalizes or releases reservations made by a plan call.
type ConfirmRequest struct {
	DDQConfirm DDQConfirm `json:"DDQConfirm"`
}

type DDQConfirm struct {
	RequestId string          `json:"requestId"`
	Sender    string          `json:"sender"`
	Headers   []ConfirmHeader `json:"DDQConfirmHeader"`
}

type ConfirmHeader struct {
	HeaderCode string        `json:"headerCode"`
	Lines      []ConfirmLine `json:"DDQConfirmLine"`
}

type ConfirmLine struct {
	LineNumber string `json:"lineNumber"`
	Status     string `json:"status"` // COMMIT | ROLLBACK

	// OnHandQuantityConfirmed ("Y"/"N") tells the engine whether the stock
	// quantity was actually taken.
	OnHandQuantityConfirmed string `json:"onHandQuantityConfirmed,omitempty"`

	// OrderInformation travels only on export COMMIT lines, so the mill
	// paperwork can carry the customer-facing references.
	OrderInformation []OrderInformationItem `json:"orderInformation,omitempty"`
}

type OrderInformationItem struct {
	OrderNumber           string `json:"orderNumber"`
	LineNumber            string `json:"lineNumber"`
	ShippingMark          string `json:"shippingMark,omitempty"`
	ProformaInvoiceNumber string `json:"proformaInvoiceNumber,omitempty"`
	CustomerName          string `json:"customerName,omitempty"`
	Country               string `json:"country,omitempty"`
}

type DDQAcknowledge struct {
	RequestId string      `json:"requestId"`
	Headers   []AckHeader `json:"DDQAcknowledgeHeader"`
}

type AckHeader struct {
	HeaderCode string    `json:"headerCode"`
	Lines      []AckLine `json:"DDQAcknowledgeLine"`
}

type AckLine struct {
	LineNumber            string `json:"lineNumber"`
	ReturnStatus          string `json:"returnStatus"`
	ReturnCode            string `json:"returnCode,omitempty"`
	ReturnCodeDescription string `json:"returnCodeDescription,omitempty"`
}

// ---- SAP order wire format (ES-17 create / ES-21 update) ----

type SapOrderRequest struct {
	PiMessageId   string `json:"piMessageId"`
	Salesdocument string `json:"salesdocument,omitempty"` // set on update only
	TestRun       string `json:"testrun,omitempty"`       // "X" simulates

	OrderHeaderIn  SapOrderHeader   `json:"order_header_in"`
	OrderHeaderInX *SapOrderHeaderX `json:"order_header_inx,omitempty"`

	OrderItemsIn  []SapOrderItem  `json:"order_items_in"`
	OrderItemsInX []SapOrderItemX `json:"order_items_inx,omitempty"`

	OrderPartners []SapPartner `json:"order_partners,omitempty"`

	OrderSchedulesIn  []SapSchedule  `json:"order_schedules_in"`
	OrderSchedulesInX []SapScheduleX `json:"order_schedules_inx,omitempty"`
}

type SapOrderHeader struct {
	DocType   string `json:"doc_type,omitempty"`
	SalesOrg  string `json:"sales_org,omitempty"`
	DistrChan string `json:"distr_chan,omitempty"`
	Division  string `json:"division,omitempty"`
	PurchNoC  string `json:"purch_no_c,omitempty"`
	ReqDateH  string `json:"req_date_h,omitempty"`
	Currency  string `json:"currency,omitempty"`
	PmntTrms  string `json:"pmnttrms,omitempty"`
	CtValidF  string `json:"ct_valid_f,omitempty"`
	RefDoc    string `json:"ref_doc,omitempty"` // contract number
}

type SapOrderHeaderX struct {
	UpdateFlag string `json:"updateflag"`
	ReqDateH   string `json:"req_date_h,omitempty"`
}

type SapOrderItem struct {
	ItmNumber string `json:"itm_number"`
	Material  string `json:"material"`
	Plant     string `json:"plant,omitempty"`
	TargetQty string `json:"target_qty,omitempty"`
	TargetQu  string `json:"target_qu,omitempty"`
	ItemCateg string `json:"item_categ,omitempty"`
	RefDoc    string `json:"ref_doc,omitempty"`
	RefDocIt  string `json:"ref_doc_it,omitempty"`
}

type SapOrderItemX struct {
	ItmNumber  string `json:"itm_number"`
	UpdateFlag string `json:"updateflag"`
	Material   string `json:"material,omitempty"`
	Plant      string `json:"plant,omitempty"`
	TargetQty  string `json:"target_qty,omitempty"`
}

type SapPartner struct {
	PartnRole string `json:"partn_role"` // AG sold-to, WE ship-to, RE bill-to
	PartnNumb string `json:"partn_numb"`
}

type SapSchedule struct {
	ItmNumber string `json:"itm_number"`
	SchedLine string `json:"sched_line"`
	ReqDate   string `json:"req_date,omitempty"`
	ReqQty    string `json:"req_qty,omitempty"`
}

type SapScheduleX struct {
	ItmNumber  string `json:"itm_number"`
	SchedLine  string `json:"sched_line"`
	UpdateFlag string `json:"updateflag"`
	ReqDate    string `json:"req_date,omitempty"`
	ReqQty     string `json:"req_qty,omitempty"`
}

// SAP BAPI return message types.
const (
	SapMessageError   = "E"
	SapMessageAbort   = "A"
	SapMessageWarning = "W"
	SapMessageSuccess = "S"
)

// CreditStatusBlocked means the document was created but held by credit
// control; the order is received, not complete.
const CreditStatusBlocked = "B"

type SapReturn struct {
	Type    string `json:"type"`
	Id      string `json:"id,omitempty"`
	Number  string `json:"number,omitempty"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Row     int    `json:"row,omitempty"`
}

type SapOrderResponse struct {
	Salesdocument    string      `json:"salesdocument"`
	CreditStatusCode string      `json:"credit_status_code,omitempty"`
	Return           []SapReturn `json:"return"`

	// Data mirrors Return on some middleware versions; both are read.
	Data []SapReturn `json:"data,omitempty"`
}

// Messages merges the two return arrays the middleware may populate.
func (r *SapOrderResponse) Messages() []SapReturn {
	if len(r.Data) == 0 {
		return r.Return
	}
	merged := make([]SapReturn, 0, len(r.Return)+len(r.Data))
	merged = append(merged, r.Return...)
	merged = append(merged, r.Data...)
	return merged
}

// HasError reports whether any return message is an error or abort.
func (r *SapOrderResponse) HasError() bool {
	for _, m := range r.Messages() {
		if m.Type == SapMessageError || m.Type == SapMessageAbort {
			return true
		}
	}
	return false
}

// CreditBlocked reports whether the document is held by credit control.
func (r *SapOrderResponse) CreditBlocked() bool {
	return r.CreditStatusCode == CreditStatusBlocked
}
