package models

// OrderType distinguishes the three sales document flavors. Export orders
// carry extra iPlan order information on COMMIT and exclude outsourced
// materials from allocation.
type OrderType string

const (
	OrderTypeDomestic OrderType = "domestic"
	OrderTypeExport   OrderType = "export"
	OrderTypeCustomer OrderType = "customer"
)

// OrderStatus is the order lifecycle. Received/Complete are only reachable
// after both the ERP commit and the planning-engine COMMIT acknowledgement.
type OrderStatus string

const (
	OrderStatusPreDraft     OrderStatus = "Pre-Draft"
	OrderStatusDraft        OrderStatus = "Draft"
	OrderStatusBeingProcess OrderStatus = "Being Process"
	OrderStatusReceived     OrderStatus = "Received"
	OrderStatusComplete     OrderStatus = "Complete"
	OrderStatusCancelled    OrderStatus = "Cancelled"
)

// AttentionType marks lines needing human review.
// R1: allocation rejected, R5: commit acknowledgement failed after the ERP
// order was already created.
type AttentionType string

const (
	AttentionNone AttentionType = ""
	AttentionR1   AttentionType = "R1"
	AttentionR5   AttentionType = "R5"
)

// Classification tags how the planning engine can serve a line.
type Classification string

const (
	ClassificationATP       Classification = "ATP"
	ClassificationATPFuture Classification = "ATP_FUTURE"
	ClassificationCTP       Classification = "CTP"
)

// DeriveClassification is a pure function of the engine line result:
// no operations and on-hand stock means the quantity ships from stock (ATP),
// no operations without stock means a future receipt covers it (ATP_FUTURE),
// any operation means production must be scheduled (CTP).
func DeriveClassification(onHand bool, hasOperations bool) Classification {
	if hasOperations {
		return ClassificationCTP
	}
	if onHand {
		return ClassificationATP
	}
	return ClassificationATPFuture
}

// ConfirmAction is the planning-engine confirm verb.
type ConfirmAction string

const (
	ConfirmCommit   ConfirmAction = "COMMIT"
	ConfirmRollback ConfirmAction = "ROLLBACK"
)

// UpdateFlag is the SAP change marker on ES-21 *Inx structures.
type UpdateFlag string

const (
	UpdateFlagUpdate UpdateFlag = "U"
	UpdateFlagInsert UpdateFlag = "I"
	UpdateFlagDelete UpdateFlag = "D"
)

// ItemCategory flags lines that bypass allocation.
type ItemCategory string

const (
	ItemCategoryNormal    ItemCategory = ""
	ItemCategoryContainer ItemCategory = "ZKC0"
)

// StatusPair is the English/Thai display status carried on every line.
type StatusPair struct {
	En string
	Th string
}

var (
	ItemStatusCreated      = StatusPair{En: "Item Created", Th: "สร้างรายการแล้ว"}
	ItemStatusPlanning     = StatusPair{En: "Planning", Th: "อยู่ระหว่างการวางแผน"}
	ItemStatusRejected     = StatusPair{En: "Rejected", Th: "ถูกปฏิเสธ"}
	ItemStatusBeingProcess = StatusPair{En: "Being Process", Th: "กำลังดำเนินการ"}
	ItemStatusComplete     = StatusPair{En: "Complete", Th: "สมบูรณ์"}
)
