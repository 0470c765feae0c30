package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderLineIplan is the allocation sub-record, one-to-one with OrderLine.
// A line has at most one active allocation state; a new plan request
// supersedes any retained unconfirmed response.
type OrderLineIplan struct {
	ID          int `gorm:"primary_key" json:"id"`
	OrderLineId int `gorm:"uniqueIndex;not null" json:"order_line_id"`

	OnHandStock bool `gorm:"default:false" json:"on_hand_stock"`

	// OperationsJSON holds the engine's production operations for the line.
	// Non-empty means the item required production scheduling (CTP).
	OperationsJSON []byte `gorm:"type:json" json:"operations_json"`

	ConfirmedQty  decimal.Decimal `gorm:"type:decimal(20,3);default:0" json:"confirmed_qty"`
	ConfirmedDate *time.Time      `json:"confirmed_date"`

	Classification Classification `gorm:"size:12" json:"classification"`

	BlockCode      string `gorm:"size:10" json:"block_code"`
	RunCode        string `gorm:"size:10" json:"run_code"`
	WorkCentreCode string `gorm:"size:10" json:"work_centre_code"`
	PaperMachine   string `gorm:"size:10" json:"paper_machine"`

	// RetainedResponseJSON keeps the raw engine line response between the
	// plan call and the confirm call, so a multi-line request can be rolled
	// back without re-requesting. Cleared once COMMIT is acknowledged.
	RetainedResponseJSON []byte `gorm:"type:json" json:"retained_response_json"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (ip OrderLineIplan) HasOperations() bool {
	if len(ip.OperationsJSON) == 0 {
		return false
	}
	var ops []json.RawMessage
	if err := json.Unmarshal(ip.OperationsJSON, &ops); err != nil {
		return false
	}
	return len(ops) > 0
}

// SaveOrderLineIplans writes all allocation sub-records in one bulk statement.
func SaveOrderLineIplans(ctx context.Context, db *gorm.DB, allocs []*OrderLineIplan) error {
	if len(allocs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Save(&allocs).Error
}
