package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderLine struct {
	ID           int          `gorm:"primary_key" json:"id"`
	OrderId      int          `gorm:"index;not null" json:"order_id"`
	ItemNo       ItemNo       `gorm:"size:18;not null" json:"item_no"` // canonical (stripped) form
	MaterialCode string       `gorm:"size:35;not null" json:"material_code"`
	Plant        string       `gorm:"size:4" json:"plant"`
	ItemCategory ItemCategory `gorm:"size:4" json:"item_category"`
	SalesUnit    string       `gorm:"size:3" json:"sales_unit"`

	RequestQty  decimal.Decimal `gorm:"type:decimal(20,3);default:0" json:"request_qty"`
	RequestDate *time.Time      `json:"request_date"`

	ConfirmedQty  decimal.Decimal `gorm:"type:decimal(20,3);default:0" json:"confirmed_qty"`
	ConfirmedDate *time.Time      `json:"confirmed_date"`

	// ConfirmDateUI is the date the user accepted in the storefront; used
	// instead of an engine date when the line bypasses allocation.
	ConfirmDateUI *time.Time `json:"confirm_date_ui"`

	ItemStatusEn string `gorm:"size:50" json:"item_status_en"`
	ItemStatusTh string `gorm:"size:50" json:"item_status_th"`

	AttentionType AttentionType `gorm:"size:2" json:"attention_type"`

	// ProductionRank orders the line's production status; updates are only
	// legal against an equal or earlier rank.
	ProductionRank int `gorm:"default:0" json:"production_rank"`

	// IsOutsource marks materials produced by an external mill; export
	// orders submit these to ERP without requesting allocation.
	IsOutsource bool `gorm:"default:false" json:"is_outsource"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// IsNew marks a line created during the current commitment run, so an
	// ERP update sends "I" instead of "U" for it. Not persisted.
	IsNew bool `gorm:"-" json:"-"`

	Iplan *OrderLineIplan `gorm:"foreignKey:OrderLineId" json:"iplan"`
}

func (l OrderLine) GetId() int {
	return l.ID
}

// NeedsAllocation reports whether the line goes to the planning engine.
// Container lines and special-plant lines always bypass; outsourced
// materials bypass on export orders only.
func (l OrderLine) NeedsAllocation(orderType OrderType, specialPlants []string) bool {
	if l.ItemCategory == ItemCategoryContainer {
		return false
	}
	for _, p := range specialPlants {
		if l.Plant == p {
			return false
		}
	}
	if orderType == OrderTypeExport && l.IsOutsource {
		return false
	}
	return true
}

func (l *OrderLine) SetStatus(pair StatusPair) {
	l.ItemStatusEn = pair.En
	l.ItemStatusTh = pair.Th
}

// SaveOrderLines writes all lines in one bulk statement.
func SaveOrderLines(ctx context.Context, db *gorm.DB, lines []*OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Omit("Iplan").Save(&lines).Error
}
