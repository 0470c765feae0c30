package models

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

type Order struct {
	ID                  int         `gorm:"primary_key" json:"id"`
	SoNo                string      `gorm:"size:35;index" json:"so_no"` // ERP sales document number, assigned after commit
	OrderType           OrderType   `gorm:"type:enum('domestic','export','customer');not null" json:"order_type" binding:"required"`
	Status              OrderStatus `gorm:"type:enum('Pre-Draft','Draft','Being Process','Received','Complete','Cancelled');not null" json:"status"`
	SoldTo              string      `gorm:"size:10;index;not null" json:"sold_to" binding:"required"`
	ShipTo              string      `gorm:"size:10" json:"ship_to"`
	BillTo              string      `gorm:"size:10" json:"bill_to"`
	ContractNo          string      `gorm:"size:35" json:"contract_no"`
	SalesOrg            string      `gorm:"size:4" json:"sales_org"`
	DistributionChannel string      `gorm:"size:2" json:"distribution_channel"`
	Division            string      `gorm:"size:2" json:"division"`
	DocType             string      `gorm:"size:4" json:"doc_type"`
	CurrencyCode        string      `gorm:"size:5" json:"currency_code"`
	PaymentTerm         string      `gorm:"size:4" json:"payment_term"`
	RequestDate         *time.Time  `json:"request_date"`
	ShippingMark        string      `gorm:"size:255" json:"shipping_mark"`
	ProformaInvoiceNo   string      `gorm:"size:35" json:"proforma_invoice_no"`
	SoldToName          string      `gorm:"size:255" json:"sold_to_name"`
	Country             string      `gorm:"size:3" json:"country"`

	// LatestItemNo is the high-water mark for line numbering. It must be
	// advanced and saved before any engine-split sub-line is created so two
	// runs cannot hand out the same number.
	LatestItemNo int `gorm:"default:0" json:"latest_item_no"`

	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
	Lines     []*OrderLine `gorm:"foreignKey:OrderId" json:"lines"`
}

// ItemNoStep is the spacing between assigned line numbers (10, 20, 30 ...).
const ItemNoStep = 10

func (o Order) GetId() int {
	return o.ID
}

func (o Order) IsExport() bool {
	return o.OrderType == OrderTypeExport
}

// GetOrderWithLines loads the order plus lines and allocation sub-records.
func GetOrderWithLines(ctx context.Context, db *gorm.DB, id int) (*Order, error) {
	var order Order
	err := db.WithContext(ctx).
		Preload("Lines.Iplan").
		Preload("Lines").
		Where("id = ?", id).
		Take(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByNumber resolves an order by its ERP sales document number.
func GetOrderByNumber(ctx context.Context, db *gorm.DB, soNo string) (*Order, error) {
	var order Order
	err := db.WithContext(ctx).
		Preload("Lines.Iplan").
		Preload("Lines").
		Where("so_no = ?", soNo).
		Order("id DESC").
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AdvanceLatestItemNo reserves `count` fresh item numbers and persists the
// counter before returning. The first reserved number is returned; callers
// derive the rest by adding ItemNoStep.
func (o *Order) AdvanceLatestItemNo(ctx context.Context, db *gorm.DB, count int) (int, error) {
	if count <= 0 {
		return 0, errors.New("count must be positive")
	}
	first := o.LatestItemNo + ItemNoStep
	newLatest := o.LatestItemNo + count*ItemNoStep
	if err := db.WithContext(ctx).Model(&Order{}).
		Where("id = ?", o.ID).
		Update("latest_item_no", newLatest).Error; err != nil {
		return 0, err
	}
	o.LatestItemNo = newLatest
	return first, nil
}

// DeleteDuplicateOrders removes stale local records carrying the same ERP
// sales document number. A retried create can otherwise leave two local rows
// pointing at one remote order.
func DeleteDuplicateOrders(ctx context.Context, db *gorm.DB, soNo string, keepId int) error {
	if soNo == "" {
		return nil
	}
	var stale []Order
	if err := db.WithContext(ctx).
		Where("so_no = ? AND id <> ?", soNo, keepId).
		Find(&stale).Error; err != nil {
		return err
	}
	for _, dup := range stale {
		lineIds := db.Model(&OrderLine{}).Select("id").Where("order_id = ?", dup.ID)
		if err := db.WithContext(ctx).Where("order_line_id IN (?)", lineIds).Delete(&OrderLineIplan{}).Error; err != nil {
			return err
		}
		if err := db.WithContext(ctx).Where("order_id = ?", dup.ID).Delete(&OrderLine{}).Error; err != nil {
			return err
		}
		if err := db.WithContext(ctx).Delete(&Order{}, dup.ID).Error; err != nil {
			return err
		}
	}
	return nil
}

// UpdateOrderStatus persists a status transition.
func UpdateOrderStatus(ctx context.Context, db *gorm.DB, order *Order, status OrderStatus) error {
	if err := db.WithContext(ctx).Model(&Order{}).
		Where("id = ?", order.ID).
		Update("status", status).Error; err != nil {
		return err
	}
	order.Status = status
	return nil
}

// SaveOrder writes header fields (so_no assignment after ERP create).
func SaveOrder(ctx context.Context, db *gorm.DB, order *Order) error {
	return db.WithContext(ctx).Omit("Lines").Save(order).Error
}
