package models

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Contract struct {
	ID         int       `gorm:"primary_key" json:"id"`
	ContractNo string    `gorm:"size:35;uniqueIndex;not null" json:"contract_no"`
	SoldTo     string    `gorm:"size:10;index;not null" json:"sold_to"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidTo    time.Time `json:"valid_to"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Materials []*ContractMaterial `gorm:"foreignKey:ContractNo;references:ContractNo" json:"materials"`
}

// ContractMaterial is one purchasable material under a contract, with the
// remaining callable quantity and the factor converting sales units to tons.
type ContractMaterial struct {
	ID           int    `gorm:"primary_key" json:"id"`
	ContractNo   string `gorm:"size:35;index:idx_contract_material,unique" json:"contract_no"`
	MaterialCode string `gorm:"size:35;index:idx_contract_material,unique" json:"material_code"`
	MatType      string `gorm:"size:4" json:"mat_type"`
	ProductGroup string `gorm:"size:10" json:"product_group"`

	RemainingQty decimal.Decimal `gorm:"type:decimal(20,3);default:0" json:"remaining_qty"`

	// ConversionFactor converts one sales unit of this material to tons.
	ConversionFactor decimal.Decimal `gorm:"type:decimal(20,6);default:1" json:"conversion_factor"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// RemainingTons is the callable balance expressed in tons.
func (cm ContractMaterial) RemainingTons() decimal.Decimal {
	return cm.RemainingQty.Mul(cm.ConversionFactor)
}

// GetContractMaterial resolves one material row under a contract; returns
// nil (not an error) when the contract does not cover the material.
func GetContractMaterial(ctx context.Context, db *gorm.DB, contractNo string, materialCode string) (*ContractMaterial, error) {
	var cm ContractMaterial
	err := db.WithContext(ctx).
		Where("contract_no = ? AND material_code = ?", contractNo, materialCode).
		Take(&cm).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cm, nil
}
