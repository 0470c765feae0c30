package models

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// GatewayLog is the audit row written for every remote call through the
// integration layer. Best-effort: a failed insert never fails the call.
type GatewayLog struct {
	ID         int       `gorm:"primary_key" json:"id"`
	Service    string    `gorm:"size:10;index" json:"service"` // sap | iplan
	Endpoint   string    `gorm:"size:255" json:"endpoint"`
	RequestId  string    `gorm:"size:36;index" json:"request_id"`
	Request    string    `gorm:"type:mediumtext" json:"request"`
	Response   string    `gorm:"type:mediumtext" json:"response"`
	StatusCode int       `json:"status_code"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	ErrorText  string    `gorm:"type:text" json:"error_text"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func CreateGatewayLog(ctx context.Context, db *gorm.DB, rec *GatewayLog) error {
	if db == nil {
		return nil
	}
	return db.WithContext(ctx).Create(rec).Error
}
