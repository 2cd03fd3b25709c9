package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokrilabs/tokri-backend/pkg/enums"
)

// Payment tracks the online gateway leg of an order. COD orders have no row.
// Status moves off pending exactly once, via conditional UPDATE.
type Payment struct {
	ID      uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`

	Amount   decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null"`
	Currency string              `gorm:"column:currency;not null"`
	Status   enums.PaymentStatus `gorm:"column:status;type:text;not null"`

	GatewayOrderID   string  `gorm:"column:gateway_order_id;not null;uniqueIndex:idx_payments_gateway_order_id"`
	GatewayPaymentID *string `gorm:"column:gateway_payment_id"`
	GatewaySignature *string `gorm:"column:gateway_signature"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
