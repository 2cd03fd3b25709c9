package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tokrilabs/tokri-backend/pkg/enums"
)

// Order is the priced, immutable snapshot produced by checkout. Amounts are
// rupees with two decimal places; paise conversion happens only at the
// gateway boundary.
type Order struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string     `gorm:"column:order_number;not null;uniqueIndex:idx_orders_order_number"`
	UserID      uuid.UUID  `gorm:"column:user_id;type:uuid;not null;index"`
	FranchiseID *uuid.UUID `gorm:"column:franchise_id;type:uuid;index"`
	AddressID   uuid.UUID  `gorm:"column:address_id;type:uuid;not null"`

	Status        enums.OrderStatus   `gorm:"column:status;type:text;not null"`
	PaymentMethod enums.PaymentMethod `gorm:"column:payment_method;type:text;not null"`

	Subtotal       decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	DeliveryCharge decimal.Decimal `gorm:"column:delivery_charge;type:numeric(12,2);not null"`
	CODSurcharge   decimal.Decimal `gorm:"column:cod_surcharge;type:numeric(12,2);not null"`
	Discount       decimal.Decimal `gorm:"column:discount;type:numeric(12,2);not null"`
	Total          decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null"`

	CouponCode *string `gorm:"column:coupon_code"`

	// InventoryReleasedAt guards the compensating stock restore so it runs
	// at most once per order.
	InventoryReleasedAt *time.Time `gorm:"column:inventory_released_at"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
