package payloads

import (
	"github.com/google/uuid"
)

// OrderCreatedEvent announces a freshly built order to downstream consumers.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID  `json:"orderId"`
	OrderNumber   string     `json:"orderNumber"`
	UserID        uuid.UUID  `json:"userId"`
	FranchiseID   *uuid.UUID `json:"franchiseId,omitempty"`
	PaymentMethod string     `json:"paymentMethod"`
	Total         string     `json:"total"`
}

// OrderCancelledEvent announces cancellation, whatever the trigger.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      uuid.UUID `json:"userId"`
	Reason      string    `json:"reason,omitempty"`
}

// PaymentConfirmedEvent is emitted once per payment, on the pending→success flip.
type PaymentConfirmedEvent struct {
	OrderID          uuid.UUID `json:"orderId"`
	OrderNumber      string    `json:"orderNumber"`
	UserID           uuid.UUID `json:"userId"`
	GatewayPaymentID string    `json:"gatewayPaymentId"`
	Amount           string    `json:"amount"`
}

// PaymentFailedEvent is emitted when a pending payment is explicitly failed
// or swept by the TTL job.
type PaymentFailedEvent struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      uuid.UUID `json:"userId"`
	Reason      string    `json:"reason,omitempty"`
}

// LowStockEvent alerts the franchise owner that stock dipped to the floor.
type LowStockEvent struct {
	ProductID   uuid.UUID  `json:"productId"`
	ProductName string     `json:"productName"`
	FranchiseID *uuid.UUID `json:"franchiseId,omitempty"`
	Quantity    int        `json:"quantity"`
	MinStock    int        `json:"minStock"`
}
