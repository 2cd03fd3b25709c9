package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tokrilabs/tokri-backend/internal/addresses"
	"github.com/tokrilabs/tokri-backend/internal/cart"
	"github.com/tokrilabs/tokri-backend/internal/catalog"
	"github.com/tokrilabs/tokri-backend/internal/coupons"
	"github.com/tokrilabs/tokri-backend/internal/inventory"
	"github.com/tokrilabs/tokri-backend/internal/orders"
	"github.com/tokrilabs/tokri-backend/internal/payments"
	"github.com/tokrilabs/tokri-backend/internal/pricing"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
	"github.com/tokrilabs/tokri-backend/pkg/logger"
	"github.com/tokrilabs/tokri-backend/pkg/outbox"
	"github.com/tokrilabs/tokri-backend/pkg/outbox/payloads"
	"github.com/tokrilabs/tokri-backend/pkg/razorpay"
)

// Gateway is the slice of the payment gateway the order builder uses.
type Gateway interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal, currency, receipt string) (*razorpay.GatewayOrder, error)
	KeyID() string
}

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Request carries the validated checkout input.
type Request struct {
	UserID        uuid.UUID
	AddressID     uuid.UUID
	PaymentMethod enums.PaymentMethod
	CouponCode    string
}

// Result is what the controller returns on 201. Gateway fields are empty for
// COD orders.
type Result struct {
	Order          *models.Order
	GatewayOrderID string
	GatewayKeyID   string
	AmountPaise    int64
	Currency       string
}

// Service turns the active cart into a priced order, reserving stock and
// registering the gateway order, all inside one transaction.
type Service interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}

type service struct {
	txs       TxRunner
	carts     cart.Repository
	addresses addresses.Repository
	catalog   catalog.Repository
	coupons   coupons.Service
	orders    orders.Repository
	payments  payments.Repository
	calc      *pricing.Calculator
	gateway   Gateway
	events    *outbox.Service
	currency  string
	logg      *logger.Logger
}

// NewService wires the order builder.
func NewService(
	txs TxRunner,
	cartRepo cart.Repository,
	addressRepo addresses.Repository,
	catalogRepo catalog.Repository,
	couponSvc coupons.Service,
	orderRepo orders.Repository,
	paymentRepo payments.Repository,
	calc *pricing.Calculator,
	gateway Gateway,
	events *outbox.Service,
	currency string,
	logg *logger.Logger,
) (Service, error) {
	if txs == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if addressRepo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if couponSvc == nil {
		return nil, fmt.Errorf("coupon service required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if paymentRepo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if calc == nil {
		return nil, fmt.Errorf("pricing calculator required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if currency == "" {
		return nil, fmt.Errorf("currency required")
	}
	return &service{
		txs:       txs,
		carts:     cartRepo,
		addresses: addressRepo,
		catalog:   catalogRepo,
		coupons:   couponSvc,
		orders:    orderRepo,
		payments:  paymentRepo,
		calc:      calc,
		gateway:   gateway,
		events:    events,
		currency:  currency,
		logg:      logg,
	}, nil
}

func (s *service) Execute(ctx context.Context, req Request) (*Result, error) {
	if req.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if req.AddressID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id required")
	}
	if !req.PaymentMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method")
	}

	var result *Result
	err := s.txs.WithTx(ctx, func(tx *gorm.DB) error {
		built, berr := s.buildTx(ctx, tx, req)
		if berr != nil {
			return berr
		}
		result = built
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) buildTx(ctx context.Context, tx *gorm.DB, req Request) (*Result, error) {
	activeCart, err := s.carts.WithTx(tx).FindActiveWithItems(ctx, req.UserID)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}
		return nil, err
	}
	if len(activeCart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}

	address, err := s.addresses.WithTx(tx).FindForUser(ctx, req.AddressID, req.UserID)
	if err != nil {
		return nil, err
	}

	subtotal := s.calc.Subtotal(activeCart.Items)
	discountPercent := decimal.Zero
	var couponCode *string
	if req.CouponCode != "" {
		coupon, cerr := s.coupons.Validate(ctx, tx, req.CouponCode, subtotal)
		if cerr != nil {
			return nil, cerr
		}
		discountPercent = coupon.DiscountPercent
		couponCode = &coupon.Code
	}

	quote := s.calc.Price(activeCart.Items, req.PaymentMethod, discountPercent)

	products, err := s.loadProducts(ctx, tx, activeCart.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:         req.UserID,
		FranchiseID:    orderFranchise(products),
		AddressID:      address.ID,
		Status:         enums.OrderStatusPending,
		PaymentMethod:  req.PaymentMethod,
		Subtotal:       quote.Subtotal,
		DeliveryCharge: quote.DeliveryCharge,
		CODSurcharge:   quote.CODSurcharge,
		Discount:       quote.Discount,
		Total:          quote.Total,
		CouponCode:     couponCode,
		Items:          orderItems(activeCart.Items),
	}
	if err := s.orders.WithTx(tx).Create(ctx, order); err != nil {
		return nil, err
	}

	alerts, err := inventory.ReserveInventory(ctx, tx, reservationRequests(activeCart.Items, products))
	if err != nil {
		return nil, err
	}
	s.emitLowStockAlerts(ctx, tx, alerts, products)

	result := &Result{Order: order, Currency: s.currency}
	if req.PaymentMethod == enums.PaymentMethodOnline {
		gatewayOrder, gerr := s.gateway.CreateOrder(ctx, quote.Total, s.currency, order.OrderNumber)
		if gerr != nil {
			// Rolls back the order and the reservation; no unpaid orphan
			// order survives a gateway outage.
			return nil, gerr
		}
		payment := &models.Payment{
			OrderID:        order.ID,
			Amount:         quote.Total,
			Currency:       s.currency,
			Status:         enums.PaymentStatusPending,
			GatewayOrderID: gatewayOrder.ID,
		}
		if perr := s.payments.WithTx(tx).Create(ctx, payment); perr != nil {
			return nil, perr
		}
		result.GatewayOrderID = gatewayOrder.ID
		result.GatewayKeyID = s.gateway.KeyID()
		result.AmountPaise = gatewayOrder.AmountPaise
	}

	if err := s.carts.WithTx(tx).ClearItems(ctx, activeCart.ID); err != nil {
		return nil, err
	}

	s.emitOrderCreated(ctx, tx, order)
	return result, nil
}

func (s *service) loadProducts(ctx context.Context, tx *gorm.DB, items []models.CartItem) (map[uuid.UUID]*models.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok || !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product no longer available").
				WithDetails(map[string]string{"product_id": item.ProductID.String()})
		}
	}
	return products, nil
}

func orderItems(items []models.CartItem) []models.OrderItem {
	lines := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		lines = append(lines, models.OrderItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
			Subtotal:  item.UnitPrice.Mul(qty).Round(2),
		})
	}
	return lines
}

func reservationRequests(items []models.CartItem, products map[uuid.UUID]*models.Product) []inventory.ReservationRequest {
	requests := make([]inventory.ReservationRequest, 0, len(items))
	for _, item := range items {
		req := inventory.ReservationRequest{ProductID: item.ProductID, Qty: item.Quantity}
		if product, ok := products[item.ProductID]; ok {
			req.FranchiseID = product.FranchiseID
		}
		requests = append(requests, req)
	}
	return requests
}

// orderFranchise scopes the order to a franchise only when every line belongs
// to the same one.
func orderFranchise(products map[uuid.UUID]*models.Product) *uuid.UUID {
	var franchiseID *uuid.UUID
	first := true
	for _, product := range products {
		if first {
			franchiseID = product.FranchiseID
			first = false
			continue
		}
		switch {
		case franchiseID == nil && product.FranchiseID == nil:
		case franchiseID != nil && product.FranchiseID != nil && *franchiseID == *product.FranchiseID:
		default:
			return nil
		}
	}
	return franchiseID
}

// emitLowStockAlerts queues franchise notifications for lines that dipped to
// their floor. Failures are logged, never propagated: an alert must not sink
// a paying customer's order.
func (s *service) emitLowStockAlerts(ctx context.Context, tx *gorm.DB, alerts []inventory.LowStockAlert, products map[uuid.UUID]*models.Product) {
	for _, alert := range alerts {
		name := ""
		if product, ok := products[alert.ProductID]; ok {
			name = product.Name
		}
		err := s.events.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventLowStock,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   alert.ProductID,
			Data: payloads.LowStockEvent{
				ProductID:   alert.ProductID,
				ProductName: name,
				FranchiseID: alert.FranchiseID,
				Quantity:    alert.Quantity,
				MinStock:    alert.MinStock,
			},
			Version: 1,
		})
		if err != nil && s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"product_id": alert.ProductID.String(),
				"error":      err.Error(),
			})
			s.logg.Warn(logCtx, "low stock alert not queued")
		}
	}
}

func (s *service) emitOrderCreated(ctx context.Context, tx *gorm.DB, order *models.Order) {
	err := s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderCreatedEvent{
			OrderID:       order.ID,
			OrderNumber:   order.OrderNumber,
			UserID:        order.UserID,
			FranchiseID:   order.FranchiseID,
			PaymentMethod: order.PaymentMethod.String(),
			Total:         order.Total.StringFixed(2),
		},
		Version: 1,
	})
	if err != nil && s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_number": order.OrderNumber,
			"error":        err.Error(),
		})
		s.logg.Warn(logCtx, "order confirmation not queued")
	}
}
