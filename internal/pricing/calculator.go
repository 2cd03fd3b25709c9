package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tokrilabs/tokri-backend/pkg/config"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
)

// Quote is the priced breakdown of a cart snapshot. All amounts are rupees
// rounded to two decimal places.
type Quote struct {
	Subtotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
	CODSurcharge   decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
}

// Calculator prices carts from configuration knobs. It is pure: the same
// inputs always produce the same quote.
type Calculator struct {
	freeDeliveryThreshold decimal.Decimal
	flatDeliveryCharge    decimal.Decimal
	codSurcharge          decimal.Decimal
}

// NewCalculator builds a calculator from checkout configuration.
func NewCalculator(cfg config.CheckoutConfig) (*Calculator, error) {
	threshold, err := decimal.NewFromString(cfg.FreeDeliveryThreshold)
	if err != nil {
		return nil, fmt.Errorf("free delivery threshold: %w", err)
	}
	flat, err := decimal.NewFromString(cfg.FlatDeliveryCharge)
	if err != nil {
		return nil, fmt.Errorf("flat delivery charge: %w", err)
	}
	cod, err := decimal.NewFromString(cfg.CODSurcharge)
	if err != nil {
		return nil, fmt.Errorf("cod surcharge: %w", err)
	}
	return &Calculator{
		freeDeliveryThreshold: threshold,
		flatDeliveryCharge:    flat,
		codSurcharge:          cod,
	}, nil
}

// Subtotal sums unit-price snapshots times quantities across all cart lines.
func (c *Calculator) Subtotal(items []models.CartItem) decimal.Decimal {
	subtotal := decimal.Zero
	for _, item := range items {
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(line)
	}
	return subtotal.Round(2)
}

// DeliveryCharge is zero above the free-delivery threshold, the flat rate
// otherwise.
func (c *Calculator) DeliveryCharge(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(c.freeDeliveryThreshold) {
		return decimal.Zero
	}
	return c.flatDeliveryCharge
}

// Price produces the full quote. discountPercent comes from a validated
// coupon (zero when none applies); the resulting discount is clamped so the
// total never goes negative.
func (c *Calculator) Price(items []models.CartItem, method enums.PaymentMethod, discountPercent decimal.Decimal) Quote {
	subtotal := c.Subtotal(items)
	delivery := c.DeliveryCharge(subtotal)

	surcharge := decimal.Zero
	if method == enums.PaymentMethodCOD {
		surcharge = c.codSurcharge
	}

	gross := subtotal.Add(delivery).Add(surcharge)

	discount := decimal.Zero
	if discountPercent.IsPositive() {
		discount = subtotal.Mul(discountPercent).Div(decimal.NewFromInt(100)).Round(2)
	}
	if discount.GreaterThan(gross) {
		discount = gross
	}

	return Quote{
		Subtotal:       subtotal,
		DeliveryCharge: delivery,
		CODSurcharge:   surcharge,
		Discount:       discount,
		Total:          gross.Sub(discount).Round(2),
	}
}
