package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/tokrilabs/tokri-backend/pkg/config"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
)

func newTestCalculator(t *testing.T) *Calculator {
	t.Helper()
	calc, err := NewCalculator(config.CheckoutConfig{
		FreeDeliveryThreshold: "999",
		FlatDeliveryCharge:    "99",
		CODSurcharge:          "49",
		Currency:              "INR",
	})
	if err != nil {
		t.Fatalf("NewCalculator: %v", err)
	}
	return calc
}

func items(prices ...string) []models.CartItem {
	out := make([]models.CartItem, 0, len(prices))
	for _, p := range prices {
		out = append(out, models.CartItem{
			UnitPrice: decimal.RequireFromString(p),
			Quantity:  1,
		})
	}
	return out
}

func TestPriceCODAboveFreeDeliveryThreshold(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	// 1300 subtotal clears free delivery, COD adds 49 → 1349.
	quote := calc.Price(items("650", "650"), enums.PaymentMethodCOD, decimal.Zero)

	if !quote.Subtotal.Equal(decimal.RequireFromString("1300")) {
		t.Fatalf("unexpected subtotal %s", quote.Subtotal)
	}
	if !quote.DeliveryCharge.IsZero() {
		t.Fatalf("expected free delivery, got %s", quote.DeliveryCharge)
	}
	if !quote.CODSurcharge.Equal(decimal.RequireFromString("49")) {
		t.Fatalf("unexpected surcharge %s", quote.CODSurcharge)
	}
	if !quote.Total.Equal(decimal.RequireFromString("1349")) {
		t.Fatalf("expected total 1349, got %s", quote.Total)
	}
}

func TestPriceOnlineBelowThresholdPaysDelivery(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	quote := calc.Price(items("500"), enums.PaymentMethodOnline, decimal.Zero)

	if !quote.DeliveryCharge.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("expected flat delivery charge, got %s", quote.DeliveryCharge)
	}
	if !quote.CODSurcharge.IsZero() {
		t.Fatalf("online orders carry no surcharge, got %s", quote.CODSurcharge)
	}
	if !quote.Total.Equal(decimal.RequireFromString("599")) {
		t.Fatalf("expected total 599, got %s", quote.Total)
	}
}

func TestPriceThresholdBoundaryIsInclusive(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	// Exactly 999 still pays delivery; only strictly greater is free.
	at := calc.Price(items("999"), enums.PaymentMethodOnline, decimal.Zero)
	if !at.DeliveryCharge.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("999 should pay delivery, got %s", at.DeliveryCharge)
	}

	above := calc.Price(items("999.01"), enums.PaymentMethodOnline, decimal.Zero)
	if !above.DeliveryCharge.IsZero() {
		t.Fatalf("999.01 should ship free, got %s", above.DeliveryCharge)
	}
}

func TestPriceDiscountClampedToGross(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	quote := calc.Price(items("10"), enums.PaymentMethodOnline, decimal.RequireFromString("100"))

	// 100% of 10 is 10, but gross is 109 (10 + 99 delivery); discount stays 10.
	if !quote.Discount.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("unexpected discount %s", quote.Discount)
	}
	if quote.Total.IsNegative() {
		t.Fatalf("total went negative: %s", quote.Total)
	}
	if !quote.Total.Equal(decimal.RequireFromString("99")) {
		t.Fatalf("expected total 99, got %s", quote.Total)
	}
}

func TestPriceTotalNeverNegative(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	// A discount percent over 100 can exceed gross; the clamp holds at zero.
	quote := calc.Price(items("2000"), enums.PaymentMethodOnline, decimal.RequireFromString("150"))

	if quote.Total.IsNegative() {
		t.Fatalf("total went negative: %s", quote.Total)
	}
	if !quote.Total.IsZero() {
		t.Fatalf("expected clamped total 0, got %s", quote.Total)
	}
	if !quote.Discount.Equal(quote.Subtotal.Add(quote.DeliveryCharge)) {
		t.Fatalf("discount should clamp to gross, got %s", quote.Discount)
	}
}

func TestPriceDeterministicForFixedInputs(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	lines := []models.CartItem{
		{UnitPrice: decimal.RequireFromString("33.33"), Quantity: 3},
		{UnitPrice: decimal.RequireFromString("0.01"), Quantity: 7},
	}

	first := calc.Price(lines, enums.PaymentMethodCOD, decimal.RequireFromString("12.5"))
	for i := 0; i < 50; i++ {
		again := calc.Price(lines, enums.PaymentMethodCOD, decimal.RequireFromString("12.5"))
		if !again.Total.Equal(first.Total) || !again.Discount.Equal(first.Discount) {
			t.Fatalf("pricing not deterministic: %s vs %s", again.Total, first.Total)
		}
	}
}

func TestSubtotalSumsLineSnapshots(t *testing.T) {
	t.Parallel()
	calc := newTestCalculator(t)

	lines := []models.CartItem{
		{UnitPrice: decimal.RequireFromString("10.50"), Quantity: 2},
		{UnitPrice: decimal.RequireFromString("5.25"), Quantity: 4},
	}
	if got := calc.Subtotal(lines); !got.Equal(decimal.RequireFromString("42")) {
		t.Fatalf("expected subtotal 42, got %s", got)
	}
}
