package coupons

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
)

// Service validates coupons against the cart they are applied to.
type Service interface {
	// Validate returns the coupon when it is active, unexpired, and the cart
	// subtotal clears the coupon's minimum.
	Validate(ctx context.Context, tx *gorm.DB, code string, cartSubtotal decimal.Decimal) (*models.Coupon, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds the coupon validation service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) Validate(ctx context.Context, tx *gorm.DB, code string, cartSubtotal decimal.Decimal) (*models.Coupon, error) {
	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}

	coupon, err := repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if !coupon.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active")
	}
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(s.now()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if cartSubtotal.LessThan(coupon.MinCartTotal) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart total below coupon minimum").
			WithDetails(map[string]string{"min_cart_total": coupon.MinCartTotal.String()})
	}
	return coupon, nil
}
