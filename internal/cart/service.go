package cart

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tokrilabs/tokri-backend/internal/catalog"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
)

const maxItemQuantity = 100

// Service manages the active cart. Prices are snapshotted from the catalog
// when an item is added and never refreshed afterwards.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartRecord, error)
	UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartRecord, error)
	RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartRecord, error)
	// Clear empties the cart inside the caller's transaction. Checkout calls
	// it after the order build succeeds so a rollback keeps the cart intact.
	Clear(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error
}

type service struct {
	repo    Repository
	catalog catalog.Repository
}

// NewService builds the cart service.
func NewService(repo Repository, catalogRepo catalog.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo, catalog: catalogRepo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	record, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindActiveWithItems(ctx, record.UserID)
}

func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	product, err := s.catalog.FindActiveByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	record, err := s.repo.FindOrCreateByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindItem(ctx, record.ID, productID)
	switch {
	case err == nil:
		next := existing.Quantity + quantity
		if next > maxItemQuantity {
			next = maxItemQuantity
		}
		if uerr := s.repo.UpdateItemQuantity(ctx, existing.ID, next); uerr != nil {
			return nil, uerr
		}
	case pkgerrors.As(err) != nil && pkgerrors.As(err).Code() == pkgerrors.CodeNotFound:
		item := &models.CartItem{
			ID:        uuid.New(),
			CartID:    record.ID,
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  quantity,
		}
		if cerr := s.repo.CreateItem(ctx, item); cerr != nil {
			return nil, cerr
		}
	default:
		return nil, err
	}

	return s.repo.FindActiveWithItems(ctx, userID)
}

func (s *service) UpdateItemQuantity(ctx context.Context, userID, productID uuid.UUID, quantity int) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	if err := validateQuantity(quantity); err != nil {
		return nil, err
	}

	record, err := s.repo.FindActiveWithItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, record.ID, productID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateItemQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}
	return s.repo.FindActiveWithItems(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*models.CartRecord, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	record, err := s.repo.FindActiveWithItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.FindItem(ctx, record.ID, productID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteItem(ctx, item.ID); err != nil {
		return nil, err
	}
	return s.repo.FindActiveWithItems(ctx, userID)
}

func (s *service) Clear(ctx context.Context, tx *gorm.DB, cartID uuid.UUID) error {
	if cartID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart id required")
	}
	repo := s.repo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	return repo.ClearItems(ctx, cartID)
}

func validateQuantity(quantity int) error {
	if quantity < 1 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if quantity > maxItemQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-item limit")
	}
	return nil
}
