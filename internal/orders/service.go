package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tokrilabs/tokri-backend/internal/catalog"
	"github.com/tokrilabs/tokri-backend/internal/inventory"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
	"github.com/tokrilabs/tokri-backend/pkg/logger"
	"github.com/tokrilabs/tokri-backend/pkg/outbox"
	"github.com/tokrilabs/tokri-backend/pkg/outbox/payloads"
)

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service reads orders and drives their lifecycle.
type Service interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	GetForUser(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error)
	// UpdateStatus applies an admin-driven lifecycle step. Moving to
	// cancelled also restores reserved inventory.
	UpdateStatus(ctx context.Context, orderNumber string, target enums.OrderStatus) (*models.Order, error)
	// CancelTx cancels the order inside the caller's transaction, restoring
	// reserved inventory at most once per order. The payment failure path and
	// the TTL sweep reuse it.
	CancelTx(ctx context.Context, tx *gorm.DB, order *models.Order, reason string) error
}

type service struct {
	repo    Repository
	catalog catalog.Repository
	txs     TxRunner
	events  *outbox.Service
	logg    *logger.Logger
}

// NewService builds the order lifecycle service.
func NewService(repo Repository, catalogRepo catalog.Repository, txs TxRunner, events *outbox.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if catalogRepo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if txs == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{repo: repo, catalog: catalogRepo, txs: txs, events: events, logg: logg}, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	return s.repo.ListByUser(ctx, userID)
}

func (s *service) GetForUser(ctx context.Context, userID uuid.UUID, orderNumber string) (*models.Order, error) {
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	// Another user's order is indistinguishable from a missing one.
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) UpdateStatus(ctx context.Context, orderNumber string, target enums.OrderStatus) (*models.Order, error) {
	order, err := s.repo.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if err := ValidateTransition(order.Status, target); err != nil {
		return nil, err
	}

	err = s.txs.WithTx(ctx, func(tx *gorm.DB) error {
		if target == enums.OrderStatusCancelled {
			return s.CancelTx(ctx, tx, order, "cancelled by admin")
		}

		won, uerr := s.repo.WithTx(tx).UpdateStatusIf(ctx, order.ID, order.Status, target)
		if uerr != nil {
			return uerr
		}
		if !won {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.repo.FindByNumber(ctx, orderNumber)
}

func (s *service) CancelTx(ctx context.Context, tx *gorm.DB, order *models.Order, reason string) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for cancellation")
	}
	if order == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order required")
	}
	if err := ValidateTransition(order.Status, enums.OrderStatusCancelled); err != nil {
		return err
	}

	repo := s.repo.WithTx(tx)
	won, err := repo.UpdateStatusIf(ctx, order.ID, order.Status, enums.OrderStatusCancelled)
	if err != nil {
		return err
	}
	if !won {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}

	if err := s.restoreInventoryTx(ctx, tx, order); err != nil {
		return err
	}

	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCancelled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Data: payloads.OrderCancelledEvent{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			Reason:      reason,
		},
		Version: 1,
	})
}

// restoreInventoryTx puts the reserved quantities back, at most once per
// order. The inventory_released_at column is the idempotency gate: whichever
// caller claims it performs the restore, everyone else no-ops.
func (s *service) restoreInventoryTx(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	repo := s.repo.WithTx(tx)
	claimed, err := repo.MarkInventoryReleased(ctx, order.ID)
	if err != nil {
		return err
	}
	if !claimed {
		if s.logg != nil {
			s.logg.Info(s.logg.WithField(ctx, "order_number", order.OrderNumber),
				"inventory already released, skipping restore")
		}
		return nil
	}

	requests, err := s.releaseRequests(ctx, tx, order)
	if err != nil {
		return err
	}
	return inventory.ReleaseInventory(ctx, tx, requests)
}

// releaseRequests rebuilds the reservation scope for each line. The franchise
// scope comes from the catalog row, same as it did at reservation time.
func (s *service) releaseRequests(ctx context.Context, tx *gorm.DB, order *models.Order) ([]inventory.ReservationRequest, error) {
	ids := make([]uuid.UUID, 0, len(order.Items))
	for _, item := range order.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.WithTx(tx).FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	requests := make([]inventory.ReservationRequest, 0, len(order.Items))
	for _, item := range order.Items {
		req := inventory.ReservationRequest{ProductID: item.ProductID, Qty: item.Quantity}
		if product, ok := products[item.ProductID]; ok {
			req.FranchiseID = product.FranchiseID
		}
		requests = append(requests, req)
	}
	return requests, nil
}
