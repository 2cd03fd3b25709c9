package payments

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tokrilabs/tokri-backend/internal/orders"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
	"github.com/tokrilabs/tokri-backend/pkg/logger"
	"github.com/tokrilabs/tokri-backend/pkg/outbox"
	"github.com/tokrilabs/tokri-backend/pkg/outbox/payloads"
)

// SignatureVerifier checks the gateway's checkout callback signature.
type SignatureVerifier interface {
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool
}

// TxRunner runs fn inside a database transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ConfirmRequest is the gateway callback payload after the buyer completes
// the widget flow.
type ConfirmRequest struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// ConfirmResult reports whether this call performed the flip. Redeliveries
// come back with Confirmed=false and no error.
type ConfirmResult struct {
	Confirmed   bool
	OrderNumber string
}

// Service settles the online payment leg: success confirmation and the
// compensating failure path shared with the TTL sweep.
type Service interface {
	Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error)
	// FailForUser fails a pending payment on the caller's own order.
	FailForUser(ctx context.Context, userID uuid.UUID, orderNumber, reason string) error
	// Fail is the unauthenticated internal variant used by the sweep.
	Fail(ctx context.Context, orderNumber, reason string) error
}

type service struct {
	repo     Repository
	orders   orders.Repository
	ordering orders.Service
	verifier SignatureVerifier
	txs      TxRunner
	events   *outbox.Service
	logg     *logger.Logger
}

// NewService wires the payment settlement service.
func NewService(
	repo Repository,
	orderRepo orders.Repository,
	orderSvc orders.Service,
	verifier SignatureVerifier,
	txs TxRunner,
	events *outbox.Service,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if orderSvc == nil {
		return nil, fmt.Errorf("order service required")
	}
	if verifier == nil {
		return nil, fmt.Errorf("signature verifier required")
	}
	if txs == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &service{
		repo:     repo,
		orders:   orderRepo,
		ordering: orderSvc,
		verifier: verifier,
		txs:      txs,
		events:   events,
		logg:     logg,
	}, nil
}

func (s *service) Confirm(ctx context.Context, req ConfirmRequest) (*ConfirmResult, error) {
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order id, payment id and signature are required")
	}

	// The signature gate runs before any state is touched. A forged or
	// corrupted callback changes nothing.
	if !s.verifier.VerifyPaymentSignature(req.GatewayOrderID, req.GatewayPaymentID, req.Signature) {
		if s.logg != nil {
			logCtx := s.logg.WithFields(ctx, map[string]any{
				"gateway_order_id":   req.GatewayOrderID,
				"gateway_payment_id": req.GatewayPaymentID,
			})
			s.logg.Warn(logCtx, "payment signature verification failed")
		}
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment signature verification failed")
	}

	result := &ConfirmResult{}
	err := s.txs.WithTx(ctx, func(tx *gorm.DB) error {
		payment, perr := s.repo.WithTx(tx).FindByGatewayOrderID(ctx, req.GatewayOrderID)
		if perr != nil {
			// An unknown gateway order id is indistinguishable from a
			// redelivery for a purged payment; acknowledge it.
			if typed := pkgerrors.As(perr); typed != nil && typed.Code() == pkgerrors.CodeNotFound {
				return nil
			}
			return perr
		}

		won, werr := s.repo.WithTx(tx).MarkSucceededIf(ctx, payment.ID, req.GatewayPaymentID, req.Signature)
		if werr != nil {
			return werr
		}
		if !won {
			// Already terminal: redelivered callback, nothing to do.
			return nil
		}

		order, oerr := s.orders.WithTx(tx).FindByID(ctx, payment.OrderID)
		if oerr != nil {
			return oerr
		}
		moved, merr := s.orders.WithTx(tx).UpdateStatusIf(ctx, order.ID, enums.OrderStatusPending, enums.OrderStatusProcessing)
		if merr != nil {
			return merr
		}
		if !moved && s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "order_number", order.OrderNumber),
				"payment confirmed but order already left pending")
		}

		result.Confirmed = true
		result.OrderNumber = order.OrderNumber
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentConfirmed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: payloads.PaymentConfirmedEvent{
				OrderID:          order.ID,
				OrderNumber:      order.OrderNumber,
				UserID:           order.UserID,
				GatewayPaymentID: req.GatewayPaymentID,
				Amount:           payment.Amount.StringFixed(2),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) FailForUser(ctx context.Context, userID uuid.UUID, orderNumber, reason string) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	order, err := s.orders.FindByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}
	if order.UserID != userID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return s.failOrder(ctx, order, reason)
}

func (s *service) Fail(ctx context.Context, orderNumber, reason string) error {
	order, err := s.orders.FindByNumber(ctx, orderNumber)
	if err != nil {
		return err
	}
	return s.failOrder(ctx, order, reason)
}

func (s *service) failOrder(ctx context.Context, order *models.Order, reason string) error {
	payment, err := s.repo.FindByOrderID(ctx, order.ID)
	if err != nil {
		return err
	}

	return s.txs.WithTx(ctx, func(tx *gorm.DB) error {
		won, werr := s.repo.WithTx(tx).MarkFailedIf(ctx, payment.ID)
		if werr != nil {
			return werr
		}
		if !won {
			// Terminal already: either confirmed meanwhile or failed twice.
			if s.logg != nil {
				s.logg.Info(s.logg.WithField(ctx, "order_number", order.OrderNumber),
					"payment already settled, failure ignored")
			}
			return nil
		}

		// Admin cancellation may have raced us; the release guard keeps the
		// restore single-shot either way.
		if order.Status != enums.OrderStatusCancelled {
			if cerr := s.ordering.CancelTx(ctx, tx, order, reason); cerr != nil {
				return cerr
			}
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentFailed,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Data: payloads.PaymentFailedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				UserID:      order.UserID,
				Reason:      reason,
			},
			Version: 1,
		})
	})
}
