package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/tokrilabs/tokri-backend/internal/orders"
	"github.com/tokrilabs/tokri-backend/internal/payments"
	"github.com/tokrilabs/tokri-backend/pkg/logger"
)

const (
	paymentTTLJobName  = "payment-ttl"
	paymentTTLBatch    = 100
	paymentTTLInterval = 10 * time.Minute
)

// PaymentTTLJob fails online payments that stayed pending past the TTL,
// cancelling their orders and restoring reserved stock through the same path
// the explicit failure callback uses.
type PaymentTTLJob struct {
	payments payments.Repository
	orders   orders.Repository
	settle   payments.Service
	ttl      time.Duration
	logg     *logger.Logger
}

// NewPaymentTTLJob wires the sweep.
func NewPaymentTTLJob(paymentRepo payments.Repository, orderRepo orders.Repository, settle payments.Service, ttl time.Duration, logg *logger.Logger) (*PaymentTTLJob, error) {
	if paymentRepo == nil {
		return nil, fmt.Errorf("payment repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if settle == nil {
		return nil, fmt.Errorf("payment service required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("pending ttl must be positive")
	}
	return &PaymentTTLJob{
		payments: paymentRepo,
		orders:   orderRepo,
		settle:   settle,
		ttl:      ttl,
		logg:     logg,
	}, nil
}

// Name implements Job.
func (j *PaymentTTLJob) Name() string { return paymentTTLJobName }

// Interval implements Job.
func (j *PaymentTTLJob) Interval() time.Duration { return paymentTTLInterval }

// Run implements Job. One stuck payment must not shield the rest of the
// batch, so per-payment errors are collected and returned combined.
func (j *PaymentTTLJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.ttl)
	stale, err := j.payments.ListStalePending(ctx, cutoff, paymentTTLBatch)
	if err != nil {
		return err
	}

	var errs error
	swept := 0
	for _, payment := range stale {
		order, oerr := j.orders.FindByID(ctx, payment.OrderID)
		if oerr != nil {
			errs = multierr.Append(errs, fmt.Errorf("payment %s: %w", payment.ID, oerr))
			continue
		}
		if ferr := j.settle.Fail(ctx, order.OrderNumber, "payment pending past ttl"); ferr != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.OrderNumber, ferr))
			continue
		}
		swept++
	}

	if j.logg != nil && len(stale) > 0 {
		logCtx := j.logg.WithFields(ctx, map[string]any{
			"stale": len(stale),
			"swept": swept,
		})
		j.logg.Info(logCtx, "pending payment sweep finished")
	}
	return errs
}
