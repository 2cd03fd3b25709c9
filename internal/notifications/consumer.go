package notifications

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
	"github.com/tokrilabs/tokri-backend/pkg/logger"
	"github.com/tokrilabs/tokri-backend/pkg/outbox/idempotency"
	"github.com/tokrilabs/tokri-backend/pkg/outbox/payloads"
	"github.com/tokrilabs/tokri-backend/pkg/outbox/registry"
)

// ConsumerName namespaces the idempotency keys for this worker.
const ConsumerName = "notification-worker"

// Message is the transport-agnostic slice of a Pub/Sub message the consumer
// needs. The worker binary adapts real messages into it.
type Message struct {
	Data       []byte
	Attributes map[string]string
}

// Consumer turns published domain events into notification rows and emails.
// It never asks for redelivery: a failed send is logged and the message is
// acked, matching the fire-and-forget notification contract.
type Consumer struct {
	registry *registry.EventRegistry
	idem     *idempotency.Manager
	repo     Repository
	dir      Directory
	emails   EmailSender
	logg     *logger.Logger
}

// NewConsumer wires the notification consumer.
func NewConsumer(
	reg *registry.EventRegistry,
	idem *idempotency.Manager,
	repo Repository,
	dir Directory,
	emails EmailSender,
	logg *logger.Logger,
) (*Consumer, error) {
	if reg == nil {
		return nil, fmt.Errorf("event registry required")
	}
	if idem == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if repo == nil {
		return nil, fmt.Errorf("notification repository required")
	}
	if dir == nil {
		return nil, fmt.Errorf("recipient directory required")
	}
	if emails == nil {
		return nil, fmt.Errorf("email sender required")
	}
	return &Consumer{
		registry: reg,
		idem:     idem,
		repo:     repo,
		dir:      dir,
		emails:   emails,
		logg:     logg,
	}, nil
}

// Handle processes one message. The returned error is informational; the
// caller acks regardless.
func (c *Consumer) Handle(ctx context.Context, msg Message) error {
	row, err := rowFromMessage(msg)
	if err != nil {
		c.warn(ctx, "dropping malformed message", err)
		return err
	}

	resolved, err := c.registry.Resolve(row)
	if err != nil {
		c.warn(ctx, "dropping unresolvable message", err)
		return err
	}

	eventID, err := uuid.Parse(resolved.Envelope.EventID)
	if err != nil {
		c.warn(ctx, "dropping message with invalid event id", err)
		return err
	}
	already, err := c.idem.CheckAndMarkProcessed(ctx, ConsumerName, eventID)
	if err != nil {
		// Redis being down must not redeliver notifications forever; treat
		// the event as fresh and let the TTL key settle later.
		c.warn(ctx, "idempotency check failed, processing anyway", err)
	}
	if already {
		return nil
	}

	if err := c.dispatch(ctx, resolved.Payload); err != nil {
		c.warn(ctx, "notification delivery failed", err)
		return err
	}
	return nil
}

func rowFromMessage(msg Message) (models.OutboxEvent, error) {
	eventType, err := enums.ParseOutboxEventType(msg.Attributes["event_type"])
	if err != nil {
		return models.OutboxEvent{}, err
	}
	aggregateType, err := enums.ParseOutboxAggregateType(msg.Attributes["aggregate_type"])
	if err != nil {
		return models.OutboxEvent{}, err
	}
	aggregateID, err := uuid.Parse(msg.Attributes["aggregate_id"])
	if err != nil {
		return models.OutboxEvent{}, fmt.Errorf("aggregate id: %w", err)
	}
	return models.OutboxEvent{
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       msg.Data,
	}, nil
}

func (c *Consumer) dispatch(ctx context.Context, payload interface{}) error {
	switch event := payload.(type) {
	case *payloads.OrderCreatedEvent:
		return c.notifyUser(ctx, event.UserID, enums.NotificationTypeOrderConfirmation,
			"Order placed",
			fmt.Sprintf("Your order %s has been placed. Total: ₹%s.", event.OrderNumber, event.Total))
	case *payloads.PaymentConfirmedEvent:
		return c.notifyUser(ctx, event.UserID, enums.NotificationTypePaymentReceipt,
			"Payment received",
			fmt.Sprintf("We received ₹%s for order %s. It is now being processed.", event.Amount, event.OrderNumber))
	case *payloads.PaymentFailedEvent:
		return c.notifyUser(ctx, event.UserID, enums.NotificationTypePaymentFailure,
			"Payment failed",
			fmt.Sprintf("Payment for order %s did not complete and the order was cancelled. Reserved items were returned to stock.", event.OrderNumber))
	case *payloads.OrderCancelledEvent:
		// Cancellation by payment failure already notifies via the payment
		// event; plain cancellations carry no notification today.
		return nil
	case *payloads.LowStockEvent:
		return c.alertFranchise(ctx, event)
	default:
		return fmt.Errorf("no notification mapping for %T", payload)
	}
}

func (c *Consumer) notifyUser(ctx context.Context, userID uuid.UUID, kind enums.NotificationType, title, message string) error {
	user, err := c.dir.FindUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := c.repo.Create(ctx, &models.Notification{
		UserID:  user.ID,
		Type:    kind,
		Title:   title,
		Message: message,
	}); err != nil {
		return err
	}

	if err := c.emails.Send(ctx, user.Email, title, message); err != nil {
		// The in-app row exists; email is best-effort on top.
		c.warn(ctx, "email send failed", err)
	}
	return nil
}

func (c *Consumer) alertFranchise(ctx context.Context, event *payloads.LowStockEvent) error {
	if event.FranchiseID == nil {
		// Platform-level stock has no franchise owner to alert.
		return nil
	}
	franchise, err := c.dir.FindFranchise(ctx, *event.FranchiseID)
	if err != nil {
		return err
	}

	subject := "Low stock alert"
	body := fmt.Sprintf("%q is down to %d units (floor %d). Restock soon to keep it sellable.",
		event.ProductName, event.Quantity, event.MinStock)
	return c.emails.Send(ctx, franchise.OwnerEmail, subject, body)
}

func (c *Consumer) warn(ctx context.Context, msg string, err error) {
	if c.logg == nil {
		return
	}
	c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), msg)
}
