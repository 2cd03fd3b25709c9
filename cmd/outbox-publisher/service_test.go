package main

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/tokrilabs/tokri-backend/pkg/config"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
	"github.com/tokrilabs/tokri-backend/pkg/logger"
	"github.com/tokrilabs/tokri-backend/pkg/outbox"
	"github.com/tokrilabs/tokri-backend/pkg/outbox/payloads"
	"github.com/tokrilabs/tokri-backend/pkg/outbox/registry"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	discarded []uuid.UUID
}

func (f *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	out := f.events
	f.events = nil
	return out, nil
}

func (f *fakeRepo) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkDiscarded(id uuid.UUID, err error, maxAttempts int) error {
	f.discarded = append(f.discarded, id)
	return nil
}

type fakeResult struct {
	err error
}

func (f fakeResult) Get(context.Context) (string, error) {
	return "msg-1", f.err
}

type fakePublisher struct {
	err      error
	messages []*gcppubsub.Message
	topics   []string
}

func (f *fakePublisher) factory() publisherFactory {
	return func(topic string) publisher {
		f.topics = append(f.topics, topic)
		return publishFunc(func(ctx context.Context, msg *gcppubsub.Message) publishResult {
			f.messages = append(f.messages, msg)
			return fakeResult{err: f.err}
		})
	}
}

type publishFunc func(context.Context, *gcppubsub.Message) publishResult

func (fn publishFunc) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return fn(ctx, msg)
}

func testRegistry(t *testing.T) *registry.EventRegistry {
	t.Helper()
	reg, err := registry.NewEventRegistry(config.PubSubConfig{
		ProjectID:         "tokri-test",
		OrdersTopic:       "tokri-order-events",
		NotificationTopic: "tokri-notification-events",
	})
	if err != nil {
		t.Fatalf("NewEventRegistry: %v", err)
	}
	return reg
}

func orderCreatedRow(t *testing.T) models.OutboxEvent {
	t.Helper()
	data, err := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:       uuid.New(),
		OrderNumber:   "ORD-1700000000000-7",
		UserID:        uuid.New(),
		PaymentMethod: "online",
		Total:         "1349",
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now(),
		Data:       data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       envelope,
		CreatedAt:     time.Now(),
	}
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Config:           &config.Config{},
		Logger:           logger.New(logger.Options{ServiceName: "outbox-test"}),
		Repository:       repo,
		Registry:         testRegistry(t),
		PublisherFactory: pub.factory(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestProcessBatchPublishesAndMarks(t *testing.T) {
	t.Parallel()

	row := orderCreatedRow(t)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	processed, err := svc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if !processed {
		t.Fatal("expected the batch to report work")
	}
	if len(repo.published) != 1 || repo.published[0] != row.ID {
		t.Fatalf("expected the row marked published, got %v", repo.published)
	}
	if len(pub.topics) != 1 || pub.topics[0] != "tokri-order-events" {
		t.Fatalf("expected the orders topic, got %v", pub.topics)
	}

	msg := pub.messages[0]
	if msg.Attributes["event_type"] != string(enums.EventOrderCreated) {
		t.Fatalf("unexpected event_type attribute %q", msg.Attributes["event_type"])
	}
	if msg.Attributes["aggregate_id"] != row.AggregateID.String() {
		t.Fatalf("unexpected aggregate_id attribute %q", msg.Attributes["aggregate_id"])
	}
	if msg.Attributes["event_id"] == "" {
		t.Fatal("expected the envelope event id forwarded")
	}
}

func TestProcessBatchRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	row := orderCreatedRow(t)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{err: fmt.Errorf("deadline exceeded")}
	svc := newTestService(t, repo, pub)

	if _, err := svc.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if len(repo.failed) != 1 || repo.failed[0] != row.ID {
		t.Fatalf("expected the row marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 0 {
		t.Fatalf("row must not be published, got %v", repo.published)
	}
}

func TestProcessBatchDiscardsUndecodableRow(t *testing.T) {
	t.Parallel()

	row := orderCreatedRow(t)
	row.Payload = json.RawMessage(`{"version":1`)
	repo := &fakeRepo{events: []models.OutboxEvent{row}}
	pub := &fakePublisher{}
	svc := newTestService(t, repo, pub)

	if _, err := svc.ProcessBatch(context.Background()); err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if len(repo.discarded) != 1 || repo.discarded[0] != row.ID {
		t.Fatalf("expected the row discarded, got %v", repo.discarded)
	}
	if len(pub.messages) != 0 {
		t.Fatalf("nothing should publish, got %d messages", len(pub.messages))
	}
}

func TestProcessBatchEmptyOutbox(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &fakeRepo{}, &fakePublisher{})
	processed, err := svc.ProcessBatch(context.Background())
	if err != nil {
		t.Fatalf("ProcessBatch: %v", err)
	}
	if processed {
		t.Fatal("expected no work reported")
	}
}
