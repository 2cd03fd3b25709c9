package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tokrilabs/tokri-backend/internal/catalog"
	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	"github.com/tokrilabs/tokri-backend/pkg/enums"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
	"github.com/tokrilabs/tokri-backend/pkg/outbox"
)

type dbTxRunner struct {
	db *gorm.DB
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

func TestCreateRetriesOnNumberCollision(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	taken := "ORD-1700000000000-1"
	free := "ORD-1700000000000-2"

	seedOrder(t, db, &models.Order{
		ID:          uuid.New(),
		OrderNumber: taken,
		UserID:      uuid.New(),
		AddressID:   uuid.New(),
		Status:      enums.OrderStatusPending,
	})

	attempts := 0
	repo := &repository{db: db, numberFn: func() string {
		attempts++
		if attempts == 1 {
			return taken
		}
		return free
	}}

	order := &models.Order{
		UserID:        uuid.New(),
		AddressID:     uuid.New(),
		Status:        enums.OrderStatusPending,
		PaymentMethod: enums.PaymentMethodCOD,
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).Create(context.Background(), order)
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.OrderNumber != free {
		t.Fatalf("expected the retried number %q, got %q", free, order.OrderNumber)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 allocation attempts, got %d", attempts)
	}
}

func TestCreateGivesUpAfterRepeatedCollisions(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	taken := "ORD-1700000000001-7"
	seedOrder(t, db, &models.Order{
		ID:          uuid.New(),
		OrderNumber: taken,
		UserID:      uuid.New(),
		AddressID:   uuid.New(),
		Status:      enums.OrderStatusPending,
	})

	repo := &repository{db: db, numberFn: func() string { return taken }}
	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.WithTx(tx).Create(context.Background(), &models.Order{
			UserID:    uuid.New(),
			AddressID: uuid.New(),
			Status:    enums.OrderStatusPending,
		})
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected retryable CONFLICT after exhausting attempts, got %v", err)
	}
}

func TestGetForUserHidesForeignOrders(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	owner := uuid.New()
	order := seedOrder(t, db, &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1700000000002-3",
		UserID:      owner,
		AddressID:   uuid.New(),
		Status:      enums.OrderStatusPending,
	})

	got, err := svc.GetForUser(context.Background(), owner, order.OrderNumber)
	if err != nil {
		t.Fatalf("GetForUser: %v", err)
	}
	if got.ID != order.ID {
		t.Fatalf("unexpected order %+v", got)
	}

	_, err = svc.GetForUser(context.Background(), uuid.New(), order.OrderNumber)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected foreign order to read as not found, got %v", err)
	}
}

func TestUpdateStatusWalksLifecycle(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	order := seedOrder(t, db, &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1700000000003-9",
		UserID:      uuid.New(),
		AddressID:   uuid.New(),
		Status:      enums.OrderStatusPending,
	})

	for _, target := range []enums.OrderStatus{
		enums.OrderStatusProcessing,
		enums.OrderStatusShipped,
		enums.OrderStatusDelivered,
		enums.OrderStatusCompleted,
	} {
		updated, err := svc.UpdateStatus(context.Background(), order.OrderNumber, target)
		if err != nil {
			t.Fatalf("UpdateStatus to %s: %v", target, err)
		}
		if updated.Status != target {
			t.Fatalf("expected %s, got %s", target, updated.Status)
		}
	}

	_, err := svc.UpdateStatus(context.Background(), order.OrderNumber, enums.OrderStatusCancelled)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected STATE_CONFLICT from terminal state, got %v", err)
	}
}

func TestCancellationRestoresInventoryOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc := newTestService(t, db)
	product := seedProduct(t, db, "Ghee 1L", "640")
	seedStock(t, db, product.ID, 3)

	order := seedOrder(t, db, &models.Order{
		ID:          uuid.New(),
		OrderNumber: "ORD-1700000000004-5",
		UserID:      uuid.New(),
		AddressID:   uuid.New(),
		Status:      enums.OrderStatusPending,
		Items: []models.OrderItem{{
			ID:        uuid.New(),
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  2,
			Subtotal:  product.Price.Mul(decimal.NewFromInt(2)),
		}},
	})

	updated, err := svc.UpdateStatus(context.Background(), order.OrderNumber, enums.OrderStatusCancelled)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if updated.Status != enums.OrderStatusCancelled {
		t.Fatalf("expected cancelled, got %s", updated.Status)
	}
	if updated.InventoryReleasedAt == nil {
		t.Fatal("expected the release guard to be claimed")
	}
	if got := loadQuantity(t, db, product.ID); got != 5 {
		t.Fatalf("expected stock restored to 5, got %d", got)
	}

	// A second restore attempt must no-op on the guard.
	err = db.Transaction(func(tx *gorm.DB) error {
		impl := svc.(*service)
		return impl.restoreInventoryTx(context.Background(), tx, updated)
	})
	if err != nil {
		t.Fatalf("second restore: %v", err)
	}
	if got := loadQuantity(t, db, product.ID); got != 5 {
		t.Fatalf("expected stock unchanged at 5, got %d", got)
	}

	var cancelled int64
	if err := db.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_id = ?", enums.EventOrderCancelled, order.ID).
		Count(&cancelled).Error; err != nil {
		t.Fatalf("count outbox: %v", err)
	}
	if cancelled != 1 {
		t.Fatalf("expected one cancellation event, got %d", cancelled)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = db.AutoMigrate(
		&models.Product{},
		&models.InventoryItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.OutboxEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	events := outbox.NewService(outbox.NewRepository(db), nil)
	svc, err := NewService(NewRepository(db), catalog.NewRepository(db), &dbTxRunner{db: db}, events, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seedOrder(t *testing.T, db *gorm.DB, order *models.Order) *models.Order {
	t.Helper()
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func seedProduct(t *testing.T, db *gorm.DB, name, price string) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:       uuid.New(),
		Name:     name,
		Category: enums.ProductCategoryShopping,
		Price:    decimal.RequireFromString(price),
		IsActive: true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedStock(t *testing.T, db *gorm.DB, productID uuid.UUID, qty int) {
	t.Helper()
	item := &models.InventoryItem{ID: uuid.New(), ProductID: productID, Quantity: qty}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func loadQuantity(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var item models.InventoryItem
	if err := db.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load stock: %v", err)
	}
	return item.Quantity
}
