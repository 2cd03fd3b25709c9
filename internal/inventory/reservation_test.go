package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
)

func TestReserveInventoryDecrements(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productA := uuid.New()
	productB := uuid.New()

	seedInventory(t, db, productA, nil, 5, 0)
	seedInventory(t, db, productB, nil, 3, 0)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := ReserveInventory(ctx, tx, []ReservationRequest{
			{ProductID: productA, Qty: 3},
			{ProductID: productB, Qty: 1},
		})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	if got := loadQuantity(t, db, productA); got != 2 {
		t.Fatalf("expected product a quantity 2, got %d", got)
	}
	if got := loadQuantity(t, db, productB); got != 2 {
		t.Fatalf("expected product b quantity 2, got %d", got)
	}
}

func TestReserveInventoryShortageRollsBackEverything(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	plentiful := uuid.New()
	scarce := uuid.New()

	seedInventory(t, db, plentiful, nil, 10, 0)
	seedInventory(t, db, scarce, nil, 1, 0)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := ReserveInventory(ctx, tx, []ReservationRequest{
			{ProductID: plentiful, Qty: 5},
			{ProductID: scarce, Qty: 2},
		})
		return terr
	})
	if err == nil {
		t.Fatal("expected shortage error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}
	details, ok := typed.Details().(map[string]string)
	if !ok || details["product_id"] != scarce.String() {
		t.Fatalf("expected losing product id in details, got %v", typed.Details())
	}

	// The earlier decrement must not survive the rollback.
	if got := loadQuantity(t, db, plentiful); got != 10 {
		t.Fatalf("expected plentiful stock untouched, got %d", got)
	}
	if got := loadQuantity(t, db, scarce); got != 1 {
		t.Fatalf("expected scarce stock untouched, got %d", got)
	}
}

func TestReserveInventoryLastUnitSingleWinner(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedInventory(t, db, product, nil, 1, 0)

	reserve := func() error {
		return db.Transaction(func(tx *gorm.DB) error {
			_, terr := ReserveInventory(ctx, tx, []ReservationRequest{
				{ProductID: product, Qty: 1},
			})
			return terr
		})
	}

	if err := reserve(); err != nil {
		t.Fatalf("first reservation should win: %v", err)
	}
	err := reserve()
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("second reservation should lose with CONFLICT, got %v", err)
	}
	if got := loadQuantity(t, db, product); got != 0 {
		t.Fatalf("expected zero stock after the single win, got %d", got)
	}
}

func TestReserveInventoryLowStockAlert(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	franchiseID := uuid.New()
	seedInventory(t, db, product, &franchiseID, 6, 5)

	var alerts []LowStockAlert
	err := db.Transaction(func(tx *gorm.DB) error {
		var terr error
		alerts, terr = ReserveInventory(ctx, tx, []ReservationRequest{
			{ProductID: product, FranchiseID: &franchiseID, Qty: 2},
		})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	if len(alerts) != 1 {
		t.Fatalf("expected one low-stock alert, got %d", len(alerts))
	}
	if alerts[0].Quantity != 4 || alerts[0].MinStock != 5 {
		t.Fatalf("unexpected alert %+v", alerts[0])
	}
	if alerts[0].FranchiseID == nil || *alerts[0].FranchiseID != franchiseID {
		t.Fatalf("expected franchise scope on alert")
	}
}

func TestReserveInventoryRejectsInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedInventory(t, db, product, nil, 5, 0)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := ReserveInventory(ctx, tx, []ReservationRequest{{ProductID: product, Qty: 0}})
		return terr
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestReleaseInventoryRestores(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	product := uuid.New()
	seedInventory(t, db, product, nil, 5, 0)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, terr := ReserveInventory(ctx, tx, []ReservationRequest{{ProductID: product, Qty: 4}})
		return terr
	})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return ReleaseInventory(ctx, tx, []ReservationRequest{{ProductID: product, Qty: 4}})
	})
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := loadQuantity(t, db, product); got != 5 {
		t.Fatalf("expected restored quantity 5, got %d", got)
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.InventoryItem{}); err != nil {
		t.Fatalf("migrate inventory: %v", err)
	}
	return db
}

func seedInventory(t *testing.T, db *gorm.DB, productID uuid.UUID, franchiseID *uuid.UUID, qty, minStock int) {
	t.Helper()
	item := models.InventoryItem{
		ID:          uuid.New(),
		ProductID:   productID,
		FranchiseID: franchiseID,
		Quantity:    qty,
		MinStock:    minStock,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
}

func loadQuantity(t *testing.T, db *gorm.DB, productID uuid.UUID) int {
	t.Helper()
	var item models.InventoryItem
	if err := db.First(&item, "product_id = ?", productID).Error; err != nil {
		t.Fatalf("load inventory: %v", err)
	}
	return item.Quantity
}
