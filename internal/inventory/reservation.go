package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tokrilabs/tokri-backend/pkg/db/models"
	pkgerrors "github.com/tokrilabs/tokri-backend/pkg/errors"
)

// ReservationRequest asks for qty units of a product within a franchise
// scope. A nil FranchiseID targets the platform-level inventory row.
type ReservationRequest struct {
	ProductID   uuid.UUID
	FranchiseID *uuid.UUID
	Qty         int
}

// LowStockAlert is raised when a decrement leaves quantity at or below the
// row's minimum stock level.
type LowStockAlert struct {
	ProductID   uuid.UUID
	FranchiseID *uuid.UUID
	Quantity    int
	MinStock    int
}

// ReserveInventory decrements stock for every request inside the caller's
// transaction. Each decrement is a single conditional UPDATE, so quantity can
// never go below zero regardless of interleaving. The first shortage aborts
// with a CONFLICT carrying the losing product id; the caller's rollback
// undoes any earlier decrements.
func ReserveInventory(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) ([]LowStockAlert, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory reservation")
	}

	var alerts []LowStockAlert
	for _, req := range requests {
		if req.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id required")
		}
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation quantity must be positive")
		}

		res := decrementStmt(ctx, tx, req)
		if res.Error != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "reserve inventory")
		}
		if res.RowsAffected == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "insufficient stock").
				WithDetails(map[string]string{"product_id": req.ProductID.String()})
		}

		alert, err := checkLowStock(ctx, tx, req)
		if err != nil {
			return nil, err
		}
		if alert != nil {
			alerts = append(alerts, *alert)
		}
	}
	return alerts, nil
}

// ReleaseInventory restores stock previously taken by a reservation. Used by
// the compensating path on payment failure or cancellation; the caller is
// responsible for running it at most once per order.
func ReleaseInventory(ctx context.Context, tx *gorm.DB, requests []ReservationRequest) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "transaction required for inventory release")
	}

	for _, req := range requests {
		if req.Qty <= 0 {
			continue
		}

		var res *gorm.DB
		if req.FranchiseID == nil {
			res = tx.WithContext(ctx).Exec(`
				UPDATE inventory_items
				SET quantity = quantity + ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE product_id = ? AND franchise_id IS NULL
			`, req.Qty, req.ProductID)
		} else {
			res = tx.WithContext(ctx).Exec(`
				UPDATE inventory_items
				SET quantity = quantity + ?,
					updated_at = CURRENT_TIMESTAMP
				WHERE product_id = ? AND franchise_id = ?
			`, req.Qty, req.ProductID, *req.FranchiseID)
		}
		if res.Error != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, res.Error, "release inventory")
		}
	}
	return nil
}

func decrementStmt(ctx context.Context, tx *gorm.DB, req ReservationRequest) *gorm.DB {
	// franchise_id is nullable, so the scope predicate branches instead of
	// relying on Postgres-only null-safe comparison.
	if req.FranchiseID == nil {
		return tx.WithContext(ctx).Exec(`
			UPDATE inventory_items
			SET quantity = quantity - ?,
				updated_at = CURRENT_TIMESTAMP
			WHERE product_id = ? AND franchise_id IS NULL AND quantity >= ?
		`, req.Qty, req.ProductID, req.Qty)
	}
	return tx.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET quantity = quantity - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE product_id = ? AND franchise_id = ? AND quantity >= ?
	`, req.Qty, req.ProductID, *req.FranchiseID, req.Qty)
}

func checkLowStock(ctx context.Context, tx *gorm.DB, req ReservationRequest) (*LowStockAlert, error) {
	var item models.InventoryItem
	query := tx.WithContext(ctx).Where("product_id = ?", req.ProductID)
	if req.FranchiseID == nil {
		query = query.Where("franchise_id IS NULL")
	} else {
		query = query.Where("franchise_id = ?", *req.FranchiseID)
	}
	if err := query.First(&item).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading inventory after decrement")
	}

	if item.MinStock > 0 && item.Quantity <= item.MinStock {
		return &LowStockAlert{
			ProductID:   req.ProductID,
			FranchiseID: req.FranchiseID,
			Quantity:    item.Quantity,
			MinStock:    item.MinStock,
		}, nil
	}
	return nil, nil
}
