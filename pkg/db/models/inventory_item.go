package models

import (
	"time"

	"github.com/google/uuid"
)

// InventoryItem tracks on-hand stock per product and franchise. A nil
// FranchiseID scopes the row to the platform-level catalog. Quantity is only
// ever mutated through conditional UPDATEs so it can never go negative.
type InventoryItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID   uuid.UUID  `gorm:"column:product_id;type:uuid;not null;uniqueIndex:idx_inventory_product_franchise"`
	FranchiseID *uuid.UUID `gorm:"column:franchise_id;type:uuid;uniqueIndex:idx_inventory_product_franchise"`
	Quantity    int        `gorm:"column:quantity;not null;default:0"`
	MinStock    int        `gorm:"column:min_stock;not null;default:0"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
