package models

import (
	"time"

	"github.com/google/uuid"
)

// Franchise is the tenant boundary for catalog and inventory rows.
type Franchise struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name       string    `gorm:"column:name;not null"`
	OwnerName  string    `gorm:"column:owner_name;not null"`
	OwnerEmail string    `gorm:"column:owner_email;not null"`
	OwnerPhone string    `gorm:"column:owner_phone;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
