package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tokrilabs/tokri-backend/pkg/enums"
)

// User is the authenticated actor. Credential management lives elsewhere;
// only the profile needed by checkout and notifications is stored here.
type User struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Name      string         `gorm:"column:name;not null"`
	Email     string         `gorm:"column:email;not null;uniqueIndex"`
	Phone     string         `gorm:"column:phone;not null"`
	Role      enums.UserRole `gorm:"column:role;type:text;not null"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
