package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile holds the auxiliary per-user data distinct from the
// authentication identity. Exactly one Profile exists per User; it is
// created in the same transaction as the User and shares its lifecycle.
type Profile struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	UserID    uint           `gorm:"uniqueIndex;not null" json:"user_id"`
	Bio       string         `gorm:"size:500" json:"bio"`
	Picture   string         `json:"picture"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
