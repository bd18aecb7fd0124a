package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered marketplace member.
type User struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username     string    `gorm:"column:username;type:text;not null;uniqueIndex"`
	Email        string    `gorm:"column:email;type:text;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Consent      bool      `gorm:"column:consent;not null;default:false"`
	Image        *string   `gorm:"column:image"`
	ImageID      *string   `gorm:"column:image_id"`
	Location     *string   `gorm:"column:location"`
	Introduction *string   `gorm:"column:introduction"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
