package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ad is a listing offered by a single owner. ImageID is the media host
// deletion handle for the attached picture.
type Ad struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index:ads_user_id_idx"`
	Title       string          `gorm:"column:title;not null"`
	Description string          `gorm:"column:description;not null"`
	Product     string          `gorm:"column:product;not null"`
	Quantity    decimal.Decimal `gorm:"column:quantity;type:numeric(12,3);not null"`
	Unit        string          `gorm:"column:unit;not null"`
	Address     string          `gorm:"column:address;not null"`
	Observation *string         `gorm:"column:observation"`
	PickupDate  time.Time       `gorm:"column:pickup_date;not null"`
	Image       *string         `gorm:"column:image"`
	ImageID     *string         `gorm:"column:image_id"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
