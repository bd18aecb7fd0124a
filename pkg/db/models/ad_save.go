package models

import (
	"time"

	"github.com/google/uuid"
)

// AdSave links a user to an ad they bookmarked. The (ad, user) pair is unique.
type AdSave struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AdID      uuid.UUID `gorm:"column:ad_id;type:uuid;not null;index:ad_saves_ad_id_idx;uniqueIndex:ad_saves_ad_user_key"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index:ad_saves_user_id_idx;uniqueIndex:ad_saves_ad_user_key"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
