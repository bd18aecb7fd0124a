package ads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/greenbuddy/greenbuddy-backend/pkg/db/models"
)

// AdDTO is the transport shape for a listing, including who bookmarked it.
type AdDTO struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"userId"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Product     string          `json:"product"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Address     string          `json:"address"`
	Observation *string         `json:"observation,omitempty"`
	PickupDate  time.Time       `json:"pickupDate"`
	Image       *string         `json:"image,omitempty"`
	SavedBy     []uuid.UUID     `json:"savedBy"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CreateAdRequest carries the fields accepted when posting a listing.
type CreateAdRequest struct {
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"required,max=4000"`
	Product     string  `json:"product" validate:"required,max=120"`
	Quantity    string  `json:"quantity" validate:"required"`
	Unit        string  `json:"unit" validate:"required,max=30"`
	Address     string  `json:"address" validate:"required,max=300"`
	Observation *string `json:"observation" validate:"omitempty,max=2000"`
	PickupDate  string  `json:"pickupDate" validate:"required"`
}

// UpdateAdRequest carries the mutable listing fields. Nil means unchanged.
type UpdateAdRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=120"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Product     *string `json:"product" validate:"omitempty,max=120"`
	Quantity    *string `json:"quantity"`
	Unit        *string `json:"unit" validate:"omitempty,max=30"`
	Address     *string `json:"address" validate:"omitempty,max=300"`
	Observation *string `json:"observation" validate:"omitempty,max=2000"`
	PickupDate  *string `json:"pickupDate"`
}

// SearchParams filters the public listing feed.
type SearchParams struct {
	Query   string
	Product string
	Limit   int
	Offset  int
}

func FromModel(ad *models.Ad, savedBy []uuid.UUID) *AdDTO {
	if ad == nil {
		return nil
	}
	if savedBy == nil {
		savedBy = []uuid.UUID{}
	}
	return &AdDTO{
		ID:          ad.ID,
		UserID:      ad.UserID,
		Title:       ad.Title,
		Description: ad.Description,
		Product:     ad.Product,
		Quantity:    ad.Quantity,
		Unit:        ad.Unit,
		Address:     ad.Address,
		Observation: ad.Observation,
		PickupDate:  ad.PickupDate,
		Image:       ad.Image,
		SavedBy:     savedBy,
		CreatedAt:   ad.CreatedAt,
		UpdatedAt:   ad.UpdatedAt,
	}
}

// FromModels maps ads to DTOs using the provided saver index.
func FromModels(list []models.Ad, saversByAd map[uuid.UUID][]uuid.UUID) []AdDTO {
	out := make([]AdDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i], saversByAd[list[i].ID]))
	}
	return out
}
