package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/greenbuddy/greenbuddy-backend/pkg/db/models"
)

// UserDTO is the transport shape that omits the password hash.
type UserDTO struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Consent      bool      `json:"consent"`
	Image        *string   `json:"image,omitempty"`
	Location     *string   `json:"location,omitempty"`
	Introduction *string   `json:"introduction,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateUserDTO holds the data required by the repo to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	Consent      bool
}

// UpdateProfileRequest carries the mutable profile fields. Username changes
// are rejected at decode time because the field is absent here.
type UpdateProfileRequest struct {
	Email        *string `json:"email" validate:"omitempty,email"`
	Password     *string `json:"password" validate:"omitempty,min=5"`
	Location     *string `json:"location" validate:"omitempty,max=200"`
	Introduction *string `json:"introduction" validate:"omitempty,max=2000"`
	Consent      *bool   `json:"consent"`
}

// DeleteAccountResponse echoes back the removed profile.
type DeleteAccountResponse struct {
	Message     string   `json:"message"`
	DeletedUser *UserDTO `json:"deletedUser"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}

	return &UserDTO{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		Consent:      u.Consent,
		Image:        u.Image,
		Location:     u.Location,
		Introduction: u.Introduction,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromModels(list []models.User) []UserDTO {
	out := make([]UserDTO, 0, len(list))
	for i := range list {
		out = append(out, *FromModel(&list[i]))
	}
	return out
}

func (c CreateUserDTO) ToModel() *models.User {
	return &models.User{
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Consent:      c.Consent,
	}
}
