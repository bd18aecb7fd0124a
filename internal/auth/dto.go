package auth

import (
	"github.com/google/uuid"
	"github.com/greenbuddy/greenbuddy-backend/internal/users"
)

// RegisterRequest carries the signup payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
	Consent  bool   `json:"consent"`
}

// RegisterResponse echoes the created account with a fresh access token.
type RegisterResponse struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	AccessToken string    `json:"accessToken"`
}

// LoginRequest carries the credentials payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse returns the profile with a fresh access token.
type LoginResponse struct {
	users.UserDTO
	AccessToken string `json:"accessToken"`
}
