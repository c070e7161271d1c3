package dto

import (
	"github.com/dpppa-bjm/pengaduan/internal/identity"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"nama" validate:"required"`
	NIK      string `json:"nik" validate:"required,numeric"`
	Phone    string `json:"no_hp" validate:"required"`
	Password string `json:"password" validate:"required"`
	Confirm  string `json:"confirm" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	User         identity.User `json:"user"`
	// ProfilePending is set when the account exists but its profile could
	// not be written yet. The next sign-in retries.
	ProfilePending bool `json:"profile_pending,omitempty"`
}

type MeResponse struct {
	User      identity.User `json:"user"`
	Interface string        `json:"interface"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	DB          string `json:"db"`
	Subscribers int    `json:"subscribers"`
}
