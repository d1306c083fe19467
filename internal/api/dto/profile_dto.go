package dto

import (
	"time"

	"github.com/spec-kit/civic-issue-service/internal/domain"
)

// RegisterRequest payload for citizen self-registration.
type RegisterRequest struct {
	FullName string  `json:"full_name"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	City     *string `json:"city"`
	Ward     *string `json:"ward"`
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the bearer token and profile.
type AuthResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Profile   ProfileResponse `json:"profile"`
}

// ProfileResponse is the public view of an account.
type ProfileResponse struct {
	ID        string      `json:"id"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	City      *string     `json:"city"`
	Ward      *string     `json:"ward"`
	CreatedAt time.Time   `json:"created_at"`
}

// ProfileFromDomain maps a profile, dropping credentials.
func ProfileFromDomain(profile *domain.Profile) ProfileResponse {
	return ProfileResponse{
		ID:        profile.ID,
		FullName:  profile.FullName,
		Email:     profile.Email,
		Role:      profile.Role,
		City:      profile.City,
		Ward:      profile.Ward,
		CreatedAt: profile.CreatedAt,
	}
}
