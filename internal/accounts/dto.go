package accounts

import (
	"time"

	"github.com/google/uuid"
)

// RegisterRequest carries the fields required to open an account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest carries shopper credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// User is the persisted shopper record.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	MemberSince  string    `json:"memberSince"`
	CreatedAt    time.Time `json:"createdAt"`
}

// UserDTO is the public view of a shopper.
type UserDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	MemberSince string    `json:"memberSince"`
}

// LoginResponse returns the access token alongside the shopper profile.
type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	User        UserDTO `json:"user"`
}

// FromUser strips credentials from a stored user.
func FromUser(u User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		MemberSince: u.MemberSince,
	}
}
