package user

import (
	"errors"
	"time"
)

const (
	RoleEmployee = "employee"
	RoleOfficial = "official"
)

var ErrNotFound = errors.New("user not found")
var ErrEmailAlreadyUsed = errors.New("email already in use")

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never expose hash in JSON
	Nombre       string    `json:"nombre"`
	Role         string    `json:"role"`
	IsAdmin      bool      `json:"isAdmin"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the projection handed back to clients. It carries no
// password hash field at all, so it can never leak one.
type Public struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Nombre  string `json:"nombre"`
	Role    string `json:"role"`
	IsAdmin bool   `json:"isAdmin"`
	Active  bool   `json:"active"`
}

func (u User) Public() Public {
	return Public{
		ID:      u.ID,
		Email:   u.Email,
		Nombre:  u.Nombre,
		Role:    u.Role,
		IsAdmin: u.IsAdmin,
		Active:  u.Active,
	}
}

func ValidRole(role string) bool {
	return role == RoleEmployee || role == RoleOfficial
}
