package dto

import "time"

// CreateUserRequest body para POST /api/usuarios.
type CreateUserRequest struct {
	Nombre   string `json:"nombre" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Rol      string `json:"rol" validate:"required,oneof=admin developer detallista proveedor owner"`
}

// UpdateUserRequest body para PUT /api/usuarios/:id. Password vacío
// conserva el hash actual.
type UpdateUserRequest struct {
	Nombre   string `json:"nombre" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password,omitempty"`
	Rol      string `json:"rol" validate:"required,oneof=admin developer detallista proveedor owner"`
}

// UserResponse usuario sin campos sensibles (hash, secreto 2FA).
type UserResponse struct {
	ID           string    `json:"id"`
	Nombre       string    `json:"nombre"`
	Email        string    `json:"email"`
	Rol          string    `json:"rol"`
	TwoFAEnabled bool      `json:"twoFAEnabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
