package entity

import "time"

// Roles de usuario (deben coincidir con el CHECK de la tabla usuarios).
const (
	RoleAdmin      = "admin"
	RoleDeveloper  = "developer"
	RoleDetallista = "detallista"
	RoleProveedor  = "proveedor"
	RoleOwner      = "owner"
)

// User representa una cuenta del sistema. TOTPSecret vacío significa
// que la cuenta no tiene 2FA enrolado.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Nombre       string
	Rol          string
	TOTPSecret   string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TwoFAEnabled indica si la cuenta tiene un secreto TOTP enrolado.
func (u *User) TwoFAEnabled() bool {
	return u.TOTPSecret != ""
}
