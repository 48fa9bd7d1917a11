package repository

import "github.com/viba/viba-api/internal/domain/entity"

// UserRepository define el puerto de persistencia para User (DIP).
// FindByEmail debe comparar el email sin distinguir mayúsculas. Las
// búsquedas devuelven (nil, nil) cuando el usuario no existe.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id string) (*entity.User, error)
	FindByEmail(email string) (*entity.User, error)
	Update(user *entity.User) error
	// UpdateTOTPSecret persiste el secreto 2FA del usuario; secret vacío lo desactiva.
	UpdateTOTPSecret(email, secret string) error
	List(limit, offset int) ([]*entity.User, error)
	Delete(id string) error
}
