package usecase

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/viba/viba-api/internal/application/dto"
	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/domain/entity"
	"github.com/viba/viba-api/internal/domain/repository"
)

// UserUseCase aplica reglas de negocio para usuarios.
type UserUseCase struct {
	repo repository.UserRepository
}

// NewUserUseCase construye el caso de uso con el puerto de persistencia.
func NewUserUseCase(repo repository.UserRepository) *UserUseCase {
	return &UserUseCase{repo: repo}
}

// Create da de alta un usuario con la contraseña hasheada (bcrypt). El
// email se normaliza a minúsculas y debe ser único.
func (uc *UserUseCase) Create(req *dto.CreateUserRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if existing, err := uc.repo.FindByEmail(email); err == nil && existing != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmailAlreadyExists, email)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &entity.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Nombre:       req.Nombre,
		Rol:          req.Rol,
	}
	if err := uc.repo.Create(user); err != nil {
		return nil, err
	}
	return entityToUserResponse(user), nil
}

// GetByID obtiene un usuario por ID.
func (uc *UserUseCase) GetByID(id string) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return entityToUserResponse(user), nil
}

// List devuelve una página de usuarios.
func (uc *UserUseCase) List(limit, offset int) ([]*dto.UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	users, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, entityToUserResponse(u))
	}
	return out, nil
}

// Update modifica nombre, email y rol; un password no vacío re-hashea la
// contraseña, vacío conserva el hash actual.
func (uc *UserUseCase) Update(id string, req *dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		if existing, err := uc.repo.FindByEmail(email); err == nil && existing != nil && existing.ID != id {
			return nil, fmt.Errorf("%w: %s", domain.ErrEmailAlreadyExists, email)
		}
	}

	user.Nombre = req.Nombre
	user.Email = email
	user.Rol = req.Rol
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}
	if err := uc.repo.Update(user); err != nil {
		return nil, err
	}
	return entityToUserResponse(user), nil
}

// Delete elimina un usuario por ID.
func (uc *UserUseCase) Delete(id string) error {
	user, err := uc.repo.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	return uc.repo.Delete(id)
}

func entityToUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:           u.ID,
		Nombre:       u.Nombre,
		Email:        u.Email,
		Rol:          u.Rol,
		TwoFAEnabled: u.TwoFAEnabled(),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}
