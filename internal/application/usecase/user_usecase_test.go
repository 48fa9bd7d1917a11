package usecase_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/viba/viba-api/internal/application/dto"
	"github.com/viba/viba-api/internal/application/usecase"
	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/domain/entity"
)

type fakeUserRepo struct {
	byID map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(user *entity.User) error {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, user.Email) {
			return domain.ErrEmailAlreadyExists
		}
	}
	copy := *user
	r.byID[user.ID] = &copy
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (*entity.User, error) {
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	copy := *u
	return &copy, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*entity.User, error) {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			copy := *u
			return &copy, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(user *entity.User) error {
	if _, ok := r.byID[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	copy := *user
	r.byID[user.ID] = &copy
	return nil
}

func (r *fakeUserRepo) UpdateTOTPSecret(email, secret string) error {
	for _, u := range r.byID {
		if strings.EqualFold(u.Email, email) {
			u.TOTPSecret = secret
			return nil
		}
	}
	return domain.ErrUserNotFound
}

func (r *fakeUserRepo) List(limit, offset int) ([]*entity.User, error) {
	var out []*entity.User
	for _, u := range r.byID {
		copy := *u
		out = append(out, &copy)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeUserRepo) Delete(id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func TestCreate_HasheaPasswordYNormalizaEmail(t *testing.T) {
	repo := newFakeUserRepo()
	uc := usecase.NewUserUseCase(repo)

	resp, err := uc.Create(&dto.CreateUserRequest{
		Nombre:   "Ana Torres",
		Email:    "Ana.Torres@VIBA.mx",
		Password: "secreta-123",
		Rol:      entity.RoleDetallista,
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "ana.torres@viba.mx", resp.Email)
	assert.False(t, resp.TwoFAEnabled)

	stored := repo.byID[resp.ID]
	require.NotNil(t, stored)
	assert.NotEqual(t, "secreta-123", stored.PasswordHash, "la contraseña nunca se guarda en claro")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secreta-123")))
}

func TestCreate_EmailDuplicado(t *testing.T) {
	repo := newFakeUserRepo()
	uc := usecase.NewUserUseCase(repo)

	_, err := uc.Create(&dto.CreateUserRequest{Nombre: "Ana", Email: "ana@viba.mx", Password: "secreta-123", Rol: entity.RoleAdmin})
	require.NoError(t, err)

	_, err = uc.Create(&dto.CreateUserRequest{Nombre: "Otra Ana", Email: "ANA@viba.mx", Password: "secreta-456", Rol: entity.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestUpdate_PasswordVacioConservaHash(t *testing.T) {
	repo := newFakeUserRepo()
	uc := usecase.NewUserUseCase(repo)

	resp, err := uc.Create(&dto.CreateUserRequest{Nombre: "Ana", Email: "ana@viba.mx", Password: "secreta-123", Rol: entity.RoleAdmin})
	require.NoError(t, err)
	hashAntes := repo.byID[resp.ID].PasswordHash

	updated, err := uc.Update(resp.ID, &dto.UpdateUserRequest{Nombre: "Ana María", Email: "ana@viba.mx", Rol: entity.RoleOwner})
	require.NoError(t, err)
	assert.Equal(t, "Ana María", updated.Nombre)
	assert.Equal(t, entity.RoleOwner, updated.Rol)
	assert.Equal(t, hashAntes, repo.byID[resp.ID].PasswordHash)
}

func TestUpdate_PasswordNuevoRehashea(t *testing.T) {
	repo := newFakeUserRepo()
	uc := usecase.NewUserUseCase(repo)

	resp, err := uc.Create(&dto.CreateUserRequest{Nombre: "Ana", Email: "ana@viba.mx", Password: "secreta-123", Rol: entity.RoleAdmin})
	require.NoError(t, err)

	_, err = uc.Update(resp.ID, &dto.UpdateUserRequest{Nombre: "Ana", Email: "ana@viba.mx", Password: "otra-clave-9", Rol: entity.RoleAdmin})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.byID[resp.ID].PasswordHash), []byte("otra-clave-9")))
}

func TestUpdate_EmailOcupadoPorOtroUsuario(t *testing.T) {
	repo := newFakeUserRepo()
	uc := usecase.NewUserUseCase(repo)

	a, err := uc.Create(&dto.CreateUserRequest{Nombre: "Ana", Email: "ana@viba.mx", Password: "secreta-123", Rol: entity.RoleAdmin})
	require.NoError(t, err)
	_, err = uc.Create(&dto.CreateUserRequest{Nombre: "Beto", Email: "beto@viba.mx", Password: "secreta-123", Rol: entity.RoleAdmin})
	require.NoError(t, err)

	_, err = uc.Update(a.ID, &dto.UpdateUserRequest{Nombre: "Ana", Email: "beto@viba.mx", Rol: entity.RoleAdmin})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestDelete_Inexistente(t *testing.T) {
	uc := usecase.NewUserUseCase(newFakeUserRepo())
	err := uc.Delete("no-existe")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestList_Pagina(t *testing.T) {
	repo := newFakeUserRepo()
	uc := usecase.NewUserUseCase(repo)

	for _, email := range []string{"a@viba.mx", "b@viba.mx", "c@viba.mx"} {
		_, err := uc.Create(&dto.CreateUserRequest{Nombre: "U", Email: email, Password: "secreta-123", Rol: entity.RoleAdmin})
		require.NoError(t, err)
	}

	page, err := uc.List(2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestGetByID_SinCamposSensibles(t *testing.T) {
	repo := newFakeUserRepo()
	uc := usecase.NewUserUseCase(repo)

	created, err := uc.Create(&dto.CreateUserRequest{Nombre: "Ana", Email: "ana@viba.mx", Password: "secreta-123", Rol: entity.RoleAdmin})
	require.NoError(t, err)
	require.NoError(t, repo.UpdateTOTPSecret("ana@viba.mx", "JBSWY3DPEHPK3PXP"))

	resp, err := uc.GetByID(created.ID)
	require.NoError(t, err)
	assert.True(t, resp.TwoFAEnabled, "la respuesta expone solo el flag, nunca el secreto")
}
