package auth_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/viba/viba-api/internal/application/auth"
	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/domain/entity"
	"github.com/viba/viba-api/pkg/jwt"
	"github.com/viba/viba-api/pkg/totp"
)

const (
	testSecret = "test-secret-key-for-unit-tests"
	testIssuer = "viba-api-test"
)

var testJWTCfg = auth.JWTConfig{
	Secret:         testSecret,
	PreAuthMinutes: 15,
	AuthMinutes:    240,
	Issuer:         testIssuer,
}

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	users map[string]*entity.User // clave: email en minúsculas
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: map[string]*entity.User{}}
	for _, u := range users {
		r.users[strings.ToLower(u.Email)] = u
	}
	return r
}

func (r *fakeUserRepo) Create(u *entity.User) error {
	r.users[strings.ToLower(u.Email)] = u
	return nil
}

func (r *fakeUserRepo) GetByID(id string) (*entity.User, error) {
	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) FindByEmail(email string) (*entity.User, error) {
	u := r.users[strings.ToLower(email)]
	return u, nil
}

func (r *fakeUserRepo) Update(u *entity.User) error { return nil }

func (r *fakeUserRepo) UpdateTOTPSecret(email, secret string) error {
	u := r.users[strings.ToLower(email)]
	if u == nil {
		return domain.ErrUserNotFound
	}
	u.TOTPSecret = secret
	return nil
}

func (r *fakeUserRepo) List(limit, offset int) ([]*entity.User, error) { return nil, nil }
func (r *fakeUserRepo) Delete(id string) error                         { return nil }

// fakeGuard guarda pasos consumidos y contadores de fallos en memoria.
type fakeGuard struct {
	consumed map[string]bool
	failures map[string]int
	blocked  bool
}

func newFakeGuard() *fakeGuard {
	return &fakeGuard{consumed: map[string]bool{}, failures: map[string]int{}}
}

func (g *fakeGuard) ConsumeStep(_ context.Context, email string, step int64) (bool, error) {
	key := fmt.Sprintf("%s:%d", email, step)
	if g.consumed[key] {
		return false, nil
	}
	g.consumed[key] = true
	return true, nil
}

func (g *fakeGuard) RegisterFailure(_ context.Context, kind, email string) error {
	g.failures[kind+":"+email]++
	return nil
}

func (g *fakeGuard) TooManyFailures(_ context.Context, kind, email string) (bool, error) {
	return g.blocked, nil
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func userWith2FA(t *testing.T) (*entity.User, string) {
	t.Helper()
	enr, err := totp.GenerateSecret("ViBa", "ana@viba.mx")
	require.NoError(t, err)
	return &entity.User{
		ID:           "u-2",
		Email:        "ana@viba.mx",
		Nombre:       "Ana",
		Rol:          "admin",
		PasswordHash: hashPassword(t, "secreto123"),
		TOTPSecret:   enr.Secret,
	}, enr.Secret
}

func userWithout2FA(t *testing.T) *entity.User {
	t.Helper()
	return &entity.User{
		ID:           "u-1",
		Email:        "juan@viba.mx",
		Nombre:       "Juan",
		Rol:          "detallista",
		PasswordHash: hashPassword(t, "secreto123"),
	}
}

func preAuthClaims(t *testing.T, uc *auth.AuthUseCase, email, password string) *jwt.Claims {
	t.Helper()
	out, err := uc.Login(context.Background(), email, password)
	require.NoError(t, err)
	claims, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	return claims
}

// ──────────────────────────────────────────────────────────────────────────────
// Login
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_EmiteTokenPre2FA(t *testing.T) {
	uc := auth.NewAuthUseCase(newFakeUserRepo(userWithout2FA(t)), newFakeGuard(), testJWTCfg)

	out, err := uc.Login(context.Background(), "juan@viba.mx", "secreto123")
	require.NoError(t, err)
	assert.False(t, out.TwoFAEnabled)

	claims, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, jwt.StagePreAuth, claims.Stage, "login nunca emite full-auth")
	assert.Equal(t, "juan@viba.mx", claims.Email)
	assert.False(t, claims.TwoFAEnabled)
}

func TestLogin_Con2FA_ReportaFlag(t *testing.T) {
	user, _ := userWith2FA(t)
	uc := auth.NewAuthUseCase(newFakeUserRepo(user), newFakeGuard(), testJWTCfg)

	out, err := uc.Login(context.Background(), "ana@viba.mx", "secreto123")
	require.NoError(t, err)
	assert.True(t, out.TwoFAEnabled)
}

func TestLogin_EmailCaseInsensitive(t *testing.T) {
	uc := auth.NewAuthUseCase(newFakeUserRepo(userWithout2FA(t)), newFakeGuard(), testJWTCfg)

	_, err := uc.Login(context.Background(), "JUAN@VIBA.MX", "secreto123")
	assert.NoError(t, err)
}

func TestLogin_UsuarioInexistente_YPasswordIncorrecto_MismoError(t *testing.T) {
	guard := newFakeGuard()
	uc := auth.NewAuthUseCase(newFakeUserRepo(userWithout2FA(t)), guard, testJWTCfg)

	_, errNoUser := uc.Login(context.Background(), "nadie@viba.mx", "loquesea")
	_, errBadPass := uc.Login(context.Background(), "juan@viba.mx", "incorrecta")

	// Misma respuesta para ambos casos: no se filtra qué cuentas existen.
	assert.ErrorIs(t, errNoUser, domain.ErrCredencialesInvalidas)
	assert.ErrorIs(t, errBadPass, domain.ErrCredencialesInvalidas)
	assert.Equal(t, 1, guard.failures["login:nadie@viba.mx"])
	assert.Equal(t, 1, guard.failures["login:juan@viba.mx"])
}

func TestLogin_Bloqueado_PorIntentos(t *testing.T) {
	guard := newFakeGuard()
	guard.blocked = true
	uc := auth.NewAuthUseCase(newFakeUserRepo(userWithout2FA(t)), guard, testJWTCfg)

	_, err := uc.Login(context.Background(), "juan@viba.mx", "secreto123")
	assert.ErrorIs(t, err, domain.ErrDemasiadosIntentos)
}

// ──────────────────────────────────────────────────────────────────────────────
// VerifyTOTP
// ──────────────────────────────────────────────────────────────────────────────

func TestVerifyTOTP_CodigoCorrecto_PromueveSesion(t *testing.T) {
	user, secret := userWith2FA(t)
	uc := auth.NewAuthUseCase(newFakeUserRepo(user), newFakeGuard(), testJWTCfg)
	claims := preAuthClaims(t, uc, "ana@viba.mx", "secreto123")

	code, err := totp.CodeAt(secret, time.Now())
	require.NoError(t, err)

	out, err := uc.VerifyTOTP(context.Background(), claims, code)
	require.NoError(t, err)

	full, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, jwt.StageFullAuth, full.Stage)
	assert.Equal(t, "Ana", full.Nombre)
	assert.Equal(t, "Ana", out.Nombre)
	assert.Equal(t, "admin", out.Rol)
}

func TestVerifyTOTP_EtapaIncorrecta_Falla(t *testing.T) {
	user, secret := userWith2FA(t)
	uc := auth.NewAuthUseCase(newFakeUserRepo(user), newFakeGuard(), testJWTCfg)

	// Un token full-auth no sirve para verificar 2FA aunque el código sea válido.
	fullClaims := &jwt.Claims{Email: "ana@viba.mx", Stage: jwt.StageFullAuth}
	code, err := totp.CodeAt(secret, time.Now())
	require.NoError(t, err)

	_, err = uc.VerifyTOTP(context.Background(), fullClaims, code)
	assert.ErrorIs(t, err, domain.ErrEtapaInvalida)
}

func TestVerifyTOTP_SinCodigo_Falla(t *testing.T) {
	user, _ := userWith2FA(t)
	uc := auth.NewAuthUseCase(newFakeUserRepo(user), newFakeGuard(), testJWTCfg)
	claims := preAuthClaims(t, uc, "ana@viba.mx", "secreto123")

	_, err := uc.VerifyTOTP(context.Background(), claims, "")
	assert.ErrorIs(t, err, domain.ErrCodigoRequerido)
}

func TestVerifyTOTP_CodigoIncorrecto_Falla(t *testing.T) {
	user, _ := userWith2FA(t)
	guard := newFakeGuard()
	uc := auth.NewAuthUseCase(newFakeUserRepo(user), guard, testJWTCfg)
	claims := preAuthClaims(t, uc, "ana@viba.mx", "secreto123")

	_, err := uc.VerifyTOTP(context.Background(), claims, "000000")
	assert.ErrorIs(t, err, domain.ErrCodigoInvalido)
	assert.Equal(t, 1, guard.failures["2fa:ana@viba.mx"])
}

func TestVerifyTOTP_Replay_MismoCodigoDosVeces_Falla(t *testing.T) {
	user, secret := userWith2FA(t)
	uc := auth.NewAuthUseCase(newFakeUserRepo(user), newFakeGuard(), testJWTCfg)
	claims := preAuthClaims(t, uc, "ana@viba.mx", "secreto123")

	code, err := totp.CodeAt(secret, time.Now())
	require.NoError(t, err)

	_, err = uc.VerifyTOTP(context.Background(), claims, code)
	require.NoError(t, err, "primer uso del código debe aceptarse")

	_, err = uc.VerifyTOTP(context.Background(), claims, code)
	assert.ErrorIs(t, err, domain.ErrCodigoInvalido, "segundo uso dentro de la ventana es replay")
}

func TestVerifyTOTP_UsuarioDesaparecido_Falla(t *testing.T) {
	user, _ := userWith2FA(t)
	repo := newFakeUserRepo(user)
	uc := auth.NewAuthUseCase(repo, newFakeGuard(), testJWTCfg)
	claims := preAuthClaims(t, uc, "ana@viba.mx", "secreto123")

	// La cuenta se borra entre login y verificación.
	delete(repo.users, "ana@viba.mx")

	_, err := uc.VerifyTOTP(context.Background(), claims, "123456")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestVerifyTOTP_Sin2FAEnrolado_PromueveSinCodigo(t *testing.T) {
	uc := auth.NewAuthUseCase(newFakeUserRepo(userWithout2FA(t)), newFakeGuard(), testJWTCfg)
	claims := preAuthClaims(t, uc, "juan@viba.mx", "secreto123")

	out, err := uc.VerifyTOTP(context.Background(), claims, "")
	require.NoError(t, err, "cuenta sin secreto se promueve directo")

	full, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, jwt.StageFullAuth, full.Stage)
}

// ──────────────────────────────────────────────────────────────────────────────
// EnrollTOTP / TwoFAStatus / ResetTOTP / Status
// ──────────────────────────────────────────────────────────────────────────────

func TestEnrollTOTP_PersisteSecretoYDevuelveQR(t *testing.T) {
	repo := newFakeUserRepo(userWithout2FA(t))
	uc := auth.NewAuthUseCase(repo, newFakeGuard(), testJWTCfg)
	claims := preAuthClaims(t, uc, "juan@viba.mx", "secreto123")

	enr, err := uc.EnrollTOTP(context.Background(), claims)
	require.NoError(t, err)

	assert.Contains(t, enr.OtpauthURL, "otpauth://totp/")
	assert.True(t, strings.HasPrefix(enr.QR, "data:image/png;base64,"))

	stored, _ := repo.FindByEmail("juan@viba.mx")
	assert.Equal(t, enr.Secret, stored.TOTPSecret, "el secreto debe quedar persistido")
}

func TestEnrollTOTP_RequiereEtapaPre2FA(t *testing.T) {
	uc := auth.NewAuthUseCase(newFakeUserRepo(userWithout2FA(t)), newFakeGuard(), testJWTCfg)

	_, err := uc.EnrollTOTP(context.Background(), &jwt.Claims{Email: "juan@viba.mx", Stage: jwt.StageFullAuth})
	assert.ErrorIs(t, err, domain.ErrEtapaInvalida)
}

func TestTwoFAStatus_ConsultaLaBase(t *testing.T) {
	user, _ := userWith2FA(t)
	uc := auth.NewAuthUseCase(newFakeUserRepo(user, userWithout2FA(t)), newFakeGuard(), testJWTCfg)

	enabled, err := uc.TwoFAStatus(context.Background(), &jwt.Claims{Email: "ana@viba.mx", Stage: jwt.StagePreAuth})
	require.NoError(t, err)
	assert.True(t, enabled)

	enabled, err = uc.TwoFAStatus(context.Background(), &jwt.Claims{Email: "juan@viba.mx", Stage: jwt.StagePreAuth})
	require.NoError(t, err)
	assert.False(t, enabled)
}

func TestResetTOTP_BorraElSecreto(t *testing.T) {
	user, _ := userWith2FA(t)
	repo := newFakeUserRepo(user)
	uc := auth.NewAuthUseCase(repo, newFakeGuard(), testJWTCfg)

	require.NoError(t, uc.ResetTOTP(context.Background(), "ana@viba.mx"))

	stored, _ := repo.FindByEmail("ana@viba.mx")
	assert.False(t, stored.TwoFAEnabled())
}

func TestResetTOTP_EmailVacio_Falla(t *testing.T) {
	uc := auth.NewAuthUseCase(newFakeUserRepo(), newFakeGuard(), testJWTCfg)
	err := uc.ResetTOTP(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrEmailRequerido)
}

func TestStatus_DegradaSinErrores(t *testing.T) {
	uc := auth.NewAuthUseCase(newFakeUserRepo(), newFakeGuard(), testJWTCfg)

	fullTok, err := jwt.GenerateFullAuth(testSecret, "u-1", "juan@viba.mx", "admin", "Juan", testIssuer, 240)
	require.NoError(t, err)
	preTok, err := jwt.GeneratePreAuth(testSecret, "u-1", "juan@viba.mx", "admin", false, testIssuer, 15)
	require.NoError(t, err)

	assert.Equal(t, auth.StatusAuthenticated, uc.Status(fullTok, ""))
	assert.Equal(t, auth.StatusPre2FA, uc.Status("", preTok))
	assert.Equal(t, auth.StatusAuthenticated, uc.Status(fullTok, preTok), "full-auth tiene prioridad")
	assert.Equal(t, auth.StatusNone, uc.Status("", ""))
	assert.Equal(t, auth.StatusNone, uc.Status("basura", "basura"))

	// Un token de etapa equivocada en la cookie equivocada no cuenta.
	assert.Equal(t, auth.StatusNone, uc.Status(preTok, ""))
}
