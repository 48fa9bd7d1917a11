package auth

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/domain/repository"
	"github.com/viba/viba-api/pkg/jwt"
	"github.com/viba/viba-api/pkg/totp"
)

// TOTPIssuer etiqueta mostrada en el autenticador.
const TOTPIssuer = "ViBa"

// Estados de sesión reportados por Status.
const (
	StatusAuthenticated = "authenticated"
	StatusPre2FA        = "pre-2fa"
	StatusNone          = "none"
)

// JWTConfig configuración para generación de tokens de sesión.
type JWTConfig struct {
	Secret         string
	PreAuthMinutes int
	AuthMinutes    int
	Issuer         string
}

// LoginResult token pre-2fa y el flag que decide el siguiente paso del cliente.
type LoginResult struct {
	Token        string
	TwoFAEnabled bool
}

// SessionResult token full-auth más los datos de display para la cookie
// legible por el cliente (nunca es frontera de confianza).
type SessionResult struct {
	Token  string
	Nombre string
	Email  string
	Rol    string
}

// AuthUseCase máquina de estados de autenticación: credenciales → pre-2fa →
// verificación TOTP → sesión completa. Los tokens son stateless: cada
// request se valida de forma independiente y Logout solo limpia cookies.
type AuthUseCase struct {
	userRepo repository.UserRepository
	guard    Guard
	jwtCfg   JWTConfig
}

// NewAuthUseCase construye el caso de uso de auth. guard puede ser nil
// (sin protección de replay ni de fuerza bruta).
func NewAuthUseCase(userRepo repository.UserRepository, guard Guard, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, guard: guard, jwtCfg: jwtCfg}
}

// Login verifica email/password y emite el token pre-2fa. Cualquier
// discrepancia (usuario inexistente o password incorrecto) devuelve el
// mismo ErrCredencialesInvalidas para no filtrar qué cuentas existen.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, domain.ErrInvalidInput
	}
	if err := uc.checkThrottle(ctx, FailureLogin, email); err != nil {
		return nil, err
	}

	user, err := uc.userRepo.FindByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		uc.registerFailure(ctx, FailureLogin, email)
		return nil, domain.ErrCredencialesInvalidas
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		uc.registerFailure(ctx, FailureLogin, email)
		return nil, domain.ErrCredencialesInvalidas
	}

	token, err := jwt.GeneratePreAuth(
		uc.jwtCfg.Secret, user.ID, user.Email, user.Rol, user.TwoFAEnabled(),
		uc.jwtCfg.Issuer, uc.jwtCfg.PreAuthMinutes,
	)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, TwoFAEnabled: user.TwoFAEnabled()}, nil
}

// EnrollTOTP genera un secreto fresco para la cuenta del token pre-2fa,
// lo persiste y devuelve el material de enrolamiento. No promueve la sesión.
func (uc *AuthUseCase) EnrollTOTP(ctx context.Context, claims *jwt.Claims) (*totp.Enrollment, error) {
	if claims == nil || claims.Stage != jwt.StagePreAuth {
		return nil, domain.ErrEtapaInvalida
	}
	enrollment, err := totp.GenerateSecret(TOTPIssuer, claims.Email)
	if err != nil {
		return nil, err
	}
	if err := uc.userRepo.UpdateTOTPSecret(claims.Email, enrollment.Secret); err != nil {
		return nil, err
	}
	return enrollment, nil
}

// VerifyTOTP valida el código contra el secreto enrolado y promueve la
// sesión a full-auth. Cuentas sin secreto enrolado se promueven sin
// código: el token pre-2fa ya probó las credenciales y no hay segundo
// factor que exigir.
func (uc *AuthUseCase) VerifyTOTP(ctx context.Context, claims *jwt.Claims, code string) (*SessionResult, error) {
	if claims == nil || claims.Stage != jwt.StagePreAuth {
		return nil, domain.ErrEtapaInvalida
	}

	user, err := uc.userRepo.FindByEmail(claims.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		// La cuenta desapareció entre login y verificación.
		return nil, domain.ErrUserNotFound
	}

	if user.TwoFAEnabled() {
		if code == "" {
			return nil, domain.ErrCodigoRequerido
		}
		if err := uc.checkThrottle(ctx, FailureTOTP, user.Email); err != nil {
			return nil, err
		}
		step, ok := totp.VerifyAt(user.TOTPSecret, code, time.Now())
		if !ok {
			uc.registerFailure(ctx, FailureTOTP, user.Email)
			return nil, domain.ErrCodigoInvalido
		}
		fresh, err := uc.consumeStep(ctx, user.Email, step)
		if err != nil {
			return nil, err
		}
		if !fresh {
			// Código ya consumido dentro de su ventana: replay.
			uc.registerFailure(ctx, FailureTOTP, user.Email)
			return nil, domain.ErrCodigoInvalido
		}
	}

	token, err := jwt.GenerateFullAuth(
		uc.jwtCfg.Secret, user.ID, user.Email, user.Rol, user.Nombre,
		uc.jwtCfg.Issuer, uc.jwtCfg.AuthMinutes,
	)
	if err != nil {
		return nil, err
	}
	return &SessionResult{Token: token, Nombre: user.Nombre, Email: user.Email, Rol: user.Rol}, nil
}

// TwoFAStatus consulta en la base si la cuenta del token tiene 2FA enrolado.
func (uc *AuthUseCase) TwoFAStatus(ctx context.Context, claims *jwt.Claims) (bool, error) {
	if claims == nil || claims.Stage != jwt.StagePreAuth {
		return false, domain.ErrEtapaInvalida
	}
	user, err := uc.userRepo.FindByEmail(claims.Email)
	if err != nil {
		return false, err
	}
	if user == nil {
		return false, domain.ErrUserNotFound
	}
	return user.TwoFAEnabled(), nil
}

// ResetTOTP borra el secreto enrolado de la cuenta. El handler restringe
// la operación a administradores.
func (uc *AuthUseCase) ResetTOTP(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return domain.ErrEmailRequerido
	}
	return uc.userRepo.UpdateTOTPSecret(email, "")
}

// Status reporta el estado de sesión a partir de los tokens de las cookies.
// Tokens inválidos o expirados degradan a StatusNone, nunca a error.
func (uc *AuthUseCase) Status(authToken, preAuthToken string) string {
	if authToken != "" {
		if claims, err := jwt.Parse(uc.jwtCfg.Secret, authToken); err == nil && claims.Stage == jwt.StageFullAuth {
			return StatusAuthenticated
		}
	}
	if preAuthToken != "" {
		if claims, err := jwt.Parse(uc.jwtCfg.Secret, preAuthToken); err == nil && claims.Stage == jwt.StagePreAuth {
			return StatusPre2FA
		}
	}
	return StatusNone
}

func (uc *AuthUseCase) checkThrottle(ctx context.Context, kind, email string) error {
	if uc.guard == nil {
		return nil
	}
	blocked, err := uc.guard.TooManyFailures(ctx, kind, email)
	if err != nil {
		// Guardián caído: dejar pasar, el factor primario sigue vigente.
		return nil
	}
	if blocked {
		return domain.ErrDemasiadosIntentos
	}
	return nil
}

func (uc *AuthUseCase) registerFailure(ctx context.Context, kind, email string) {
	if uc.guard == nil {
		return
	}
	_ = uc.guard.RegisterFailure(ctx, kind, email)
}

func (uc *AuthUseCase) consumeStep(ctx context.Context, email string, step int64) (bool, error) {
	if uc.guard == nil {
		return true, nil
	}
	fresh, err := uc.guard.ConsumeStep(ctx, email, step)
	if err != nil {
		// Guardián caído: aceptar el código, la firma TOTP ya validó.
		return true, nil
	}
	return fresh, nil
}
