package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/viba/viba-api/internal/application/auth"
	"github.com/viba/viba-api/internal/application/dto"
	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/interfaces/metrics"
	"github.com/viba/viba-api/pkg/config"
)

// AuthHandler maneja login, logout y consulta de estado de sesión. Los
// tokens nunca viajan en el body: solo en cookies HTTP-only.
type AuthHandler struct {
	uc        *auth.AuthUseCase
	cookieCfg config.CookieConfig
	jwtCfg    auth.JWTConfig
}

// NewAuthHandler construye el handler de auth.
func NewAuthHandler(uc *auth.AuthUseCase, cookieCfg config.CookieConfig, jwtCfg auth.JWTConfig) *AuthHandler {
	return &AuthHandler{uc: uc, cookieCfg: cookieCfg, jwtCfg: jwtCfg}
}

// Login godoc
// @Summary      Iniciar sesión (etapa 1: credenciales)
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body  dto.LoginRequest  true  "email, password"
// @Success      200   {object}  dto.LoginResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in dto.LoginRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateStruct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	out, err := h.uc.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCredencialesInvalidas):
			metrics.LoginsTotal.WithLabelValues("credenciales_invalidas").Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "CREDENCIALES", Message: "credenciales inválidas"})
		case errors.Is(err, domain.ErrDemasiadosIntentos):
			metrics.LoginsTotal.WithLabelValues("bloqueado").Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "DEMASIADOS_INTENTOS", Message: "demasiados intentos, espera unos minutos"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "email y password son requeridos"})
		default:
			metrics.LoginsTotal.WithLabelValues("error").Inc()
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	setPreAuthCookie(c, h.cookieCfg, out.Token, h.jwtCfg.PreAuthMinutes)
	return c.JSON(dto.LoginResponse{Message: "credenciales válidas", TwoFAEnabled: out.TwoFAEnabled})
}

// Logout godoc
// @Summary      Cerrar sesión (expira las cookies)
// @Tags         auth
// @Produce      json
// @Success      200   {object}  dto.MessageResponse
// @Router       /api/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	// Los tokens son stateless: cerrar sesión es expirar las cookies. Un
	// token ya emitido sigue siendo criptográficamente válido hasta vencer.
	clearSessionCookies(c, h.cookieCfg)
	return c.JSON(dto.MessageResponse{Message: "sesión cerrada"})
}

// CheckAuth godoc
// @Summary      Estado de sesión según las cookies presentes
// @Tags         auth
// @Produce      json
// @Success      200   {object}  dto.CheckAuthResponse
// @Router       /api/check-auth [get]
func (h *AuthHandler) CheckAuth(c *fiber.Ctx) error {
	status := h.uc.Status(c.Cookies(CookieAuth), c.Cookies(CookiePreAuth))
	return c.JSON(dto.CheckAuthResponse{AuthStatus: status})
}
