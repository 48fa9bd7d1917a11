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

// TwoFAHandler maneja el enrolamiento y verificación del segundo factor.
// Todos los endpoints (salvo reset) operan sobre la cuenta del token
// pre-2fa, nunca sobre un email del body.
type TwoFAHandler struct {
	uc        *auth.AuthUseCase
	cookieCfg config.CookieConfig
	jwtCfg    auth.JWTConfig
}

// NewTwoFAHandler construye el handler de 2FA.
func NewTwoFAHandler(uc *auth.AuthUseCase, cookieCfg config.CookieConfig, jwtCfg auth.JWTConfig) *TwoFAHandler {
	return &TwoFAHandler{uc: uc, cookieCfg: cookieCfg, jwtCfg: jwtCfg}
}

// Generate godoc
// @Summary      Generar secreto 2FA y QR de enrolamiento
// @Tags         2fa
// @Produce      json
// @Success      200   {object}  dto.EnrollTOTPResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/2fa/generate [post]
func (h *TwoFAHandler) Generate(c *fiber.Ctx) error {
	enrollment, err := h.uc.EnrollTOTP(c.Context(), GetClaims(c))
	if err != nil {
		if errors.Is(err, domain.ErrEtapaInvalida) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_STAGE", Message: "se requiere sesión pre-2fa"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.EnrollTOTPResponse{QR: enrollment.QR, OtpauthURL: enrollment.OtpauthURL})
}

// Verify godoc
// @Summary      Verificar código 2FA y promover a sesión completa
// @Tags         2fa
// @Accept       json
// @Produce      json
// @Param        body  body  dto.VerifyTOTPRequest  true  "token de 6 dígitos"
// @Success      200   {object}  dto.VerifyTOTPResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Failure      429   {object}  dto.ErrorResponse
// @Router       /api/auth/2fa/verify [post]
func (h *TwoFAHandler) Verify(c *fiber.Ctx) error {
	var in dto.VerifyTOTPRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	session, err := h.uc.VerifyTOTP(c.Context(), GetClaims(c), in.Token)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCodigoRequerido):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "CODIGO_REQUERIDO", Message: "la cuenta tiene 2FA: el código es obligatorio"})
		case errors.Is(err, domain.ErrCodigoInvalido):
			metrics.TwoFAVerificationsTotal.WithLabelValues("codigo_invalido").Inc()
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "CODIGO_INVALIDO", Message: "código incorrecto o ya utilizado"})
		case errors.Is(err, domain.ErrDemasiadosIntentos):
			metrics.TwoFAVerificationsTotal.WithLabelValues("bloqueado").Inc()
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.ErrorResponse{Code: "DEMASIADOS_INTENTOS", Message: "demasiados intentos, espera unos minutos"})
		case errors.Is(err, domain.ErrEtapaInvalida), errors.Is(err, domain.ErrUserNotFound):
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_STAGE", Message: "se requiere sesión pre-2fa"})
		default:
			metrics.TwoFAVerificationsTotal.WithLabelValues("error").Inc()
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}

	metrics.TwoFAVerificationsTotal.WithLabelValues("ok").Inc()
	setSessionCookies(c, h.cookieCfg, session, h.jwtCfg.AuthMinutes)
	return c.JSON(dto.VerifyTOTPResponse{Success: true})
}

// Status godoc
// @Summary      Consultar si la cuenta tiene 2FA enrolado
// @Tags         2fa
// @Produce      json
// @Success      200   {object}  dto.TwoFAStatusResponse
// @Failure      401   {object}  dto.ErrorResponse
// @Router       /api/auth/2fa/status [post]
func (h *TwoFAHandler) Status(c *fiber.Ctx) error {
	enabled, err := h.uc.TwoFAStatus(c.Context(), GetClaims(c))
	if err != nil {
		if errors.Is(err, domain.ErrEtapaInvalida) || errors.Is(err, domain.ErrUserNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_STAGE", Message: "se requiere sesión pre-2fa"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.TwoFAStatusResponse{TwoFAEnabled: enabled})
}

// Reset godoc
// @Summary      Desenrolar el 2FA de una cuenta (solo admin)
// @Tags         2fa
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ResetTOTPRequest  true  "email de la cuenta"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/auth/2fa/reset [post]
func (h *TwoFAHandler) Reset(c *fiber.Ctx) error {
	var in dto.ResetTOTPRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateStruct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	if err := h.uc.ResetTOTP(c.Context(), in.Email); err != nil {
		switch {
		case errors.Is(err, domain.ErrEmailRequerido):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "email es requerido"})
		case errors.Is(err, domain.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "USER_NOT_FOUND", Message: "la cuenta no existe"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.JSON(dto.MessageResponse{Message: "2FA desenrolado, la cuenta puede volver a configurarlo"})
}
