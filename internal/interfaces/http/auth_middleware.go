package http

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/viba/viba-api/internal/application/auth"
	"github.com/viba/viba-api/internal/application/dto"
	"github.com/viba/viba-api/pkg/config"
	"github.com/viba/viba-api/pkg/jwt"
)

// Nombres de las cookies de sesión. PreAuth y Auth son HTTP-only (frontera
// de confianza); UserData es legible por el cliente y solo lleva datos de
// display.
const (
	CookiePreAuth  = "PreAuth"
	CookieAuth     = "Auth"
	CookieUserData = "UserData"
)

// Local key con los claims del token validado por el middleware.
const LocalClaims = "claims"

// PreAuthMiddleware valida la cookie PreAuth y exige etapa pre-2fa. Deja
// los claims en c.Locals para los handlers de enrolamiento/verificación.
func PreAuthMiddleware(jwtSecret string) fiber.Handler {
	return cookieStageMiddleware(jwtSecret, CookiePreAuth, jwt.StagePreAuth)
}

// AuthMiddleware valida la cookie Auth y exige etapa full-auth. Protege
// los recursos de negocio.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return cookieStageMiddleware(jwtSecret, CookieAuth, jwt.StageFullAuth)
}

func cookieStageMiddleware(jwtSecret, cookieName, stage string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(cookieName)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "sesión no iniciada"})
		}
		claims, err := jwt.Parse(jwtSecret, token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		if claims.Stage != stage {
			// Un token de otra etapa no sirve aquí: un pre-2fa no alcanza
			// recursos protegidos y un full-auth no reabre el enrolamiento.
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_STAGE", Message: "token de etapa incorrecta"})
		}
		c.Locals(LocalClaims, claims)
		return c.Next()
	}
}

// RequireRole exige que el rol del token esté en la lista. Usar después de
// AuthMiddleware o PreAuthMiddleware.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := GetClaims(c)
		if claims == nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "sesión no iniciada"})
		}
		for _, r := range roles {
			if claims.Rol == r {
				return c.Next()
			}
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "rol sin permiso para esta operación"})
	}
}

// GetClaims devuelve los claims del contexto (después del middleware de auth).
func GetClaims(c *fiber.Ctx) *jwt.Claims {
	v := c.Locals(LocalClaims)
	if v == nil {
		return nil
	}
	claims, _ := v.(*jwt.Claims)
	return claims
}

// setPreAuthCookie instala la cookie pre-2fa tras validar credenciales.
func setPreAuthCookie(c *fiber.Ctx, cfg config.CookieConfig, token string, minutes int) {
	c.Cookie(sessionCookie(cfg, CookiePreAuth, token, minutes, true))
}

// setSessionCookies instala la cookie Auth (HTTP-only) y la cookie UserData
// (legible por el cliente, solo datos de display) y retira la PreAuth.
func setSessionCookies(c *fiber.Ctx, cfg config.CookieConfig, session *auth.SessionResult, minutes int) {
	c.Cookie(sessionCookie(cfg, CookieAuth, session.Token, minutes, true))

	display, _ := json.Marshal(fiber.Map{
		"nombre": session.Nombre,
		"email":  session.Email,
		"rol":    session.Rol,
	})
	c.Cookie(sessionCookie(cfg, CookieUserData, url.QueryEscape(string(display)), minutes, false))

	expireCookie(c, cfg, CookiePreAuth, true)
}

// clearSessionCookies expira las tres cookies de sesión (logout).
func clearSessionCookies(c *fiber.Ctx, cfg config.CookieConfig) {
	expireCookie(c, cfg, CookiePreAuth, true)
	expireCookie(c, cfg, CookieAuth, true)
	expireCookie(c, cfg, CookieUserData, false)
}

func sessionCookie(cfg config.CookieConfig, name, value string, minutes int, httpOnly bool) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  time.Now().Add(time.Duration(minutes) * time.Minute),
		Secure:   cfg.Secure,
		HTTPOnly: httpOnly,
		SameSite: cfg.SameSite,
	}
}

func expireCookie(c *fiber.Ctx, cfg config.CookieConfig, name string, httpOnly bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		Expires:  time.Now().Add(-time.Hour),
		Secure:   cfg.Secure,
		HTTPOnly: httpOnly,
		SameSite: cfg.SameSite,
	})
}
