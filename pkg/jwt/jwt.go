package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Etapas de sesión codificadas dentro del token.
const (
	StagePreAuth  = "pre-2fa"
	StageFullAuth = "full-auth"
)

// Claims incluye los claims estándar JWT más los campos propios de la
// aplicación. Stage distingue el token temporal (pre-2fa, emitido tras
// validar credenciales) del token de sesión completa (full-auth, emitido
// tras la verificación 2FA). Las dos formas llevan claims disjuntos:
// un pre-2fa robado no alcanza recursos protegidos y un full-auth no
// puede reusarse contra los endpoints de enrolamiento.
type Claims struct {
	jwt.RegisteredClaims
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Rol          string `json:"rol"`
	Nombre       string `json:"nombre,omitempty"`
	TwoFAEnabled bool   `json:"twofa_enabled,omitempty"`
	Stage        string `json:"stage"`
}

// GeneratePreAuth genera el token temporal de etapa pre-2fa. Incluye el
// flag de 2FA para que el cliente decida si pedir el código.
func GeneratePreAuth(secret, userID, email, rol string, twoFAEnabled bool, issuer string, expMinutes int) (string, error) {
	return generate(secret, Claims{
		UserID:       userID,
		Email:        email,
		Rol:          rol,
		TwoFAEnabled: twoFAEnabled,
		Stage:        StagePreAuth,
	}, issuer, expMinutes)
}

// GenerateFullAuth genera el token de sesión completa (etapa full-auth).
func GenerateFullAuth(secret, userID, email, rol, nombre, issuer string, expMinutes int) (string, error) {
	return generate(secret, Claims{
		UserID: userID,
		Email:  email,
		Rol:    rol,
		Nombre: nombre,
		Stage:  StageFullAuth,
	}, issuer, expMinutes)
}

func generate(secret string, claims Claims, issuer string, expMinutes int) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   claims.UserID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(expMinutes) * time.Minute)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida firma y expiración y devuelve los claims.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("claims inválidos")
	}
	return claims, nil
}
