// Package totp envuelve la generación y verificación de códigos TOTP
// (RFC 6238): paso de 30 segundos, secreto base32, 6 dígitos y tolerancia
// de ±1 paso de reloj.
package totp

import (
	"bytes"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"image/png"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Period duración de un paso TOTP en segundos.
const Period = 30

// Skew pasos de tolerancia hacia atrás y adelante al verificar.
const Skew = 1

// Enrollment resultado de generar un secreto nuevo: el secreto base32, la
// URL otpauth:// y el QR en data-URL PNG listo para mostrar en el cliente.
type Enrollment struct {
	Secret     string
	OtpauthURL string
	QR         string
}

// GenerateSecret crea un secreto aleatorio para la cuenta indicada y
// devuelve el material de enrolamiento (equivalente a generateSecret +
// toDataURL del cliente original).
func GenerateSecret(issuer, account string) (*Enrollment, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
		Period:      Period,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return nil, fmt.Errorf("generar secreto totp: %w", err)
	}

	img, err := key.Image(200, 200)
	if err != nil {
		return nil, fmt.Errorf("generar QR: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("codificar QR: %w", err)
	}

	return &Enrollment{
		Secret:     key.Secret(),
		OtpauthURL: key.URL(),
		QR:         "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
	}, nil
}

// Verify valida el código contra el secreto permitiendo ±Skew pasos.
func Verify(secret, code string) bool {
	_, ok := VerifyAt(secret, code, time.Now())
	return ok
}

// VerifyAt valida el código en un instante dado y devuelve además el paso
// de tiempo que produjo la coincidencia, para que el guardián de replay
// pueda marcarlo como consumido.
func VerifyAt(secret, code string, t time.Time) (step int64, ok bool) {
	base := t.Unix() / Period
	for delta := int64(-Skew); delta <= Skew; delta++ {
		candidate := base + delta
		expected, err := totp.GenerateCodeCustom(secret, time.Unix(candidate*Period, 0).UTC(), totp.ValidateOpts{
			Period:    Period,
			Digits:    otp.DigitsSix,
			Algorithm: otp.AlgorithmSHA1,
		})
		if err != nil {
			return 0, false
		}
		if subtle.ConstantTimeCompare([]byte(expected), []byte(code)) == 1 {
			return candidate, true
		}
	}
	return 0, false
}

// CodeAt genera el código válido para un instante (solo para pruebas y
// herramientas de soporte).
func CodeAt(secret string, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t.UTC(), totp.ValidateOpts{
		Period:    Period,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	})
}
