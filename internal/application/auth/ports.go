package auth

import "context"

// Tipos de contador de fallos del guardián.
const (
	FailureLogin = "login"
	FailureTOTP  = "2fa"
)

// Guard protege el flujo de autenticación contra replay de códigos TOTP y
// fuerza bruta. ConsumeStep marca un paso de tiempo como usado para una
// cuenta y devuelve false si ya había sido consumido. Los contadores de
// fallos expiran solos (backoff por TTL).
//
// Un Guard nil desactiva ambas protecciones.
type Guard interface {
	ConsumeStep(ctx context.Context, email string, step int64) (bool, error)
	RegisterFailure(ctx context.Context, kind, email string) error
	TooManyFailures(ctx context.Context, kind, email string) (bool, error)
}
