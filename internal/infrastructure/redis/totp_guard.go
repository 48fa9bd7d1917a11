package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/viba/viba-api/internal/application/auth"
)

// Un código TOTP es válido durante su paso de tiempo ± la ventana de
// tolerancia; la marca de consumo debe sobrevivir al menos ese lapso.
const stepTTL = 2 * time.Minute

const (
	failureTTL  = 10 * time.Minute
	maxFailures = 5
)

var _ auth.Guard = (*TOTPGuard)(nil)

// TOTPGuard implementación de auth.Guard sobre Redis: marca pasos TOTP
// consumidos (anti-replay) y cuenta fallos de login/2FA por cuenta
// (anti fuerza bruta). Claves:
//
//	2fa:step:<email>:<paso_de_tiempo>
//	authfail:<tipo>:<email>
type TOTPGuard struct {
	client *redis.Client
}

// NewTOTPGuard construye el guardián sobre el cliente dado.
func NewTOTPGuard(client *redis.Client) *TOTPGuard {
	return &TOTPGuard{client: client}
}

// ConsumeStep marca el paso de tiempo como usado para la cuenta. Devuelve
// false si ya había sido consumido (replay del mismo código).
func (g *TOTPGuard) ConsumeStep(ctx context.Context, email string, step int64) (bool, error) {
	key := fmt.Sprintf("2fa:step:%s:%d", email, step)
	fresh, err := g.client.SetNX(ctx, key, "1", stepTTL).Result()
	if err != nil {
		return false, fmt.Errorf("consume step: %w", err)
	}
	return fresh, nil
}

// RegisterFailure incrementa el contador de fallos de la cuenta. El TTL se
// renueva en cada fallo, así que la ventana se extiende mientras siguen
// llegando intentos.
func (g *TOTPGuard) RegisterFailure(ctx context.Context, kind, email string) error {
	key := failureKey(kind, email)
	pipe := g.client.TxPipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, failureTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("register failure: %w", err)
	}
	return nil
}

// TooManyFailures indica si la cuenta superó el límite de fallos dentro de
// la ventana vigente.
func (g *TOTPGuard) TooManyFailures(ctx context.Context, kind, email string) (bool, error) {
	n, err := g.client.Get(ctx, failureKey(kind, email)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("check failures: %w", err)
	}
	return n >= maxFailures, nil
}

func failureKey(kind, email string) string {
	return fmt.Sprintf("authfail:%s:%s", kind, email)
}
