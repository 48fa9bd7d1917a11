package postgres

import (
	"context"
	"fmt"

	"github.com/viba/viba-api/internal/domain/entity"
	"github.com/viba/viba-api/internal/domain/repository"
)

var _ repository.NotificationRepository = (*NotificationRepo)(nil)

// NotificationRepo implementación de NotificationRepository sobre PostgreSQL
// (usable con pool o tx).
type NotificationRepo struct {
	q Querier
}

// NewNotificationRepository construye el adaptador de notificaciones. Pasar pool o tx (Querier).
func NewNotificationRepository(q Querier) *NotificationRepo {
	return &NotificationRepo{q: q}
}

// Create inserta una notificación para un usuario.
func (r *NotificationRepo) Create(ctx context.Context, n *entity.Notification) error {
	query := `
		INSERT INTO notificaciones (mensaje, tipo, fecha, id_usuario)
		VALUES ($1, $2, $3, $4)`
	if _, err := r.q.Exec(ctx, query, n.Mensaje, n.Tipo, n.Fecha, n.IDUsuario); err != nil {
		return fmt.Errorf("insert notificacion: %w", err)
	}
	return nil
}
