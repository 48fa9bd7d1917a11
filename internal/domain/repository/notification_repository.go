package repository

import (
	"context"

	"github.com/viba/viba-api/internal/domain/entity"
)

// NotificationRepository puerto para avisos generados por el flujo de órdenes.
type NotificationRepository interface {
	Create(ctx context.Context, n *entity.Notification) error
}
