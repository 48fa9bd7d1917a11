package orders

import (
	"context"

	"github.com/viba/viba-api/internal/domain/repository"
)

// OrderTxRunner ejecuta una función dentro de una transacción de BD con
// los repositorios del flujo de órdenes atados a esa tx. Completar una
// orden muta la orden, da de alta unidades de inventario y crea la
// notificación en un solo paso indivisible.
type OrderTxRunner interface {
	RunOrder(ctx context.Context, fn func(
		orderRepo repository.OrderRepository,
		invRepo repository.InventoryRepository,
		notifRepo repository.NotificationRepository,
	) error) error
}

// EventPublisher publica eventos de dominio. Un publisher nil desactiva
// la publicación.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}

// Tipos de evento publicados por órdenes.
const (
	EventOrdenCompletada = "OrdenCompletada"
)
