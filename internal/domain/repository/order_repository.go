package repository

import (
	"context"
	"time"

	"github.com/viba/viba-api/internal/domain/entity"
)

// OrderRepository puerto de persistencia para órdenes y sus líneas.
type OrderRepository interface {
	CreateOrder(ctx context.Context, solicitaID, proveeID string, fechaEmision time.Time) (int64, error)
	AddLine(ctx context.Context, line *entity.OrderLine) error
	GetOrder(ctx context.Context, orderID int64) (*entity.Order, error)
	GetLines(ctx context.Context, orderID int64) ([]entity.OrderLine, error)
	// MarkCompleted cambia el estado a 'completada' y fija fecha_recepcion.
	MarkCompleted(ctx context.Context, orderID int64, fechaRecepcion time.Time) error
	List(ctx context.Context) ([]entity.Order, error)
	Update(ctx context.Context, order *entity.Order) error
	// Delete elimina la orden y sus líneas.
	Delete(ctx context.Context, orderID int64) error
}
