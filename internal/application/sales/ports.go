package sales

import (
	"context"

	"github.com/viba/viba-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando
// repositorios atados a esa tx. Es lo que vuelve indivisible el
// check-and-reserve de una venta: dos ventas concurrentes por las mismas
// unidades se serializan en el almacén, no en el proceso.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		invRepo repository.InventoryRepository,
		saleRepo repository.SaleRepository,
	) error) error
}

// EventPublisher publica eventos de dominio (venta realizada, orden
// completada). Un publisher nil desactiva la publicación.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, payload interface{})
}

// Tipos de evento publicados por ventas.
const (
	EventVentaRealizada = "VentaRealizada"
)
