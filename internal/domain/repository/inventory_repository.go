package repository

import (
	"context"

	"github.com/viba/viba-api/internal/domain/entity"
)

// InventoryRepository puerto de persistencia para el libro de inventario.
// Las operaciones de reserva deben ejecutarse sobre una transacción (vía
// TxRunner) para que el check-and-reserve sea indivisible.
type InventoryRepository interface {
	// CountAvailable cantidad de unidades 'disponible' para un producto.
	CountAvailable(ctx context.Context, producto string) (int, error)
	// CountByState cantidad de unidades de un producto en un estado dado.
	CountByState(ctx context.Context, producto, estado string) (int, error)
	// SelectOldestAvailableForUpdate selecciona y bloquea (FOR UPDATE) las
	// unidades disponibles más antiguas de un producto, FIFO por fecha.
	// Puede devolver menos de limit si no hay suficientes.
	SelectOldestAvailableForUpdate(ctx context.Context, producto string, limit int) ([]entity.InventoryUnit, error)
	// SelectSoldBySale unidades vendidas de un producto anotadas con una venta
	// específica, FIFO por fecha (usado por UpdateSale para re-etiquetar).
	SelectSoldBySale(ctx context.Context, producto string, saleID int64, limit int) ([]entity.InventoryUnit, error)
	// MarkSold marca una unidad como vendida con la anotación de la venta.
	MarkSold(ctx context.Context, unitID int64, observacion string) error
	// InsertUnits da de alta count unidades disponibles de un producto.
	InsertUnits(ctx context.Context, producto string, count int, observacion string) error
	// AvailableByProduct cantidades disponibles agrupadas por producto.
	AvailableByProduct(ctx context.Context) ([]entity.ProductCount, error)
}
