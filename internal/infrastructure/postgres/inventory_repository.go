package postgres

import (
	"context"
	"fmt"

	"github.com/viba/viba-api/internal/domain/entity"
	"github.com/viba/viba-api/internal/domain/repository"
)

var _ repository.InventoryRepository = (*InventoryRepo)(nil)

// InventoryRepo implementación de InventoryRepository sobre PostgreSQL
// (usable con pool o tx). La reserva FIFO usa SELECT ... FOR UPDATE: dos
// ventas concurrentes por las mismas unidades se serializan en la fila.
type InventoryRepo struct {
	q Querier
}

// NewInventoryRepository construye el adaptador de inventario. Pasar pool o tx (Querier).
func NewInventoryRepository(q Querier) *InventoryRepo {
	return &InventoryRepo{q: q}
}

const inventoryColumns = `id, producto, fecha, estado, tipo_movimiento, COALESCE(observaciones, '')`

// CountAvailable cantidad de unidades 'disponible' de un producto.
func (r *InventoryRepo) CountAvailable(ctx context.Context, producto string) (int, error) {
	return r.CountByState(ctx, producto, entity.UnitDisponible)
}

// CountByState cantidad de unidades de un producto en un estado dado.
func (r *InventoryRepo) CountByState(ctx context.Context, producto, estado string) (int, error) {
	query := `SELECT COUNT(*) FROM inventario WHERE producto = $1 AND estado = $2`
	var n int
	if err := r.q.QueryRow(ctx, query, producto, estado).Scan(&n); err != nil {
		return 0, fmt.Errorf("count inventario: %w", err)
	}
	return n, nil
}

// SelectOldestAvailableForUpdate selecciona y bloquea las unidades
// disponibles más antiguas de un producto. Devuelve menos de limit si no
// hay suficientes; el que llama decide si eso aborta la operación.
func (r *InventoryRepo) SelectOldestAvailableForUpdate(ctx context.Context, producto string, limit int) ([]entity.InventoryUnit, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventario
		WHERE producto = $1 AND estado = $2
		ORDER BY fecha, id
		LIMIT $3
		FOR UPDATE`
	return r.selectUnits(ctx, query, producto, entity.UnitDisponible, limit)
}

// SelectSoldBySale unidades vendidas de un producto anotadas con una venta
// específica, FIFO por fecha.
func (r *InventoryRepo) SelectSoldBySale(ctx context.Context, producto string, saleID int64, limit int) ([]entity.InventoryUnit, error) {
	query := `
		SELECT ` + inventoryColumns + `
		FROM inventario
		WHERE producto = $1 AND estado = $2 AND observaciones = $3
		ORDER BY fecha, id
		LIMIT $4`
	obs := fmt.Sprintf("Vendido en venta #%d", saleID)
	return r.selectUnits(ctx, query, producto, entity.UnitVendido, obs, limit)
}

func (r *InventoryRepo) selectUnits(ctx context.Context, query string, args ...any) ([]entity.InventoryUnit, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select inventario: %w", err)
	}
	defer rows.Close()
	var units []entity.InventoryUnit
	for rows.Next() {
		var u entity.InventoryUnit
		if err := rows.Scan(&u.ID, &u.Producto, &u.Fecha, &u.Estado, &u.TipoMovimiento, &u.Observaciones); err != nil {
			return nil, fmt.Errorf("scan inventario: %w", err)
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// MarkSold marca una unidad como vendida con la anotación de la venta.
func (r *InventoryRepo) MarkSold(ctx context.Context, unitID int64, observacion string) error {
	query := `
		UPDATE inventario
		SET estado = $2, tipo_movimiento = $3, observaciones = $4
		WHERE id = $1`
	_, err := r.q.Exec(ctx, query, unitID, entity.UnitVendido, entity.MovSalidaPorVenta, observacion)
	if err != nil {
		return fmt.Errorf("mark vendido: %w", err)
	}
	return nil
}

// InsertUnits da de alta count unidades disponibles de un producto, una
// fila por pieza física.
func (r *InventoryRepo) InsertUnits(ctx context.Context, producto string, count int, observacion string) error {
	query := `
		INSERT INTO inventario (producto, fecha, estado, tipo_movimiento, observaciones)
		SELECT $1, now(), $2, $3, $4 FROM generate_series(1, $5)`
	_, err := r.q.Exec(ctx, query, producto, entity.UnitDisponible, entity.MovIngresoPorOrden, observacion, count)
	if err != nil {
		return fmt.Errorf("insert inventario: %w", err)
	}
	return nil
}

// AvailableByProduct cantidades disponibles agrupadas por producto.
func (r *InventoryRepo) AvailableByProduct(ctx context.Context) ([]entity.ProductCount, error) {
	query := `
		SELECT producto, COUNT(*)
		FROM inventario
		WHERE estado = $1
		GROUP BY producto
		ORDER BY producto`
	rows, err := r.q.Query(ctx, query, entity.UnitDisponible)
	if err != nil {
		return nil, fmt.Errorf("group inventario: %w", err)
	}
	defer rows.Close()
	var counts []entity.ProductCount
	for rows.Next() {
		var c entity.ProductCount
		if err := rows.Scan(&c.Producto, &c.Cantidad); err != nil {
			return nil, fmt.Errorf("scan conteo: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
