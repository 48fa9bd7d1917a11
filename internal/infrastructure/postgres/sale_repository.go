package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/domain/entity"
	"github.com/viba/viba-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

// SaleRepo implementación de SaleRepository sobre PostgreSQL (usable con
// pool o tx). Las líneas referencian la unidad de inventario vendida; el
// producto se resuelve con join contra inventario.
type SaleRepo struct {
	q Querier
}

// NewSaleRepository construye el adaptador de ventas. Pasar pool o tx (Querier).
func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

// CreateSale inserta la venta con total provisional cero y devuelve su id.
func (r *SaleRepo) CreateSale(ctx context.Context, fecha time.Time) (int64, error) {
	query := `INSERT INTO ventas (fecha, total) VALUES ($1, 0) RETURNING id`
	var id int64
	if err := r.q.QueryRow(ctx, query, fecha).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert venta: %w", err)
	}
	return id, nil
}

// AddLine inserta una línea de venta (unidad + costo capturado).
func (r *SaleRepo) AddLine(ctx context.Context, saleID, unitID int64, costoUnit decimal.Decimal) error {
	query := `INSERT INTO venta_detalle (venta_id, inventario_id, costo_unitario) VALUES ($1, $2, $3)`
	if _, err := r.q.Exec(ctx, query, saleID, unitID, costoUnit); err != nil {
		return fmt.Errorf("insert venta_detalle: %w", err)
	}
	return nil
}

// SetTotal fija el total derivado de la venta.
func (r *SaleRepo) SetTotal(ctx context.Context, saleID int64, total decimal.Decimal) error {
	query := `UPDATE ventas SET total = $2 WHERE id = $1`
	if _, err := r.q.Exec(ctx, query, saleID, total); err != nil {
		return fmt.Errorf("update total: %w", err)
	}
	return nil
}

// GetSale devuelve la venta o domain.ErrNotFound.
func (r *SaleRepo) GetSale(ctx context.Context, saleID int64) (*entity.Sale, error) {
	query := `SELECT id, fecha, total FROM ventas WHERE id = $1`
	var s entity.Sale
	err := r.q.QueryRow(ctx, query, saleID).Scan(&s.ID, &s.Fecha, &s.Total)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get venta: %w", err)
	}
	return &s, nil
}

// DeleteLines elimina todas las líneas de la venta.
func (r *SaleRepo) DeleteLines(ctx context.Context, saleID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM venta_detalle WHERE venta_id = $1`, saleID); err != nil {
		return fmt.Errorf("delete venta_detalle: %w", err)
	}
	return nil
}

// DeleteSale elimina la fila de la venta.
func (r *SaleRepo) DeleteSale(ctx context.Context, saleID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM ventas WHERE id = $1`, saleID); err != nil {
		return fmt.Errorf("delete venta: %w", err)
	}
	return nil
}

const saleLineQuery = `
	SELECT d.venta_id, d.inventario_id, i.producto, d.costo_unitario
	FROM venta_detalle d
	JOIN inventario i ON i.id = d.inventario_id`

// ListSalesWithLines ventas con líneas anidadas, más recientes primero.
func (r *SaleRepo) ListSalesWithLines(ctx context.Context) ([]repository.SaleWithLines, error) {
	rows, err := r.q.Query(ctx, `SELECT id, fecha, total FROM ventas ORDER BY fecha DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list ventas: %w", err)
	}
	defer rows.Close()

	var out []repository.SaleWithLines
	index := map[int64]int{}
	for rows.Next() {
		var s entity.Sale
		if err := rows.Scan(&s.ID, &s.Fecha, &s.Total); err != nil {
			return nil, fmt.Errorf("scan venta: %w", err)
		}
		index[s.ID] = len(out)
		out = append(out, repository.SaleWithLines{Sale: s})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	lineRows, err := r.q.Query(ctx, saleLineQuery+` ORDER BY d.venta_id, d.inventario_id`)
	if err != nil {
		return nil, fmt.Errorf("list venta_detalle: %w", err)
	}
	defer lineRows.Close()
	for lineRows.Next() {
		var l entity.SaleLine
		if err := lineRows.Scan(&l.SaleID, &l.InventoryID, &l.Producto, &l.CostoUnit); err != nil {
			return nil, fmt.Errorf("scan venta_detalle: %w", err)
		}
		if i, ok := index[l.SaleID]; ok {
			out[i].Lines = append(out[i].Lines, l)
		}
	}
	return out, lineRows.Err()
}

// GetSaleWithLines una venta puntual con sus líneas, o domain.ErrNotFound.
func (r *SaleRepo) GetSaleWithLines(ctx context.Context, saleID int64) (*repository.SaleWithLines, error) {
	sale, err := r.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	rows, err := r.q.Query(ctx, saleLineQuery+` WHERE d.venta_id = $1 ORDER BY d.inventario_id`, saleID)
	if err != nil {
		return nil, fmt.Errorf("get venta_detalle: %w", err)
	}
	defer rows.Close()

	out := &repository.SaleWithLines{Sale: *sale}
	for rows.Next() {
		var l entity.SaleLine
		if err := rows.Scan(&l.SaleID, &l.InventoryID, &l.Producto, &l.CostoUnit); err != nil {
			return nil, fmt.Errorf("scan venta_detalle: %w", err)
		}
		out.Lines = append(out.Lines, l)
	}
	return out, rows.Err()
}
