package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/domain/entity"
	"github.com/viba/viba-api/internal/domain/repository"
)

var _ repository.OrderRepository = (*OrderRepo)(nil)

// OrderRepo implementación de OrderRepository sobre PostgreSQL (usable con pool o tx).
type OrderRepo struct {
	q Querier
}

// NewOrderRepository construye el adaptador de órdenes. Pasar pool o tx (Querier).
func NewOrderRepository(q Querier) *OrderRepo {
	return &OrderRepo{q: q}
}

const orderColumns = `id, estado, fecha_emision, fecha_recepcion, fecha_recepcion_estimada,
	subtotal, costo_compra, id_usuario_solicita, id_usuario_provee`

// CreateOrder inserta una orden pendiente y devuelve su id.
func (r *OrderRepo) CreateOrder(ctx context.Context, solicitaID, proveeID string, fechaEmision time.Time) (int64, error) {
	query := `
		INSERT INTO ordenes (estado, fecha_emision, subtotal, costo_compra, id_usuario_solicita, id_usuario_provee)
		VALUES ($1, $2, 0, 0, $3, $4)
		RETURNING id`
	var id int64
	if err := r.q.QueryRow(ctx, query, entity.OrderPendiente, fechaEmision, solicitaID, proveeID).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert orden: %w", err)
	}
	return id, nil
}

// AddLine inserta una línea de la orden.
func (r *OrderRepo) AddLine(ctx context.Context, line *entity.OrderLine) error {
	query := `
		INSERT INTO orden_detalle (orden_id, producto, cantidad, precio, fecha_caducidad)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, query, line.OrderID, line.Producto, line.Cantidad, line.Precio, line.FechaCaducidad)
	if err != nil {
		return fmt.Errorf("insert orden_detalle: %w", err)
	}
	return nil
}

// GetOrder devuelve la orden o domain.ErrNotFound.
func (r *OrderRepo) GetOrder(ctx context.Context, orderID int64) (*entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM ordenes WHERE id = $1`
	var o entity.Order
	err := r.q.QueryRow(ctx, query, orderID).Scan(
		&o.ID, &o.Estado, &o.FechaEmision, &o.FechaRecepcion, &o.FechaRecepcionEst,
		&o.Subtotal, &o.CostoCompra, &o.IDUsuarioSolicita, &o.IDUsuarioProvee,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get orden: %w", err)
	}
	return &o, nil
}

// GetLines devuelve las líneas de la orden.
func (r *OrderRepo) GetLines(ctx context.Context, orderID int64) ([]entity.OrderLine, error) {
	query := `
		SELECT orden_id, producto, cantidad, precio, fecha_caducidad
		FROM orden_detalle WHERE orden_id = $1 ORDER BY producto`
	rows, err := r.q.Query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("get orden_detalle: %w", err)
	}
	defer rows.Close()
	var lines []entity.OrderLine
	for rows.Next() {
		var l entity.OrderLine
		if err := rows.Scan(&l.OrderID, &l.Producto, &l.Cantidad, &l.Precio, &l.FechaCaducidad); err != nil {
			return nil, fmt.Errorf("scan orden_detalle: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// MarkCompleted cambia el estado a 'completada' y fija fecha_recepcion.
func (r *OrderRepo) MarkCompleted(ctx context.Context, orderID int64, fechaRecepcion time.Time) error {
	query := `UPDATE ordenes SET estado = $2, fecha_recepcion = $3 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, orderID, entity.OrderCompletada, fechaRecepcion)
	if err != nil {
		return fmt.Errorf("completar orden: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve todas las órdenes, más recientes primero.
func (r *OrderRepo) List(ctx context.Context) ([]entity.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM ordenes ORDER BY fecha_emision DESC, id DESC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list ordenes: %w", err)
	}
	defer rows.Close()
	var list []entity.Order
	for rows.Next() {
		var o entity.Order
		if err := rows.Scan(
			&o.ID, &o.Estado, &o.FechaEmision, &o.FechaRecepcion, &o.FechaRecepcionEst,
			&o.Subtotal, &o.CostoCompra, &o.IDUsuarioSolicita, &o.IDUsuarioProvee,
		); err != nil {
			return nil, fmt.Errorf("scan orden: %w", err)
		}
		list = append(list, o)
	}
	return list, rows.Err()
}

// Update reescribe todos los campos mutables de la orden.
func (r *OrderRepo) Update(ctx context.Context, order *entity.Order) error {
	query := `
		UPDATE ordenes
		SET estado = $2, fecha_emision = $3, fecha_recepcion = $4, fecha_recepcion_estimada = $5,
			subtotal = $6, costo_compra = $7, id_usuario_solicita = $8, id_usuario_provee = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		order.ID, order.Estado, order.FechaEmision, order.FechaRecepcion, order.FechaRecepcionEst,
		order.Subtotal, order.CostoCompra, order.IDUsuarioSolicita, order.IDUsuarioProvee,
	)
	if err != nil {
		return fmt.Errorf("update orden: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina la orden y sus líneas.
func (r *OrderRepo) Delete(ctx context.Context, orderID int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM orden_detalle WHERE orden_id = $1`, orderID); err != nil {
		return fmt.Errorf("delete orden_detalle: %w", err)
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM ordenes WHERE id = $1`, orderID); err != nil {
		return fmt.Errorf("delete orden: %w", err)
	}
	return nil
}
