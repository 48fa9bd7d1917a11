package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/viba/viba-api/internal/domain/entity"
)

// SaleWithLines una venta con sus líneas anidadas (GET /api/ventas).
type SaleWithLines struct {
	Sale  entity.Sale
	Lines []entity.SaleLine
}

// SaleRepository puerto de persistencia para ventas y sus líneas.
type SaleRepository interface {
	// CreateSale inserta la venta con total provisional cero y devuelve su id.
	CreateSale(ctx context.Context, fecha time.Time) (int64, error)
	// AddLine inserta una línea de venta (unidad + costo capturado).
	AddLine(ctx context.Context, saleID, unitID int64, costoUnit decimal.Decimal) error
	// SetTotal fija el total derivado de la venta.
	SetTotal(ctx context.Context, saleID int64, total decimal.Decimal) error
	// GetSale devuelve la venta o domain.ErrNotFound.
	GetSale(ctx context.Context, saleID int64) (*entity.Sale, error)
	// DeleteLines elimina todas las líneas de la venta.
	DeleteLines(ctx context.Context, saleID int64) error
	// DeleteSale elimina la fila de la venta.
	DeleteSale(ctx context.Context, saleID int64) error
	// ListSalesWithLines ventas con líneas anidadas, más recientes primero.
	ListSalesWithLines(ctx context.Context) ([]SaleWithLines, error)
	// GetSaleWithLines una venta puntual con sus líneas, o domain.ErrNotFound.
	GetSaleWithLines(ctx context.Context, saleID int64) (*SaleWithLines, error)
}
