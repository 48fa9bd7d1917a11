package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale representa una venta. El total es derivado: siempre igual a la suma
// de los costos unitarios de sus líneas.
type Sale struct {
	ID    int64
	Fecha time.Time
	Total decimal.Decimal
}

// SaleLine vincula una unidad de inventario a una venta con el precio
// capturado al momento de vender. Una unidad aparece en a lo sumo una
// línea activa.
type SaleLine struct {
	SaleID      int64
	InventoryID int64
	Producto    string
	CostoUnit   decimal.Decimal
}
