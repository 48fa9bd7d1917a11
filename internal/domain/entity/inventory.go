package entity

import "time"

// Estados de una unidad de inventario.
const (
	UnitDisponible = "disponible"
	UnitVendido    = "vendido"
)

// Tipos de movimiento registrados sobre una unidad.
const (
	MovIngresoPorOrden = "ingreso por orden"
	MovSalidaPorVenta  = "salida por venta"
)

// InventoryUnit representa una unidad física de stock, reservable de forma
// individual. Se crea al completar una orden (una fila por unidad pedida) y
// pasa a 'vendido' cuando una venta la consume; no se actualiza en ningún
// otro caso.
type InventoryUnit struct {
	ID             int64
	Producto       string
	Fecha          time.Time
	Estado         string
	TipoMovimiento string
	Observaciones  string
}

// ProductCount cantidad disponible agrupada por producto (GET /api/inventario).
type ProductCount struct {
	Producto string
	Cantidad int
}
