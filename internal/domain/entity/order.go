package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden.
const (
	OrderPendiente  = "pendiente"
	OrderCompletada = "completada"
)

// Order representa una orden de compra entre un solicitante y un proveedor.
// Al completarse dispara el alta de unidades de inventario.
type Order struct {
	ID                 int64
	Estado             string
	FechaEmision       time.Time
	FechaRecepcion     *time.Time
	FechaRecepcionEst  *time.Time
	Subtotal           decimal.Decimal
	CostoCompra        decimal.Decimal
	IDUsuarioSolicita  string
	IDUsuarioProvee    string
}

// OrderLine una línea de la orden: producto, cantidad y precio pactado.
type OrderLine struct {
	OrderID        int64
	Producto       string
	Cantidad       int
	Precio         decimal.Decimal
	FechaCaducidad *time.Time
}
