package dto

import "github.com/shopspring/decimal"

// OrderLineRequest línea de producto en una orden nueva.
type OrderLineRequest struct {
	Producto       string          `json:"producto" validate:"required"`
	Cantidad       int             `json:"cantidad" validate:"required,gt=0"`
	Precio         decimal.Decimal `json:"precio" validate:"required"`
	FechaCaducidad string          `json:"fecha_caducidad,omitempty"`
}

// CreateOrderRequest body para POST /api/nuevaorden.
type CreateOrderRequest struct {
	CorreoSolicita string             `json:"correo_solicita" validate:"required,email"`
	CorreoProvee   string             `json:"correo_provee" validate:"required,email"`
	FechaEmision   string             `json:"fecha_emision" validate:"required"`
	Productos      []OrderLineRequest `json:"productos" validate:"required,min=1,dive"`
}

// CreateOrderResponse id de la orden recién creada.
type CreateOrderResponse struct {
	Message string `json:"message"`
	IDOrden int64  `json:"id_orden"`
}

// CompleteOrderRequest body para POST /api/completarorden/:id.
type CompleteOrderRequest struct {
	FechaRecepcion string `json:"fecha_recepcion" validate:"required"`
}

// OrderItem orden devuelta por GET /api/ordenes.
type OrderItem struct {
	IDOrden           int64           `json:"id_orden"`
	Estado            string          `json:"estado"`
	FechaEmision      string          `json:"fecha_emision"`
	FechaRecepcion    string          `json:"fecha_recepcion,omitempty"`
	FechaRecepcionEst string          `json:"fecha_recepcion_estimada,omitempty"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	CostoCompra       decimal.Decimal `json:"costo_compra"`
	IDUsuarioSolicita string          `json:"id_usuario_solicita"`
	IDUsuarioProvee   string          `json:"id_usuario_provee"`
}

// UpdateOrderRequest body para PUT /api/ordenes/:id.
type UpdateOrderRequest struct {
	Estado          string           `json:"estado,omitempty"`
	FechaEmision    string           `json:"fecha_emision,omitempty"`
	FechaRecepcion  string           `json:"fecha_recepcion,omitempty"`
	FechaEstimada   string           `json:"fecha_estimada,omitempty"`
	Subtotal        *decimal.Decimal `json:"subtotal,omitempty"`
	Costo           *decimal.Decimal `json:"costo,omitempty"`
	UsuarioSolicita string           `json:"usuario_solicita,omitempty"`
	UsuarioProvee   string           `json:"usuario_provee,omitempty"`
}
