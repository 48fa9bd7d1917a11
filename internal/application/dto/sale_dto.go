package dto

import "github.com/shopspring/decimal"

// SellLine una línea solicitada en POST /api/vender. Entradas duplicadas
// del mismo producto se acumulan.
type SellLine struct {
	Producto string `json:"producto" validate:"required"`
	Cantidad int    `json:"cantidad" validate:"required,gt=0"`
}

// SellRequest body para POST /api/vender.
type SellRequest struct {
	FechaEmision string     `json:"fecha_emision"`
	Productos    []SellLine `json:"productos" validate:"required,min=1,dive"`
}

// SellResponse resultado de una venta.
type SellResponse struct {
	Message string          `json:"message"`
	IDVenta int64           `json:"id_venta"`
	Total   decimal.Decimal `json:"total"`
}

// SaleLineItem línea mostrada en GET /api/ventas.
type SaleLineItem struct {
	Nombre        string          `json:"nombre"`
	CostoUnitario decimal.Decimal `json:"costo_unitario"`
}

// SaleItem venta con líneas anidadas, agrupada por id.
type SaleItem struct {
	ID        int64           `json:"id"`
	Total     decimal.Decimal `json:"total"`
	Fecha     string          `json:"fecha"`
	Productos []SaleLineItem  `json:"productos"`
}

// UpdateSaleLine línea para PUT /api/ventas/:id.
type UpdateSaleLine struct {
	Nombre        string          `json:"nombre" validate:"required"`
	Cantidad      int             `json:"cantidad" validate:"required,gt=0"`
	CostoUnitario decimal.Decimal `json:"costo_unitario" validate:"required"`
}

// UpdateSaleRequest reemplaza todas las líneas de una venta existente.
type UpdateSaleRequest struct {
	Productos []UpdateSaleLine `json:"productos" validate:"required,min=1,dive"`
}

// UpdateSaleResponse total recalculado tras el reemplazo.
type UpdateSaleResponse struct {
	Message string          `json:"message"`
	Total   decimal.Decimal `json:"total"`
}

// InventoryCount cantidad disponible por producto (GET /api/inventario).
type InventoryCount struct {
	Producto string `json:"producto"`
	Cantidad int    `json:"cantidad"`
}
