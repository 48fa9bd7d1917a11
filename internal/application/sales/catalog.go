package sales

import "github.com/shopspring/decimal"

// Catálogo fijo de cortes y su precio unitario de venta. La validación de
// POST /api/vender solo admite estos productos.
var catalog = map[string]decimal.Decimal{
	"arrachera": decimal.NewFromInt(320),
	"ribeye":    decimal.NewFromInt(450),
	"tomahawk":  decimal.NewFromInt(600),
	"diezmillo": decimal.NewFromInt(280),
}

// PriceFor devuelve el precio unitario del producto (en minúsculas) y si
// pertenece al catálogo.
func PriceFor(producto string) (decimal.Decimal, bool) {
	p, ok := catalog[producto]
	return p, ok
}
