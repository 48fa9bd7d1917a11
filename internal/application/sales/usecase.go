package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/viba/viba-api/internal/application/dto"
	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/domain/entity"
	"github.com/viba/viba-api/internal/domain/repository"
)

// SellResult resultado de SellProducts.
type SellResult struct {
	SaleID int64
	Total  decimal.Decimal
}

// VentaRealizadaPayload payload del evento publicado al cerrar una venta.
type VentaRealizadaPayload struct {
	IDVenta  int64           `json:"id_venta"`
	Total    decimal.Decimal `json:"total"`
	Fecha    time.Time       `json:"fecha"`
	Unidades int             `json:"unidades"`
}

// SaleUseCase procesa ventas contra el libro de inventario. Toda mutación
// (reservar unidades, crear venta y líneas, fijar total) ocurre dentro de
// una sola transacción: si un producto queda corto la operación completa
// se revierte sin mutación parcial.
type SaleUseCase struct {
	txRunner  TxRunner
	saleRepo  repository.SaleRepository
	invRepo   repository.InventoryRepository
	publisher EventPublisher
}

// NewSaleUseCase construye el caso de uso de ventas. publisher puede ser nil.
func NewSaleUseCase(txRunner TxRunner, saleRepo repository.SaleRepository, invRepo repository.InventoryRepository, publisher EventPublisher) *SaleUseCase {
	return &SaleUseCase{txRunner: txRunner, saleRepo: saleRepo, invRepo: invRepo, publisher: publisher}
}

// aggregated demanda por producto en orden de primera aparición.
type aggregated struct {
	productos []string
	cantidad  map[string]int
}

// aggregate valida las líneas contra el catálogo y acumula cantidades de
// entradas duplicadas del mismo producto.
func aggregate(lines []dto.SellLine) (*aggregated, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: se requiere un array de productos y cantidades", domain.ErrInvalidInput)
	}
	agg := &aggregated{cantidad: map[string]int{}}
	for _, line := range lines {
		producto := strings.ToLower(strings.TrimSpace(line.Producto))
		if producto == "" || line.Cantidad <= 0 {
			return nil, fmt.Errorf("%w: cada producto debe tener nombre y cantidad positiva", domain.ErrInvalidInput)
		}
		if _, ok := PriceFor(producto); !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductoNoReconocido, line.Producto)
		}
		if _, seen := agg.cantidad[producto]; !seen {
			agg.productos = append(agg.productos, producto)
		}
		agg.cantidad[producto] += line.Cantidad
	}
	return agg, nil
}

// SellProducts valida la demanda agregada, reserva las unidades disponibles
// más antiguas (FIFO por fecha) de cada producto, crea la venta con sus
// líneas a precio de catálogo y fija el total derivado. La selección se
// hace con bloqueo de fila, de modo que la comprobación de disponibilidad
// y la reserva son un solo paso indivisible.
func (uc *SaleUseCase) SellProducts(ctx context.Context, fecha time.Time, lines []dto.SellLine) (*SellResult, error) {
	agg, err := aggregate(lines)
	if err != nil {
		return nil, err
	}

	var result SellResult
	var unidades int
	err = uc.txRunner.Run(ctx, func(invRepo repository.InventoryRepository, saleRepo repository.SaleRepository) error {
		// Reservar primero todas las unidades; si algún producto queda corto
		// se aborta antes de crear la venta.
		reserved := make(map[string][]entity.InventoryUnit, len(agg.productos))
		for _, producto := range agg.productos {
			need := agg.cantidad[producto]
			units, err := invRepo.SelectOldestAvailableForUpdate(ctx, producto, need)
			if err != nil {
				return err
			}
			if len(units) < need {
				return fmt.Errorf("%w: %s", domain.ErrInventarioInsuficiente, producto)
			}
			reserved[producto] = units
		}

		saleID, err := saleRepo.CreateSale(ctx, fecha)
		if err != nil {
			return err
		}

		total := decimal.Zero
		observacion := fmt.Sprintf("Vendido en venta #%d", saleID)
		for _, producto := range agg.productos {
			precio, _ := PriceFor(producto)
			for _, unit := range reserved[producto] {
				if err := invRepo.MarkSold(ctx, unit.ID, observacion); err != nil {
					return err
				}
				if err := saleRepo.AddLine(ctx, saleID, unit.ID, precio); err != nil {
					return err
				}
				total = total.Add(precio)
				unidades++
			}
		}

		if err := saleRepo.SetTotal(ctx, saleID, total); err != nil {
			return err
		}
		result = SellResult{SaleID: saleID, Total: total}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if uc.publisher != nil {
		uc.publisher.Publish(ctx, EventVentaRealizada, VentaRealizadaPayload{
			IDVenta:  result.SaleID,
			Total:    result.Total,
			Fecha:    fecha,
			Unidades: unidades,
		})
	}
	return &result, nil
}

// GetSales devuelve todas las ventas con líneas anidadas, más recientes primero.
func (uc *SaleUseCase) GetSales(ctx context.Context) ([]dto.SaleItem, error) {
	rows, err := uc.saleRepo.ListSalesWithLines(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, toSaleItem(row))
	}
	return items, nil
}

// GetSale devuelve una venta puntual con sus líneas (para el recibo).
func (uc *SaleUseCase) GetSale(ctx context.Context, saleID int64) (*repository.SaleWithLines, error) {
	return uc.saleRepo.GetSaleWithLines(ctx, saleID)
}

// UpdateSale reemplaza todas las líneas de una venta re-etiquetando
// unidades ya vendidas bajo esa misma venta. Nunca toca stock disponible:
// si no hay suficientes unidades vendidas con la anotación de la venta,
// falla y la transacción restaura las líneas previas.
func (uc *SaleUseCase) UpdateSale(ctx context.Context, saleID int64, lines []dto.UpdateSaleLine) (decimal.Decimal, error) {
	if len(lines) == 0 {
		return decimal.Zero, fmt.Errorf("%w: se requiere una lista de productos", domain.ErrInvalidInput)
	}

	var total decimal.Decimal
	err := uc.txRunner.Run(ctx, func(invRepo repository.InventoryRepository, saleRepo repository.SaleRepository) error {
		if _, err := saleRepo.GetSale(ctx, saleID); err != nil {
			return err
		}
		if err := saleRepo.DeleteLines(ctx, saleID); err != nil {
			return err
		}

		total = decimal.Zero
		for _, line := range lines {
			producto := strings.ToLower(strings.TrimSpace(line.Nombre))
			units, err := invRepo.SelectSoldBySale(ctx, producto, saleID, line.Cantidad)
			if err != nil {
				return err
			}
			if len(units) < line.Cantidad {
				return fmt.Errorf("%w: %s", domain.ErrUnidadesInsuficientes, line.Nombre)
			}
			for _, unit := range units {
				if err := saleRepo.AddLine(ctx, saleID, unit.ID, line.CostoUnitario); err != nil {
					return err
				}
				total = total.Add(line.CostoUnitario)
			}
		}
		return saleRepo.SetTotal(ctx, saleID, total)
	})
	if err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// DeleteSale elimina las líneas y la venta. Las unidades referenciadas
// permanecen en estado 'vendido': el borrado es una enmienda del registro,
// no una devolución al inventario.
func (uc *SaleUseCase) DeleteSale(ctx context.Context, saleID int64) error {
	return uc.txRunner.Run(ctx, func(_ repository.InventoryRepository, saleRepo repository.SaleRepository) error {
		if _, err := saleRepo.GetSale(ctx, saleID); err != nil {
			return err
		}
		if err := saleRepo.DeleteLines(ctx, saleID); err != nil {
			return err
		}
		return saleRepo.DeleteSale(ctx, saleID)
	})
}

// Inventory cantidades disponibles agrupadas por producto (GET /api/inventario).
func (uc *SaleUseCase) Inventory(ctx context.Context) ([]dto.InventoryCount, error) {
	counts, err := uc.invRepo.AvailableByProduct(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InventoryCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, dto.InventoryCount{Producto: c.Producto, Cantidad: c.Cantidad})
	}
	return out, nil
}

func toSaleItem(row repository.SaleWithLines) dto.SaleItem {
	item := dto.SaleItem{
		ID:        row.Sale.ID,
		Total:     row.Sale.Total,
		Fecha:     row.Sale.Fecha.Format("2006-01-02"),
		Productos: make([]dto.SaleLineItem, 0, len(row.Lines)),
	}
	for _, line := range row.Lines {
		item.Productos = append(item.Productos, dto.SaleLineItem{
			Nombre:        line.Producto,
			CostoUnitario: line.CostoUnit,
		})
	}
	return item
}
