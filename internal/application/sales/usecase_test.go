package sales_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viba/viba-api/internal/application/dto"
	"github.com/viba/viba-api/internal/application/sales"
	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/domain/entity"
	"github.com/viba/viba-api/internal/domain/repository"
)

// ──────────────────────────────────────────────────────────────────────────────
// Almacén en memoria con semántica transaccional (rollback ante error)
// ──────────────────────────────────────────────────────────────────────────────

type fakeStore struct {
	units      []entity.InventoryUnit
	sales      map[int64]*entity.Sale
	lines      []entity.SaleLine
	nextUnitID int64
	nextSaleID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{sales: map[int64]*entity.Sale{}}
}

func (s *fakeStore) clone() *fakeStore {
	c := &fakeStore{
		units:      append([]entity.InventoryUnit(nil), s.units...),
		sales:      map[int64]*entity.Sale{},
		lines:      append([]entity.SaleLine(nil), s.lines...),
		nextUnitID: s.nextUnitID,
		nextSaleID: s.nextSaleID,
	}
	for id, sale := range s.sales {
		copy := *sale
		c.sales[id] = &copy
	}
	return c
}

func (s *fakeStore) restore(from *fakeStore) {
	s.units = from.units
	s.sales = from.sales
	s.lines = from.lines
	s.nextUnitID = from.nextUnitID
	s.nextSaleID = from.nextSaleID
}

// InventoryRepository

func (s *fakeStore) CountAvailable(_ context.Context, producto string) (int, error) {
	return s.count(producto, entity.UnitDisponible), nil
}

func (s *fakeStore) CountByState(_ context.Context, producto, estado string) (int, error) {
	return s.count(producto, estado), nil
}

func (s *fakeStore) count(producto, estado string) int {
	n := 0
	for _, u := range s.units {
		if u.Producto == producto && u.Estado == estado {
			n++
		}
	}
	return n
}

func (s *fakeStore) SelectOldestAvailableForUpdate(_ context.Context, producto string, limit int) ([]entity.InventoryUnit, error) {
	var out []entity.InventoryUnit
	for _, u := range s.units {
		if u.Producto == producto && u.Estado == entity.UnitDisponible {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha.Before(out[j].Fecha) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) SelectSoldBySale(_ context.Context, producto string, saleID int64, limit int) ([]entity.InventoryUnit, error) {
	obs := fmt.Sprintf("Vendido en venta #%d", saleID)
	var out []entity.InventoryUnit
	for _, u := range s.units {
		if u.Producto == producto && u.Estado == entity.UnitVendido && u.Observaciones == obs {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha.Before(out[j].Fecha) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) MarkSold(_ context.Context, unitID int64, observacion string) error {
	for i := range s.units {
		if s.units[i].ID == unitID {
			s.units[i].Estado = entity.UnitVendido
			s.units[i].TipoMovimiento = entity.MovSalidaPorVenta
			s.units[i].Observaciones = observacion
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *fakeStore) InsertUnits(_ context.Context, producto string, count int, observacion string) error {
	for i := 0; i < count; i++ {
		s.nextUnitID++
		s.units = append(s.units, entity.InventoryUnit{
			ID:             s.nextUnitID,
			Producto:       producto,
			Fecha:          time.Now().Add(time.Duration(s.nextUnitID) * time.Second),
			Estado:         entity.UnitDisponible,
			TipoMovimiento: entity.MovIngresoPorOrden,
			Observaciones:  observacion,
		})
	}
	return nil
}

func (s *fakeStore) AvailableByProduct(_ context.Context) ([]entity.ProductCount, error) {
	byProduct := map[string]int{}
	for _, u := range s.units {
		if u.Estado == entity.UnitDisponible {
			byProduct[u.Producto]++
		}
	}
	var out []entity.ProductCount
	for p, n := range byProduct {
		out = append(out, entity.ProductCount{Producto: p, Cantidad: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Producto < out[j].Producto })
	return out, nil
}

// SaleRepository

func (s *fakeStore) CreateSale(_ context.Context, fecha time.Time) (int64, error) {
	s.nextSaleID++
	s.sales[s.nextSaleID] = &entity.Sale{ID: s.nextSaleID, Fecha: fecha, Total: decimal.Zero}
	return s.nextSaleID, nil
}

func (s *fakeStore) AddLine(_ context.Context, saleID, unitID int64, costoUnit decimal.Decimal) error {
	var producto string
	for _, u := range s.units {
		if u.ID == unitID {
			producto = u.Producto
		}
	}
	s.lines = append(s.lines, entity.SaleLine{SaleID: saleID, InventoryID: unitID, Producto: producto, CostoUnit: costoUnit})
	return nil
}

func (s *fakeStore) SetTotal(_ context.Context, saleID int64, total decimal.Decimal) error {
	sale, ok := s.sales[saleID]
	if !ok {
		return domain.ErrNotFound
	}
	sale.Total = total
	return nil
}

func (s *fakeStore) GetSale(_ context.Context, saleID int64) (*entity.Sale, error) {
	sale, ok := s.sales[saleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sale, nil
}

func (s *fakeStore) DeleteLines(_ context.Context, saleID int64) error {
	var kept []entity.SaleLine
	for _, l := range s.lines {
		if l.SaleID != saleID {
			kept = append(kept, l)
		}
	}
	s.lines = kept
	return nil
}

func (s *fakeStore) DeleteSale(_ context.Context, saleID int64) error {
	delete(s.sales, saleID)
	return nil
}

func (s *fakeStore) ListSalesWithLines(_ context.Context) ([]repository.SaleWithLines, error) {
	ids := make([]int64, 0, len(s.sales))
	for id := range s.sales {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })
	var out []repository.SaleWithLines
	for _, id := range ids {
		row := repository.SaleWithLines{Sale: *s.sales[id]}
		for _, l := range s.lines {
			if l.SaleID == id {
				row.Lines = append(row.Lines, l)
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func (s *fakeStore) GetSaleWithLines(ctx context.Context, saleID int64) (*repository.SaleWithLines, error) {
	sale, err := s.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	row := &repository.SaleWithLines{Sale: *sale}
	for _, l := range s.lines {
		if l.SaleID == saleID {
			row.Lines = append(row.Lines, l)
		}
	}
	return row, nil
}

// fakeTxRunner simula la atomicidad: clona el estado antes de fn y lo
// restaura si fn falla (rollback).
type fakeTxRunner struct {
	store *fakeStore
}

func (r *fakeTxRunner) Run(_ context.Context, fn func(repository.InventoryRepository, repository.SaleRepository) error) error {
	snapshot := r.store.clone()
	if err := fn(r.store, r.store); err != nil {
		r.store.restore(snapshot)
		return err
	}
	return nil
}

type fakePublisher struct {
	events []string
}

func (p *fakePublisher) Publish(_ context.Context, eventType string, _ interface{}) {
	p.events = append(p.events, eventType)
}

func newSaleUC(store *fakeStore) (*sales.SaleUseCase, *fakePublisher) {
	pub := &fakePublisher{}
	uc := sales.NewSaleUseCase(&fakeTxRunner{store: store}, store, store, pub)
	return uc, pub
}

var fecha = time.Date(2025, 5, 23, 0, 0, 0, 0, time.UTC)

// ──────────────────────────────────────────────────────────────────────────────
// SellProducts
// ──────────────────────────────────────────────────────────────────────────────

func TestSellProducts_VentaCompleta(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.InsertUnits(context.Background(), "ribeye", 8, "Orden completada: #1"))
	uc, pub := newSaleUC(store)

	out, err := uc.SellProducts(context.Background(), fecha, []dto.SellLine{{Producto: "ribeye", Cantidad: 5}})
	require.NoError(t, err)

	assert.True(t, out.Total.Equal(decimal.NewFromInt(5*450)), "total = 5 × 450, got %s", out.Total)
	assert.Equal(t, 5, store.count("ribeye", entity.UnitVendido), "exactamente 5 unidades pasan a vendido")
	assert.Equal(t, 3, store.count("ribeye", entity.UnitDisponible))
	assert.Equal(t, []string{sales.EventVentaRealizada}, pub.events)

	sale := store.sales[out.SaleID]
	require.NotNil(t, sale)
	assert.True(t, sale.Total.Equal(out.Total), "el total persistido debe coincidir")
}

func TestSellProducts_ProductoNoReconocido_SinMutacion(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.InsertUnits(context.Background(), "ribeye", 3, ""))
	uc, pub := newSaleUC(store)

	_, err := uc.SellProducts(context.Background(), fecha, []dto.SellLine{{Producto: "pollo", Cantidad: 1}})
	require.ErrorIs(t, err, domain.ErrProductoNoReconocido)
	assert.Contains(t, err.Error(), "pollo")

	assert.Empty(t, store.sales, "no debe crearse ninguna venta")
	assert.Equal(t, 3, store.count("ribeye", entity.UnitDisponible), "el inventario queda intacto")
	assert.Empty(t, pub.events)
}

func TestSellProducts_SinProductos_Falla(t *testing.T) {
	uc, _ := newSaleUC(newFakeStore())
	_, err := uc.SellProducts(context.Background(), fecha, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSellProducts_CantidadNoPositiva_Falla(t *testing.T) {
	uc, _ := newSaleUC(newFakeStore())
	_, err := uc.SellProducts(context.Background(), fecha, []dto.SellLine{{Producto: "ribeye", Cantidad: 0}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSellProducts_InventarioInsuficiente_RollbackTotal(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.InsertUnits(context.Background(), "arrachera", 4, ""))
	require.NoError(t, store.InsertUnits(context.Background(), "tomahawk", 1, ""))
	uc, pub := newSaleUC(store)

	// arrachera alcanza, tomahawk no: la operación entera debe revertirse.
	_, err := uc.SellProducts(context.Background(), fecha, []dto.SellLine{
		{Producto: "arrachera", Cantidad: 3},
		{Producto: "tomahawk", Cantidad: 2},
	})
	require.ErrorIs(t, err, domain.ErrInventarioInsuficiente)
	assert.Contains(t, err.Error(), "tomahawk")

	assert.Equal(t, 4, store.count("arrachera", entity.UnitDisponible), "ninguna arrachera debe quedar vendida")
	assert.Equal(t, 0, store.count("arrachera", entity.UnitVendido))
	assert.Empty(t, store.sales)
	assert.Empty(t, store.lines)
	assert.Empty(t, pub.events)
}

func TestSellProducts_LineasDuplicadas_Acumulan(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.InsertUnits(context.Background(), "arrachera", 6, ""))
	uc, _ := newSaleUC(store)

	out, err := uc.SellProducts(context.Background(), fecha, []dto.SellLine{
		{Producto: "arrachera", Cantidad: 2},
		{Producto: "Arrachera", Cantidad: 3},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, store.count("arrachera", entity.UnitVendido))
	assert.True(t, out.Total.Equal(decimal.NewFromInt(5*320)))
}

func TestSellProducts_SeleccionFIFO(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.InsertUnits(context.Background(), "diezmillo", 3, "lote viejo"))
	require.NoError(t, store.InsertUnits(context.Background(), "diezmillo", 3, "lote nuevo"))
	uc, _ := newSaleUC(store)

	_, err := uc.SellProducts(context.Background(), fecha, []dto.SellLine{{Producto: "diezmillo", Cantidad: 3}})
	require.NoError(t, err)

	// Las tres unidades del lote viejo (fechas más antiguas) deben venderse primero.
	for _, u := range store.units {
		if u.Observaciones == "lote viejo" || u.ID <= 3 {
			continue
		}
		if u.Producto == "diezmillo" && u.ID > 3 {
			assert.Equal(t, entity.UnitDisponible, u.Estado, "unidad %d del lote nuevo no debe venderse", u.ID)
		}
	}
	vendidas := 0
	for _, u := range store.units {
		if u.Estado == entity.UnitVendido {
			assert.LessOrEqual(t, u.ID, int64(3), "solo las unidades más antiguas se venden")
			vendidas++
		}
	}
	assert.Equal(t, 3, vendidas)
}

func TestSellProducts_InvarianteConservacion(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	require.NoError(t, store.InsertUnits(ctx, "ribeye", 10, ""))
	require.NoError(t, store.InsertUnits(ctx, "arrachera", 7, ""))
	uc, _ := newSaleUC(store)

	_, err := uc.SellProducts(ctx, fecha, []dto.SellLine{{Producto: "ribeye", Cantidad: 4}})
	require.NoError(t, err)
	_, err = uc.SellProducts(ctx, fecha, []dto.SellLine{{Producto: "arrachera", Cantidad: 7}})
	require.NoError(t, err)
	_, err = uc.SellProducts(ctx, fecha, []dto.SellLine{{Producto: "ribeye", Cantidad: 100}})
	require.Error(t, err)

	// Ninguna unidad desaparece ni se duplica tras ventas exitosas y fallidas.
	assert.Equal(t, 10, store.count("ribeye", entity.UnitDisponible)+store.count("ribeye", entity.UnitVendido))
	assert.Equal(t, 7, store.count("arrachera", entity.UnitDisponible)+store.count("arrachera", entity.UnitVendido))
}

func TestSellProducts_UltimaUnidad_SoloUnGanador(t *testing.T) {
	store := newFakeStore()
	require.NoError(t, store.InsertUnits(context.Background(), "tomahawk", 1, ""))
	uc, _ := newSaleUC(store)

	// Dos ventas secuenciales por la última unidad: la serialización de la
	// transacción garantiza que la segunda ve el inventario ya consumido.
	_, err1 := uc.SellProducts(context.Background(), fecha, []dto.SellLine{{Producto: "tomahawk", Cantidad: 1}})
	_, err2 := uc.SellProducts(context.Background(), fecha, []dto.SellLine{{Producto: "tomahawk", Cantidad: 1}})

	require.NoError(t, err1)
	assert.ErrorIs(t, err2, domain.ErrInventarioInsuficiente)
	assert.Equal(t, 1, store.count("tomahawk", entity.UnitVendido))
}

// ──────────────────────────────────────────────────────────────────────────────
// GetSales / UpdateSale / DeleteSale
// ──────────────────────────────────────────────────────────────────────────────

func TestGetSales_AgrupadasMasRecientesPrimero(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	require.NoError(t, store.InsertUnits(ctx, "ribeye", 3, ""))
	require.NoError(t, store.InsertUnits(ctx, "arrachera", 2, ""))
	uc, _ := newSaleUC(store)

	first, err := uc.SellProducts(ctx, fecha, []dto.SellLine{{Producto: "ribeye", Cantidad: 2}})
	require.NoError(t, err)
	second, err := uc.SellProducts(ctx, fecha, []dto.SellLine{{Producto: "arrachera", Cantidad: 2}})
	require.NoError(t, err)

	items, err := uc.GetSales(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, second.SaleID, items[0].ID, "la venta más reciente va primero")
	assert.Equal(t, first.SaleID, items[1].ID)
	require.Len(t, items[1].Productos, 2)
	assert.Equal(t, "ribeye", items[1].Productos[0].Nombre)
	assert.True(t, items[1].Productos[0].CostoUnitario.Equal(decimal.NewFromInt(450)))
	assert.Equal(t, "2025-05-23", items[0].Fecha)
}

func TestUpdateSale_ReetiquetaYRecalculaTotal(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	require.NoError(t, store.InsertUnits(ctx, "ribeye", 4, ""))
	uc, _ := newSaleUC(store)

	out, err := uc.SellProducts(ctx, fecha, []dto.SellLine{{Producto: "ribeye", Cantidad: 3}})
	require.NoError(t, err)

	// Re-etiquetar 2 de las 3 unidades vendidas a un costo distinto.
	nuevoCosto := decimal.NewFromInt(400)
	total, err := uc.UpdateSale(ctx, out.SaleID, []dto.UpdateSaleLine{
		{Nombre: "ribeye", Cantidad: 2, CostoUnitario: nuevoCosto},
	})
	require.NoError(t, err)

	assert.True(t, total.Equal(decimal.NewFromInt(800)), "total = 2 × 400, got %s", total)
	assert.True(t, store.sales[out.SaleID].Total.Equal(total))

	// No debe tocar stock disponible: la unidad restante sigue vendida y
	// la disponible sigue disponible.
	assert.Equal(t, 1, store.count("ribeye", entity.UnitDisponible))
	assert.Equal(t, 3, store.count("ribeye", entity.UnitVendido))
}

func TestUpdateSale_UnidadesInsuficientes_ConservaLineasPrevias(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	require.NoError(t, store.InsertUnits(ctx, "ribeye", 5, ""))
	uc, _ := newSaleUC(store)

	out, err := uc.SellProducts(ctx, fecha, []dto.SellLine{{Producto: "ribeye", Cantidad: 2}})
	require.NoError(t, err)

	// Pedir 4 unidades cuando la venta solo tiene 2: aunque haya stock
	// disponible, UpdateSale no puede reservarlo.
	_, err = uc.UpdateSale(ctx, out.SaleID, []dto.UpdateSaleLine{
		{Nombre: "ribeye", Cantidad: 4, CostoUnitario: decimal.NewFromInt(450)},
	})
	require.ErrorIs(t, err, domain.ErrUnidadesInsuficientes)

	row, err := store.GetSaleWithLines(ctx, out.SaleID)
	require.NoError(t, err)
	assert.Len(t, row.Lines, 2, "el rollback debe conservar las líneas previas")
	assert.Equal(t, 3, store.count("ribeye", entity.UnitDisponible), "el stock disponible queda intacto")
}

func TestUpdateSale_VentaInexistente(t *testing.T) {
	uc, _ := newSaleUC(newFakeStore())
	_, err := uc.UpdateSale(context.Background(), 99, []dto.UpdateSaleLine{
		{Nombre: "ribeye", Cantidad: 1, CostoUnitario: decimal.NewFromInt(450)},
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteSale_NoDevuelveUnidadesAlInventario(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	require.NoError(t, store.InsertUnits(ctx, "arrachera", 3, ""))
	uc, _ := newSaleUC(store)

	out, err := uc.SellProducts(ctx, fecha, []dto.SellLine{{Producto: "arrachera", Cantidad: 2}})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteSale(ctx, out.SaleID))

	_, err = store.GetSale(ctx, out.SaleID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, store.lines)
	// El borrado es una enmienda del registro: las unidades siguen vendidas.
	assert.Equal(t, 2, store.count("arrachera", entity.UnitVendido))
	assert.Equal(t, 1, store.count("arrachera", entity.UnitDisponible))
}

func TestDeleteSale_VentaInexistente(t *testing.T) {
	uc, _ := newSaleUC(newFakeStore())
	err := uc.DeleteSale(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInventory_AgrupaDisponibles(t *testing.T) {
	store := newFakeStore()
	ctx := context.Background()
	require.NoError(t, store.InsertUnits(ctx, "ribeye", 2, ""))
	require.NoError(t, store.InsertUnits(ctx, "arrachera", 1, ""))
	uc, _ := newSaleUC(store)

	_, err := uc.SellProducts(ctx, fecha, []dto.SellLine{{Producto: "ribeye", Cantidad: 1}})
	require.NoError(t, err)

	counts, err := uc.Inventory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []dto.InventoryCount{
		{Producto: "arrachera", Cantidad: 1},
		{Producto: "ribeye", Cantidad: 1},
	}, counts)
}
