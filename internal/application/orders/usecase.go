package orders

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

const fechaLayout = "2006-01-02"

// OrdenCompletadaPayload payload del evento publicado al completar una orden.
type OrdenCompletadaPayload struct {
	IDOrden        int64     `json:"id_orden"`
	FechaRecepcion time.Time `json:"fecha_recepcion"`
	Unidades       int       `json:"unidades"`
}

// OrderUseCase gestiona el ciclo de vida de órdenes de compra: alta,
// recepción (que da de alta unidades de inventario) y consulta. Las
// notificaciones a solicitante y proveedor se crean dentro de la misma
// transacción que la mutación que las origina.
type OrderUseCase struct {
	txRunner  OrderTxRunner
	orderRepo repository.OrderRepository
	userRepo  repository.UserRepository
	publisher EventPublisher
}

// NewOrderUseCase construye el caso de uso de órdenes. publisher puede ser nil.
func NewOrderUseCase(txRunner OrderTxRunner, orderRepo repository.OrderRepository, userRepo repository.UserRepository, publisher EventPublisher) *OrderUseCase {
	return &OrderUseCase{txRunner: txRunner, orderRepo: orderRepo, userRepo: userRepo, publisher: publisher}
}

// CreateOrder registra una orden pendiente entre solicitante y proveedor,
// con sus líneas y el subtotal derivado de ellas, y notifica al proveedor.
func (uc *OrderUseCase) CreateOrder(ctx context.Context, req *dto.CreateOrderRequest) (int64, error) {
	fechaEmision, err := parseFecha(req.FechaEmision)
	if err != nil {
		return 0, err
	}

	solicita, err := uc.userRepo.FindByEmail(req.CorreoSolicita)
	if err != nil {
		return 0, err
	}
	if solicita == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, req.CorreoSolicita)
	}
	provee, err := uc.userRepo.FindByEmail(req.CorreoProvee)
	if err != nil {
		return 0, err
	}
	if provee == nil {
		return 0, fmt.Errorf("%w: %s", domain.ErrUserNotFound, req.CorreoProvee)
	}

	subtotal := decimal.Zero
	for _, line := range req.Productos {
		if strings.TrimSpace(line.Producto) == "" || line.Cantidad <= 0 {
			return 0, fmt.Errorf("%w: cada producto debe tener nombre y cantidad positiva", domain.ErrInvalidInput)
		}
		subtotal = subtotal.Add(line.Precio.Mul(decimal.NewFromInt(int64(line.Cantidad))))
	}

	var orderID int64
	err = uc.txRunner.RunOrder(ctx, func(orderRepo repository.OrderRepository, _ repository.InventoryRepository, notifRepo repository.NotificationRepository) error {
		id, err := orderRepo.CreateOrder(ctx, solicita.ID, provee.ID, fechaEmision)
		if err != nil {
			return err
		}
		for _, line := range req.Productos {
			var caducidad *time.Time
			if line.FechaCaducidad != "" {
				f, err := parseFecha(line.FechaCaducidad)
				if err != nil {
					return err
				}
				caducidad = &f
			}
			if err := orderRepo.AddLine(ctx, &entity.OrderLine{
				OrderID:        id,
				Producto:       strings.ToLower(strings.TrimSpace(line.Producto)),
				Cantidad:       line.Cantidad,
				Precio:         line.Precio,
				FechaCaducidad: caducidad,
			}); err != nil {
				return err
			}
		}
		if err := orderRepo.Update(ctx, &entity.Order{
			ID:                id,
			Estado:            entity.OrderPendiente,
			FechaEmision:      fechaEmision,
			Subtotal:          subtotal,
			CostoCompra:       subtotal,
			IDUsuarioSolicita: solicita.ID,
			IDUsuarioProvee:   provee.ID,
		}); err != nil {
			return err
		}
		if err := notifRepo.Create(ctx, &entity.Notification{
			Mensaje:   fmt.Sprintf("Nueva orden de compra #%d solicitada por %s", id, solicita.Nombre),
			Tipo:      entity.NotifOrden,
			Fecha:     time.Now(),
			IDUsuario: provee.ID,
		}); err != nil {
			return err
		}
		orderID = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return orderID, nil
}

// CompleteOrder marca la orden como completada y da de alta una unidad de
// inventario por cada pieza de cada línea, todo en una sola transacción.
// Una orden ya completada no puede completarse dos veces.
func (uc *OrderUseCase) CompleteOrder(ctx context.Context, orderID int64, fechaRecepcionStr string) error {
	fechaRecepcion, err := parseFecha(fechaRecepcionStr)
	if err != nil {
		return err
	}

	var unidades int
	err = uc.txRunner.RunOrder(ctx, func(orderRepo repository.OrderRepository, invRepo repository.InventoryRepository, notifRepo repository.NotificationRepository) error {
		order, err := orderRepo.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Estado == entity.OrderCompletada {
			return fmt.Errorf("%w: la orden #%d ya fue completada", domain.ErrInvalidInput, orderID)
		}
		if err := orderRepo.MarkCompleted(ctx, orderID, fechaRecepcion); err != nil {
			return err
		}

		lines, err := orderRepo.GetLines(ctx, orderID)
		if err != nil {
			return err
		}
		observacion := fmt.Sprintf("Orden completada: #%d", orderID)
		for _, line := range lines {
			if err := invRepo.InsertUnits(ctx, line.Producto, line.Cantidad, observacion); err != nil {
				return err
			}
			unidades += line.Cantidad
		}

		return notifRepo.Create(ctx, &entity.Notification{
			Mensaje:   fmt.Sprintf("La orden #%d fue recibida y su inventario dado de alta", orderID),
			Tipo:      entity.NotifOrdenRecibida,
			Fecha:     time.Now(),
			IDUsuario: order.IDUsuarioSolicita,
		})
	})
	if err != nil {
		return err
	}

	if uc.publisher != nil {
		uc.publisher.Publish(ctx, EventOrdenCompletada, OrdenCompletadaPayload{
			IDOrden:        orderID,
			FechaRecepcion: fechaRecepcion,
			Unidades:       unidades,
		})
	}
	return nil
}

// ListOrders devuelve todas las órdenes.
func (uc *OrderUseCase) ListOrders(ctx context.Context) ([]dto.OrderItem, error) {
	rows, err := uc.orderRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderItem, 0, len(rows))
	for _, o := range rows {
		items = append(items, toOrderItem(o))
	}
	return items, nil
}

// UpdateOrder aplica los campos presentes del request sobre la orden.
func (uc *OrderUseCase) UpdateOrder(ctx context.Context, orderID int64, req *dto.UpdateOrderRequest) error {
	order, err := uc.orderRepo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if req.Estado != "" {
		if req.Estado != entity.OrderPendiente && req.Estado != entity.OrderCompletada {
			return fmt.Errorf("%w: estado desconocido %q", domain.ErrInvalidInput, req.Estado)
		}
		order.Estado = req.Estado
	}
	if req.FechaEmision != "" {
		f, err := parseFecha(req.FechaEmision)
		if err != nil {
			return err
		}
		order.FechaEmision = f
	}
	if req.FechaRecepcion != "" {
		f, err := parseFecha(req.FechaRecepcion)
		if err != nil {
			return err
		}
		order.FechaRecepcion = &f
	}
	if req.FechaEstimada != "" {
		f, err := parseFecha(req.FechaEstimada)
		if err != nil {
			return err
		}
		order.FechaRecepcionEst = &f
	}
	if req.Subtotal != nil {
		order.Subtotal = *req.Subtotal
	}
	if req.Costo != nil {
		order.CostoCompra = *req.Costo
	}
	if req.UsuarioSolicita != "" {
		order.IDUsuarioSolicita = req.UsuarioSolicita
	}
	if req.UsuarioProvee != "" {
		order.IDUsuarioProvee = req.UsuarioProvee
	}
	return uc.orderRepo.Update(ctx, order)
}

// DeleteOrder elimina la orden y sus líneas. Las unidades de inventario ya
// dadas de alta por una orden completada no se retiran.
func (uc *OrderUseCase) DeleteOrder(ctx context.Context, orderID int64) error {
	if _, err := uc.orderRepo.GetOrder(ctx, orderID); err != nil {
		return err
	}
	return uc.orderRepo.Delete(ctx, orderID)
}

func parseFecha(s string) (time.Time, error) {
	f, err := time.Parse(fechaLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha inválida %q, se espera AAAA-MM-DD", domain.ErrInvalidInput, s)
	}
	return f, nil
}

func toOrderItem(o entity.Order) dto.OrderItem {
	item := dto.OrderItem{
		IDOrden:           o.ID,
		Estado:            o.Estado,
		FechaEmision:      o.FechaEmision.Format(fechaLayout),
		Subtotal:          o.Subtotal,
		CostoCompra:       o.CostoCompra,
		IDUsuarioSolicita: o.IDUsuarioSolicita,
		IDUsuarioProvee:   o.IDUsuarioProvee,
	}
	if o.FechaRecepcion != nil {
		item.FechaRecepcion = o.FechaRecepcion.Format(fechaLayout)
	}
	if o.FechaRecepcionEst != nil {
		item.FechaRecepcionEst = o.FechaRecepcionEst.Format(fechaLayout)
	}
	return item
}
