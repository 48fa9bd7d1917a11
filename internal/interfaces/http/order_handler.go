package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/viba/viba-api/internal/application/dto"
	"github.com/viba/viba-api/internal/application/orders"
	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/interfaces/metrics"
)

// OrderHandler maneja órdenes de compra.
type OrderHandler struct {
	uc *orders.OrderUseCase
}

// NewOrderHandler construye el handler de órdenes.
func NewOrderHandler(uc *orders.OrderUseCase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// Create godoc
// @Summary      Registrar una orden de compra pendiente
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateOrderRequest  true  "solicitante, proveedor y líneas"
// @Success      201   {object}  dto.CreateOrderResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/nuevaorden [post]
func (h *OrderHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateStruct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	id, err := h.uc.CreateOrder(c.Context(), &in)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "USER_NOT_FOUND", Message: err.Error()})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.Status(fiber.StatusCreated).JSON(dto.CreateOrderResponse{Message: "orden registrada", IDOrden: id})
}

// Complete godoc
// @Summary      Completar una orden: alta de inventario y notificación
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "id de la orden"
// @Param        body  body  dto.CompleteOrderRequest  true  "fecha de recepción"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/completarorden/{id} [post]
func (h *OrderHandler) Complete(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	var in dto.CompleteOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateStruct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	if err := h.uc.CompleteOrder(c.Context(), int64(orderID), in.FechaRecepcion); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "la orden no existe"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	metrics.OrdenesCompletadasTotal.Inc()
	return c.JSON(dto.MessageResponse{Message: "orden completada e inventario dado de alta"})
}

// List godoc
// @Summary      Listar órdenes
// @Tags         ordenes
// @Produce      json
// @Success      200   {array}  dto.OrderItem
// @Router       /api/ordenes [get]
func (h *OrderHandler) List(c *fiber.Ctx) error {
	items, err := h.uc.ListOrders(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(items)
}

// Update godoc
// @Summary      Actualizar campos de una orden
// @Tags         ordenes
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "id de la orden"
// @Param        body  body  dto.UpdateOrderRequest  true  "campos a cambiar"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/ordenes/{id} [put]
func (h *OrderHandler) Update(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	var in dto.UpdateOrderRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	if err := h.uc.UpdateOrder(c.Context(), int64(orderID), &in); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "la orden no existe"})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.JSON(dto.MessageResponse{Message: "orden actualizada"})
}

// Delete godoc
// @Summary      Eliminar una orden y sus líneas
// @Tags         ordenes
// @Produce      json
// @Param        id  path  int  true  "id de la orden"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/ordenes/{id} [delete]
func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	orderID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	if err := h.uc.DeleteOrder(c.Context(), int64(orderID)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "la orden no existe"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.MessageResponse{Message: "orden eliminada"})
}
