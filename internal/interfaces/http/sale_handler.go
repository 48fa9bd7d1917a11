package http

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/viba/viba-api/internal/application/dto"
	"github.com/viba/viba-api/internal/application/sales"
	"github.com/viba/viba-api/internal/domain"
	"github.com/viba/viba-api/internal/domain/repository"
	"github.com/viba/viba-api/internal/interfaces/metrics"
)

// ReceiptGenerator genera el PDF del recibo de una venta.
type ReceiptGenerator interface {
	GenerateReceipt(sale *repository.SaleWithLines) ([]byte, error)
}

// SaleHandler maneja ventas e inventario.
type SaleHandler struct {
	uc       *sales.SaleUseCase
	receipts ReceiptGenerator
}

// NewSaleHandler construye el handler de ventas. receipts puede ser nil
// (el endpoint de recibo responde 501).
func NewSaleHandler(uc *sales.SaleUseCase, receipts ReceiptGenerator) *SaleHandler {
	return &SaleHandler{uc: uc, receipts: receipts}
}

// Sell godoc
// @Summary      Vender productos (reserva FIFO atómica del inventario)
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SellRequest  true  "productos y cantidades"
// @Success      201   {object}  dto.SellResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/vender [post]
func (h *SaleHandler) Sell(c *fiber.Ctx) error {
	var in dto.SellRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateStruct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	fecha := time.Now()
	if in.FechaEmision != "" {
		f, err := time.Parse("2006-01-02", in.FechaEmision)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "fecha_emision inválida, se espera AAAA-MM-DD"})
		}
		fecha = f
	}

	out, err := h.uc.SellProducts(c.Context(), fecha, in.Productos)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProductoNoReconocido):
			metrics.VentasTotal.WithLabelValues("producto_no_reconocido").Inc()
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "PRODUCTO_NO_RECONOCIDO", Message: err.Error()})
		case errors.Is(err, domain.ErrInventarioInsuficiente):
			metrics.VentasTotal.WithLabelValues("inventario_insuficiente").Inc()
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVENTARIO_INSUFICIENTE", Message: err.Error()})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		default:
			metrics.VentasTotal.WithLabelValues("error").Inc()
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}

	metrics.VentasTotal.WithLabelValues("ok").Inc()
	for _, line := range in.Productos {
		metrics.UnidadesVendidasTotal.WithLabelValues(line.Producto).Add(float64(line.Cantidad))
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SellResponse{
		Message: "venta registrada",
		IDVenta: out.SaleID,
		Total:   out.Total,
	})
}

// List godoc
// @Summary      Listar ventas con líneas anidadas, más recientes primero
// @Tags         ventas
// @Produce      json
// @Success      200   {array}  dto.SaleItem
// @Router       /api/ventas [get]
func (h *SaleHandler) List(c *fiber.Ctx) error {
	items, err := h.uc.GetSales(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(items)
}

// Update godoc
// @Summary      Reemplazar las líneas de una venta (re-etiquetado)
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Param        id    path  int  true  "id de la venta"
// @Param        body  body  dto.UpdateSaleRequest  true  "líneas nuevas"
// @Success      200   {object}  dto.UpdateSaleResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/ventas/{id} [put]
func (h *SaleHandler) Update(c *fiber.Ctx) error {
	saleID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	var in dto.UpdateSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	if err := validateStruct(in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}

	total, err := h.uc.UpdateSale(c.Context(), int64(saleID), in.Productos)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "la venta no existe"})
		case errors.Is(err, domain.ErrUnidadesInsuficientes):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "UNIDADES_INSUFICIENTES", Message: err.Error()})
		case errors.Is(err, domain.ErrInvalidInput):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
		}
	}
	return c.JSON(dto.UpdateSaleResponse{Message: "venta actualizada", Total: total})
}

// Delete godoc
// @Summary      Eliminar una venta (las unidades no vuelven al inventario)
// @Tags         ventas
// @Produce      json
// @Param        id  path  int  true  "id de la venta"
// @Success      200   {object}  dto.MessageResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/ventas/{id} [delete]
func (h *SaleHandler) Delete(c *fiber.Ctx) error {
	saleID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	if err := h.uc.DeleteSale(c.Context(), int64(saleID)); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "la venta no existe"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(dto.MessageResponse{Message: "venta eliminada"})
}

// Receipt godoc
// @Summary      Descargar el recibo de una venta en PDF
// @Tags         ventas
// @Produce      application/pdf
// @Param        id  path  int  true  "id de la venta"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/ventas/{id}/recibo [get]
func (h *SaleHandler) Receipt(c *fiber.Ctx) error {
	if h.receipts == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "generación de recibos deshabilitada"})
	}
	saleID, err := c.ParamsInt("id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "id inválido"})
	}
	sale, err := h.uc.GetSale(c.Context(), int64(saleID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "la venta no existe"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	pdfBytes, err := h.receipts.GenerateReceipt(sale)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="recibo-venta-%d.pdf"`, saleID))
	return c.Send(pdfBytes)
}

// Inventory godoc
// @Summary      Cantidades disponibles agrupadas por producto
// @Tags         inventario
// @Produce      json
// @Success      200   {array}  dto.InventoryCount
// @Router       /api/inventario [get]
func (h *SaleHandler) Inventory(c *fiber.Ctx) error {
	counts, err := h.uc.Inventory(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
	return c.JSON(counts)
}
