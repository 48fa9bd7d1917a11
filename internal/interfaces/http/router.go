package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/viba/viba-api/internal/application/auth"
	"github.com/viba/viba-api/internal/application/orders"
	"github.com/viba/viba-api/internal/application/sales"
	"github.com/viba/viba-api/internal/application/usecase"
	"github.com/viba/viba-api/internal/domain/entity"
	"github.com/viba/viba-api/pkg/config"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC   *auth.AuthUseCase
	SaleUC   *sales.SaleUseCase
	OrderUC  *orders.OrderUseCase
	UserUC   *usecase.UserUseCase
	Receipts ReceiptGenerator
	JWT      auth.JWTConfig
	Cookie   config.CookieConfig
}

// Router registra las rutas de la API. Tres niveles de acceso: público
// (login, check-auth), pre-2fa (enrolamiento/verificación del segundo
// factor) y full-auth (recursos de negocio).
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authHandler := NewAuthHandler(deps.AuthUC, deps.Cookie, deps.JWT)
	api.Post("/login", authHandler.Login)
	api.Post("/logout", authHandler.Logout)
	api.Get("/check-auth", authHandler.CheckAuth)

	// 2FA (requiere cookie PreAuth de etapa pre-2fa)
	twofaHandler := NewTwoFAHandler(deps.AuthUC, deps.Cookie, deps.JWT)
	twofa := api.Group("/auth/2fa")
	twofa.Post("/generate", PreAuthMiddleware(deps.JWT.Secret), twofaHandler.Generate)
	twofa.Post("/verify", PreAuthMiddleware(deps.JWT.Secret), twofaHandler.Verify)
	twofa.Post("/status", PreAuthMiddleware(deps.JWT.Secret), twofaHandler.Status)
	// Reset desenrola a un tercero: exige sesión completa de un rol administrativo.
	twofa.Post("/reset",
		AuthMiddleware(deps.JWT.Secret),
		RequireRole(entity.RoleAdmin, entity.RoleDeveloper),
		twofaHandler.Reset,
	)

	// Rutas protegidas (requieren cookie Auth de etapa full-auth)
	protected := api.Group("/", AuthMiddleware(deps.JWT.Secret))

	// Ventas e inventario
	saleHandler := NewSaleHandler(deps.SaleUC, deps.Receipts)
	protected.Post("/vender", saleHandler.Sell)
	protected.Get("/ventas", saleHandler.List)
	protected.Put("/ventas/:id", saleHandler.Update)
	protected.Delete("/ventas/:id", saleHandler.Delete)
	protected.Get("/ventas/:id/recibo", saleHandler.Receipt)
	protected.Get("/inventario", saleHandler.Inventory)

	// Órdenes de compra
	orderHandler := NewOrderHandler(deps.OrderUC)
	protected.Post("/nuevaorden", orderHandler.Create)
	protected.Post("/completarorden/:id", orderHandler.Complete)
	protected.Get("/ordenes", orderHandler.List)
	protected.Put("/ordenes/:id", orderHandler.Update)
	protected.Delete("/ordenes/:id", orderHandler.Delete)

	// Usuarios (solo roles administrativos)
	userHandler := NewUserHandler(deps.UserUC)
	usuarios := protected.Group("/usuarios", RequireRole(entity.RoleAdmin, entity.RoleDeveloper, entity.RoleOwner))
	usuarios.Post("/", userHandler.Create)
	usuarios.Get("/", userHandler.List)
	usuarios.Get("/:id", userHandler.GetByID)
	usuarios.Put("/:id", userHandler.Update)
	usuarios.Delete("/:id", userHandler.Delete)
}
