package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/viba/viba-api/internal/application/auth"
	"github.com/viba/viba-api/internal/application/orders"
	"github.com/viba/viba-api/internal/application/sales"
	"github.com/viba/viba-api/internal/application/usecase"
	infrakafka "github.com/viba/viba-api/internal/infrastructure/kafka"
	infrapdf "github.com/viba/viba-api/internal/infrastructure/pdf"
	"github.com/viba/viba-api/internal/infrastructure/postgres"
	infraredis "github.com/viba/viba-api/internal/infrastructure/redis"
	httpRouter "github.com/viba/viba-api/internal/interfaces/http"
	"github.com/viba/viba-api/pkg/config"
	"github.com/viba/viba-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   "info",
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	// Guardián 2FA en Redis. Sin REDIS_ADDR la app arranca sin protección
	// de replay ni de fuerza bruta (guard nil).
	var guard auth.Guard
	if cfg.Redis.Addr != "" {
		client, err := infraredis.Connect(ctx, infraredis.Config{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		defer client.Close()
		guard = infraredis.NewTOTPGuard(client)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("guardián 2FA habilitado")
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: sin protección de replay 2FA ni contadores de intentos")
	}

	// Productor Kafka de eventos de dominio. Sin brokers los casos de uso
	// simplemente no publican.
	var salesPublisher sales.EventPublisher
	var ordersPublisher orders.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := infrakafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, 256,
			log.With().Str("componente", "kafka").Logger())
		producer.Start(ctx)
		defer producer.WaitClosed()
		salesPublisher = producer
		ordersPublisher = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("productor de eventos habilitado")
	}

	userRepo := postgres.NewUserRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	invRepo := postgres.NewInventoryRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	jwtCfg := auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		PreAuthMinutes: cfg.JWT.PreAuthMinutes,
		AuthMinutes:    cfg.JWT.AuthMinutes,
		Issuer:         cfg.JWT.Issuer,
	}
	authUC := auth.NewAuthUseCase(userRepo, guard, jwtCfg)
	saleUC := sales.NewSaleUseCase(txRunner, saleRepo, invRepo, salesPublisher)
	orderUC := orders.NewOrderUseCase(txRunner, orderRepo, userRepo, ordersPublisher)
	userUC := usecase.NewUserUseCase(userRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "ViBa API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:   authUC,
		SaleUC:   saleUC,
		OrderUC:  orderUC,
		UserUC:   userUC,
		Receipts: infrapdf.NewReceiptGenerator(),
		JWT:      jwtCfg,
		Cookie:   cfg.Cookie,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Cancelar el contexto drena el productor de eventos antes de salir.
	cancel()
	log.Info().Msg("aplicación detenida")
}
