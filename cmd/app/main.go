package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/ecofinds-backend/internal/auth"
	"github.com/wichananm65/ecofinds-backend/internal/cart"
	"github.com/wichananm65/ecofinds-backend/internal/category"
	"github.com/wichananm65/ecofinds-backend/internal/checkout"
	"github.com/wichananm65/ecofinds-backend/internal/config"
	"github.com/wichananm65/ecofinds-backend/internal/database"
	"github.com/wichananm65/ecofinds-backend/internal/events"
	"github.com/wichananm65/ecofinds-backend/internal/logger"
	"github.com/wichananm65/ecofinds-backend/internal/metrics"
	"github.com/wichananm65/ecofinds-backend/internal/order"
	"github.com/wichananm65/ecofinds-backend/internal/product"
	"github.com/wichananm65/ecofinds-backend/internal/user"
)

type repositories struct {
	products  product.Repository
	carts     cart.Repository
	orders    order.Repository
	purchases user.Repository
	profiles  user.ProfileRepository
	tx        checkout.TxRunner
	close     func() error
}

func main() {
	cfg := config.Load()
	log := logger.New(logger.Options{Service: "ecofinds-backend", Env: cfg.AppEnv, Level: cfg.LogLevel})

	// money goes over the wire as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is not set")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Error("open storage", "error", err)
		os.Exit(1)
	}
	defer repos.close()

	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		log.Info("publishing order events", "brokers", cfg.KafkaBrokers, "topic", cfg.OrderEventsTopic)
	}
	defer publisher.Close()

	productService := product.NewService(repos.products)
	orderService := order.NewService(repos.orders)
	cartService := cart.NewService(repos.carts, productService)
	userService := user.NewService(repos.purchases, repos.profiles, orderService, productService)
	checkoutService := checkout.NewService(checkout.Stores{
		Carts:     repos.carts,
		Products:  repos.products,
		Orders:    repos.orders,
		Purchases: repos.purchases,
	}, checkout.Options{
		Tx:              repos.tx,
		Publisher:       publisher,
		Metrics:         metrics.NewCheckout(prometheus.DefaultRegisterer),
		Logger:          log.With("component", "checkout"),
		PurchaseRetries: cfg.PurchaseRetries,
	})

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.Middleware(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + checkout.IdempotencyKeyHeader,
	}))

	app.Get("/api/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	productHandler := product.NewHandler(productService, cfg.AllowResetProducts)
	category.NewHandler().RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)

	app.Use(auth.Middleware(cfg.JWTSecret))

	productHandler.RegisterProtectedRoutes(app)
	cart.NewHandler(cartService).RegisterProtectedRoutes(app)
	checkout.NewHandler(checkoutService, cfg.CheckoutTimeout).RegisterProtectedRoutes(app)
	order.NewHandler(orderService).RegisterProtectedRoutes(app)
	user.NewHandler(userService).RegisterProtectedRoutes(app)

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("shutdown", "error", err)
		}
	}()

	log.Info("starting server", "addr", cfg.Addr)
	if err := app.Listen(cfg.Addr); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

// openRepositories uses Postgres when DATABASE_URL is set and falls back to
// seeded in-memory stores otherwise.
func openRepositories(ctx context.Context, cfg config.Config, log *slog.Logger) (repositories, error) {
	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL is not set, using in-memory storage")
		products := product.NewInMemoryRepository(nil)
		if err := products.Reset(ctx, product.SampleProducts()); err != nil {
			return repositories{}, err
		}
		return repositories{
			products:  products,
			carts:     cart.NewInMemoryRepository(nil),
			orders:    order.NewInMemoryRepository(),
			purchases: user.NewInMemoryRepository(),
			profiles:  user.NewInMemoryProfileRepository(nil),
			close:     func() error { return nil },
		}, nil
	}

	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return repositories{}, err
	}
	if err := database.EnsureSchema(ctx, db); err != nil {
		db.Close()
		return repositories{}, err
	}
	return repositories{
		products:  product.NewPostgresRepository(db),
		carts:     cart.NewPostgresRepository(db),
		orders:    order.NewPostgresRepository(db),
		purchases: user.NewPostgresRepository(db),
		profiles:  user.NewPostgresProfileRepository(db),
		tx:        checkout.NewSQLTxRunner(db),
		close:     db.Close,
	}, nil
}
