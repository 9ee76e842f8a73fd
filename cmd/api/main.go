// cmd/api/main.go
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront/internal/config"
	"github.com/your-org/storefront/internal/domain/cart"
	"github.com/your-org/storefront/internal/domain/catalog"
	"github.com/your-org/storefront/internal/domain/checkout"
	"github.com/your-org/storefront/internal/domain/shipping"
	"github.com/your-org/storefront/internal/infrastructure/database/postgres"
	"github.com/your-org/storefront/internal/infrastructure/database/redis"
	"github.com/your-org/storefront/internal/infrastructure/external/carrier"
	"github.com/your-org/storefront/internal/infrastructure/external/cms"
	"github.com/your-org/storefront/internal/infrastructure/external/stripe"
	"github.com/your-org/storefront/internal/interfaces/http"
	"github.com/your-org/storefront/internal/interfaces/http/handlers"
	"github.com/your-org/storefront/internal/interfaces/http/routes"
	"github.com/your-org/storefront/internal/pkg/logger"
)

func main() {
	// Prices are JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}

	appLogger.WithFields(logrus.Fields{
		"app":         cfg.App.Name,
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	}).Info("starting")

	db, err := postgres.NewConnection(cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("failed to connect to database")
	}
	defer db.Close()

	redisClient, err := redis.NewConnection(cfg, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("failed to connect to Redis")
	}
	defer redisClient.Close()

	migration := postgres.NewMigration(db.GetDB(), appLogger)
	if err := migration.RunAutoMigrations(); err != nil {
		appLogger.WithError(err).Fatal("database migration failed")
	}
	if err := migration.CreateIndexes(); err != nil {
		appLogger.WithError(err).Warn("index creation failed")
	}
	if cfg.IsDevelopment() {
		if err := migration.SeedInitialData(); err != nil {
			appLogger.WithError(err).Warn("data seeding failed")
		}
	}

	rdb := redisClient.GetClient()

	// Catalog and CMS
	productRepo := catalog.NewCachedRepository(catalog.NewGormRepository(db.GetDB()), rdb, cfg.Checkout.CatalogCacheTTL, appLogger)
	documents := cms.NewCachedSource(cms.NewClient(cfg), rdb, cfg.External.CMS.CacheTTL, appLogger)
	resolver := catalog.NewResolver(productRepo, documents, cfg.External.CMS.DefaultLocale, cfg.Checkout.ResolveConcurrency, appLogger)

	// Cart and shipping
	cartService := cart.NewService(cart.NewRedisPersister(rdb, cfg.Checkout.CartTTL), appLogger)
	shippingService := shipping.NewService(
		carrier.NewClient(cfg, appLogger),
		shipping.NewRedisQuoteCache(rdb, cfg.Checkout.QuoteTTL),
		shipping.OriginFromConfig(cfg),
		cfg.Shop.Currency,
		appLogger,
	)

	// Payments
	paymentGateway := stripe.NewGateway(cfg, appLogger)
	checkoutService := checkout.NewService(paymentGateway, resolver, cfg.Checkout.RepriceFromCatalog, appLogger).
		WithMaxAmount(cfg.Checkout.MaxAmountMinor)
	confirmer := checkout.NewConfirmer(paymentGateway, checkout.NewRedisLedger(rdb, cfg.Checkout.ConfirmationTTL), cartService, appLogger)

	server := http.NewServer(cfg, appLogger, rdb, routes.Handlers{
		Cart:     handlers.NewCartHandler(cartService, resolver, shippingService, cfg, appLogger),
		Checkout: handlers.NewCheckoutHandler(checkoutService, confirmer, cfg, appLogger),
		Shipping: handlers.NewShippingHandler(shippingService, cfg, appLogger),
		Product:  handlers.NewProductHandler(resolver, appLogger),
	}, map[string]http.HealthChecker{
		"database": db,
		"redis":    redisClient,
	})

	go func() {
		if err := server.Start(); err != nil {
			appLogger.WithError(err).Fatal("failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(ctx); err != nil {
		appLogger.WithError(err).Error("failed to shutdown HTTP server gracefully")
	}
}
