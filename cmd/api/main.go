package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/georgemunganga/wms-backend/internal/config"
	"github.com/georgemunganga/wms-backend/internal/database"
	"github.com/georgemunganga/wms-backend/internal/httpx"
	"github.com/georgemunganga/wms-backend/internal/i18n"
	"github.com/georgemunganga/wms-backend/internal/logger"
	"github.com/georgemunganga/wms-backend/internal/metrics"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/auth"
	"github.com/georgemunganga/wms-backend/internal/modules/inbound"
	"github.com/georgemunganga/wms-backend/internal/modules/outbound"
	"github.com/georgemunganga/wms-backend/internal/modules/picking"
	"github.com/georgemunganga/wms-backend/internal/modules/product"
	"github.com/georgemunganga/wms-backend/internal/modules/reports"
	"github.com/georgemunganga/wms-backend/internal/modules/returns"
	"github.com/georgemunganga/wms-backend/internal/modules/shipping"
	"github.com/georgemunganga/wms-backend/internal/modules/stock"
	"github.com/georgemunganga/wms-backend/internal/modules/user"
	"github.com/georgemunganga/wms-backend/internal/modules/warehouse"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	zl, err := logger.Init(logger.LogConfig{
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Environment,
		ServiceName: cfg.App.ServiceName,
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpx.ShowDetails = !cfg.IsProduction()
	decimal.MarshalJSONWithoutQuotes = true

	translator, err := i18n.New(cfg.App.DefaultLocale)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.Database, zl)
	if err != nil {
		return err
	}
	defer db.Close()
	zl.Info("connected to database")

	applied, err := database.Migrate(ctx, db, zl)
	if err != nil {
		return err
	}
	zl.Info("migrations applied", zap.Int("count", applied))

	metrics.Register(prometheus.DefaultRegisterer)

	if cfg.Auth.JWTSecret == "" {
		zl.Warn("JWT_SECRET is empty, tokens are signed with an empty key")
	}
	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// ── Router ──────────────────────────────────────────────
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.Middleware(zl))
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(translator.Middleware)
	router.Use(auth.Middleware(issuer, cfg.Auth.Required))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			httpx.Error(w, r, err)
			return
		}
		httpx.OK(w, map[string]string{"status": "ok"})
	})
	router.Handle("/metrics", metrics.Handler())

	auditRepo := audit.NewPostgresRepository(db)

	// ── Master data ─────────────────────────────────────────
	productService := product.NewService(product.NewPostgresRepository(db))
	product.NewHandler(productService).RegisterRoutes(router)

	warehouseService := warehouse.NewService(warehouse.NewPostgresRepository(db))
	warehouse.NewHandler(warehouseService).RegisterRoutes(router)

	// ── Stock ledger ────────────────────────────────────────
	stockService := stock.NewService(stock.NewPostgresRepository(db), auditRepo, cfg.Stock.ReservationTTL, zl.Named("stock"))
	stock.NewHandler(stockService).RegisterRoutes(router)

	// ── Inbound / outbound ──────────────────────────────────
	inboundService := inbound.NewService(inbound.NewPostgresRepository(db), zl.Named("inbound"))
	inbound.NewHandler(inboundService).RegisterRoutes(router)

	outboundService := outbound.NewService(outbound.NewPostgresRepository(db), zl.Named("outbound"))
	outbound.NewHandler(outboundService).RegisterRoutes(router)

	// ── Fulfilment ──────────────────────────────────────────
	pickingService := picking.NewService(picking.NewPostgresRepository(db), zl.Named("picking"))
	picking.NewHandler(pickingService).RegisterRoutes(router)

	shippingService := shipping.NewService(shipping.NewPostgresRepository(db), zl.Named("shipping"))
	shipping.NewHandler(shippingService).RegisterRoutes(router)

	returnsService := returns.NewService(returns.NewPostgresRepository(db), zl.Named("returns"))
	returns.NewHandler(returnsService).RegisterRoutes(router)

	// ── Reporting ───────────────────────────────────────────
	reportsService := reports.NewService(reports.NewPostgresRepository(db), cfg.Location(), zl.Named("reports"))
	reports.NewHandler(reportsService).RegisterRoutes(router)

	// ── Identity ────────────────────────────────────────────
	userService := user.NewService(auditRepo, zl.Named("user"))
	user.NewHandler(userService).RegisterRoutes(router)

	authService := auth.NewService(issuer, auditRepo, zl.Named("auth"))
	auth.NewHandler(authService).RegisterRoutes(router)

	// ── Start Server ─────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  cfg.App.ReadTimeout,
		WriteTimeout: cfg.App.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("WMS API server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
