package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Zhima-Mochi/vending-machine/internal/application"
	appaccount "github.com/Zhima-Mochi/vending-machine/internal/application/account"
	appcatalog "github.com/Zhima-Mochi/vending-machine/internal/application/catalog"
	apppurchase "github.com/Zhima-Mochi/vending-machine/internal/application/purchase"
	appsales "github.com/Zhima-Mochi/vending-machine/internal/application/sales"
	"github.com/Zhima-Mochi/vending-machine/internal/config"
	domacc "github.com/Zhima-Mochi/vending-machine/internal/domain/account"
	dominv "github.com/Zhima-Mochi/vending-machine/internal/domain/inventory"
	dompur "github.com/Zhima-Mochi/vending-machine/internal/domain/purchase"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/id"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/memory"
	infraobs "github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/outbox"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/vending-machine/internal/infrastructure/security"
	"github.com/Zhima-Mochi/vending-machine/internal/pkg/logging"
	httppresentation "github.com/Zhima-Mochi/vending-machine/internal/presentation/http"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	baseLogger := logging.MustNewLogger(logging.Options{
		Service: cfg.ServiceName,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		File:    cfg.LogFile,
	})
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	if err := run(cfg, baseLogger, systemLogger); err != nil {
		systemLogger.Error("service_exit", zap.Error(err))
		_ = baseLogger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, baseLogger, systemLogger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	counters, histograms := prometrics.Standard(prometrics.New(registry, "vending", ""))
	logger := zaplogger.New(baseLogger)
	tel := infraobs.New(oteltrace.New(cfg.ServiceName), logger, counters, histograms)

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = st.close() }()
	systemLogger.Info("store_ready", zap.String("store", cfg.Store))

	bus := outbox.NewBus(logger)
	appsales.NewWorker(bus, appsales.NewLedger(tel), tel).Start()
	bus.Start(ctx)

	hasher := security.NewPasswordHasher(cfg.BcryptCost)
	tokens := security.NewTokenIssuer(cfg.TokenPrefix)
	ids := id.NewUUIDGenerator()
	retry := application.RetryPolicy{MaxAttempts: cfg.SettleMaxAttempts, Backoff: cfg.SettleBackoff}

	uc := httppresentation.UseCases{
		Register:      appaccount.NewRegisterUseCase(st.accounts, st.sessions, hasher, tokens, ids, tel),
		Login:         appaccount.NewLoginUseCase(st.accounts, st.sessions, hasher, tokens, tel),
		Logout:        appaccount.NewLogoutUseCase(st.sessions, tel),
		GetAccount:    appaccount.NewGetUseCase(st.accounts, tel),
		UpdateAccount: appaccount.NewUpdateUseCase(st.accounts, hasher, retry, tel),
		DeleteAccount: appaccount.NewDeleteUseCase(st.accounts, st.sessions, tel),
		Deposit:       appaccount.NewDepositUseCase(st.accounts, bus, retry, cfg.PublishTimeout, tel),
		ResetDeposit:  appaccount.NewResetDepositUseCase(st.accounts, retry, tel),
		CreateProduct: appcatalog.NewCreateUseCase(st.products, ids, tel),
		UpdateProduct: appcatalog.NewUpdateUseCase(st.products, retry, tel),
		DeleteProduct: appcatalog.NewDeleteUseCase(st.products, tel),
		GetProduct:    appcatalog.NewGetUseCase(st.products, tel),
		ListProducts:  appcatalog.NewListUseCase(st.products, tel),
		Buy:           apppurchase.NewBuyUseCase(st.products, st.accounts, st.settler, bus, retry, cfg.PublishTimeout, tel),
	}
	auth := appaccount.NewAuthenticator(st.accounts, st.sessions, security.HashToken)
	metrics := promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	handler := httppresentation.NewHandler(uc, auth, metrics, logger, tel)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: handler.Router(),
	}

	serveErr := make(chan error, 1)
	go func() {
		systemLogger.Info("http_server_start", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error", zap.Error(err))
	} else {
		systemLogger.Info("http_server_stopped")
	}
	bus.Stop(shutdownCtx)
	return nil
}

type stores struct {
	accounts domacc.Repository
	sessions domacc.SessionRepository
	products dominv.Repository
	settler  dompur.Settler
	close    func() error
}

func openStores(ctx context.Context, cfg config.Config) (stores, error) {
	switch cfg.Store {
	case config.StorePostgres:
		openCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
		defer cancel()
		db, err := postgres.Open(openCtx, cfg.DatabaseDSN)
		if err != nil {
			return stores{}, err
		}
		if err := postgres.EnsureSchema(openCtx, db); err != nil {
			_ = db.Close()
			return stores{}, err
		}
		return postgresStores(db), nil
	default:
		s := memory.NewStore()
		return stores{
			accounts: s.Accounts(),
			sessions: s.Sessions(),
			products: s.Products(),
			settler:  s,
			close:    func() error { return nil },
		}, nil
	}
}

func postgresStores(db *sql.DB) stores {
	return stores{
		accounts: postgres.NewAccountRepository(db),
		sessions: postgres.NewSessionRepository(db),
		products: postgres.NewInventoryRepository(db),
		settler:  postgres.NewSettler(db),
		close:    db.Close,
	}
}
