package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/fleetspend/internal/account"
	accountStore "github.com/MrJamesThe3rd/fleetspend/internal/account/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/auth"
	"github.com/MrJamesThe3rd/fleetspend/internal/config"
	"github.com/MrJamesThe3rd/fleetspend/internal/credit"
	creditStore "github.com/MrJamesThe3rd/fleetspend/internal/credit/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/database"
	"github.com/MrJamesThe3rd/fleetspend/internal/export"
	"github.com/MrJamesThe3rd/fleetspend/internal/governance"
	governanceStore "github.com/MrJamesThe3rd/fleetspend/internal/governance/store"
	fleetHttp "github.com/MrJamesThe3rd/fleetspend/internal/http"
	authHandler "github.com/MrJamesThe3rd/fleetspend/internal/http/auth"
	creditHandler "github.com/MrJamesThe3rd/fleetspend/internal/http/credit"
	importHandler "github.com/MrJamesThe3rd/fleetspend/internal/http/importcsv"
	invoiceHandler "github.com/MrJamesThe3rd/fleetspend/internal/http/invoice"
	limitHandler "github.com/MrJamesThe3rd/fleetspend/internal/http/limit"
	matchingHandler "github.com/MrJamesThe3rd/fleetspend/internal/http/matching"
	statsHandler "github.com/MrJamesThe3rd/fleetspend/internal/http/stats"
	txHandler "github.com/MrJamesThe3rd/fleetspend/internal/http/transaction"
	vehicleHandler "github.com/MrJamesThe3rd/fleetspend/internal/http/vehicle"
	"github.com/MrJamesThe3rd/fleetspend/internal/importer"
	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/fleetspend/internal/invoice/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/limit"
	limitStore "github.com/MrJamesThe3rd/fleetspend/internal/limit/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/fleetspend/internal/matching/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/retry"
	"github.com/MrJamesThe3rd/fleetspend/internal/stats"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
	txStore "github.com/MrJamesThe3rd/fleetspend/internal/transaction/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
	vehicleStore "github.com/MrJamesThe3rd/fleetspend/internal/vehicle/store"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.New(cfg.ConnectionString(), cfg.DB.MaxConns)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	retryOpts := retry.Options{
		MaxAttempts:  cfg.Retry.MaxAttempts,
		InitialDelay: cfg.Retry.InitialDelay,
	}

	issuer := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	engine := governance.NewEngine(governanceStore.New(db), loc, retryOpts)

	var (
		accountService  = account.NewService(accountStore.New(db), issuer)
		vehicleService  = vehicle.NewService(vehicleStore.New(db), engine)
		txService       = transaction.NewService(txStore.New(db), vehicleService, engine)
		limitService    = limit.NewService(limitStore.New(db), vehicleService, engine, loc)
		creditService   = credit.NewService(creditStore.New(db))
		matchingService = matching.NewService(matchingStore.New(db))
		importService   = importer.NewService(loc)
		invoiceService  = invoice.NewService(invoiceStore.New(db), engine, invoice.Options{
			DueDays:  cfg.Billing.DueDays,
			Location: loc,
			Retry:    retryOpts,
		})
		statsService  = stats.NewService(txService, invoiceService, vehicleService, loc, retryOpts)
		exportService = export.NewService(invoiceService, loc)
	)

	router := fleetHttp.New(issuer, fleetHttp.Options{
		CORSOrigins: cfg.Server.CORSOrigins,
		Timeout:     cfg.Server.Timeout,
	}, fleetHttp.Handlers{
		Auth:         authHandler.NewHandler(accountService),
		Credit:       creditHandler.NewHandler(creditService),
		Limits:       limitHandler.NewHandler(limitService),
		Stats:        statsHandler.NewHandler(statsService, loc),
		Invoices:     invoiceHandler.NewHandler(invoiceService, exportService, loc),
		Transactions: txHandler.NewHandler(txService, loc),
		Import:       importHandler.NewHandler(importService, txService, matchingService),
		Vehicles:     vehicleHandler.NewHandler(vehicleService),
		Aliases:      matchingHandler.NewHandler(matchingService),
	})

	if cfg.Billing.Enabled {
		go invoice.NewScheduler(accountService, invoiceService, cfg.Billing.Interval, loc).Run(ctx)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		slog.Info("starting server", "app", cfg.App.Name, "port", cfg.App.Port, "timezone", loc.String())

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

	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
