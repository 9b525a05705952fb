// Command seed creates a demo account with vehicles, limits and two months of purchases.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/account"
	accountStore "github.com/MrJamesThe3rd/fleetspend/internal/account/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/auth"
	"github.com/MrJamesThe3rd/fleetspend/internal/config"
	"github.com/MrJamesThe3rd/fleetspend/internal/database"
	"github.com/MrJamesThe3rd/fleetspend/internal/governance"
	governanceStore "github.com/MrJamesThe3rd/fleetspend/internal/governance/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
	invoiceStore "github.com/MrJamesThe3rd/fleetspend/internal/invoice/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/limit"
	limitStore "github.com/MrJamesThe3rd/fleetspend/internal/limit/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/retry"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
	txStore "github.com/MrJamesThe3rd/fleetspend/internal/transaction/store"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
	vehicleStore "github.com/MrJamesThe3rd/fleetspend/internal/vehicle/store"
)

type seedConfig struct {
	CNPJ        string          `envconfig:"SEED_CNPJ" default:"12.345.678/0001-90"`
	Company     string          `envconfig:"SEED_COMPANY" default:"Transportadora Demo Ltda"`
	Email       string          `envconfig:"SEED_EMAIL" default:"frota@demo.com.br"`
	Password    string          `envconfig:"SEED_PASSWORD" default:"demo123"`
	CreditLimit decimal.Decimal `envconfig:"SEED_CREDIT_LIMIT" default:"50000"`
}

type demoVehicle struct {
	plate, model, fuel string
	year               int
	driver             string
	liters             float64
}

var demoVehicles = []demoVehicle{
	{plate: "ABC1D23", model: "Volvo FH 540", fuel: "diesel", year: 2021, driver: "Carlos Souza", liters: 180},
	{plate: "DEF4G56", model: "Scania R450", fuel: "diesel", year: 2020, driver: "Marcos Lima", liters: 150},
	{plate: "GHI7J89", model: "Fiat Strada", fuel: "gasoline", year: 2023, driver: "Ana Ribeiro", liters: 40},
	{plate: "JKL0M12", model: "VW Saveiro", fuel: "ethanol", year: 2022, driver: "Paulo Mendes", liters: 45},
}

var stations = []struct{ id, name string }{
	{id: "12.345.678/0001-01", name: "Posto Shell BR-116"},
	{id: "23.456.789/0001-02", name: "Posto Ipiranga Marginal"},
	{id: "34.567.890/0001-03", name: "Auto Posto Petrobras Centro"},
}

var prices = map[string]string{
	"diesel":   "6.09",
	"gasoline": "5.89",
	"ethanol":  "4.19",
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	var seed seedConfig
	if err := envconfig.Process("", &seed); err != nil {
		slog.Error("failed to process seed config", "error", err)
		os.Exit(1)
	}

	if err := run(context.Background(), cfg, seed); err != nil {
		slog.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, seed seedConfig) error {
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

	retryOpts := retry.Options{MaxAttempts: cfg.Retry.MaxAttempts, InitialDelay: cfg.Retry.InitialDelay}
	engine := governance.NewEngine(governanceStore.New(db), loc, retryOpts)

	var (
		accountService = account.NewService(accountStore.New(db), auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
		vehicleService = vehicle.NewService(vehicleStore.New(db), engine)
		txService      = transaction.NewService(txStore.New(db), vehicleService, engine)
		limitService   = limit.NewService(limitStore.New(db), vehicleService, engine, loc)
		invoiceService = invoice.NewService(invoiceStore.New(db), engine, invoice.Options{
			DueDays:  cfg.Billing.DueDays,
			Location: loc,
			Retry:    retryOpts,
		})
	)

	acct, err := accountService.Register(ctx, account.RegisterParams{
		CNPJ:        seed.CNPJ,
		CompanyName: seed.Company,
		Email:       seed.Email,
		Password:    seed.Password,
		CreditLimit: seed.CreditLimit,
	})
	if err != nil {
		if apperr.IsConflict(err) {
			slog.Info("demo account already exists, nothing to do", "cnpj", seed.CNPJ)
			return nil
		}

		return fmt.Errorf("registering account: %w", err)
	}

	slog.Info("created account", "id", acct.ID, "cnpj", acct.CNPJ)

	vehicles := make([]*vehicle.Vehicle, 0, len(demoVehicles))

	for _, dv := range demoVehicles {
		v, err := vehicleService.Create(ctx, acct.ID, vehicle.CreateParams{
			LicensePlate: dv.plate,
			Model:        dv.model,
			Year:         dv.year,
			FuelType:     dv.fuel,
			DriverName:   new(dv.driver),
		})
		if err != nil {
			return fmt.Errorf("creating vehicle %s: %w", dv.plate, err)
		}

		vehicles = append(vehicles, v)
	}

	if err := seedLimits(ctx, limitService, acct.ID, vehicles); err != nil {
		return err
	}

	now := time.Now().In(loc)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, -1, 0)

	params := purchases(start, now, vehicles)
	if _, err := txService.CreateBatch(ctx, acct.ID, params); err != nil {
		return fmt.Errorf("creating purchases: %w", err)
	}

	slog.Info("created purchases", "count", len(params))

	inv, err := invoiceService.Generate(ctx, acct.ID, invoice.PreviousMonth(now))
	if err != nil && !apperr.IsValidation(err) {
		return fmt.Errorf("billing previous month: %w", err)
	}

	if inv != nil {
		slog.Info("billed previous month", "invoice", inv.Number, "total", inv.TotalAmount.StringFixed(2))
	}

	return nil
}

func seedLimits(ctx context.Context, svc *limit.Service, accountID uuid.UUID, vehicles []*vehicle.Vehicle) error {
	params := []limit.Params{
		{Period: string(limit.Monthly), Unit: string(limit.Currency), Value: decimal.NewFromInt(30000)},
		{Period: string(limit.Weekly), Unit: string(limit.Liters), Value: decimal.NewFromInt(1500), FuelType: new("diesel")},
		{Period: string(limit.Daily), Unit: string(limit.Currency), Value: decimal.NewFromInt(400), VehicleID: new(vehicles[2].ID)},
	}

	for _, p := range params {
		if _, err := svc.Create(ctx, accountID, p); err != nil {
			return fmt.Errorf("creating %s limit: %w", p.Period, err)
		}
	}

	return nil
}

// purchases spreads one refuel per vehicle every few days between start and end.
func purchases(start, end time.Time, vehicles []*vehicle.Vehicle) []transaction.CreateParams {
	var params []transaction.CreateParams

	for day, i := start.Add(7*time.Hour), 0; day.Before(end); day, i = day.AddDate(0, 0, 1), i+1 {
		for j, v := range vehicles {
			if (i+j)%3 != 0 {
				continue
			}

			dv := demoVehicles[j]
			st := stations[(i+j)%len(stations)]
			liters := decimal.NewFromFloat(dv.liters).Sub(decimal.NewFromInt(int64((i * 7) % 25)))

			params = append(params, transaction.CreateParams{
				VehicleID:     new(v.ID),
				Liters:        liters,
				PricePerLiter: decimal.RequireFromString(prices[dv.fuel]),
				StationID:     st.id,
				StationName:   st.name,
				Date:          day.Add(time.Duration(j*47) * time.Minute),
			})
		}
	}

	return params
}
