package stats

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/invoice"
	"github.com/MrJamesThe3rd/fleetspend/internal/retry"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
	"github.com/MrJamesThe3rd/fleetspend/internal/vehicle"
)

//go:generate mockgen -source=service.go -destination=sources_mock.go -package=stats
type Ledger interface {
	List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error)
}

type Invoices interface {
	ListOpen(ctx context.Context, accountID uuid.UUID) ([]*invoice.Invoice, error)
}

type Vehicles interface {
	List(ctx context.Context, accountID uuid.UUID) ([]*vehicle.Vehicle, error)
}

type Service struct {
	ledger   Ledger
	invoices Invoices
	vehicles Vehicles
	loc      *time.Location
	retry    retry.Options
	now      func() time.Time
}

func NewService(ledger Ledger, invoices Invoices, vehicles Vehicles, loc *time.Location, opts retry.Options) *Service {
	return &Service{ledger: ledger, invoices: invoices, vehicles: vehicles, loc: loc, retry: opts, now: time.Now}
}

// Compute builds the rollup for the spec's window. The three sources are read in parallel.
func (s *Service) Compute(ctx context.Context, accountID uuid.UUID, spec Spec) (*Stats, error) {
	now := s.now().In(s.loc)

	start, end, err := spec.Window(now)
	if err != nil {
		return nil, err
	}

	var out *Stats

	err = retry.Do(ctx, "compute stats", s.retry, func(ctx context.Context) error {
		var cerr error

		out, cerr = s.compute(ctx, accountID, start, end, now)

		return cerr
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

func (s *Service) compute(ctx context.Context, accountID uuid.UUID, start, end, now time.Time) (*Stats, error) {
	var (
		txs      []*transaction.Transaction
		open     []*invoice.Invoice
		vehicles []*vehicle.Vehicle
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error

		txs, err = s.ledger.List(gctx, transaction.ListFilter{
			AccountID:        accountID,
			StartDate:        &start,
			EndDate:          &end,
			ExcludeCancelled: true,
		})

		return err
	})

	g.Go(func() error {
		var err error

		open, err = s.invoices.ListOpen(gctx, accountID)

		return err
	})

	g.Go(func() error {
		var err error

		vehicles, err = s.vehicles.List(gctx, accountID)

		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	st := &Stats{
		VehiclesCount:     len(vehicles),
		PeriodTotalLiters: decimal.Zero,
		PeriodTotalAmount: decimal.Zero,
		TotalOpenAmount:   decimal.Zero,
		FuelBreakdown:     make(map[fuel.Type]FuelTotals),
		StartDate:         start,
		EndDate:           end,
	}

	for i, tx := range txs {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		if !tx.Counts() {
			continue
		}

		if err := tx.CheckIntegrity(); err != nil {
			return nil, err
		}

		st.TotalTransactions++
		st.PeriodTotalLiters = st.PeriodTotalLiters.Add(tx.Liters)
		st.PeriodTotalAmount = st.PeriodTotalAmount.Add(tx.TotalAmount)

		ft := st.FuelBreakdown[tx.FuelType]
		st.FuelBreakdown[tx.FuelType] = FuelTotals{
			Liters: ft.Liters.Add(tx.Liters),
			Amount: ft.Amount.Add(tx.TotalAmount),
		}

		if len(st.RecentTransactions) < RecentLimit {
			st.RecentTransactions = append(st.RecentTransactions, tx)
		}
	}

	for _, inv := range open {
		st.OpenInvoicesCount++
		st.TotalOpenAmount = st.TotalOpenAmount.Add(inv.TotalAmount)

		if inv.EffectiveStatus(now) == invoice.StatusOverdue {
			st.OverdueInvoicesCount++
		}
	}

	return st, nil
}
