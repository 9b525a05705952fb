package invoice

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/retry"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=invoice
type Repository interface {
	Get(ctx context.Context, accountID, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, accountID uuid.UUID) ([]*Invoice, error)
	ListUnpaid(ctx context.Context, accountID uuid.UUID) ([]*Invoice, error)
	Transactions(ctx context.Context, invoiceID uuid.UUID) ([]*transaction.Transaction, error)
	MarkPaid(ctx context.Context, accountID, id uuid.UUID, paidAt time.Time) error

	BeginGeneration(ctx context.Context, accountID uuid.UUID, period BillingPeriod) (GenerationTx, error)
}

// GenerationTx holds the account's billing lock until Commit or Rollback.
type GenerationTx interface {
	FindByPeriod(ctx context.Context) (*Invoice, error)
	ListBillable(ctx context.Context) ([]*transaction.Transaction, error)
	NextSequence(ctx context.Context) (int, error)
	Create(ctx context.Context, inv *Invoice) error
	Commit() error
	Rollback() error
}

// Recomputer refreshes the account's cached limit usage and credit state.
type Recomputer interface {
	Recompute(ctx context.Context, accountID uuid.UUID) error
}

type Options struct {
	DueDays  int
	Location *time.Location
	Retry    retry.Options
}

type Service struct {
	repo       Repository
	recomputer Recomputer
	opts       Options
	now        func() time.Time
}

func NewService(repo Repository, recomputer Recomputer, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}

	return &Service{repo: repo, recomputer: recomputer, opts: opts, now: time.Now}
}

// Generate bills every non-cancelled, unbilled purchase in period. Calling it again for
// the same period returns the invoice created the first time.
func (s *Service) Generate(ctx context.Context, accountID uuid.UUID, period BillingPeriod) (*Invoice, error) {
	var inv *Invoice

	err := retry.Do(ctx, "generate invoice", s.opts.Retry, func(ctx context.Context) error {
		var err error

		inv, err = s.generate(ctx, accountID, period)

		return err
	})
	if err != nil {
		return nil, err
	}

	return inv.AsOf(s.now()), nil
}

func (s *Service) generate(ctx context.Context, accountID uuid.UUID, period BillingPeriod) (*Invoice, error) {
	gtx, err := s.repo.BeginGeneration(ctx, accountID, period)
	if err != nil {
		return nil, err
	}
	defer gtx.Rollback()

	existing, err := gtx.FindByPeriod(ctx)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		return existing, nil
	}

	billable, err := gtx.ListBillable(ctx)
	if err != nil {
		return nil, err
	}

	if len(billable) == 0 {
		return nil, apperr.Invalid("period", "no billable transactions between %s and %s",
			period.Start.Format(time.DateOnly), period.End.Format(time.DateOnly))
	}

	inv := &Invoice{
		AccountID:      accountID,
		PeriodStart:    period.Start,
		PeriodEnd:      period.End,
		TotalAmount:    decimal.Zero,
		TotalLiters:    decimal.Zero,
		DueDate:        period.End.AddDate(0, 0, s.opts.DueDays),
		Status:         StatusOpen,
		TransactionIDs: make([]uuid.UUID, 0, len(billable)),
	}

	for _, tx := range billable {
		if err := tx.CheckIntegrity(); err != nil {
			return nil, err
		}

		inv.TotalAmount = inv.TotalAmount.Add(tx.TotalAmount)
		inv.TotalLiters = inv.TotalLiters.Add(tx.Liters)
		inv.TransactionIDs = append(inv.TransactionIDs, tx.ID)
	}

	seq, err := gtx.NextSequence(ctx)
	if err != nil {
		return nil, err
	}

	inv.Number = FormatNumber(period.Start.In(s.opts.Location).Year(), seq)

	if err := gtx.Create(ctx, inv); err != nil {
		return nil, err
	}

	if err := gtx.Commit(); err != nil {
		return nil, fmt.Errorf("committing invoice: %w", err)
	}

	slog.Info("invoice generated",
		"account_id", accountID,
		"invoice", inv.Number,
		"transactions", len(inv.TransactionIDs),
		"total", inv.TotalAmount.StringFixed(2))

	return inv, nil
}

func (s *Service) asOf(invoices []*Invoice) []*Invoice {
	now := s.now()

	views := make([]*Invoice, len(invoices))
	for i, inv := range invoices {
		views[i] = inv.AsOf(now)
	}

	return views
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]*Invoice, error) {
	invoices, err := s.repo.List(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return s.asOf(invoices), nil
}

// ListOpen returns the invoices still owed, overdue ones included.
func (s *Service) ListOpen(ctx context.Context, accountID uuid.UUID) ([]*Invoice, error) {
	invoices, err := s.repo.ListUnpaid(ctx, accountID)
	if err != nil {
		return nil, err
	}

	return s.asOf(invoices), nil
}

func (s *Service) Get(ctx context.Context, accountID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	return inv.AsOf(s.now()), nil
}

// Details loads the pinned purchases and checks them against the stored totals.
func (s *Service) Details(ctx context.Context, accountID, id uuid.UUID) (*Details, error) {
	var details *Details

	err := retry.Do(ctx, "invoice details", s.opts.Retry, func(ctx context.Context) error {
		inv, err := s.repo.Get(ctx, accountID, id)
		if err != nil {
			return err
		}

		txs, err := s.repo.Transactions(ctx, inv.ID)
		if err != nil {
			return err
		}

		if len(txs) != len(inv.TransactionIDs) {
			return apperr.Integrity("invoice %s pins %d transactions, found %d", inv.Number, len(inv.TransactionIDs), len(txs))
		}

		total, liters := decimal.Zero, decimal.Zero
		for _, tx := range txs {
			total = total.Add(tx.TotalAmount)
			liters = liters.Add(tx.Liters)
		}

		if !total.Equal(inv.TotalAmount) {
			return apperr.Integrity("invoice %s total %s does not match its transactions (%s)", inv.Number, inv.TotalAmount, total)
		}

		details = &Details{
			Invoice:          inv.AsOf(s.now()),
			Transactions:     txs,
			TransactionCount: len(txs),
			TotalLiters:      liters,
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return details, nil
}

// Pay settles an open or overdue invoice and frees its amount from the credit usage.
func (s *Service) Pay(ctx context.Context, accountID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.repo.Get(ctx, accountID, id)
	if err != nil {
		return nil, err
	}

	if inv.Status == StatusPaid {
		return nil, apperr.Conflict("pay invoice", ErrAlreadyPaid)
	}

	paidAt := s.now()
	if err := s.repo.MarkPaid(ctx, accountID, id, paidAt); err != nil {
		return nil, err
	}

	inv.Status = StatusPaid
	inv.PaidAt = &paidAt

	if err := s.recomputer.Recompute(ctx, accountID); err != nil {
		slog.Error("recomputing after payment", "account_id", accountID, "invoice", inv.Number, "error", err)
	}

	return inv.AsOf(paidAt), nil
}
