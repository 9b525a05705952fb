package invoice

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

var (
	ErrNotFound    = fmt.Errorf("invoice %w", apperr.ErrNotFound)
	ErrAlreadyPaid = errors.New("invoice is already paid")
)

// Status is open or paid when stored. Overdue is only ever derived, see EffectiveStatus.
type Status string

const (
	StatusOpen    Status = "open"
	StatusPaid    Status = "paid"
	StatusOverdue Status = "overdue"
)

// Invoice bills the purchases of a period. Its transaction set and totals are fixed at generation.
type Invoice struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	Number         string
	PeriodStart    time.Time
	PeriodEnd      time.Time
	TotalAmount    decimal.Decimal
	TotalLiters    decimal.Decimal
	DueDate        time.Time
	Status         Status
	PaidAt         *time.Time
	CreatedAt      time.Time
	TransactionIDs []uuid.UUID
}

// EffectiveStatus reports an open invoice past its due date as overdue.
func (i *Invoice) EffectiveStatus(now time.Time) Status {
	if i.Status == StatusOpen && i.DueDate.Before(now) {
		return StatusOverdue
	}

	return i.Status
}

// AsOf returns a copy carrying the status a reader sees at now. Every read path goes through it.
func (i *Invoice) AsOf(now time.Time) *Invoice {
	view := *i
	view.Status = i.EffectiveStatus(now)

	return &view
}

// Unpaid reports whether the invoice still counts as owed (open or overdue).
func (i *Invoice) Unpaid() bool {
	return i.Status != StatusPaid
}

// BillingPeriod is the half-open window [Start, End) an invoice draws purchases from.
type BillingPeriod struct {
	Start time.Time
	End   time.Time
}

func NewBillingPeriod(start, end time.Time) (BillingPeriod, error) {
	if !start.Before(end) {
		return BillingPeriod{}, apperr.Invalid("period_end", "must be after period_start")
	}

	return BillingPeriod{Start: start, End: end}, nil
}

// MonthPeriod is the calendar month containing t, in t's location.
func MonthPeriod(t time.Time) BillingPeriod {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return BillingPeriod{Start: start, End: start.AddDate(0, 1, 0)}
}

// PreviousMonth is the calendar month before the one containing now.
func PreviousMonth(now time.Time) BillingPeriod {
	current := MonthPeriod(now)
	return MonthPeriod(current.Start.AddDate(0, 0, -1))
}

// FormatNumber renders the per-account sequence as INV-YYYY-NNN.
func FormatNumber(year, seq int) string {
	return fmt.Sprintf("INV-%d-%03d", year, seq)
}

// Details is an invoice with its pinned purchases.
type Details struct {
	Invoice          *Invoice
	Transactions     []*transaction.Transaction
	TransactionCount int
	TotalLiters      decimal.Decimal
}
