package limit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

var ErrNotFound = fmt.Errorf("limit %w", apperr.ErrNotFound)

// Period is the window a limit resets on.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(s); p {
	case Daily, Weekly, Monthly:
		return p, nil
	}

	return "", apperr.Invalid("limit_type", "unknown limit type %q", s)
}

// Unit selects what a limit sums: money spent or liters pumped.
type Unit string

const (
	Currency Unit = "currency"
	Liters   Unit = "liters"
)

func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case Currency, Liters:
		return u, nil
	}

	return "", apperr.Invalid("limit_unit", "unknown limit unit %q", s)
}

// Limit caps spend or volume for a scope. A nil VehicleID or FuelType means "all".
type Limit struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	VehicleID    *uuid.UUID
	FuelType     *fuel.Type
	Period       Period
	Unit         Unit
	Value        decimal.Decimal
	CurrentUsage decimal.Decimal
	PeriodStart  time.Time
	ResetDate    time.Time
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// WindowFor returns the period containing now: the start of the day, the ISO week
// (Monday) or the calendar month, and the start of the next one. Both are in now's location.
func WindowFor(p Period, now time.Time) (time.Time, time.Time) {
	y, m, d := now.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	switch p {
	case Weekly:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)

		return start, start.AddDate(0, 0, 7)
	case Monthly:
		start := time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
		return start, start.AddDate(0, 1, 0)
	default:
		return day, day.AddDate(0, 0, 1)
	}
}

// Matches reports whether tx falls in the limit's scope, ignoring the window.
func (l *Limit) Matches(tx *transaction.Transaction) bool {
	if !tx.Counts() {
		return false
	}

	if l.VehicleID != nil && tx.VehicleID != *l.VehicleID {
		return false
	}

	if l.FuelType != nil && tx.FuelType != *l.FuelType {
		return false
	}

	return true
}

func (l *Limit) measure(tx *transaction.Transaction) decimal.Decimal {
	if l.Unit == Liters {
		return tx.Liters
	}

	return tx.TotalAmount
}

// Percentages returns the display percentage (capped at 100) and the raw ratio.
func (l *Limit) Percentages() (float64, float64) {
	raw := money.Percent(l.CurrentUsage, l.Value)
	return min(raw, 100), raw
}

// Usage is the outcome of evaluating a limit.
type Usage struct {
	Current       decimal.Decimal
	Percentage    float64
	RawPercentage float64
	PeriodStart   time.Time
	ResetDate     time.Time
	Rolled        bool
}

// Evaluate sums the ledger rows in the limit's scope over its current window
// [PeriodStart, ResetDate). Once now reaches ResetDate the window moves to the period
// containing now first. A vehicle-scoped limit whose vehicle is gone reports zero usage.
func Evaluate(l *Limit, txs []*transaction.Transaction, now time.Time, vehicleActive bool) Usage {
	u := Usage{Current: decimal.Zero}
	u.PeriodStart, u.ResetDate, u.Rolled = l.Window(now)

	if l.VehicleID != nil && !vehicleActive {
		return u
	}

	for _, tx := range txs {
		if tx.Date.Before(u.PeriodStart) || !tx.Date.Before(u.ResetDate) {
			continue
		}

		if l.Matches(tx) {
			u.Current = u.Current.Add(l.measure(tx))
		}
	}

	u.RawPercentage = money.Percent(u.Current, l.Value)
	u.Percentage = min(u.RawPercentage, 100)

	return u
}

// Window returns the limit's current window at now and whether it had to move forward.
func (l *Limit) Window(now time.Time) (time.Time, time.Time, bool) {
	if !l.ResetDate.IsZero() && now.Before(l.ResetDate) {
		return l.PeriodStart, l.ResetDate, false
	}

	start, reset := WindowFor(l.Period, now)

	return start, reset, true
}

// AsOf returns the limit as a reader should see it at now. A window that has already ended
// shows zero usage on the current window; Service.List recomputes before relying on it.
func (l *Limit) AsOf(now time.Time) *Limit {
	start, reset, rolled := l.Window(now)
	if !rolled {
		return l
	}

	view := *l
	view.PeriodStart, view.ResetDate = start, reset
	view.CurrentUsage = decimal.Zero

	return &view
}
