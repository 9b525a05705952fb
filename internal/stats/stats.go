// Package stats computes the windowed dashboard rollups. It only reads.
package stats

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Custom  Period = "custom"
)

// Spec selects the stats window. StartDate and EndDate are only read for Custom.
type Spec struct {
	Period    Period
	StartDate time.Time
	EndDate   time.Time
}

// ParseSpec reads the request form: dates are YYYY-MM-DD in loc. An empty period means monthly.
func ParseSpec(period, start, end string, loc *time.Location) (Spec, error) {
	spec := Spec{Period: Period(period)}

	switch spec.Period {
	case "":
		spec.Period = Monthly
	case Daily, Weekly, Monthly:
	case Custom:
		if start == "" || end == "" {
			return Spec{}, apperr.Invalid("start_date", "custom period requires start_date and end_date")
		}

		var err error

		if spec.StartDate, err = time.ParseInLocation(time.DateOnly, start, loc); err != nil {
			return Spec{}, apperr.Invalid("start_date", "expected YYYY-MM-DD, got %q", start)
		}

		if spec.EndDate, err = time.ParseInLocation(time.DateOnly, end, loc); err != nil {
			return Spec{}, apperr.Invalid("end_date", "expected YYYY-MM-DD, got %q", end)
		}
	default:
		return Spec{}, apperr.Invalid("period", "unknown period %q", period)
	}

	return spec, nil
}

// Window returns the inclusive range [start, end] the spec covers at now.
// A custom range covers both boundary days entirely.
func (s Spec) Window(now time.Time) (time.Time, time.Time, error) {
	y, m, d := now.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, now.Location())

	var start, next time.Time

	switch s.Period {
	case Daily:
		start, next = today, today.AddDate(0, 0, 1)
	case Weekly:
		start = today.AddDate(0, 0, -((int(today.Weekday()) + 6) % 7))
		next = start.AddDate(0, 0, 7)
	case Custom:
		if s.EndDate.Before(s.StartDate) {
			return time.Time{}, time.Time{}, apperr.Invalid("end_date", "must not be before start_date")
		}

		start = dayStart(s.StartDate)
		next = dayStart(s.EndDate).AddDate(0, 0, 1)
	default:
		start = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
		next = start.AddDate(0, 1, 0)
	}

	return start, next.Add(-time.Nanosecond), nil
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type FuelTotals struct {
	Liters decimal.Decimal
	Amount decimal.Decimal
}

type Stats struct {
	VehiclesCount        int
	PeriodTotalLiters    decimal.Decimal
	PeriodTotalAmount    decimal.Decimal
	TotalOpenAmount      decimal.Decimal
	OpenInvoicesCount    int
	OverdueInvoicesCount int
	FuelBreakdown        map[fuel.Type]FuelTotals
	RecentTransactions   []*transaction.Transaction
	TotalTransactions    int
	StartDate            time.Time
	EndDate              time.Time
}

// RecentLimit caps RecentTransactions.
const RecentLimit = 5
