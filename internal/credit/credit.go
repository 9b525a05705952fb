// Package credit tracks account-wide credit utilization and its threshold alerts.
//
// The detector is state-derived: an alert for threshold T is raised exactly when the stored
// utilization moves from below T to T or above, so a threshold re-arms as soon as usage
// recedes below it and a crossing lost to a failed commit is detected again next time.
package credit

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
)

var ErrAlertNotFound = fmt.Errorf("credit alert %w", apperr.ErrNotFound)

// Thresholds are the utilization percentages that raise alerts, ascending.
var Thresholds = []int{70, 80, 90, 100}

// Band is the display classification of a utilization percentage.
type Band string

const (
	BandNormal   Band = "normal"
	BandWarning  Band = "warning"
	BandCritical Band = "critical"
	BandExceeded Band = "exceeded"
)

func BandFor(pct float64) Band {
	switch {
	case pct >= 100:
		return BandExceeded
	case pct >= 90:
		return BandCritical
	case pct >= 70:
		return BandWarning
	default:
		return BandNormal
	}
}

type Status struct {
	CreditLimit     decimal.Decimal
	CurrentUsage    decimal.Decimal
	AvailableCredit decimal.Decimal
	UsagePercentage float64
	Band            Band
}

func NewStatus(creditLimit, usage decimal.Decimal) Status {
	pct := money.Percent(usage, creditLimit)

	return Status{
		CreditLimit:     creditLimit,
		CurrentUsage:    usage,
		AvailableCredit: creditLimit.Sub(usage),
		UsagePercentage: pct,
		Band:            BandFor(pct),
	}
}

type Alert struct {
	ID              uuid.UUID
	AccountID       uuid.UUID
	Threshold       int
	CreditLimit     decimal.Decimal
	CurrentUsage    decimal.Decimal
	UsagePercentage float64
	Dismissed       bool
	DismissedAt     *time.Time
	CreatedAt       time.Time
}

// Crossings returns the thresholds T with prev < T <= next, ascending.
func Crossings(prev, next float64) []int {
	var crossed []int

	for _, t := range Thresholds {
		if prev < float64(t) && float64(t) <= next {
			crossed = append(crossed, t)
		}
	}

	return crossed
}

// CheckAndRaise builds one alert per threshold crossed between prev and the new status.
func CheckAndRaise(accountID uuid.UUID, prev float64, status Status) []*Alert {
	crossed := Crossings(prev, status.UsagePercentage)
	if len(crossed) == 0 {
		return nil
	}

	alerts := make([]*Alert, len(crossed))
	for i, t := range crossed {
		alerts[i] = &Alert{
			AccountID:       accountID,
			Threshold:       t,
			CreditLimit:     status.CreditLimit,
			CurrentUsage:    status.CurrentUsage,
			UsagePercentage: status.UsagePercentage,
		}
	}

	return alerts
}
