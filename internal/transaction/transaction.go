package transaction

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
	"github.com/MrJamesThe3rd/fleetspend/internal/money"
)

var ErrNotFound = fmt.Errorf("transaction %w", apperr.ErrNotFound)

// Status represents the lifecycle state of a fuel purchase.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusPending   Status = "pending"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusCompleted, StatusPending, StatusCancelled:
		return st, nil
	}

	return "", apperr.Invalid("status", "unknown status %q", s)
}

// Transaction is one fuel purchase in the ledger. Only Status ever changes, and only to cancelled.
type Transaction struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	VehicleID     uuid.UUID
	LicensePlate  string
	FuelType      fuel.Type
	Liters        decimal.Decimal
	PricePerLiter decimal.Decimal
	TotalAmount   decimal.Decimal
	StationID     string
	StationName   string
	Date          time.Time
	Status        Status
	InvoiceID     *uuid.UUID // set once the purchase is billed
	CreatedAt     time.Time
}

// Counts reports whether the transaction takes part in aggregates.
func (t *Transaction) Counts() bool {
	return t.Status != StatusCancelled
}

// CheckIntegrity verifies the stored total against liters × price.
func (t *Transaction) CheckIntegrity() error {
	if want := money.Total(t.Liters, t.PricePerLiter); !t.TotalAmount.Equal(want) {
		return apperr.Integrity("transaction %s total %s does not match %s × %s",
			t.ID, t.TotalAmount, t.Liters, t.PricePerLiter)
	}

	return nil
}
