package account

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
)

var (
	ErrNotFound           = fmt.Errorf("account %w", apperr.ErrNotFound)
	ErrInvalidCredentials = fmt.Errorf("invalid CNPJ or password")
	ErrInactive           = fmt.Errorf("account is deactivated")
)

// Account is a fleet customer (tenant). Everything else is scoped to one.
type Account struct {
	ID           uuid.UUID
	CNPJ         string
	CompanyName  string
	Email        string
	Phone        string
	PasswordHash string
	CreditLimit  decimal.Decimal
	IsActive     bool
	CreatedAt    time.Time
}

var nonDigits = regexp.MustCompile(`[^0-9]`)

// NormalizeCNPJ strips punctuation ("12.345.678/9012-34") and checks the length.
func NormalizeCNPJ(s string) (string, error) {
	digits := nonDigits.ReplaceAllString(s, "")
	if len(digits) != 14 {
		return "", apperr.Invalid("cnpj", "CNPJ must have 14 digits")
	}

	return digits, nil
}
