// Package money holds the decimal helpers used for currency amounts and fuel volumes.
//
// Amounts are kept at 2 decimal places, volumes at 3 and unit prices at 4.
// Sums are always taken over the stored values so rounding never accumulates.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	AmountPlaces = 2
	LitersPlaces = 3
	PricePlaces  = 4
)

var hundred = decimal.NewFromInt(100)

// Total is the amount charged for liters at pricePerLiter.
func Total(liters, pricePerLiter decimal.Decimal) decimal.Decimal {
	return liters.Mul(pricePerLiter).Round(AmountPlaces)
}

// Percent returns 100*part/whole. A non-positive whole yields 0.
func Percent(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}

	return part.Mul(hundred).Div(whole).InexactFloat64()
}

// Amount renders d for JSON responses.
func Amount(d decimal.Decimal) float64 {
	return d.Round(AmountPlaces).InexactFloat64()
}

// Liters renders d for JSON responses.
func Liters(d decimal.Decimal) float64 {
	return d.Round(LitersPlaces).InexactFloat64()
}

// ParseBR parses a Brazilian formatted number such as "1.234,56" or "-588,74".
// Plain "12.5" is accepted as well when no comma is present.
func ParseBR(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.TrimPrefix(clean, "R$")
	clean = strings.TrimSpace(clean)

	if strings.Contains(clean, ",") {
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	return decimal.NewFromString(clean)
}

// FormatBR renders d with places decimals using a comma separator, without grouping.
func FormatBR(d decimal.Decimal, places int32) string {
	return strings.Replace(d.StringFixed(places), ".", ",", 1)
}
