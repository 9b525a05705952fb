// Package fuel defines the fuel types sold at partner stations.
package fuel

import (
	"strings"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
)

// Type is a fuel product.
type Type string

const (
	Diesel   Type = "diesel"
	Gasoline Type = "gasoline"
	Ethanol  Type = "ethanol"
)

// All lists every known fuel type in display order.
var All = []Type{Diesel, Gasoline, Ethanol}

func (t Type) Valid() bool {
	switch t {
	case Diesel, Gasoline, Ethanol:
		return true
	}

	return false
}

// Parse validates s as a fuel type.
func Parse(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", apperr.Invalid("fuel_type", "unknown fuel type %q", s)
	}

	return t, nil
}

// ParseOptional returns nil for an empty value or "all".
func ParseOptional(s *string) (*Type, error) {
	if s == nil || *s == "" || strings.EqualFold(*s, "all") {
		return nil, nil
	}

	t, err := Parse(*s)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

// FromProductName maps the product names printed on station receipts.
func FromProductName(name string) (Type, bool) {
	n := strings.ToLower(name)

	switch {
	case strings.Contains(n, "diesel"), strings.Contains(n, "s10"), strings.Contains(n, "s500"):
		return Diesel, true
	case strings.Contains(n, "gasolina"), strings.Contains(n, "gasoline"):
		return Gasoline, true
	case strings.Contains(n, "etanol"), strings.Contains(n, "ethanol"), strings.Contains(n, "alcool"), strings.Contains(n, "álcool"):
		return Ethanol, true
	}

	return "", false
}
