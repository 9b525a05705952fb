package vehicle

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/fuel"
)

var ErrNotFound = fmt.Errorf("vehicle %w", apperr.ErrNotFound)

// Vehicle is a fleet vehicle. Deleting one only clears IsActive.
type Vehicle struct {
	ID           uuid.UUID
	AccountID    uuid.UUID
	LicensePlate string
	Model        string
	Year         int
	FuelType     fuel.Type
	DriverName   *string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// Old (ABC1234) and Mercosul (ABC1D23) plates.
var platePattern = regexp.MustCompile(`^[A-Z]{3}[0-9][A-Z0-9][0-9]{2}$`)

// NormalizePlate upper-cases the plate and drops separators.
func NormalizePlate(s string) (string, error) {
	plate := strings.ToUpper(strings.TrimSpace(s))
	plate = strings.NewReplacer("-", "", " ", "").Replace(plate)

	if !platePattern.MatchString(plate) {
		return "", apperr.Invalid("license_plate", "invalid license plate %q", s)
	}

	return plate, nil
}
