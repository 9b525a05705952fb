package matching

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
)

var ErrNotFound = fmt.Errorf("station alias %w", apperr.ErrNotFound)

// Alias maps every station name containing RawPattern, case-insensitively, to PreferredName.
// An account has at most one alias per pattern.
type Alias struct {
	ID            uuid.UUID
	AccountID     uuid.UUID
	RawPattern    string
	PreferredName string
	CreatedAt     time.Time
	UpdatedAt     *time.Time
}

// Normalize collapses runs of whitespace, as feeds pad and split station names freely.
func Normalize(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
