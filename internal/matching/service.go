// Package matching learns the canonical names of partner stations. Feeds spell the same
// station many ways ("AUTO POSTO SHELL 123", "Shell BR-116 km 40") and limits, stats and
// statements read better with one name per station.
package matching

import (
	"context"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/transaction"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=matching
type Repository interface {
	FindMatch(ctx context.Context, accountID uuid.UUID, rawName string) (string, error)
	SaveAlias(ctx context.Context, alias *Alias) (bool, error)
	ListAliases(ctx context.Context, accountID uuid.UUID) ([]*Alias, error)
	DeleteAlias(ctx context.Context, accountID, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Suggest returns the canonical name for rawName, or "" when no alias matches.
func (s *Service) Suggest(ctx context.Context, accountID uuid.UUID, rawName string) (string, error) {
	rawName = Normalize(rawName)
	if rawName == "" {
		return "", nil
	}

	return s.repo.FindMatch(ctx, accountID, rawName)
}

// Learn remembers that station names containing rawPattern mean preferredName. Learning a
// pattern again replaces its preferred name; created reports whether the alias is new.
func (s *Service) Learn(ctx context.Context, accountID uuid.UUID, rawPattern, preferredName string) (*Alias, bool, error) {
	alias := &Alias{
		AccountID:     accountID,
		RawPattern:    Normalize(rawPattern),
		PreferredName: Normalize(preferredName),
	}

	if alias.RawPattern == "" {
		return nil, false, apperr.Invalid("raw_pattern", "is required")
	}

	if alias.PreferredName == "" {
		return nil, false, apperr.Invalid("preferred_name", "is required")
	}

	created, err := s.repo.SaveAlias(ctx, alias)
	if err != nil {
		return nil, false, err
	}

	return alias, created, nil
}

func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]*Alias, error) {
	return s.repo.ListAliases(ctx, accountID)
}

// Forget removes an alias. Purchases already canonicalized keep their name.
func (s *Service) Forget(ctx context.Context, accountID, id uuid.UUID) error {
	return s.repo.DeleteAlias(ctx, accountID, id)
}

// Canonicalize rewrites StationName on every row that has a learned alias.
// Lookups are cached per distinct raw name.
func (s *Service) Canonicalize(ctx context.Context, accountID uuid.UUID, params []transaction.CreateParams) error {
	seen := make(map[string]string)

	for i, p := range params {
		preferred, ok := seen[p.StationName]
		if !ok {
			var err error

			preferred, err = s.Suggest(ctx, accountID, p.StationName)
			if err != nil {
				return err
			}

			seen[p.StationName] = preferred
		}

		if preferred != "" {
			params[i].StationName = preferred
		}
	}

	return nil
}
