package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/database"
	"github.com/MrJamesThe3rd/fleetspend/internal/matching"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// FindMatch picks the longest pattern contained in rawName, ignoring case. Patterns are
// compared literally, so "%" or "_" in a station name match only themselves.
func (s *Store) FindMatch(ctx context.Context, accountID uuid.UUID, rawName string) (string, error) {
	query := `
		SELECT preferred_name
		FROM station_aliases
		WHERE account_id = $1
		  AND STRPOS(LOWER($2), LOWER(raw_pattern)) > 0
		ORDER BY LENGTH(raw_pattern) DESC, COALESCE(updated_at, created_at) DESC
		LIMIT 1
	`

	var preferred string

	err := s.db.QueryRowContext(ctx, query, accountID, rawName).Scan(&preferred)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}

		return "", fmt.Errorf("finding station alias: %w", err)
	}

	return preferred, nil
}

// SaveAlias inserts the alias or, when the account already has one for the same pattern in
// any case, replaces its preferred name. It reports whether a row was inserted.
func (s *Store) SaveAlias(ctx context.Context, a *matching.Alias) (bool, error) {
	query := `
		INSERT INTO station_aliases (account_id, raw_pattern, preferred_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (account_id, LOWER(raw_pattern)) DO UPDATE
		SET raw_pattern = EXCLUDED.raw_pattern,
		    preferred_name = EXCLUDED.preferred_name,
		    updated_at = NOW()
		RETURNING id, created_at, updated_at, (xmax = 0) AS inserted
	`

	var inserted bool

	err := s.db.QueryRowContext(ctx, query, a.AccountID, a.RawPattern, a.PreferredName).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt, &inserted)
	if err != nil {
		return false, database.Classify("saving station alias", err)
	}

	return inserted, nil
}

func (s *Store) ListAliases(ctx context.Context, accountID uuid.UUID) ([]*matching.Alias, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, account_id, raw_pattern, preferred_name, created_at, updated_at
		FROM station_aliases
		WHERE account_id = $1
		ORDER BY preferred_name, raw_pattern`, accountID)
	if err != nil {
		return nil, fmt.Errorf("listing station aliases: %w", err)
	}
	defer rows.Close()

	var aliases []*matching.Alias

	for rows.Next() {
		var a matching.Alias
		if err := rows.Scan(&a.ID, &a.AccountID, &a.RawPattern, &a.PreferredName, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning station alias: %w", err)
		}

		aliases = append(aliases, &a)
	}

	return aliases, rows.Err()
}

func (s *Store) DeleteAlias(ctx context.Context, accountID, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM station_aliases WHERE account_id = $1 AND id = $2`, accountID, id)
	if err != nil {
		return fmt.Errorf("deleting station alias: %w", err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return matching.ErrNotFound
	}

	return nil
}
