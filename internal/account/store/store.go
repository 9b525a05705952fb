package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/fleetspend/internal/account"
	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/database"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const selectAccountColumns = `id, cnpj, company_name, email, phone, password_hash, credit_limit, is_active, created_at`

func scanAccount(row *sql.Row) (*account.Account, error) {
	var a account.Account

	err := row.Scan(&a.ID, &a.CNPJ, &a.CompanyName, &a.Email, &a.Phone,
		&a.PasswordHash, &a.CreditLimit, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, account.ErrNotFound
		}

		return nil, fmt.Errorf("scanning account: %w", err)
	}

	return &a, nil
}

func (s *Store) Create(ctx context.Context, a *account.Account) error {
	query := `
		INSERT INTO accounts (cnpj, company_name, email, phone, password_hash, credit_limit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		a.CNPJ, a.CompanyName, a.Email, a.Phone, a.PasswordHash, a.CreditLimit, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return apperr.Invalid("cnpj", "an account with this CNPJ already exists")
		}

		return fmt.Errorf("creating account: %w", err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+selectAccountColumns+` FROM accounts WHERE id = $1`, id))
}

func (s *Store) GetByCNPJ(ctx context.Context, cnpj string) (*account.Account, error) {
	return scanAccount(s.db.QueryRowContext(ctx,
		`SELECT `+selectAccountColumns+` FROM accounts WHERE cnpj = $1`, cnpj))
}

func (s *Store) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE accounts SET password_hash = $1 WHERE id = $2`, hash, id)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return account.ErrNotFound
	}

	return nil
}

func (s *Store) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM accounts WHERE is_active ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning account id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}
