package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/fleetspend/internal/apperr"
	"github.com/MrJamesThe3rd/fleetspend/internal/auth"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=account
type Repository interface {
	Create(ctx context.Context, a *Account) error
	Get(ctx context.Context, id uuid.UUID) (*Account, error)
	GetByCNPJ(ctx context.Context, cnpj string) (*Account, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	ListActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

type TokenIssuer interface {
	Issue(accountID uuid.UUID, cnpj string) (string, error)
}

type Service struct {
	repo   Repository
	tokens TokenIssuer
}

func NewService(repo Repository, tokens TokenIssuer) *Service {
	return &Service{repo: repo, tokens: tokens}
}

type RegisterParams struct {
	CNPJ        string
	CompanyName string
	Email       string
	Phone       string
	Password    string
	CreditLimit decimal.Decimal
}

func (s *Service) Register(ctx context.Context, p RegisterParams) (*Account, error) {
	cnpj, err := NormalizeCNPJ(p.CNPJ)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(p.CompanyName) == "" {
		return nil, apperr.Invalid("company_name", "is required")
	}

	if !p.CreditLimit.IsPositive() {
		return nil, apperr.Invalid("credit_limit", "must be greater than zero")
	}

	if len(p.Password) < 6 {
		return nil, apperr.Invalid("password", "must be at least 6 characters long")
	}

	hash, err := auth.HashPassword(p.Password)
	if err != nil {
		return nil, err
	}

	a := &Account{
		CNPJ:         cnpj,
		CompanyName:  strings.TrimSpace(p.CompanyName),
		Email:        strings.TrimSpace(p.Email),
		Phone:        strings.TrimSpace(p.Phone),
		PasswordHash: hash,
		CreditLimit:  p.CreditLimit,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

// Login checks the credentials and returns a signed token for the account.
func (s *Service) Login(ctx context.Context, cnpj, password string) (string, *Account, error) {
	normalized, err := NormalizeCNPJ(cnpj)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}

	a, err := s.repo.GetByCNPJ(ctx, normalized)
	if err != nil {
		if apperr.IsNotFound(err) {
			return "", nil, ErrInvalidCredentials
		}

		return "", nil, fmt.Errorf("loading account: %w", err)
	}

	if !auth.CheckPassword(password, a.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	if !a.IsActive {
		return "", nil, ErrInactive
	}

	token, err := s.tokens.Issue(a.ID, a.CNPJ)
	if err != nil {
		return "", nil, err
	}

	return token, a, nil
}

func (s *Service) ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error {
	a, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(current, a.PasswordHash) {
		return apperr.Invalid("current_password", "current password is incorrect")
	}

	if len(next) < 6 {
		return apperr.Invalid("new_password", "must be at least 6 characters long")
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}

	return s.repo.UpdatePassword(ctx, id, hash)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.repo.ListActiveIDs(ctx)
}
