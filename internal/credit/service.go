package credit

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=credit
type Repository interface {
	Exposure(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, decimal.Decimal, error)
	ListAlerts(ctx context.Context, accountID uuid.UUID, includeDismissed bool) ([]*Alert, error)
	DismissAlert(ctx context.Context, accountID, id uuid.UUID) (*Alert, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Status computes the live credit status from the ledger and open invoices.
func (s *Service) Status(ctx context.Context, accountID uuid.UUID) (Status, error) {
	creditLimit, usage, err := s.repo.Exposure(ctx, accountID)
	if err != nil {
		return Status{}, err
	}

	return NewStatus(creditLimit, usage), nil
}

func (s *Service) Alerts(ctx context.Context, accountID uuid.UUID, includeDismissed bool) ([]*Alert, error) {
	return s.repo.ListAlerts(ctx, accountID, includeDismissed)
}

// Dismiss acknowledges an alert. It has no effect on detection.
func (s *Service) Dismiss(ctx context.Context, accountID, id uuid.UUID) (*Alert, error) {
	return s.repo.DismissAlert(ctx, accountID, id)
}
