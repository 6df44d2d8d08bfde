package services

import (
	"context"

	"github.com/hahaandwawa/portfolio-app-sub000/internal/models"
	"github.com/hahaandwawa/portfolio-app-sub000/internal/repositories"
)

// cashService implements the CashService interface
type cashService struct {
	cashRepo repositories.CashAccountRepository
}

// NewCashService creates a new cash account service
func NewCashService(cashRepo repositories.CashAccountRepository) CashService {
	return &cashService{cashRepo: cashRepo}
}

func (s *cashService) CreateCashAccount(ctx context.Context, account *models.CashAccount) error {
	if err := account.Validate(); err != nil {
		return err
	}
	return s.cashRepo.Create(ctx, account)
}

func (s *cashService) GetCashAccount(ctx context.Context, id string) (*models.CashAccount, error) {
	return s.cashRepo.GetByID(ctx, id)
}

func (s *cashService) UpdateCashAccount(ctx context.Context, account *models.CashAccount) error {
	if err := account.Validate(); err != nil {
		return err
	}
	return s.cashRepo.Update(ctx, account)
}

func (s *cashService) DeleteCashAccount(ctx context.Context, id string) error {
	return s.cashRepo.Delete(ctx, id)
}

func (s *cashService) ListCashAccounts(ctx context.Context, accounts []string) ([]*models.CashAccount, error) {
	return s.cashRepo.List(ctx, accounts)
}
