package account

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=account
type Repository interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*Account, error)
	ListAccounts(ctx context.Context, entityID *uuid.UUID) ([]*Account, error)
	CreateAccount(ctx context.Context, account *Account) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Account, error) {
	return s.repo.GetAccount(ctx, id)
}

// List returns active accounts, optionally scoped to one entity.
func (s *Service) List(ctx context.Context, entityID *uuid.UUID) ([]*Account, error) {
	return s.repo.ListAccounts(ctx, entityID)
}

type CreateParams struct {
	EntityID            uuid.UUID
	BankName            string
	AccountNumberMasked string
	Currency            string
	CurrentBalance      int64
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Account, error) {
	acct := &Account{
		EntityID:            params.EntityID,
		BankName:            params.BankName,
		AccountNumberMasked: params.AccountNumberMasked,
		Currency:            params.Currency,
		CurrentBalance:      params.CurrentBalance,
		Active:              true,
	}
	if err := s.repo.CreateAccount(ctx, acct); err != nil {
		return nil, err
	}

	return acct, nil
}

// Deactivate soft-disables the account; its transactions stay.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.Deactivate(ctx, id)
}
