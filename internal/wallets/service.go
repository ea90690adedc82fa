package wallets

import (
	"context"

	"github.com/google/uuid"

	"github.com/dimworks/dimpay-backend/pkg/db/models"
	pkgerrors "github.com/dimworks/dimpay-backend/pkg/errors"
)

// Service defines the read surface exposed to the API.
type Service interface {
	Get(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error)
	Statement(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletEntry, error)
}

type service struct {
	repo Repository
}

// NewService wires the wallet service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "wallet repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, walletID uuid.UUID) (*models.Wallet, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id required")
	}
	wallet, err := s.repo.FindByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
	}
	return wallet, nil
}

func (s *service) Statement(ctx context.Context, walletID uuid.UUID, limit int) ([]models.WalletEntry, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id required")
	}
	wallet, err := s.repo.FindByID(ctx, walletID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
	}
	return s.repo.ListEntries(ctx, walletID, limit)
}
