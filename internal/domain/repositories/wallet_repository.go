package repositories

import (
	"context"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
)

// WalletRepository defines custodial wallet operations
type WalletRepository interface {
	Create(ctx context.Context, wallet *entities.CustodialWallet) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.CustodialWallet, error)
	GetDefaultByAccountID(ctx context.Context, accountID uuid.UUID) (*entities.CustodialWallet, error)
	ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entities.CustodialWallet, error)
	SetDefault(ctx context.Context, accountID, walletID uuid.UUID) error
}
