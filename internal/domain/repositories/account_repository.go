package repositories

import (
	"context"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
)

// AccountRepository defines account ledger operations
type AccountRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error)
	GetByEmail(ctx context.Context, email string) (*entities.Account, error)
	ListByCommunity(ctx context.Context, communityID uuid.UUID) ([]*entities.Account, error)
	// AdjustBalance adds delta to the cached balance. A negative delta fails
	// with ErrInsufficientFunds instead of driving the balance below zero.
	AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (int64, error)
	UpdateWalletAddress(ctx context.Context, id uuid.UUID, address string) error
}
