package repositories

import (
	"context"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
)

// ChainProfileRepository defines chain profile registry operations
type ChainProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entities.ChainProfile, error)
	GetByChainID(ctx context.Context, chainID int64) (*entities.ChainProfile, error)
	Create(ctx context.Context, profile *entities.ChainProfile) error
	List(ctx context.Context) ([]*entities.ChainProfile, error)
}
