package repositories

import (
	"context"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
)

// CommunityTokenRepository defines community token operations
type CommunityTokenRepository interface {
	GetByCommunityID(ctx context.Context, communityID uuid.UUID) (*entities.CommunityToken, error)
	// Save inserts or replaces the token record of token.CommunityID.
	Save(ctx context.Context, token *entities.CommunityToken) error
	ResetAddress(ctx context.Context, communityID uuid.UUID) error
}
