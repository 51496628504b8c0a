package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	"rete.backend/pkg/utils"
)

// SettlementRepository defines settlement transaction operations.
// Records are append-only: only status, hashes and the failure reason change.
type SettlementRepository interface {
	Create(ctx context.Context, tx *entities.SettlementTransaction) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.SettlementTransaction, error)
	// MarkSubmitted records the broadcast hash while the record is still PENDING.
	MarkSubmitted(ctx context.Context, id uuid.UUID, txHash string, settledAmount int64) error
	MarkPermitSubmitted(ctx context.Context, id uuid.UUID, permitTxHash string) error
	// Resolve moves a PENDING record to COMPLETED or FAILED. It returns
	// ErrStatusConflict when the record is no longer PENDING.
	Resolve(ctx context.Context, id uuid.UUID, status entities.SettlementStatus, reason string) error
	ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*entities.SettlementTransaction, error)
	ListByAccount(ctx context.Context, accountID uuid.UUID, pagination utils.PaginationParams) ([]*entities.SettlementTransaction, int64, error)
	ListPendingByAccount(ctx context.Context, accountID uuid.UUID) ([]*entities.SettlementTransaction, error)
	ListCompletedByCommunity(ctx context.Context, communityID uuid.UUID) ([]*entities.SettlementTransaction, error)
}
