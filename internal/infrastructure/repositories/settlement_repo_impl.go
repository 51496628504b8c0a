package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/infrastructure/models"
	"rete.backend/pkg/utils"
)

// SettlementRepository implements settlement transaction operations
type SettlementRepository struct {
	db *gorm.DB
}

// NewSettlementRepository creates a new settlement repository
func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

// Create persists a settlement intent
func (r *SettlementRepository) Create(ctx context.Context, tx *entities.SettlementTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = utils.GenerateUUIDv7()
	}
	now := time.Now()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now
	if tx.Status == "" {
		tx.Status = entities.SettlementStatusPending
	}

	return GetDB(ctx, r.db).Create(r.toModel(tx)).Error
}

// GetByID gets a settlement by ID
func (r *SettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SettlementTransaction, error) {
	var m models.SettlementTransaction
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// MarkSubmitted records the broadcast hash of a PENDING settlement
func (r *SettlementRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, txHash string, settledAmount int64) error {
	updates := map[string]interface{}{
		"tx_hash":    txHash,
		"updated_at": time.Now(),
	}
	if settledAmount > 0 {
		updates["settled_amount"] = settledAmount
	}
	return r.updatePending(ctx, id, updates)
}

// MarkPermitSubmitted records the permit hash of a PENDING transfer or purchase
func (r *SettlementRepository) MarkPermitSubmitted(ctx context.Context, id uuid.UUID, permitTxHash string) error {
	return r.updatePending(ctx, id, map[string]interface{}{
		"permit_tx_hash": permitTxHash,
		"updated_at":     time.Now(),
	})
}

// Resolve moves a PENDING settlement to a terminal status
func (r *SettlementRepository) Resolve(ctx context.Context, id uuid.UUID, status entities.SettlementStatus, reason string) error {
	if status != entities.SettlementStatusCompleted && status != entities.SettlementStatusFailed {
		return domainerrors.ErrInvalidInput
	}

	query := GetDB(ctx, r.db).Model(&models.SettlementTransaction{}).
		Where("id = ? AND status = ?", id, string(entities.SettlementStatusPending))
	if status == entities.SettlementStatusCompleted {
		query = query.Where("tx_hash IS NOT NULL AND tx_hash <> ''")
	}

	updates := map[string]interface{}{
		"status":     string(status),
		"updated_at": time.Now(),
	}
	if reason != "" {
		updates["failure_reason"] = reason
	}

	result := query.Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// ListPending lists PENDING settlements created before the cutoff, oldest first
func (r *SettlementRepository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*entities.SettlementTransaction, error) {
	query := GetDB(ctx, r.db).
		Where("status = ? AND created_at < ?", string(entities.SettlementStatusPending), createdBefore).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var ms []models.SettlementTransaction
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toEntities(ms), nil
}

// ListByAccount lists settlements where the account is either party, newest first
func (r *SettlementRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, pagination utils.PaginationParams) ([]*entities.SettlementTransaction, int64, error) {
	base := GetDB(ctx, r.db).Model(&models.SettlementTransaction{}).
		Where("from_account_id = ? OR to_account_id = ?", accountID, accountID)

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := base.Session(&gorm.Session{}).Order("created_at DESC")
	if pagination.Limit > 0 {
		query = query.Limit(pagination.Limit).Offset(pagination.CalculateOffset())
	}

	var ms []models.SettlementTransaction
	if err := query.Find(&ms).Error; err != nil {
		return nil, 0, err
	}
	return r.toEntities(ms), total, nil
}

// ListPendingByAccount lists an account's unresolved settlements, oldest first
func (r *SettlementRepository) ListPendingByAccount(ctx context.Context, accountID uuid.UUID) ([]*entities.SettlementTransaction, error) {
	var ms []models.SettlementTransaction
	err := GetDB(ctx, r.db).
		Where("status = ? AND (from_account_id = ? OR to_account_id = ?)", string(entities.SettlementStatusPending), accountID, accountID).
		Order("created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toEntities(ms), nil
}

// ListCompletedByCommunity lists the full completed history of a community
func (r *SettlementRepository) ListCompletedByCommunity(ctx context.Context, communityID uuid.UUID) ([]*entities.SettlementTransaction, error) {
	var ms []models.SettlementTransaction
	err := GetDB(ctx, r.db).
		Where("community_id = ? AND status = ?", communityID, string(entities.SettlementStatusCompleted)).
		Order("created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}
	return r.toEntities(ms), nil
}

func (r *SettlementRepository) updatePending(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	result := GetDB(ctx, r.db).Model(&models.SettlementTransaction{}).
		Where("id = ? AND status = ?", id, string(entities.SettlementStatusPending)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.explainMiss(ctx, id)
	}
	return nil
}

// explainMiss distinguishes a missing row from one that left PENDING.
func (r *SettlementRepository) explainMiss(ctx context.Context, id uuid.UUID) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status == entities.SettlementStatusPending {
		// completing without a recorded hash
		return domainerrors.ErrInvalidInput
	}
	return domainerrors.ErrStatusConflict
}

func (r *SettlementRepository) toModel(tx *entities.SettlementTransaction) *models.SettlementTransaction {
	return &models.SettlementTransaction{
		ID:                    tx.ID,
		Kind:                  string(tx.Kind),
		Status:                string(tx.Status),
		Amount:                tx.Amount,
		SettledAmount:         tx.SettledAmount,
		TxHash:                tx.TxHash.Ptr(),
		PermitTxHash:          tx.PermitTxHash.Ptr(),
		FromAccountID:         tx.FromAccountID,
		ToAccountID:           tx.ToAccountID,
		ProductID:             tx.ProductID,
		CommunityID:           tx.CommunityID,
		AuthorizationDeadline: tx.AuthorizationDeadline,
		FailureReason:         tx.FailureReason.Ptr(),
		CreatedAt:             tx.CreatedAt,
		UpdatedAt:             tx.UpdatedAt,
	}
}

func (r *SettlementRepository) toEntity(m *models.SettlementTransaction) *entities.SettlementTransaction {
	return &entities.SettlementTransaction{
		ID:                    m.ID,
		Kind:                  entities.SettlementKind(m.Kind),
		Status:                entities.SettlementStatus(m.Status),
		Amount:                m.Amount,
		SettledAmount:         m.SettledAmount,
		TxHash:                null.StringFromPtr(m.TxHash),
		PermitTxHash:          null.StringFromPtr(m.PermitTxHash),
		FromAccountID:         m.FromAccountID,
		ToAccountID:           m.ToAccountID,
		ProductID:             m.ProductID,
		CommunityID:           m.CommunityID,
		AuthorizationDeadline: m.AuthorizationDeadline,
		FailureReason:         null.StringFromPtr(m.FailureReason),
		CreatedAt:             m.CreatedAt,
		UpdatedAt:             m.UpdatedAt,
	}
}

func (r *SettlementRepository) toEntities(ms []models.SettlementTransaction) []*entities.SettlementTransaction {
	out := make([]*entities.SettlementTransaction, 0, len(ms))
	for i := range ms {
		out = append(out, r.toEntity(&ms[i]))
	}
	return out
}
