package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/infrastructure/models"
)

// AccountRepository implements account ledger operations
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID gets an account by ID
func (r *AccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	var m models.Account
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByEmail gets an account by email
func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	var m models.Account
	if err := GetDB(ctx, r.db).Where("LOWER(email) = LOWER(?)", email).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListByCommunity lists every account of a community, oldest first
func (r *AccountRepository) ListByCommunity(ctx context.Context, communityID uuid.UUID) ([]*entities.Account, error) {
	var ms []models.Account
	if err := GetDB(ctx, r.db).Where("community_id = ?", communityID).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}

	accounts := make([]*entities.Account, 0, len(ms))
	for i := range ms {
		accounts = append(accounts, r.toEntity(&ms[i]))
	}
	return accounts, nil
}

// AdjustBalance atomically adds delta to the cached balance and returns the new value
func (r *AccountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&models.Account{}).Where("id = ?", id)
	if delta < 0 {
		query = query.Where("balance >= ?", -delta)
	}
	result := query.Updates(map[string]interface{}{
		"balance":    gorm.Expr("balance + ?", delta),
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return 0, err
		}
		return 0, domainerrors.ErrInsufficientFunds
	}

	var m models.Account
	if err := db.Select("balance").Where("id = ?", id).First(&m).Error; err != nil {
		return 0, err
	}
	return m.Balance, nil
}

// UpdateWalletAddress points the account at its default custodial wallet
func (r *AccountRepository) UpdateWalletAddress(ctx context.Context, id uuid.UUID, address string) error {
	result := GetDB(ctx, r.db).Model(&models.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"wallet_address": address,
		"updated_at":     time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *AccountRepository) toEntity(m *models.Account) *entities.Account {
	return &entities.Account{
		ID:            m.ID,
		Email:         m.Email,
		Name:          m.Name,
		Role:          entities.AccountRole(m.Role),
		CommunityID:   m.CommunityID,
		WalletAddress: m.WalletAddress,
		Balance:       m.Balance,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}
