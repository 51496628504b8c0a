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

// WalletRepository implements custodial wallet operations
type WalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a new wallet repository
func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Create creates a new custodial wallet
func (r *WalletRepository) Create(ctx context.Context, wallet *entities.CustodialWallet) error {
	if wallet.ID == uuid.Nil {
		wallet.ID = uuid.New()
	}
	now := time.Now()
	if wallet.CreatedAt.IsZero() {
		wallet.CreatedAt = now
	}
	wallet.UpdatedAt = now

	m := &models.CustodialWallet{
		ID:                  wallet.ID,
		AccountID:           wallet.AccountID,
		Address:             wallet.Address,
		EncryptedPrivateKey: wallet.EncryptedPrivateKey,
		IsDefault:           wallet.IsDefault,
		CreatedAt:           wallet.CreatedAt,
		UpdatedAt:           wallet.UpdatedAt,
	}
	return GetDB(ctx, r.db).Create(m).Error
}

// GetByID gets a wallet by ID
func (r *WalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.CustodialWallet, error) {
	var m models.CustodialWallet
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetDefaultByAccountID gets the signer of record for an account
func (r *WalletRepository) GetDefaultByAccountID(ctx context.Context, accountID uuid.UUID) (*entities.CustodialWallet, error) {
	var m models.CustodialWallet
	err := GetDB(ctx, r.db).
		Where("account_id = ? AND is_default = ?", accountID, true).
		First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// ListByAccountID lists an account's wallets, default first
func (r *WalletRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entities.CustodialWallet, error) {
	var ms []models.CustodialWallet
	err := GetDB(ctx, r.db).
		Where("account_id = ?", accountID).
		Order("is_default DESC, created_at ASC").
		Find(&ms).Error
	if err != nil {
		return nil, err
	}

	wallets := make([]*entities.CustodialWallet, 0, len(ms))
	for i := range ms {
		wallets = append(wallets, r.toEntity(&ms[i]))
	}
	return wallets, nil
}

// SetDefault marks walletID as the account's default and clears the others
func (r *WalletRepository) SetDefault(ctx context.Context, accountID, walletID uuid.UUID) error {
	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		var target models.CustodialWallet
		if err := tx.Where("id = ? AND account_id = ?", walletID, accountID).First(&target).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrNotFound
			}
			return err
		}

		now := time.Now()
		if err := tx.Model(&models.CustodialWallet{}).
			Where("account_id = ?", accountID).
			Updates(map[string]interface{}{"is_default": false, "updated_at": now}).Error; err != nil {
			return err
		}
		return tx.Model(&models.CustodialWallet{}).
			Where("id = ?", walletID).
			Updates(map[string]interface{}{"is_default": true, "updated_at": now}).Error
	})
}

func (r *WalletRepository) toEntity(m *models.CustodialWallet) *entities.CustodialWallet {
	return &entities.CustodialWallet{
		ID:                  m.ID,
		AccountID:           m.AccountID,
		Address:             m.Address,
		EncryptedPrivateKey: m.EncryptedPrivateKey,
		IsDefault:           m.IsDefault,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
