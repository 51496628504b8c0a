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

// ChainProfileRepository implements the chain profile registry
type ChainProfileRepository struct {
	db *gorm.DB
}

// NewChainProfileRepository creates a new chain profile repository
func NewChainProfileRepository(db *gorm.DB) *ChainProfileRepository {
	return &ChainProfileRepository{db: db}
}

// GetByID gets a chain profile by ID
func (r *ChainProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.ChainProfile, error) {
	var m models.ChainProfile
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// GetByChainID gets the first profile registered for an EVM chain id
func (r *ChainProfileRepository) GetByChainID(ctx context.Context, chainID int64) (*entities.ChainProfile, error) {
	var m models.ChainProfile
	if err := GetDB(ctx, r.db).Where("chain_id = ?", chainID).Order("created_at ASC").First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// Create registers a new chain profile. Profiles are immutable once created.
func (r *ChainProfileRepository) Create(ctx context.Context, profile *entities.ChainProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now()
	}
	m := &models.ChainProfile{
		ID:                profile.ID,
		Name:              profile.Name,
		RPCURL:            profile.RPCURL,
		ChainID:           profile.ChainID,
		FactoryAddress:    profile.FactoryAddress,
		ExplorerURL:       profile.ExplorerURL,
		EncryptedAdminKey: profile.EncryptedAdminKey,
		AdminAddress:      profile.AdminAddress,
		CreatedAt:         profile.CreatedAt,
	}
	return GetDB(ctx, r.db).Create(m).Error
}

// List lists all chain profiles
func (r *ChainProfileRepository) List(ctx context.Context) ([]*entities.ChainProfile, error) {
	var ms []models.ChainProfile
	if err := GetDB(ctx, r.db).Order("created_at ASC").Find(&ms).Error; err != nil {
		return nil, err
	}
	profiles := make([]*entities.ChainProfile, 0, len(ms))
	for i := range ms {
		profiles = append(profiles, r.toEntity(&ms[i]))
	}
	return profiles, nil
}

func (r *ChainProfileRepository) toEntity(m *models.ChainProfile) *entities.ChainProfile {
	return &entities.ChainProfile{
		ID:                m.ID,
		Name:              m.Name,
		RPCURL:            m.RPCURL,
		ChainID:           m.ChainID,
		FactoryAddress:    m.FactoryAddress,
		ExplorerURL:       m.ExplorerURL,
		EncryptedAdminKey: m.EncryptedAdminKey,
		AdminAddress:      m.AdminAddress,
		CreatedAt:         m.CreatedAt,
	}
}
