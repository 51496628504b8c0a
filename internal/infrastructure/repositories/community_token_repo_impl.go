package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/infrastructure/models"
)

// CommunityTokenRepository implements community token operations
type CommunityTokenRepository struct {
	db *gorm.DB
}

// NewCommunityTokenRepository creates a new community token repository
func NewCommunityTokenRepository(db *gorm.DB) *CommunityTokenRepository {
	return &CommunityTokenRepository{db: db}
}

// GetByCommunityID gets the token bound to a community
func (r *CommunityTokenRepository) GetByCommunityID(ctx context.Context, communityID uuid.UUID) (*entities.CommunityToken, error) {
	var m models.CommunityToken
	if err := GetDB(ctx, r.db).Where("community_id = ?", communityID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return r.toEntity(&m), nil
}

// Save upserts the token record on community_id
func (r *CommunityTokenRepository) Save(ctx context.Context, token *entities.CommunityToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	now := time.Now()
	if token.CreatedAt.IsZero() {
		token.CreatedAt = now
	}
	token.UpdatedAt = now

	m := &models.CommunityToken{
		ID:             token.ID,
		CommunityID:    token.CommunityID,
		ChainProfileID: token.ChainProfileID,
		TokenAddress:   token.TokenAddress.Ptr(),
		Name:           token.Name,
		Symbol:         token.Symbol,
		CreatedAt:      token.CreatedAt,
		UpdatedAt:      token.UpdatedAt,
	}
	db := GetDB(ctx, r.db)
	err := db.Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "community_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"chain_profile_id", "token_address", "name", "symbol", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}

	// the existing row keeps its id on conflict
	var stored models.CommunityToken
	if err := db.Select("id", "created_at").Where("community_id = ?", token.CommunityID).First(&stored).Error; err != nil {
		return err
	}
	token.ID = stored.ID
	token.CreatedAt = stored.CreatedAt
	return nil
}

// ResetAddress clears the deployed address so the community can redeploy
func (r *CommunityTokenRepository) ResetAddress(ctx context.Context, communityID uuid.UUID) error {
	result := GetDB(ctx, r.db).Model(&models.CommunityToken{}).
		Where("community_id = ?", communityID).
		Updates(map[string]interface{}{
			"token_address": gorm.Expr("NULL"),
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func (r *CommunityTokenRepository) toEntity(m *models.CommunityToken) *entities.CommunityToken {
	return &entities.CommunityToken{
		ID:             m.ID,
		CommunityID:    m.CommunityID,
		ChainProfileID: m.ChainProfileID,
		TokenAddress:   null.StringFromPtr(m.TokenAddress),
		Name:           m.Name,
		Symbol:         m.Symbol,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
