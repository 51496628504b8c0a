package models

import (
	"time"

	"github.com/google/uuid"
)

type CommunityToken struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	CommunityID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ChainProfileID uuid.UUID `gorm:"type:uuid;not null;index"`
	TokenAddress   *string   `gorm:"type:varchar(42)"`
	Name           string    `gorm:"type:varchar(64);not null"`
	Symbol         string    `gorm:"type:varchar(11);not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Relations
	ChainProfile ChainProfile `gorm:"foreignKey:ChainProfileID;references:ID"`
}
