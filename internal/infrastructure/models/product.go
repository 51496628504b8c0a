package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProviderID  uuid.UUID `gorm:"type:uuid;not null;index"`
	CommunityID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(255);not null"`
	Price       int64     `gorm:"not null"`
	IsAvailable bool      `gorm:"default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
