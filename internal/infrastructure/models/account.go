package models

import (
	"time"

	"github.com/google/uuid"
)

type Account struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Email         string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	Name          string    `gorm:"type:varchar(100);not null"`
	Role          string    `gorm:"type:varchar(50);not null;default:'MEMBER'"`
	CommunityID   uuid.UUID `gorm:"type:uuid;not null;index"`
	WalletAddress string    `gorm:"type:varchar(42)"`
	Balance       int64     `gorm:"not null;default:0;check:balance >= 0"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
