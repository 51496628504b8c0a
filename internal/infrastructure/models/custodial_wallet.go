package models

import (
	"time"

	"github.com/google/uuid"
)

type CustodialWallet struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	AccountID           uuid.UUID `gorm:"type:uuid;not null;index"`
	Address             string    `gorm:"type:varchar(42);not null;uniqueIndex"`
	EncryptedPrivateKey string    `gorm:"type:text;not null"`
	IsDefault           bool      `gorm:"default:false"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}
