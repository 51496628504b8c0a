package models

import (
	"time"

	"github.com/google/uuid"
)

type SettlementTransaction struct {
	ID                    uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Kind                  string     `gorm:"type:varchar(32);not null"`
	Status                string     `gorm:"type:varchar(16);not null;index"`
	Amount                int64      `gorm:"not null"`
	SettledAmount         int64      `gorm:"not null;default:0"`
	TxHash                *string    `gorm:"type:varchar(66)"`
	PermitTxHash          *string    `gorm:"type:varchar(66)"`
	FromAccountID         *uuid.UUID `gorm:"type:uuid;index"`
	ToAccountID           *uuid.UUID `gorm:"type:uuid;index"`
	ProductID             *uuid.UUID `gorm:"type:uuid"`
	CommunityID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	AuthorizationDeadline time.Time  `gorm:"not null"`
	FailureReason         *string    `gorm:"type:text"`
	CreatedAt             time.Time  `gorm:"index"`
	UpdatedAt             time.Time
}
