package models

import (
	"time"

	"github.com/google/uuid"
)

type ChainProfile struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name              string    `gorm:"type:varchar(100);not null"`
	RPCURL            string    `gorm:"type:text;not null;column:rpc_url"`
	ChainID           int64     `gorm:"not null;index"`
	FactoryAddress    string    `gorm:"type:varchar(42);not null"`
	ExplorerURL       string    `gorm:"type:text"`
	EncryptedAdminKey string    `gorm:"type:text;not null"`
	AdminAddress      string    `gorm:"type:varchar(42);not null"`
	CreatedAt         time.Time
}
