package entities

import (
	"time"

	"github.com/google/uuid"
)

// CustodialWallet is a keypair held on behalf of an account. The private key
// is only ever stored as a key vault record.
type CustodialWallet struct {
	ID                  uuid.UUID `json:"id"`
	AccountID           uuid.UUID `json:"accountId"`
	Address             string    `json:"address"`
	EncryptedPrivateKey string    `json:"-"`
	IsDefault           bool      `json:"isDefault"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}
