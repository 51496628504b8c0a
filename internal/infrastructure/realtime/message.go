package realtime

import (
	"encoding/json"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
)

// Server and client message types
const (
	TypeAuthenticate      = "authenticate"
	TypeAuthenticated     = "authenticated"
	TypeTransactionUpdate = "transaction-update"
	TypeBalanceUpdate     = "balance-update"
)

// Close reasons sent when the authentication handshake fails
const (
	ReasonAuthRequired      = "auth-required"
	ReasonIdentityMismatch  = "identity-mismatch"
	ReasonCommunityMismatch = "community-mismatch"
	ReasonAccountNotFound   = "account-not-found"
)

// Message is the envelope of every frame on the wire
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// AuthenticateRequest is the first frame a client sends after connecting
type AuthenticateRequest struct {
	Type        string     `json:"type"`
	AccountID   uuid.UUID  `json:"accountId"`
	CommunityID *uuid.UUID `json:"communityId,omitempty"`
}

// Authenticated confirms the identity bound to the connection
type Authenticated struct {
	AccountID   uuid.UUID `json:"accountId"`
	CommunityID uuid.UUID `json:"communityId"`
}

// TransactionUpdate carries a settlement lifecycle event
type TransactionUpdate struct {
	Transaction *entities.TransactionView     `json:"transaction"`
	Type        entities.TransactionEventType `json:"type"`
}

// BalanceUpdate carries an account's new balance
type BalanceUpdate struct {
	Balance int64 `json:"balance"`
}

// NewMessage encodes data under msgType
func NewMessage(msgType string, data interface{}) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: msgType, Data: raw}, nil
}

// AccountGroup is the private channel of one account
func AccountGroup(id uuid.UUID) string {
	return "account:" + id.String()
}

// CommunityGroup is the shared channel of one community
func CommunityGroup(id uuid.UUID) string {
	return "community:" + id.String()
}
