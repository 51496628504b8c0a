package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
)

// SettlementKind represents the operation a settlement performs on-chain
type SettlementKind string

const (
	SettlementKindMint     SettlementKind = "MINT_RECEIVED"
	SettlementKindTransfer SettlementKind = "PEER_SEND"
	SettlementKindPurchase SettlementKind = "MARKETPLACE_PURCHASE"
	SettlementKindBurn     SettlementKind = "BURN"
)

// SettlementStatus represents settlement status. Transitions are one-way:
// PENDING -> COMPLETED or PENDING -> FAILED.
type SettlementStatus string

const (
	SettlementStatusPending   SettlementStatus = "PENDING"
	SettlementStatusCompleted SettlementStatus = "COMPLETED"
	SettlementStatusFailed    SettlementStatus = "FAILED"
)

// SettlementTransaction is the persisted intent and audit record of one settlement
type SettlementTransaction struct {
	ID                    uuid.UUID        `json:"id"`
	Kind                  SettlementKind   `json:"kind"`
	Status                SettlementStatus `json:"status"`
	Amount                int64            `json:"amount"`
	SettledAmount         int64            `json:"settledAmount"`
	TxHash                null.String      `json:"txHash"`
	PermitTxHash          null.String      `json:"permitTxHash,omitempty"`
	FromAccountID         *uuid.UUID       `json:"fromAccountId,omitempty"`
	ToAccountID           *uuid.UUID       `json:"toAccountId,omitempty"`
	ProductID             *uuid.UUID       `json:"productId,omitempty"`
	CommunityID           uuid.UUID        `json:"communityId"`
	AuthorizationDeadline time.Time        `json:"authorizationDeadline"`
	FailureReason         null.String      `json:"failureReason,omitempty"`
	CreatedAt             time.Time        `json:"createdAt"`
	UpdatedAt             time.Time        `json:"updatedAt"`
}

// IsPending reports whether the settlement still awaits resolution.
func (t *SettlementTransaction) IsPending() bool {
	return t.Status == SettlementStatusPending
}

// EffectiveAmount is the amount that moved on-chain. Transfers may settle
// less than requested when the granted allowance is lower.
func (t *SettlementTransaction) EffectiveAmount() int64 {
	if t.SettledAmount > 0 {
		return t.SettledAmount
	}
	return t.Amount
}

// Involves reports whether accountID is either party of the settlement.
func (t *SettlementTransaction) Involves(accountID uuid.UUID) bool {
	return (t.FromAccountID != nil && *t.FromAccountID == accountID) ||
		(t.ToAccountID != nil && *t.ToAccountID == accountID)
}

// TransactionEventType represents the lifecycle event published for a settlement
type TransactionEventType string

const (
	TransactionEventCreated   TransactionEventType = "created"
	TransactionEventCompleted TransactionEventType = "completed"
	TransactionEventFailed    TransactionEventType = "failed"
)

// TransactionView is a settlement with its counterparts' display names resolved
type TransactionView struct {
	*SettlementTransaction
	FromName    string `json:"fromName,omitempty"`
	ToName      string `json:"toName,omitempty"`
	ProductName string `json:"productName,omitempty"`
	ExplorerURL string `json:"explorerUrl,omitempty"`
}

// ChainReceipt is the confirmation of a mined transaction
type ChainReceipt struct {
	TxHash      string `json:"txHash"`
	BlockNumber uint64 `json:"blockNumber"`
}

// ReceiptState is the reconciliation view of a broadcast transaction
type ReceiptState string

const (
	ReceiptStateMissing  ReceiptState = "MISSING"
	ReceiptStateSuccess  ReceiptState = "SUCCESS"
	ReceiptStateReverted ReceiptState = "REVERTED"
)

// ReconcilePolicy decides what happens to a settlement that cannot complete
type ReconcilePolicy string

const (
	ReconcilePolicyMarkFailed   ReconcilePolicy = "mark-failed"
	ReconcilePolicyLeavePending ReconcilePolicy = "leave-pending"
)

// Valid reports whether p is a known policy.
func (p ReconcilePolicy) Valid() bool {
	return p == ReconcilePolicyMarkFailed || p == ReconcilePolicyLeavePending
}

// ReconcileOutcome describes what a reconciliation pass did with one settlement
type ReconcileOutcome string

const (
	ReconcileOutcomeCompleted ReconcileOutcome = "completed"
	ReconcileOutcomeFailed    ReconcileOutcome = "failed"
	ReconcileOutcomeUnchanged ReconcileOutcome = "unchanged"
	ReconcileOutcomeResolved  ReconcileOutcome = "already-resolved"
)

// ReconcileResult reports the reconciliation of one settlement
type ReconcileResult struct {
	TransactionID uuid.UUID        `json:"transactionId"`
	Outcome       ReconcileOutcome `json:"outcome"`
	Status        SettlementStatus `json:"status"`
	Reason        string           `json:"reason,omitempty"`
}

// DistributionItem represents one recipient of a distribution
type DistributionItem struct {
	Email  string `json:"email" binding:"required,email"`
	Amount int64  `json:"amount" binding:"required,gt=0"`
}

// DistributeInput represents input for minting tokens to community members
type DistributeInput struct {
	Recipients []DistributionItem `json:"recipients" binding:"required,min=1,dive"`
}

// DistributedItem is a successful distribution entry
type DistributedItem struct {
	Email         string    `json:"email"`
	AccountID     uuid.UUID `json:"accountId"`
	Amount        int64     `json:"amount"`
	TxHash        string    `json:"txHash"`
	TransactionID uuid.UUID `json:"transactionId"`
}

// ItemError is a per-item failure inside a batch settlement
type ItemError struct {
	Target string `json:"target"`
	Amount int64  `json:"amount,omitempty"`
	Error  string `json:"error"`
}

// DistributeResult represents the outcome of a distribution batch
type DistributeResult struct {
	Distributed      []DistributedItem `json:"distributed"`
	Errors           []ItemError       `json:"errors"`
	TotalDistributed int64             `json:"totalDistributed"`
}

// BurnInput represents input for a single burn. An empty AccountID burns
// from the caller's own balance.
type BurnInput struct {
	AccountID *uuid.UUID `json:"accountId,omitempty"`
	Amount    int64      `json:"amount" binding:"required,gt=0"`
}

// BurnedItem is a successful burn entry
type BurnedItem struct {
	AccountID     uuid.UUID `json:"accountId"`
	Amount        int64     `json:"amount"`
	TxHash        string    `json:"txHash"`
	TransactionID uuid.UUID `json:"transactionId"`
}

// BurnAllResult represents the outcome of burning every community balance
type BurnAllResult struct {
	TotalBurned   int64        `json:"totalBurned"`
	UsersAffected int          `json:"usersAffected"`
	Burned        []BurnedItem `json:"burned"`
	Errors        []ItemError  `json:"errors"`
}

// TransferInput represents input for a peer transfer
type TransferInput struct {
	RecipientEmail string `json:"recipientEmail" binding:"required,email"`
	Amount         int64  `json:"amount" binding:"required,gt=0"`
}

// PurchaseInput represents input for a marketplace purchase
type PurchaseInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
}

// BalanceView is the balance of an account as the ledger sees it
type BalanceView struct {
	AccountID uuid.UUID `json:"accountId"`
	Balance   int64     `json:"balance"`
	Derived   bool      `json:"derived"`
}
