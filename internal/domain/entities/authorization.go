package entities

import (
	"math/big"
	"time"
)

// NonceKind selects one of the per-signer replay counters on the token contract.
// TX is the relay wallet's account nonce, used only as a queue key.
type NonceKind string

const (
	NonceKindMint   NonceKind = "MINT"
	NonceKindBurn   NonceKind = "BURN"
	NonceKindPermit NonceKind = "PERMIT"
	NonceKindTx     NonceKind = "TX"
)

// Authorization is a single-use EIP-712 signature with the values it commits to
type Authorization struct {
	V        uint8    `json:"v"`
	R        [32]byte `json:"r"`
	S        [32]byte `json:"s"`
	Nonce    *big.Int `json:"nonce"`
	Deadline *big.Int `json:"deadline"`
}

// DeadlineTime returns the deadline as wall-clock time.
func (a *Authorization) DeadlineTime() time.Time {
	if a.Deadline == nil {
		return time.Time{}
	}
	return time.Unix(a.Deadline.Int64(), 0)
}
