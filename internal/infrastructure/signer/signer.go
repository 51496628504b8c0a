package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/infrastructure/metrics"
)

// NonceSource reads the on-chain replay counter for a signer
type NonceSource interface {
	Nonce(ctx context.Context, profile *entities.ChainProfile, tokenAddress string, kind entities.NonceKind, owner string) (*big.Int, error)
}

// AuthorizationRequest is everything needed to authorize one token operation.
// Counterparty is the mint recipient, the burn holder or the permit spender.
type AuthorizationRequest struct {
	Kind         entities.NonceKind
	Profile      *entities.ChainProfile
	TokenAddress string
	TokenName    string
	PrivateKey   *ecdsa.PrivateKey
	Counterparty string
	Amount       *big.Int
	Deadline     time.Time
}

// Signer produces EIP-712 authorizations for ReteToken. It reads the nonce
// and signs; it does not reserve nonces, so callers serialize per signer.
type Signer struct {
	nonces  NonceSource
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewSigner creates a signer reading nonces from src
func NewSigner(src NonceSource, m *metrics.Metrics) *Signer {
	return &Signer{nonces: src, metrics: m, now: time.Now}
}

// QueueKey is the serialization lane for a signer's nonce counter of kind
func QueueKey(signer common.Address, kind entities.NonceKind) string {
	return strings.ToLower(signer.Hex()) + ":" + string(kind)
}

// Sign validates req, reads the current nonce and signs the typed message
func (s *Signer) Sign(ctx context.Context, req AuthorizationRequest) (*entities.Authorization, error) {
	counterparty, err := s.validate(req)
	if err != nil {
		return nil, err
	}
	signerAddr := crypto.PubkeyToAddress(req.PrivateKey.PublicKey)

	nonce, err := s.nonces.Nonce(ctx, req.Profile, req.TokenAddress, req.Kind, signerAddr.Hex())
	if err != nil {
		return nil, err
	}

	deadline := big.NewInt(req.Deadline.Unix())
	digest, err := Digest(TypedMessage{
		Kind:         req.Kind,
		TokenName:    req.TokenName,
		ChainID:      req.Profile.ChainID,
		TokenAddress: common.HexToAddress(req.TokenAddress),
		Signer:       signerAddr,
		Counterparty: counterparty,
		Amount:       req.Amount,
		Nonce:        nonce,
		Deadline:     deadline,
	})
	if err != nil {
		return nil, domainerrors.Crypto("failed to hash authorization", err)
	}

	sig, err := crypto.Sign(digest, req.PrivateKey)
	if err != nil {
		return nil, domainerrors.Crypto("failed to sign authorization", err)
	}

	auth := &entities.Authorization{V: sig[64] + 27, Nonce: nonce, Deadline: deadline}
	copy(auth.R[:], sig[:32])
	copy(auth.S[:], sig[32:64])

	s.metrics.AuthorizationSigned(string(req.Kind))
	return auth, nil
}

func (s *Signer) validate(req AuthorizationRequest) (common.Address, error) {
	if _, ok := schemas[req.Kind]; !ok {
		return common.Address{}, domainerrors.Validation(fmt.Sprintf("unsupported authorization kind %q", req.Kind))
	}
	if req.Profile == nil {
		return common.Address{}, domainerrors.Configuration("chain profile is required to sign")
	}
	if req.PrivateKey == nil {
		return common.Address{}, domainerrors.NotFound("signing wallet not found")
	}
	if !req.Deadline.After(s.now()) {
		return common.Address{}, domainerrors.Validation("authorization deadline must be in the future")
	}
	if req.Amount == nil || req.Amount.Sign() <= 0 {
		return common.Address{}, domainerrors.Validation("amount must be greater than zero")
	}
	if !common.IsHexAddress(req.TokenAddress) {
		return common.Address{}, domainerrors.Validation(fmt.Sprintf("invalid token address %q", req.TokenAddress))
	}
	if !common.IsHexAddress(req.Counterparty) {
		return common.Address{}, domainerrors.Validation(fmt.Sprintf("invalid counterparty address %q", req.Counterparty))
	}
	return common.HexToAddress(req.Counterparty), nil
}
