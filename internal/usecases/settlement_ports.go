package usecases

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/google/uuid"
	"rete.backend/internal/domain/entities"
	"rete.backend/internal/infrastructure/signer"
)

// ChainGateway is the on-chain side of a settlement
type ChainGateway interface {
	TokenName(ctx context.Context, profile *entities.ChainProfile, tokenAddress string) (string, error)
	Decimals(ctx context.Context, profile *entities.ChainProfile, tokenAddress string) (uint8, error)
	TokenMetadata(ctx context.Context, profile *entities.ChainProfile, tokenAddress string) (*entities.TokenMetadata, error)
	Allowance(ctx context.Context, profile *entities.ChainProfile, tokenAddress, owner, spender string) (*big.Int, error)
	SubmitMint(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, signer, to string, amount *big.Int, auth *entities.Authorization) (string, error)
	SubmitBurn(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, signer, from string, amount *big.Int, auth *entities.Authorization) (string, error)
	SubmitPermit(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, owner, spender string, value *big.Int, auth *entities.Authorization) (string, error)
	SubmitTransferFrom(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, from, to string, value *big.Int) (string, error)
	CreateToken(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, name, symbol, owner, adminSpender string) (*string, string, error)
	WaitForReceipt(ctx context.Context, profile *entities.ChainProfile, txHash string) (*entities.ChainReceipt, error)
	ReceiptStatus(ctx context.Context, profile *entities.ChainProfile, txHash string) (entities.ReceiptState, error)
}

// AuthorizationSigner produces EIP-712 authorizations
type AuthorizationSigner interface {
	Sign(ctx context.Context, req signer.AuthorizationRequest) (*entities.Authorization, error)
}

// KeyVault encrypts and decrypts custodial private keys
type KeyVault interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(record string) (string, error)
}

// SettlementNotifier publishes settlement lifecycle and balance events
type SettlementNotifier interface {
	TransactionEvent(ctx context.Context, view *entities.TransactionView, eventType entities.TransactionEventType)
	BalanceChanged(ctx context.Context, accountID uuid.UUID, balance int64)
}
