package usecases_test

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"rete.backend/internal/domain/entities"
	"rete.backend/internal/infrastructure/signer"
	"rete.backend/pkg/utils"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*entities.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) ListByCommunity(ctx context.Context, communityID uuid.UUID) ([]*entities.Account, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Account), args.Error(1)
}

func (m *MockAccountRepository) AdjustBalance(ctx context.Context, id uuid.UUID, delta int64) (int64, error) {
	args := m.Called(ctx, id, delta)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAccountRepository) UpdateWalletAddress(ctx context.Context, id uuid.UUID, address string) error {
	args := m.Called(ctx, id, address)
	return args.Error(0)
}

// Mock WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *entities.CustodialWallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.CustodialWallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CustodialWallet), args.Error(1)
}

func (m *MockWalletRepository) GetDefaultByAccountID(ctx context.Context, accountID uuid.UUID) (*entities.CustodialWallet, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CustodialWallet), args.Error(1)
}

func (m *MockWalletRepository) ListByAccountID(ctx context.Context, accountID uuid.UUID) ([]*entities.CustodialWallet, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.CustodialWallet), args.Error(1)
}

func (m *MockWalletRepository) SetDefault(ctx context.Context, accountID, walletID uuid.UUID) error {
	args := m.Called(ctx, accountID, walletID)
	return args.Error(0)
}

// Mock CommunityTokenRepository
type MockCommunityTokenRepository struct {
	mock.Mock
}

func (m *MockCommunityTokenRepository) GetByCommunityID(ctx context.Context, communityID uuid.UUID) (*entities.CommunityToken, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.CommunityToken), args.Error(1)
}

func (m *MockCommunityTokenRepository) Save(ctx context.Context, token *entities.CommunityToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockCommunityTokenRepository) ResetAddress(ctx context.Context, communityID uuid.UUID) error {
	args := m.Called(ctx, communityID)
	return args.Error(0)
}

// Mock ChainProfileRepository
type MockChainProfileRepository struct {
	mock.Mock
}

func (m *MockChainProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.ChainProfile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ChainProfile), args.Error(1)
}

func (m *MockChainProfileRepository) GetByChainID(ctx context.Context, chainID int64) (*entities.ChainProfile, error) {
	args := m.Called(ctx, chainID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ChainProfile), args.Error(1)
}

func (m *MockChainProfileRepository) Create(ctx context.Context, profile *entities.ChainProfile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

func (m *MockChainProfileRepository) List(ctx context.Context) ([]*entities.ChainProfile, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.ChainProfile), args.Error(1)
}

// Mock SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) Create(ctx context.Context, tx *entities.SettlementTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.SettlementTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.SettlementTransaction), args.Error(1)
}

func (m *MockSettlementRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, txHash string, settledAmount int64) error {
	args := m.Called(ctx, id, txHash, settledAmount)
	return args.Error(0)
}

func (m *MockSettlementRepository) MarkPermitSubmitted(ctx context.Context, id uuid.UUID, permitTxHash string) error {
	args := m.Called(ctx, id, permitTxHash)
	return args.Error(0)
}

func (m *MockSettlementRepository) Resolve(ctx context.Context, id uuid.UUID, status entities.SettlementStatus, reason string) error {
	args := m.Called(ctx, id, status, reason)
	return args.Error(0)
}

func (m *MockSettlementRepository) ListPending(ctx context.Context, createdBefore time.Time, limit int) ([]*entities.SettlementTransaction, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SettlementTransaction), args.Error(1)
}

func (m *MockSettlementRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, pagination utils.PaginationParams) ([]*entities.SettlementTransaction, int64, error) {
	args := m.Called(ctx, accountID, pagination)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.SettlementTransaction), args.Get(1).(int64), args.Error(2)
}

func (m *MockSettlementRepository) ListPendingByAccount(ctx context.Context, accountID uuid.UUID) ([]*entities.SettlementTransaction, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SettlementTransaction), args.Error(1)
}

func (m *MockSettlementRepository) ListCompletedByCommunity(ctx context.Context, communityID uuid.UUID) ([]*entities.SettlementTransaction, error) {
	args := m.Called(ctx, communityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.SettlementTransaction), args.Error(1)
}

// Mock ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Product), args.Error(1)
}

// Mock ChainGateway
type MockChainGateway struct {
	mock.Mock
}

func (m *MockChainGateway) TokenName(ctx context.Context, profile *entities.ChainProfile, tokenAddress string) (string, error) {
	args := m.Called(ctx, profile, tokenAddress)
	return args.String(0), args.Error(1)
}

func (m *MockChainGateway) Decimals(ctx context.Context, profile *entities.ChainProfile, tokenAddress string) (uint8, error) {
	args := m.Called(ctx, profile, tokenAddress)
	return args.Get(0).(uint8), args.Error(1)
}

func (m *MockChainGateway) TokenMetadata(ctx context.Context, profile *entities.ChainProfile, tokenAddress string) (*entities.TokenMetadata, error) {
	args := m.Called(ctx, profile, tokenAddress)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.TokenMetadata), args.Error(1)
}

func (m *MockChainGateway) Allowance(ctx context.Context, profile *entities.ChainProfile, tokenAddress, owner, spender string) (*big.Int, error) {
	args := m.Called(ctx, profile, tokenAddress, owner, spender)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}

func (m *MockChainGateway) SubmitMint(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, signerAddr, to string, amount *big.Int, auth *entities.Authorization) (string, error) {
	args := m.Called(ctx, profile, relay, tokenAddress, signerAddr, to, amount, auth)
	return args.String(0), args.Error(1)
}

func (m *MockChainGateway) SubmitBurn(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, signerAddr, from string, amount *big.Int, auth *entities.Authorization) (string, error) {
	args := m.Called(ctx, profile, relay, tokenAddress, signerAddr, from, amount, auth)
	return args.String(0), args.Error(1)
}

func (m *MockChainGateway) SubmitPermit(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, owner, spender string, value *big.Int, auth *entities.Authorization) (string, error) {
	args := m.Called(ctx, profile, relay, tokenAddress, owner, spender, value, auth)
	return args.String(0), args.Error(1)
}

func (m *MockChainGateway) SubmitTransferFrom(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, from, to string, value *big.Int) (string, error) {
	args := m.Called(ctx, profile, relay, tokenAddress, from, to, value)
	return args.String(0), args.Error(1)
}

func (m *MockChainGateway) CreateToken(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, name, symbol, owner, adminSpender string) (*string, string, error) {
	args := m.Called(ctx, profile, relay, name, symbol, owner, adminSpender)
	var addr *string
	if args.Get(0) != nil {
		addr = args.Get(0).(*string)
	}
	return addr, args.String(1), args.Error(2)
}

func (m *MockChainGateway) WaitForReceipt(ctx context.Context, profile *entities.ChainProfile, txHash string) (*entities.ChainReceipt, error) {
	args := m.Called(ctx, profile, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ChainReceipt), args.Error(1)
}

func (m *MockChainGateway) ReceiptStatus(ctx context.Context, profile *entities.ChainProfile, txHash string) (entities.ReceiptState, error) {
	args := m.Called(ctx, profile, txHash)
	return args.Get(0).(entities.ReceiptState), args.Error(1)
}

// Mock AuthorizationSigner
type MockAuthorizationSigner struct {
	mock.Mock
}

func (m *MockAuthorizationSigner) Sign(ctx context.Context, req signer.AuthorizationRequest) (*entities.Authorization, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Authorization), args.Error(1)
}

// Mock KeyVault
type MockKeyVault struct {
	mock.Mock
}

func (m *MockKeyVault) Encrypt(plaintext string) (string, error) {
	args := m.Called(plaintext)
	return args.String(0), args.Error(1)
}

func (m *MockKeyVault) Decrypt(record string) (string, error) {
	args := m.Called(record)
	return args.String(0), args.Error(1)
}

// Mock SettlementNotifier
type MockSettlementNotifier struct {
	mock.Mock
}

func (m *MockSettlementNotifier) TransactionEvent(ctx context.Context, view *entities.TransactionView, eventType entities.TransactionEventType) {
	m.Called(ctx, view, eventType)
}

func (m *MockSettlementNotifier) BalanceChanged(ctx context.Context, accountID uuid.UUID, balance int64) {
	m.Called(ctx, accountID, balance)
}
