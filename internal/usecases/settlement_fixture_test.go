package usecases_test

import (
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"
	"rete.backend/internal/domain/entities"
	"rete.backend/internal/infrastructure/signer"
	"rete.backend/internal/usecases"
	"rete.backend/pkg/utils"
)

const (
	testTokenAddress = "0x00000000000000000000000000000000000000aa"
	testDecimals     = uint8(18)
)

type settlementFixture struct {
	accounts    *MockAccountRepository
	wallets     *MockWalletRepository
	tokens      *MockCommunityTokenRepository
	profiles    *MockChainProfileRepository
	settlements *MockSettlementRepository
	products    *MockProductRepository
	uow         *MockUnitOfWork
	gateway     *MockChainGateway
	signer      *MockAuthorizationSigner
	vault       *MockKeyVault
	notifier    *MockSettlementNotifier
	uc          *usecases.SettlementUsecase

	now         time.Time
	communityID uuid.UUID
	profile     *entities.ChainProfile
	token       *entities.CommunityToken
	relay       *ecdsa.PrivateKey
	coordinator *entities.Account

	mu      sync.Mutex
	keys    map[uuid.UUID]*ecdsa.PrivateKey
	created []*entities.SettlementTransaction
	events  []entities.TransactionEventType
	signed  []signer.AuthorizationRequest
}

func newSettlementFixture(t *testing.T) *settlementFixture {
	t.Helper()
	f := &settlementFixture{
		accounts:    new(MockAccountRepository),
		wallets:     new(MockWalletRepository),
		tokens:      new(MockCommunityTokenRepository),
		profiles:    new(MockChainProfileRepository),
		settlements: new(MockSettlementRepository),
		products:    new(MockProductRepository),
		uow:         new(MockUnitOfWork),
		gateway:     new(MockChainGateway),
		signer:      new(MockAuthorizationSigner),
		vault:       new(MockKeyVault),
		notifier:    new(MockSettlementNotifier),
		now:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		communityID: uuid.New(),
		keys:        map[uuid.UUID]*ecdsa.PrivateKey{},
	}

	relay, err := crypto.GenerateKey()
	require.NoError(t, err)
	f.relay = relay
	f.profile = &entities.ChainProfile{
		ID:                uuid.New(),
		Name:              "base-sepolia",
		ChainID:           84532,
		ExplorerURL:       "https://sepolia.basescan.org/",
		EncryptedAdminKey: "vault:relay",
		AdminAddress:      crypto.PubkeyToAddress(relay.PublicKey).Hex(),
	}
	f.token = &entities.CommunityToken{
		ID:             uuid.New(),
		CommunityID:    f.communityID,
		ChainProfileID: f.profile.ID,
		TokenAddress:   null.StringFrom(testTokenAddress),
		Name:           "Rete Coin",
		Symbol:         "RETE",
	}

	f.vault.On("Decrypt", "vault:relay").Return(hex.EncodeToString(crypto.FromECDSA(relay)), nil).Maybe()
	f.tokens.On("GetByCommunityID", mock.Anything, f.communityID).Return(f.token, nil).Maybe()
	f.profiles.On("GetByID", mock.Anything, f.profile.ID).Return(f.profile, nil).Maybe()
	f.gateway.On("TokenName", mock.Anything, f.profile, testTokenAddress).Return("Rete Coin", nil).Maybe()
	f.gateway.On("Decimals", mock.Anything, f.profile, testTokenAddress).Return(testDecimals, nil).Maybe()
	f.uow.On("Do", mock.Anything, mock.Anything).Return(nil).Maybe()

	f.signer.On("Sign", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		f.mu.Lock()
		f.signed = append(f.signed, args.Get(1).(signer.AuthorizationRequest))
		f.mu.Unlock()
	}).Return(&entities.Authorization{V: 27, Nonce: big.NewInt(0), Deadline: big.NewInt(f.now.Add(time.Hour).Unix())}, nil).Maybe()

	f.settlements.On("Create", mock.Anything, mock.AnythingOfType("*entities.SettlementTransaction")).Run(func(args mock.Arguments) {
		tx := args.Get(1).(*entities.SettlementTransaction)
		tx.ID = uuid.New()
		f.mu.Lock()
		f.created = append(f.created, tx)
		f.mu.Unlock()
	}).Return(nil).Maybe()
	f.settlements.On("MarkSubmitted", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	f.settlements.On("MarkPermitSubmitted", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	f.notifier.On("TransactionEvent", mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		f.mu.Lock()
		f.events = append(f.events, args.Get(2).(entities.TransactionEventType))
		f.mu.Unlock()
	}).Maybe()
	f.notifier.On("BalanceChanged", mock.Anything, mock.Anything, mock.Anything).Maybe()

	f.coordinator = f.addAccount(t, "coord@rete.test", entities.AccountRoleCoordinator, 0)

	f.uc = usecases.NewSettlementUsecase(usecases.SettlementDeps{
		Accounts:    f.accounts,
		Wallets:     f.wallets,
		Tokens:      f.tokens,
		Profiles:    f.profiles,
		Settlements: f.settlements,
		Products:    f.products,
		UnitOfWork:  f.uow,
		Gateway:     f.gateway,
		Signer:      f.signer,
		Vault:       f.vault,
		Notifier:    f.notifier,
	}, usecases.SettlementConfig{})
	f.uc.SetClock(func() time.Time { return f.now })
	return f
}

// addAccount registers a community member with a default custodial wallet.
func (f *settlementFixture) addAccount(t *testing.T, email string, role entities.AccountRole, balance int64) *entities.Account {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	account := &entities.Account{
		ID:            uuid.New(),
		Email:         email,
		Name:          strings.Split(email, "@")[0],
		Role:          role,
		CommunityID:   f.communityID,
		WalletAddress: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		Balance:       balance,
	}
	record := "vault:" + email
	f.keys[account.ID] = key
	f.accounts.On("GetByID", mock.Anything, account.ID).Return(account, nil).Maybe()
	f.accounts.On("GetByEmail", mock.Anything, email).Return(account, nil).Maybe()
	f.wallets.On("GetDefaultByAccountID", mock.Anything, account.ID).Return(&entities.CustodialWallet{
		ID:                  uuid.New(),
		AccountID:           account.ID,
		Address:             account.WalletAddress,
		EncryptedPrivateKey: record,
		IsDefault:           true,
	}, nil).Maybe()
	f.vault.On("Decrypt", record).Return(hex.EncodeToString(crypto.FromECDSA(key)), nil).Maybe()
	return account
}

func (f *settlementFixture) addressOf(account *entities.Account) string {
	return crypto.PubkeyToAddress(f.keys[account.ID].PublicKey).Hex()
}

func (f *settlementFixture) relayAddress() string {
	return crypto.PubkeyToAddress(f.relay.PublicKey).Hex()
}

func (f *settlementFixture) receipt(hash string) {
	f.gateway.On("WaitForReceipt", mock.Anything, f.profile, hash).Return(&entities.ChainReceipt{TxHash: hash, BlockNumber: 42}, nil).Maybe()
}

func (f *settlementFixture) eventTypes() []entities.TransactionEventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.TransactionEventType(nil), f.events...)
}

func (f *settlementFixture) createdRecords() []*entities.SettlementTransaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entities.SettlementTransaction(nil), f.created...)
}

// wei matches a base-unit amount of the test token.
func wei(amount int64) interface{} {
	want := utils.ToBaseUnits(amount, testDecimals)
	return mock.MatchedBy(func(v *big.Int) bool { return v != nil && v.Cmp(want) == 0 })
}

func txHash(tag string) string {
	return "0x" + strings.Repeat(tag, 64/len(tag))
}
