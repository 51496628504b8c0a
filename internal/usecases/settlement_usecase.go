package usecases

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/domain/repositories"
	"rete.backend/internal/infrastructure/metrics"
	"rete.backend/internal/infrastructure/signer"
	"rete.backend/pkg/logger"
	"rete.backend/pkg/utils"
)

const (
	DefaultAuthorizationWindow = time.Hour
	DefaultReconcileMinAge     = 5 * time.Minute
)

// SettlementConfig tunes the orchestrator
type SettlementConfig struct {
	// AuthorizationWindow is how long a signed authorization stays valid.
	AuthorizationWindow time.Duration
	// ReconcileMinAge keeps the batch reconciler away from in-flight settlements.
	ReconcileMinAge time.Duration
}

// SettlementDeps groups the collaborators of SettlementUsecase
type SettlementDeps struct {
	Accounts    repositories.AccountRepository
	Wallets     repositories.WalletRepository
	Tokens      repositories.CommunityTokenRepository
	Profiles    repositories.ChainProfileRepository
	Settlements repositories.SettlementRepository
	Products    repositories.ProductRepository
	UnitOfWork  repositories.UnitOfWork
	Gateway     ChainGateway
	Signer      AuthorizationSigner
	Vault       KeyVault
	Notifier    SettlementNotifier
	Queue       *utils.KeyedQueue
	Metrics     *metrics.Metrics
}

// SettlementUsecase orchestrates mint, burn, transfer and purchase settlements.
// Every settlement is persisted as PENDING first, carries its broadcast hash as
// soon as it exists and is completed together with its ledger effects in one
// database transaction.
type SettlementUsecase struct {
	accounts    repositories.AccountRepository
	wallets     repositories.WalletRepository
	tokens      repositories.CommunityTokenRepository
	profiles    repositories.ChainProfileRepository
	settlements repositories.SettlementRepository
	products    repositories.ProductRepository
	uow         repositories.UnitOfWork
	gateway     ChainGateway
	signer      AuthorizationSigner
	vault       KeyVault
	notifier    SettlementNotifier
	queue       *utils.KeyedQueue
	metrics     *metrics.Metrics
	cfg         SettlementConfig
	now         func() time.Time
}

// NewSettlementUsecase creates a new settlement usecase
func NewSettlementUsecase(deps SettlementDeps, cfg SettlementConfig) *SettlementUsecase {
	if cfg.AuthorizationWindow <= 0 {
		cfg.AuthorizationWindow = DefaultAuthorizationWindow
	}
	if cfg.ReconcileMinAge <= 0 {
		cfg.ReconcileMinAge = DefaultReconcileMinAge
	}
	if deps.Queue == nil {
		deps.Queue = utils.NewKeyedQueue()
	}
	return &SettlementUsecase{
		accounts:    deps.Accounts,
		wallets:     deps.Wallets,
		tokens:      deps.Tokens,
		profiles:    deps.Profiles,
		settlements: deps.Settlements,
		products:    deps.Products,
		uow:         deps.UnitOfWork,
		gateway:     deps.Gateway,
		signer:      deps.Signer,
		vault:       deps.Vault,
		notifier:    deps.Notifier,
		queue:       deps.Queue,
		metrics:     deps.Metrics,
		cfg:         cfg,
		now:         time.Now,
	}
}

// SetClock replaces the time source (used for testing)
func (u *SettlementUsecase) SetClock(now func() time.Time) {
	u.now = now
}

// chainContext is the resolved on-chain target of a community
type chainContext struct {
	communityID uuid.UUID
	profile     *entities.ChainProfile
	token       string
	tokenName   string
	decimals    uint8
	relay       *ecdsa.PrivateKey
}

func (c *chainContext) toWei(amount int64) *big.Int {
	return utils.ToBaseUnits(amount, c.decimals)
}

func (c *chainContext) fromWei(v *big.Int) int64 {
	return utils.FromBaseUnits(v, c.decimals)
}

// balanceEffect is one ledger mutation applied when a settlement completes
type balanceEffect struct {
	accountID uuid.UUID
	delta     int64
}

func (u *SettlementUsecase) getAccount(ctx context.Context, id uuid.UUID) (*entities.Account, error) {
	account, err := u.accounts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, domainerrors.NotFound("account not found")
		}
		return nil, err
	}
	return account, nil
}

func (u *SettlementUsecase) requireCoordinator(ctx context.Context, callerID, communityID uuid.UUID) (*entities.Account, error) {
	caller, err := u.getAccount(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if !caller.CanCoordinate(communityID) {
		return nil, domainerrors.Forbidden("only the community coordinator can perform this operation")
	}
	return caller, nil
}

func (u *SettlementUsecase) profileFor(ctx context.Context, communityID uuid.UUID) (*entities.CommunityToken, *entities.ChainProfile, error) {
	token, err := u.tokens.GetByCommunityID(ctx, communityID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, domainerrors.TokenNotDeployed()
		}
		return nil, nil, err
	}
	profile, err := u.profiles.GetByID(ctx, token.ChainProfileID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil, domainerrors.NotFound("chain profile not found")
		}
		return nil, nil, err
	}
	return token, profile, nil
}

// loadChain resolves the deployed token of communityID and its chain.
func (u *SettlementUsecase) loadChain(ctx context.Context, communityID uuid.UUID) (*chainContext, error) {
	token, profile, err := u.profileFor(ctx, communityID)
	if err != nil {
		return nil, err
	}
	if !token.IsDeployed() {
		return nil, domainerrors.TokenNotDeployed()
	}
	relay, err := relayKey(u.vault, profile)
	if err != nil {
		return nil, err
	}
	name, err := u.gateway.TokenName(ctx, profile, token.TokenAddress.String)
	if err != nil {
		return nil, err
	}
	decimals, err := u.gateway.Decimals(ctx, profile, token.TokenAddress.String)
	if err != nil {
		return nil, err
	}
	return &chainContext{
		communityID: communityID,
		profile:     profile,
		token:       token.TokenAddress.String,
		tokenName:   name,
		decimals:    decimals,
		relay:       relay,
	}, nil
}

func (u *SettlementUsecase) authorization(cc *chainContext, kind entities.NonceKind, key *ecdsa.PrivateKey, counterparty string, amount *big.Int, deadline time.Time) signer.AuthorizationRequest {
	return signer.AuthorizationRequest{
		Kind:         kind,
		Profile:      cc.profile,
		TokenAddress: cc.token,
		TokenName:    cc.tokenName,
		PrivateKey:   key,
		Counterparty: counterparty,
		Amount:       amount,
		Deadline:     deadline,
	}
}

// begin persists the settlement intent and announces it.
func (u *SettlementUsecase) begin(ctx context.Context, cc *chainContext, tx *entities.SettlementTransaction) error {
	tx.Status = entities.SettlementStatusPending
	tx.CommunityID = cc.communityID
	tx.AuthorizationDeadline = u.now().Add(u.cfg.AuthorizationWindow).Truncate(time.Second)
	if err := u.settlements.Create(ctx, tx); err != nil {
		return err
	}
	ctx = withSettlement(ctx, tx)
	logger.Info(ctx, "Settlement created",
		zap.String("kind", string(tx.Kind)),
		zap.Int64("amount", tx.Amount),
	)
	u.publish(ctx, cc.profile, tx, entities.TransactionEventCreated)
	return nil
}

// submitted records the broadcast hash before waiting for confirmation. The
// write outlives a canceled request since the transaction is already on chain.
func (u *SettlementUsecase) submitted(ctx context.Context, tx *entities.SettlementTransaction, hash string, settled int64) error {
	if err := u.settlements.MarkSubmitted(context.WithoutCancel(ctx), tx.ID, hash, settled); err != nil {
		return err
	}
	tx.TxHash.SetValid(hash)
	tx.SettledAmount = settled
	logger.Info(withSettlement(ctx, tx), "Settlement submitted",
		zap.String("kind", string(tx.Kind)),
		zap.String("tx_hash", hash),
	)
	return nil
}

// complete resolves tx and applies its ledger effects atomically. It returns
// ErrStatusConflict, without applying anything, if tx was already resolved.
func (u *SettlementUsecase) complete(ctx context.Context, profile *entities.ChainProfile, tx *entities.SettlementTransaction, effects []balanceEffect) error {
	ctx = withSettlement(ctx, tx)
	balances := make(map[uuid.UUID]int64, len(effects))
	err := u.uow.Do(ctx, func(ctx context.Context) error {
		if err := u.settlements.Resolve(ctx, tx.ID, entities.SettlementStatusCompleted, ""); err != nil {
			return err
		}
		for _, e := range effects {
			balance, err := u.accounts.AdjustBalance(ctx, e.accountID, e.delta)
			if err != nil {
				return err
			}
			balances[e.accountID] = balance
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, domainerrors.ErrStatusConflict) {
			logger.Error(ctx, "Failed to complete settlement",
				zap.String("tx_hash", tx.TxHash.String),
				zap.Error(err),
			)
		}
		return err
	}

	tx.Status = entities.SettlementStatusCompleted
	u.metrics.SettlementResolved(string(tx.Kind), string(tx.Status))
	logger.Info(ctx, "Settlement completed",
		zap.String("kind", string(tx.Kind)),
		zap.String("tx_hash", tx.TxHash.String),
	)
	u.publish(ctx, profile, tx, entities.TransactionEventCompleted)
	for _, e := range effects {
		u.notifier.BalanceChanged(ctx, e.accountID, balances[e.accountID])
	}
	u.publishProviderBalance(ctx, tx)
	return nil
}

// settle completes tx on the request path. A record the reconciler already
// completed counts as settled and its stored state is adopted into tx.
func (u *SettlementUsecase) settle(ctx context.Context, profile *entities.ChainProfile, tx *entities.SettlementTransaction, effects []balanceEffect) error {
	err := u.complete(ctx, profile, tx, effects)
	if err == nil || !errors.Is(err, domainerrors.ErrStatusConflict) {
		return err
	}
	current, getErr := u.settlements.GetByID(ctx, tx.ID)
	if getErr != nil {
		return err
	}
	if current.Status != entities.SettlementStatusCompleted {
		return err
	}
	*tx = *current
	logger.Info(withSettlement(ctx, tx), "Settlement already completed by reconciler",
		zap.String("kind", string(tx.Kind)),
		zap.String("tx_hash", tx.TxHash.String),
	)
	return nil
}

// fail moves tx to FAILED and announces it.
func (u *SettlementUsecase) fail(ctx context.Context, profile *entities.ChainProfile, tx *entities.SettlementTransaction, reason string) error {
	ctx = withSettlement(ctx, tx)
	if err := u.settlements.Resolve(ctx, tx.ID, entities.SettlementStatusFailed, reason); err != nil {
		return err
	}
	tx.Status = entities.SettlementStatusFailed
	tx.FailureReason.SetValid(reason)
	u.metrics.SettlementResolved(string(tx.Kind), string(tx.Status))
	logger.Warn(ctx, "Settlement failed",
		zap.String("kind", string(tx.Kind)),
		zap.String("tx_hash", tx.TxHash.String),
		zap.String("reason", reason),
	)
	u.publish(ctx, profile, tx, entities.TransactionEventFailed)
	return nil
}

// abandon logs a settlement left PENDING after a chain error. The
// reconciler decides its fate.
func (u *SettlementUsecase) abandon(ctx context.Context, tx *entities.SettlementTransaction, err error) {
	logger.Error(withSettlement(ctx, tx), "Settlement left pending",
		zap.String("kind", string(tx.Kind)),
		zap.String("tx_hash", tx.TxHash.String),
		zap.Error(err),
	)
}

func withSettlement(ctx context.Context, tx *entities.SettlementTransaction) context.Context {
	return logger.With(ctx, logger.SettlementIDKey, tx.ID.String())
}

func (u *SettlementUsecase) publish(ctx context.Context, profile *entities.ChainProfile, tx *entities.SettlementTransaction, eventType entities.TransactionEventType) {
	view := newViewBuilder(u.accounts, u.products).build(ctx, tx)
	if profile != nil {
		view.ExplorerURL = profile.TxURL(tx.TxHash.String)
	}
	u.notifier.TransactionEvent(ctx, view, eventType)
}

// publishProviderBalance announces the recomputed balance of a provider a
// purchase or burn touched.
func (u *SettlementUsecase) publishProviderBalance(ctx context.Context, tx *entities.SettlementTransaction) {
	var providerID *uuid.UUID
	switch tx.Kind {
	case entities.SettlementKindPurchase:
		providerID = tx.ToAccountID
	case entities.SettlementKindBurn:
		providerID = tx.FromAccountID
	}
	if providerID == nil {
		return
	}
	provider, err := u.accounts.GetByID(ctx, *providerID)
	if err != nil || !provider.IsProvider() {
		return
	}
	history, err := u.settlements.ListCompletedByCommunity(ctx, provider.CommunityID)
	if err != nil {
		return
	}
	u.notifier.BalanceChanged(ctx, provider.ID, entities.ProviderBalance(provider.ID, history))
}
