package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"rete.backend/internal/domain/entities"
	domainerrors "rete.backend/internal/domain/errors"
	"rete.backend/internal/infrastructure/metrics"
	"rete.backend/pkg/utils"
)

const (
	defaultConfirmationTimeout = 2 * time.Minute
	defaultReceiptPollInterval = 2 * time.Second
)

// GatewayConfig tunes how long the gateway waits for confirmations
type GatewayConfig struct {
	ConfirmationTimeout time.Duration
	ReceiptPollInterval time.Duration
}

// Gateway reads and writes token and factory contracts on the chain a
// ChainProfile describes. It never retries: every failure is returned as a
// chain error for the caller to decide on.
type Gateway struct {
	clients *ClientFactory
	queue   *utils.KeyedQueue
	metrics *metrics.Metrics
	cfg     GatewayConfig
}

// NewGateway creates a chain gateway
func NewGateway(clients *ClientFactory, queue *utils.KeyedQueue, m *metrics.Metrics, cfg GatewayConfig) *Gateway {
	if cfg.ConfirmationTimeout <= 0 {
		cfg.ConfirmationTimeout = defaultConfirmationTimeout
	}
	if cfg.ReceiptPollInterval <= 0 {
		cfg.ReceiptPollInterval = defaultReceiptPollInterval
	}
	if queue == nil {
		queue = utils.NewKeyedQueue()
	}
	return &Gateway{clients: clients, queue: queue, metrics: m, cfg: cfg}
}

// RelayQueueKey is the queue lane serializing broadcasts from one relay wallet.
func RelayQueueKey(relay common.Address) string {
	return strings.ToLower(relay.Hex()) + ":" + string(entities.NonceKindTx)
}

func (g *Gateway) client(profile *entities.ChainProfile) (*EVMClient, error) {
	return g.clients.ForProfile(profile)
}

func (g *Gateway) token(profile *entities.ChainProfile, tokenAddress string) (*ReteToken, error) {
	addr, err := parseAddress("token address", tokenAddress)
	if err != nil {
		return nil, err
	}
	c, err := g.client(profile)
	if err != nil {
		return nil, err
	}
	return NewReteToken(addr, c), nil
}

func (g *Gateway) observe(profile *entities.ChainProfile, method string) func(error) {
	started := time.Now()
	return func(err error) {
		g.metrics.ObserveChainCall(profile.CAIP2ID(), method, started, err)
	}
}

// TokenMetadata reads the full on-chain description of a token
func (g *Gateway) TokenMetadata(ctx context.Context, profile *entities.ChainProfile, tokenAddress string) (meta *entities.TokenMetadata, err error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return nil, err
	}
	done := g.observe(profile, "metadata")
	defer func() { done(err) }()

	meta = &entities.TokenMetadata{Address: t.Address().Hex()}
	if meta.Name, err = t.Name(ctx); err != nil {
		return nil, domainerrors.Chain("failed to read token name", err)
	}
	if meta.Symbol, err = t.Symbol(ctx); err != nil {
		return nil, domainerrors.Chain("failed to read token symbol", err)
	}
	if meta.Decimals, err = t.Decimals(ctx); err != nil {
		return nil, domainerrors.Chain("failed to read token decimals", err)
	}
	if meta.TotalSupply, err = t.TotalSupply(ctx); err != nil {
		return nil, domainerrors.Chain("failed to read total supply", err)
	}
	owner, err := t.Owner(ctx)
	if err != nil {
		return nil, domainerrors.Chain("failed to read token owner", err)
	}
	spender, err := t.AdminSpender(ctx)
	if err != nil {
		return nil, domainerrors.Chain("failed to read admin spender", err)
	}
	if meta.MintPaused, err = t.MintPaused(ctx); err != nil {
		return nil, domainerrors.Chain("failed to read mint paused flag", err)
	}
	meta.Owner = owner.Hex()
	meta.AdminSpender = spender.Hex()
	meta.AdminBurnEnabled = t.AdminBurnEnabled(ctx)
	return meta, nil
}

// TokenName reads the on-chain name used as the EIP-712 domain name
func (g *Gateway) TokenName(ctx context.Context, profile *entities.ChainProfile, tokenAddress string) (string, error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return "", err
	}
	done := g.observe(profile, "name")
	name, err := t.Name(ctx)
	done(err)
	if err != nil {
		return "", domainerrors.Chain("failed to read token name", err)
	}
	return name, nil
}

// Decimals reads the token's decimals
func (g *Gateway) Decimals(ctx context.Context, profile *entities.ChainProfile, tokenAddress string) (uint8, error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return 0, err
	}
	done := g.observe(profile, "decimals")
	dec, err := t.Decimals(ctx)
	done(err)
	if err != nil {
		return 0, domainerrors.Chain("failed to read token decimals", err)
	}
	return dec, nil
}

// Nonce reads the replay counter of kind for owner
func (g *Gateway) Nonce(ctx context.Context, profile *entities.ChainProfile, tokenAddress string, kind entities.NonceKind, owner string) (*big.Int, error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return nil, err
	}
	who, err := parseAddress("nonce owner", owner)
	if err != nil {
		return nil, err
	}

	var read func(context.Context, common.Address) (*big.Int, error)
	var method string
	switch kind {
	case entities.NonceKindMint:
		read, method = t.MintNonces, "mintNonces"
	case entities.NonceKindBurn:
		read, method = t.BurnNonces, "burnNonces"
	case entities.NonceKindPermit:
		read, method = t.Nonces, "nonces"
	default:
		return nil, domainerrors.Validation(fmt.Sprintf("unsupported nonce kind %q", kind))
	}

	done := g.observe(profile, method)
	nonce, err := read(ctx, who)
	done(err)
	if err != nil {
		return nil, domainerrors.Chain("failed to read "+method, err)
	}
	return nonce, nil
}

// BalanceOf reads the token balance of account
func (g *Gateway) BalanceOf(ctx context.Context, profile *entities.ChainProfile, tokenAddress, account string) (*big.Int, error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return nil, err
	}
	who, err := parseAddress("account", account)
	if err != nil {
		return nil, err
	}
	done := g.observe(profile, "balanceOf")
	bal, err := t.BalanceOf(ctx, who)
	done(err)
	if err != nil {
		return nil, domainerrors.Chain("failed to read balance", err)
	}
	return bal, nil
}

// Allowance reads how much spender may move on behalf of owner
func (g *Gateway) Allowance(ctx context.Context, profile *entities.ChainProfile, tokenAddress, owner, spender string) (*big.Int, error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return nil, err
	}
	o, err := parseAddress("owner", owner)
	if err != nil {
		return nil, err
	}
	s, err := parseAddress("spender", spender)
	if err != nil {
		return nil, err
	}
	done := g.observe(profile, "allowance")
	allowance, err := t.Allowance(ctx, o, s)
	done(err)
	if err != nil {
		return nil, domainerrors.Chain("failed to read allowance", err)
	}
	return allowance, nil
}

// SubmitMint broadcasts mintWithSig and returns the transaction hash
func (g *Gateway) SubmitMint(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, signer, to string, amount *big.Int, auth *entities.Authorization) (string, error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return "", err
	}
	signerAddr, err := parseAddress("signer", signer)
	if err != nil {
		return "", err
	}
	toAddr, err := parseAddress("recipient", to)
	if err != nil {
		return "", err
	}
	return g.submit(ctx, profile, relay, "mintWithSig", func(ctx context.Context) (common.Hash, error) {
		return t.MintWithSig(ctx, relay, signerAddr, toAddr, amount, auth.Deadline, auth.V, auth.R, auth.S)
	})
}

// SubmitBurn broadcasts burnWithSig and returns the transaction hash
func (g *Gateway) SubmitBurn(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, signer, from string, amount *big.Int, auth *entities.Authorization) (string, error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return "", err
	}
	signerAddr, err := parseAddress("signer", signer)
	if err != nil {
		return "", err
	}
	fromAddr, err := parseAddress("holder", from)
	if err != nil {
		return "", err
	}
	return g.submit(ctx, profile, relay, "burnWithSig", func(ctx context.Context) (common.Hash, error) {
		return t.BurnWithSig(ctx, relay, signerAddr, fromAddr, amount, auth.Deadline, auth.V, auth.R, auth.S)
	})
}

// SubmitPermit broadcasts an EIP-2612 permit and returns the transaction hash
func (g *Gateway) SubmitPermit(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, owner, spender string, value *big.Int, auth *entities.Authorization) (string, error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return "", err
	}
	ownerAddr, err := parseAddress("owner", owner)
	if err != nil {
		return "", err
	}
	spenderAddr, err := parseAddress("spender", spender)
	if err != nil {
		return "", err
	}
	return g.submit(ctx, profile, relay, "permit", func(ctx context.Context) (common.Hash, error) {
		return t.Permit(ctx, relay, ownerAddr, spenderAddr, value, auth.Deadline, auth.V, auth.R, auth.S)
	})
}

// SubmitTransferFrom broadcasts transferFrom from the relay wallet
func (g *Gateway) SubmitTransferFrom(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, tokenAddress, from, to string, value *big.Int) (string, error) {
	t, err := g.token(profile, tokenAddress)
	if err != nil {
		return "", err
	}
	fromAddr, err := parseAddress("sender", from)
	if err != nil {
		return "", err
	}
	toAddr, err := parseAddress("recipient", to)
	if err != nil {
		return "", err
	}
	return g.submit(ctx, profile, relay, "transferFrom", func(ctx context.Context) (common.Hash, error) {
		return t.TransferFrom(ctx, relay, fromAddr, toAddr, value)
	})
}

// CreateToken deploys a community token through the factory and waits for it
// to be mined. tokenAddress is nil when the receipt carries no creation event.
func (g *Gateway) CreateToken(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, name, symbol, owner, adminSpender string) (tokenAddress *string, txHash string, err error) {
	factoryAddr, err := parseAddress("factory address", profile.FactoryAddress)
	if err != nil {
		return nil, "", domainerrors.Configuration("chain profile has no valid factory address")
	}
	ownerAddr, err := parseAddress("owner", owner)
	if err != nil {
		return nil, "", err
	}
	spenderAddr, err := parseAddress("admin spender", adminSpender)
	if err != nil {
		return nil, "", err
	}
	c, err := g.client(profile)
	if err != nil {
		return nil, "", err
	}
	factory := NewReteTokenFactory(factoryAddr, c)

	txHash, err = g.submit(ctx, profile, relay, "createReteToken", func(ctx context.Context) (common.Hash, error) {
		return factory.CreateReteToken(ctx, relay, name, symbol, ownerAddr, spenderAddr)
	})
	if err != nil {
		return nil, "", err
	}

	receipt, err := g.waitMined(ctx, profile, c, txHash)
	if err != nil {
		return nil, txHash, err
	}
	created := factory.ParseReteTokenCreated(receipt)
	if created == nil {
		return nil, txHash, nil
	}
	addr := created.TokenAddress.Hex()
	return &addr, txHash, nil
}

// WaitForReceipt blocks until txHash has one confirmation
func (g *Gateway) WaitForReceipt(ctx context.Context, profile *entities.ChainProfile, txHash string) (*entities.ChainReceipt, error) {
	c, err := g.client(profile)
	if err != nil {
		return nil, err
	}
	receipt, err := g.waitMined(ctx, profile, c, txHash)
	if err != nil {
		return nil, err
	}
	out := &entities.ChainReceipt{TxHash: txHash}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return out, nil
}

// ReceiptStatus looks a transaction up once without waiting
func (g *Gateway) ReceiptStatus(ctx context.Context, profile *entities.ChainProfile, txHash string) (entities.ReceiptState, error) {
	c, err := g.client(profile)
	if err != nil {
		return "", err
	}
	done := g.observe(profile, "getTransactionReceipt")
	receipt, err := c.GetTransactionReceipt(ctx, txHash)
	if errors.Is(err, ethereum.NotFound) || (err == nil && receipt == nil) {
		done(nil)
		return entities.ReceiptStateMissing, nil
	}
	done(err)
	if err != nil {
		return "", domainerrors.Chain("failed to read receipt", err)
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return entities.ReceiptStateSuccess, nil
	}
	return entities.ReceiptStateReverted, nil
}

func (g *Gateway) submit(ctx context.Context, profile *entities.ChainProfile, relay *ecdsa.PrivateKey, method string, send func(context.Context) (common.Hash, error)) (string, error) {
	if relay == nil {
		return "", domainerrors.Configuration("relay signing key is not configured")
	}
	key := RelayQueueKey(crypto.PubkeyToAddress(relay.PublicKey))

	var hash common.Hash
	err := g.queue.Do(ctx, key, func(ctx context.Context) error {
		done := g.observe(profile, method)
		var err error
		hash, err = send(ctx)
		done(err)
		return err
	})
	if err != nil {
		if reason, ok := revertReason(err); ok {
			err = fmt.Errorf("%s: %w", reason, err)
		}
		return "", domainerrors.Chain(method+" failed", err)
	}
	return hash.Hex(), nil
}

func (g *Gateway) waitMined(ctx context.Context, profile *entities.ChainProfile, c *EVMClient, txHash string) (*types.Receipt, error) {
	done := g.observe(profile, "waitMined")

	ctx, cancel := context.WithTimeout(ctx, g.cfg.ConfirmationTimeout)
	defer cancel()
	ticker := time.NewTicker(g.cfg.ReceiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.GetTransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			if receipt.Status != types.ReceiptStatusSuccessful {
				err = fmt.Errorf("transaction %s reverted in block %v", txHash, receipt.BlockNumber)
				done(err)
				return nil, domainerrors.Chain("transaction reverted", err)
			}
			done(nil)
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			done(err)
			return nil, domainerrors.Chain("failed to read receipt", err)
		}

		select {
		case <-ctx.Done():
			err := fmt.Errorf("no receipt for %s: %w", txHash, ctx.Err())
			done(err)
			return nil, domainerrors.Chain("confirmation timed out", err)
		case <-ticker.C:
		}
	}
}

func parseAddress(field, value string) (common.Address, error) {
	v := strings.TrimSpace(value)
	if !common.IsHexAddress(v) {
		return common.Address{}, domainerrors.Validation(fmt.Sprintf("invalid %s %q", field, value))
	}
	return common.HexToAddress(v), nil
}
