package blockchain

import (
	"context"
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ReteToken is a typed binding over a deployed community token contract
type ReteToken struct {
	client  *EVMClient
	address common.Address
}

// NewReteToken binds the token at address
func NewReteToken(address common.Address, client *EVMClient) *ReteToken {
	return &ReteToken{client: client, address: address}
}

// Address returns the bound contract address
func (t *ReteToken) Address() common.Address {
	return t.address
}

func (t *ReteToken) Name(ctx context.Context) (string, error) {
	return callTypedView[string](ctx, t.client, t.address, reteTokenABI, "name")
}

func (t *ReteToken) Symbol(ctx context.Context) (string, error) {
	return callTypedView[string](ctx, t.client, t.address, reteTokenABI, "symbol")
}

func (t *ReteToken) Decimals(ctx context.Context) (uint8, error) {
	return callTypedView[uint8](ctx, t.client, t.address, reteTokenABI, "decimals")
}

func (t *ReteToken) TotalSupply(ctx context.Context) (*big.Int, error) {
	return callTypedView[*big.Int](ctx, t.client, t.address, reteTokenABI, "totalSupply")
}

func (t *ReteToken) Owner(ctx context.Context) (common.Address, error) {
	return callTypedView[common.Address](ctx, t.client, t.address, reteTokenABI, "owner")
}

func (t *ReteToken) AdminSpender(ctx context.Context) (common.Address, error) {
	return callTypedView[common.Address](ctx, t.client, t.address, reteTokenABI, "adminSpender")
}

func (t *ReteToken) MintPaused(ctx context.Context) (bool, error) {
	return callTypedView[bool](ctx, t.client, t.address, reteTokenABI, "mintPaused")
}

// AdminBurnEnabled returns nil when the deployed contract predates the flag.
func (t *ReteToken) AdminBurnEnabled(ctx context.Context) *bool {
	enabled, err := callTypedView[bool](ctx, t.client, t.address, reteTokenABI, "adminBurnEnabled")
	if err != nil {
		return nil
	}
	return &enabled
}

func (t *ReteToken) BalanceOf(ctx context.Context, account common.Address) (*big.Int, error) {
	return callTypedView[*big.Int](ctx, t.client, t.address, reteTokenABI, "balanceOf", account)
}

func (t *ReteToken) Allowance(ctx context.Context, owner, spender common.Address) (*big.Int, error) {
	return callTypedView[*big.Int](ctx, t.client, t.address, reteTokenABI, "allowance", owner, spender)
}

func (t *ReteToken) MintNonces(ctx context.Context, signer common.Address) (*big.Int, error) {
	return callTypedView[*big.Int](ctx, t.client, t.address, reteTokenABI, "mintNonces", signer)
}

func (t *ReteToken) BurnNonces(ctx context.Context, signer common.Address) (*big.Int, error) {
	return callTypedView[*big.Int](ctx, t.client, t.address, reteTokenABI, "burnNonces", signer)
}

func (t *ReteToken) Nonces(ctx context.Context, owner common.Address) (*big.Int, error) {
	return callTypedView[*big.Int](ctx, t.client, t.address, reteTokenABI, "nonces", owner)
}

func (t *ReteToken) MintWithSig(ctx context.Context, relay *ecdsa.PrivateKey, signer, to common.Address, amount, deadline *big.Int, v uint8, r, s [32]byte) (common.Hash, error) {
	return t.client.Transact(ctx, relay, t.address, reteTokenABI, "mintWithSig", signer, to, amount, deadline, v, r, s)
}

func (t *ReteToken) BurnWithSig(ctx context.Context, relay *ecdsa.PrivateKey, signer, from common.Address, amount, deadline *big.Int, v uint8, r, s [32]byte) (common.Hash, error) {
	return t.client.Transact(ctx, relay, t.address, reteTokenABI, "burnWithSig", signer, from, amount, deadline, v, r, s)
}

func (t *ReteToken) Permit(ctx context.Context, relay *ecdsa.PrivateKey, owner, spender common.Address, value, deadline *big.Int, v uint8, r, s [32]byte) (common.Hash, error) {
	return t.client.Transact(ctx, relay, t.address, reteTokenABI, "permit", owner, spender, value, deadline, v, r, s)
}

func (t *ReteToken) TransferFrom(ctx context.Context, relay *ecdsa.PrivateKey, from, to common.Address, value *big.Int) (common.Hash, error) {
	return t.client.Transact(ctx, relay, t.address, reteTokenABI, "transferFrom", from, to, value)
}
