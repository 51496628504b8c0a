package blockchain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

var (
	dialEVMClient    = ethclient.Dial
	getClientChainID = func(client *ethclient.Client, ctx context.Context) (*big.Int, error) {
		return client.ChainID(ctx)
	}
	performContractTransact = func(client *ethclient.Client, contractAddress common.Address, parsedABI abi.ABI, auth *bind.TransactOpts, method string, args ...interface{}) (common.Hash, error) {
		contract := bind.NewBoundContract(contractAddress, parsedABI, client, client, client)
		tx, err := contract.Transact(auth, method, args...)
		if err != nil {
			return common.Hash{}, err
		}
		return tx.Hash(), nil
	}
)

// EVMClientHooks replace RPC round trips in unit tests.
type EVMClientHooks struct {
	CallView func(ctx context.Context, to string, data []byte) ([]byte, error)
	Transact func(ctx context.Context, from common.Address, to string, data []byte) (common.Hash, error)
	Receipt  func(ctx context.Context, txHash string) (*types.Receipt, error)
}

// EVMClient provides EVM blockchain interaction
type EVMClient struct {
	client  *ethclient.Client
	chainID *big.Int
	hooks   EVMClientHooks
}

// NewEVMClient creates a new EVM client
func NewEVMClient(rpcURL string) (*EVMClient, error) {
	client, err := dialEVMClient(rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := getClientChainID(client, context.Background())
	if err != nil {
		return nil, err
	}

	return &EVMClient{
		client:  client,
		chainID: chainID,
	}, nil
}

// NewEVMClientWithHooks creates an EVM client whose RPC calls are served by hooks.
// This is intended for unit tests where RPC sockets are unavailable.
func NewEVMClientWithHooks(chainID *big.Int, hooks EVMClientHooks) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{
		chainID: chainID,
		hooks:   hooks,
	}
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// GetTransactionReceipt gets transaction receipt. A transaction that is not
// mined yet yields ethereum.NotFound.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, txHash string) (*types.Receipt, error) {
	if c.hooks.Receipt != nil {
		return c.hooks.Receipt(ctx, txHash)
	}
	return c.client.TransactionReceipt(ctx, common.HexToHash(txHash))
}

// CallView executes a read-only contract call
func (c *EVMClient) CallView(ctx context.Context, to string, data []byte) ([]byte, error) {
	if c.hooks.CallView != nil {
		return c.hooks.CallView(ctx, to, data)
	}
	addr := common.HexToAddress(to)
	msg := ethereum.CallMsg{
		To:   &addr,
		Data: data,
	}
	return c.client.CallContract(ctx, msg, nil)
}

// Transact signs method(args) with key and broadcasts it to contract.
// It returns once the node accepted the transaction, without waiting for a receipt.
func (c *EVMClient) Transact(ctx context.Context, key *ecdsa.PrivateKey, contract common.Address, parsedABI abi.ABI, method string, args ...interface{}) (common.Hash, error) {
	if key == nil {
		return common.Hash{}, fmt.Errorf("signing key is nil")
	}
	if c.hooks.Transact != nil {
		data, err := parsedABI.Pack(method, args...)
		if err != nil {
			return common.Hash{}, err
		}
		return c.hooks.Transact(ctx, crypto.PubkeyToAddress(key.PublicKey), contract.Hex(), data)
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, c.chainID)
	if err != nil {
		return common.Hash{}, err
	}
	auth.Context = ctx

	return performContractTransact(c.client, contract, parsedABI, auth, method, args...)
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}
