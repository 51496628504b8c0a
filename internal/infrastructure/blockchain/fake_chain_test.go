package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type sentTx struct {
	from   common.Address
	to     common.Address
	method string
	args   []interface{}
	hash   common.Hash
}

// fakeChain serves ReteToken and ReteTokenFactory calls from memory.
type fakeChain struct {
	mu sync.Mutex

	name, symbol     string
	decimals         uint8
	totalSupply      *big.Int
	owner, spender   common.Address
	mintPaused       bool
	noAdminBurnFlag  bool
	balances         map[common.Address]*big.Int
	allowances       map[[2]common.Address]*big.Int
	mintNonces       map[common.Address]*big.Int
	burnNonces       map[common.Address]*big.Int
	permitNonces     map[common.Address]*big.Int
	sent             []sentTx
	receipts         map[string]*types.Receipt
	revertMethods    map[string]bool
	createdToken     common.Address
	factory          common.Address
	omitCreatedEvent bool
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		name:         "Rete Coin",
		symbol:       "RETE",
		decimals:     18,
		totalSupply:  big.NewInt(0),
		balances:     map[common.Address]*big.Int{},
		allowances:   map[[2]common.Address]*big.Int{},
		mintNonces:   map[common.Address]*big.Int{},
		burnNonces:   map[common.Address]*big.Int{},
		permitNonces: map[common.Address]*big.Int{},
		receipts:     map[string]*types.Receipt{},
		createdToken: common.HexToAddress("0x7777777777777777777777777777777777777777"),
	}
}

func (f *fakeChain) client(chainID int64) *EVMClient {
	return NewEVMClientWithHooks(big.NewInt(chainID), EVMClientHooks{
		CallView: f.callView,
		Transact: f.transact,
		Receipt:  f.receipt,
	})
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

func (f *fakeChain) callView(_ context.Context, _ string, data []byte) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	method, err := reteTokenABI.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}

	switch method.Name {
	case "name":
		return method.Outputs.Pack(f.name)
	case "symbol":
		return method.Outputs.Pack(f.symbol)
	case "decimals":
		return method.Outputs.Pack(f.decimals)
	case "totalSupply":
		return method.Outputs.Pack(f.totalSupply)
	case "owner":
		return method.Outputs.Pack(f.owner)
	case "adminSpender":
		return method.Outputs.Pack(f.spender)
	case "mintPaused":
		return method.Outputs.Pack(f.mintPaused)
	case "adminBurnEnabled":
		if f.noAdminBurnFlag {
			return nil, fmt.Errorf("execution reverted")
		}
		return method.Outputs.Pack(true)
	case "balanceOf":
		return method.Outputs.Pack(orZero(f.balances[args[0].(common.Address)]))
	case "allowance":
		key := [2]common.Address{args[0].(common.Address), args[1].(common.Address)}
		return method.Outputs.Pack(orZero(f.allowances[key]))
	case "mintNonces":
		return method.Outputs.Pack(orZero(f.mintNonces[args[0].(common.Address)]))
	case "burnNonces":
		return method.Outputs.Pack(orZero(f.burnNonces[args[0].(common.Address)]))
	case "nonces":
		return method.Outputs.Pack(orZero(f.permitNonces[args[0].(common.Address)]))
	}
	return nil, fmt.Errorf("unexpected view %s", method.Name)
}

func (f *fakeChain) transact(_ context.Context, from common.Address, to string, data []byte) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parsed := reteTokenABI
	if f.factory != (common.Address{}) && strings.EqualFold(to, f.factory.Hex()) {
		parsed = reteTokenFactoryABI
	}
	method, err := parsed.MethodById(data[:4])
	if err != nil {
		return common.Hash{}, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return common.Hash{}, err
	}

	hash := common.BigToHash(big.NewInt(int64(len(f.sent) + 1)))
	f.sent = append(f.sent, sentTx{from: from, to: common.HexToAddress(to), method: method.Name, args: args, hash: hash})

	receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(int64(100 + len(f.sent)))}
	if f.revertMethods[method.Name] {
		receipt.Status = types.ReceiptStatusFailed
	}
	if method.Name == "createReteToken" && !f.omitCreatedEvent {
		receipt.Logs = []*types.Log{f.createdLog(args)}
	}
	f.receipts[hash.Hex()] = receipt
	return hash, nil
}

func (f *fakeChain) createdLog(args []interface{}) *types.Log {
	event := reteTokenFactoryABI.Events["ReteTokenCreated"]
	data, err := event.Inputs.NonIndexed().Pack(args[0].(string), args[1].(string), args[3].(common.Address))
	if err != nil {
		panic(err)
	}
	return &types.Log{
		Address: f.factory,
		Topics: []common.Hash{
			event.ID,
			common.BytesToHash(f.createdToken.Bytes()),
			common.BytesToHash(args[2].(common.Address).Bytes()),
		},
		Data: data,
	}
}

func (f *fakeChain) receipt(_ context.Context, txHash string) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[common.HexToHash(txHash).Hex()]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeChain) sentMethods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, s := range f.sent {
		out = append(out, s.method)
	}
	return out
}
