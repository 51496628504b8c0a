package blockchain

import (
	"context"
	"crypto/ecdsa"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ReteTokenFactory is a typed binding over the token factory contract
type ReteTokenFactory struct {
	client  *EVMClient
	address common.Address
}

// ReteTokenCreated is the decoded creation event
type ReteTokenCreated struct {
	TokenAddress common.Address
	Name         string
	Symbol       string
	Owner        common.Address
	AdminSpender common.Address
}

// NewReteTokenFactory binds the factory at address
func NewReteTokenFactory(address common.Address, client *EVMClient) *ReteTokenFactory {
	return &ReteTokenFactory{client: client, address: address}
}

func (f *ReteTokenFactory) CreateReteToken(ctx context.Context, relay *ecdsa.PrivateKey, name, symbol string, coordinatorOwner, adminSpender common.Address) (common.Hash, error) {
	return f.client.Transact(ctx, relay, f.address, reteTokenFactoryABI, "createReteToken", name, symbol, coordinatorOwner, adminSpender)
}

// ParseReteTokenCreated finds the creation event emitted by this factory in
// receipt. It returns nil when the event is absent.
func (f *ReteTokenFactory) ParseReteTokenCreated(receipt *types.Receipt) *ReteTokenCreated {
	if receipt == nil {
		return nil
	}
	event := reteTokenFactoryABI.Events["ReteTokenCreated"]
	for _, lg := range receipt.Logs {
		if lg == nil || lg.Address != f.address || len(lg.Topics) != 3 || lg.Topics[0] != event.ID {
			continue
		}
		vals, err := event.Inputs.NonIndexed().Unpack(lg.Data)
		if err != nil || len(vals) != 3 {
			continue
		}
		name, _ := vals[0].(string)
		symbol, _ := vals[1].(string)
		spender, _ := vals[2].(common.Address)
		return &ReteTokenCreated{
			TokenAddress: common.BytesToAddress(lg.Topics[1].Bytes()),
			Name:         name,
			Symbol:       symbol,
			Owner:        common.BytesToAddress(lg.Topics[2].Bytes()),
			AdminSpender: spender,
		}
	}
	return nil
}
