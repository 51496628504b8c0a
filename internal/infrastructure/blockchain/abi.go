package blockchain

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const reteTokenABIJSON = `[
	{"type":"function","name":"name","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"adminSpender","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"mintPaused","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"adminBurnEnabled","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"mintNonces","stateMutability":"view","inputs":[{"name":"signer","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"burnNonces","stateMutability":"view","inputs":[{"name":"signer","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"nonces","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"mintWithSig","stateMutability":"nonpayable","inputs":[
		{"name":"signer","type":"address"},{"name":"to","type":"address"},{"name":"amount","type":"uint256"},
		{"name":"deadline","type":"uint256"},{"name":"v","type":"uint8"},{"name":"r","type":"bytes32"},{"name":"s","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"burnWithSig","stateMutability":"nonpayable","inputs":[
		{"name":"signer","type":"address"},{"name":"from","type":"address"},{"name":"amount","type":"uint256"},
		{"name":"deadline","type":"uint256"},{"name":"v","type":"uint8"},{"name":"r","type":"bytes32"},{"name":"s","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"permit","stateMutability":"nonpayable","inputs":[
		{"name":"owner","type":"address"},{"name":"spender","type":"address"},{"name":"value","type":"uint256"},
		{"name":"deadline","type":"uint256"},{"name":"v","type":"uint8"},{"name":"r","type":"bytes32"},{"name":"s","type":"bytes32"}],"outputs":[]},
	{"type":"function","name":"transferFrom","stateMutability":"nonpayable","inputs":[
		{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

const reteTokenFactoryABIJSON = `[
	{"type":"function","name":"createReteToken","stateMutability":"nonpayable","inputs":[
		{"name":"name","type":"string"},{"name":"symbol","type":"string"},
		{"name":"coordinatorOwner","type":"address"},{"name":"adminSpender","type":"address"}],
		"outputs":[{"name":"","type":"address"}]},
	{"type":"event","name":"ReteTokenCreated","anonymous":false,"inputs":[
		{"name":"tokenAddress","type":"address","indexed":true},
		{"name":"name","type":"string","indexed":false},
		{"name":"symbol","type":"string","indexed":false},
		{"name":"owner","type":"address","indexed":true},
		{"name":"adminSpender","type":"address","indexed":false}]}
]`

var (
	reteTokenABI        = mustParseABI(reteTokenABIJSON)
	reteTokenFactoryABI = mustParseABI(reteTokenFactoryABIJSON)
)

func mustParseABI(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(err)
	}
	return parsed
}

// callTypedView packs method(args), runs it as a view call and asserts the
// first return value to T.
func callTypedView[T any](
	ctx context.Context,
	client *EVMClient,
	contractAddress common.Address,
	parsedABI abi.ABI,
	method string,
	args ...interface{},
) (T, error) {
	var zero T

	data, err := parsedABI.Pack(method, args...)
	if err != nil {
		return zero, err
	}
	out, err := client.CallView(ctx, contractAddress.Hex(), data)
	if err != nil {
		return zero, err
	}
	vals, err := parsedABI.Unpack(method, out)
	if err != nil || len(vals) == 0 {
		return zero, fmt.Errorf("failed to decode %s", method)
	}
	value, ok := vals[0].(T)
	if !ok {
		return zero, fmt.Errorf("invalid %s return type", method)
	}
	return value, nil
}
