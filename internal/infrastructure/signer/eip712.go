package signer

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"rete.backend/internal/domain/entities"
)

const domainVersion = "1"

var eip712Domain = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

// schema describes one authorization struct. counterparty names the second
// address field (to, from or spender).
type schema struct {
	primaryType  string
	signerField  string
	counterparty string
	amountField  string
}

var schemas = map[entities.NonceKind]schema{
	entities.NonceKindMint:   {primaryType: "MintAuthorization", signerField: "signer", counterparty: "to", amountField: "amount"},
	entities.NonceKindBurn:   {primaryType: "BurnAuthorization", signerField: "signer", counterparty: "from", amountField: "amount"},
	entities.NonceKindPermit: {primaryType: "Permit", signerField: "owner", counterparty: "spender", amountField: "value"},
}

func (s schema) fields() []apitypes.Type {
	return []apitypes.Type{
		{Name: s.signerField, Type: "address"},
		{Name: s.counterparty, Type: "address"},
		{Name: s.amountField, Type: "uint256"},
		{Name: "nonce", Type: "uint256"},
		{Name: "deadline", Type: "uint256"},
	}
}

// TypedMessage is the concrete content of one authorization
type TypedMessage struct {
	Kind         entities.NonceKind
	TokenName    string
	ChainID      int64
	TokenAddress common.Address
	Signer       common.Address
	Counterparty common.Address
	Amount       *big.Int
	Nonce        *big.Int
	Deadline     *big.Int
}

// TypedData builds the EIP-712 payload for msg
func TypedData(msg TypedMessage) (apitypes.TypedData, error) {
	sc, ok := schemas[msg.Kind]
	if !ok {
		return apitypes.TypedData{}, fmt.Errorf("no authorization schema for %q", msg.Kind)
	}
	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": eip712Domain,
			sc.primaryType: sc.fields(),
		},
		PrimaryType: sc.primaryType,
		Domain: apitypes.TypedDataDomain{
			Name:              msg.TokenName,
			Version:           domainVersion,
			ChainId:           math.NewHexOrDecimal256(msg.ChainID),
			VerifyingContract: msg.TokenAddress.Hex(),
		},
		Message: apitypes.TypedDataMessage{
			sc.signerField:  msg.Signer.Hex(),
			sc.counterparty: msg.Counterparty.Hex(),
			sc.amountField:  msg.Amount.String(),
			"nonce":         msg.Nonce.String(),
			"deadline":      msg.Deadline.String(),
		},
	}, nil
}

// Digest returns the EIP-712 hash a signature for msg commits to
func Digest(msg TypedMessage) ([]byte, error) {
	td, err := TypedData(msg)
	if err != nil {
		return nil, err
	}
	hash, _, err := apitypes.TypedDataAndHash(td)
	return hash, err
}
