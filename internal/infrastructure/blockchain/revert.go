package blockchain

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	errorStringSelector = "08c379a0"
	panicSelector       = "4e487b71"
)

var revertHexPattern = regexp.MustCompile(`0x[0-9a-fA-F]{8,}`)

// KnownRevertErrors are the custom errors ReteToken and its OpenZeppelin
// bases revert with. They decode to their signature.
var KnownRevertErrors = []string{
	"ERC2612ExpiredSignature(uint256)",
	"ERC2612InvalidSigner(address,address)",
	"ERC20InsufficientBalance(address,uint256,uint256)",
	"ERC20InsufficientAllowance(address,uint256,uint256)",
	"ERC20InvalidReceiver(address)",
	"InvalidAccountNonce(address,uint256)",
	"OwnableUnauthorizedAccount(address)",
	"ExpiredSignature()",
	"InvalidSignature()",
	"MintPaused()",
	"AdminBurnDisabled()",
	"UnauthorizedSigner(address)",
}

var customErrorsBySelector = func() map[string]string {
	out := make(map[string]string, len(KnownRevertErrors))
	for _, sig := range KnownRevertErrors {
		out[ErrorSelector(sig)] = sig
	}
	return out
}()

// ErrorSelector returns the 4-byte selector of an error signature, hex encoded
// without 0x.
func ErrorSelector(signature string) string {
	return hex.EncodeToString(crypto.Keccak256([]byte(signature))[:4])
}

// revertReason extracts a readable reason from the revert data an RPC
// error carries, either as rpc.DataError payload or inside its message.
func revertReason(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	type rpcDataError interface {
		ErrorData() interface{}
	}
	if dataErr, ok := err.(rpcDataError); ok {
		if data, ok := revertBytes(dataErr.ErrorData()); ok {
			return decodeRevert(data)
		}
	}
	for _, candidate := range revertHexPattern.FindAllString(err.Error(), -1) {
		if data, ok := parseHexBytes(candidate); ok {
			if reason, ok := decodeRevert(data); ok {
				return reason, true
			}
		}
	}
	return "", false
}

func revertBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case string:
		return parseHexBytes(v)
	case []byte:
		return v, len(v) > 0
	case map[string]interface{}:
		if raw, ok := v["data"]; ok {
			return revertBytes(raw)
		}
	}
	return nil, false
}

func parseHexBytes(raw string) ([]byte, bool) {
	value := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	if len(value) < 8 || len(value)%2 != 0 {
		return nil, false
	}
	data, err := hex.DecodeString(value)
	if err != nil {
		return nil, false
	}
	return data, true
}

func decodeRevert(data []byte) (string, bool) {
	if len(data) < 4 {
		return "", false
	}
	selector := hex.EncodeToString(data[:4])
	switch selector {
	case errorStringSelector:
		reason, err := abi.UnpackRevert(data)
		if err != nil {
			return "", false
		}
		return reason, true
	case panicSelector:
		if len(data) < 36 {
			return "", false
		}
		return fmt.Sprintf("panic code %s", new(big.Int).SetBytes(data[4:36])), true
	}
	if sig, ok := customErrorsBySelector[selector]; ok {
		return sig, true
	}
	return "", false
}
