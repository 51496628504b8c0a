package utils

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToBaseUnits scales a whole-token amount to the token's smallest unit.
func ToBaseUnits(amount int64, decimals uint8) *big.Int {
	return decimal.NewFromInt(amount).Shift(int32(decimals)).BigInt()
}

// FromBaseUnits converts smallest units back to whole tokens, truncating
// any fractional remainder.
func FromBaseUnits(value *big.Int, decimals uint8) int64 {
	if value == nil {
		return 0
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).IntPart()
}
