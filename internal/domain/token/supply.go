// internal/domain/token/supply.go
package token

import (
	"math/big"
	"strings"
)

// maxU64Supply is the largest raw supply an SPL mint can hold (max uint64).
var maxU64Supply = new(big.Int).SetUint64(18446744073709551615)

// IsSupplyValid reports whether amount * 10^decimals fits in a u64.
// The product is computed with big.Int; float math would silently lose
// precision at these magnitudes.
func IsSupplyValid(amount string, decimals int) bool {
	a, ok := new(big.Int).SetString(strings.TrimSpace(amount), 10)
	if !ok || a.Sign() < 0 {
		return false
	}
	if decimals < 0 || decimals > MaxDecimals {
		return false
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	scaled := new(big.Int).Mul(a, scale)
	return scaled.Cmp(maxU64Supply) <= 0
}

// ScaledSupply returns amount * 10^decimals as u64. ok is false when the
// input does not parse or the product overflows; callers must have run
// IsSupplyValid first on the submission path.
func ScaledSupply(amount string, decimals int) (uint64, bool) {
	if !IsSupplyValid(amount, decimals) {
		return 0, false
	}
	a, _ := new(big.Int).SetString(strings.TrimSpace(amount), 10)
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	return new(big.Int).Mul(a, scale).Uint64(), true
}
