package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// FormatUnits renders a raw integer token amount as an exact decimal string
// scaled by the asset's decimals. No floating point is involved, so amounts
// survive round-trips without rounding drift.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(new(big.Int).Set(amount), -int32(decimals)).String()
}
