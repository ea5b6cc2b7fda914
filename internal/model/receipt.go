package model

import "math/big"

// Receipt carries the fee-relevant fields of a transaction receipt.
// L1Fee is the rollup data-posting fee and is nil on chains that do not
// charge one.
type Receipt struct {
	GasUsed           uint64
	EffectiveGasPrice *big.Int
	L1Fee             *big.Int
}

// TotalFeeWei returns gasUsed * effectiveGasPrice plus the L1 fee when
// present, in wei.
func (r Receipt) TotalFeeWei() *big.Int {
	fee := new(big.Int).Mul(
		new(big.Int).SetUint64(r.GasUsed),
		r.EffectiveGasPrice,
	)
	if r.L1Fee != nil {
		fee.Add(fee, r.L1Fee)
	}
	return fee
}
