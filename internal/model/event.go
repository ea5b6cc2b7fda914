package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// SwapExactAmountOut is the decoded payload of the liquidation router's
// SwappedExactAmountOut event.
type SwapExactAmountOut struct {
	LiquidationPair common.Address
	Sender          common.Address
	Receiver        common.Address
	AmountOut       *big.Int
	AmountInMax     *big.Int
	AmountIn        *big.Int
	Deadline        *big.Int
}
