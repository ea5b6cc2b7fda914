package router

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"liquidationLedger/internal/model"
	"liquidationLedger/internal/registry"
)

// feeDecimals is the precision of the native gas currency.
const feeDecimals uint8 = 18

// feeSymbol: fees are always denominated in ETH, regardless of which
// assets were swapped.
const feeSymbol = "ETH"

// ChainReader supplies the block and receipt context a decode needs.
type ChainReader interface {
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (model.Receipt, error)
}

// Decoder turns raw router logs into accounting records.
type Decoder struct {
	event    abi.Event
	topic0   common.Hash
	chainID  uint64
	sender   common.Address
	registry *registry.Registry
	chain    ChainReader
}

// NewDecoder builds a decoder for one chain and one configured sender.
func NewDecoder(chainID uint64, sender common.Address, reg *registry.Registry, chain ChainReader) (*Decoder, error) {
	parsed, err := RouterABI()
	if err != nil {
		return nil, err
	}
	event := parsed.Events[swapEventName]

	return &Decoder{
		event:    event,
		topic0:   event.ID,
		chainID:  chainID,
		sender:   sender,
		registry: reg,
		chain:    chain,
	}, nil
}

// Decode derives an accounting record from a raw log. The second return is
// false when the log is skipped: either its shape does not match the swap
// event, or the event was not originated by the configured sender. Failures
// to resolve registry entries or fetch block/receipt context are errors and
// abort the run.
func (d *Decoder) Decode(ctx context.Context, log types.Log) (*model.AccountingRecord, bool, error) {
	event, ok := d.decodeSwap(log)
	if !ok {
		return nil, false, nil
	}

	if event.Sender != d.sender {
		return nil, false, nil
	}

	quote, err := d.registry.QuoteAssetOf(d.chainID)
	if err != nil {
		return nil, false, err
	}
	underlying, err := d.registry.UnderlyingAssetOf(d.chainID, event.LiquidationPair)
	if err != nil {
		return nil, false, err
	}

	timestamp, err := d.chain.BlockTimestamp(ctx, log.BlockNumber)
	if err != nil {
		return nil, false, fmt.Errorf("block timestamp %d: %w", log.BlockNumber, err)
	}
	receipt, err := d.chain.TransactionReceipt(ctx, log.TxHash)
	if err != nil {
		return nil, false, fmt.Errorf("receipt %s: %w", log.TxHash.Hex(), err)
	}

	record := &model.AccountingRecord{
		Date:            time.Unix(int64(timestamp), 0).UTC(),
		AmountIn:        model.FormatUnits(event.AmountIn, quote.Decimals),
		AmountInSymbol:  quote.Symbol,
		AmountOut:       model.FormatUnits(event.AmountOut, underlying.Decimals),
		AmountOutSymbol: underlying.Symbol,
		Fee:             model.FormatUnits(receipt.TotalFeeWei(), feeDecimals),
		FeeSymbol:       feeSymbol,
		TxHash:          log.TxHash.Hex(),
	}
	return record, true, nil
}

// decodeSwap attempts the structural decode. Shape mismatches are not
// errors: a filtered query can still surface non-matching logs, and the
// decode doubles as the guard.
func (d *Decoder) decodeSwap(log types.Log) (model.SwapExactAmountOut, bool) {
	if len(log.Topics) != 4 || log.Topics[0] != d.topic0 {
		return model.SwapExactAmountOut{}, false
	}

	var indexed struct {
		LiquidationPair common.Address
		Sender          common.Address
		Receiver        common.Address
	}
	if err := abi.ParseTopics(&indexed, indexedArguments(d.event.Inputs), log.Topics[1:]); err != nil {
		return model.SwapExactAmountOut{}, false
	}

	values, err := d.event.Inputs.NonIndexed().Unpack(log.Data)
	if err != nil || len(values) != 4 {
		return model.SwapExactAmountOut{}, false
	}

	amounts := make([]*big.Int, 0, len(values))
	for _, value := range values {
		amount, ok := value.(*big.Int)
		if !ok {
			return model.SwapExactAmountOut{}, false
		}
		amounts = append(amounts, amount)
	}

	return model.SwapExactAmountOut{
		LiquidationPair: indexed.LiquidationPair,
		Sender:          indexed.Sender,
		Receiver:        indexed.Receiver,
		AmountOut:       amounts[0],
		AmountInMax:     amounts[1],
		AmountIn:        amounts[2],
		Deadline:        amounts[3],
	}, true
}

func indexedArguments(args abi.Arguments) abi.Arguments {
	indexed := make(abi.Arguments, 0, len(args))
	for _, arg := range args {
		if arg.Indexed {
			indexed = append(indexed, arg)
		}
	}
	return indexed
}
