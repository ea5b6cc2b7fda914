package router

import (
	"context"
	"errors"
	"math/big"
	"reflect"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"liquidationLedger/internal/model"
	"liquidationLedger/internal/registry"
)

var (
	testSender   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testReceiver = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testDAIPair  = common.HexToAddress("0x7169526daBFD1cDdE174a0A7d8c75DeB582d0990")
	testUSDCPair = common.HexToAddress("0x217ef9C355f7eb59C789e0471dc1f4398e004EDc")
)

type fakeChain struct {
	timestamp uint64
	receipt   model.Receipt
	tsErr     error
}

func (f *fakeChain) BlockTimestamp(_ context.Context, _ uint64) (uint64, error) {
	return f.timestamp, f.tsErr
}

func (f *fakeChain) TransactionReceipt(_ context.Context, _ common.Hash) (model.Receipt, error) {
	return f.receipt, nil
}

func swapLog(t *testing.T, pair, sender, receiver common.Address, amountOut, amountIn *big.Int) types.Log {
	t.Helper()

	parsed, err := RouterABI()
	if err != nil {
		t.Fatalf("parse abi: %v", err)
	}
	data, err := parsed.Events[swapEventName].Inputs.NonIndexed().Pack(
		amountOut,
		new(big.Int).Mul(amountIn, big.NewInt(2)),
		amountIn,
		big.NewInt(1_700_001_000),
	)
	if err != nil {
		t.Fatalf("pack data: %v", err)
	}

	topic0, err := SwapEventTopic()
	if err != nil {
		t.Fatalf("event topic: %v", err)
	}

	return types.Log{
		Topics: []common.Hash{
			topic0,
			common.BytesToHash(pair.Bytes()),
			common.BytesToHash(sender.Bytes()),
			common.BytesToHash(receiver.Bytes()),
		},
		Data:        data,
		BlockNumber: 117_000_000,
		TxHash:      common.HexToHash("0xabcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789"),
	}
}

func newTestDecoder(t *testing.T, chain ChainReader) *Decoder {
	t.Helper()
	dec, err := NewDecoder(registry.OptimismChainID, testSender, registry.New(), chain)
	if err != nil {
		t.Fatalf("new decoder: %v", err)
	}
	return dec
}

func TestDecodeProducesRecord(t *testing.T) {
	chain := &fakeChain{
		timestamp: 1_710_500_000,
		receipt: model.Receipt{
			GasUsed:           100_000,
			EffectiveGasPrice: big.NewInt(2_000_000_000),
		},
	}
	dec := newTestDecoder(t, chain)

	log := swapLog(t, testDAIPair, testSender, testReceiver,
		big.NewInt(1_500_000_000_000_000_000), // 1.5 DAI out
		big.NewInt(2_000_000_000_000_000_000), // 2 POOL in
	)

	rec, ok, err := dec.Decode(context.Background(), log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a record")
	}

	if rec.AmountIn != "2" || rec.AmountInSymbol != "POOL" {
		t.Fatalf("amount in = %s %s", rec.AmountIn, rec.AmountInSymbol)
	}
	if rec.AmountOut != "1.5" || rec.AmountOutSymbol != "DAI" {
		t.Fatalf("amount out = %s %s", rec.AmountOut, rec.AmountOutSymbol)
	}
	// 100_000 * 2 gwei = 0.0002 ETH, no L1 component.
	if rec.Fee != "0.0002" || rec.FeeSymbol != "ETH" {
		t.Fatalf("fee = %s %s", rec.Fee, rec.FeeSymbol)
	}
	if len(rec.TxHash) != 66 || !strings.HasPrefix(rec.TxHash, "0x") || rec.TxHash != strings.ToLower(rec.TxHash) {
		t.Fatalf("tx hash = %q", rec.TxHash)
	}
	if rec.Date.Unix() != 1_710_500_000 || rec.Date.Location() != rec.Date.UTC().Location() {
		t.Fatalf("date = %v", rec.Date)
	}
}

func TestDecodeAddsRollupL1Fee(t *testing.T) {
	chain := &fakeChain{
		timestamp: 1_710_500_000,
		receipt: model.Receipt{
			GasUsed:           100_000,
			EffectiveGasPrice: big.NewInt(2_000_000_000),
			L1Fee:             big.NewInt(300_000_000_000_000), // 0.0003 ETH posted to L1
		},
	}
	dec := newTestDecoder(t, chain)

	log := swapLog(t, testUSDCPair, testSender, testReceiver,
		big.NewInt(1_000_000), big.NewInt(1_000_000_000_000_000_000))

	rec, ok, err := dec.Decode(context.Background(), log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a record")
	}
	if rec.Fee != "0.0005" {
		t.Fatalf("fee = %s, want 0.0005", rec.Fee)
	}
	if rec.AmountOut != "1" || rec.AmountOutSymbol != "USDC" {
		t.Fatalf("amount out = %s %s", rec.AmountOut, rec.AmountOutSymbol)
	}
}

func TestDecodeSkipsOtherSenders(t *testing.T) {
	chain := &fakeChain{timestamp: 1, receipt: model.Receipt{EffectiveGasPrice: big.NewInt(1)}}
	dec := newTestDecoder(t, chain)

	other := common.HexToAddress("0x3333333333333333333333333333333333333333")
	log := swapLog(t, testDAIPair, other, testReceiver, big.NewInt(1), big.NewInt(1))

	rec, ok, err := dec.Decode(context.Background(), log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok || rec != nil {
		t.Fatal("sender mismatch must not produce a record")
	}
}

func TestDecodeSkipsForeignShapes(t *testing.T) {
	chain := &fakeChain{timestamp: 1, receipt: model.Receipt{EffectiveGasPrice: big.NewInt(1)}}
	dec := newTestDecoder(t, chain)

	tests := []struct {
		name string
		log  types.Log
	}{
		{
			name: "wrong topic0",
			log: types.Log{Topics: []common.Hash{
				common.HexToHash("0x01"), common.Hash{}, common.Hash{}, common.Hash{},
			}},
		},
		{
			name: "too few topics",
			log:  types.Log{Topics: []common.Hash{mustTopic(t)}},
		},
		{
			name: "truncated data",
			log: types.Log{
				Topics: []common.Hash{
					mustTopic(t),
					common.BytesToHash(testDAIPair.Bytes()),
					common.BytesToHash(testSender.Bytes()),
					common.BytesToHash(testReceiver.Bytes()),
				},
				Data: []byte{0x01, 0x02},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok, err := dec.Decode(context.Background(), tt.log)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok || rec != nil {
				t.Fatal("shape mismatch must not produce a record")
			}
		})
	}
}

func TestDecodeUnknownPairIsFatal(t *testing.T) {
	chain := &fakeChain{timestamp: 1, receipt: model.Receipt{EffectiveGasPrice: big.NewInt(1)}}
	dec := newTestDecoder(t, chain)

	unknownPair := common.HexToAddress("0x00000000000000000000000000000000deadbeef")
	log := swapLog(t, unknownPair, testSender, testReceiver, big.NewInt(1), big.NewInt(1))

	_, _, err := dec.Decode(context.Background(), log)
	var lookupErr *registry.LookupError
	if !errors.As(err, &lookupErr) {
		t.Fatalf("expected *registry.LookupError, got %v", err)
	}
}

func TestDecodeIsDeterministic(t *testing.T) {
	chain := &fakeChain{
		timestamp: 1_710_500_000,
		receipt:   model.Receipt{GasUsed: 50_000, EffectiveGasPrice: big.NewInt(1_000_000_000)},
	}
	dec := newTestDecoder(t, chain)
	log := swapLog(t, testDAIPair, testSender, testReceiver, big.NewInt(7), big.NewInt(9))

	first, ok1, err1 := dec.Decode(context.Background(), log)
	second, ok2, err2 := dec.Decode(context.Background(), log)
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if ok1 != ok2 || !reflect.DeepEqual(first, second) {
		t.Fatalf("decode is not deterministic: %+v != %+v", first, second)
	}
}

func mustTopic(t *testing.T) common.Hash {
	t.Helper()
	topic0, err := SwapEventTopic()
	if err != nil {
		t.Fatalf("event topic: %v", err)
	}
	return topic0
}
