package registry

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestValidateNoDanglingKeys(t *testing.T) {
	reg := New()
	if err := reg.Validate(); err != nil {
		t.Fatalf("built-in tables should validate: %v", err)
	}

	// Every pair on every chain must resolve to an asset with both
	// decimals and symbol.
	for _, chainID := range reg.Chains() {
		tables := reg.chains[chainID]
		for pair := range tables.pairUnderlying {
			asset, err := reg.UnderlyingAssetOf(chainID, pair)
			if err != nil {
				t.Fatalf("pair %s on chain %d: %v", pair.Hex(), chainID, err)
			}
			if asset.Symbol == "" {
				t.Fatalf("pair %s on chain %d resolves to asset without symbol", pair.Hex(), chainID)
			}
			if _, err := reg.DecimalsOf(chainID, asset.Address); err != nil {
				t.Fatalf("decimals for %s: %v", asset.Address.Hex(), err)
			}
			if _, err := reg.SymbolOf(chainID, asset.Address); err != nil {
				t.Fatalf("symbol for %s: %v", asset.Address.Hex(), err)
			}
		}
		if _, err := reg.RouterOf(chainID); err != nil {
			t.Fatalf("router for chain %d: %v", chainID, err)
		}
		if _, err := reg.QuoteAssetOf(chainID); err != nil {
			t.Fatalf("quote asset for chain %d: %v", chainID, err)
		}
	}
}

func TestLookupErrors(t *testing.T) {
	reg := New()

	if _, err := reg.RouterOf(999); err == nil {
		t.Fatal("expected error for unknown chain")
	} else {
		var lookupErr *LookupError
		if !errors.As(err, &lookupErr) {
			t.Fatalf("expected *LookupError, got %T", err)
		}
		if lookupErr.ChainID != 999 {
			t.Fatalf("error chain id = %d", lookupErr.ChainID)
		}
	}

	unknownPair := common.HexToAddress("0x00000000000000000000000000000000deadbeef")
	if _, err := reg.UnderlyingAssetOf(OptimismChainID, unknownPair); err == nil {
		t.Fatal("expected error for unknown pair")
	} else {
		var lookupErr *LookupError
		if !errors.As(err, &lookupErr) {
			t.Fatalf("expected *LookupError, got %T", err)
		}
		if lookupErr.Key != unknownPair.Hex() {
			t.Fatalf("error key = %s", lookupErr.Key)
		}
	}

	if _, err := reg.DecimalsOf(OptimismChainID, unknownPair); err == nil {
		t.Fatal("expected error for unknown asset")
	}
}

func TestKnownPairResolution(t *testing.T) {
	reg := New()

	asset, err := reg.UnderlyingAssetOf(OptimismChainID, pDAIPairOptimism)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if asset.Symbol != "DAI" || asset.Decimals != 18 {
		t.Fatalf("pDAI pair resolved to %+v", asset)
	}

	quote, err := reg.QuoteAssetOf(OptimismChainID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Symbol != "POOL" || quote.Decimals != 18 {
		t.Fatalf("quote asset = %+v", quote)
	}
}
