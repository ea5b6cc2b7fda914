package registry

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Asset describes a token the registry knows about.
type Asset struct {
	Address  common.Address
	Decimals uint8
	Symbol   string
}

// LookupError reports a missing registry entry. A miss means the accounting
// output would be silently wrong, so callers are expected to abort the run.
type LookupError struct {
	ChainID uint64
	Kind    string
	Key     string
}

func (e *LookupError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("no %s configured for chain %d", e.Kind, e.ChainID)
	}
	return fmt.Sprintf("no %s configured for chain %d: %s", e.Kind, e.ChainID, e.Key)
}

type chainTables struct {
	router         common.Address
	quoteAsset     common.Address
	pairUnderlying map[common.Address]common.Address
	assets         map[common.Address]Asset
}

// Registry holds the static per-chain lookup tables for the liquidation
// router, liquidation pairs, and their assets. It is populated once at
// construction and read-only afterwards.
type Registry struct {
	chains map[uint64]chainTables
}

// RouterOf returns the liquidation router address for a chain.
func (r *Registry) RouterOf(chainID uint64) (common.Address, error) {
	tables, ok := r.chains[chainID]
	if !ok {
		return common.Address{}, &LookupError{ChainID: chainID, Kind: "liquidation router"}
	}
	return tables.router, nil
}

// QuoteAssetOf returns the fixed reference asset of the liquidation pool on
// a chain. amountIn values are denominated in this asset.
func (r *Registry) QuoteAssetOf(chainID uint64) (Asset, error) {
	tables, ok := r.chains[chainID]
	if !ok {
		return Asset{}, &LookupError{ChainID: chainID, Kind: "quote asset"}
	}
	asset, ok := tables.assets[tables.quoteAsset]
	if !ok {
		return Asset{}, &LookupError{ChainID: chainID, Kind: "quote asset", Key: tables.quoteAsset.Hex()}
	}
	return asset, nil
}

// UnderlyingAssetOf resolves a liquidation pair to its underlying asset.
func (r *Registry) UnderlyingAssetOf(chainID uint64, pair common.Address) (Asset, error) {
	tables, ok := r.chains[chainID]
	if !ok {
		return Asset{}, &LookupError{ChainID: chainID, Kind: "liquidation pair table"}
	}
	underlying, ok := tables.pairUnderlying[pair]
	if !ok {
		return Asset{}, &LookupError{ChainID: chainID, Kind: "underlying asset", Key: pair.Hex()}
	}
	asset, ok := tables.assets[underlying]
	if !ok {
		return Asset{}, &LookupError{ChainID: chainID, Kind: "asset", Key: underlying.Hex()}
	}
	return asset, nil
}

// DecimalsOf returns the decimals for an asset address.
func (r *Registry) DecimalsOf(chainID uint64, asset common.Address) (uint8, error) {
	a, err := r.assetOf(chainID, asset)
	if err != nil {
		return 0, err
	}
	return a.Decimals, nil
}

// SymbolOf returns the symbol for an asset address.
func (r *Registry) SymbolOf(chainID uint64, asset common.Address) (string, error) {
	a, err := r.assetOf(chainID, asset)
	if err != nil {
		return "", err
	}
	return a.Symbol, nil
}

func (r *Registry) assetOf(chainID uint64, asset common.Address) (Asset, error) {
	tables, ok := r.chains[chainID]
	if !ok {
		return Asset{}, &LookupError{ChainID: chainID, Kind: "asset table"}
	}
	a, ok := tables.assets[asset]
	if !ok {
		return Asset{}, &LookupError{ChainID: chainID, Kind: "asset", Key: asset.Hex()}
	}
	return a, nil
}

// Chains returns the chain IDs the registry has tables for.
func (r *Registry) Chains() []uint64 {
	ids := make([]uint64, 0, len(r.chains))
	for id := range r.chains {
		ids = append(ids, id)
	}
	return ids
}

// Validate checks the tables for dangling references: every liquidation
// pair must resolve to a known asset, and the quote asset must be known.
// Run at startup so misconfiguration fails before any block is scanned.
func (r *Registry) Validate() error {
	for chainID, tables := range r.chains {
		if _, ok := tables.assets[tables.quoteAsset]; !ok {
			return &LookupError{ChainID: chainID, Kind: "quote asset", Key: tables.quoteAsset.Hex()}
		}
		for pair, underlying := range tables.pairUnderlying {
			asset, ok := tables.assets[underlying]
			if !ok {
				return &LookupError{ChainID: chainID, Kind: "asset", Key: underlying.Hex()}
			}
			if asset.Symbol == "" {
				return fmt.Errorf("asset %s on chain %d (pair %s) has no symbol", underlying.Hex(), chainID, pair.Hex())
			}
		}
	}
	return nil
}
