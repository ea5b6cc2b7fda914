package registry

import "github.com/ethereum/go-ethereum/common"

// Supported chain IDs.
const (
	MainnetChainID  uint64 = 1
	OptimismChainID uint64 = 10
	BaseChainID     uint64 = 8453
	ArbitrumChainID uint64 = 42161
)

// Optimism contract addresses.
var (
	optimismRouter = common.HexToAddress("0xB9Fba7B2216167DCdd1A7AE0a564dD43E1b68b95")

	poolOptimism  = common.HexToAddress("0x395Ae52bB17aef68C2888d941736A71dC6d4e125")
	daiOptimism   = common.HexToAddress("0xDA10009cBd5D07dd0CeCc66161FC93D7c9000da1")
	usdcOptimism  = common.HexToAddress("0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85")
	usdceOptimism = common.HexToAddress("0x7F5c764cBc14f9669B88837ca1490cCa17c31607")
	wethOptimism  = common.HexToAddress("0x4200000000000000000000000000000000000006")

	pDAIPairOptimism   = common.HexToAddress("0x7169526daBFD1cDdE174a0A7d8c75DeB582d0990")
	pUSDCPairOptimism  = common.HexToAddress("0x217ef9C355f7eb59C789e0471dc1f4398e004EDc")
	pUSDCePairOptimism = common.HexToAddress("0xe7680701a2794E6E0a38aC72630c535B9720dA5b")
	pWETHPairOptimism  = common.HexToAddress("0xde5deFa124faAA6d85E98E56b36616d249e543Ca")
)

// New builds the registry with the hard-coded per-chain tables. Supporting
// another chain means adding its entry here; tables never change at runtime.
func New() *Registry {
	return &Registry{
		chains: map[uint64]chainTables{
			OptimismChainID: {
				router:     optimismRouter,
				quoteAsset: poolOptimism,
				pairUnderlying: map[common.Address]common.Address{
					pDAIPairOptimism:   daiOptimism,
					pUSDCPairOptimism:  usdcOptimism,
					pUSDCePairOptimism: usdceOptimism,
					pWETHPairOptimism:  wethOptimism,
				},
				assets: map[common.Address]Asset{
					poolOptimism:  {Address: poolOptimism, Decimals: 18, Symbol: "POOL"},
					daiOptimism:   {Address: daiOptimism, Decimals: 18, Symbol: "DAI"},
					usdcOptimism:  {Address: usdcOptimism, Decimals: 6, Symbol: "USDC"},
					usdceOptimism: {Address: usdceOptimism, Decimals: 6, Symbol: "USDC.E"},
					wethOptimism:  {Address: wethOptimism, Decimals: 18, Symbol: "WETH"},
				},
			},
		},
	}
}
