package state

import (
	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
)

const (
	DefaultDeployerWallet  = "val"
	DefaultDeployerAddress = "osmo12smx2wdlyttvyzvzg54y2vnqwq2qjateuf7thj"
	DefaultAddressPrefix   = "osmo"
	DefaultGasPrices       = "0.1uosmo"
	DefaultArtifactsDir    = "artifacts"

	DefaultMinProfitBps    = 75
	DefaultFundingRate     = 600
	DefaultMinExecutionFee = 500000
	DefaultTestMintCount   = 10000
	DefaultStableWeight    = 1000
	DefaultVolatileWeight  = 10000
	DefaultStableAssetName = "usdo"
	DefaultNativeAssetName = "osmo"
	DefaultTestMintAsset   = "usdc"
)

// Denoms of the localnet IBC assets.
const (
	DenomOSMO = "uosmo"
	DenomUSDC = "ibc/D189335C6E4A68B513C10AB227BF1C1D38C746766278BA3EEB4FB14124F1D858"
	DenomBUSD = "ibc/6329DD8CF31A334DD5BE3F68C846C9FE313281362B37686A62343BAC1EB1546D"
	DenomBTC  = "ibc/D1542AA8762DB13087D8364F3EA6509FD6F009A34F00426AF9E4F9FA85CBBF1F"
	DenomETH  = "ibc/EA1D43981D5C9A1C4AAEA9C23BB1D4FA126BA9BC7020A25E0AE4AA841EA25DC5"
	DenomATOM = "ibc/27394FB092D2ECCD56123C74F36E4C1F926001CEADA9CA97EA622B25F41E5EB2"
)

func volatileToken() *VaultTokenConfig {
	return &VaultTokenConfig{
		Shortable:    true,
		MinProfitBps: DefaultMinProfitBps,
		Weight:       DefaultVolatileWeight,
	}
}

// DefaultIntent returns the localnet deployment profile: six external assets
// priced 1:1, the usdo protocol asset and three pricing pairs.
func DefaultIntent() *Intent {
	onePrice := fixedpoint.Whole(1)
	half := fixedpoint.Fraction{Num: 5, Den: 10}

	contracts := make([]ContractKind, len(RequiredContracts))
	copy(contracts, RequiredContracts)

	return &Intent{
		DeployerWallet:  DefaultDeployerWallet,
		DeployerAddress: DefaultDeployerAddress,
		AddressPrefix:   DefaultAddressPrefix,
		GasPrices:       DefaultGasPrices,
		ArtifactsDir:    DefaultArtifactsDir,
		Contracts:       contracts,
		Assets: []Asset{
			{
				Symbol:      "osmo",
				Denom:       DenomOSMO,
				Decimals:    6,
				Kind:        AssetKindNative,
				OraclePrice: onePrice,
				Vault:       volatileToken(),
				VaultSeed:   1000,
			},
			{
				Symbol:      "usdc",
				Denom:       DenomUSDC,
				Decimals:    6,
				Kind:        AssetKindWrapped,
				OraclePrice: onePrice,
				Vault: &VaultTokenConfig{
					Stable:       true,
					MinProfitBps: DefaultMinProfitBps,
					Weight:       DefaultStableWeight,
				},
				VaultSeed: 1_000_000,
			},
			{
				Symbol:      "busd",
				Denom:       DenomBUSD,
				Decimals:    18,
				Kind:        AssetKindWrapped,
				OraclePrice: onePrice,
			},
			{
				Symbol:      "btc",
				Denom:       DenomBTC,
				Decimals:    8,
				Kind:        AssetKindWrapped,
				OraclePrice: onePrice,
				Vault:       volatileToken(),
				VaultSeed:   1000,
			},
			{
				Symbol:      "eth",
				Denom:       DenomETH,
				Decimals:    18,
				Kind:        AssetKindWrapped,
				OraclePrice: onePrice,
				Vault:       volatileToken(),
				VaultSeed:   1000,
			},
			{
				Symbol:   DefaultStableAssetName,
				Decimals: 18,
				Kind:     AssetKindProtocol,
			},
			{
				Symbol:      "atom",
				Denom:       DenomATOM,
				Decimals:    6,
				Kind:        AssetKindWrapped,
				OraclePrice: onePrice,
				Vault:       volatileToken(),
				VaultSeed:   1_000_000,
			},
		},
		StableAsset:   DefaultStableAssetName,
		NativeWrapped: DefaultNativeAssetName,
		Pairs: []Pair{
			{Name: "eth_busd", Token0: "eth", Token1: "busd"},
			{Name: "osmo_eth", Token0: "osmo", Token1: "eth"},
			{Name: "btc_eth", Token0: "btc", Token1: "eth"},
		},
		OracleSources: map[string]string{
			"btc":      "btc",
			"eth":      "eth",
			"osmo":     "osmo",
			"eth_busd": "eth_busd",
			"btc_eth":  "btc_eth",
			"osmo_eth": "osmo_eth",
		},
		PriceFeedDecimals: fixedpoint.OraclePriceDecimals,
		Vault: VaultParams{
			FundingRateFactor:       DefaultFundingRate,
			StableFundingRateFactor: DefaultFundingRate,
			LiquidationFeeUSD:       half,
		},
		OrderBook: OrderBookParams{
			MinExecutionFee:           fixedpoint.Uint128FromUint64(DefaultMinExecutionFee),
			MinPurchaseTokenAmountUSD: half,
		},
		TestMint: &TestMint{
			Asset: DefaultTestMintAsset,
			Count: DefaultTestMintCount,
		},
	}
}
