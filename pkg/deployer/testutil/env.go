package testutil

import (
	"path"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

// LocalArtifacts returns an in-memory filesystem holding a placeholder
// artifact for every contract the intent lists.
func LocalArtifacts(t *testing.T, intent *state.Intent) afero.Fs {
	fs := afero.NewMemMapFs()
	for _, kind := range intent.Contracts {
		p := path.Join(intent.ArtifactsDir, kind.ArtifactFile())
		require.NoError(t, afero.WriteFile(fs, p, []byte("\x00asm"+string(kind)), 0o644))
	}
	return fs
}

// MockIntent is a five asset profile: the native asset, two wrapped volatile
// assets, one wrapped dollar-pegged asset and the protocol stable asset.
func MockIntent() *state.Intent {
	one := fixedpoint.Whole(1)
	half := fixedpoint.Fraction{Num: 5, Den: 10}
	volatile := func() *state.VaultTokenConfig {
		return &state.VaultTokenConfig{Shortable: true, MinProfitBps: 75, Weight: 10000}
	}

	contracts := make([]state.ContractKind, len(state.RequiredContracts))
	copy(contracts, state.RequiredContracts)

	return &state.Intent{
		DeployerWallet:  "val",
		DeployerAddress: state.DefaultDeployerAddress,
		AddressPrefix:   "osmo",
		GasPrices:       "0.1uosmo",
		ArtifactsDir:    "artifacts",
		Contracts:       contracts,
		Assets: []state.Asset{
			{Symbol: "osmo", Denom: "uosmo", Decimals: 6, Kind: state.AssetKindNative, OraclePrice: one, Vault: volatile(), VaultSeed: 1000},
			{Symbol: "btc", Denom: "ibc/BTC", Decimals: 8, Kind: state.AssetKindWrapped, OraclePrice: one, Vault: volatile(), VaultSeed: 1000},
			{Symbol: "eth", Denom: "ibc/ETH", Decimals: 18, Kind: state.AssetKindWrapped, OraclePrice: one, Vault: volatile(), VaultSeed: 1000},
			{
				Symbol:      "usdc",
				Denom:       "ibc/USDC",
				Decimals:    6,
				Kind:        state.AssetKindWrapped,
				OraclePrice: one,
				Vault:       &state.VaultTokenConfig{Stable: true, MinProfitBps: 75, Weight: 1000},
				VaultSeed:   1_000_000,
			},
			{Symbol: "usdo", Decimals: 18, Kind: state.AssetKindProtocol},
		},
		StableAsset:   "usdo",
		NativeWrapped: "osmo",
		Pairs: []state.Pair{
			{Name: "osmo_eth", Token0: "osmo", Token1: "eth"},
			{Name: "btc_eth", Token0: "btc", Token1: "eth"},
		},
		OracleSources: map[string]string{
			"btc":      "btc",
			"eth":      "eth",
			"osmo":     "osmo",
			"btc_eth":  "btc_eth",
			"osmo_eth": "osmo_eth",
		},
		PriceFeedDecimals: fixedpoint.OraclePriceDecimals,
		Vault: state.VaultParams{
			FundingRateFactor:       600,
			StableFundingRateFactor: 600,
			LiquidationFeeUSD:       half,
		},
		OrderBook: state.OrderBookParams{
			MinExecutionFee:           fixedpoint.Uint128FromUint64(500000),
			MinPurchaseTokenAmountUSD: half,
		},
		TestMint: &state.TestMint{Asset: "usdc", Count: 10000},
	}
}

// MockOutputKeys is every logical name a full run of MockIntent reports.
var MockOutputKeys = []string{
	"osmo", "btc", "eth", "usdc", "usdo",
	"osmo_price_feed", "btc_price_feed", "eth_price_feed", "usdc_price_feed",
	"osmo_eth", "btc_eth",
	"vault_price_feed", "vault", "router", "orderbook",
}
