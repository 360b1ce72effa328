package pipeline

import (
	"fmt"

	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

// DefaultPlan is the full protocol deployment for intent: code upload,
// tokens, price feeds and pairs, the core contracts and their wiring, then
// per-asset oracle and vault configuration, vault seeding and the optional
// test mint.
func DefaultPlan(intent *state.Intent) (*Plan, error) {
	if err := intent.Check(); err != nil {
		return nil, fmt.Errorf("invalid intent: %w", err)
	}

	var stages []Stage
	for _, kind := range intent.Contracts {
		stages = append(stages, StoreCodeStage(kind))
	}
	for _, a := range intent.Assets {
		stages = append(stages, DeployTokenStage(a))
	}
	priced := intent.PricedAssets()
	for _, a := range priced {
		stages = append(stages, DeployPriceFeedStage(*a))
	}
	for _, p := range intent.Pairs {
		stages = append(stages, DeployPairStage(p))
	}

	stages = append(stages,
		DeployOracleStage(intent),
		DeployVaultStage(intent),
		DeployRouterStage(intent),
		TransferMinterStage(intent),
		SetRouterStage(),
		DeployOrderBookStage(intent),
		AddPluginStage(),
	)

	// Per-asset configuration follows the profile's asset order. These stages
	// only depend on the core contracts and on earlier stages of the same
	// asset, so the localnet script's order (usdc listed in the vault first,
	// osmo seeded after the wrapped assets) does not change the result.
	for _, a := range priced {
		stages = append(stages, ConfigurePriceFeedStage(*a))
	}
	for _, a := range priced {
		stages = append(stages, PushPriceStage(*a))
	}
	for _, a := range intent.VaultAssets() {
		stages = append(stages, SetTokenConfigStage(*a))
	}
	for _, a := range intent.SeededAssets() {
		stages = append(stages, SeedVaultLiquidityStage(*a))
	}
	if intent.TestMint != nil {
		stages = append(stages, MintTestFundsStage(*intent.TestMint))
	}

	return NewPlan(stages...)
}
