package pipeline

import (
	"context"
	"fmt"

	"github.com/omxlabs/omx-deployer/pkg/deployer/contracts"
	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

// ConfigurePriceFeedStage registers an asset's price feed with the oracle.
func ConfigurePriceFeedStage(a state.Asset) Stage {
	return Stage{
		Name:     fmt.Sprintf("configure-price-feed[%s]", a.Symbol),
		Requires: []string{state.NameVaultPriceFeed, a.Symbol, a.PriceFeedName()},
		Produces: []string{OracleConfigMark(a.Symbol)},
		Apply: func(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
			return ConfigurePriceFeed(ctx, env, intent, st, a.Symbol)
		},
	}
}

func ConfigurePriceFeed(ctx context.Context, env *Env, intent *state.Intent, st *state.State, symbol string) error {
	lgr := env.logger().New("stage", "configure-price-feed", "symbol", symbol)

	asset, err := intent.Asset(symbol)
	if err != nil {
		return err
	}
	deps, err := st.Addresses(state.NameVaultPriceFeed, asset.Symbol, asset.PriceFeedName())
	if err != nil {
		return err
	}
	if err := contracts.SetPriceFeedConfig(ctx, env.host(lgr, intent), contracts.SetPriceFeedConfigInput{
		VaultPriceFeed: deps[0],
		Token:          deps[1],
		PriceFeed:      deps[2],
		PriceDecimals:  intent.PriceFeedDecimals,
		StrictStable:   asset.StrictStable,
	}); err != nil {
		return err
	}
	return st.Mark(OracleConfigMark(symbol))
}

// PushPriceStage sets the initial answer of an asset's price feed.
func PushPriceStage(a state.Asset) Stage {
	return Stage{
		Name:     fmt.Sprintf("push-price[%s]", a.Symbol),
		Requires: []string{a.PriceFeedName()},
		Produces: []string{PriceMark(a.Symbol)},
		Apply: func(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
			return PushPrice(ctx, env, intent, st, a.Symbol)
		},
	}
}

func PushPrice(ctx context.Context, env *Env, intent *state.Intent, st *state.State, symbol string) error {
	lgr := env.logger().New("stage", "push-price", "symbol", symbol)

	asset, err := intent.Asset(symbol)
	if err != nil {
		return err
	}
	feed, err := st.Address(asset.PriceFeedName())
	if err != nil {
		return err
	}
	price, err := asset.OraclePrice.Of(fixedpoint.OraclePricePrecision())
	if err != nil {
		return fmt.Errorf("oracle price of %s: %w", symbol, err)
	}

	lgr.Info("Pushing initial price", "price", fixedpoint.Format(price, fixedpoint.OraclePriceDecimals))
	if err := contracts.SetLatestPrice(ctx, env.host(lgr, intent), contracts.SetLatestPriceInput{
		PriceFeed: feed,
		Price:     price,
	}); err != nil {
		return err
	}
	return st.Mark(PriceMark(symbol))
}

// SetTokenConfigStage lists an asset in the vault. The oracle must already
// price the asset.
func SetTokenConfigStage(a state.Asset) Stage {
	return Stage{
		Name:     fmt.Sprintf("set-token-config[%s]", a.Symbol),
		Requires: []string{state.NameVault, a.Symbol, OracleConfigMark(a.Symbol), PriceMark(a.Symbol)},
		Produces: []string{VaultConfigMark(a.Symbol)},
		Apply: func(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
			return SetTokenConfig(ctx, env, intent, st, a.Symbol)
		},
	}
}

func SetTokenConfig(ctx context.Context, env *Env, intent *state.Intent, st *state.State, symbol string) error {
	lgr := env.logger().New("stage", "set-token-config", "symbol", symbol)

	asset, err := intent.Asset(symbol)
	if err != nil {
		return err
	}
	if asset.Vault == nil {
		return fmt.Errorf("asset %s is not listed in the vault", symbol)
	}
	deps, err := st.Addresses(state.NameVault, asset.Symbol)
	if err != nil {
		return err
	}
	cfg := asset.Vault
	if err := contracts.SetVaultTokenConfig(ctx, env.host(lgr, intent), contracts.SetVaultTokenConfigInput{
		Vault:         deps[0],
		Token:         deps[1],
		TokenDecimals: asset.Decimals,
		Shortable:     cfg.Shortable,
		Stable:        cfg.Stable,
		MinProfitBps:  cfg.MinProfitBps,
		Weight:        cfg.Weight,
		MaxUsdoAmount: cfg.MaxUsdoAmount,
	}); err != nil {
		return err
	}
	return st.Mark(VaultConfigMark(symbol))
}

// SeedVaultLiquidityStage deposits the asset's seed amount into the vault
// pool.
func SeedVaultLiquidityStage(a state.Asset) Stage {
	return Stage{
		Name:     fmt.Sprintf("seed-vault-liquidity[%s]", a.Symbol),
		Requires: []string{state.NameVault, a.Symbol, VaultConfigMark(a.Symbol)},
		Produces: []string{SeededMark(a.Symbol)},
		Apply: func(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
			return SeedVaultLiquidity(ctx, env, intent, st, a.Symbol)
		},
	}
}

func SeedVaultLiquidity(ctx context.Context, env *Env, intent *state.Intent, st *state.State, symbol string) error {
	lgr := env.logger().New("stage", "seed-vault-liquidity", "symbol", symbol)

	asset, err := intent.Asset(symbol)
	if err != nil {
		return err
	}
	deps, err := st.Addresses(state.NameVault, asset.Symbol)
	if err != nil {
		return err
	}
	input := contracts.SeedVaultLiquidityInput{
		Vault:    deps[0],
		Token:    deps[1],
		Amount:   asset.SeedAmount(),
		Decimals: asset.Decimals,
	}
	if asset.Kind == state.AssetKindNative {
		input.NativeDenom = asset.Denom
	}
	if err := contracts.SeedVaultLiquidity(ctx, env.host(lgr, intent), input); err != nil {
		return err
	}
	return st.Mark(SeededMark(symbol))
}

// MintTestFundsStage mints a fixed number of whole units of the test asset
// to the deployer.
func MintTestFundsStage(tm state.TestMint) Stage {
	return Stage{
		Name:     "mint-test-funds",
		Requires: []string{tm.Asset},
		Produces: []string{TestMintMark(tm.Asset)},
		Apply:    MintTestFunds,
	}
}

func MintTestFunds(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
	if intent.TestMint == nil {
		return fmt.Errorf("no test mint configured")
	}
	tm := intent.TestMint
	lgr := env.logger().New("stage", "mint-test-funds", "symbol", tm.Asset)

	asset, err := intent.Asset(tm.Asset)
	if err != nil {
		return err
	}
	token, err := st.Address(asset.Symbol)
	if err != nil {
		return err
	}
	amount := fixedpoint.Units(tm.Count, asset.Decimals)

	lgr.Info("Minting test funds", "recipient", intent.DeployerAddress, "amount", fixedpoint.Format(amount, asset.Decimals))
	if err := contracts.Mint(ctx, env.host(lgr, intent), contracts.MintInput{
		Token:     token,
		Recipient: intent.DeployerAddress,
		Amount:    amount,
	}); err != nil {
		return err
	}
	return st.Mark(TestMintMark(tm.Asset))
}
