package pipeline

import (
	"context"
	"fmt"
	"sort"

	"github.com/omxlabs/omx-deployer/pkg/deployer/contracts"
	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

// Completion marks for stages that only have side effects.
const (
	MarkRouterRegistered = "router-registered"
	MarkPluginOrderBook  = "plugin:" + state.NameOrderBook
)

func MinterMark(symbol string) string { return "minter:" + symbol }

func OracleConfigMark(symbol string) string { return "oracle-config:" + symbol }

func PriceMark(symbol string) string { return "price:" + symbol }

func VaultConfigMark(symbol string) string { return "vault-config:" + symbol }

func SeededMark(symbol string) string { return "seeded:" + symbol }

func TestMintMark(symbol string) string { return "test-mint:" + symbol }

func codeKeys(kinds ...state.ContractKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = state.CodeKey(k)
	}
	return out
}

func oracleSourceNames(intent *state.Intent) []string {
	seen := make(map[string]bool)
	var names []string
	for _, name := range intent.OracleSources {
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// DeployOracleStage instantiates the aggregating price oracle over the
// configured token and pair addresses.
func DeployOracleStage(intent *state.Intent) Stage {
	return Stage{
		Name:     "deploy-oracle",
		Requires: append(codeKeys(state.ContractVaultPriceFeed), oracleSourceNames(intent)...),
		Produces: []string{state.NameVaultPriceFeed},
		Apply:    DeployOracle,
	}
}

func DeployOracle(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
	lgr := env.logger().New("stage", "deploy-oracle")

	codeID, err := st.CodeID(state.ContractVaultPriceFeed)
	if err != nil {
		return err
	}
	sources := make(map[string]string, len(intent.OracleSources))
	for field, name := range intent.OracleSources {
		addr, err := st.Address(name)
		if err != nil {
			return fmt.Errorf("oracle source %s: %w", field, err)
		}
		sources[field] = addr
	}

	out, err := contracts.DeployVaultPriceFeed(ctx, env.host(lgr, intent), contracts.DeployVaultPriceFeedInput{
		CodeID:  codeID,
		Label:   state.NameVaultPriceFeed,
		Sources: sources,
	})
	if err != nil {
		return err
	}
	return st.SetAddress(state.NameVaultPriceFeed, out.VaultPriceFeed)
}

func DeployVaultStage(intent *state.Intent) Stage {
	return Stage{
		Name:     "deploy-vault",
		Requires: append(codeKeys(state.ContractVault), state.NameVaultPriceFeed, intent.StableAsset),
		Produces: []string{state.NameVault},
		Apply:    DeployVault,
	}
}

func DeployVault(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
	lgr := env.logger().New("stage", "deploy-vault")

	codeID, err := st.CodeID(state.ContractVault)
	if err != nil {
		return err
	}
	deps, err := st.Addresses(state.NameVaultPriceFeed, intent.StableAsset)
	if err != nil {
		return err
	}
	fee, err := intent.Vault.LiquidationFeeUSD.Of(fixedpoint.PricePrecision())
	if err != nil {
		return fmt.Errorf("liquidation fee: %w", err)
	}

	lgr.Info("Deploying vault", "liquidation_fee_usd", fixedpoint.Format(fee, fixedpoint.PriceDecimals))
	out, err := contracts.DeployVault(ctx, env.host(lgr, intent), contracts.DeployVaultInput{
		CodeID:                  codeID,
		FundingRateFactor:       intent.Vault.FundingRateFactor,
		StableFundingRateFactor: intent.Vault.StableFundingRateFactor,
		LiquidationFeeUSD:       fee,
		PriceFeed:               deps[0],
		Usdo:                    deps[1],
	})
	if err != nil {
		return err
	}
	return st.SetAddress(state.NameVault, out.Vault)
}

func DeployRouterStage(intent *state.Intent) Stage {
	return Stage{
		Name:     "deploy-router",
		Requires: append(codeKeys(state.ContractRouter), state.NameVault, intent.StableAsset, intent.NativeWrapped),
		Produces: []string{state.NameRouter},
		Apply:    DeployRouter,
	}
}

func DeployRouter(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
	lgr := env.logger().New("stage", "deploy-router")

	codeID, err := st.CodeID(state.ContractRouter)
	if err != nil {
		return err
	}
	deps, err := st.Addresses(state.NameVault, intent.StableAsset, intent.NativeWrapped)
	if err != nil {
		return err
	}

	out, err := contracts.DeployRouter(ctx, env.host(lgr, intent), contracts.DeployRouterInput{
		CodeID:        codeID,
		Vault:         deps[0],
		Usdo:          deps[1],
		NativeWrapped: deps[2],
	})
	if err != nil {
		return err
	}
	return st.SetAddress(state.NameRouter, out.Router)
}

// TransferMinterStage makes the vault the only minter of the stable asset.
func TransferMinterStage(intent *state.Intent) Stage {
	return Stage{
		Name:     "transfer-minter",
		Requires: []string{intent.StableAsset, state.NameVault},
		Produces: []string{MinterMark(intent.StableAsset)},
		Apply:    TransferMinter,
	}
}

func TransferMinter(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
	lgr := env.logger().New("stage", "transfer-minter")

	deps, err := st.Addresses(intent.StableAsset, state.NameVault)
	if err != nil {
		return err
	}
	lgr.Info("Transferring minter", "token", intent.StableAsset, "new_minter", deps[1])
	if err := contracts.UpdateMinter(ctx, env.host(lgr, intent), contracts.UpdateMinterInput{
		Token:     deps[0],
		NewMinter: deps[1],
	}); err != nil {
		return err
	}
	return st.Mark(MinterMark(intent.StableAsset))
}

func SetRouterStage() Stage {
	return Stage{
		Name:     "set-router",
		Requires: []string{state.NameVault, state.NameRouter},
		Produces: []string{MarkRouterRegistered},
		Apply:    SetRouter,
	}
}

func SetRouter(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
	lgr := env.logger().New("stage", "set-router")

	deps, err := st.Addresses(state.NameVault, state.NameRouter)
	if err != nil {
		return err
	}
	if err := contracts.SetRouter(ctx, env.host(lgr, intent), contracts.SetRouterInput{
		Vault:  deps[0],
		Router: deps[1],
	}); err != nil {
		return err
	}
	return st.Mark(MarkRouterRegistered)
}

func DeployOrderBookStage(intent *state.Intent) Stage {
	requires := append(codeKeys(state.ContractOrderBook), state.NameRouter, state.NameVault, intent.StableAsset, intent.NativeWrapped)
	return Stage{
		Name:     "deploy-order-book",
		Requires: requires,
		Produces: []string{state.NameOrderBook},
		Apply:    DeployOrderBook,
	}
}

func DeployOrderBook(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
	lgr := env.logger().New("stage", "deploy-order-book")

	codeID, err := st.CodeID(state.ContractOrderBook)
	if err != nil {
		return err
	}
	deps, err := st.Addresses(state.NameRouter, state.NameVault, intent.StableAsset, intent.NativeWrapped)
	if err != nil {
		return err
	}
	minPurchase, err := intent.OrderBook.MinPurchaseTokenAmountUSD.Of(fixedpoint.PricePrecision())
	if err != nil {
		return fmt.Errorf("min purchase amount: %w", err)
	}

	out, err := contracts.DeployOrderBook(ctx, env.host(lgr, intent), contracts.DeployOrderBookInput{
		CodeID:                    codeID,
		Admin:                     intent.DeployerAddress,
		Router:                    deps[0],
		Vault:                     deps[1],
		Usdo:                      deps[2],
		NativeWrapped:             deps[3],
		MinExecutionFee:           intent.OrderBook.MinExecutionFee.Big(),
		MinPurchaseTokenAmountUSD: minPurchase,
	})
	if err != nil {
		return err
	}
	return st.SetAddress(state.NameOrderBook, out.OrderBook)
}

func AddPluginStage() Stage {
	return Stage{
		Name:     "add-plugin",
		Requires: []string{state.NameRouter, state.NameOrderBook},
		Produces: []string{MarkPluginOrderBook},
		Apply:    AddPlugin,
	}
}

func AddPlugin(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
	lgr := env.logger().New("stage", "add-plugin")

	deps, err := st.Addresses(state.NameRouter, state.NameOrderBook)
	if err != nil {
		return err
	}
	if err := contracts.AddPlugin(ctx, env.host(lgr, intent), contracts.AddPluginInput{
		Router: deps[0],
		Plugin: deps[1],
	}); err != nil {
		return err
	}
	return st.Mark(MarkPluginOrderBook)
}
