package pipeline

import (
	"context"
	"fmt"

	"github.com/omxlabs/omx-deployer/pkg/deployer/contracts"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
)

func tokenCodeKind(a *state.Asset) state.ContractKind {
	if a.Kind == state.AssetKindProtocol {
		return state.ContractBaseToken
	}
	return state.ContractWrappedToken
}

// DeployTokenStage instantiates the token contract for an asset. Native and
// wrapped assets use the wrapped-token code, the protocol asset the
// base-token code. The deployer is the initial minter.
func DeployTokenStage(a state.Asset) Stage {
	return Stage{
		Name:     fmt.Sprintf("deploy-token[%s]", a.Symbol),
		Requires: []string{state.CodeKey(tokenCodeKind(&a))},
		Produces: []string{a.Symbol},
		Apply: func(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
			return DeployToken(ctx, env, intent, st, a.Symbol)
		},
	}
}

func DeployToken(ctx context.Context, env *Env, intent *state.Intent, st *state.State, symbol string) error {
	lgr := env.logger().New("stage", "deploy-token", "symbol", symbol)

	asset, err := intent.Asset(symbol)
	if err != nil {
		return err
	}
	codeID, err := st.CodeID(tokenCodeKind(asset))
	if err != nil {
		return err
	}

	lgr.Info("Deploying token", "kind", asset.Kind, "decimals", asset.Decimals)
	host := env.host(lgr, intent)
	var out contracts.DeployTokenOutput
	if asset.Kind == state.AssetKindProtocol {
		out, err = contracts.DeployBaseToken(ctx, host, contracts.DeployBaseTokenInput{
			CodeID:   codeID,
			Symbol:   asset.Symbol,
			Decimals: asset.Decimals,
			Minter:   intent.DeployerAddress,
		})
	} else {
		out, err = contracts.DeployWrappedToken(ctx, host, contracts.DeployWrappedTokenInput{
			CodeID:   codeID,
			Symbol:   asset.Symbol,
			Denom:    asset.Denom,
			Decimals: asset.Decimals,
			Minter:   intent.DeployerAddress,
		})
	}
	if err != nil {
		return err
	}
	return st.SetAddress(asset.Symbol, out.Token)
}

// DeployPriceFeedStage instantiates the manual price feed for a priced asset.
func DeployPriceFeedStage(a state.Asset) Stage {
	return Stage{
		Name:     fmt.Sprintf("deploy-price-feed[%s]", a.Symbol),
		Requires: []string{state.CodeKey(state.ContractPriceFeed)},
		Produces: []string{a.PriceFeedName()},
		Apply: func(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
			return DeployPriceFeed(ctx, env, intent, st, a.Symbol)
		},
	}
}

func DeployPriceFeed(ctx context.Context, env *Env, intent *state.Intent, st *state.State, symbol string) error {
	lgr := env.logger().New("stage", "deploy-price-feed", "symbol", symbol)

	asset, err := intent.Asset(symbol)
	if err != nil {
		return err
	}
	codeID, err := st.CodeID(state.ContractPriceFeed)
	if err != nil {
		return err
	}

	out, err := contracts.DeployPriceFeed(ctx, env.host(lgr, intent), contracts.DeployPriceFeedInput{
		CodeID: codeID,
		Label:  asset.PriceFeedName(),
	})
	if err != nil {
		return err
	}
	return st.SetAddress(asset.PriceFeedName(), out.PriceFeed)
}

func DeployPairStage(p state.Pair) Stage {
	return Stage{
		Name:     fmt.Sprintf("deploy-pair[%s]", p.Name),
		Requires: []string{state.CodeKey(state.ContractPair), p.Token0, p.Token1},
		Produces: []string{p.Name},
		Apply: func(ctx context.Context, env *Env, intent *state.Intent, st *state.State) error {
			return DeployPair(ctx, env, intent, st, p)
		},
	}
}

func DeployPair(ctx context.Context, env *Env, intent *state.Intent, st *state.State, p state.Pair) error {
	lgr := env.logger().New("stage", "deploy-pair", "pair", p.Name)

	codeID, err := st.CodeID(state.ContractPair)
	if err != nil {
		return err
	}
	tokens, err := st.Addresses(p.Token0, p.Token1)
	if err != nil {
		return err
	}

	out, err := contracts.DeployPair(ctx, env.host(lgr, intent), contracts.DeployPairInput{
		CodeID: codeID,
		Name:   p.Name,
		Token0: tokens[0],
		Token1: tokens[1],
	})
	if err != nil {
		return err
	}
	return st.SetAddress(p.Name, out.Pair)
}
