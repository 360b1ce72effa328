package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
	"github.com/omxlabs/omx-deployer/pkg/deployer/testutil"
)

func nop(context.Context, *Env, *state.Intent, *state.State) error { return nil }

func stage(name string, requires []string, produces ...string) Stage {
	return Stage{Name: name, Requires: requires, Produces: produces, Apply: nop}
}

func TestNewPlanValidation(t *testing.T) {
	tests := []struct {
		name   string
		stages []Stage
		err    error
	}{
		{
			name: "router before vault",
			stages: []Stage{
				stage("deploy-router", []string{"vault"}, "router"),
				stage("deploy-vault", nil, "vault"),
			},
			err: ErrMissingDependency,
		},
		{
			name: "self dependency",
			stages: []Stage{
				stage("deploy-vault", []string{"vault"}, "vault"),
			},
			err: ErrMissingDependency,
		},
		{
			name: "duplicate stage",
			stages: []Stage{
				stage("deploy-vault", nil, "vault"),
				stage("deploy-vault", nil, "vault2"),
			},
			err: ErrDuplicateStage,
		},
		{
			name: "key produced twice",
			stages: []Stage{
				stage("deploy-vault", nil, "vault"),
				stage("deploy-other-vault", nil, "vault"),
			},
			err: ErrDuplicateOutput,
		},
		{
			name: "no outputs",
			stages: []Stage{
				stage("noop", nil),
			},
			err: ErrEmptyStage,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlan(tt.stages...)
			require.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("missing apply", func(t *testing.T) {
		_, err := NewPlan(Stage{Name: "x", Produces: []string{"x"}})
		require.ErrorContains(t, err, "no apply function")
	})
}

func TestPlanWaves(t *testing.T) {
	p, err := NewPlan(
		stage("a", nil, "a"),
		stage("b", nil, "b"),
		stage("c", []string{"a"}, "c"),
		stage("d", []string{"b"}, "d"),
		stage("e", []string{"d"}, "e"),
	)
	require.NoError(t, err)

	names := func(waves [][]Stage) [][]string {
		var out [][]string
		for _, w := range waves {
			var ns []string
			for _, s := range w {
				ns = append(ns, s.Name)
			}
			out = append(out, ns)
		}
		return out
	}
	require.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, names(p.Waves(true)))
	require.Equal(t, [][]string{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}, names(p.Waves(false)))

	producer, ok := p.Producer("d")
	require.True(t, ok)
	require.Equal(t, "d", producer)
	_, ok = p.Producer("z")
	require.False(t, ok)
}

func TestCoreStageDependencies(t *testing.T) {
	intent := testutil.MockIntent()

	router := DeployRouterStage(intent)
	require.ElementsMatch(t, []string{
		state.CodeKey(state.ContractRouter),
		state.NameVault,
		intent.StableAsset,
		intent.NativeWrapped,
	}, router.Requires)

	book := DeployOrderBookStage(intent)
	require.ElementsMatch(t, []string{
		state.CodeKey(state.ContractOrderBook),
		state.NameRouter,
		state.NameVault,
		intent.StableAsset,
		intent.NativeWrapped,
	}, book.Requires)

	// everything the core stages need, except what they produce themselves
	var upstream []Stage
	for _, kind := range intent.Contracts {
		upstream = append(upstream, StoreCodeStage(kind))
	}
	for _, a := range intent.Assets {
		upstream = append(upstream, DeployTokenStage(a))
	}
	for _, a := range intent.PricedAssets() {
		upstream = append(upstream, DeployPriceFeedStage(*a))
	}
	for _, pair := range intent.Pairs {
		upstream = append(upstream, DeployPairStage(pair))
	}
	upstream = append(upstream, DeployOracleStage(intent))

	tests := []struct {
		name  string
		order []Stage
		err   error
	}{
		{
			name:  "vault, router, order book",
			order: []Stage{DeployVaultStage(intent), router, book},
		},
		{
			name:  "order book before router",
			order: []Stage{DeployVaultStage(intent), book, router},
			err:   ErrMissingDependency,
		},
		{
			name:  "order book before vault",
			order: []Stage{book, DeployVaultStage(intent), router},
			err:   ErrMissingDependency,
		},
		{
			name:  "router before vault",
			order: []Stage{router, DeployVaultStage(intent), book},
			err:   ErrMissingDependency,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stages := append(append([]Stage{}, upstream...), tt.order...)
			_, err := NewPlan(stages...)
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDefaultPlan(t *testing.T) {
	intent := testutil.MockIntent()
	p, err := DefaultPlan(intent)
	require.NoError(t, err)

	var names []string
	for _, s := range p.Stages() {
		names = append(names, s.Name)
	}
	require.Equal(t, []string{
		"store-code[omx_cw_base_token]",
		"store-code[omx_cw_pair]",
		"store-code[omx_cw_price_feed]",
		"store-code[omx_cw_router]",
		"store-code[omx_cw_vault]",
		"store-code[omx_cw_vault_price_feed]",
		"store-code[omx_cw_wrapped_token]",
		"store-code[omx_cw_orderbook]",
		"deploy-token[osmo]",
		"deploy-token[btc]",
		"deploy-token[eth]",
		"deploy-token[usdc]",
		"deploy-token[usdo]",
		"deploy-price-feed[osmo]",
		"deploy-price-feed[btc]",
		"deploy-price-feed[eth]",
		"deploy-price-feed[usdc]",
		"deploy-pair[osmo_eth]",
		"deploy-pair[btc_eth]",
		"deploy-oracle",
		"deploy-vault",
		"deploy-router",
		"transfer-minter",
		"set-router",
		"deploy-order-book",
		"add-plugin",
		"configure-price-feed[osmo]",
		"configure-price-feed[btc]",
		"configure-price-feed[eth]",
		"configure-price-feed[usdc]",
		"push-price[osmo]",
		"push-price[btc]",
		"push-price[eth]",
		"push-price[usdc]",
		"set-token-config[osmo]",
		"set-token-config[btc]",
		"set-token-config[eth]",
		"set-token-config[usdc]",
		"seed-vault-liquidity[osmo]",
		"seed-vault-liquidity[btc]",
		"seed-vault-liquidity[eth]",
		"seed-vault-liquidity[usdc]",
		"mint-test-funds",
	}, names)

	producer, ok := p.Producer(state.NameVaultPriceFeed)
	require.True(t, ok)
	require.Equal(t, "deploy-oracle", producer)

	waves := p.Waves(true)
	require.Len(t, waves[0], len(intent.Contracts))
	require.Less(t, len(waves), len(names))
	for i, w := range waves {
		produced := make(map[string]bool)
		for _, s := range w {
			for _, key := range s.Produces {
				produced[key] = true
			}
		}
		for _, s := range w {
			for _, key := range s.Requires {
				require.Falsef(t, produced[key], "wave %d: %s requires %s from the same wave", i, s.Name, key)
			}
		}
	}

	t.Run("without test mint", func(t *testing.T) {
		intent := testutil.MockIntent()
		intent.TestMint = nil
		p, err := DefaultPlan(intent)
		require.NoError(t, err)
		stages := p.Stages()
		require.Equal(t, "seed-vault-liquidity[usdc]", stages[len(stages)-1].Name)
	})

	t.Run("invalid intent", func(t *testing.T) {
		intent := testutil.MockIntent()
		intent.StableAsset = "btc"
		_, err := DefaultPlan(intent)
		require.ErrorContains(t, err, "invalid intent")
	})
}
