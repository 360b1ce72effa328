package pipeline

import (
	"context"
	"errors"
	"math/big"
	"sort"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
	"github.com/omxlabs/omx-deployer/pkg/deployer/state"
	"github.com/omxlabs/omx-deployer/pkg/deployer/testutil"
	"github.com/omxlabs/omx-deployer/pkg/deployer/validations"
	"github.com/omxlabs/omx-deployer/pkg/service/testlog"
)

func newEnv(t *testing.T, runner broadcaster.Runner, intent *state.Intent) *Env {
	lgr := testlog.Logger(t, log.LevelInfo)
	return &Env{
		Broadcaster: broadcaster.NewExecutor(runner, broadcaster.DefaultTxConfig(intent.GasPrices),
			broadcaster.WithMaxRetries(1),
			broadcaster.WithLogger(lgr),
		),
		Logger:      lgr,
		ArtifactsFS: testutil.LocalArtifacts(t, intent),
	}
}

func runDefault(t *testing.T, env *Env, intent *state.Intent) (*state.State, error) {
	p, err := DefaultPlan(intent)
	require.NoError(t, err)
	st := state.NewState()
	return st, p.Run(context.Background(), env, intent, st)
}

func outputKeys(st *state.State) []string {
	var keys []string
	for k := range st.Output() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func TestRunDefaultPlan(t *testing.T) {
	intent := testutil.MockIntent()
	runner := testutil.NewScriptedRunner(intent.AddressPrefix)
	st, err := runDefault(t, newEnv(t, runner, intent), intent)
	require.NoError(t, err)

	require.Equal(t, sorted(testutil.MockOutputKeys), outputKeys(st))
	for name, addr := range st.Output() {
		_, err := validations.CheckAddress(addr, intent.AddressPrefix)
		require.NoErrorf(t, err, "address of %s", name)
	}
	require.Len(t, st.CodeIDs(), len(state.RequiredContracts))

	require.Len(t, runner.CallsOf(broadcaster.OpStore, ""), 8)
	require.Len(t, runner.CallsOf(broadcaster.OpInstantiate, ""), 15)
	require.Len(t, runner.CallsOf(broadcaster.OpExecute, "update_minter"), 1)
	require.Len(t, runner.CallsOf(broadcaster.OpExecute, "set_router"), 1)
	require.Len(t, runner.CallsOf(broadcaster.OpExecute, "add_plugin"), 1)
	require.Len(t, runner.CallsOf(broadcaster.OpExecute, "set_latest_answer"), 4)
	require.Len(t, runner.CallsOf(broadcaster.OpExecute, "set_token_config"), 8)
	require.Len(t, runner.CallsOf(broadcaster.OpExecute, "direct_pool_deposit"), 4)
	require.Len(t, runner.CallsOf(broadcaster.OpExecute, "deposit"), 1)
	require.Len(t, runner.CallsOf(broadcaster.OpExecute, "mint"), 4)

	t.Run("store uses the wallet name", func(t *testing.T) {
		for _, c := range runner.CallsOf(broadcaster.OpStore, "") {
			require.Equal(t, intent.DeployerWallet, c.From)
		}
		for _, c := range runner.CallsOf(broadcaster.OpInstantiate, "") {
			require.Equal(t, intent.DeployerAddress, c.From)
		}
	})

	t.Run("labels", func(t *testing.T) {
		var labels []string
		for _, c := range runner.CallsOf(broadcaster.OpInstantiate, "") {
			labels = append(labels, c.Label)
		}
		require.Equal(t, []string{
			"osmo", "btc", "eth", "usdc", "usdo",
			"osmo_price_feed", "btc_price_feed", "eth_price_feed", "usdc_price_feed",
			"osmo_eth", "btc_eth",
			"vault_price_feed", "vault", "router", "orderbook",
		}, labels)
	})

	t.Run("minter moves to the vault", func(t *testing.T) {
		call := runner.CallsOf(broadcaster.OpExecute, "update_minter")[0]
		usdo, _ := st.Address("usdo")
		vault, _ := st.Address(state.NameVault)
		require.Equal(t, usdo, call.Target)
		require.JSONEq(t, `{"update_minter":{"new_minter":"`+vault+`"}}`, string(call.Msg))
	})

	t.Run("native seed attaches coins", func(t *testing.T) {
		call := runner.CallsOf(broadcaster.OpExecute, "deposit")[0]
		osmo, _ := st.Address("osmo")
		require.Equal(t, osmo, call.Target)
		require.Equal(t, fixedpoint.Units(1000, 6).String()+"uosmo", call.Amount)
	})

	t.Run("test mint goes to the deployer", func(t *testing.T) {
		mints := runner.CallsOf(broadcaster.OpExecute, "mint")
		last := mints[len(mints)-1]
		usdc, _ := st.Address("usdc")
		require.Equal(t, usdc, last.Target)
		amount := new(big.Int).Mul(big.NewInt(10000), big.NewInt(1_000_000))
		require.JSONEq(t, `{"mint":{"recipient":"`+intent.DeployerAddress+`","amount":"`+amount.String()+`"}}`, string(last.Msg))
	})

	t.Run("every completion mark is set", func(t *testing.T) {
		marks := st.Marks()
		require.Contains(t, marks, MinterMark("usdo"))
		require.Contains(t, marks, MarkRouterRegistered)
		require.Contains(t, marks, MarkPluginOrderBook)
		require.Contains(t, marks, TestMintMark("usdc"))
		for _, sym := range []string{"osmo", "btc", "eth", "usdc"} {
			require.Contains(t, marks, OracleConfigMark(sym))
			require.Contains(t, marks, PriceMark(sym))
			require.Contains(t, marks, VaultConfigMark(sym))
			require.Contains(t, marks, SeededMark(sym))
		}
	})
}

func TestRunTwiceDeploysAgain(t *testing.T) {
	intent := testutil.MockIntent()
	runner := testutil.NewScriptedRunner(intent.AddressPrefix)
	env := newEnv(t, runner, intent)

	first, err := runDefault(t, env, intent)
	require.NoError(t, err)
	second, err := runDefault(t, env, intent)
	require.NoError(t, err)

	require.Equal(t, outputKeys(first), outputKeys(second))
	for name, addr := range first.Output() {
		other, err := second.Address(name)
		require.NoError(t, err)
		require.NotEqualf(t, addr, other, "%s was not redeployed", name)
	}
	for kind, id := range first.CodeIDs() {
		other, err := second.CodeID(kind)
		require.NoError(t, err)
		require.NotEqual(t, id, other)
	}
	require.Len(t, runner.CallsOf(broadcaster.OpStore, ""), 16)
}

func TestRunFailFast(t *testing.T) {
	intent := testutil.MockIntent()
	runner := testutil.NewScriptedRunner(intent.AddressPrefix)
	runner.FailWhen = func(c testutil.Call) error {
		if c.Op == broadcaster.OpInstantiate && c.Label == state.NameVault {
			return errors.New("rpc error: connection refused")
		}
		return nil
	}

	st, err := runDefault(t, newEnv(t, runner, intent), intent)
	require.ErrorIs(t, err, broadcaster.ErrRetriesExhausted)
	require.ErrorContains(t, err, "stage deploy-vault failed")

	require.True(t, st.Has(state.NameVaultPriceFeed))
	require.False(t, st.Has(state.NameVault))
	require.False(t, st.Has(state.NameRouter))

	calls := runner.Calls()
	last := calls[len(calls)-1]
	require.Equal(t, broadcaster.OpInstantiate, last.Op)
	require.Equal(t, state.NameVault, last.Label)
	require.Len(t, runner.CallsOf(broadcaster.OpInstantiate, ""), 14)
}

func TestRunMissingArtifact(t *testing.T) {
	intent := testutil.MockIntent()
	runner := testutil.NewScriptedRunner(intent.AddressPrefix)
	env := newEnv(t, runner, intent)
	missing := intent.ArtifactsDir + "/" + state.ContractVault.ArtifactFile()
	require.NoError(t, env.ArtifactsFS.Remove(missing))

	st, err := runDefault(t, env, intent)
	require.ErrorContains(t, err, "stage store-code[omx_cw_vault] failed")
	require.ErrorContains(t, err, "does not exist")
	require.Len(t, runner.CallsOf(broadcaster.OpStore, ""), 4)
	require.Empty(t, st.Output())
}

func TestRunPreconditions(t *testing.T) {
	p, err := NewPlan(
		Stage{Name: "forgetful", Produces: []string{"vault"}, Apply: nop},
	)
	require.NoError(t, err)
	env := &Env{Broadcaster: broadcaster.NoopBroadcaster("osmo"), Logger: testlog.Logger(t, log.LevelInfo)}
	err = p.Run(context.Background(), env, testutil.MockIntent(), state.NewState())
	require.ErrorIs(t, err, ErrMissingOutput)

	p, err = NewPlan(
		stage("deploy-vault", nil, "vault"),
		stage("deploy-router", []string{"vault"}, "router"),
	)
	require.NoError(t, err)
	// the router stage on its own, without the vault in state
	err = p.runStage(context.Background(), env, testutil.MockIntent(), state.NewState(), p.Stages()[1])
	require.ErrorIs(t, err, ErrMissingDependency)
	require.ErrorContains(t, err, "vault from deploy-vault")
}

func TestRunParallel(t *testing.T) {
	intent := testutil.MockIntent()
	runner := testutil.NewScriptedRunner(intent.AddressPrefix)
	env := newEnv(t, runner, intent)
	env.Parallelism = 4

	st, err := runDefault(t, env, intent)
	require.NoError(t, err)
	require.Equal(t, sorted(testutil.MockOutputKeys), outputKeys(st))
	require.Len(t, runner.Calls(), 8+15+1+1+1+4+8+4+1+4)

	// the router must see the vault deployed before it
	var sawVault bool
	for _, c := range runner.CallsOf(broadcaster.OpInstantiate, "") {
		if c.Label == state.NameVault {
			sawVault = true
		}
		if c.Label == state.NameRouter {
			require.True(t, sawVault)
		}
	}
}

func TestRunCanceled(t *testing.T) {
	intent := testutil.MockIntent()
	runner := testutil.NewScriptedRunner(intent.AddressPrefix)
	env := newEnv(t, runner, intent)

	ctx, cancel := context.WithCancel(context.Background())
	runner.FailWhen = func(c testutil.Call) error {
		if c.Op == broadcaster.OpStore && strings.HasSuffix(c.Target, state.ContractRouter.ArtifactFile()) {
			cancel()
		}
		return nil
	}

	p, err := DefaultPlan(intent)
	require.NoError(t, err)
	err = p.Run(ctx, env, intent, state.NewState())
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, runner.CallsOf(broadcaster.OpStore, ""), 4)
	require.Empty(t, runner.CallsOf(broadcaster.OpInstantiate, ""))
}

func TestRunWithoutArtifactCheck(t *testing.T) {
	intent := testutil.MockIntent()
	env := &Env{
		Broadcaster: broadcaster.NoopBroadcaster(intent.AddressPrefix),
		Logger:      testlog.Logger(t, log.LevelInfo),
		ArtifactsFS: afero.NewMemMapFs(),
	}
	_, err := runDefault(t, env, intent)
	require.ErrorContains(t, err, "does not exist")

	env.ArtifactsFS = nil
	st, err := runDefault(t, env, intent)
	require.NoError(t, err)
	require.Equal(t, sorted(testutil.MockOutputKeys), outputKeys(st))
}
