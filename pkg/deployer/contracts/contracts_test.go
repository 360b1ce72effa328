package contracts

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
	"github.com/omxlabs/omx-deployer/pkg/deployer/testutil"
	"github.com/omxlabs/omx-deployer/pkg/deployer/validations"
	"github.com/omxlabs/omx-deployer/pkg/service/testlog"
)

const deployer = "osmo12smx2wdlyttvyzvzg54y2vnqwq2qjateuf7thj"

func newHost(t *testing.T) (*Host, *testutil.ScriptedRunner) {
	runner := testutil.NewScriptedRunner("osmo")
	lgr := testlog.Logger(t, log.LevelInfo)
	bcaster := broadcaster.NewExecutor(runner, broadcaster.DefaultTxConfig("0.1uosmo"),
		broadcaster.WithMaxRetries(2),
		broadcaster.WithLogger(lgr),
	)
	return NewHost(bcaster, lgr, deployer, "val"), runner
}

func lastMsg(t *testing.T, runner *testutil.ScriptedRunner) string {
	calls := runner.Calls()
	require.NotEmpty(t, calls)
	return string(calls[len(calls)-1].Msg)
}

func TestStoreCode(t *testing.T) {
	h, runner := newHost(t)
	out, err := StoreCode(context.Background(), h, StoreCodeInput{Kind: "omx_cw_vault", Path: "artifacts/omx_cw_vault.wasm"})
	require.NoError(t, err)
	require.EqualValues(t, 1, out.CodeID)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, "val", calls[0].From)
	require.Equal(t, "artifacts/omx_cw_vault.wasm", calls[0].Target)

	_, err = StoreCode(context.Background(), h, StoreCodeInput{Kind: "omx_cw_vault"})
	require.ErrorIs(t, err, ErrMissingInput)
}

func TestDeployTokens(t *testing.T) {
	h, runner := newHost(t)
	ctx := context.Background()

	wrapped, err := DeployWrappedToken(ctx, h, DeployWrappedTokenInput{
		CodeID:   7,
		Symbol:   "btc",
		Denom:    "ibc/BTC",
		Decimals: 8,
		Minter:   deployer,
	})
	require.NoError(t, err)
	_, err = validations.CheckAddress(wrapped.Token, "osmo")
	require.NoError(t, err)
	require.JSONEq(t, `{"name":"btc","denom":"ibc/BTC","symbol":"btc","decimals":8,"mint":{"minter":"`+deployer+`"}}`, lastMsg(t, runner))

	calls := runner.Calls()
	require.Equal(t, "7", calls[0].Target)
	require.Equal(t, "btc", calls[0].Label)
	require.Equal(t, deployer, calls[0].From)

	base, err := DeployBaseToken(ctx, h, DeployBaseTokenInput{CodeID: 1, Symbol: "usdo", Decimals: 18, Minter: deployer})
	require.NoError(t, err)
	require.NotEqual(t, wrapped.Token, base.Token)
	require.JSONEq(t, `{"name":"usdo","symbol":"usdo","id":"usdo","decimals":18,"mint":{"minter":"`+deployer+`"}}`, lastMsg(t, runner))

	_, err = DeployBaseToken(ctx, h, DeployBaseTokenInput{Symbol: "usdo", Minter: deployer})
	require.ErrorIs(t, err, ErrMissingInput)
}

func TestDeployCore(t *testing.T) {
	h, runner := newHost(t)
	ctx := context.Background()

	oracle, err := DeployVaultPriceFeed(ctx, h, DeployVaultPriceFeedInput{
		CodeID:  6,
		Label:   "vault_price_feed",
		Sources: map[string]string{"btc": "osmo1btc", "btc_eth": "osmo1pair"},
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"btc":"osmo1btc","btc_eth":"osmo1pair","is_amm_enabled":false}`, lastMsg(t, runner))

	half, err := fixedpoint.Fraction{Num: 5, Den: 10}.Of(fixedpoint.PricePrecision())
	require.NoError(t, err)

	vault, err := DeployVault(ctx, h, DeployVaultInput{
		CodeID:                  5,
		FundingRateFactor:       600,
		StableFundingRateFactor: 600,
		LiquidationFeeUSD:       half,
		PriceFeed:               oracle.VaultPriceFeed,
		Usdo:                    "osmo1usdo",
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"funding_rate_factor": "600",
		"liquidation_fee_usd": "500000000000000000",
		"price_feed": "`+oracle.VaultPriceFeed+`",
		"stable_funding_rate_factor": "600",
		"usdo": "osmo1usdo"
	}`, lastMsg(t, runner))

	router, err := DeployRouter(ctx, h, DeployRouterInput{CodeID: 4, Vault: vault.Vault, Usdo: "osmo1usdo", NativeWrapped: "osmo1osmo"})
	require.NoError(t, err)
	require.JSONEq(t, `{"vault":"`+vault.Vault+`","usdo":"osmo1usdo","wosmo":"osmo1osmo"}`, lastMsg(t, runner))

	book, err := DeployOrderBook(ctx, h, DeployOrderBookInput{
		CodeID:                    8,
		Vault:                     vault.Vault,
		Router:                    router.Router,
		NativeWrapped:             "osmo1osmo",
		Usdo:                      "osmo1usdo",
		MinExecutionFee:           big.NewInt(500000),
		MinPurchaseTokenAmountUSD: half,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{
		"admin": "`+deployer+`",
		"vault": "`+vault.Vault+`",
		"router": "`+router.Router+`",
		"wosmo": "osmo1osmo",
		"usdo": "osmo1usdo",
		"min_execution_fee": "500000",
		"min_purchase_token_amount_usd": "500000000000000000"
	}`, lastMsg(t, runner))
	require.Equal(t, "orderbook", runner.Calls()[3].Label)
	_, err = validations.CheckAddress(book.OrderBook, "osmo")
	require.NoError(t, err)
	require.NotEqual(t, router.Router, book.OrderBook)

	_, err = DeployRouter(ctx, h, DeployRouterInput{CodeID: 4, Vault: vault.Vault, Usdo: "osmo1usdo"})
	require.ErrorIs(t, err, ErrMissingInput)
}

func TestExecuteMessages(t *testing.T) {
	ctx := context.Background()
	oneDollar := fixedpoint.OraclePricePrecision()

	tests := []struct {
		name   string
		run    func(h *Host) error
		target string
		msg    string
		amount string
	}{
		{
			name:   "update minter",
			run:    func(h *Host) error { return UpdateMinter(ctx, h, UpdateMinterInput{Token: "osmo1usdo", NewMinter: "osmo1vault"}) },
			target: "osmo1usdo",
			msg:    `{"update_minter":{"new_minter":"osmo1vault"}}`,
		},
		{
			name:   "set router",
			run:    func(h *Host) error { return SetRouter(ctx, h, SetRouterInput{Vault: "osmo1vault", Router: "osmo1router"}) },
			target: "osmo1vault",
			msg:    `{"set_router":{"router":"osmo1router"}}`,
		},
		{
			name:   "add plugin",
			run:    func(h *Host) error { return AddPlugin(ctx, h, AddPluginInput{Router: "osmo1router", Plugin: "osmo1book"}) },
			target: "osmo1router",
			msg:    `{"add_plugin":{"plugin":"osmo1book"}}`,
		},
		{
			name: "configure price feed",
			run: func(h *Host) error {
				return SetPriceFeedConfig(ctx, h, SetPriceFeedConfigInput{
					VaultPriceFeed: "osmo1oracle",
					Token:          "osmo1btc",
					PriceFeed:      "osmo1btcfeed",
					PriceDecimals:  8,
				})
			},
			target: "osmo1oracle",
			msg:    `{"set_token_config":{"token":"osmo1btc","price_decimals":8,"price_feed":"osmo1btcfeed","is_strict_stable":false}}`,
		},
		{
			name:   "push price",
			run:    func(h *Host) error { return SetLatestPrice(ctx, h, SetLatestPriceInput{PriceFeed: "osmo1btcfeed", Price: oneDollar}) },
			target: "osmo1btcfeed",
			msg:    `{"set_latest_answer":{"answer":{"value":"100000000","positive":true}}}`,
		},
		{
			name: "set vault token config",
			run: func(h *Host) error {
				return SetVaultTokenConfig(ctx, h, SetVaultTokenConfigInput{
					Vault:         "osmo1vault",
					Token:         "osmo1usdc",
					TokenDecimals: 6,
					Stable:        true,
					MinProfitBps:  75,
					Weight:        1000,
				})
			},
			target: "osmo1vault",
			msg:    `{"set_token_config":{"is_shortable":false,"is_stable":true,"max_usdo_amount":"0","min_profit_bps":"75","token":"osmo1usdc","token_decimals":6,"token_weight":"1000"}}`,
		},
		{
			name:   "mint",
			run:    func(h *Host) error { return Mint(ctx, h, MintInput{Token: "osmo1usdc", Recipient: deployer, Amount: fixedpoint.Units(10000, 6)}) },
			target: "osmo1usdc",
			msg:    `{"mint":{"recipient":"` + deployer + `","amount":"10000000000"}}`,
		},
		{
			name: "native deposit",
			run: func(h *Host) error {
				return DepositNative(ctx, h, DepositNativeInput{Token: "osmo1osmo", Recipient: "osmo1vault", Amount: fixedpoint.Units(1000, 6), Denom: "uosmo"})
			},
			target: "osmo1osmo",
			msg:    `{"deposit":{"recipient":"osmo1vault"}}`,
			amount: "1000000000uosmo",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, runner := newHost(t)
			require.NoError(t, tt.run(h))
			calls := runner.Calls()
			require.Len(t, calls, 1)
			require.Equal(t, broadcaster.OpExecute, calls[0].Op)
			require.Equal(t, tt.target, calls[0].Target)
			require.Equal(t, deployer, calls[0].From)
			require.Equal(t, tt.amount, calls[0].Amount)
			require.JSONEq(t, tt.msg, string(calls[0].Msg))
		})
	}
}

func TestSeedVaultLiquidity(t *testing.T) {
	ctx := context.Background()

	t.Run("minted token", func(t *testing.T) {
		h, runner := newHost(t)
		require.NoError(t, SeedVaultLiquidity(ctx, h, SeedVaultLiquidityInput{
			Vault:    "osmo1vault",
			Token:    "osmo1eth",
			Amount:   fixedpoint.Units(1000, 18),
			Decimals: 18,
		}))
		calls := runner.Calls()
		require.Len(t, calls, 2)
		require.JSONEq(t, `{"mint":{"recipient":"osmo1vault","amount":"1000000000000000000000"}}`, string(calls[0].Msg))
		require.Empty(t, calls[0].Amount)
		require.Equal(t, "osmo1vault", calls[1].Target)
		require.JSONEq(t, `{"direct_pool_deposit":{"token":"osmo1eth"}}`, string(calls[1].Msg))
	})

	t.Run("native token", func(t *testing.T) {
		h, runner := newHost(t)
		require.NoError(t, SeedVaultLiquidity(ctx, h, SeedVaultLiquidityInput{
			Vault:       "osmo1vault",
			Token:       "osmo1osmo",
			Amount:      fixedpoint.Units(1000, 6),
			Decimals:    6,
			NativeDenom: "uosmo",
		}))
		calls := runner.Calls()
		require.Len(t, calls, 2)
		require.Equal(t, "deposit", calls[0].MsgName())
		require.Equal(t, "1000000000uosmo", calls[0].Amount)
		require.Equal(t, "direct_pool_deposit", calls[1].MsgName())
	})

	t.Run("failed mint skips the pool deposit", func(t *testing.T) {
		h, runner := newHost(t)
		boom := errors.New("rpc error")
		runner.FailNext(boom, boom, boom)
		err := SeedVaultLiquidity(ctx, h, SeedVaultLiquidityInput{
			Vault:  "osmo1vault",
			Token:  "osmo1eth",
			Amount: fixedpoint.Units(1, 18),
		})
		require.ErrorIs(t, err, broadcaster.ErrRetriesExhausted)
		require.ErrorIs(t, err, boom)
		require.Empty(t, runner.CallsOf(broadcaster.OpExecute, "direct_pool_deposit"))
	})

	t.Run("amount out of range", func(t *testing.T) {
		h, runner := newHost(t)
		err := SeedVaultLiquidity(ctx, h, SeedVaultLiquidityInput{
			Vault:  "osmo1vault",
			Token:  "osmo1eth",
			Amount: new(big.Int).Lsh(big.NewInt(1), 130),
		})
		require.ErrorIs(t, err, fixedpoint.ErrAmountOverflow)
		require.Empty(t, runner.Calls())
	})
}

func TestVaultPriceFeedMessageRejectsReservedField(t *testing.T) {
	_, err := json.Marshal(VaultPriceFeedInstantiateMsg{Sources: map[string]string{"is_amm_enabled": "x"}})
	require.Error(t, err)
}
