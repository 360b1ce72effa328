package contracts

import (
	"encoding/json"
	"fmt"

	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
)

type MinterResponse struct {
	Minter string `json:"minter"`
}

type WrappedTokenInstantiateMsg struct {
	Name     string         `json:"name"`
	Denom    string         `json:"denom"`
	Symbol   string         `json:"symbol"`
	Decimals uint8          `json:"decimals"`
	Mint     MinterResponse `json:"mint"`
}

type BaseTokenInstantiateMsg struct {
	Name     string         `json:"name"`
	Symbol   string         `json:"symbol"`
	ID       string         `json:"id"`
	Decimals uint8          `json:"decimals"`
	Mint     MinterResponse `json:"mint"`
}

type PriceFeedInstantiateMsg struct{}

type PairInstantiateMsg struct {
	Token0 string `json:"token0"`
	Token1 string `json:"token1"`
}

// VaultPriceFeedInstantiateMsg carries one address per oracle source field
// next to the AMM switch.
type VaultPriceFeedInstantiateMsg struct {
	Sources      map[string]string
	IsAmmEnabled bool
}

func (m VaultPriceFeedInstantiateMsg) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Sources)+1)
	for field, addr := range m.Sources {
		if field == "is_amm_enabled" {
			return nil, fmt.Errorf("oracle source field %q is reserved", field)
		}
		out[field] = addr
	}
	out["is_amm_enabled"] = m.IsAmmEnabled
	return json.Marshal(out)
}

type VaultInstantiateMsg struct {
	FundingRateFactor       fixedpoint.Uint128 `json:"funding_rate_factor"`
	LiquidationFeeUSD       fixedpoint.Uint128 `json:"liquidation_fee_usd"`
	PriceFeed               string             `json:"price_feed"`
	StableFundingRateFactor fixedpoint.Uint128 `json:"stable_funding_rate_factor"`
	Usdo                    string             `json:"usdo"`
}

type RouterInstantiateMsg struct {
	Vault string `json:"vault"`
	Usdo  string `json:"usdo"`
	Wosmo string `json:"wosmo"`
}

type OrderBookInstantiateMsg struct {
	Admin                     string             `json:"admin"`
	Vault                     string             `json:"vault"`
	Router                    string             `json:"router"`
	Wosmo                     string             `json:"wosmo"`
	Usdo                      string             `json:"usdo"`
	MinExecutionFee           fixedpoint.Uint128 `json:"min_execution_fee"`
	MinPurchaseTokenAmountUSD fixedpoint.Uint128 `json:"min_purchase_token_amount_usd"`
}

type UpdateMinterMsg struct {
	NewMinter string `json:"new_minter"`
}

type MintMsg struct {
	Recipient string             `json:"recipient"`
	Amount    fixedpoint.Uint128 `json:"amount"`
}

type DepositMsg struct {
	Recipient string `json:"recipient"`
}

// TokenExecuteMsg covers both token flavours; exactly one field is set.
type TokenExecuteMsg struct {
	UpdateMinter *UpdateMinterMsg `json:"update_minter,omitempty"`
	Mint         *MintMsg         `json:"mint,omitempty"`
	Deposit      *DepositMsg      `json:"deposit,omitempty"`
}

type SetRouterMsg struct {
	Router string `json:"router"`
}

type VaultTokenConfigMsg struct {
	IsShortable   bool               `json:"is_shortable"`
	IsStable      bool               `json:"is_stable"`
	MaxUsdoAmount fixedpoint.Uint128 `json:"max_usdo_amount"`
	MinProfitBps  fixedpoint.Uint128 `json:"min_profit_bps"`
	Token         string             `json:"token"`
	TokenDecimals uint8              `json:"token_decimals"`
	TokenWeight   fixedpoint.Uint128 `json:"token_weight"`
}

type DirectPoolDepositMsg struct {
	Token string `json:"token"`
}

type VaultExecuteMsg struct {
	SetRouter         *SetRouterMsg         `json:"set_router,omitempty"`
	SetTokenConfig    *VaultTokenConfigMsg  `json:"set_token_config,omitempty"`
	DirectPoolDeposit *DirectPoolDepositMsg `json:"direct_pool_deposit,omitempty"`
}

type AddPluginMsg struct {
	Plugin string `json:"plugin"`
}

type RouterExecuteMsg struct {
	AddPlugin *AddPluginMsg `json:"add_plugin,omitempty"`
}

type PriceFeedTokenConfigMsg struct {
	Token          string `json:"token"`
	PriceDecimals  uint8  `json:"price_decimals"`
	PriceFeed      string `json:"price_feed"`
	IsStrictStable bool   `json:"is_strict_stable"`
}

type VaultPriceFeedExecuteMsg struct {
	SetTokenConfig *PriceFeedTokenConfigMsg `json:"set_token_config,omitempty"`
}

type SignedAnswer struct {
	Value    fixedpoint.Uint128 `json:"value"`
	Positive bool               `json:"positive"`
}

type SetLatestAnswerMsg struct {
	Answer SignedAnswer `json:"answer"`
}

type PriceFeedExecuteMsg struct {
	SetLatestAnswer *SetLatestAnswerMsg `json:"set_latest_answer,omitempty"`
}
