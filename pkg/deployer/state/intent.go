package state

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
	"github.com/omxlabs/omx-deployer/pkg/deployer/validations"
)

type ContractKind string

const (
	ContractBaseToken      ContractKind = "omx_cw_base_token"
	ContractPair           ContractKind = "omx_cw_pair"
	ContractPriceFeed      ContractKind = "omx_cw_price_feed"
	ContractRouter         ContractKind = "omx_cw_router"
	ContractVault          ContractKind = "omx_cw_vault"
	ContractVaultPriceFeed ContractKind = "omx_cw_vault_price_feed"
	ContractWrappedToken   ContractKind = "omx_cw_wrapped_token"
	ContractOrderBook      ContractKind = "omx_cw_orderbook"
)

// RequiredContracts lists every artifact the default plan stores, in upload
// order.
var RequiredContracts = []ContractKind{
	ContractBaseToken,
	ContractPair,
	ContractPriceFeed,
	ContractRouter,
	ContractVault,
	ContractVaultPriceFeed,
	ContractWrappedToken,
	ContractOrderBook,
}

// ArtifactFile is the file name of the compiled contract inside the
// artifacts directory.
func (k ContractKind) ArtifactFile() string {
	return string(k) + ".wasm"
}

// Logical names of the core protocol contracts in the address report.
const (
	NameVaultPriceFeed = "vault_price_feed"
	NameVault          = "vault"
	NameRouter         = "router"
	NameOrderBook      = "orderbook"
)

var coreNames = []string{NameVaultPriceFeed, NameVault, NameRouter, NameOrderBook}

type AssetKind string

const (
	// AssetKindNative is a wrapped-token contract over the chain's fee denom.
	// Deposits into it are funded by attaching native coins.
	AssetKindNative AssetKind = "native"
	// AssetKindWrapped is a wrapped-token contract over an external denom,
	// minted by the deployer.
	AssetKindWrapped AssetKind = "wrapped"
	// AssetKindProtocol is the protocol's own stable asset (base token).
	AssetKindProtocol AssetKind = "protocol"
)

// VaultTokenConfig is the per-asset risk configuration registered with the
// vault.
type VaultTokenConfig struct {
	Shortable     bool   `json:"shortable" mapstructure:"shortable"`
	Stable        bool   `json:"stable" mapstructure:"stable"`
	MinProfitBps  uint64 `json:"minProfitBps" mapstructure:"minprofitbps"`
	Weight        uint64 `json:"weight" mapstructure:"weight"`
	// MaxUsdoAmount is a raw amount of the stable asset. Zero leaves it
	// uncapped.
	MaxUsdoAmount fixedpoint.Uint128 `json:"maxUsdoAmount" mapstructure:"maxusdoamount"`
}

type Asset struct {
	Symbol   string    `json:"symbol" mapstructure:"symbol"`
	Denom    string    `json:"denom,omitempty" mapstructure:"denom"`
	Decimals uint8     `json:"decimals" mapstructure:"decimals"`
	Kind     AssetKind `json:"kind" mapstructure:"kind"`

	// OraclePrice is the initial price pushed into the asset's price feed,
	// as a multiple of the oracle price precision.
	OraclePrice  fixedpoint.Fraction `json:"oraclePrice" mapstructure:"oracleprice"`
	StrictStable bool                `json:"strictStable" mapstructure:"strictstable"`

	// Vault is nil for assets the vault should not list.
	Vault *VaultTokenConfig `json:"vault,omitempty" mapstructure:"vault"`
	// VaultSeed is the number of whole units deposited into the vault pool.
	VaultSeed uint64 `json:"vaultSeed,omitempty" mapstructure:"vaultseed"`
}

// Priced reports whether the asset gets its own price feed.
func (a *Asset) Priced() bool {
	return a.Kind != AssetKindProtocol
}

func (a *Asset) PriceFeedName() string {
	return a.Symbol + "_price_feed"
}

func (a *Asset) SeedAmount() *big.Int {
	return fixedpoint.Units(a.VaultSeed, a.Decimals)
}

type Pair struct {
	Name   string `json:"name" mapstructure:"name"`
	Token0 string `json:"token0" mapstructure:"token0"`
	Token1 string `json:"token1" mapstructure:"token1"`
}

type VaultParams struct {
	FundingRateFactor       uint64 `json:"fundingRateFactor" mapstructure:"fundingratefactor"`
	StableFundingRateFactor uint64 `json:"stableFundingRateFactor" mapstructure:"stablefundingratefactor"`
	// LiquidationFeeUSD is a multiple of the price precision.
	LiquidationFeeUSD fixedpoint.Fraction `json:"liquidationFeeUsd" mapstructure:"liquidationfeeusd"`
}

type OrderBookParams struct {
	// MinExecutionFee is a raw amount of the native asset.
	MinExecutionFee fixedpoint.Uint128 `json:"minExecutionFee" mapstructure:"minexecutionfee"`
	// MinPurchaseTokenAmountUSD is a multiple of the price precision.
	MinPurchaseTokenAmountUSD fixedpoint.Fraction `json:"minPurchaseTokenAmountUsd" mapstructure:"minpurchasetokenamountusd"`
}

type TestMint struct {
	Asset string `json:"asset" mapstructure:"asset"`
	Count uint64 `json:"count" mapstructure:"count"`
}

// Intent is the deployment configuration. It is assembled once at startup
// and treated as read-only afterwards.
type Intent struct {
	DeployerWallet  string `json:"deployerWallet" mapstructure:"deployerwallet"`
	DeployerAddress string `json:"deployerAddress" mapstructure:"deployeraddress"`
	AddressPrefix   string `json:"addressPrefix" mapstructure:"addressprefix"`
	GasPrices       string `json:"gasPrices" mapstructure:"gasprices"`
	ArtifactsDir    string `json:"artifactsDir" mapstructure:"artifactsdir"`

	Contracts     []ContractKind    `json:"contracts" mapstructure:"contracts"`
	Assets        []Asset           `json:"assets" mapstructure:"assets"`
	StableAsset   string            `json:"stableAsset" mapstructure:"stableasset"`
	NativeWrapped string            `json:"nativeWrapped" mapstructure:"nativewrapped"`
	Pairs         []Pair            `json:"pairs" mapstructure:"pairs"`
	OracleSources map[string]string `json:"oracleSources" mapstructure:"oraclesources"`

	PriceFeedDecimals uint8           `json:"priceFeedDecimals" mapstructure:"pricefeeddecimals"`
	Vault             VaultParams     `json:"vault" mapstructure:"vault"`
	OrderBook         OrderBookParams `json:"orderBook" mapstructure:"orderbook"`
	TestMint          *TestMint       `json:"testMint,omitempty" mapstructure:"testmint"`
}

var (
	ErrUnknownAsset     = errors.New("unknown asset")
	ErrDuplicateName    = errors.New("duplicate logical name")
	ErrMissingContract  = errors.New("required contract artifact not listed")
	ErrInvalidLogicName = errors.New("invalid logical name")
)

func (c *Intent) Asset(symbol string) (*Asset, error) {
	for i := range c.Assets {
		if c.Assets[i].Symbol == symbol {
			return &c.Assets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownAsset, symbol)
}

// NativeAsset returns the asset deposits are funded in with attached coins.
func (c *Intent) NativeAsset() (*Asset, error) {
	a, err := c.Asset(c.NativeWrapped)
	if err != nil {
		return nil, err
	}
	if a.Kind != AssetKindNative {
		return nil, fmt.Errorf("native-wrapped asset %s has kind %s", a.Symbol, a.Kind)
	}
	return a, nil
}

func (c *Intent) PricedAssets() []*Asset {
	var out []*Asset
	for i := range c.Assets {
		if c.Assets[i].Priced() {
			out = append(out, &c.Assets[i])
		}
	}
	return out
}

func (c *Intent) VaultAssets() []*Asset {
	var out []*Asset
	for i := range c.Assets {
		if c.Assets[i].Vault != nil {
			out = append(out, &c.Assets[i])
		}
	}
	return out
}

func (c *Intent) SeededAssets() []*Asset {
	var out []*Asset
	for i := range c.Assets {
		if c.Assets[i].VaultSeed > 0 {
			out = append(out, &c.Assets[i])
		}
	}
	return out
}

func checkLogicalName(name string) error {
	if name == "" || strings.ContainsAny(name, ":[] \t") {
		return fmt.Errorf("%w: %q", ErrInvalidLogicName, name)
	}
	return nil
}

func (c *Intent) Check() error {
	if c.DeployerWallet == "" {
		return errors.New("deployer wallet must be set")
	}
	if _, err := validations.CheckAddress(c.DeployerAddress, c.AddressPrefix); err != nil {
		return fmt.Errorf("invalid deployer address: %w", err)
	}
	if c.GasPrices == "" {
		return errors.New("gas prices must be set")
	}
	if c.ArtifactsDir == "" {
		return errors.New("artifacts directory must be set")
	}

	seenKinds := make(map[ContractKind]bool)
	for _, k := range c.Contracts {
		if seenKinds[k] {
			return fmt.Errorf("contract %s listed twice", k)
		}
		seenKinds[k] = true
	}
	for _, k := range RequiredContracts {
		if !seenKinds[k] {
			return fmt.Errorf("%w: %s", ErrMissingContract, k)
		}
	}

	names := make(map[string]bool)
	claim := func(name string) error {
		if err := checkLogicalName(name); err != nil {
			return err
		}
		if names[name] {
			return fmt.Errorf("%w: %s", ErrDuplicateName, name)
		}
		names[name] = true
		return nil
	}
	for _, name := range coreNames {
		if err := claim(name); err != nil {
			return err
		}
	}

	var protocolAssets, nativeAssets int
	for i := range c.Assets {
		a := &c.Assets[i]
		if err := claim(a.Symbol); err != nil {
			return err
		}
		if a.Decimals > fixedpoint.MaxDecimals {
			return fmt.Errorf("asset %s: decimals %d exceed %d", a.Symbol, a.Decimals, fixedpoint.MaxDecimals)
		}
		switch a.Kind {
		case AssetKindNative:
			nativeAssets++
			if a.Denom == "" {
				return fmt.Errorf("asset %s: native assets need a denom", a.Symbol)
			}
		case AssetKindWrapped:
			if a.Denom == "" {
				return fmt.Errorf("asset %s: wrapped assets need a denom", a.Symbol)
			}
		case AssetKindProtocol:
			protocolAssets++
			if a.Vault != nil || a.VaultSeed > 0 {
				return fmt.Errorf("asset %s: the protocol asset cannot be listed in the vault", a.Symbol)
			}
		default:
			return fmt.Errorf("asset %s: unsupported kind %q", a.Symbol, a.Kind)
		}
		if a.Priced() {
			if err := a.OraclePrice.Check(); err != nil {
				return fmt.Errorf("asset %s oracle price: %w", a.Symbol, err)
			}
			if err := claim(a.PriceFeedName()); err != nil {
				return err
			}
		}
		if a.VaultSeed > 0 {
			if a.Vault == nil {
				return fmt.Errorf("asset %s: seeding requires a vault token config", a.Symbol)
			}
			if err := fixedpoint.CheckUint128(a.SeedAmount()); err != nil {
				return fmt.Errorf("asset %s vault seed: %w", a.Symbol, err)
			}
		}
	}
	if protocolAssets != 1 {
		return fmt.Errorf("expected exactly one protocol asset, got %d", protocolAssets)
	}
	if nativeAssets != 1 {
		return fmt.Errorf("expected exactly one native asset, got %d", nativeAssets)
	}
	stable, err := c.Asset(c.StableAsset)
	if err != nil {
		return fmt.Errorf("stable asset: %w", err)
	}
	if stable.Kind != AssetKindProtocol {
		return fmt.Errorf("stable asset %s must be the protocol asset", stable.Symbol)
	}
	if _, err := c.NativeAsset(); err != nil {
		return err
	}

	for _, p := range c.Pairs {
		if err := claim(p.Name); err != nil {
			return err
		}
		for _, tok := range []string{p.Token0, p.Token1} {
			if _, err := c.Asset(tok); err != nil {
				return fmt.Errorf("pair %s: %w", p.Name, err)
			}
		}
		if p.Token0 == p.Token1 {
			return fmt.Errorf("pair %s: tokens must differ", p.Name)
		}
	}

	if len(c.OracleSources) == 0 {
		return errors.New("oracle sources must be set")
	}
	for field, name := range c.OracleSources {
		if !names[name] {
			return fmt.Errorf("oracle source %s references unknown name %s", field, name)
		}
	}

	if c.Vault.FundingRateFactor == 0 || c.Vault.StableFundingRateFactor == 0 {
		return errors.New("vault funding rate factors must be non-zero")
	}
	if err := c.Vault.LiquidationFeeUSD.Check(); err != nil {
		return fmt.Errorf("vault liquidation fee: %w", err)
	}
	if err := c.OrderBook.MinPurchaseTokenAmountUSD.Check(); err != nil {
		return fmt.Errorf("order book min purchase amount: %w", err)
	}

	if c.TestMint != nil {
		a, err := c.Asset(c.TestMint.Asset)
		if err != nil {
			return fmt.Errorf("test mint: %w", err)
		}
		if a.Kind != AssetKindWrapped {
			return fmt.Errorf("test mint: asset %s is not deployer-mintable", a.Symbol)
		}
	}
	return nil
}
