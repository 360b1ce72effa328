package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
)

type DeployVaultInput struct {
	CodeID                  uint64
	FundingRateFactor       uint64
	StableFundingRateFactor uint64
	// LiquidationFeeUSD is in price precision units.
	LiquidationFeeUSD *big.Int
	PriceFeed         string
	Usdo              string
}

type DeployVaultOutput struct {
	Vault string
}

// DeployVault instantiates the vault. Requires the aggregating oracle and the
// protocol stable asset to exist.
func DeployVault(ctx context.Context, h *Host, input DeployVaultInput) (DeployVaultOutput, error) {
	if err := requireInputs("deploy vault", "price feed", input.PriceFeed, "usdo", input.Usdo); err != nil {
		return DeployVaultOutput{}, err
	}
	fee, err := uint128("liquidation fee", input.LiquidationFeeUSD)
	if err != nil {
		return DeployVaultOutput{}, err
	}
	addr, err := instantiate(ctx, h, input.CodeID, "vault", VaultInstantiateMsg{
		FundingRateFactor:       fixedpoint.Uint128FromUint64(input.FundingRateFactor),
		LiquidationFeeUSD:       fee,
		PriceFeed:               input.PriceFeed,
		StableFundingRateFactor: fixedpoint.Uint128FromUint64(input.StableFundingRateFactor),
		Usdo:                    input.Usdo,
	})
	if err != nil {
		return DeployVaultOutput{}, err
	}
	return DeployVaultOutput{Vault: addr}, nil
}

type SetRouterInput struct {
	Vault  string
	Router string
}

func SetRouter(ctx context.Context, h *Host, input SetRouterInput) error {
	if err := requireInputs("set router", "vault", input.Vault, "router", input.Router); err != nil {
		return err
	}
	if err := execute(ctx, h, input.Vault, VaultExecuteMsg{
		SetRouter: &SetRouterMsg{Router: input.Router},
	}); err != nil {
		return fmt.Errorf("failed to register router with vault: %w", err)
	}
	return nil
}

type SetVaultTokenConfigInput struct {
	Vault         string
	Token         string
	TokenDecimals uint8
	Shortable     bool
	Stable        bool
	MinProfitBps  uint64
	Weight        uint64
	MaxUsdoAmount fixedpoint.Uint128
}

// SetVaultTokenConfig lists a token in the vault with its risk parameters.
// The vault prices the token through the oracle, so the token's price feed
// must be configured first.
func SetVaultTokenConfig(ctx context.Context, h *Host, input SetVaultTokenConfigInput) error {
	if err := requireInputs("set vault token config", "vault", input.Vault, "token", input.Token); err != nil {
		return err
	}
	if input.Weight == 0 {
		return fmt.Errorf("%w: token weight for %s", ErrMissingInput, input.Token)
	}
	err := execute(ctx, h, input.Vault, VaultExecuteMsg{
		SetTokenConfig: &VaultTokenConfigMsg{
			IsShortable:   input.Shortable,
			IsStable:      input.Stable,
			MaxUsdoAmount: input.MaxUsdoAmount,
			MinProfitBps:  fixedpoint.Uint128FromUint64(input.MinProfitBps),
			Token:         input.Token,
			TokenDecimals: input.TokenDecimals,
			TokenWeight:   fixedpoint.Uint128FromUint64(input.Weight),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to set vault config for %s: %w", input.Token, err)
	}
	return nil
}

type DirectPoolDepositInput struct {
	Vault string
	Token string
}

// DirectPoolDeposit makes the vault recognise tokens already sent to it.
func DirectPoolDeposit(ctx context.Context, h *Host, input DirectPoolDepositInput) error {
	if err := requireInputs("direct pool deposit", "vault", input.Vault, "token", input.Token); err != nil {
		return err
	}
	if err := execute(ctx, h, input.Vault, VaultExecuteMsg{
		DirectPoolDeposit: &DirectPoolDepositMsg{Token: input.Token},
	}); err != nil {
		return fmt.Errorf("failed to deposit %s into pool: %w", input.Token, err)
	}
	return nil
}

type SeedVaultLiquidityInput struct {
	Vault    string
	Token    string
	Amount   *big.Int
	Decimals uint8
	// NativeDenom is set for the native-wrapped token: the amount is sent
	// as attached coins instead of being minted.
	NativeDenom string
}

// SeedVaultLiquidity puts Amount of Token into the vault pool: it mints to
// the vault (or wraps attached native coins for the native token) and then
// calls direct_pool_deposit. The token must already be listed in the vault.
func SeedVaultLiquidity(ctx context.Context, h *Host, input SeedVaultLiquidityInput) error {
	if input.NativeDenom != "" {
		if err := DepositNative(ctx, h, DepositNativeInput{
			Token:     input.Token,
			Recipient: input.Vault,
			Amount:    input.Amount,
			Denom:     input.NativeDenom,
		}); err != nil {
			return err
		}
	} else {
		if err := Mint(ctx, h, MintInput{
			Token:     input.Token,
			Recipient: input.Vault,
			Amount:    input.Amount,
		}); err != nil {
			return err
		}
	}
	if err := DirectPoolDeposit(ctx, h, DirectPoolDepositInput{
		Vault: input.Vault,
		Token: input.Token,
	}); err != nil {
		return err
	}
	h.logger().Info("Seeded vault liquidity", "token", input.Token, "amount", formatAmount(input.Amount, input.Decimals), "native", input.NativeDenom != "")
	return nil
}
