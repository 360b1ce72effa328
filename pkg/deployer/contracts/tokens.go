package contracts

import (
	"context"
	"fmt"
	"math/big"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
)

type DeployWrappedTokenInput struct {
	CodeID   uint64
	Symbol   string
	Denom    string
	Decimals uint8
	Minter   string
}

type DeployTokenOutput struct {
	Token string
}

// DeployWrappedToken instantiates a token that wraps an existing bank denom.
// The symbol doubles as name and label.
func DeployWrappedToken(ctx context.Context, h *Host, input DeployWrappedTokenInput) (DeployTokenOutput, error) {
	if err := requireInputs("deploy wrapped token", "symbol", input.Symbol, "denom", input.Denom, "minter", input.Minter); err != nil {
		return DeployTokenOutput{}, err
	}
	addr, err := instantiate(ctx, h, input.CodeID, input.Symbol, WrappedTokenInstantiateMsg{
		Name:     input.Symbol,
		Denom:    input.Denom,
		Symbol:   input.Symbol,
		Decimals: input.Decimals,
		Mint:     MinterResponse{Minter: input.Minter},
	})
	if err != nil {
		return DeployTokenOutput{}, err
	}
	return DeployTokenOutput{Token: addr}, nil
}

type DeployBaseTokenInput struct {
	CodeID   uint64
	Symbol   string
	Decimals uint8
	Minter   string
}

// DeployBaseToken instantiates the protocol's own mintable asset.
func DeployBaseToken(ctx context.Context, h *Host, input DeployBaseTokenInput) (DeployTokenOutput, error) {
	if err := requireInputs("deploy base token", "symbol", input.Symbol, "minter", input.Minter); err != nil {
		return DeployTokenOutput{}, err
	}
	addr, err := instantiate(ctx, h, input.CodeID, input.Symbol, BaseTokenInstantiateMsg{
		Name:     input.Symbol,
		Symbol:   input.Symbol,
		ID:       input.Symbol,
		Decimals: input.Decimals,
		Mint:     MinterResponse{Minter: input.Minter},
	})
	if err != nil {
		return DeployTokenOutput{}, err
	}
	return DeployTokenOutput{Token: addr}, nil
}

type DeployPairInput struct {
	CodeID uint64
	Name   string
	Token0 string
	Token1 string
}

type DeployPairOutput struct {
	Pair string
}

func DeployPair(ctx context.Context, h *Host, input DeployPairInput) (DeployPairOutput, error) {
	if err := requireInputs("deploy pair", "name", input.Name, "token0", input.Token0, "token1", input.Token1); err != nil {
		return DeployPairOutput{}, err
	}
	addr, err := instantiate(ctx, h, input.CodeID, input.Name, PairInstantiateMsg{
		Token0: input.Token0,
		Token1: input.Token1,
	})
	if err != nil {
		return DeployPairOutput{}, err
	}
	return DeployPairOutput{Pair: addr}, nil
}

type UpdateMinterInput struct {
	Token     string
	NewMinter string
}

// UpdateMinter hands the token's minting right to NewMinter. The caller
// loses it for good.
func UpdateMinter(ctx context.Context, h *Host, input UpdateMinterInput) error {
	if err := requireInputs("update minter", "token", input.Token, "new minter", input.NewMinter); err != nil {
		return err
	}
	err := execute(ctx, h, input.Token, TokenExecuteMsg{
		UpdateMinter: &UpdateMinterMsg{NewMinter: input.NewMinter},
	})
	if err != nil {
		return fmt.Errorf("failed to update minter of %s: %w", input.Token, err)
	}
	return nil
}

type MintInput struct {
	Token     string
	Recipient string
	Amount    *big.Int
}

func Mint(ctx context.Context, h *Host, input MintInput) error {
	if err := requireInputs("mint", "token", input.Token, "recipient", input.Recipient); err != nil {
		return err
	}
	amount, err := uint128("mint amount", input.Amount)
	if err != nil {
		return err
	}
	err = execute(ctx, h, input.Token, TokenExecuteMsg{
		Mint: &MintMsg{Recipient: input.Recipient, Amount: amount},
	})
	if err != nil {
		return fmt.Errorf("failed to mint %s to %s: %w", input.Token, input.Recipient, err)
	}
	return nil
}

type DepositNativeInput struct {
	Token     string
	Recipient string
	Amount    *big.Int
	Denom     string
}

// DepositNative wraps Amount of the attached native coin into Token and
// credits Recipient.
func DepositNative(ctx context.Context, h *Host, input DepositNativeInput) error {
	if err := requireInputs("deposit", "token", input.Token, "recipient", input.Recipient, "denom", input.Denom); err != nil {
		return err
	}
	amount, err := uint128("deposit amount", input.Amount)
	if err != nil {
		return err
	}
	err = execute(ctx, h, input.Token, TokenExecuteMsg{
		Deposit: &DepositMsg{Recipient: input.Recipient},
	}, broadcaster.Coin{Amount: amount, Denom: input.Denom})
	if err != nil {
		return fmt.Errorf("failed to deposit %s%s into %s: %w", amount, input.Denom, input.Token, err)
	}
	return nil
}

// formatAmount is used for log lines only.
func formatAmount(amount *big.Int, decimals uint8) string {
	return fixedpoint.Format(amount, decimals)
}
