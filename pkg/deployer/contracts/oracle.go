package contracts

import (
	"context"
	"fmt"
	"math/big"
)

type DeployPriceFeedInput struct {
	CodeID uint64
	Label  string
}

type DeployPriceFeedOutput struct {
	PriceFeed string
}

// DeployPriceFeed instantiates a manually updated price feed.
func DeployPriceFeed(ctx context.Context, h *Host, input DeployPriceFeedInput) (DeployPriceFeedOutput, error) {
	if err := requireInputs("deploy price feed", "label", input.Label); err != nil {
		return DeployPriceFeedOutput{}, err
	}
	addr, err := instantiate(ctx, h, input.CodeID, input.Label, PriceFeedInstantiateMsg{})
	if err != nil {
		return DeployPriceFeedOutput{}, err
	}
	return DeployPriceFeedOutput{PriceFeed: addr}, nil
}

type DeployVaultPriceFeedInput struct {
	CodeID uint64
	Label  string
	// Sources maps each init message field to a token or pair address.
	Sources    map[string]string
	AmmEnabled bool
}

type DeployVaultPriceFeedOutput struct {
	VaultPriceFeed string
}

// DeployVaultPriceFeed instantiates the aggregating oracle the vault prices
// positions with.
func DeployVaultPriceFeed(ctx context.Context, h *Host, input DeployVaultPriceFeedInput) (DeployVaultPriceFeedOutput, error) {
	if err := requireInputs("deploy vault price feed", "label", input.Label); err != nil {
		return DeployVaultPriceFeedOutput{}, err
	}
	if len(input.Sources) == 0 {
		return DeployVaultPriceFeedOutput{}, fmt.Errorf("%w: vault price feed needs sources", ErrMissingInput)
	}
	for field, addr := range input.Sources {
		if addr == "" {
			return DeployVaultPriceFeedOutput{}, fmt.Errorf("%w: vault price feed source %s", ErrMissingInput, field)
		}
	}
	addr, err := instantiate(ctx, h, input.CodeID, input.Label, VaultPriceFeedInstantiateMsg{
		Sources:      input.Sources,
		IsAmmEnabled: input.AmmEnabled,
	})
	if err != nil {
		return DeployVaultPriceFeedOutput{}, err
	}
	return DeployVaultPriceFeedOutput{VaultPriceFeed: addr}, nil
}

type SetPriceFeedConfigInput struct {
	VaultPriceFeed string
	Token          string
	PriceFeed      string
	PriceDecimals  uint8
	StrictStable   bool
}

// SetPriceFeedConfig binds a token to its price feed in the aggregating
// oracle.
func SetPriceFeedConfig(ctx context.Context, h *Host, input SetPriceFeedConfigInput) error {
	if err := requireInputs("set price feed config",
		"vault price feed", input.VaultPriceFeed,
		"token", input.Token,
		"price feed", input.PriceFeed,
	); err != nil {
		return err
	}
	err := execute(ctx, h, input.VaultPriceFeed, VaultPriceFeedExecuteMsg{
		SetTokenConfig: &PriceFeedTokenConfigMsg{
			Token:          input.Token,
			PriceDecimals:  input.PriceDecimals,
			PriceFeed:      input.PriceFeed,
			IsStrictStable: input.StrictStable,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to configure price feed for %s: %w", input.Token, err)
	}
	return nil
}

type SetLatestPriceInput struct {
	PriceFeed string
	// Price is in oracle price precision units.
	Price *big.Int
}

func SetLatestPrice(ctx context.Context, h *Host, input SetLatestPriceInput) error {
	if err := requireInputs("set latest price", "price feed", input.PriceFeed); err != nil {
		return err
	}
	price, err := uint128("price", input.Price)
	if err != nil {
		return err
	}
	err = execute(ctx, h, input.PriceFeed, PriceFeedExecuteMsg{
		SetLatestAnswer: &SetLatestAnswerMsg{
			Answer: SignedAnswer{Value: price, Positive: true},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to push price to %s: %w", input.PriceFeed, err)
	}
	return nil
}
