package contracts

import (
	"context"
	"fmt"
	"math/big"
)

type DeployRouterInput struct {
	CodeID        uint64
	Vault         string
	Usdo          string
	NativeWrapped string
}

type DeployRouterOutput struct {
	Router string
}

func DeployRouter(ctx context.Context, h *Host, input DeployRouterInput) (DeployRouterOutput, error) {
	if err := requireInputs("deploy router",
		"vault", input.Vault,
		"usdo", input.Usdo,
		"native wrapped token", input.NativeWrapped,
	); err != nil {
		return DeployRouterOutput{}, err
	}
	addr, err := instantiate(ctx, h, input.CodeID, "router", RouterInstantiateMsg{
		Vault: input.Vault,
		Usdo:  input.Usdo,
		Wosmo: input.NativeWrapped,
	})
	if err != nil {
		return DeployRouterOutput{}, err
	}
	return DeployRouterOutput{Router: addr}, nil
}

type DeployOrderBookInput struct {
	CodeID uint64
	// Admin defaults to the host account.
	Admin         string
	Vault         string
	Router        string
	NativeWrapped string
	Usdo          string
	// MinExecutionFee is a raw amount of the native token.
	MinExecutionFee *big.Int
	// MinPurchaseTokenAmountUSD is in price precision units.
	MinPurchaseTokenAmountUSD *big.Int
}

type DeployOrderBookOutput struct {
	OrderBook string
}

func DeployOrderBook(ctx context.Context, h *Host, input DeployOrderBookInput) (DeployOrderBookOutput, error) {
	if err := requireInputs("deploy order book",
		"vault", input.Vault,
		"router", input.Router,
		"native wrapped token", input.NativeWrapped,
		"usdo", input.Usdo,
	); err != nil {
		return DeployOrderBookOutput{}, err
	}
	minFee, err := uint128("min execution fee", input.MinExecutionFee)
	if err != nil {
		return DeployOrderBookOutput{}, err
	}
	minPurchase, err := uint128("min purchase amount", input.MinPurchaseTokenAmountUSD)
	if err != nil {
		return DeployOrderBookOutput{}, err
	}
	admin := input.Admin
	if admin == "" {
		admin = h.From
	}
	addr, err := instantiate(ctx, h, input.CodeID, "orderbook", OrderBookInstantiateMsg{
		Admin:                     admin,
		Vault:                     input.Vault,
		Router:                    input.Router,
		Wosmo:                     input.NativeWrapped,
		Usdo:                      input.Usdo,
		MinExecutionFee:           minFee,
		MinPurchaseTokenAmountUSD: minPurchase,
	})
	if err != nil {
		return DeployOrderBookOutput{}, err
	}
	return DeployOrderBookOutput{OrderBook: addr}, nil
}

type AddPluginInput struct {
	Router string
	Plugin string
}

// AddPlugin authorises Plugin to act through the router on users' behalf.
func AddPlugin(ctx context.Context, h *Host, input AddPluginInput) error {
	if err := requireInputs("add plugin", "router", input.Router, "plugin", input.Plugin); err != nil {
		return err
	}
	if err := execute(ctx, h, input.Router, RouterExecuteMsg{
		AddPlugin: &AddPluginMsg{Plugin: input.Plugin},
	}); err != nil {
		return fmt.Errorf("failed to add plugin %s: %w", input.Plugin, err)
	}
	return nil
}
