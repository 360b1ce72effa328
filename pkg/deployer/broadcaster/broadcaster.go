package broadcaster

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
)

type Broadcaster interface {
	Broadcast(ctx context.Context, cmd Command) (*Receipt, error)
}

type Op string

const (
	OpStore       Op = "store"
	OpInstantiate Op = "instantiate"
	OpExecute     Op = "execute"
)

type Coin struct {
	Amount fixedpoint.Uint128
	Denom  string
}

func (c Coin) String() string {
	return c.Amount.String() + c.Denom
}

// Command is a single wasm transaction. Msg stays a typed value until Args
// renders it.
type Command struct {
	Op Op
	// Target is the artifact path for store, the code id for instantiate and
	// the contract address for execute.
	Target string
	Msg    any
	Label  string
	Funds  []Coin
	From   string
}

func (c Command) String() string {
	switch c.Op {
	case OpStore:
		return fmt.Sprintf("store %s", c.Target)
	case OpInstantiate:
		return fmt.Sprintf("instantiate code %s as %s", c.Target, c.Label)
	default:
		return fmt.Sprintf("%s %s", c.Op, c.Target)
	}
}

var ErrInvalidCommand = errors.New("invalid command")

func (c Command) Check() error {
	if c.Target == "" {
		return fmt.Errorf("%w: %s has no target", ErrInvalidCommand, c.Op)
	}
	if c.From == "" {
		return fmt.Errorf("%w: %s has no sender", ErrInvalidCommand, c.Op)
	}
	switch c.Op {
	case OpStore:
		if c.Msg != nil || len(c.Funds) > 0 {
			return fmt.Errorf("%w: store takes no message or funds", ErrInvalidCommand)
		}
	case OpInstantiate:
		if c.Msg == nil {
			return fmt.Errorf("%w: instantiate needs a message", ErrInvalidCommand)
		}
		if c.Label == "" {
			return fmt.Errorf("%w: instantiate needs a label", ErrInvalidCommand)
		}
		if _, err := strconv.ParseUint(c.Target, 10, 64); err != nil {
			return fmt.Errorf("%w: code id %q", ErrInvalidCommand, c.Target)
		}
	case OpExecute:
		if c.Msg == nil {
			return fmt.Errorf("%w: execute needs a message", ErrInvalidCommand)
		}
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidCommand, c.Op)
	}
	for _, coin := range c.Funds {
		if coin.Denom == "" {
			return fmt.Errorf("%w: coin without denom", ErrInvalidCommand)
		}
		if err := fixedpoint.CheckUint128(coin.Amount.Big()); err != nil {
			return fmt.Errorf("%w: coin amount: %w", ErrInvalidCommand, err)
		}
	}
	return nil
}

const (
	DefaultBinary        = "osmosisd"
	DefaultGasAdjustment = "1.3"
	DefaultBroadcastMode = "block"
)

// TxConfig holds the flags shared by every transaction of a run.
type TxConfig struct {
	Binary         string
	GasPrices      string
	GasAdjustment  string
	BroadcastMode  string
	Node           string
	ChainID        string
	KeyringBackend string
}

func DefaultTxConfig(gasPrices string) TxConfig {
	return TxConfig{
		Binary:        DefaultBinary,
		GasPrices:     gasPrices,
		GasAdjustment: DefaultGasAdjustment,
		BroadcastMode: DefaultBroadcastMode,
	}
}

// Args renders the node client argument list for cmd. No shell is involved,
// so the JSON message is passed as a single argument without quoting.
func (c Command) Args(cfg TxConfig) ([]string, error) {
	if err := c.Check(); err != nil {
		return nil, err
	}
	args := []string{"tx", "wasm", string(c.Op), c.Target}
	if c.Msg != nil {
		msg, err := json.Marshal(c.Msg)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s message: %w", c.Op, err)
		}
		args = append(args, string(msg))
	}
	if len(c.Funds) > 0 {
		coins := make([]string, len(c.Funds))
		for i, coin := range c.Funds {
			coins[i] = coin.String()
		}
		args = append(args, "--amount", strings.Join(coins, ","))
	}
	args = append(args,
		"--from", c.From,
		"--gas-prices", cfg.GasPrices,
		"--gas", "auto",
		"--gas-adjustment", cfg.GasAdjustment,
		"-y",
		"--output", "json",
		"-b", cfg.BroadcastMode,
	)
	if c.Op == OpInstantiate {
		args = append(args, "--label", c.Label, "--no-admin")
	}
	if cfg.Node != "" {
		args = append(args, "--node", cfg.Node)
	}
	if cfg.ChainID != "" {
		args = append(args, "--chain-id", cfg.ChainID)
	}
	if cfg.KeyringBackend != "" {
		args = append(args, "--keyring-backend", cfg.KeyringBackend)
	}
	return args, nil
}
