package contracts

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/log"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
	"github.com/omxlabs/omx-deployer/pkg/deployer/fixedpoint"
)

// Host is the account and transport every contract operation runs with.
type Host struct {
	Broadcaster broadcaster.Broadcaster
	// From signs instantiate and execute transactions.
	From string
	// StoreFrom signs store transactions. Falls back to From.
	StoreFrom string
	Logger    log.Logger
}

func NewHost(bcaster broadcaster.Broadcaster, lgr log.Logger, from string, storeFrom string) *Host {
	return &Host{
		Broadcaster: bcaster,
		From:        from,
		StoreFrom:   storeFrom,
		Logger:      lgr,
	}
}

func (h *Host) logger() log.Logger {
	if h.Logger == nil {
		return log.Root()
	}
	return h.Logger
}

func (h *Host) storeFrom() string {
	if h.StoreFrom != "" {
		return h.StoreFrom
	}
	return h.From
}

var ErrMissingInput = errors.New("missing input")

func requireInputs(op string, kv ...string) error {
	for i := 0; i+1 < len(kv); i += 2 {
		if kv[i+1] == "" {
			return fmt.Errorf("%w: %s needs %s", ErrMissingInput, op, kv[i])
		}
	}
	return nil
}

func uint128(name string, x *big.Int) (fixedpoint.Uint128, error) {
	if x == nil {
		return fixedpoint.Uint128{}, fmt.Errorf("%w: %s", ErrMissingInput, name)
	}
	if err := fixedpoint.CheckUint128(x); err != nil {
		return fixedpoint.Uint128{}, fmt.Errorf("%s: %w", name, err)
	}
	return fixedpoint.NewUint128(x), nil
}

func instantiate[M any](ctx context.Context, h *Host, codeID uint64, label string, msg M) (string, error) {
	if codeID == 0 {
		return "", fmt.Errorf("%w: code id for %s", ErrMissingInput, label)
	}
	rcpt, err := h.Broadcaster.Broadcast(ctx, broadcaster.Command{
		Op:     broadcaster.OpInstantiate,
		Target: strconv.FormatUint(codeID, 10),
		Msg:    msg,
		Label:  label,
		From:   h.From,
	})
	if err != nil {
		return "", fmt.Errorf("failed to instantiate %s: %w", label, err)
	}
	addr, err := rcpt.ContractAddress()
	if err != nil {
		return "", fmt.Errorf("failed to read %s address: %w", label, err)
	}
	h.logger().Info("Instantiated contract", "label", label, "code_id", codeID, "address", addr, "tx", rcpt.TxHash)
	return addr, nil
}

func execute[M any](ctx context.Context, h *Host, contract string, msg M, funds ...broadcaster.Coin) error {
	rcpt, err := h.Broadcaster.Broadcast(ctx, broadcaster.Command{
		Op:     broadcaster.OpExecute,
		Target: contract,
		Msg:    msg,
		Funds:  funds,
		From:   h.From,
	})
	if err != nil {
		return err
	}
	h.logger().Debug("Executed contract", "contract", contract, "tx", rcpt.TxHash)
	return nil
}
