package contracts

import (
	"context"
	"fmt"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
)

type StoreCodeInput struct {
	Kind string
	Path string
}

type StoreCodeOutput struct {
	CodeID uint64
}

// StoreCode uploads one wasm artifact and returns the code id the chain
// assigned to it.
func StoreCode(ctx context.Context, h *Host, input StoreCodeInput) (StoreCodeOutput, error) {
	if err := requireInputs("store code", "kind", input.Kind, "path", input.Path); err != nil {
		return StoreCodeOutput{}, err
	}
	rcpt, err := h.Broadcaster.Broadcast(ctx, broadcaster.Command{
		Op:     broadcaster.OpStore,
		Target: input.Path,
		From:   h.storeFrom(),
	})
	if err != nil {
		return StoreCodeOutput{}, fmt.Errorf("failed to store %s: %w", input.Kind, err)
	}
	id, err := rcpt.CodeID()
	if err != nil {
		return StoreCodeOutput{}, fmt.Errorf("failed to read %s code id: %w", input.Kind, err)
	}
	h.logger().Info("Stored contract code", "kind", input.Kind, "code_id", id, "tx", rcpt.TxHash)
	return StoreCodeOutput{CodeID: id}, nil
}
