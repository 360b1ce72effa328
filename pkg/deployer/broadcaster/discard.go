package broadcaster

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strconv"
	"sync"

	"github.com/omxlabs/omx-deployer/pkg/deployer/validations"
)

// discardBroadcaster sends nothing. It answers every command with a receipt
// carrying a fresh code id or a made-up contract address, which is enough to
// walk a whole plan without a chain.
type discardBroadcaster struct {
	mtx    sync.Mutex
	prefix string
	seq    uint64
}

func NoopBroadcaster(addressPrefix string) Broadcaster {
	return &discardBroadcaster{prefix: addressPrefix}
}

func (d *discardBroadcaster) Broadcast(ctx context.Context, cmd Command) (*Receipt, error) {
	if err := cmd.Check(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mtx.Lock()
	d.seq++
	seq := d.seq
	d.mtx.Unlock()

	rcpt := &Receipt{
		TxHash: fmt.Sprintf("%064X", seq),
		Height: "1",
	}
	switch cmd.Op {
	case OpStore:
		rcpt.TxEvents = []Event{{
			Type:       EventStoreCode,
			Attributes: []Attribute{{Key: AttrCodeID, Value: strconv.FormatUint(seq, 10)}},
		}}
	case OpInstantiate:
		addr, err := FakeContractAddress(d.prefix, fmt.Sprintf("%d/%s", seq, cmd.Label))
		if err != nil {
			return nil, err
		}
		rcpt.TxEvents = []Event{{
			Type:       EventInstantiate,
			Attributes: []Attribute{{Key: AttrContractAddr, Value: addr}},
		}}
	}
	return rcpt, nil
}

// FakeContractAddress derives a well-formed contract address from seed.
func FakeContractAddress(prefix string, seed string) (string, error) {
	sum := sha256.Sum256([]byte(seed))
	return validations.EncodeAddress(prefix, sum[:])
}
