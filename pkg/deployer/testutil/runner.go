package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/omxlabs/omx-deployer/pkg/deployer/broadcaster"
)

// Call is one node client invocation seen by a ScriptedRunner.
type Call struct {
	Op     broadcaster.Op
	Target string
	Msg    json.RawMessage
	Label  string
	Amount string
	From   string
	Args   []string
}

// MsgName returns the top-level key of an execute message, e.g. "set_router".
func (c Call) MsgName() string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(c.Msg, &m); err != nil || len(m) != 1 {
		return ""
	}
	for k := range m {
		return k
	}
	return ""
}

// ScriptedRunner stands in for the node client. It answers store with an
// increasing code id, instantiate with a new contract address and execute
// with an empty receipt. Counters are never reset, so running a plan twice
// against the same runner yields new ids and addresses, like a real chain.
type ScriptedRunner struct {
	Prefix string

	mtx      sync.Mutex
	codeSeq  uint64
	addrSeq  uint64
	txSeq    uint64
	calls    []Call
	failures []error
	// FailWhen, when set, is consulted before answering; a non-nil error
	// fails the invocation.
	FailWhen func(c Call) error
}

var _ broadcaster.Runner = (*ScriptedRunner)(nil)

func NewScriptedRunner(prefix string) *ScriptedRunner {
	return &ScriptedRunner{Prefix: prefix}
}

// FailNext makes the next len(errs) invocations fail with errs in order.
func (r *ScriptedRunner) FailNext(errs ...error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.failures = append(r.failures, errs...)
}

func (r *ScriptedRunner) Calls() []Call {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	out := make([]Call, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallsOf returns the invocations for op, optionally filtered by message name.
func (r *ScriptedRunner) CallsOf(op broadcaster.Op, msgName string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Op != op {
			continue
		}
		if msgName != "" && c.MsgName() != msgName {
			continue
		}
		out = append(out, c)
	}
	return out
}

func parseCall(args []string) (Call, error) {
	if len(args) < 4 || args[0] != "tx" || args[1] != "wasm" {
		return Call{}, fmt.Errorf("unexpected invocation %v", args)
	}
	c := Call{
		Op:     broadcaster.Op(args[2]),
		Target: args[3],
		Args:   append([]string(nil), args...),
	}
	rest := args[4:]
	if c.Op != broadcaster.OpStore {
		if len(rest) == 0 || !json.Valid([]byte(rest[0])) {
			return Call{}, fmt.Errorf("%s without a JSON message", c.Op)
		}
		c.Msg = json.RawMessage(rest[0])
		rest = rest[1:]
	}
	for i := 0; i < len(rest); i++ {
		next := func() string {
			if i+1 < len(rest) {
				i++
				return rest[i]
			}
			return ""
		}
		switch rest[i] {
		case "--label":
			c.Label = next()
		case "--amount":
			c.Amount = next()
		case "--from":
			c.From = next()
		}
	}
	return c, nil
}

func (r *ScriptedRunner) Run(ctx context.Context, _ string, args []string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c, err := parseCall(args)
	if err != nil {
		return nil, err
	}

	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.calls = append(r.calls, c)
	if len(r.failures) > 0 {
		err := r.failures[0]
		r.failures = r.failures[1:]
		return nil, err
	}
	if r.FailWhen != nil {
		if err := r.FailWhen(c); err != nil {
			return nil, err
		}
	}

	r.txSeq++
	rcpt := broadcaster.Receipt{
		TxHash: fmt.Sprintf("%064X", r.txSeq),
		Height: json.Number(strconv.FormatUint(r.txSeq, 10)),
	}
	var events []broadcaster.Event
	switch c.Op {
	case broadcaster.OpStore:
		r.codeSeq++
		events = append(events, broadcaster.Event{
			Type: broadcaster.EventStoreCode,
			Attributes: []broadcaster.Attribute{
				{Key: "code_checksum", Value: fmt.Sprintf("%064x", r.codeSeq)},
				{Key: broadcaster.AttrCodeID, Value: strconv.FormatUint(r.codeSeq, 10)},
			},
		})
	case broadcaster.OpInstantiate:
		r.addrSeq++
		addr, err := broadcaster.FakeContractAddress(r.Prefix, fmt.Sprintf("contract-%d", r.addrSeq))
		if err != nil {
			return nil, err
		}
		events = append(events, broadcaster.Event{
			Type: broadcaster.EventInstantiate,
			Attributes: []broadcaster.Attribute{
				{Key: broadcaster.AttrContractAddr, Value: addr},
				{Key: "code_id", Value: c.Target},
			},
		})
	case broadcaster.OpExecute:
		events = append(events, broadcaster.Event{
			Type:       "execute",
			Attributes: []broadcaster.Attribute{{Key: broadcaster.AttrContractAddr, Value: c.Target}},
		})
	}
	rcpt.Logs = []broadcaster.MessageLog{{Events: append([]broadcaster.Event{{
		Type:       "message",
		Attributes: []broadcaster.Attribute{{Key: "sender", Value: c.From}},
	}}, events...)}}
	return json.Marshal(rcpt)
}
