package broadcaster

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrEventNotFound     = fmt.Errorf("event %w", ErrNotFound)
	ErrAttributeNotFound = fmt.Errorf("attribute %w", ErrNotFound)
	ErrMalformedReceipt  = errors.New("malformed receipt")
)

const (
	EventStoreCode   = "store_code"
	AttrCodeID       = "code_id"
	EventInstantiate = "instantiate"
	AttrContractAddr = "_contract_address"
)

type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

type MessageLog struct {
	MsgIndex int     `json:"msg_index"`
	Events   []Event `json:"events"`
}

// Receipt is the part of the node client's JSON transaction response the
// deployer cares about.
type Receipt struct {
	TxHash    string      `json:"txhash"`
	Height    json.Number `json:"height"`
	Code      uint32      `json:"code"`
	Codespace string      `json:"codespace"`
	RawLog    string      `json:"raw_log"`

	Logs []MessageLog `json:"logs"`
	// Newer SDK versions drop Logs and only report the flattened events.
	TxEvents []Event `json:"events"`
}

// ParseReceipt decodes the node client output. Anything that is not a JSON
// transaction response is reported as ErrMalformedReceipt.
func ParseReceipt(data []byte) (*Receipt, error) {
	var r Receipt
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedReceipt, err)
	}
	if r.TxHash == "" {
		return nil, fmt.Errorf("%w: missing txhash", ErrMalformedReceipt)
	}
	return &r, nil
}

// Events returns the events of the first message, falling back to the
// flattened transaction events.
func (r *Receipt) Events() []Event {
	if len(r.Logs) > 0 && len(r.Logs[0].Events) > 0 {
		return r.Logs[0].Events
	}
	return r.TxEvents
}

// FindAttribute returns the value of the first attribute named key within
// the first event of type eventType. Later events of the same type are not
// inspected.
func (r *Receipt) FindAttribute(eventType string, key string) (string, error) {
	for _, ev := range r.Events() {
		if ev.Type != eventType {
			continue
		}
		for _, attr := range ev.Attributes {
			if attr.Key == key {
				return attr.Value, nil
			}
		}
		return "", fmt.Errorf("%w: %s in %s event of tx %s", ErrAttributeNotFound, key, eventType, r.TxHash)
	}
	return "", fmt.Errorf("%w: %s in tx %s", ErrEventNotFound, eventType, r.TxHash)
}

func (r *Receipt) CodeID() (uint64, error) {
	v, err := r.FindAttribute(EventStoreCode, AttrCodeID)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid code id %q: %w", v, err)
	}
	return id, nil
}

func (r *Receipt) ContractAddress() (string, error) {
	return r.FindAttribute(EventInstantiate, AttrContractAddr)
}

// TxError is a transaction the chain accepted for broadcast but rejected.
type TxError struct {
	TxHash    string
	Code      uint32
	Codespace string
	RawLog    string
}

func (e *TxError) Error() string {
	return fmt.Sprintf("tx %s failed with code %d (%s): %s", e.TxHash, e.Code, e.Codespace, e.RawLog)
}
