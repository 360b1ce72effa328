package validations

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

var (
	ErrEmptyAddress  = errors.New("address is empty")
	ErrWrongPrefix   = errors.New("address has unexpected prefix")
	ErrAddressLength = errors.New("address payload has unexpected length")
)

// Account and contract payload sizes on cosmos-sdk chains.
const (
	AccountAddressLength  = 20
	ContractAddressLength = 32
)

// CheckAddress decodes a bech32 address and verifies its human-readable part
// and payload length. It returns the raw payload bytes.
func CheckAddress(addr string, hrp string) ([]byte, error) {
	if addr == "" {
		return nil, ErrEmptyAddress
	}
	gotHRP, data, err := bech32.Decode(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid bech32 address %q: %w", addr, err)
	}
	if hrp != "" && gotHRP != hrp {
		return nil, fmt.Errorf("%w: want %q, got %q", ErrWrongPrefix, hrp, gotHRP)
	}
	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("invalid bech32 payload in %q: %w", addr, err)
	}
	if len(payload) != AccountAddressLength && len(payload) != ContractAddressLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrAddressLength, len(payload))
	}
	return payload, nil
}

// EncodeAddress renders payload as a bech32 address with the given prefix.
func EncodeAddress(hrp string, payload []byte) (string, error) {
	data, err := bech32.ConvertBits(payload, 8, 5, true)
	if err != nil {
		return "", fmt.Errorf("failed to convert address payload: %w", err)
	}
	return bech32.Encode(hrp, data)
}
