package fixedpoint

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// Uint128 is an amount as it appears in a contract message or a profile: a
// decimal string bounded to 128 bits. Zero is always stored as a nil value.
type Uint128 struct {
	v *big.Int
}

func NewUint128(x *big.Int) Uint128 {
	if x == nil || x.Sign() == 0 {
		return Uint128{}
	}
	return Uint128{v: new(big.Int).Set(x)}
}

func Uint128FromUint64(x uint64) Uint128 {
	return NewUint128(new(big.Int).SetUint64(x))
}

// ParseUint128 parses a base-10 amount and rejects values outside the
// Uint128 range.
func ParseUint128(s string) (Uint128, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Uint128{}, fmt.Errorf("invalid uint128 %q", s)
	}
	if err := CheckUint128(v); err != nil {
		return Uint128{}, err
	}
	return NewUint128(v), nil
}

func (u Uint128) Big() *big.Int {
	if u.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(u.v)
}

func (u Uint128) String() string {
	return u.Big().String()
}

func (u Uint128) MarshalJSON() ([]byte, error) {
	v := u.Big()
	if err := CheckUint128(v); err != nil {
		return nil, err
	}
	return json.Marshal(v.String())
}

func (u *Uint128) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("uint128 must be a JSON string: %w", err)
	}
	v, err := ParseUint128(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}
