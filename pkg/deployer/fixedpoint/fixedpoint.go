// Package fixedpoint holds the integer scales and amount helpers used to build
// every monetary value passed to the protocol contracts. All amounts are
// carried as *big.Int in the smallest unit of their asset.
package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

const (
	// PriceDecimals is the decimal count of the protocol's internal
	// price/value arithmetic.
	PriceDecimals = 18

	// OraclePriceDecimals is the decimal count of values pushed into
	// price-feed contracts. It is independent of PriceDecimals.
	OraclePriceDecimals = 8

	// MaxDecimals bounds the decimal counts accepted for assets.
	MaxDecimals = 36
)

var (
	ErrNegativeAmount  = errors.New("amount is negative")
	ErrAmountOverflow  = errors.New("amount does not fit in 128 bits")
	ErrZeroDenominator = errors.New("fraction denominator is zero")
)

// Scale returns 10^decimals.
func Scale(decimals uint8) *big.Int {
	return math.BigPow(10, int64(decimals))
}

// PricePrecision returns the 10^18 price scale.
func PricePrecision() *big.Int {
	return Scale(PriceDecimals)
}

// OraclePricePrecision returns the 10^8 price-feed scale.
func OraclePricePrecision() *big.Int {
	return Scale(OraclePriceDecimals)
}

// Units returns count whole units of an asset with the given decimals,
// expressed in its smallest unit.
func Units(count uint64, decimals uint8) *big.Int {
	out := new(big.Int).SetUint64(count)
	return out.Mul(out, Scale(decimals))
}

// Fraction is an exact rational multiplier, applied as scale*Num/Den.
type Fraction struct {
	Num uint64 `json:"num" mapstructure:"num"`
	Den uint64 `json:"den" mapstructure:"den"`
}

// Whole returns the fraction n/1.
func Whole(n uint64) Fraction {
	return Fraction{Num: n, Den: 1}
}

func (f Fraction) Check() error {
	if f.Den == 0 {
		return ErrZeroDenominator
	}
	return nil
}

// Of multiplies scale by the fraction. The multiplication happens before the
// division so 5*10^18/10 is exactly 5*10^17.
func (f Fraction) Of(scale *big.Int) (*big.Int, error) {
	if err := f.Check(); err != nil {
		return nil, err
	}
	out := new(big.Int).Mul(scale, new(big.Int).SetUint64(f.Num))
	return out.Quo(out, new(big.Int).SetUint64(f.Den)), nil
}

func (f Fraction) String() string {
	if f.Den == 1 {
		return fmt.Sprintf("%d", f.Num)
	}
	return fmt.Sprintf("%d/%d", f.Num, f.Den)
}

// Format renders a smallest-unit amount as a decimal string in whole units.
func Format(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// CheckUint128 reports whether x can be carried by a CosmWasm Uint128.
func CheckUint128(x *big.Int) error {
	if x == nil {
		return errors.New("amount is nil")
	}
	if x.Sign() < 0 {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, x)
	}
	v, overflow := uint256.FromBig(x)
	if overflow || v.BitLen() > 128 {
		return fmt.Errorf("%w: %s", ErrAmountOverflow, x)
	}
	return nil
}
