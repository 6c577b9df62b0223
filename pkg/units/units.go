// Package units converts between human-readable decimal amounts and the
// integer smallest-unit amounts the chain works with.
package units

import (
	"errors"
	"fmt"
	"strings"

	"cosmossdk.io/math"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrOutOfRange    = errors.New("amount does not fit in u64")
)

// MaxU64 is the largest amount a Move u64 argument can carry
var MaxU64 = math.NewIntFromUint64(^uint64(0))

// Parse converts a human decimal amount such as "1.5" into smallest units
// for an asset with the given decimals. Digits past the asset's precision
// are truncated. Negative, empty and exponent-notation inputs are rejected.
func Parse(amount string, decimals uint8) (math.Int, error) {
	amount = strings.TrimSpace(amount)
	if amount == "" || strings.ContainsAny(amount, "eE") {
		return math.ZeroInt(), fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}

	d, err := decimal.NewFromString(amount)
	if err != nil {
		return math.ZeroInt(), fmt.Errorf("%w: %q", ErrInvalidAmount, amount)
	}
	if d.IsNegative() {
		return math.ZeroInt(), fmt.Errorf("%w: %q is negative", ErrInvalidAmount, amount)
	}

	raw := d.Shift(int32(decimals)).Truncate(0).BigInt()
	if raw.Cmp(MaxU64.BigInt()) > 0 {
		return math.ZeroInt(), fmt.Errorf("%w: %s", ErrOutOfRange, amount)
	}
	return math.NewIntFromBigInt(raw), nil
}

// Format renders a smallest-unit amount as a decimal string with trailing
// zeros removed.
func Format(v math.Int, decimals uint8) string {
	if v.IsNil() {
		return "0"
	}
	return decimal.NewFromBigInt(v.BigInt(), -int32(decimals)).String()
}

// ParseRaw parses an integer amount already in smallest units, as returned
// by view functions.
func ParseRaw(s string) (math.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.Trim(s, "0123456789") != "" {
		return math.ZeroInt(), fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if s = strings.TrimLeft(s, "0"); s == "" {
		return math.ZeroInt(), nil
	}
	v, ok := math.NewIntFromString(s)
	if !ok {
		return math.ZeroInt(), fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return v, nil
}
