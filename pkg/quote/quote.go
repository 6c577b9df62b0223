// Package quote implements constant-product pricing for a two-asset pool.
//
// All arithmetic is on arbitrary precision integers in smallest units.
// Intermediate products are computed on big.Int so any reserve size is safe.
// Division truncates toward zero, matching the on-chain pool.
package quote

import (
	"errors"
	"fmt"
	"math/big"

	"cosmossdk.io/math"
	"github.com/shopspring/decimal"

	"aptos-swap/pkg/types"
	"aptos-swap/pkg/units"
)

// BasisPoints is the fee denominator
const BasisPoints = 10000

var ErrInsufficientLiquidity = errors.New("insufficient liquidity")

// RawOutput returns reserveOut*amountIn/(reserveIn+amountIn). It is zero
// when reserveIn is zero or amountIn is not positive.
func RawOutput(reserveIn, reserveOut, amountIn math.Int) math.Int {
	if reserveIn.IsNil() || reserveOut.IsNil() || amountIn.IsNil() {
		return math.ZeroInt()
	}
	if !reserveIn.IsPositive() || !reserveOut.IsPositive() || !amountIn.IsPositive() {
		return math.ZeroInt()
	}

	numerator := new(big.Int).Mul(reserveOut.BigInt(), amountIn.BigInt())
	denominator := new(big.Int).Add(reserveIn.BigInt(), amountIn.BigInt())
	// bounded by reserveOut
	return math.NewIntFromBigInt(numerator.Quo(numerator, denominator))
}

// MinAcceptableOutput applies a fee haircut in basis points to the raw
// output: raw*(10000-feeBps)/10000. Fees above 10000 bps clamp to 10000.
func MinAcceptableOutput(reserveIn, reserveOut, amountIn math.Int, feeBps uint32) math.Int {
	if feeBps > BasisPoints {
		feeBps = BasisPoints
	}
	raw := RawOutput(reserveIn, reserveOut, amountIn).BigInt()
	raw.Mul(raw, big.NewInt(int64(BasisPoints-feeBps)))
	return math.NewIntFromBigInt(raw.Quo(raw, big.NewInt(BasisPoints)))
}

// RawInput returns the smallest input that yields at least amountOut,
// ceil(reserveIn*amountOut/(reserveOut-amountOut)).
func RawInput(reserveIn, reserveOut, amountOut math.Int) (math.Int, error) {
	if reserveIn.IsNil() || reserveOut.IsNil() || !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return math.ZeroInt(), ErrInsufficientLiquidity
	}
	if amountOut.IsNil() || !amountOut.IsPositive() {
		return math.ZeroInt(), nil
	}
	if amountOut.GTE(reserveOut) {
		return math.ZeroInt(), fmt.Errorf("%w: want %s, pool holds %s", ErrInsufficientLiquidity, amountOut, reserveOut)
	}

	numerator := new(big.Int).Mul(reserveIn.BigInt(), amountOut.BigInt())
	denominator := new(big.Int).Sub(reserveOut.BigInt(), amountOut.BigInt())
	in, rem := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if rem.Sign() != 0 {
		in.Add(in, big.NewInt(1))
	}
	if in.BitLen() > math.MaxBitLen {
		return math.ZeroInt(), fmt.Errorf("%w: required input does not fit", ErrInsufficientLiquidity)
	}
	return math.NewIntFromBigInt(in), nil
}

// Output quotes a human-readable input amount into a human-readable output
// amount. Anything that is not a positive number quotes as "0".
func Output(reserveIn, reserveOut math.Int, amountIn string, decimalsIn, decimalsOut uint8) string {
	in, err := units.Parse(amountIn, decimalsIn)
	if err != nil || !in.IsPositive() {
		return "0"
	}
	return units.Format(RawOutput(reserveIn, reserveOut, in), decimalsOut)
}

// Input quotes the human-readable input needed to receive amountOut.
// Unreachable or invalid targets quote as "0".
func Input(reserveIn, reserveOut math.Int, amountOut string, decimalsIn, decimalsOut uint8) string {
	out, err := units.Parse(amountOut, decimalsOut)
	if err != nil || !out.IsPositive() {
		return "0"
	}
	in, err := RawInput(reserveIn, reserveOut, out)
	if err != nil {
		return "0"
	}
	return units.Format(in, decimalsIn)
}

// SpotPrice is the marginal price of one whole input asset in output
// assets. Display only.
func SpotPrice(reserveIn, reserveOut math.Int, decimalsIn, decimalsOut uint8) decimal.Decimal {
	if reserveIn.IsNil() || reserveOut.IsNil() || !reserveIn.IsPositive() {
		return decimal.Zero
	}
	in := decimal.NewFromBigInt(reserveIn.BigInt(), -int32(decimalsIn))
	out := decimal.NewFromBigInt(reserveOut.BigInt(), -int32(decimalsOut))
	return out.DivRound(in, 12)
}

// Quote is a fully computed exact-input quote
type Quote struct {
	Input      types.Asset
	Output     types.Asset
	AmountIn   math.Int
	AmountOut  math.Int
	MinOut     math.Int
	ReserveIn  math.Int
	ReserveOut math.Int
	FeeBps     uint32
}

// Compute builds an exact-input quote. Unlike Output it reports why an
// amount could not be quoted.
func Compute(reserveIn, reserveOut math.Int, amountIn string, in, out types.Asset, feeBps uint32) (*Quote, error) {
	amount, err := units.Parse(amountIn, in.Decimals)
	if err != nil {
		return nil, err
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", units.ErrInvalidAmount)
	}
	if reserveIn.IsNil() || reserveOut.IsNil() || !reserveIn.IsPositive() || !reserveOut.IsPositive() {
		return nil, ErrInsufficientLiquidity
	}

	return &Quote{
		Input:      in,
		Output:     out,
		AmountIn:   amount,
		AmountOut:  RawOutput(reserveIn, reserveOut, amount),
		MinOut:     MinAcceptableOutput(reserveIn, reserveOut, amount, feeBps),
		ReserveIn:  reserveIn,
		ReserveOut: reserveOut,
		FeeBps:     feeBps,
	}, nil
}

// Zero is the quote shown for an amount that cannot be traded, such as an
// empty field or a value below the input asset's precision
func Zero(reserveIn, reserveOut math.Int, in, out types.Asset, feeBps uint32) *Quote {
	return &Quote{
		Input:      in,
		Output:     out,
		AmountIn:   math.ZeroInt(),
		AmountOut:  math.ZeroInt(),
		MinOut:     math.ZeroInt(),
		ReserveIn:  reserveIn,
		ReserveOut: reserveOut,
		FeeBps:     feeBps,
	}
}

// Rate is the effective price paid by this quote, output per input
func (q *Quote) Rate() decimal.Decimal {
	if !q.AmountIn.IsPositive() {
		return decimal.Zero
	}
	in := decimal.NewFromBigInt(q.AmountIn.BigInt(), -int32(q.Input.Decimals))
	out := decimal.NewFromBigInt(q.AmountOut.BigInt(), -int32(q.Output.Decimals))
	return out.DivRound(in, 12)
}

// Display formats the quote for output
func (q *Quote) Display() types.QuoteDisplay {
	return types.QuoteDisplay{
		SourceAmount: units.Format(q.AmountIn, q.Input.Decimals),
		SourceToken:  q.Input.Ticker,
		DestAmount:   units.Format(q.AmountOut, q.Output.Decimals),
		DestToken:    q.Output.Ticker,
		MinReceived:  units.Format(q.MinOut, q.Output.Decimals),
		Rate:         q.Rate().String(),
		FeeBps:       q.FeeBps,
		ReserveIn:    units.Format(q.ReserveIn, q.Input.Decimals),
		ReserveOut:   units.Format(q.ReserveOut, q.Output.Decimals),
	}
}
