package quote

import (
	"math/big"
	"testing"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"aptos-swap/pkg/types"
)

var (
	testIn  = types.Asset{Ticker: "AAA", Identifier: "0x1::a::A", Decimals: 0}
	testOut = types.Asset{Ticker: "BBB", Identifier: "0x1::b::B", Decimals: 0}
)

func TestRawOutput(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		reserveIn  int64
		reserveOut int64
		amountIn   int64
		want       int64
	}{
		{"balanced pool", 1_000_000, 2_000_000, 100_000, 166666},
		{"zero input reserve", 0, 500, 10, 0},
		{"zero amount", 1_000_000, 2_000_000, 0, 0},
		{"negative amount", 1_000_000, 2_000_000, -5, 0},
		{"tiny trade rounds down", 1_000_000, 1_000, 1, 0},
		{"huge trade approaches reserve", 1, 1_000, 1_000_000_000, 999},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := RawOutput(math.NewInt(tc.reserveIn), math.NewInt(tc.reserveOut), math.NewInt(tc.amountIn))
			require.Equal(t, tc.want, got.Int64())
		})
	}
}

func TestOutputScenarios(t *testing.T) {
	t.Parallel()

	rIn, rOut := math.NewInt(1_000_000), math.NewInt(2_000_000)

	require.Equal(t, "166666", Output(rIn, rOut, "100000", 0, 0))
	require.Equal(t, "0", Output(math.ZeroInt(), math.NewInt(500), "10", 0, 0))
	require.Equal(t, "0", Output(rIn, rOut, "", 0, 0))
	require.Equal(t, "0", Output(rIn, rOut, "abc", 0, 0))
	require.Equal(t, "0", Output(rIn, rOut, "-3", 0, 0))
	require.Equal(t, "0", Output(rIn, rOut, "0", 0, 0))
}

func TestOutputMixedDecimals(t *testing.T) {
	t.Parallel()

	// 10 APT (8 decimals) against 20 USDC (6 decimals)
	rIn := math.NewInt(1_000_000_000)
	rOut := math.NewInt(20_000_000)

	// 1 APT in: 20e6*1e8/(1e9+1e8) = 1818181 units
	require.Equal(t, "1.818181", Output(rIn, rOut, "1", 8, 6))
}

func TestMinAcceptableOutput(t *testing.T) {
	t.Parallel()

	rIn, rOut, in := math.NewInt(1_000_000), math.NewInt(2_000_000), math.NewInt(100_000)

	require.Equal(t, int64(166582), MinAcceptableOutput(rIn, rOut, in, 5).Int64())
	require.Equal(t, int64(166666), MinAcceptableOutput(rIn, rOut, in, 0).Int64())
	require.Equal(t, int64(165832), MinAcceptableOutput(rIn, rOut, in, 50).Int64())
	require.True(t, MinAcceptableOutput(rIn, rOut, in, 20000).IsZero())
}

func TestOutputProperties(t *testing.T) {
	t.Parallel()

	rIn, rOut := math.NewInt(3_333_333), math.NewInt(7_777_777)
	prev := math.ZeroInt()

	for a := int64(0); a <= 50_000_000; a += 123_457 {
		got := RawOutput(rIn, rOut, math.NewInt(a))

		require.False(t, got.IsNegative())
		require.True(t, got.LTE(rOut), "output %s exceeds reserve", got)
		require.True(t, got.GTE(prev), "output not monotone at %d", a)

		for _, fee := range []uint32{0, 5, 30, 50, 10000} {
			min := MinAcceptableOutput(rIn, rOut, math.NewInt(a), fee)
			require.True(t, min.LTE(got))
			if fee == 0 {
				require.True(t, min.Equal(got))
			}
		}
		prev = got
	}
}

func TestRawInput(t *testing.T) {
	t.Parallel()

	rIn, rOut := math.NewInt(1_000_000), math.NewInt(2_000_000)

	in, err := RawInput(rIn, rOut, math.NewInt(166666))
	require.NoError(t, err)
	require.True(t, RawOutput(rIn, rOut, in).GTE(math.NewInt(166666)))
	require.True(t, RawOutput(rIn, rOut, in.SubRaw(1)).LT(math.NewInt(166666)))

	zero, err := RawInput(rIn, rOut, math.ZeroInt())
	require.NoError(t, err)
	require.True(t, zero.IsZero())

	_, err = RawInput(rIn, rOut, rOut)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = RawInput(math.ZeroInt(), rOut, math.NewInt(1))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	require.Equal(t, "0", Input(rIn, rOut, "2000000", 0, 0))
	require.Equal(t, "0", Input(rIn, rOut, "x", 0, 0))
}

func TestCompute(t *testing.T) {
	t.Parallel()

	q, err := Compute(math.NewInt(1_000_000), math.NewInt(2_000_000), "100000", testIn, testOut, 5)
	require.NoError(t, err)
	require.Equal(t, int64(166666), q.AmountOut.Int64())
	require.Equal(t, int64(166582), q.MinOut.Int64())

	d := q.Display()
	require.Equal(t, "100000", d.SourceAmount)
	require.Equal(t, "166666", d.DestAmount)
	require.Equal(t, "166582", d.MinReceived)
	require.Equal(t, "1.66666", d.Rate)

	_, err = Compute(math.ZeroInt(), math.NewInt(2_000_000), "1", testIn, testOut, 5)
	require.ErrorIs(t, err, ErrInsufficientLiquidity)

	_, err = Compute(math.NewInt(1), math.NewInt(1), "0", testIn, testOut, 5)
	require.Error(t, err)
}

func TestSpotPrice(t *testing.T) {
	t.Parallel()

	p := SpotPrice(math.NewInt(1_000_000_000), math.NewInt(20_000_000), 8, 6)
	require.Equal(t, "2", p.String())
	require.True(t, SpotPrice(math.ZeroInt(), math.NewInt(5), 0, 0).IsZero())
}

func TestWideReservesDoNotOverflow(t *testing.T) {
	t.Parallel()

	wide := math.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 250))
	amount := math.NewInt(1 << 20)

	var out, minOut math.Int
	require.NotPanics(t, func() {
		out = RawOutput(wide, wide, amount)
		minOut = MinAcceptableOutput(wide, wide, amount, 50)
	})
	// (2^250 * 2^20) / (2^250 + 2^20) is just below 2^20
	require.Equal(t, int64(1<<20-1), out.Int64())
	require.True(t, minOut.LT(out))

	var err error
	require.NotPanics(t, func() {
		_, err = RawInput(wide, wide.SubRaw(1), wide.SubRaw(2))
	})
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}
