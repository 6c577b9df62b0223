package swap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"aptos-swap/pkg/catalog"
	"aptos-swap/pkg/logging"
	"aptos-swap/pkg/pool"
	"aptos-swap/pkg/types"
)

func newTestForm(t *testing.T) (*Form, *pool.Cache, *fakeReader) {
	t.Helper()

	cat, err := catalog.New([]types.Asset{assetA, assetB, assetC})
	require.NoError(t, err)

	reader := &fakeReader{reserves: map[types.Pair][2]int64{
		types.NewPair(assetA, assetB): {1_000_000, 2_000_000},
		types.NewPair(assetB, assetA): {2_000_000, 1_000_000},
		types.NewPair(assetA, assetC): {0, 0},
	}}
	cache := pool.NewCache(reader, logging.Discard())

	form, err := NewForm(cat, cache)
	require.NoError(t, err)
	return form, cache, reader
}

func TestFormQuotesAgainstCache(t *testing.T) {
	t.Parallel()

	form, _, _ := newTestForm(t)
	require.Equal(t, types.NewPair(assetA, assetB), form.Pair())

	// nothing fetched yet
	require.Equal(t, "0", form.SetAmount("100000"))
	require.False(t, form.CanEdit())

	require.NoError(t, form.Refresh(context.Background()))
	require.True(t, form.CanEdit())
	require.Equal(t, "166666", form.SetAmount("100000"))
	require.True(t, form.CanSwap(true))
	require.False(t, form.CanSwap(false))

	require.Equal(t, "0", form.SetAmount("nope"))
	require.False(t, form.CanSwap(true))
}

func TestFormSwitch(t *testing.T) {
	t.Parallel()

	form, cache, _ := newTestForm(t)
	require.NoError(t, form.Refresh(context.Background()))
	form.SetAmount("5")

	require.NoError(t, form.Switch(context.Background()))

	state := form.State()
	require.Equal(t, assetB, state.Input)
	require.Equal(t, assetA, state.Output)
	require.Equal(t, "0", state.Amount)
	require.Equal(t, "0", state.Quoted)
	require.True(t, state.Tradeable)
	require.Equal(t, types.NewPair(assetB, assetA), cache.Current().Pair)
}

func TestFormSelectAssets(t *testing.T) {
	t.Parallel()

	form, _, _ := newTestForm(t)
	require.NoError(t, form.Refresh(context.Background()))

	require.NoError(t, form.SelectOutput(context.Background(), assetC))
	require.Equal(t, types.NewPair(assetA, assetC), form.Pair())
	require.False(t, form.CanEdit(), "empty pool is not tradeable")

	// selecting the output asset as input flips the direction
	require.NoError(t, form.SelectInput(context.Background(), assetC))
	require.Equal(t, types.NewPair(assetC, assetA), form.Pair())

	require.NoError(t, form.SelectInput(context.Background(), assetA))
	require.NoError(t, form.SelectOutput(context.Background(), assetB))
	require.Equal(t, types.NewPair(assetA, assetB), form.Pair())
	require.True(t, form.CanEdit())
}

func TestFormSelectPair(t *testing.T) {
	t.Parallel()

	form, cache, _ := newTestForm(t)
	require.NoError(t, form.SelectPair(context.Background(), assetB, assetA))
	require.Equal(t, types.NewPair(assetB, assetA), cache.Selected())
	require.Equal(t, "500000", form.SetAmount("2000000"))

	require.ErrorIs(t, form.SelectPair(context.Background(), assetA, assetA), ErrInvalidInput)
}

func TestFormIntentAndClear(t *testing.T) {
	t.Parallel()

	form, _, _ := newTestForm(t)
	require.NoError(t, form.Refresh(context.Background()))

	_, err := form.Intent()
	require.ErrorIs(t, err, ErrInvalidInput)

	form.SetAmount("42")
	intent, err := form.Intent()
	require.NoError(t, err)
	require.Equal(t, "42", intent.Amount)
	require.Equal(t, assetA, intent.Input)
	require.NotEmpty(t, intent.ID)

	form.ClearAmounts()
	state := form.State()
	require.Equal(t, "0", state.Amount)
	require.Equal(t, "0", state.Quoted)
}

func TestFormWithController(t *testing.T) {
	t.Parallel()

	form, cache, _ := newTestForm(t)
	require.NoError(t, form.Refresh(context.Background()))
	form.SetAmount("100000")

	signer := &fakeSigner{connected: true}
	ctrl := NewController(Config{PoolModule: "0xde5f::pool", FeeBps: 5, DisplayDuration: 1},
		signer, &fakeNetwork{}, cache, WithForm(form), WithLogger(logging.Discard()))
	defer ctrl.Close()

	intent, err := form.Intent()
	require.NoError(t, err)
	require.NoError(t, ctrl.ExecuteSwap(context.Background(), intent))
	ctrl.Wait()

	require.Equal(t, "0", form.State().Amount)
	require.Equal(t, []any{"100000", "166582"}, signer.lastPayload().Arguments)
}
