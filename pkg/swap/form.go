package swap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"aptos-swap/pkg/catalog"
	"aptos-swap/pkg/pool"
	"aptos-swap/pkg/quote"
	"aptos-swap/pkg/types"
	"aptos-swap/pkg/units"
)

// PoolSelector is the pool cache surface the form drives
type PoolSelector interface {
	PoolState
	Select(pair types.Pair)
	SelectAndRefresh(ctx context.Context, pair types.Pair) (pool.Pool, error)
}

// Form is the user's current selection: the two assets, the typed input
// amount and the output amount quoted from the cached pool.
type Form struct {
	pools PoolSelector

	mu     sync.Mutex
	input  types.Asset
	output types.Asset
	amount string
	quoted string
}

// FormState is a point-in-time copy of the form
type FormState struct {
	Input     types.Asset `json:"input"`
	Output    types.Asset `json:"output"`
	Amount    string      `json:"amount"`
	Quoted    string      `json:"quoted"`
	Tradeable bool        `json:"tradeable"`
}

// NewForm starts with the first two catalog assets selected. The pool is
// not fetched until Refresh is called.
func NewForm(cat *catalog.Catalog, pools PoolSelector) (*Form, error) {
	input, err := cat.At(0)
	if err != nil {
		return nil, err
	}
	output, err := cat.At(1)
	if err != nil {
		return nil, err
	}

	f := &Form{pools: pools, input: input, output: output, amount: "0", quoted: "0"}
	pools.Select(types.NewPair(input, output))
	return f, nil
}

// Refresh fetches reserves for the selected pair
func (f *Form) Refresh(ctx context.Context) error {
	_, err := f.pools.SelectAndRefresh(ctx, f.Pair())
	return err
}

func (f *Form) Pair() types.Pair {
	f.mu.Lock()
	defer f.mu.Unlock()
	return types.NewPair(f.input, f.output)
}

// SetAmount records the typed input amount and returns the quoted output.
// Input that is not a positive number quotes as "0".
func (f *Form) SetAmount(amount string) string {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.amount = amount
	f.quoted = f.quoteLocked()
	return f.quoted
}

func (f *Form) quoteLocked() string {
	snapshot := f.pools.Current()
	if snapshot.Pair != types.NewPair(f.input, f.output) {
		return "0"
	}
	reserveIn, reserveOut := snapshot.Reserves()
	return quote.Output(reserveIn, reserveOut, f.amount, f.input.Decimals, f.output.Decimals)
}

// SelectInput replaces the input asset. Choosing the current output asset
// switches the direction instead.
func (f *Form) SelectInput(ctx context.Context, asset types.Asset) error {
	f.mu.Lock()
	if asset.Identifier == f.output.Identifier {
		f.output = f.input
	}
	f.input = asset
	f.mu.Unlock()
	return f.reselect(ctx)
}

// SelectOutput replaces the output asset. Choosing the current input asset
// switches the direction instead.
func (f *Form) SelectOutput(ctx context.Context, asset types.Asset) error {
	f.mu.Lock()
	if asset.Identifier == f.input.Identifier {
		f.input = f.output
	}
	f.output = asset
	f.mu.Unlock()
	return f.reselect(ctx)
}

// SelectPair replaces both assets at once
func (f *Form) SelectPair(ctx context.Context, input, output types.Asset) error {
	if input.Identifier == output.Identifier {
		return fmt.Errorf("%w: cannot swap %s to itself", ErrInvalidInput, input.Ticker)
	}
	f.mu.Lock()
	f.input, f.output = input, output
	f.mu.Unlock()
	return f.reselect(ctx)
}

// Switch flips the swap direction
func (f *Form) Switch(ctx context.Context) error {
	f.mu.Lock()
	f.input, f.output = f.output, f.input
	f.mu.Unlock()
	return f.reselect(ctx)
}

func (f *Form) reselect(ctx context.Context) error {
	f.ClearAmounts()
	if _, err := f.pools.SelectAndRefresh(ctx, f.Pair()); err != nil && !errors.Is(err, pool.ErrStaleResponse) {
		return err
	}
	return nil
}

// ClearAmounts resets both amounts to "0"
func (f *Form) ClearAmounts() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.amount = "0"
	f.quoted = "0"
}

// CanEdit reports whether the selected pool has liquidity
func (f *Form) CanEdit() bool {
	snapshot := f.pools.Current()
	return snapshot.Pair == f.Pair() && snapshot.Tradeable()
}

// CanSwap reports whether the swap action is available
func (f *Form) CanSwap(connected bool) bool {
	f.mu.Lock()
	amount, decimals := f.amount, f.input.Decimals
	f.mu.Unlock()

	v, err := units.Parse(amount, decimals)
	return err == nil && v.IsPositive() && connected && f.CanEdit()
}

// Intent builds a swap intent from the form
func (f *Form) Intent() (*Intent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.amount == "" || f.amount == "0" {
		return nil, fmt.Errorf("%w: enter an amount", ErrInvalidInput)
	}
	return NewIntent(f.input, f.output, f.amount), nil
}

func (f *Form) State() FormState {
	f.mu.Lock()
	state := FormState{Input: f.input, Output: f.output, Amount: f.amount, Quoted: f.quoted}
	f.mu.Unlock()

	state.Tradeable = f.CanEdit()
	return state
}
