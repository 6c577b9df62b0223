// Package pool caches the reserves of the currently selected pool pair.
package pool

import (
	"context"
	"errors"
	"time"

	"cosmossdk.io/math"

	"aptos-swap/pkg/types"
)

var (
	// ErrNetwork wraps failures reading reserves from the chain
	ErrNetwork = errors.New("pool read failed")
	// ErrStaleResponse marks a refresh that resolved after its pair was
	// deselected or a newer refresh had already been applied
	ErrStaleResponse = errors.New("stale pool response discarded")
)

// ReserveReader reads the reserves of the pool for an ordered pair. The
// reserves are returned in pair order.
type ReserveReader interface {
	GetReserves(ctx context.Context, pair types.Pair) (reserveIn, reserveOut math.Int, err error)
}

// Pool is a snapshot of a pool's reserves in smallest units. The zero
// value is the empty state used before the first successful fetch.
type Pool struct {
	Pair       types.Pair `json:"pair"`
	ReserveIn  math.Int   `json:"reserve_in"`
	ReserveOut math.Int   `json:"reserve_out"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// IsEmpty reports whether no snapshot is held
func (p Pool) IsEmpty() bool {
	return p.Pair.IsZero()
}

// Reserves returns both reserves, zero when unset
func (p Pool) Reserves() (math.Int, math.Int) {
	in, out := p.ReserveIn, p.ReserveOut
	if in.IsNil() {
		in = math.ZeroInt()
	}
	if out.IsNil() {
		out = math.ZeroInt()
	}
	return in, out
}

// Tradeable reports whether both reserves are positive
func (p Pool) Tradeable() bool {
	in, out := p.Reserves()
	return !p.IsEmpty() && in.IsPositive() && out.IsPositive()
}
