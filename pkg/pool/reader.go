package pool

import (
	"context"
	"encoding/json"
	"fmt"

	"cosmossdk.io/math"

	"aptos-swap/pkg/client"
	"aptos-swap/pkg/types"
	"aptos-swap/pkg/units"
)

// Viewer calls Move view functions
type Viewer interface {
	View(ctx context.Context, req *client.ViewRequest) ([]json.RawMessage, error)
}

// ViewReader reads reserves through the pool module's liquidity view
type ViewReader struct {
	viewer   Viewer
	function string
}

// NewViewReader reads from module, e.g. "0xde5f...::pool"
func NewViewReader(viewer Viewer, module string) *ViewReader {
	// the on-chain function name is spelled this way
	return &ViewReader{viewer: viewer, function: module + "::get_liqidity"}
}

func (r *ViewReader) GetReserves(ctx context.Context, pair types.Pair) (math.Int, math.Int, error) {
	out, err := r.viewer.View(ctx, &client.ViewRequest{
		Function:      r.function,
		TypeArguments: []string{pair.In, pair.Out},
		Arguments:     []any{},
	})
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), err
	}
	if len(out) < 2 {
		return math.ZeroInt(), math.ZeroInt(), fmt.Errorf("%s returned %d values, want 2", r.function, len(out))
	}

	reserveIn, err := decodeU64(out[0])
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), fmt.Errorf("reserve in: %w", err)
	}
	reserveOut, err := decodeU64(out[1])
	if err != nil {
		return math.ZeroInt(), math.ZeroInt(), fmt.Errorf("reserve out: %w", err)
	}
	return reserveIn, reserveOut, nil
}

// decodeU64 accepts the JSON string form the node uses for u64, and bare
// numbers for tolerance.
func decodeU64(raw json.RawMessage) (math.Int, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return math.ZeroInt(), fmt.Errorf("unexpected value %s", string(raw))
		}
		s = n.String()
	}
	v, err := units.ParseRaw(s)
	if err != nil {
		return math.ZeroInt(), err
	}
	if v.GT(units.MaxU64) {
		return math.ZeroInt(), fmt.Errorf("%w: %s", units.ErrOutOfRange, s)
	}
	return v, nil
}
