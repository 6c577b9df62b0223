package swap

import (
	"github.com/google/uuid"

	"aptos-swap/pkg/types"
)

// Intent is a request to swap Amount of Input into Output. It lives for a
// single attempt.
type Intent struct {
	ID     string
	Input  types.Asset
	Output types.Asset
	// Amount is the human-readable input amount
	Amount string
	// Unprotected submits with a zero minimum output. Only honoured when
	// the controller allows it.
	Unprotected bool
}

func NewIntent(input, output types.Asset, amount string) *Intent {
	return &Intent{
		ID:     uuid.NewString(),
		Input:  input,
		Output: output,
		Amount: amount,
	}
}

// Pair is the ordered pool pair the intent trades on
func (i *Intent) Pair() types.Pair {
	return types.NewPair(i.Input, i.Output)
}
