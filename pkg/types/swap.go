package types

import "fmt"

// Asset is a tradable coin listed in the catalog. Identifier is the Move
// type string the chain knows it by.
type Asset struct {
	Name       string `json:"name" mapstructure:"name"`
	Ticker     string `json:"ticker" mapstructure:"ticker"`
	Identifier string `json:"identifier" mapstructure:"identifier"`
	Decimals   uint8  `json:"decimals" mapstructure:"decimals"`
	Icon       string `json:"icon,omitempty" mapstructure:"icon"`
}

// Pair is an ordered (input, output) selection of asset identifiers
type Pair struct {
	In  string `json:"in"`
	Out string `json:"out"`
}

// NewPair builds the ordered pair for swapping in into out
func NewPair(in, out Asset) Pair {
	return Pair{In: in.Identifier, Out: out.Identifier}
}

// Reverse returns the pair with the direction flipped
func (p Pair) Reverse() Pair {
	return Pair{In: p.Out, Out: p.In}
}

// IsZero reports whether no pair has been selected
func (p Pair) IsZero() bool {
	return p.In == "" && p.Out == ""
}

func (p Pair) String() string {
	return fmt.Sprintf("%s -> %s", p.In, p.Out)
}

// SwapRequest represents a user's swap command
type SwapRequest struct {
	Amount      string
	SourceToken string
	DestToken   string
}

// QuoteDisplay holds formatted quote information for display
type QuoteDisplay struct {
	SourceAmount string `json:"source_amount"`
	SourceToken  string `json:"source_token"`
	DestAmount   string `json:"dest_amount"`
	DestToken    string `json:"dest_token"`
	MinReceived  string `json:"min_received"`
	Rate         string `json:"rate"`
	FeeBps       uint32 `json:"fee_bps"`
	ReserveIn    string `json:"reserve_in"`
	ReserveOut   string `json:"reserve_out"`
}
