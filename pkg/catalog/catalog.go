// Package catalog holds the static list of tradable assets.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"aptos-swap/pkg/parser"
	"aptos-swap/pkg/types"
)

// FaucetAddress publishes the test coins minted by the faucet module
const FaucetAddress = "0x0629b1b00b749a903909aab5ccd68a453b874cce963dffce03e38e318bf348b6"

var ErrUnknownAsset = errors.New("unknown asset")

// DefaultAssets is used when the configuration does not list any assets
var DefaultAssets = []types.Asset{
	{Name: "USD Coin", Ticker: "USDC", Identifier: FaucetAddress + "::faucet::USDC", Decimals: 6, Icon: "usdc.png"},
	{Name: "Wrapped Ether", Ticker: "WETH", Identifier: FaucetAddress + "::faucet::WETH", Decimals: 8, Icon: "weth.png"},
	{Name: "Wrapped Bitcoin", Ticker: "WBTC", Identifier: FaucetAddress + "::faucet::WBTC", Decimals: 8, Icon: "wbtc.png"},
	{Name: "Aptos Coin", Ticker: "APT", Identifier: "0x1::aptos_coin::AptosCoin", Decimals: 8, Icon: "apt.png"},
}

// Catalog is an ordered, read-only asset list
type Catalog struct {
	assets []types.Asset
}

// New validates assets and returns a catalog over a copy of them. At least
// two assets are needed to form a pair.
func New(assets []types.Asset) (*Catalog, error) {
	if len(assets) < 2 {
		return nil, fmt.Errorf("catalog needs at least 2 assets, got %d", len(assets))
	}

	seenID := make(map[string]bool, len(assets))
	seenTicker := make(map[string]bool, len(assets))
	for i, a := range assets {
		if a.Identifier == "" || a.Ticker == "" {
			return nil, fmt.Errorf("asset %d: identifier and ticker are required", i)
		}
		if strings.Count(a.Identifier, "::") != 2 {
			return nil, fmt.Errorf("asset %s: identifier %q is not a Move type", a.Ticker, a.Identifier)
		}
		ticker := strings.ToUpper(a.Ticker)
		if seenID[a.Identifier] || seenTicker[ticker] {
			return nil, fmt.Errorf("asset %s listed twice", a.Ticker)
		}
		seenID[a.Identifier] = true
		seenTicker[ticker] = true
	}

	return &Catalog{assets: append([]types.Asset(nil), assets...)}, nil
}

// Default returns the built-in catalog
func Default() *Catalog {
	c, err := New(DefaultAssets)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) All() []types.Asset {
	return append([]types.Asset(nil), c.assets...)
}

func (c *Catalog) Len() int {
	return len(c.assets)
}

// At returns the asset at index i
func (c *Catalog) At(i int) (types.Asset, error) {
	if i < 0 || i >= len(c.assets) {
		return types.Asset{}, fmt.Errorf("%w: index %d", ErrUnknownAsset, i)
	}
	return c.assets[i], nil
}

// BySymbol finds an asset by ticker, case-insensitively, falling back to
// common aliases such as ETH for WETH.
func (c *Catalog) BySymbol(symbol string) (types.Asset, error) {
	want := strings.TrimSpace(strings.ToUpper(symbol))
	for _, a := range c.assets {
		if strings.ToUpper(a.Ticker) == want {
			return a, nil
		}
	}

	normalized := parser.NormalizeTokenSymbol(want)
	for _, a := range c.assets {
		if strings.ToUpper(a.Ticker) == normalized {
			return a, nil
		}
	}

	return types.Asset{}, fmt.Errorf("%w: %s (try: aptos-swap tokens)", ErrUnknownAsset, symbol)
}

// ByIdentifier finds an asset by its Move type
func (c *Catalog) ByIdentifier(id string) (types.Asset, error) {
	for _, a := range c.assets {
		if a.Identifier == id {
			return a, nil
		}
	}
	return types.Asset{}, fmt.Errorf("%w: %s", ErrUnknownAsset, id)
}
