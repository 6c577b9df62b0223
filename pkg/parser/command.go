package parser

import (
	"fmt"
	"regexp"
	"strings"

	"aptos-swap/pkg/types"
)

var (
	swapPattern = regexp.MustCompile(`^(\d+\.?\d*)\s+([A-Z0-9]+)\s+TO\s+([A-Z0-9]+)$`)
	pairPattern = regexp.MustCompile(`^([A-Z0-9]+)\s*(?:/|\s+TO\s+|\s+)\s*([A-Z0-9]+)$`)
)

// ParseSwapCommand parses a natural language swap command
// Examples:
//   - "swap 1 APT to USDC"
//   - "1.5 WETH to WBTC"
//   - "quote 100 USDC to APT"
func ParseSwapCommand(command string) (*types.SwapRequest, error) {
	command = strings.TrimSpace(strings.ToUpper(command))
	command = strings.TrimPrefix(command, "SWAP ")
	command = strings.TrimPrefix(command, "QUOTE ")

	matches := swapPattern.FindStringSubmatch(command)
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: 'swap <amount> <token> to <token>' (e.g., 'swap 1 APT to USDC')")
	}

	req := &types.SwapRequest{
		Amount:      matches[1],
		SourceToken: matches[2],
		DestToken:   matches[3],
	}
	if err := ValidateSwapRequest(req); err != nil {
		return nil, err
	}
	return req, nil
}

// ParsePair parses "APT USDC", "APT/USDC" or "APT to USDC" into tickers
func ParsePair(s string) (string, string, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	matches := pairPattern.FindStringSubmatch(s)
	if matches == nil {
		return "", "", fmt.Errorf("invalid pair %q. Expected: '<token> <token>' or '<token>/<token>'", s)
	}
	if matches[1] == matches[2] {
		return "", "", fmt.Errorf("pair needs two different tokens, got %s twice", matches[1])
	}
	return matches[1], matches[2], nil
}

// ValidateSwapRequest validates that a swap request has all required fields
func ValidateSwapRequest(req *types.SwapRequest) error {
	if req.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	if req.SourceToken == "" {
		return fmt.Errorf("source token is required")
	}
	if req.DestToken == "" {
		return fmt.Errorf("destination token is required")
	}
	if NormalizeTokenSymbol(req.SourceToken) == NormalizeTokenSymbol(req.DestToken) {
		return fmt.Errorf("cannot swap %s to itself", req.SourceToken)
	}
	return nil
}

// NormalizeTokenSymbol maps common aliases onto the tickers the pool lists
func NormalizeTokenSymbol(symbol string) string {
	symbol = strings.TrimSpace(strings.ToUpper(symbol))

	aliases := map[string]string{
		"BTC":   "WBTC",
		"ETH":   "WETH",
		"APTOS": "APT",
		"USD":   "USDC",
	}

	if normalized, exists := aliases[symbol]; exists {
		return normalized
	}

	return symbol
}
