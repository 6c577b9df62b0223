package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aptos-swap/config"
	"aptos-swap/pkg/types"
)

var filterSymbol string

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List all tradable coins",
	Long: `List the coins in the asset catalog. The catalog comes from the "assets"
list in .aptos-swap.yaml, or the built-in list when none is configured.

Examples:
  aptos-swap list-tokens
  aptos-swap list-tokens --symbol USD`,
	RunE: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

func runListTokens(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cat, err := cfg.Catalog()
	if err != nil {
		return err
	}

	filtered := cat.All()
	if filterSymbol != "" {
		var temp []types.Asset
		for _, token := range filtered {
			if strings.Contains(strings.ToUpper(token.Ticker), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	if jsonOutput {
		printJSON(filtered)
		return nil
	}
	displayTokens(filtered)
	return nil
}

func displayTokens(tokens []types.Asset) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90) + "\n")

	for _, token := range tokens {
		identifier := token.Identifier
		if len(identifier) > 50 {
			identifier = identifier[:10] + "..." + identifier[len(identifier)-37:]
		}

		fmt.Printf("  %-16s  %-18s  %2d decimals  %s\n",
			color.YellowString(token.Ticker),
			token.Name,
			token.Decimals,
			color.HiBlackString(identifier))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}
