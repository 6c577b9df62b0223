package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aptos-swap/pkg/parser"
	"aptos-swap/pkg/pool"
	"aptos-swap/pkg/quote"
	"aptos-swap/pkg/types"
	"aptos-swap/pkg/units"
)

var poolCmd = &cobra.Command{
	Use:   "pool <token> <token>",
	Short: "Show the reserves of a pool",
	Long: `Read the current reserves of the pool for a pair of coins. Reserves are
listed in the order given, so "pool APT USDC" shows the price of APT in USDC.

Examples:
  aptos-swap pool APT USDC
  aptos-swap pool WETH/WBTC`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPool,
}

func init() {
	rootCmd.AddCommand(poolCmd)
}

func runPool(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	from, to, err := parser.ParsePair(strings.Join(args, " "))
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	in, out, err := a.resolvePair(from, to)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Reading pool reserves..."
		s.Start()
	}

	snapshot, err := a.pools.SelectAndRefresh(cmd.Context(), types.NewPair(in, out))
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		reserveIn, reserveOut := snapshot.Reserves()
		printJSON(map[string]any{
			"input":       in.Ticker,
			"output":      out.Ticker,
			"reserve_in":  units.Format(reserveIn, in.Decimals),
			"reserve_out": units.Format(reserveOut, out.Decimals),
			"raw_in":      reserveIn.String(),
			"raw_out":     reserveOut.String(),
			"tradeable":   snapshot.Tradeable(),
		})
		return nil
	}

	displayPool(snapshot, in, out)
	return nil
}

func displayPool(snapshot pool.Pool, in, out types.Asset) {
	reserveIn, reserveOut := snapshot.Reserves()

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     POOL RESERVES")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  %-8s %s\n", color.YellowString(in.Ticker), units.Format(reserveIn, in.Decimals))
	fmt.Printf("  %-8s %s\n", color.YellowString(out.Ticker), units.Format(reserveOut, out.Decimals))

	if snapshot.Tradeable() {
		price := quote.SpotPrice(reserveIn, reserveOut, in.Decimals, out.Decimals)
		fmt.Printf("\n  Price:   1 %s = %s %s\n", in.Ticker, price.StringFixed(6), out.Ticker)
	} else {
		color.Red("\n  Pool has no liquidity, swaps are disabled")
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}
