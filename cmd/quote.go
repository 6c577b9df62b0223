package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aptos-swap/pkg/parser"
	"aptos-swap/pkg/quote"
	"aptos-swap/pkg/types"
)

var exactOut bool

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Quote a swap without submitting it",
	Long: `Compute a swap quote from the pool's current reserves. No wallet is needed.

With --exact-out the amount is read as the destination amount you want and
the quote shows how much of the source token is required to receive it.

Examples:
  aptos-swap quote 100 USDC to WETH
  aptos-swap quote 0.5 USDC to WETH --exact-out
  aptos-swap quote 2 APT to USDC --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().BoolVar(&exactOut, "exact-out", false, "Treat the amount as the desired output")
}

func runQuote(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		return err
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	in, out, err := a.resolvePair(swapReq.SourceToken, swapReq.DestToken)
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching pool reserves..."
		s.Start()
	}

	snapshot, err := a.pools.SelectAndRefresh(cmd.Context(), types.NewPair(in, out))
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		return err
	}
	if !snapshot.Tradeable() {
		return fmt.Errorf("%w: %s/%s", quote.ErrInsufficientLiquidity, in.Ticker, out.Ticker)
	}
	reserveIn, reserveOut := snapshot.Reserves()

	if exactOut {
		required := quote.Input(reserveIn, reserveOut, swapReq.Amount, in.Decimals, out.Decimals)
		if required == "0" {
			return fmt.Errorf("%w: cannot buy %s %s", quote.ErrInsufficientLiquidity, swapReq.Amount, out.Ticker)
		}
		if jsonOutput {
			printJSON(map[string]any{
				"source_amount": required,
				"source_token":  in.Ticker,
				"dest_amount":   swapReq.Amount,
				"dest_token":    out.Ticker,
			})
			return nil
		}
		fmt.Printf("\n  To receive %s %s you need to send %s %s\n\n",
			swapReq.Amount, color.YellowString(out.Ticker),
			color.CyanString(required), color.YellowString(in.Ticker))
		return nil
	}

	q, err := quote.Compute(reserveIn, reserveOut, swapReq.Amount, in, out, a.cfg.FeeBps)
	if err != nil {
		return err
	}
	if jsonOutput {
		printJSON(q.Display())
		return nil
	}
	displayQuote(q.Display())
	return nil
}
