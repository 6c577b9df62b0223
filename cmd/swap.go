package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aptos-swap/pkg/client"
	"aptos-swap/pkg/parser"
	"aptos-swap/pkg/quote"
	"aptos-swap/pkg/swap"
	"aptos-swap/pkg/types"
	"aptos-swap/pkg/wallet"
)

var (
	noConfirm   bool
	unprotected bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap one coin for another through the pool",
	Long: `Swap coins through the constant-product pool. The quote is computed from
the pool's current reserves and the transaction carries a minimum output, so
it aborts on chain if the price moves against you by more than the configured
fee_bps.

A private key must be configured (APTOS_SWAP_PRIVATE_KEY or private_key in
.aptos-swap.yaml).

Examples:
  aptos-swap swap 100 USDC to WETH
  aptos-swap swap 0.5 APT to USDC --yes
  aptos-swap swap 1 WBTC to USDC --json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
	swapCmd.Flags().BoolVar(&unprotected, "unprotected", false, "Submit without a minimum output (requires allow_unprotected_swap)")
}

func runSwap(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	swapReq, err := parser.ParseSwapCommand(strings.Join(args, " "))
	if err != nil {
		return err
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	confirm := func(payload *client.EntryFunctionPayload) bool {
		if !noConfirm && !jsonOutput && !confirmPrompt("Proceed with swap?") {
			return false
		}
		if !jsonOutput {
			s.Suffix = " " + swap.StatusPending.Message()
			s.Start()
		}
		return true
	}
	defer s.Stop()

	a, err := newApp(cmd, wallet.WithConfirm(confirm))
	if err != nil {
		return err
	}
	if !a.wallet.IsConnected() {
		return fmt.Errorf("%w: set APTOS_SWAP_PRIVATE_KEY", swap.ErrUnauthenticated)
	}

	in, out, err := a.resolvePair(swapReq.SourceToken, swapReq.DestToken)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	form, err := swap.NewForm(a.catalog, a.pools)
	if err != nil {
		return err
	}
	if err := form.SelectPair(ctx, in, out); err != nil {
		return err
	}
	if !form.CanEdit() {
		return fmt.Errorf("%w: %s/%s has no liquidity", swap.ErrUninitializedPool, in.Ticker, out.Ticker)
	}
	form.SetAmount(swapReq.Amount)

	reserveIn, reserveOut := a.pools.Current().Reserves()
	q, err := quote.Compute(reserveIn, reserveOut, swapReq.Amount, in, out, a.cfg.FeeBps)
	if err != nil {
		return err
	}
	if !jsonOutput {
		displayQuote(q.Display())
	}

	intent, err := form.Intent()
	if err != nil {
		return err
	}
	intent.Unprotected = unprotected

	ctrl := a.controller(swap.WithForm(form))
	defer ctrl.Close()

	events, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()

	if err := ctrl.ExecuteSwap(ctx, intent); err != nil {
		return err
	}

	var result swap.StatusEvent
	for ev := range events {
		if ev.Status.IsTerminal() {
			result = ev
			break
		}
	}
	s.Stop()
	// Close waits for the post-swap refresh
	ctrl.Close()

	if errors.Is(result.Err, swap.ErrSignatureDeclined) {
		if !jsonOutput {
			fmt.Println("\nSwap cancelled.")
		}
		return nil
	}

	if jsonOutput {
		printJSON(map[string]any{
			"intent_id":    result.IntentID,
			"status":       result.Status,
			"tx_hash":      result.TxHash,
			"error":        result.Error,
			"source_token": in.Ticker,
			"dest_token":   out.Ticker,
			"amount_in":    q.Display().SourceAmount,
			"min_received": q.Display().MinReceived,
		})
		return result.Err
	}

	displaySwapResult(result)
	if result.Status == swap.StatusSuccess {
		if snapshot := a.pools.Current(); snapshot.Pair == types.NewPair(in, out) {
			displayPool(snapshot, in, out)
		}
	}
	return result.Err
}

func displayQuote(q types.QuoteDisplay) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", q.SourceAmount, color.YellowString(q.SourceToken))
	fmt.Printf("  To:                ~%s %s\n", q.DestAmount, color.YellowString(q.DestToken))
	fmt.Printf("  Minimum Received:  %s %s\n", q.MinReceived, q.DestToken)
	fmt.Printf("  Rate:              1 %s = %s %s\n", q.SourceToken, q.Rate, q.DestToken)
	fmt.Printf("  Slippage Guard:    %s%%\n", bpsPercent(q.FeeBps))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displaySwapResult(ev swap.StatusEvent) {
	fmt.Println()
	switch ev.Status {
	case swap.StatusSuccess:
		color.Green("✓ %s", ev.Message)
	default:
		color.Red("✗ %s", ev.Message)
		if ev.Error != "" {
			fmt.Printf("  Reason:         %s\n", ev.Error)
		}
	}
	if ev.TxHash != "" {
		fmt.Printf("  Transaction:    %s\n", color.CyanString(ev.TxHash))
		fmt.Println("\nYou can inspect the transaction using:")
		color.Cyan("  aptos-swap status %s\n", ev.TxHash)
	}
}

func bpsPercent(bps uint32) string {
	return fmt.Sprintf("%d.%02d", bps/100, bps%100)
}
