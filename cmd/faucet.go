package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aptos-swap/pkg/client"
	"aptos-swap/pkg/swap"
	"aptos-swap/pkg/units"
)

const defaultFaucetUnits = "1000000000"

var faucetUnits string

var faucetCmd = &cobra.Command{
	Use:   "faucet <token>",
	Short: "Mint test coins into your account",
	Long: `Mint test coins from the faucet module into the configured account. Only
coins published by the faucet module can be minted.

Examples:
  aptos-swap faucet USDC
  aptos-swap faucet WETH --units 500000000`,
	Args: cobra.ExactArgs(1),
	RunE: runFaucet,
}

func init() {
	rootCmd.AddCommand(faucetCmd)

	faucetCmd.Flags().StringVar(&faucetUnits, "units", defaultFaucetUnits, "Amount to mint in base units")
}

func runFaucet(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if !a.wallet.IsConnected() {
		return fmt.Errorf("%w: set APTOS_SWAP_PRIVATE_KEY", swap.ErrUnauthenticated)
	}

	asset, err := a.catalog.BySymbol(args[0])
	if err != nil {
		return err
	}
	faucetAddress, _, _ := strings.Cut(a.cfg.FaucetModule, "::")
	if !strings.HasPrefix(asset.Identifier, faucetAddress+"::") {
		return fmt.Errorf("%s is not minted by the faucet at %s", asset.Ticker, faucetAddress)
	}

	amount, err := units.ParseRaw(faucetUnits)
	if err != nil {
		return err
	}
	if !amount.IsPositive() || amount.GT(units.MaxU64) {
		return fmt.Errorf("%w: --units must be between 1 and %s", units.ErrOutOfRange, units.MaxU64)
	}

	payload := client.NewEntryFunctionPayload(a.cfg.FaucetModule+"::mint", []string{asset.Identifier}, amount.String())

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = fmt.Sprintf(" Minting %s %s...", units.Format(amount, asset.Decimals), asset.Ticker)
		s.Start()
	}

	res, err := swap.Submit(cmd.Context(), a.wallet, a.node, payload, a.cfg.FinalityTimeout)
	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		out := map[string]any{
			"token":   asset.Ticker,
			"amount":  units.Format(amount, asset.Decimals),
			"tx_hash": res.Hash,
			"success": err == nil,
		}
		if err != nil {
			out["error"] = err.Error()
		}
		printJSON(out)
		return err
	}

	if err != nil {
		if res.Hash != "" {
			fmt.Printf("\n  Transaction:    %s\n", color.CyanString(res.Hash))
		}
		return err
	}

	color.Green("\n✓ Minted %s %s", units.Format(amount, asset.Decimals), asset.Ticker)
	printSuccess(fmt.Sprintf("  Transaction:    %s", color.CyanString(res.Hash)))
	return nil
}
