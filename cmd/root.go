package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "aptos-swap",
	Short: "A CLI for swapping coins against an Aptos constant-product pool",
	Long: `aptos-swap quotes and executes swaps between two coins held in an on-chain
constant-product liquidity pool on Aptos. Quotes are computed locally from the
pool's reserves, every swap carries a minimum output, and each transaction is
tracked until the chain reports its outcome.

Examples:
  aptos-swap quote 100 USDC to WETH
  aptos-swap swap 100 USDC to WETH
  aptos-swap pool APT USDC
  aptos-swap faucet USDC
  aptos-swap status <tx-hash>
  aptos-swap serve`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
