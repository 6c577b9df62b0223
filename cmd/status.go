package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aptos-swap/pkg/client"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a transaction",
	Long: `Check the outcome of a submitted transaction by its hash.

Examples:
  aptos-swap status 0x1234...abcd
  aptos-swap status 0x1234...abcd --watch
  aptos-swap status 0x1234...abcd --watch --interval 2`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Keep polling until the transaction is committed")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 1, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) error {
	hash := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	if watchStatus {
		if jsonOutput {
			return errors.New("watch mode not supported with JSON output")
		}
		return watchTransaction(cmd, a.node, hash)
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	txn, err := a.node.TransactionByHash(cmd.Context(), hash)
	if !jsonOutput {
		s.Stop()
	}
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(txn)
		return nil
	}
	displayTransaction(txn)
	return nil
}

func watchTransaction(cmd *cobra.Command, node *client.AptosClient, hash string) error {
	fmt.Printf("\nWatching transaction %s\n", color.CyanString(hash))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ctx := cmd.Context()
	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	for {
		txn, err := node.TransactionByHash(ctx, hash)
		switch {
		case client.IsNotFound(err):
			color.Yellow("Not found yet, waiting...")
		case err != nil:
			printError(err)
		default:
			displayTransaction(txn)
			if !txn.IsPending() {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func displayTransaction(txn *client.Transaction) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Hash:            %s\n", color.CyanString(txn.Hash))
	fmt.Printf("  Status:          %s\n", getColoredStatus(txn))
	if txn.VMStatus != "" {
		fmt.Printf("  VM Status:       %s\n", txn.VMStatus)
	}
	if txn.Sender != "" {
		fmt.Printf("  Sender:          %s\n", color.HiBlackString(txn.Sender))
	}
	if txn.Version != "" {
		fmt.Printf("  Version:         %s\n", txn.Version)
	}
	if txn.GasUsed != "" {
		fmt.Printf("  Gas Used:        %s\n", txn.GasUsed)
	}
	if ts, err := strconv.ParseInt(txn.Timestamp, 10, 64); err == nil && ts > 0 {
		fmt.Printf("  Committed At:    %s\n", time.UnixMicro(ts).Format("2006-01-02 15:04:05"))
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(txn *client.Transaction) string {
	switch {
	case txn.IsPending():
		return color.YellowString("PENDING")
	case txn.Success:
		return color.GreenString("SUCCESS")
	default:
		return color.RedString("FAILED")
	}
}
