package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aptos-swap/pkg/wallet"
)

var generateKey bool

var addressCmd = &cobra.Command{
	Use:   "address",
	Short: "Show the account address of the configured key",
	Long: `Show the account address derived from the configured private key.

With --generate a fresh ed25519 key is created and printed instead. Store it
as APTOS_SWAP_PRIVATE_KEY and fund the address before swapping.

Examples:
  aptos-swap address
  aptos-swap address --generate`,
	Args: cobra.NoArgs,
	RunE: runAddress,
}

func init() {
	rootCmd.AddCommand(addressCmd)

	addressCmd.Flags().BoolVar(&generateKey, "generate", false, "Generate a new private key")
}

func runAddress(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if generateKey {
		privateKey, address, err := wallet.Generate()
		if err != nil {
			return err
		}
		if jsonOutput {
			printJSON(map[string]string{"address": address, "private_key": privateKey})
			return nil
		}
		fmt.Printf("\n  Address:      %s\n", color.CyanString(address))
		fmt.Printf("  Private Key:  %s\n", color.YellowString(privateKey))
		color.Red("\n  Keep the private key secret. Anyone holding it controls the account.")
		fmt.Println()
		return nil
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	address, err := a.wallet.Address()
	if err != nil {
		return err
	}

	if jsonOutput {
		printJSON(map[string]string{"address": address, "public_key": a.wallet.PublicKey()})
		return nil
	}
	fmt.Printf("\n  Address:     %s\n", color.CyanString(address))
	fmt.Printf("  Public Key:  %s\n\n", color.HiBlackString(a.wallet.PublicKey()))
	return nil
}
