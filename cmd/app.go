package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"aptos-swap/config"
	"aptos-swap/pkg/catalog"
	"aptos-swap/pkg/client"
	"aptos-swap/pkg/logging"
	"aptos-swap/pkg/pool"
	"aptos-swap/pkg/swap"
	"aptos-swap/pkg/types"
	"aptos-swap/pkg/wallet"
)

// app wires the configured collaborators for a single command run
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	node    *client.AptosClient
	wallet  *wallet.LocalWallet
	catalog *catalog.Catalog
	pools   *pool.Cache
}

func newApp(cmd *cobra.Command, walletOpts ...wallet.Option) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	level := cfg.LogLevel
	if verbose {
		level = "debug"
	}
	logger := logging.NewLogger(level)

	burst := int(cfg.RateLimit)
	if burst < 1 {
		burst = 1
	}
	node := client.NewAptosClient(cfg.NodeURL,
		client.WithRateLimit(cfg.RateLimit, burst),
		client.WithPollInterval(cfg.PollInterval),
		client.WithLogger(logger),
	)

	opts := []wallet.Option{
		wallet.WithMaxGas(cfg.MaxGasAmount),
		wallet.WithTTL(cfg.TxTTL),
		wallet.WithLogger(logger),
	}
	w, err := wallet.New(node, cfg.PrivateKey, append(opts, walletOpts...)...)
	if err != nil {
		return nil, err
	}

	cat, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		node:    node,
		wallet:  w,
		catalog: cat,
		pools:   pool.NewCache(pool.NewViewReader(node, cfg.PoolModule), logger),
	}, nil
}

func (a *app) controller(opts ...swap.ControllerOption) *swap.Controller {
	cfg := swap.Config{
		PoolModule:       a.cfg.PoolModule,
		FeeBps:           a.cfg.FeeBps,
		FinalityTimeout:  a.cfg.FinalityTimeout,
		DisplayDuration:  a.cfg.StatusDisplay,
		AllowUnprotected: a.cfg.AllowUnprotectedSwap,
	}
	return swap.NewController(cfg, a.wallet, a.node, a.pools, append([]swap.ControllerOption{swap.WithLogger(a.logger)}, opts...)...)
}

func (a *app) resolvePair(from, to string) (types.Asset, types.Asset, error) {
	in, err := a.catalog.BySymbol(from)
	if err != nil {
		return types.Asset{}, types.Asset{}, err
	}
	out, err := a.catalog.BySymbol(to)
	if err != nil {
		return types.Asset{}, types.Asset{}, err
	}
	return in, out, nil
}

func printJSON(v any) {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(jsonData))
}

func confirmPrompt(question string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Printf("\n%s (y/N): ", question)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
