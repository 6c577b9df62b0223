package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"aptos-swap/pkg/api"
	"aptos-swap/pkg/feed"
	"aptos-swap/pkg/types"
)

var (
	listenAddr      string
	refreshInterval time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve quotes and swaps over HTTP",
	Long: `Run an HTTP service for a browser front end. Quotes and pool reserves are
served from a cache that is refreshed in the background, swaps are signed with
the configured key, and status changes are pushed to websocket clients on /ws.

Examples:
  aptos-swap serve
  aptos-swap serve --listen :9000 --refresh 5s`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (defaults to listen_addr from config)")
	serveCmd.Flags().DurationVar(&refreshInterval, "refresh", 10*time.Second, "Pool refresh interval, 0 disables")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	if !a.wallet.IsConnected() {
		a.logger.Warn("no private key configured, swaps will be rejected")
	}

	ctx := cmd.Context()

	input, _ := a.catalog.At(0)
	output, _ := a.catalog.At(1)
	if _, err := a.pools.SelectAndRefresh(ctx, types.NewPair(input, output)); err != nil {
		a.logger.Warn("initial pool fetch failed", "pair", input.Ticker+"/"+output.Ticker, "error", err)
	}

	ctrl := a.controller()
	defer ctrl.Close()

	broadcaster := feed.NewBroadcaster(a.logger)
	broadcaster.SetSnapshot(func() any { return ctrl.Last() })

	events, unsubscribe := ctrl.Subscribe()
	defer unsubscribe()
	go broadcaster.Forward(ctx, events)

	if refreshInterval > 0 {
		go a.pools.Run(ctx, refreshInterval)
	}

	addr := listenAddr
	if addr == "" {
		addr = a.cfg.ListenAddr
	}
	server := api.NewServer(addr, api.Deps{
		Catalog:    a.catalog,
		Pools:      a.pools,
		Controller: ctrl,
		Feed:       broadcaster,
		FeeBps:     a.cfg.FeeBps,
		Logger:     a.logger,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	color.Green("\n✓ Serving on %s", addr)
	fmt.Println("Press Ctrl+C to stop.")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
