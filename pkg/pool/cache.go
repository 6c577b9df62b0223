package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"aptos-swap/pkg/types"
)

// Cache holds the last fetched snapshot for the selected ordered pair.
//
// Every refresh takes a ticket. A result is applied only if its pair is
// still selected and no refresh with a later ticket has been applied, so
// out of order responses never overwrite newer state.
type Cache struct {
	reader ReserveReader
	logger *slog.Logger

	mu       sync.RWMutex
	selected types.Pair
	snapshot Pool
	ticket   uint64
	applied  uint64
}

func NewCache(reader ReserveReader, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{reader: reader, logger: logger}
}

// Select makes pair the current selection. Changing the pair or its
// direction drops the snapshot and invalidates in-flight refreshes.
func (c *Cache) Select(pair types.Pair) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if pair == c.selected {
		return
	}
	c.selected = pair
	c.snapshot = Pool{}
	c.applied = c.ticket
}

// Selected returns the currently selected pair
func (c *Cache) Selected() types.Pair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selected
}

// Current returns the last applied snapshot, or the empty Pool
func (c *Cache) Current() Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Refresh fetches reserves for pair and stores them if the result is still
// wanted. With nothing selected yet, pair becomes the selection. On read
// failure the previous snapshot is kept and the error wraps ErrNetwork.
func (c *Cache) Refresh(ctx context.Context, pair types.Pair) (Pool, error) {
	c.mu.Lock()
	if c.selected.IsZero() {
		c.selected = pair
	}
	c.ticket++
	ticket := c.ticket
	c.mu.Unlock()

	reserveIn, reserveOut, err := c.reader.GetReserves(ctx, pair)
	if err != nil {
		c.logger.Warn("pool refresh failed", "pair", pair.String(), "error", err)
		return c.Current(), fmt.Errorf("%w: %s: %w", ErrNetwork, pair, err)
	}

	fetched := Pool{
		Pair:       pair,
		ReserveIn:  reserveIn,
		ReserveOut: reserveOut,
		FetchedAt:  time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if pair != c.selected || ticket <= c.applied {
		c.logger.Debug("discarding stale pool response", "pair", pair.String(), "ticket", ticket)
		return fetched, ErrStaleResponse
	}

	c.snapshot = fetched
	c.applied = ticket
	c.logger.Debug("pool refreshed", "pair", pair.String(), "reserve_in", reserveIn.String(), "reserve_out", reserveOut.String())
	return fetched, nil
}

// SelectAndRefresh selects pair and fetches its reserves
func (c *Cache) SelectAndRefresh(ctx context.Context, pair types.Pair) (Pool, error) {
	c.Select(pair)
	return c.Refresh(ctx, pair)
}

// Run refreshes the selected pair every interval until ctx is cancelled
func (c *Cache) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pair := c.Selected()
			if pair.IsZero() {
				continue
			}
			// failures are logged by Refresh and the old snapshot stays
			_, _ = c.Refresh(ctx, pair)
		}
	}
}
