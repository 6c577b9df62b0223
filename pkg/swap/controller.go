package swap

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cosmossdk.io/math"

	"aptos-swap/pkg/client"
	"aptos-swap/pkg/pool"
	"aptos-swap/pkg/quote"
	"aptos-swap/pkg/types"
	"aptos-swap/pkg/units"
)

const (
	DefaultFinalityTimeout = 20 * time.Second
	DefaultDisplayDuration = 1500 * time.Millisecond

	subscriberBuffer = 16
)

// PoolState is the pool snapshot source the controller prices against and
// refreshes after every attempt
type PoolState interface {
	Current() pool.Pool
	Refresh(ctx context.Context, pair types.Pair) (pool.Pool, error)
}

// AmountClearer resets the user's entered amounts
type AmountClearer interface {
	ClearAmounts()
}

type Config struct {
	// PoolModule is the Move module holding the swap entry function,
	// e.g. "0xde5f...::pool"
	PoolModule      string
	FeeBps          uint32
	FinalityTimeout time.Duration
	DisplayDuration time.Duration
	// AllowUnprotected lets intents opt out of the minimum output
	AllowUnprotected bool
}

// Controller runs at most one swap at a time through
// Idle -> Pending -> Success|Error -> Idle.
type Controller struct {
	cfg     Config
	signer  Signer
	network Network
	pools   PoolState
	form    AmountClearer
	logger  *slog.Logger

	mu      sync.Mutex
	last    StatusEvent
	subs    map[int]chan StatusEvent
	nextSub int
	closing chan struct{}
	closed  bool
	wg      sync.WaitGroup
}

type ControllerOption func(*Controller)

// WithForm makes the controller clear form amounts after each attempt
func WithForm(f AmountClearer) ControllerOption {
	return func(c *Controller) { c.form = f }
}

func WithLogger(l *slog.Logger) ControllerOption {
	return func(c *Controller) { c.logger = l }
}

func NewController(cfg Config, signer Signer, network Network, pools PoolState, opts ...ControllerOption) *Controller {
	if cfg.FinalityTimeout <= 0 {
		cfg.FinalityTimeout = DefaultFinalityTimeout
	}
	if cfg.DisplayDuration <= 0 {
		cfg.DisplayDuration = DefaultDisplayDuration
	}

	c := &Controller{
		cfg:     cfg,
		signer:  signer,
		network: network,
		pools:   pools,
		logger:  slog.Default(),
		last:    StatusEvent{Status: StatusIdle, At: time.Now()},
		subs:    make(map[int]chan StatusEvent),
		closing: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Status returns the current lifecycle state
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.Status
}

// Last returns the most recent status event
func (c *Controller) Last() StatusEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Subscribe returns a channel receiving every subsequent status event and
// a function that unsubscribes and closes it. Events are dropped for a
// subscriber whose buffer is full.
func (c *Controller) Subscribe() (<-chan StatusEvent, func()) {
	ch := make(chan StatusEvent, subscriberBuffer)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
}

// Prepare validates intent against the current pool snapshot and builds
// the swap payload without changing state.
func (c *Controller) Prepare(intent *Intent) (*client.EntryFunctionPayload, math.Int, error) {
	amountIn, err := units.Parse(intent.Amount, intent.Input.Decimals)
	if err != nil {
		return nil, math.Int{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if !amountIn.IsPositive() {
		return nil, math.Int{}, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	if intent.Input.Identifier == intent.Output.Identifier {
		return nil, math.Int{}, fmt.Errorf("%w: cannot swap %s to itself", ErrInvalidInput, intent.Input.Ticker)
	}

	pair := intent.Pair()
	snapshot := c.pools.Current()
	if snapshot.Pair != pair || !snapshot.Tradeable() {
		return nil, math.Int{}, fmt.Errorf("%w: %s/%s", ErrUninitializedPool, intent.Input.Ticker, intent.Output.Ticker)
	}
	if !c.signer.IsConnected() {
		return nil, math.Int{}, ErrUnauthenticated
	}

	reserveIn, reserveOut := snapshot.Reserves()
	minOut := quote.MinAcceptableOutput(reserveIn, reserveOut, amountIn, c.cfg.FeeBps)

	switch {
	case intent.Unprotected && !c.cfg.AllowUnprotected:
		return nil, math.Int{}, ErrUnprotectedSwap
	case intent.Unprotected:
		c.logger.Warn("submitting swap without minimum output", "intent", intent.ID)
		minOut = math.ZeroInt()
	case !minOut.IsPositive():
		return nil, math.Int{}, fmt.Errorf("%w: %s %s is too small to receive any %s", ErrInvalidInput, intent.Amount, intent.Input.Ticker, intent.Output.Ticker)
	}

	payload := client.NewEntryFunctionPayload(
		c.cfg.PoolModule+"::swap",
		[]string{pair.In, pair.Out},
		amountIn.String(),
		minOut.String(),
	)
	return payload, minOut, nil
}

// ExecuteSwap starts a swap attempt. Validation failures are returned
// immediately and leave the status untouched. Once accepted, the attempt
// runs in the background and its outcome is reported only through status
// events.
func (c *Controller) ExecuteSwap(ctx context.Context, intent *Intent) error {
	payload, minOut, err := c.Prepare(intent)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return fmt.Errorf("controller closed")
	}
	if c.last.Status != StatusIdle {
		c.mu.Unlock()
		return ErrSwapInProgress
	}
	c.publishLocked(newEvent(StatusPending, intent.ID, "", nil))
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Info("swap submitted for signing",
		"intent", intent.ID,
		"pair", intent.Pair().String(),
		"amount_in", payload.Arguments[0],
		"min_out", minOut.String())

	go c.run(ctx, intent, payload)
	return nil
}

func (c *Controller) run(ctx context.Context, intent *Intent, payload *client.EntryFunctionPayload) {
	defer c.wg.Done()

	res, err := Submit(ctx, c.signer, c.network, payload, c.cfg.FinalityTimeout)

	status := StatusSuccess
	if err != nil {
		status = StatusError
		c.logger.Error("swap failed", "intent", intent.ID, "tx", res.Hash, "error", err)
	} else {
		c.logger.Info("swap confirmed", "intent", intent.ID, "tx", res.Hash)
	}

	c.mu.Lock()
	c.publishLocked(newEvent(status, intent.ID, res.Hash, err))
	c.mu.Unlock()

	if c.form != nil {
		c.form.ClearAmounts()
	}

	refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.cfg.FinalityTimeout)
	if _, err := c.pools.Refresh(refreshCtx, intent.Pair()); err != nil {
		c.logger.Warn("pool refresh after swap failed", "intent", intent.ID, "error", err)
	}
	cancel()

	select {
	case <-time.After(c.cfg.DisplayDuration):
	case <-c.closing:
	}

	c.mu.Lock()
	if c.last.Status.IsTerminal() {
		c.publishLocked(newEvent(StatusIdle, "", "", nil))
	}
	c.mu.Unlock()
}

// Wait blocks until the in-flight attempt, if any, is back to Idle
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cuts the display period of an in-flight attempt short, waits for
// it, and closes all subscriptions. No new swaps are accepted.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.closing)
	c.mu.Unlock()

	c.wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Controller) publishLocked(ev StatusEvent) {
	c.last = ev
	for _, ch := range c.subs {
		select {
		case ch <- ev:
		default:
			c.logger.Warn("status subscriber is slow, dropping event", "status", ev.Status.String())
		}
	}
}
