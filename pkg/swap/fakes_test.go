package swap

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"aptos-swap/pkg/client"
	"aptos-swap/pkg/pool"
	"aptos-swap/pkg/types"
)

var (
	assetA = types.Asset{Name: "Alpha", Ticker: "AAA", Identifier: "0x1::a::A", Decimals: 0}
	assetB = types.Asset{Name: "Beta", Ticker: "BBB", Identifier: "0x1::b::B", Decimals: 0}
	assetC = types.Asset{Name: "Gamma", Ticker: "CCC", Identifier: "0x1::c::C", Decimals: 6}
)

type fakeSigner struct {
	mu        sync.Mutex
	connected bool
	err       error
	payloads  []*client.EntryFunctionPayload
}

func (f *fakeSigner) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeSigner) SignTransaction(ctx context.Context, payload *client.EntryFunctionPayload) (*client.SignedTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return nil, f.err
	}
	return &client.SignedTransaction{
		TransactionRequest: client.TransactionRequest{Sender: "0xcafe", Payload: payload},
		Signature:          client.NewEd25519Signature("0x01", "0x02"),
	}, nil
}

func (f *fakeSigner) lastPayload() *client.EntryFunctionPayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return nil
	}
	return f.payloads[len(f.payloads)-1]
}

// fakeNetwork commits every transaction successfully unless told
// otherwise. With hang set, WaitForTransaction blocks until its context
// ends. With release set, it blocks until the channel is closed.
type fakeNetwork struct {
	mu        sync.Mutex
	submitErr error
	waitErr   error
	hang      bool
	release   chan struct{}
	submitted int
}

func (f *fakeNetwork) SubmitTransaction(ctx context.Context, txn *client.SignedTransaction) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted++
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "0xhash", nil
}

func (f *fakeNetwork) WaitForTransaction(ctx context.Context, hash string) (*client.Transaction, error) {
	f.mu.Lock()
	hang, release, waitErr := f.hang, f.release, f.waitErr
	f.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if release != nil {
		<-release
	}
	if waitErr != nil {
		return &client.Transaction{Hash: hash, Type: "user_transaction"}, waitErr
	}
	return &client.Transaction{Hash: hash, Type: "user_transaction", Success: true}, nil
}

func (f *fakeNetwork) submissions() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitted
}

type fakePools struct {
	mu        sync.Mutex
	snapshot  pool.Pool
	refreshed []types.Pair
}

func newFakePools(in, out types.Asset, reserveIn, reserveOut int64) *fakePools {
	return &fakePools{snapshot: pool.Pool{
		Pair:       types.NewPair(in, out),
		ReserveIn:  math.NewInt(reserveIn),
		ReserveOut: math.NewInt(reserveOut),
		FetchedAt:  time.Now(),
	}}
}

func (f *fakePools) Current() pool.Pool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

func (f *fakePools) Refresh(ctx context.Context, pair types.Pair) (pool.Pool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, pair)
	return f.snapshot, nil
}

func (f *fakePools) refreshCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.refreshed)
}

type fakeForm struct {
	mu      sync.Mutex
	cleared int
}

func (f *fakeForm) ClearAmounts() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeForm) clearCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleared
}

// fakeReader serves fixed reserves to a real pool cache
type fakeReader struct {
	mu       sync.Mutex
	reserves map[types.Pair][2]int64
	err      error
}

func (f *fakeReader) GetReserves(ctx context.Context, pair types.Pair) (math.Int, math.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return math.ZeroInt(), math.ZeroInt(), f.err
	}
	r := f.reserves[pair]
	return math.NewInt(r[0]), math.NewInt(r[1]), nil
}

func nextEvent(t *testing.T, ch <-chan StatusEvent) StatusEvent {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "subscription closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for status event")
		return StatusEvent{}
	}
}

var errBoom = errors.New("boom")
