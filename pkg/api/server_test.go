package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"cosmossdk.io/math"
	"github.com/stretchr/testify/require"

	"aptos-swap/pkg/catalog"
	"aptos-swap/pkg/client"
	"aptos-swap/pkg/feed"
	"aptos-swap/pkg/logging"
	"aptos-swap/pkg/pool"
	"aptos-swap/pkg/swap"
	"aptos-swap/pkg/types"
)

var (
	usdc = types.Asset{Ticker: "USDC", Identifier: "0x1::usdc::USDC", Decimals: 6}
	weth = types.Asset{Ticker: "WETH", Identifier: "0x1::weth::WETH", Decimals: 8}
	wbtc = types.Asset{Ticker: "WBTC", Identifier: "0x1::wbtc::WBTC", Decimals: 8}
)

type stubReader struct {
	mu  sync.Mutex
	err error
}

func (s *stubReader) GetReserves(ctx context.Context, pair types.Pair) (math.Int, math.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return math.ZeroInt(), math.ZeroInt(), s.err
	}
	if pair.In == wbtc.Identifier || pair.Out == wbtc.Identifier {
		return math.ZeroInt(), math.ZeroInt(), nil
	}
	if pair.In == usdc.Identifier {
		// 2000 USDC : 1 WETH
		return math.NewInt(2_000_000_000), math.NewInt(100_000_000), nil
	}
	return math.NewInt(100_000_000), math.NewInt(2_000_000_000), nil
}

type stubSigner struct{ connected bool }

func (s stubSigner) IsConnected() bool { return s.connected }

func (s stubSigner) SignTransaction(ctx context.Context, p *client.EntryFunctionPayload) (*client.SignedTransaction, error) {
	return &client.SignedTransaction{TransactionRequest: client.TransactionRequest{Payload: p}}, nil
}

type stubNetwork struct{ release chan struct{} }

func (s stubNetwork) SubmitTransaction(ctx context.Context, txn *client.SignedTransaction) (string, error) {
	return "0xhash", nil
}

func (s stubNetwork) WaitForTransaction(ctx context.Context, hash string) (*client.Transaction, error) {
	<-s.release
	return &client.Transaction{Hash: hash, Success: true}, nil
}

type fixture struct {
	srv     *httptest.Server
	reader  *stubReader
	ctrl    *swap.Controller
	release chan struct{}
}

func newFixture(t *testing.T, connected bool) *fixture {
	t.Helper()

	cat, err := catalog.New([]types.Asset{usdc, weth, wbtc})
	require.NoError(t, err)

	reader := &stubReader{}
	cache := pool.NewCache(reader, logging.Discard())
	release := make(chan struct{})
	ctrl := swap.NewController(
		swap.Config{PoolModule: "0xde5f::pool", FeeBps: 50, DisplayDuration: 10 * time.Millisecond},
		stubSigner{connected: connected}, stubNetwork{release: release}, cache,
		swap.WithLogger(logging.Discard()),
	)

	s := NewServer(":0", Deps{
		Catalog:    cat,
		Pools:      cache,
		Controller: ctrl,
		Feed:       feed.NewBroadcaster(logging.Discard()),
		FeeBps:     50,
		Logger:     logging.Discard(),
	})
	srv := httptest.NewServer(s.Handler())

	f := &fixture{srv: srv, reader: reader, ctrl: ctrl, release: release}
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
		ctrl.Close()
		srv.Close()
	})
	return f
}

func (f *fixture) get(t *testing.T, path string, out any) int {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (f *fixture) post(t *testing.T, path string, body any, out any) int {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(f.srv.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestQuote(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	var q types.QuoteDisplay
	require.Equal(t, http.StatusOK, f.get(t, "/quote?from=USDC&to=ETH&amount=2000", &q))
	// 1e8 * 2e9 / (2e9 + 2e9) = 5e7
	require.Equal(t, "0.5", q.DestAmount)
	require.Equal(t, "0.4975", q.MinReceived)
	require.Equal(t, "WETH", q.DestToken)

	for _, amount := range []string{"abc", "0", "0.0000001", ""} {
		var zero types.QuoteDisplay
		require.Equal(t, http.StatusOK, f.get(t, "/quote?from=USDC&to=WETH&amount="+amount, &zero), amount)
		require.Equal(t, "0", zero.DestAmount, amount)
		require.Equal(t, "0", zero.MinReceived, amount)
		require.Equal(t, "1", zero.ReserveOut, amount)
	}

	require.Equal(t, http.StatusBadRequest, f.get(t, "/quote?from=USDC&to=DOGE&amount=1", nil))
	require.Equal(t, http.StatusUnprocessableEntity, f.get(t, "/quote?from=USDC&to=WBTC&amount=1", nil))
}

func TestPool(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	var p poolResponse
	require.Equal(t, http.StatusOK, f.get(t, "/pool?from=WETH&to=USDC", &p))
	require.Equal(t, "1", p.ReserveIn)
	require.Equal(t, "2000", p.ReserveOut)
	require.Equal(t, "2000", p.SpotPrice)
	require.True(t, p.Tradeable)

	f.reader.mu.Lock()
	f.reader.err = errors.New("node unreachable")
	f.reader.mu.Unlock()
	require.Equal(t, http.StatusBadGateway, f.get(t, "/pool?from=WETH&to=USDC", nil))
}

func TestSwapLifecycle(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	var accepted swapResponse
	code := f.post(t, "/swap", swapRequest{From: "USDC", To: "WETH", Amount: "2000"}, &accepted)
	require.Equal(t, http.StatusAccepted, code)
	require.NotEmpty(t, accepted.IntentID)
	require.Equal(t, "0.4975", accepted.MinOut)

	var status map[string]any
	require.Equal(t, http.StatusOK, f.get(t, "/status", &status))
	require.Equal(t, "pending", status["status"])

	require.Equal(t, http.StatusConflict, f.post(t, "/swap", swapRequest{From: "USDC", To: "WETH", Amount: "1"}, nil))

	close(f.release)
	f.ctrl.Wait()

	require.Equal(t, http.StatusOK, f.get(t, "/status", &status))
	require.Equal(t, "idle", status["status"])
}

func TestSwapRejections(t *testing.T) {
	t.Parallel()

	f := newFixture(t, false)
	require.Equal(t, http.StatusUnauthorized, f.post(t, "/swap", swapRequest{From: "USDC", To: "WETH", Amount: "1"}, nil))

	f = newFixture(t, true)
	require.Equal(t, http.StatusForbidden, f.post(t, "/swap", swapRequest{From: "USDC", To: "WETH", Amount: "1", Unprotected: true}, nil))
	require.Equal(t, http.StatusBadRequest, f.post(t, "/swap", swapRequest{From: "USDC", To: "USDC", Amount: "1"}, nil))
	require.Equal(t, http.StatusUnprocessableEntity, f.post(t, "/swap", swapRequest{From: "USDC", To: "WBTC", Amount: "1"}, nil))

	resp, err := http.Post(f.srv.URL+"/swap", "application/json", bytes.NewBufferString("{"))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCORSAndHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t, true)

	req, err := http.NewRequest(http.MethodOptions, f.srv.URL+"/quote", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var health map[string]string
	require.Equal(t, http.StatusOK, f.get(t, "/health", &health))
	require.Equal(t, "ok", health["status"])

	var tokens []types.Asset
	require.Equal(t, http.StatusOK, f.get(t, "/tokens", &tokens))
	require.Len(t, tokens, 3)
}
