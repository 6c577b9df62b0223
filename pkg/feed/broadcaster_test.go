package feed

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"aptos-swap/pkg/logging"
	"aptos-swap/pkg/swap"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(msg, &out))
	return out
}

func TestBroadcastToClients(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(logging.Discard())
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	first := dial(t, srv)
	second := dial(t, srv)
	require.Eventually(t, func() bool { return b.ClientCount() == 2 }, time.Second, 5*time.Millisecond)

	b.Broadcast(swap.StatusEvent{Status: swap.StatusSuccess, TxHash: "0xabc", Message: "Transaction Successful"})

	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		require.Equal(t, "success", ev["status"])
		require.Equal(t, "0xabc", ev["tx_hash"])
	}
}

func TestSnapshotOnConnect(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(logging.Discard())
	b.SetSnapshot(func() any { return swap.StatusEvent{Status: swap.StatusIdle} })
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.Equal(t, "idle", readEvent(t, conn)["status"])
}

func TestForwardAndDisconnect(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(logging.Discard())
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	events := make(chan swap.StatusEvent, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		b.Forward(ctx, events)
		close(done)
	}()

	events <- swap.StatusEvent{Status: swap.StatusPending, IntentID: "abc"}
	ev := readEvent(t, conn)
	require.Equal(t, "pending", ev["status"])
	require.Equal(t, "abc", ev["intent_id"])

	close(events)
	<-done

	conn.Close()
	require.Eventually(t, func() bool { return b.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestClose(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(logging.Discard())
	srv := httptest.NewServer(b.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return b.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	b.Close()
	require.Equal(t, 0, b.ClientCount())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}
