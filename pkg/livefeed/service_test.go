package livefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{}

func hostOf(srv *httptest.Server) string {
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestURL(t *testing.T) {
	l := NewListener(Options{Host: "meter.local:9039"}, zap.NewNop(), nil)
	assert.Equal(t, "ws://meter.local:9039/ws", l.URL())

	l = NewListener(Options{Host: "meter.local", TLS: true, Path: "/feed"}, zap.NewNop(), nil)
	assert.Equal(t, "wss://meter.local/feed", l.URL())
}

func TestRetryDelayBacksOffToCap(t *testing.T) {
	l := NewListener(Options{}, zap.NewNop(), nil)
	assert.Equal(t, 4*time.Second, l.retryDelay(1))
	assert.Equal(t, 16*time.Second, l.retryDelay(3))
	assert.Equal(t, 60*time.Second, l.retryDelay(5))
	assert.Equal(t, 60*time.Second, l.retryDelay(40))
}

func TestReconnectsAfterServerCloses(t *testing.T) {
	var connections atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		connections.Add(1)
		c.WriteMessage(websocket.BinaryMessage, []byte{1, 2})
		c.WriteMessage(websocket.TextMessage, []byte(`{"device_id":"fridge"}`))
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "bye"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payloads := make(chan string, 16)
	l := NewListener(Options{Host: hostOf(srv)}, zap.NewNop(), func(_ context.Context, p []byte) {
		select {
		case payloads <- string(p):
		default:
		}
	})

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	for i := 0; i < 2; i++ {
		select {
		case p := <-payloads:
			assert.Equal(t, `{"device_id":"fridge"}`, p)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for payload")
		}
	}
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("listener did not stop")
	}
	assert.GreaterOrEqual(t, connections.Load(), int32(2))
}

func TestCancelClosesCleanly(t *testing.T) {
	connected := make(chan struct{})
	closed := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		close(connected)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					close(closed)
				}
				return
			}
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	l := NewListener(Options{Host: hostOf(srv)}, zap.NewNop(), func(context.Context, []byte) {})

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("never connected")
	}
	cancel()

	require.NoError(t, <-errc)
	select {
	case <-closed:
	case <-time.After(5 * time.Second):
		t.Fatal("server never saw a normal close")
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	host := hostOf(srv)
	srv.Close()

	l := NewListener(Options{
		Host:           host,
		MaxRetries:     3,
		BaseRetryDelay: time.Millisecond,
		MaxRetryDelay:  5 * time.Millisecond,
	}, zap.NewNop(), nil)

	err := l.Run(context.Background())
	assert.ErrorIs(t, err, ErrRetriesExhausted)
}
