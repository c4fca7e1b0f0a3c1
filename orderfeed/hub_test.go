package orderfeed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"babumoshai/mq"
)

func TestHubRegisterBroadcastUnregister(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	client := &Client{UserID: "admin1", Send: make(chan []byte, 10)}
	require.True(t, hub.Register(ctx, client))

	hub.Forward(mq.Event{Type: mq.OrderCreated, OrderID: "o1", TotalPrice: 5350})

	select {
	case got := <-client.Send:
		var ev mq.Event
		require.NoError(t, json.Unmarshal(got, &ev))
		assert.Equal(t, "o1", ev.OrderID)
		assert.Equal(t, mq.OrderCreated, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}

	hub.Unregister(ctx, client)
	select {
	case _, ok := <-client.Send:
		assert.False(t, ok, "send channel should be closed")
	case <-time.After(time.Second):
		t.Fatal("client not closed after unregister")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	slow := &Client{Send: make(chan []byte, 1)}
	slow.Send <- []byte("unread")
	fast := &Client{Send: make(chan []byte, 1)}
	require.True(t, hub.Register(ctx, slow))
	require.True(t, hub.Register(ctx, fast))
	hub.Forward(mq.Event{Type: mq.OrderPaid})

	select {
	case <-fast.Send:
	case <-time.After(time.Second):
		t.Fatal("fast client got nothing")
	}
	// the hub finishes a broadcast before it handles the next unregister
	hub.Unregister(ctx, fast)

	assert.Equal(t, []byte("unread"), <-slow.Send)
	_, ok := <-slow.Send
	assert.False(t, ok, "slow client should have been dropped")

	// unregistering an already dropped client is harmless
	hub.Unregister(ctx, slow)
}

func TestHubStopClosesClients(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := &Client{Send: make(chan []byte, 1)}
	require.True(t, hub.Register(ctx, c))
	cancel()
	<-done

	_, ok := <-c.Send
	assert.False(t, ok)
	assert.False(t, hub.Register(ctx, &Client{Send: make(chan []byte)}))
}

func TestServeStreamsEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(zap.NewNop())
	go hub.Run(ctx)

	h := NewHandler(ctx, hub, func(*http.Request) bool { return true }, zap.NewNop())
	r := httprouter.New()
	r.GET("/feed", h.Serve)
	srv := httptest.NewServer(r)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/feed", nil)
	require.NoError(t, err)
	defer conn.Close()

	// registration happens after the upgrade; retry until the client is attached
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	got := make(chan mq.Event, 1)
	go func() {
		var ev mq.Event
		if err := conn.ReadJSON(&ev); err == nil {
			got <- ev
		}
	}()

	deadline := time.After(3 * time.Second)
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case ev := <-got:
			assert.Equal(t, "o42", ev.OrderID)
			return
		case <-tick.C:
			hub.Forward(mq.Event{Type: mq.OrderCreated, OrderID: "o42"})
		case <-deadline:
			t.Fatal("no event received")
		}
	}
}
