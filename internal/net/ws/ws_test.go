package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func startRelay(t *testing.T) (*Hub, string) {
	t.Helper()
	hub := NewHub(nil)
	handler := NewHandler(hub, HandlerConfig{})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

type collector struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (c *collector) receive(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, append([]byte(nil), payload...))
}

func (c *collector) snapshot() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.payloads...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestRelayFansOutToOtherClientsOnly(t *testing.T) {
	hub, url := startRelay(t)
	ctx := context.Background()

	var got1, got2, got3 collector
	c1, err := Dial(ctx, ClientConfig{URL: url + "?id=user-1&channel=actor-1", OnMessage: got1.receive})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c1.Close()
	c2, err := Dial(ctx, ClientConfig{URL: url + "?id=user-2&channel=actor-1", OnMessage: got2.receive})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c2.Close()
	c3, err := Dial(ctx, ClientConfig{URL: url + "?id=user-3&channel=actor-9", OnMessage: got3.receive})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c3.Close()

	waitFor(t, func() bool {
		return hub.ClientCount("actor-1") == 2 && hub.ClientCount("actor-9") == 1
	})

	if err := c1.Send([]byte(`{"type":"batch"}`)); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	waitFor(t, func() bool { return len(got2.snapshot()) == 1 })
	if string(got2.snapshot()[0]) != `{"type":"batch"}` {
		t.Fatalf("unexpected payload %q", got2.snapshot()[0])
	}
	if len(got1.snapshot()) != 0 {
		t.Fatalf("sender must not receive its own message")
	}
	if len(got3.snapshot()) != 0 {
		t.Fatalf("other channels must not receive the message")
	}
}

func TestRelayDropsDisconnectedClients(t *testing.T) {
	hub, url := startRelay(t)
	ctx := context.Background()

	c1, err := Dial(ctx, ClientConfig{URL: url + "?id=user-1&channel=actor-1"})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	c2, err := Dial(ctx, ClientConfig{URL: url + "?id=user-2&channel=actor-1"})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer c2.Close()

	waitFor(t, func() bool { return hub.ClientCount("actor-1") == 2 })
	c1.Close()
	waitFor(t, func() bool { return hub.ClientCount("actor-1") == 1 })

	// Relaying after the drop must not panic or resurrect the client.
	if err := c2.Send([]byte(`{"type":"batch"}`)); err != nil {
		t.Fatalf("send failed: %v", err)
	}
	waitFor(t, func() bool { return hub.ClientCount("actor-1") == 1 })
}

func TestHandlerRejectsMissingID(t *testing.T) {
	_, url := startRelay(t)
	if _, err := Dial(context.Background(), ClientConfig{URL: url + "?channel=actor-1"}); err == nil {
		t.Fatalf("expected the dial rejected without an id")
	}
}

func TestSubscribeReplacesExistingConnection(t *testing.T) {
	hub, url := startRelay(t)
	ctx := context.Background()

	var gotOld, gotNew collector
	old, err := Dial(ctx, ClientConfig{URL: url + "?id=user-1&channel=actor-1", OnMessage: gotOld.receive})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer old.Close()
	replacement, err := Dial(ctx, ClientConfig{URL: url + "?id=user-1&channel=actor-1", OnMessage: gotNew.receive})
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer replacement.Close()

	waitFor(t, func() bool {
		select {
		case <-old.Done():
			return true
		default:
			return false
		}
	})
	if hub.ClientCount("actor-1") != 1 {
		t.Fatalf("expected the replacement to take over the id, count %d", hub.ClientCount("actor-1"))
	}
}
