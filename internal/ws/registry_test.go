package ws

import (
	"encoding/json"
	"errors"
	"testing"

	"call-relay/internal/notify"
)

func drain(t *testing.T, c *Client) []map[string]any {
	t.Helper()
	var got []map[string]any
	for {
		select {
		case data := <-c.SendChan():
			var m map[string]any
			if err := json.Unmarshal(data, &m); err != nil {
				t.Fatalf("invalid message on wire: %v", err)
			}
			got = append(got, m)
		default:
			return got
		}
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	r := NewRegistry(nil)
	a := newClient("a", nil)
	b := newClient("b", nil)
	r.Add(a)
	r.Add(b)

	r.Broadcast(notify.New("call_status_update", "s1", map[string]any{"status": "ringing"}))

	for _, c := range []*Client{a, b} {
		got := drain(t, c)
		if len(got) != 1 {
			t.Fatalf("client %s: expected 1 message, got %d", c.ID(), len(got))
		}
		if got[0]["type"] != "call_status_update" || got[0]["sessionId"] != "s1" {
			t.Fatalf("client %s: unexpected message %v", c.ID(), got[0])
		}
		if got[0]["timestamp"] == nil {
			t.Fatalf("client %s: missing timestamp", c.ID())
		}
	}
}

func TestBroadcastExceptSkipsOneClient(t *testing.T) {
	r := NewRegistry(nil)
	a := newClient("a", nil)
	b := newClient("b", nil)
	r.Add(a)
	r.Add(b)

	r.BroadcastExcept(notify.New("call_ended", "s1", map[string]any{"reason": "user_terminated"}), "a")

	if got := drain(t, a); len(got) != 0 {
		t.Fatalf("excluded client received %v", got)
	}
	if got := drain(t, b); len(got) != 1 {
		t.Fatalf("expected 1 message for b, got %d", len(got))
	}
}

func TestBroadcastSkipsClosedClients(t *testing.T) {
	r := NewRegistry(nil)
	a := newClient("a", nil)
	b := newClient("b", nil)
	r.Add(a)
	r.Add(b)
	b.Close()

	r.Broadcast(notify.New("client_connected", "", map[string]any{"id": "c"}))

	if got := drain(t, a); len(got) != 1 {
		t.Fatalf("expected 1 message for a, got %d", len(got))
	}
}

func TestUnicastUnknownTarget(t *testing.T) {
	r := NewRegistry(nil)
	r.Add(newClient("a", nil))

	err := r.Unicast("ghost", notify.New("direct_message", "", nil))
	if !errors.Is(err, notify.ErrConnectionNotFound) {
		t.Fatalf("expected ErrConnectionNotFound, got %v", err)
	}
}

func TestUnicastDelivers(t *testing.T) {
	r := NewRegistry(nil)
	a := newClient("a", nil)
	r.Add(a)

	if err := r.Unicast("a", notify.New("direct_message", "", map[string]any{"from": "b", "data": "hi"})); err != nil {
		t.Fatalf("unicast failed: %v", err)
	}
	got := drain(t, a)
	if len(got) != 1 || got[0]["from"] != "b" {
		t.Fatalf("unexpected delivery: %v", got)
	}
}

func TestSendOnFullBufferClosesClient(t *testing.T) {
	c := newClient("a", nil)
	for i := 0; i < sendBufferSize; i++ {
		c.Send([]byte("x"))
	}
	if c.IsClosed() {
		t.Fatalf("client closed before buffer overflow")
	}
	c.Send([]byte("overflow"))
	if !c.IsClosed() {
		t.Fatalf("expected overflowing client to be closed")
	}
}

func TestRemoveStopsDelivery(t *testing.T) {
	r := NewRegistry(nil)
	a := newClient("a", nil)
	r.Add(a)
	r.Remove("a")

	r.Broadcast(notify.New("broadcast_message", "", map[string]any{"data": "x"}))
	if got := drain(t, a); len(got) != 0 {
		t.Fatalf("removed client received %v", got)
	}
	if r.Count() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Count())
	}
}
