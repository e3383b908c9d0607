package ws

import (
	"context"
	"encoding/json"
	"testing"

	"call-relay/internal/calls"
	"call-relay/internal/relay"
	"call-relay/internal/session"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *Registry) {
	t.Helper()
	registry := NewRegistry(nil)
	orch := calls.NewOrchestrator(session.NewStore(), nil, registry, "http://localhost:3000", calls.DefaultPrompts(), nil)
	return NewDispatcher(registry, orch, relay.NewService(nil, nil), nil), registry
}

func handleRaw(t *testing.T, d *Dispatcher, c *Client, raw string) {
	t.Helper()
	d.Handle(context.Background(), c, []byte(raw))
}

func TestDispatchEcho(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	r.Add(a)

	handleRaw(t, d, a, `{"type":"echo","data":"ping"}`)

	got := drain(t, a)
	if len(got) != 1 || got[0]["type"] != "echo_response" || got[0]["data"] != "ping" {
		t.Fatalf("unexpected echo response: %v", got)
	}
}

func TestDispatchBroadcastIncludesSender(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	b := newClient("b", nil)
	r.Add(a)
	r.Add(b)

	handleRaw(t, d, a, `{"type":"broadcast","data":"hello all"}`)

	for _, c := range []*Client{a, b} {
		got := drain(t, c)
		if len(got) != 1 || got[0]["type"] != "broadcast_message" {
			t.Fatalf("client %s: unexpected messages %v", c.ID(), got)
		}
		if got[0]["from"] != "a" || got[0]["data"] != "hello all" {
			t.Fatalf("client %s: unexpected payload %v", c.ID(), got[0])
		}
	}
}

func TestDispatchDirectMessage(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	b := newClient("b", nil)
	r.Add(a)
	r.Add(b)

	handleRaw(t, d, a, `{"type":"direct","targetId":"b","data":"psst"}`)

	if got := drain(t, a); len(got) != 0 {
		t.Fatalf("sender received %v", got)
	}
	got := drain(t, b)
	if len(got) != 1 || got[0]["type"] != "direct_message" || got[0]["from"] != "a" {
		t.Fatalf("unexpected direct delivery: %v", got)
	}
}

func TestDispatchDirectUnknownTarget(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	b := newClient("b", nil)
	r.Add(a)
	r.Add(b)

	handleRaw(t, d, a, `{"type":"direct","targetId":"ghost","data":"psst"}`)

	got := drain(t, a)
	if len(got) != 1 || got[0]["type"] != "error" {
		t.Fatalf("expected a single error for the sender, got %v", got)
	}
	if got := drain(t, b); len(got) != 0 {
		t.Fatalf("bystander received %v", got)
	}
}

func TestDispatchMalformedJSON(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	b := newClient("b", nil)
	r.Add(a)
	r.Add(b)

	handleRaw(t, d, a, `{not json`)

	got := drain(t, a)
	if len(got) != 1 || got[0]["type"] != "error" {
		t.Fatalf("expected error reply, got %v", got)
	}
	if got := drain(t, b); len(got) != 0 {
		t.Fatalf("bystander received %v", got)
	}
	// Protocol errors never evict the connection.
	if _, ok := r.Get("a"); !ok {
		t.Fatalf("offending client was removed from registry")
	}
}

func TestDispatchUnknownType(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	r.Add(a)

	handleRaw(t, d, a, `{"type":"teleport"}`)

	got := drain(t, a)
	if len(got) != 1 || got[0]["type"] != "error" {
		t.Fatalf("expected error reply, got %v", got)
	}
}

func TestDispatchOpenAIRequiresPrompt(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	r.Add(a)

	handleRaw(t, d, a, `{"type":"openai"}`)

	got := drain(t, a)
	if len(got) != 1 || got[0]["type"] != "error" {
		t.Fatalf("expected error reply, got %v", got)
	}
}

func TestDispatchInitiateCallWithoutProvider(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	b := newClient("b", nil)
	r.Add(a)
	r.Add(b)

	handleRaw(t, d, a, `{"type":"initiate_call","to":"+33612345678"}`)

	got := drain(t, a)
	if len(got) != 1 || got[0]["type"] != "error" {
		t.Fatalf("expected initiation error for the requester, got %v", got)
	}
	if got := drain(t, b); len(got) != 0 {
		t.Fatalf("bystander received %v", got)
	}
}

func TestDispatchGetActiveCalls(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	r.Add(a)

	handleRaw(t, d, a, `{"type":"get_active_calls"}`)

	got := drain(t, a)
	if len(got) != 1 || got[0]["type"] != "active_calls_list" {
		t.Fatalf("unexpected reply: %v", got)
	}
	if _, ok := got[0]["calls"]; !ok {
		t.Fatalf("missing calls field: %v", got[0])
	}
}

func TestDispatchEndCallRequiresSessionID(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	r.Add(a)

	handleRaw(t, d, a, `{"type":"end_call"}`)

	got := drain(t, a)
	if len(got) != 1 || got[0]["type"] != "error" {
		t.Fatalf("expected error reply, got %v", got)
	}
}

func TestDispatchEndCallUnknownSession(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	r.Add(a)

	handleRaw(t, d, a, `{"type":"end_call","sessionId":"nope"}`)

	got := drain(t, a)
	if len(got) != 1 || got[0]["type"] != "error" {
		t.Fatalf("expected error reply, got %v", got)
	}
}

func TestDispatchEchoPreservesStructuredData(t *testing.T) {
	d, r := newTestDispatcher(t)
	a := newClient("a", nil)
	r.Add(a)

	handleRaw(t, d, a, `{"type":"echo","data":{"n":1,"nested":["x"]}}`)

	raw := <-a.SendChan()
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("invalid reply: %v", err)
	}
	if string(m["data"]) != `{"n":1,"nested":["x"]}` {
		t.Fatalf("data not preserved verbatim: %s", m["data"])
	}
}
