package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"call-relay/internal/notify"
)

// Registry holds live connections keyed by connection id and implements
// notify.Broadcaster for the rest of the system.
//
// Fan-out serializes an event once and skips closed connections silently;
// only unicast reports an unknown target. The registry and the session store
// are independently consistent: a connection may disconnect mid-broadcast,
// the only guarantee is that removed connections get no delivery attempt.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Client

	log *slog.Logger
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		conns: make(map[string]*Client),
		log:   log,
	}
}

func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = c
}

func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Broadcast delivers the event to every open connection.
func (r *Registry) Broadcast(e notify.Event) {
	r.BroadcastExcept(e, "")
}

// BroadcastExcept delivers the event to every open connection but one.
func (r *Registry) BroadcastExcept(e notify.Event, excludeID string) {
	data, err := json.Marshal(e)
	if err != nil {
		r.log.Error("event marshal failed", "type", e.Type, "err", err)
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.conns {
		if id == excludeID || c.IsClosed() {
			continue
		}
		c.Send(data)
	}
}

// Unicast delivers the event to exactly one connection.
func (r *Registry) Unicast(connID string, e notify.Event) error {
	c, ok := r.Get(connID)
	if !ok || c.IsClosed() {
		return notify.ErrConnectionNotFound
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	c.Send(data)
	return nil
}
