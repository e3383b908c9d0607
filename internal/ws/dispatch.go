package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"call-relay/internal/calls"
	"call-relay/internal/notify"
	"call-relay/internal/relay"
)

// clientMessage is the envelope clients send over the socket. Unknown fields
// are ignored; type selects the operation and the rest are per-type inputs.
type clientMessage struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	TargetID   string          `json:"targetId,omitempty"`
	Prompt     string          `json:"prompt,omitempty"`
	To         string          `json:"to,omitempty"`
	CampaignID string          `json:"campaignId,omitempty"`
	AgentID    string          `json:"agentId,omitempty"`
	Script     string          `json:"script,omitempty"`
	SessionID  string          `json:"sessionId,omitempty"`
}

// Dispatcher routes inbound client messages to the matching operation.
// Protocol errors go back to the offending connection only and never tear
// the connection down.
type Dispatcher struct {
	registry *Registry
	orch     *calls.Orchestrator
	relay    *relay.Service
	log      *slog.Logger
}

func NewDispatcher(registry *Registry, orch *calls.Orchestrator, relaySvc *relay.Service, log *slog.Logger) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		orch:     orch,
		relay:    relaySvc,
		log:      log,
	}
}

// Handle processes one inbound frame. Messages from the same connection are
// handled in arrival order; the completion relay runs in its own goroutine so
// a long generation does not stall the connection's read loop.
func (d *Dispatcher) Handle(ctx context.Context, c *Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		d.sendError(c, "invalid message, JSON expected")
		return
	}

	switch msg.Type {
	case "echo":
		d.reply(c, map[string]any{"type": "echo_response", "data": msg.Data})

	case "broadcast":
		d.registry.Broadcast(notify.New("broadcast_message", "", map[string]any{
			"from": c.ID(),
			"data": msg.Data,
		}))

	case "direct":
		err := d.registry.Unicast(msg.TargetID, notify.New("direct_message", "", map[string]any{
			"from": c.ID(),
			"data": msg.Data,
		}))
		if err != nil {
			d.sendError(c, "target client not found")
		}

	case "openai":
		if msg.Prompt == "" {
			d.sendError(c, "prompt is required for openai requests")
			return
		}
		go d.relay.Run(ctx, msg.Prompt, func(m map[string]any) {
			d.reply(c, m)
		})

	case "initiate_call":
		_, err := d.orch.Initiate(ctx, calls.InitiateRequest{
			To:          msg.To,
			CampaignID:  msg.CampaignID,
			AgentID:     msg.AgentID,
			Script:      msg.Script,
			RequesterID: c.ID(),
		})
		if err != nil {
			d.sendError(c, "call initiation failed: "+err.Error())
		}

	case "get_active_calls":
		d.reply(c, map[string]any{"type": "active_calls_list", "calls": d.orch.ActiveCalls()})

	case "end_call":
		if msg.SessionID == "" {
			d.sendError(c, "sessionId is required to end a call")
			return
		}
		if err := d.orch.EndCall(ctx, msg.SessionID, c.ID()); err != nil {
			d.sendError(c, "call termination failed: "+err.Error())
			return
		}
		d.reply(c, map[string]any{"type": "call_end_success", "sessionId": msg.SessionID})

	default:
		d.sendError(c, "unrecognized message type")
	}
}

func (d *Dispatcher) reply(c *Client, m map[string]any) {
	if _, ok := m["timestamp"]; !ok {
		m["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	}
	data, err := json.Marshal(m)
	if err != nil {
		d.log.Error("reply marshal failed", "err", err)
		return
	}
	c.Send(data)
}

func (d *Dispatcher) sendError(c *Client, message string) {
	d.reply(c, map[string]any{"type": "error", "message": message})
}
