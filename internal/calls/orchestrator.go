package calls

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"call-relay/internal/notify"
	"call-relay/internal/session"
	"call-relay/internal/telephony"
)

// Orchestrator is the call lifecycle state machine. It receives lifecycle
// events from the webhook boundary and from client requests, validates
// transitions, mutates session records, decides the next voice action, and
// broadcasts every transition to connected observers.
//
// Invariants:
// - Every transition appends an event to the session trail and broadcasts.
// - Provider failures leave the session in its last-known-good state; the
//   error goes back to the immediate caller only, never to observers.
// - A webhook for an unknown session never creates one, and voice handlers
//   always return a well-formed voice document regardless of branch.
// - Provider calls (PlaceCall, CompleteCall) are suspension points: session
//   state is re-applied through the store afterwards, never from snapshots
//   taken before the call.
type Orchestrator struct {
	store       *session.Store
	provider    telephony.Provider // nil when unconfigured
	broadcaster notify.Broadcaster
	publicURL   string
	prompts     Prompts
	log         *slog.Logger

	// now is injectable for deterministic tests.
	now func() time.Time
}

func NewOrchestrator(store *session.Store, provider telephony.Provider, broadcaster notify.Broadcaster, publicURL string, prompts Prompts, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		store:       store,
		provider:    provider,
		broadcaster: broadcaster,
		publicURL:   strings.TrimRight(publicURL, "/"),
		prompts:     prompts,
		log:         log,
		now:         time.Now,
	}
}

// InitiateRequest describes one outbound call request from REST or WebSocket.
type InitiateRequest struct {
	To         string
	CampaignID string
	AgentID    string
	Script     string

	// RequesterID is the initiating connection's identifier, used as the
	// default agent id. Empty for REST callers.
	RequesterID string
}

type InitiateResult struct {
	SessionID      string
	ProviderCallID string
}

// Initiate creates a session, announces it, and places the call. On provider
// rejection the session stays in initiating with no provider call id and the
// error is returned to the caller only.
func (o *Orchestrator) Initiate(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	if strings.TrimSpace(req.To) == "" {
		return InitiateResult{}, ErrNumberRequired
	}
	if o.provider == nil {
		return InitiateResult{}, ErrProviderNotConfigured
	}

	campaignID := req.CampaignID
	if campaignID == "" {
		campaignID = "default"
	}
	agentID := req.AgentID
	if agentID == "" {
		agentID = req.RequesterID
	}
	script := req.Script
	if script == "" {
		script = o.prompts.DefaultScript
	}

	sess, err := o.store.Create(session.CreateParams{
		To:         req.To,
		CampaignID: campaignID,
		AgentID:    agentID,
		Script:     script,
	})
	if err != nil {
		return InitiateResult{}, fmt.Errorf("create session: %w", err)
	}

	o.broadcaster.Broadcast(notify.New("call_initiating", sess.ID, map[string]any{
		"to":         sess.To,
		"campaignId": sess.CampaignID,
		"agentId":    sess.AgentID,
		"script":     sess.Script,
	}))

	res, err := o.provider.PlaceCall(ctx, telephony.PlaceCallRequest{
		To:                sess.To,
		VoiceURL:          o.webhookURL("twiml", sess.ID),
		StatusCallbackURL: o.webhookURL("status-callback", sess.ID),
	})
	if err != nil {
		o.log.Error("call placement failed", "session_id", sess.ID, "to", sess.To, "err", err)
		return InitiateResult{}, fmt.Errorf("place call: %w", err)
	}

	// The placement await may have interleaved with other handlers; apply
	// the acceptance through the store, not the pre-call snapshot.
	if err := o.store.Update(sess.ID, func(c *session.CallSession) {
		c.ProviderCallID = res.ProviderCallID
		c.Status = session.StatusInitiated
		c.Events = append(c.Events, session.Event{
			Type:           "call_initiated",
			ProviderCallID: res.ProviderCallID,
			Timestamp:      o.now().UTC(),
		})
	}); err != nil {
		return InitiateResult{}, fmt.Errorf("record acceptance: %w", err)
	}

	o.broadcaster.Broadcast(notify.New("call_initiated", sess.ID, map[string]any{
		"providerCallId": res.ProviderCallID,
	}))

	o.log.Info("call initiated", "session_id", sess.ID, "provider_call_id", res.ProviderCallID, "campaign_id", sess.CampaignID)
	return InitiateResult{SessionID: sess.ID, ProviderCallID: res.ProviderCallID}, nil
}

// HandleStatusCallback records a provider-reported status transition.
// An unknown session is a no-op and returns session.ErrNotFound; the webhook
// boundary still acknowledges the provider so it does not retry.
func (o *Orchestrator) HandleStatusCallback(sessionID, providerCallID, status string) error {
	err := o.store.Update(sessionID, func(c *session.CallSession) {
		c.Status = session.CallStatus(status)
		c.Events = append(c.Events, session.Event{
			Type:      "status_callback",
			Status:    status,
			Timestamp: o.now().UTC(),
		})
	})
	if err != nil {
		o.log.Debug("status callback for unknown session", "session_id", sessionID, "status", status)
		return err
	}

	o.broadcaster.Broadcast(notify.New("call_status_update", sessionID, map[string]any{
		"callSid": providerCallID,
		"status":  status,
	}))
	return nil
}

// VoiceInstructions produces the next voice action for a call. Every
// invocation broadcasts a status update; the session trail is appended only
// when the session exists. The returned document is always well-formed.
func (o *Orchestrator) VoiceInstructions(sessionID, providerCallID, status string) *telephony.VoiceResponse {
	o.broadcaster.Broadcast(notify.New("call_status_update", sessionID, map[string]any{
		"callSid": providerCallID,
		"status":  status,
	}))

	vr := telephony.NewVoiceResponse(o.prompts.Voice, o.prompts.Language)

	sess, err := o.store.Get(sessionID)
	if err != nil {
		return vr.Say(o.prompts.InvalidCall).Hangup()
	}

	_ = o.store.Update(sessionID, func(c *session.CallSession) {
		c.Status = session.CallStatus(status)
		c.Events = append(c.Events, session.Event{
			Type:      "call_status_update",
			Status:    status,
			Timestamp: o.now().UTC(),
		})
	})

	if session.CallStatus(status) != session.StatusInProgress {
		return vr.Hangup()
	}

	script := sess.Script
	if script == "" {
		script = o.prompts.DefaultScript
	}
	vr.Say(script)
	vr.Pause(1)
	vr.Gather(telephony.GatherOptions{
		Input:     "dtmf speech",
		Timeout:   5,
		NumDigits: 1,
		Action:    "/api/twilio/gather?sessionId=" + sessionID,
		Prompt:    o.prompts.GatherPrompt,
	})
	// Followed only when the gather itself times out at the provider.
	vr.Redirect("/api/twilio/no-input?sessionId=" + sessionID)
	return vr
}

// HandleUserInput classifies captured digits/speech, records the disposition,
// and closes the call voice-side.
func (o *Orchestrator) HandleUserInput(sessionID, providerCallID, digits, speech string) *telephony.VoiceResponse {
	vr := telephony.NewVoiceResponse(o.prompts.Voice, o.prompts.Language)

	if _, err := o.store.Get(sessionID); err != nil {
		return vr.Say(o.prompts.InvalidCall).Hangup()
	}

	_ = o.store.AppendEvent(sessionID, session.Event{
		Type:         "user_input",
		Digits:       digits,
		SpeechResult: speech,
		Timestamp:    o.now().UTC(),
	})
	o.broadcaster.Broadcast(notify.New("call_user_input", sessionID, map[string]any{
		"callSid":      providerCallID,
		"digits":       digits,
		"speechResult": speech,
	}))

	switch o.classify(digits, speech) {
	case dispositionInterested:
		vr.Say(o.prompts.InterestedClosing)
		_ = o.store.Update(sessionID, func(c *session.CallSession) {
			c.LeadStatus = session.LeadInterested
			c.Events = append(c.Events, session.Event{Type: "lead_qualified", Timestamp: o.now().UTC()})
		})
		o.broadcaster.Broadcast(notify.New("lead_qualified", sessionID, map[string]any{
			"callSid": providerCallID,
		}))

	case dispositionOptOut:
		vr.Say(o.prompts.OptOutClosing)
		_ = o.store.Update(sessionID, func(c *session.CallSession) {
			c.LeadStatus = session.LeadOptOut
			c.Events = append(c.Events, session.Event{Type: "opt_out", Timestamp: o.now().UTC()})
		})
		o.broadcaster.Broadcast(notify.New("opt_out", sessionID, map[string]any{
			"callSid": providerCallID,
		}))

	default:
		vr.Say(o.prompts.UnrecognizedClosing)
		_ = o.store.AppendEvent(sessionID, session.Event{Type: "unrecognized_response", Timestamp: o.now().UTC()})
	}

	return vr.Hangup()
}

// HandleNoInput records a gather timeout and closes the call.
func (o *Orchestrator) HandleNoInput(sessionID, providerCallID string) *telephony.VoiceResponse {
	if _, err := o.store.Get(sessionID); err == nil {
		_ = o.store.AppendEvent(sessionID, session.Event{Type: "no_input", Timestamp: o.now().UTC()})
		o.broadcaster.Broadcast(notify.New("no_input", sessionID, map[string]any{
			"callSid": providerCallID,
		}))
	}

	vr := telephony.NewVoiceResponse(o.prompts.Voice, o.prompts.Language)
	return vr.Say(o.prompts.NoInputClosing).Hangup()
}

// EndCall terminates a live call at the requester's demand. The completion
// broadcast excludes the requester, who gets a direct success response
// instead. Provider failure leaves the session untouched.
func (o *Orchestrator) EndCall(ctx context.Context, sessionID, requesterID string) error {
	sess, err := o.store.Get(sessionID)
	if err != nil {
		return err
	}
	if o.provider == nil {
		return ErrProviderNotConfigured
	}
	if sess.ProviderCallID == "" {
		return ErrNoProviderCall
	}

	if err := o.provider.CompleteCall(ctx, sess.ProviderCallID); err != nil {
		o.log.Error("call termination failed", "session_id", sessionID, "provider_call_id", sess.ProviderCallID, "err", err)
		return fmt.Errorf("complete call: %w", err)
	}

	_ = o.store.Update(sessionID, func(c *session.CallSession) {
		c.Status = session.StatusCompletedByUser
		c.Events = append(c.Events, session.Event{Type: "call_ended_by_user", Timestamp: o.now().UTC()})
	})

	o.broadcaster.BroadcastExcept(notify.New("call_ended", sessionID, map[string]any{
		"reason": "user_terminated",
	}), requesterID)

	o.log.Info("call ended by user", "session_id", sessionID)
	return nil
}

// ActiveCalls enumerates session summaries for observers.
func (o *Orchestrator) ActiveCalls() map[string]session.Summary {
	return o.store.Summaries()
}

type disposition int

const (
	dispositionUnrecognized disposition = iota
	dispositionInterested
	dispositionOptOut
)

func (o *Orchestrator) classify(digits, speech string) disposition {
	lower := strings.ToLower(speech)
	switch {
	case digits == "1" || (o.prompts.AffirmativeKeyword != "" && strings.Contains(lower, strings.ToLower(o.prompts.AffirmativeKeyword))):
		return dispositionInterested
	case digits == "2" || (o.prompts.OptOutKeyword != "" && strings.Contains(lower, strings.ToLower(o.prompts.OptOutKeyword))):
		return dispositionOptOut
	default:
		return dispositionUnrecognized
	}
}

func (o *Orchestrator) webhookURL(endpoint, sessionID string) string {
	return fmt.Sprintf("%s/api/twilio/%s?sessionId=%s", o.publicURL, endpoint, sessionID)
}
