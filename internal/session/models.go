package session

import "time"

// CallSession tracks one logical outbound voice-call attempt end-to-end.
//
// Invariants:
// - ID is unique for the store's lifetime and immutable after creation.
// - Events is append-only; it is the canonical ordered history behind the
//   derived Status and LeadStatus fields.
// - ProviderCallID is empty until the provider accepts the call; a callback
//   referencing an unknown session never creates one.
type CallSession struct {
	ID         string `json:"sessionId"`
	To         string `json:"to"`
	CampaignID string `json:"campaignId,omitempty"`
	AgentID    string `json:"agentId,omitempty"`
	Script     string `json:"script,omitempty"`

	// ProviderCallID is assigned by the telephony provider once the call
	// is accepted (Twilio: CallSid).
	ProviderCallID string `json:"providerCallId,omitempty"`

	Status     CallStatus `json:"status"`
	LeadStatus LeadStatus `json:"leadStatus,omitempty"`

	Events []Event `json:"events"`

	StartTime time.Time `json:"startTime"`
}

// CallStatus is an open vocabulary: providers report raw strings that are
// stored as-is alongside the internally assigned values below.
type CallStatus string

const (
	StatusInitiating      CallStatus = "initiating"
	StatusInitiated       CallStatus = "initiated"
	StatusRinging         CallStatus = "ringing"
	StatusInProgress      CallStatus = "in-progress"
	StatusCompleted       CallStatus = "completed"
	StatusCompletedByUser CallStatus = "completed_by_user"
	StatusFailed          CallStatus = "failed"
	StatusNoAnswer        CallStatus = "no-answer"
	StatusBusy            CallStatus = "busy"
)

// LeadStatus is the disposition outcome derived from user input.
type LeadStatus string

const (
	LeadInterested LeadStatus = "interested"
	LeadOptOut     LeadStatus = "opt-out"
)

// Event is one immutable record in a session's audit trail.
// Fields beyond Type are optional and depend on the event type.
type Event struct {
	Type string `json:"type"`

	Status         string `json:"status,omitempty"`
	Digits         string `json:"digits,omitempty"`
	SpeechResult   string `json:"speechResult,omitempty"`
	ProviderCallID string `json:"providerCallId,omitempty"`

	Timestamp time.Time `json:"timestamp"`
}

// Summary is the bulk-enumeration view of a session. It intentionally
// excludes the Events trail.
type Summary struct {
	To         string     `json:"to"`
	Status     CallStatus `json:"status"`
	StartTime  time.Time  `json:"startTime"`
	CampaignID string     `json:"campaignId,omitempty"`
	LeadStatus LeadStatus `json:"leadStatus,omitempty"`
}
