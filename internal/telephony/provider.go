package telephony

import "context"

// Provider defines the provider-agnostic interface used by call orchestration.
//
// Rules:
// - No provider SDK or HTTP calls outside telephony adapters.
// - Keep request/response types provider-agnostic; correlation with internal
//   sessions happens via callback URLs, never via provider types.
type Provider interface {
	Name() string

	// PlaceCall asks the provider to dial an outbound call. VoiceURL and
	// StatusCallbackURL are where the provider will fetch voice
	// instructions and report lifecycle status for this call.
	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)

	// CompleteCall transitions a live call to completed (hangs it up).
	CompleteCall(ctx context.Context, providerCallID string) error
}

// PlaceCallRequest describes one outbound call placement.
type PlaceCallRequest struct {
	// To is the destination number, E.164 where possible.
	To string

	VoiceURL          string
	StatusCallbackURL string
}

// PlaceCallResult is the provider acknowledgment of an accepted call.
type PlaceCallResult struct {
	// ProviderCallID is the provider's unique identifier for this call.
	ProviderCallID string

	// Status is the provider-reported initial status, stored as-is.
	Status string
}
