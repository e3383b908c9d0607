package calls

import "errors"

var (
	// ErrProviderNotConfigured is returned when call placement or
	// termination is requested without telephony credentials.
	ErrProviderNotConfigured = errors.New("telephony provider not configured")

	// ErrNumberRequired is returned when an initiate request has no
	// destination number.
	ErrNumberRequired = errors.New("destination number required")

	// ErrNoProviderCall is returned when ending a call the provider has
	// not accepted yet.
	ErrNoProviderCall = errors.New("call has no provider call id")
)
