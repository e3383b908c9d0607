// Package relay streams text-generation output to a single connection.
package relay

import (
	"context"
	"fmt"
	"log/slog"
)

// Stream is a cancellable sequence of content fragments from the upstream
// completion. The shape mirrors the SSE stream iterators of the OpenAI SDK
// so tests can substitute a fake upstream.
type Stream interface {
	Next() bool
	Current() string
	Err() error
	Close() error
}

// Streamer opens one streaming completion request.
type Streamer interface {
	Stream(ctx context.Context, prompt string) (Stream, error)
}

// Service relays one prompt's streaming completion to a connection. Fragments
// are forwarded verbatim in arrival order; any failure produces a single
// error message and stops the relay without retracting delivered fragments.
type Service struct {
	streamer Streamer // nil when the API key is absent
	log      *slog.Logger
}

func NewService(streamer Streamer, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{streamer: streamer, log: log}
}

// Run executes one relay. send delivers messages to the requesting
// connection only; concurrent relays for other connections are independent.
func (s *Service) Run(ctx context.Context, prompt string, send func(msg map[string]any)) {
	if s.streamer == nil {
		send(map[string]any{"type": "error", "message": "OpenAI API key not configured on the server"})
		return
	}

	send(map[string]any{"type": "openai_request_started"})

	stream, err := s.streamer.Stream(ctx, prompt)
	if err != nil {
		s.log.Error("completion request failed", "err", err)
		send(map[string]any{"type": "error", "message": fmt.Sprintf("OpenAI request failed: %v", err)})
		return
	}
	defer stream.Close()

	for stream.Next() {
		send(map[string]any{"type": "openai_stream", "content": stream.Current()})
	}
	if err := stream.Err(); err != nil {
		s.log.Error("completion stream failed", "err", err)
		send(map[string]any{"type": "error", "message": fmt.Sprintf("OpenAI request failed: %v", err)})
		return
	}

	send(map[string]any{"type": "openai_request_completed"})
}
