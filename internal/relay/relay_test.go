package relay

import (
	"context"
	"errors"
	"testing"
)

type fakeStream struct {
	fragments []string
	failAfter int // emit error after this many fragments; -1 disables
	pos       int
	closed    bool
}

func (f *fakeStream) Next() bool {
	if f.failAfter >= 0 && f.pos >= f.failAfter {
		return false
	}
	if f.pos >= len(f.fragments) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeStream) Current() string { return f.fragments[f.pos-1] }

func (f *fakeStream) Err() error {
	if f.failAfter >= 0 && f.pos >= f.failAfter {
		return errors.New("upstream reset")
	}
	return nil
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

type fakeStreamer struct {
	stream  *fakeStream
	openErr error
	prompt  string
}

func (f *fakeStreamer) Stream(_ context.Context, prompt string) (Stream, error) {
	f.prompt = prompt
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.stream, nil
}

func collect(s *Service, prompt string) []map[string]any {
	var got []map[string]any
	s.Run(context.Background(), prompt, func(msg map[string]any) {
		got = append(got, msg)
	})
	return got
}

func TestRunStreamsFragmentsInOrder(t *testing.T) {
	st := &fakeStream{fragments: []string{"Hi", " there"}, failAfter: -1}
	streamer := &fakeStreamer{stream: st}
	got := collect(NewService(streamer, nil), "hello")

	want := []struct {
		typ     string
		content string
	}{
		{"openai_request_started", ""},
		{"openai_stream", "Hi"},
		{"openai_stream", " there"},
		{"openai_request_completed", ""},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d messages, got %v", len(want), got)
	}
	for i, w := range want {
		if got[i]["type"] != w.typ {
			t.Fatalf("message %d: expected type %q, got %v", i, w.typ, got[i])
		}
		if w.content != "" && got[i]["content"] != w.content {
			t.Fatalf("message %d: expected content %q, got %v", i, w.content, got[i])
		}
	}
	if streamer.prompt != "hello" {
		t.Fatalf("expected prompt forwarded, got %q", streamer.prompt)
	}
	if !st.closed {
		t.Fatalf("expected stream closed")
	}
}

func TestRunMidStreamFailure(t *testing.T) {
	st := &fakeStream{fragments: []string{"Hi", " there"}, failAfter: 1}
	got := collect(NewService(&fakeStreamer{stream: st}, nil), "hello")

	// Delivered fragments are not retracted; a single error ends the relay.
	if len(got) != 3 {
		t.Fatalf("expected started, one fragment, one error; got %v", got)
	}
	if got[1]["type"] != "openai_stream" || got[1]["content"] != "Hi" {
		t.Fatalf("unexpected fragment message: %v", got[1])
	}
	if got[2]["type"] != "error" {
		t.Fatalf("expected error message, got %v", got[2])
	}
	for _, m := range got {
		if m["type"] == "openai_request_completed" {
			t.Fatalf("failed relay must not complete: %v", got)
		}
	}
}

func TestRunOpenFailure(t *testing.T) {
	got := collect(NewService(&fakeStreamer{openErr: errors.New("401 unauthorized")}, nil), "hello")

	if len(got) != 2 {
		t.Fatalf("expected started then error, got %v", got)
	}
	if got[0]["type"] != "openai_request_started" || got[1]["type"] != "error" {
		t.Fatalf("unexpected sequence: %v", got)
	}
}

func TestRunWithoutStreamer(t *testing.T) {
	got := collect(NewService(nil, nil), "hello")

	if len(got) != 1 || got[0]["type"] != "error" {
		t.Fatalf("expected a single error for missing configuration, got %v", got)
	}
}
