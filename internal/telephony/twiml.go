package telephony

import (
	"bytes"
	"encoding/xml"
)

// VoiceResponse is a minimal Twilio Markup Language response builder.
// It intentionally avoids any provider SDK dependency.
//
// Only the verbs needed at the adapter boundary are included.

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName  xml.Name `xml:"Say"`
	Voice    string   `xml:"voice,attr,omitempty"`
	Language string   `xml:"language,attr,omitempty"`
	Text     string   `xml:",chardata"`
}

type twimlPause struct {
	XMLName xml.Name `xml:"Pause"`
	Length  int      `xml:"length,attr,omitempty"`
}

type twimlGather struct {
	XMLName   xml.Name  `xml:"Gather"`
	Input     string    `xml:"input,attr,omitempty"`
	Timeout   int       `xml:"timeout,attr,omitempty"`
	NumDigits int       `xml:"numDigits,attr,omitempty"`
	Action    string    `xml:"action,attr,omitempty"`
	Method    string    `xml:"method,attr,omitempty"`
	Say       *twimlSay `xml:"Say,omitempty"`
}

type twimlRedirect struct {
	XMLName xml.Name `xml:"Redirect"`
	Method  string   `xml:"method,attr,omitempty"`
	URL     string   `xml:",chardata"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

// VoiceResponse accumulates verbs for one voice-control document. Voice and
// Language apply to every spoken verb.
type VoiceResponse struct {
	Voice    string
	Language string

	verbs []any
}

func NewVoiceResponse(voice, language string) *VoiceResponse {
	return &VoiceResponse{Voice: voice, Language: language}
}

// Say speaks text with the configured voice.
func (r *VoiceResponse) Say(text string) *VoiceResponse {
	r.verbs = append(r.verbs, twimlSay{Voice: r.Voice, Language: r.Language, Text: text})
	return r
}

// Pause waits the given number of seconds.
func (r *VoiceResponse) Pause(seconds int) *VoiceResponse {
	r.verbs = append(r.verbs, twimlPause{Length: seconds})
	return r
}

// GatherOptions configures a Gather verb collecting caller input.
type GatherOptions struct {
	// Input is the accepted input kinds, e.g. "dtmf speech".
	Input     string
	Timeout   int
	NumDigits int
	// Action is where the provider posts the captured input.
	Action string
	// Prompt is spoken inside the gather while waiting for input.
	Prompt string
}

// Gather collects digit or speech input from the caller.
func (r *VoiceResponse) Gather(opts GatherOptions) *VoiceResponse {
	g := twimlGather{
		Input:     opts.Input,
		Timeout:   opts.Timeout,
		NumDigits: opts.NumDigits,
		Action:    opts.Action,
		Method:    "POST",
	}
	if opts.Prompt != "" {
		g.Say = &twimlSay{Voice: r.Voice, Language: r.Language, Text: opts.Prompt}
	}
	r.verbs = append(r.verbs, g)
	return r
}

// Redirect transfers control to another voice endpoint. The provider follows
// it only if the preceding Gather produced no input.
func (r *VoiceResponse) Redirect(url string) *VoiceResponse {
	r.verbs = append(r.verbs, twimlRedirect{Method: "POST", URL: url})
	return r
}

// Hangup ends the call.
func (r *VoiceResponse) Hangup() *VoiceResponse {
	r.verbs = append(r.verbs, twimlHangup{})
	return r
}

// Render serializes the document.
func (r *VoiceResponse) Render() (string, error) {
	doc := twimlResponse{Verbs: r.verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
