package telephony

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const twilioAPIBase = "https://api.twilio.com"

// statusCallbackEvents are the lifecycle events Twilio reports to the
// status-callback URL for calls placed by this service.
var statusCallbackEvents = []string{"initiated", "ringing", "answered", "completed"}

// Twilio places and updates calls through the Twilio REST API.
// It deliberately avoids the vendor SDK; the surface used here is two
// form-encoded endpoints.
type Twilio struct {
	accountSID string
	authToken  string
	fromNumber string

	baseURL string
	client  *http.Client
}

// TwilioOption customizes the adapter; used by tests to point at a fake API.
type TwilioOption func(*Twilio)

func WithBaseURL(u string) TwilioOption {
	return func(t *Twilio) { t.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(c *http.Client) TwilioOption {
	return func(t *Twilio) { t.client = c }
}

func NewTwilio(accountSID, authToken, fromNumber string, opts ...TwilioOption) *Twilio {
	t := &Twilio{
		accountSID: accountSID,
		authToken:  authToken,
		fromNumber: fromNumber,
		baseURL:    twilioAPIBase,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Twilio) Name() string { return "twilio" }

type twilioCallResource struct {
	Sid    string `json:"sid"`
	Status string `json:"status"`
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (t *Twilio) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	form := url.Values{}
	form.Set("To", req.To)
	form.Set("From", t.fromNumber)
	form.Set("Url", req.VoiceURL)
	form.Set("Method", http.MethodPost)
	form.Set("StatusCallback", req.StatusCallbackURL)
	form.Set("StatusCallbackMethod", http.MethodPost)
	for _, ev := range statusCallbackEvents {
		form.Add("StatusCallbackEvent", ev)
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", t.baseURL, t.accountSID)
	res, err := t.post(ctx, endpoint, form)
	if err != nil {
		return PlaceCallResult{}, err
	}
	return PlaceCallResult{ProviderCallID: res.Sid, Status: res.Status}, nil
}

func (t *Twilio) CompleteCall(ctx context.Context, providerCallID string) error {
	form := url.Values{}
	form.Set("Status", "completed")

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls/%s.json", t.baseURL, t.accountSID, providerCallID)
	_, err := t.post(ctx, endpoint, form)
	return err
}

func (t *Twilio) post(ctx context.Context, endpoint string, form url.Values) (twilioCallResource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return twilioCallResource{}, fmt.Errorf("telephony: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(t.accountSID, t.authToken)

	resp, err := t.client.Do(req)
	if err != nil {
		return twilioCallResource{}, fmt.Errorf("telephony: twilio request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return twilioCallResource{}, fmt.Errorf("telephony: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr twilioAPIError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			return twilioCallResource{}, fmt.Errorf("telephony: twilio error %d: %s", resp.StatusCode, apiErr.Message)
		}
		return twilioCallResource{}, fmt.Errorf("telephony: twilio error %d", resp.StatusCode)
	}

	var res twilioCallResource
	if err := json.Unmarshal(body, &res); err != nil {
		return twilioCallResource{}, fmt.Errorf("telephony: decode response: %w", err)
	}
	return res, nil
}
