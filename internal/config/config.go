package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration required by the relay process.
// All values come from env (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
//
// Missing provider or OpenAI credentials are deliberately NOT load errors:
// the process keeps serving and the affected features return per-request
// errors instead. Warnings() reports what is absent so startup can log it.
type Config struct {
	App    AppConfig
	Twilio TwilioConfig
	OpenAI OpenAIConfig

	// PublicURL is the externally reachable base URL handed to the
	// telephony provider for webhook callbacks.
	PublicURL string
}

type AppConfig struct {
	Env  string
	Port int
}

type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

const (
	defaultPort  = 3000
	defaultModel = "gpt-4"
)

func Load() (Config, error) {
	c := Config{}

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	if c.App.Env == "" {
		c.App.Env = "local"
	}

	port := defaultPort
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("PORT must be an integer, got %q", v)
		}
		port = n
	}
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("PORT must be a valid port, got %d", port)
	}
	c.App.Port = port

	c.PublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PUBLIC_URL")), "/")
	if c.PublicURL == "" {
		c.PublicURL = fmt.Sprintf("http://localhost:%d", c.App.Port)
	}

	c.Twilio.AccountSID = strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID"))
	c.Twilio.AuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	c.Twilio.PhoneNumber = strings.TrimSpace(os.Getenv("TWILIO_PHONE_NUMBER"))

	c.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	c.OpenAI.Model = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultModel
	}

	return c, nil
}

// TwilioConfigured reports whether outbound calling can be enabled.
func (c Config) TwilioConfigured() bool {
	return c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" && c.Twilio.PhoneNumber != ""
}

// OpenAIConfigured reports whether the text-generation relay can be enabled.
func (c Config) OpenAIConfigured() bool {
	return c.OpenAI.APIKey != ""
}

// Warnings lists degraded features for startup logging.
func (c Config) Warnings() []string {
	var w []string
	if !c.TwilioConfigured() {
		w = append(w, "Twilio configuration missing or incomplete (TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_PHONE_NUMBER); call initiation disabled")
	}
	if !c.OpenAIConfigured() {
		w = append(w, "OPENAI_API_KEY not set; text-generation relay disabled")
	}
	return w
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}
