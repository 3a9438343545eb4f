package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

var (
	ErrUnavailable       = errors.New("assistant: unavailable")
	ErrMalformedResponse = errors.New("assistant: malformed response")
	ErrEmptyResponse     = errors.New("assistant: empty response")
	ErrBusy              = errors.New("assistant: request already in flight for task")
)

// Completer is a single round-trip text completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Default configuration values.
const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com"
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
	defaultTimeout       = 60 * time.Second
	defaultRateLimit     = 15.0 / 60.0
	defaultBurst         = 3
)

type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
	// RateLimit is requests per second; Burst is the bucket size.
	RateLimit float64
	Burst     int
}

func (c Config) withDefaults() Config {
	if c.Provider == "" {
		c.Provider = ProviderGemini
	}
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RateLimit <= 0 {
		c.RateLimit = defaultRateLimit
	}
	if c.Burst <= 0 {
		c.Burst = defaultBurst
	}
	return c
}

func (c Config) limiter() *rate.Limiter {
	return rate.NewLimiter(rate.Limit(c.RateLimit), c.Burst)
}

// New builds the configured provider. With no API key the returned
// Completer always fails with ErrUnavailable.
func New(cfg Config) (Completer, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Unavailable{}, nil
	}
	switch cfg.Provider {
	case ProviderGemini:
		return newGeminiClient(cfg), nil
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("assistant: unknown provider %q", cfg.Provider)
	}
}

// Unavailable is the Completer used when no credentials are configured.
type Unavailable struct{}

func (Unavailable) Complete(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

// IsAvailable reports whether c can reach a provider.
func IsAvailable(c Completer) bool {
	if c == nil {
		return false
	}
	_, off := c.(Unavailable)
	return !off
}
