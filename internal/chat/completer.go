package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

// noReply is returned when the model produced no text.
const noReply = "No response generated."

// ErrUnavailable is returned while the completer's circuit is open.
var ErrUnavailable = errors.New("chat backend unavailable")

// Completer turns a prompt into a model reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// GenAICompleter calls Gemini through the google.golang.org/genai SDK.
type GenAICompleter struct {
	client *genai.Client
	model  string
}

// NewGenAICompleter creates a Gemini client for apiKey.
func NewGenAICompleter(ctx context.Context, apiKey, model string) (*GenAICompleter, error) {
	if apiKey == "" {
		return nil, errors.New("genai API key is required")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GenAICompleter{client: client, model: model}, nil
}

func (c *GenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("genai generate: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return noReply, nil
	}
	return text, nil
}

// BreakerCompleter guards a Completer with a circuit breaker so a failing
// model API is not hammered by every chat request.
type BreakerCompleter struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

// BreakerSettings configures NewBreakerCompleter.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerSettings returns settings suited to a remote model API.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "genai",
		MaxRequests:      1,
		Interval:         30 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 0.6,
		MinRequests:      5,
	}
}

func NewBreakerCompleter(next Completer, s BreakerSettings, logger *slog.Logger) *BreakerCompleter {
	if logger == nil {
		logger = slog.Default()
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= s.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("chat circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
		// A canceled caller says nothing about backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})
	return &BreakerCompleter{next: next, cb: cb}
}

func (b *BreakerCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Complete(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		return "", err
	}
	return out.(string), nil
}

// State reports the breaker state, e.g. "closed" or "open".
func (b *BreakerCompleter) State() string {
	return b.cb.State().String()
}
