package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/felixgeelhaar/fortify/bulkhead"
	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"
)

// ResilientProvider wraps a provider with resilience patterns from fortify.
// Text and speech calls get separate breakers so a failing TTS model does
// not trip text generation.
type ResilientProvider struct {
	provider  Provider
	speech    SpeechProvider
	text      *guard[*Response]
	tts       *guard[*SpeechResponse]
	rateLimit ratelimit.RateLimiter
	logger    *slog.Logger
	name      string
}

// ResilientConfig holds configuration for resilient provider wrapper
type ResilientConfig struct {
	// EnableCircuitBreaker enables circuit breaker pattern
	EnableCircuitBreaker bool

	// EnableRetry enables retry with backoff
	EnableRetry bool

	// EnableBulkhead enables concurrency limiting
	EnableBulkhead bool

	// EnableRateLimit enables rate limiting
	EnableRateLimit bool

	// MaxConcurrent for bulkhead (default: 5)
	MaxConcurrent int

	// RatePerSecond for rate limiting (default: 2)
	RatePerSecond int

	// RetryInitialDelay is the first backoff delay (default: 2s)
	RetryInitialDelay time.Duration

	// Logger for resilience events
	Logger *slog.Logger
}

// DefaultResilientConfig returns sensible defaults for provider resilience
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		EnableCircuitBreaker: true,
		EnableRetry:          true,
		EnableBulkhead:       true,
		EnableRateLimit:      true,
		MaxConcurrent:        5,
		RatePerSecond:        2,
		RetryInitialDelay:    2 * time.Second,
	}
}

// guard composes the per-result-type patterns
type guard[T any] struct {
	circuitBreaker circuitbreaker.CircuitBreaker[T]
	retrier        retry.Retry[T]
	bulkhead       bulkhead.Bulkhead[T]
}

func newGuard[T any](cfg ResilientConfig, label string, logger *slog.Logger) *guard[T] {
	g := &guard[T]{}

	if cfg.EnableCircuitBreaker {
		g.circuitBreaker = circuitbreaker.New[T](circuitbreaker.Config{
			MaxRequests: 2,
			Interval:    10 * time.Second,
			Timeout:     60 * time.Second,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				if logger != nil {
					logger.Warn("circuit breaker state change",
						"provider", label,
						"from", from.String(),
						"to", to.String())
				}
			},
		})
	}

	if cfg.EnableRetry {
		delay := cfg.RetryInitialDelay
		if delay <= 0 {
			delay = 2 * time.Second
		}
		g.retrier = retry.New[T](retry.Config{
			MaxAttempts:   3,
			InitialDelay:  delay,
			MaxDelay:      60 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryableHTTPError,
		})
	}

	if cfg.EnableBulkhead {
		maxConcurrent := cfg.MaxConcurrent
		if maxConcurrent <= 0 {
			maxConcurrent = 5
		}
		g.bulkhead = bulkhead.New[T](bulkhead.Config{
			MaxConcurrent: maxConcurrent,
			MaxQueue:      maxConcurrent * 2,
			QueueTimeout:  30 * time.Second,
		})
	}

	return g
}

func (g *guard[T]) execute(ctx context.Context, call func(ctx context.Context) (T, error)) (T, error) {
	operation := call

	if g.bulkhead != nil {
		operation = func(ctx context.Context) (T, error) {
			return g.bulkhead.Execute(ctx, call)
		}
	}

	if g.circuitBreaker != nil && g.retrier != nil {
		return g.circuitBreaker.Execute(ctx, func(ctx context.Context) (T, error) {
			return g.retrier.Do(ctx, operation)
		})
	}

	if g.circuitBreaker != nil {
		return g.circuitBreaker.Execute(ctx, operation)
	}

	if g.retrier != nil {
		return g.retrier.Do(ctx, operation)
	}

	return operation(ctx)
}

// NewResilientProvider wraps a provider with resilience patterns using fortify.
// If the provider also implements SpeechProvider, speech calls are guarded too.
func NewResilientProvider(provider Provider, cfg ResilientConfig) *ResilientProvider {
	rp := &ResilientProvider{
		provider: provider,
		logger:   cfg.Logger,
		name:     provider.Name(),
		text:     newGuard[*Response](cfg, provider.Name(), cfg.Logger),
	}

	if sp, ok := provider.(SpeechProvider); ok {
		rp.speech = sp
		rp.tts = newGuard[*SpeechResponse](cfg, provider.Name()+"/speech", cfg.Logger)
	}

	if cfg.EnableRateLimit {
		rate := cfg.RatePerSecond
		if rate <= 0 {
			rate = 2
		}
		rp.rateLimit = ratelimit.New(&ratelimit.Config{
			Rate:     rate,
			Burst:    rate * 3,
			Interval: time.Second,
		})
	}

	return rp
}

func (p *ResilientProvider) Name() string {
	return p.provider.Name()
}

func (p *ResilientProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	if p.rateLimit != nil {
		if !p.rateLimit.Allow(ctx, p.name) {
			return nil, fmt.Errorf("rate limit exceeded for provider %s", p.name)
		}
	}

	return p.text.execute(ctx, func(ctx context.Context) (*Response, error) {
		return p.provider.Generate(ctx, req)
	})
}

func (p *ResilientProvider) Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResponse, error) {
	if p.speech == nil {
		return nil, fmt.Errorf("%w: %s", ErrSpeechUnsupported, p.name)
	}
	if p.rateLimit != nil {
		if !p.rateLimit.Allow(ctx, p.name) {
			return nil, fmt.Errorf("rate limit exceeded for provider %s", p.name)
		}
	}

	return p.tts.execute(ctx, func(ctx context.Context) (*SpeechResponse, error) {
		return p.speech.Synthesize(ctx, req)
	})
}

// Close releases resources held by the resilient provider
func (p *ResilientProvider) Close() error {
	if p.rateLimit != nil {
		return p.rateLimit.Close()
	}
	return nil
}

// isRetryableHTTPError checks if an error is retryable based on HTTP semantics
func isRetryableHTTPError(err error) bool {
	switch extractStatusCode(err) {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// extractStatusCode finds "status NNN" in a provider error message
func extractStatusCode(err error) int {
	if err == nil {
		return 0
	}

	msg := err.Error()
	for _, code := range []int{
		http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
	} {
		if strings.Contains(msg, fmt.Sprintf("status %d", code)) {
			return code
		}
	}
	return 0
}
