// Package content is the best-effort facade over the generative provider.
// Every call resolves to a usable value: provider failures become fixed
// apology texts, or a false flag for speech.
package content

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/lingo/internal/llm"
)

// Fallback texts returned when the provider fails
const (
	FallbackText     = "Sorry, I couldn't generate a response right now."
	FallbackThinking = "Sorry, I couldn't generate a thoughtful response right now."
	FallbackSearch   = "Sorry, I couldn't get up-to-date information right now."
)

const instrumentationName = "github.com/felixgeelhaar/lingo/internal/content"

// Source is a cited web page
type Source struct {
	Title string
	URI   string
}

// SearchResult is search-grounded text plus its citations
type SearchResult struct {
	Text    string
	Sources []Source
}

// Config selects the models used for each generation mode
type Config struct {
	TextModel      string // default: gemini-2.5-flash
	SearchModel    string // default: gemini-2.5-flash
	ThinkingModel  string // default: gemini-2.5-pro
	ThinkingBudget int    // default: 32768
	SpeechModel    string // default: provider's speech model
	Voice          string // default: provider's voice
}

// DefaultConfig returns the model selection used by the Gemini provider
func DefaultConfig() Config {
	return Config{
		TextModel:      "gemini-2.5-flash",
		SearchModel:    "gemini-2.5-flash",
		ThinkingModel:  "gemini-2.5-pro",
		ThinkingBudget: 32768,
	}
}

// Service generates lesson content
type Service struct {
	text     llm.Provider
	speech   llm.SpeechProvider
	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer
	requests metric.Int64Counter
}

// NewService creates a content service. speech may be nil, in which case
// GenerateSpeech always reports no audio.
func NewService(text llm.Provider, speech llm.SpeechProvider, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultConfig()
	if cfg.TextModel == "" {
		cfg.TextModel = defaults.TextModel
	}
	if cfg.SearchModel == "" {
		cfg.SearchModel = defaults.SearchModel
	}
	if cfg.ThinkingModel == "" {
		cfg.ThinkingModel = defaults.ThinkingModel
	}
	if cfg.ThinkingBudget <= 0 {
		cfg.ThinkingBudget = defaults.ThinkingBudget
	}

	s := &Service{
		text:   text,
		speech: speech,
		cfg:    cfg,
		logger: logger.With("component", "content"),
		tracer: otel.Tracer(instrumentationName),
	}

	counter, err := otel.Meter(instrumentationName).Int64Counter("lingo.content.requests",
		metric.WithDescription("Content provider requests by mode and outcome"))
	if err != nil {
		s.logger.Warn("failed to initialize metrics", "error", err)
	} else {
		s.requests = counter
	}
	return s
}

// GenerateText returns plain generated text or FallbackText
func (s *Service) GenerateText(ctx context.Context, prompt string) string {
	req := llm.UserPrompt(prompt)
	req.Model = s.cfg.TextModel

	resp, err := s.generate(ctx, "text", req)
	if err != nil {
		s.logger.Error("error generating text", "error", err)
		return FallbackText
	}
	return resp.Content
}

// GenerateTextWithThinking uses the reasoning model or returns FallbackThinking
func (s *Service) GenerateTextWithThinking(ctx context.Context, prompt string) string {
	req := llm.UserPrompt(prompt)
	req.Model = s.cfg.ThinkingModel
	req.ThinkingBudget = s.cfg.ThinkingBudget

	resp, err := s.generate(ctx, "thinking", req)
	if err != nil {
		s.logger.Error("error generating text with thinking", "error", err)
		return FallbackThinking
	}
	return resp.Content
}

// GenerateTextWithSearch returns search-grounded text. Sources without a URI
// are dropped. On failure the text is FallbackSearch with no sources.
func (s *Service) GenerateTextWithSearch(ctx context.Context, prompt string) SearchResult {
	req := llm.UserPrompt(prompt)
	req.Model = s.cfg.SearchModel
	req.Grounding = true

	resp, err := s.generate(ctx, "search", req)
	if err != nil {
		s.logger.Error("error generating text with search", "error", err)
		return SearchResult{Text: FallbackSearch}
	}

	result := SearchResult{Text: resp.Content}
	for _, src := range resp.Sources {
		if strings.TrimSpace(src.URI) == "" {
			continue
		}
		result.Sources = append(result.Sources, Source{Title: src.Title, URI: src.URI})
	}
	return result
}

// GenerateSpeech returns base64 PCM16 audio at 24 kHz, or false if none was produced
func (s *Service) GenerateSpeech(ctx context.Context, text string) (string, bool) {
	if s.speech == nil {
		return "", false
	}

	ctx, span := s.tracer.Start(ctx, "content.speech",
		trace.WithAttributes(attribute.Int("text.length", len(text))))
	defer span.End()

	resp, err := s.speech.Synthesize(ctx, &llm.SpeechRequest{
		Model: s.cfg.SpeechModel,
		Voice: s.cfg.Voice,
		Text:  text,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.count(ctx, "speech", "error")
		s.logger.Error("error generating audio", "error", err)
		return "", false
	}
	if resp == nil || resp.Data == "" {
		s.count(ctx, "speech", "empty")
		return "", false
	}
	s.count(ctx, "speech", "ok")
	return resp.Data, true
}

func (s *Service) generate(ctx context.Context, mode string, req *llm.Request) (*llm.Response, error) {
	ctx, span := s.tracer.Start(ctx, "content."+mode,
		trace.WithAttributes(
			attribute.String("llm.provider", s.text.Name()),
			attribute.String("llm.model", req.Model),
		))
	defer span.End()

	resp, err := s.text.Generate(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.count(ctx, mode, "error")
		return nil, err
	}
	if resp == nil {
		s.count(ctx, mode, "error")
		return nil, llm.ErrNoContent
	}

	span.SetAttributes(
		attribute.Int("llm.input_tokens", resp.Usage.InputTokens),
		attribute.Int("llm.output_tokens", resp.Usage.OutputTokens),
		attribute.Int("llm.sources", len(resp.Sources)),
	)
	s.count(ctx, mode, "ok")
	return resp, nil
}

func (s *Service) count(ctx context.Context, mode, outcome string) {
	if s.requests == nil {
		return
	}
	s.requests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
}
