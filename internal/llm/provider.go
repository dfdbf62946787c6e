// Package llm talks to generative content providers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrProviderNotFound  = errors.New("provider not found")
	ErrNoDefaultProvider = errors.New("no default provider configured")
	ErrNoContent         = errors.New("provider returned no content")
	ErrSpeechUnsupported = errors.New("provider does not support speech")
)

// Provider defines the interface for text generation providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate performs a completion request
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// SpeechProvider synthesizes speech audio
type SpeechProvider interface {
	Name() string

	// Synthesize returns base64 encoded PCM16 audio for the text
	Synthesize(ctx context.Context, req *SpeechRequest) (*SpeechResponse, error)
}

// Request represents a generation request
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	System      string // System instruction

	// Grounding asks the provider to ground the answer in web search results
	Grounding bool
	// ThinkingBudget enables extended reasoning when > 0
	ThinkingBudget int
}

// Message represents a chat message
type Message struct {
	Role    Role
	Content string
}

// Role represents the role of a message sender
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds a single-turn request
func UserPrompt(prompt string) *Request {
	return &Request{Messages: []Message{{Role: RoleUser, Content: prompt}}}
}

// Response represents a generation response
type Response struct {
	Content      string
	FinishReason string
	Sources      []Source // only set for grounded requests
	Usage        Usage
}

// Source is a web page cited by a grounded response
type Source struct {
	Title string
	URI   string
}

// Usage tracks token usage
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// SpeechRequest represents a text-to-speech request
type SpeechRequest struct {
	Model string
	Voice string
	Text  string
}

// SpeechResponse carries base64 encoded audio
type SpeechResponse struct {
	Data     string
	MimeType string
}

// Registry holds the configured providers and which one is active.
// The first registered provider is active until Use selects another.
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Provider
	active    string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// Register adds or replaces a provider
func (r *Registry) Register(name string, p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[name] = p
	if r.active == "" {
		r.active = name
	}
}

// Use makes name the active provider
func (r *Registry) Use(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[name]; !ok {
		return fmt.Errorf("%w: %s", ErrProviderNotFound, name)
	}
	r.active = name
	return nil
}

// Text returns the active provider
func (r *Registry) Text() (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[r.active]
	if !ok {
		return nil, ErrNoDefaultProvider
	}
	return p, nil
}

// Speech returns the active provider if it can synthesize speech
func (r *Registry) Speech() (SpeechProvider, error) {
	p, err := r.Text()
	if err != nil {
		return nil, err
	}
	sp, ok := p.(SpeechProvider)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSpeechUnsupported, p.Name())
	}
	return sp, nil
}

// Names returns the registered provider names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
