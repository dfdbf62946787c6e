// Package enrichment runs asynchronous content requests into independent
// per-slot loading/result state.
package enrichment

import (
	"context"
	"log/slog"

	"github.com/felixgeelhaar/lingo/internal/content"
)

// Generator is the content surface the client needs; *content.Service implements it
type Generator interface {
	GenerateText(ctx context.Context, prompt string) string
	GenerateTextWithSearch(ctx context.Context, prompt string) content.SearchResult
	GenerateTextWithThinking(ctx context.Context, prompt string) string
}

// Client issues one provider call per Request. Calls are never coalesced,
// and overlapping calls on the same slot settle in completion order.
type Client struct {
	gen    Generator
	board  *Board
	logger *slog.Logger
}

// NewClient creates a client writing into board
func NewClient(gen Generator, board *Board, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		gen:    gen,
		board:  board,
		logger: logger.With("component", "enrichment"),
	}
}

// Board returns the slot board the client writes to
func (c *Client) Board() *Board { return c.board }

// Request starts a provider call for the slot and returns a channel that
// receives the result once and is then closed. The slot is marked loading
// until the call settles; failures settle with the provider fallback text.
func (c *Client) Request(ctx context.Context, key SlotKey, kind Kind, prompt string) <-chan Result {
	c.board.Begin(key)
	ch := make(chan Result, 1)

	go func() {
		res := Result{Text: fallback(kind)}
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("enrichment request panicked", "kind", kind, "panic", r)
			}
			if !c.board.Settle(key, res) {
				c.logger.Debug("discarded stale enrichment", "scope", key.Scope, "kind", kind, "generation", key.Generation)
			}
			ch <- res
			close(ch)
		}()
		res = c.generate(ctx, kind, prompt)
	}()

	return ch
}

// fallback is the text a slot settles with when generation never returned
func fallback(kind Kind) string {
	switch kind.Mode() {
	case ModeSearch:
		return content.FallbackSearch
	case ModeThinking:
		return content.FallbackThinking
	default:
		return content.FallbackText
	}
}

func (c *Client) generate(ctx context.Context, kind Kind, prompt string) Result {
	switch kind.Mode() {
	case ModeSearch:
		sr := c.gen.GenerateTextWithSearch(ctx, prompt)
		return Result{Text: sr.Text, Sources: sr.Sources}
	case ModeThinking:
		return Result{Text: c.gen.GenerateTextWithThinking(ctx, prompt)}
	default:
		return Result{Text: c.gen.GenerateText(ctx, prompt)}
	}
}
