package audio

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Default decoding parameters for synthesized speech
const (
	DefaultSampleRate   = 24000
	DefaultChannelCount = 1
)

// Synthesizer produces base64 PCM16 speech for a text.
// ok is false when no audio could be produced.
type Synthesizer interface {
	GenerateSpeech(ctx context.Context, text string) (data string, ok bool)
}

// Device plays a decoded clip once. Implementations must accept
// overlapping calls.
type Device interface {
	Play(ctx context.Context, buf *SampleBuffer) error
}

// PlayerConfig configures a Player
type PlayerConfig struct {
	SampleRate   int
	ChannelCount int
	Logger       *slog.Logger
}

// Player turns text into audible speech. Each Play call is independent.
type Player struct {
	synth      Synthesizer
	device     Device
	sampleRate int
	channels   int
	logger     *slog.Logger
	inflight   atomic.Int64
}

// NewPlayer creates a player; zero config values fall back to 24 kHz mono
func NewPlayer(synth Synthesizer, device Device, cfg PlayerConfig) *Player {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultSampleRate
	}
	if cfg.ChannelCount <= 0 {
		cfg.ChannelCount = DefaultChannelCount
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Player{
		synth:      synth,
		device:     device,
		sampleRate: cfg.SampleRate,
		channels:   cfg.ChannelCount,
		logger:     cfg.Logger.With("component", "audio_player"),
	}
}

// Play synthesizes, decodes and plays text. Failures are logged, never returned.
func (p *Player) Play(ctx context.Context, text string) {
	p.inflight.Add(1)
	defer p.inflight.Add(-1)
	p.play(ctx, text)
}

// Go starts Play on a new goroutine. Loading reports true before Go returns.
// The returned channel is closed once playback finished or failed.
func (p *Player) Go(ctx context.Context, text string) <-chan struct{} {
	done := make(chan struct{})
	p.inflight.Add(1)
	go func() {
		defer close(done)
		defer p.inflight.Add(-1)
		p.play(ctx, text)
	}()
	return done
}

func (p *Player) play(ctx context.Context, text string) {
	data, ok := p.synth.GenerateSpeech(ctx, text)
	if !ok {
		p.logger.Warn("no speech generated", "text", text)
		return
	}

	buf, err := DecodePCM16(data, p.sampleRate, p.channels)
	if err != nil {
		p.logger.Error("decode speech failed", "error", err)
		return
	}

	if err := p.device.Play(ctx, buf); err != nil {
		p.logger.Error("playback failed", "error", err)
	}
}

// Loading reports whether any Play call is in flight
func (p *Player) Loading() bool {
	return p.inflight.Load() > 0
}
