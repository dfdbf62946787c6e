package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/lingo/internal/audio"
	"github.com/felixgeelhaar/lingo/internal/catalog"
	"github.com/felixgeelhaar/lingo/internal/config"
	"github.com/felixgeelhaar/lingo/internal/content"
	"github.com/felixgeelhaar/lingo/internal/domain"
	"github.com/felixgeelhaar/lingo/internal/enrichment"
	"github.com/felixgeelhaar/lingo/internal/insights"
	"github.com/felixgeelhaar/lingo/internal/interaction"
	"github.com/felixgeelhaar/lingo/internal/llm"
	"github.com/felixgeelhaar/lingo/internal/progress"
	"github.com/felixgeelhaar/lingo/internal/queue"
	"github.com/felixgeelhaar/lingo/internal/session"
	"github.com/felixgeelhaar/lingo/internal/storage/local"
	"github.com/felixgeelhaar/lingo/internal/storage/postgres"
	"github.com/felixgeelhaar/lingo/internal/storage/sqlite"
)

var errNoAPIKey = errors.New("no Gemini API key configured (run 'lingo set-key <key>' or set " + config.EnvGeminiAPIKey + ")")

// app holds the wired services shared by the commands
type app struct {
	cfg          *config.LocalConfig
	logger       *slog.Logger
	lessons      *catalog.Registry
	content      *content.Service // nil without an API key
	enrichment   *enrichment.Client
	progress     *progress.Service
	interactions *sqlite.InteractionStore // nil unless storage is sqlite
	recorder     interaction.Recorder
	dispatcher   *domain.EventDispatcher
	queue        *queue.Connection
	closers      []func() error
}

// newLogger writes to stderr; stdout carries the MCP stdio transport
func newLogger(cfg config.LogConfig) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}

// loadApp loads configuration and wires every service
func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)

	a := &app{
		cfg:        cfg,
		logger:     logger,
		dispatcher: domain.NewEventDispatcher(),
	}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(ctx context.Context) error {
	a.lessons = catalog.NewRegistry(catalog.BuiltinLoader(), catalog.NewDirLoader(a.cfg.Lessons.Dir))
	if err := a.lessons.Load(); err != nil {
		return fmt.Errorf("load lessons: %w", err)
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	a.progress = progress.NewService(store, a.logger)

	recorders := []interaction.Recorder{interaction.NewLogRecorder(a.logger)}
	if a.interactions != nil {
		recorders = append(recorders, a.interactions)
	}
	if a.cfg.Queue.Enabled {
		conn, err := queue.NewConnection(a.cfg.Queue.URL, a.logger)
		if err != nil {
			return fmt.Errorf("connect queue: %w", err)
		}
		a.queue = conn
		a.closers = append(a.closers, conn.Close)
		recorders = append(recorders, queue.NewInteractionPublisher(conn, a.logger))
		a.dispatcher.Subscribe(domain.EventLessonCompleted, queue.NewEventPublisher(conn, a.logger).Handler())
	}
	a.recorder = interaction.NewMulti(a.logger, recorders...)

	if a.cfg.Provider.APIKey == "" {
		a.logger.Warn("AI features disabled", "reason", errNoAPIKey)
		return nil
	}
	svc, err := newContentService(a.cfg.Provider, a.logger)
	if err != nil {
		return err
	}
	a.content = svc
	a.enrichment = enrichment.NewClient(svc, enrichment.NewBoard(), a.logger)
	return nil
}

func (a *app) openStore(ctx context.Context) (progress.Store, error) {
	switch a.cfg.Storage.Driver {
	case "postgres":
		pool, err := postgres.Connect(ctx, a.cfg.Storage.PostgresURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		a.closers = append(a.closers, func() error { pool.Close(); return nil })
		return postgres.NewProgressStore(pool), nil
	case "file":
		store, err := local.NewProgressStore(a.cfg.Storage.FileDir)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		db, err := sqlite.Open(a.cfg.Storage.SQLitePath, a.logger)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.Migrate(); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		a.interactions = sqlite.NewInteractionStore(db)
		return sqlite.NewProgressStore(db), nil
	}
}

// newContentService builds the resilient Gemini provider behind a content service
func newContentService(cfg config.ProviderConfig, logger *slog.Logger) (*content.Service, error) {
	registry := llm.NewRegistry()

	switch cfg.Name {
	case "gemini", "":
		gemini := llm.NewGeminiProvider(llm.GeminiConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.TextModel,
			SpeechModel: cfg.SpeechModel,
			Voice:       cfg.Voice,
		})
		rcfg := llm.DefaultResilientConfig()
		rcfg.EnableCircuitBreaker = cfg.Resilience.CircuitBreaker
		rcfg.EnableRetry = cfg.Resilience.Retry
		rcfg.EnableBulkhead = cfg.Resilience.Bulkhead
		rcfg.EnableRateLimit = cfg.Resilience.RateLimit
		if cfg.Resilience.MaxConcurrent > 0 {
			rcfg.MaxConcurrent = cfg.Resilience.MaxConcurrent
		}
		if cfg.Resilience.RatePerSecond > 0 {
			rcfg.RatePerSecond = cfg.Resilience.RatePerSecond
		}
		rcfg.Logger = logger
		registry.Register("gemini", llm.NewResilientProvider(gemini, rcfg))
	default:
		return nil, fmt.Errorf("%w: %s", llm.ErrProviderNotFound, cfg.Name)
	}
	if err := registry.Use("gemini"); err != nil {
		return nil, err
	}

	text, err := registry.Text()
	if err != nil {
		return nil, err
	}
	speech, err := registry.Speech()
	if err != nil {
		logger.Warn("speech disabled", "provider", text.Name(), "error", err)
		speech = nil
	}

	return content.NewService(text, speech, content.Config{
		TextModel:      cfg.TextModel,
		SearchModel:    cfg.SearchModel,
		ThinkingModel:  cfg.ThinkingModel,
		ThinkingBudget: cfg.ThinkingBudget,
		SpeechModel:    cfg.SpeechModel,
		Voice:          cfg.Voice,
	}, logger), nil
}

// sessions builds a session manager playing pronunciations into WAV files
func (a *app) sessions() (*session.Manager, error) {
	cfg := session.Config{
		Lessons:    a.lessons,
		Enrichment: a.enrichment,
		Progress:   a.progress,
		Recorder:   a.recorder,
		Dispatcher: a.dispatcher,
		LearnerID:  a.cfg.Learner.ID,
		Audio: audio.PlayerConfig{
			SampleRate:   a.cfg.Audio.SampleRate,
			ChannelCount: a.cfg.Audio.ChannelCount,
		},
		Logger: a.logger,
	}
	if a.content != nil {
		device, err := audio.NewWAVDevice(a.cfg.Audio.OutputDir, a.logger)
		if err != nil {
			return nil, err
		}
		cfg.Speech = a.content
		cfg.Device = device
	}
	return session.NewManager(cfg), nil
}

// insights returns nil without an API key
func (a *app) insights() *insights.Service {
	if a.enrichment == nil {
		return nil
	}
	return insights.NewService(insights.Config{
		Enrichment: a.enrichment,
		Learners:   a.progress,
		Lessons:    a.lessons,
		Recorder:   a.recorder,
		Logger:     a.logger,
	})
}

// ensureLearner makes sure the configured local learner has a progress record
// carrying the configured profile
func (a *app) ensureLearner(ctx context.Context) error {
	l := a.cfg.Learner
	if l.Age == 0 && l.LearningGoals == "" {
		_, err := a.progress.EnsureLearner(ctx, l.ID, l.Name)
		return err
	}
	_, err := a.progress.UpdateProfile(ctx, l.ID, l.Name, l.Age, l.LearningGoals)
	return err
}

// Close releases connections in reverse order of opening
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
