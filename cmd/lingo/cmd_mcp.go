package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/lingo/internal/config"
	mcpserver "github.com/felixgeelhaar/lingo/internal/mcp"
	"github.com/felixgeelhaar/lingo/internal/queue"
)

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// cmdMCP starts the MCP server on stdio, or on HTTP with --http <addr>
func cmdMCP(args []string) error {
	httpAddr := ""
	if len(args) > 0 {
		if args[0] != "--http" || len(args) < 2 {
			return fmt.Errorf("usage: lingo mcp [--http <addr>]")
		}
		httpAddr = args[1]
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.ensureLearner(ctx); err != nil {
		return fmt.Errorf("prepare learner: %w", err)
	}
	sessions, err := a.sessions()
	if err != nil {
		return err
	}

	srv := mcpserver.NewServer(mcpserver.Config{
		Sessions:    sessions,
		Lessons:     a.lessons,
		Leaderboard: a.progress,
		Insights:    a.insights(),
		Version:     Version,
		Logger:      a.logger,
	})

	if httpAddr != "" {
		a.logger.Info("serving MCP over HTTP", "addr", httpAddr)
		return srv.ServeHTTP(ctx, httpAddr)
	}
	return srv.ServeStdio(ctx)
}

// cmdIngest consumes published interactions into the local database
func cmdIngest() error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.queue == nil {
		return fmt.Errorf("queue disabled (set queue.enabled or %s=true)", config.EnvQueueEnabled)
	}
	if a.interactions == nil {
		return fmt.Errorf("ingest requires the sqlite storage driver")
	}

	consumer := queue.NewConsumer(a.queue, a.interactions.Record, queue.DefaultConsumerConfig(), a.logger)
	if err := consumer.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Ingesting interactions, press Ctrl+C to stop")

	<-ctx.Done()
	consumer.Stop()
	return nil
}
