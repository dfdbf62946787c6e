package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/lingo/internal/config"
)

// cmdInit initializes lingo for first-time use
func cmdInit() error {
	fmt.Println("Lingo - First-Time Setup")
	fmt.Println("========================")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Creating ~/.lingo directory structure... ")
	lingoDir, err := config.EnsureLingoDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	fmt.Println("✓")

	configPath := filepath.Join(lingoDir, "config.yaml")
	cfg := config.DefaultLocalConfig(lingoDir)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Print("Your name (or press Enter to skip): ")
		name, _ := reader.ReadString('\n')
		if name = strings.TrimSpace(name); name != "" {
			cfg.Learner.Name = name
		}

		fmt.Print("Creating default configuration... ")
		if err := config.SaveLocalConfig(cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}
		fmt.Println("✓")
	} else {
		fmt.Println("Configuration already exists ✓")
		if loaded, err := config.LoadLocalConfigFrom(lingoDir); err == nil {
			cfg = loaded
		}
	}

	fmt.Println()
	if cfg.Provider.APIKey != "" {
		fmt.Println("Gemini API key: already configured ✓")
	} else {
		fmt.Print("Enter Gemini API key (or press Enter to skip): ")
		key, _ := reader.ReadString('\n')
		if key = strings.TrimSpace(key); key != "" {
			if err := config.SaveSecrets(lingoDir, map[string]string{cfg.Provider.Name: key}); err != nil {
				fmt.Printf("  ⚠ Failed to save: %v\n", err)
			} else {
				fmt.Println("  ✓ Saved")
			}
		}
	}

	fmt.Println()
	fmt.Println("Setup Complete!")
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  1. lingo lessons   # See available lessons")
	fmt.Println("  2. lingo seed      # Load the demo class")
	fmt.Println("  3. lingo mcp       # Start the MCP server for your assistant")
	fmt.Printf("\nCustom lessons go in %s\n", cfg.Lessons.Dir)

	return nil
}

// cmdConfig shows the current configuration
func cmdConfig() error {
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	fmt.Println("Lingo Configuration")

	fmt.Println("\nLearner:")
	fmt.Printf("  id: %s\n", cfg.Learner.ID)
	fmt.Printf("  name: %s\n", cfg.Learner.Name)
	if cfg.Learner.Age > 0 {
		fmt.Printf("  age: %d\n", cfg.Learner.Age)
	}

	keyStatus := "✗"
	if cfg.Provider.APIKey != "" {
		keyStatus = "✓"
	}
	fmt.Println("\nProvider:")
	fmt.Printf("  %s: key=%s\n", cfg.Provider.Name, keyStatus)
	fmt.Printf("  text=%s search=%s thinking=%s (budget %d)\n",
		cfg.Provider.TextModel, cfg.Provider.SearchModel, cfg.Provider.ThinkingModel, cfg.Provider.ThinkingBudget)
	fmt.Printf("  speech=%s voice=%s\n", cfg.Provider.SpeechModel, cfg.Provider.Voice)
	r := cfg.Provider.Resilience
	fmt.Printf("  resilience: breaker=%t retry=%t bulkhead=%t(%d) rate_limit=%t(%d/s)\n",
		r.CircuitBreaker, r.Retry, r.Bulkhead, r.MaxConcurrent, r.RateLimit, r.RatePerSecond)

	fmt.Println("\nAudio:")
	fmt.Printf("  %d Hz, %d channel(s) -> %s\n", cfg.Audio.SampleRate, cfg.Audio.ChannelCount, cfg.Audio.OutputDir)

	fmt.Println("\nStorage:")
	fmt.Printf("  driver: %s\n", cfg.Storage.Driver)
	switch cfg.Storage.Driver {
	case "postgres":
		fmt.Println("  postgres_url: (set)")
	case "file":
		fmt.Printf("  file_dir: %s\n", cfg.Storage.FileDir)
	default:
		fmt.Printf("  sqlite_path: %s\n", cfg.Storage.SQLitePath)
	}

	fmt.Println("\nQueue:")
	fmt.Printf("  enabled: %t\n", cfg.Queue.Enabled)

	fmt.Println("\nLessons:")
	fmt.Printf("  dir: %s\n", cfg.Lessons.Dir)

	fmt.Printf("\nLog level: %s\n", cfg.Log.Level)

	lingoDir, _ := config.LingoDir()
	fmt.Printf("\nConfig path: %s/config.yaml\n", lingoDir)

	return nil
}

// cmdSetKey stores the provider API key
func cmdSetKey(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("API key required (e.g., lingo set-key AIza...)")
	}
	lingoDir, err := config.EnsureLingoDir()
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	cfg, err := config.LoadLocalConfigFrom(lingoDir)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.SaveSecrets(lingoDir, map[string]string{cfg.Provider.Name: strings.TrimSpace(args[0])}); err != nil {
		return err
	}
	fmt.Printf("✓ API key saved for %s\n", cfg.Provider.Name)
	return nil
}
