package main

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/felixgeelhaar/lingo/internal/audio"
	"github.com/felixgeelhaar/lingo/internal/domain"
)

// cmdLessons lists lessons, optionally filtered by difficulty
func cmdLessons(args []string) error {
	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	lessons := a.lessons.List()
	if len(args) > 0 {
		d := domain.Difficulty(cases.Title(language.English).String(args[0]))
		if !d.Valid() {
			return fmt.Errorf("unknown difficulty %q (valid: Beginner, Intermediate, Advanced)", args[0])
		}
		lessons = a.lessons.ByDifficulty(d)
	}

	if len(lessons) == 0 {
		fmt.Println("No lessons found.")
		return nil
	}

	fmt.Println("Lessons")
	fmt.Println("=======")
	for _, l := range lessons {
		fmt.Printf("%-12s %-32s %-13s %d steps, %d questions\n",
			l.ID, l.Title, l.Difficulty, len(l.Steps), len(l.Quiz))
	}

	stats := a.lessons.Stats()
	fmt.Printf("\nTotal: %d lessons, %d steps, %d questions\n", stats.LessonCount, stats.StepCount, stats.QuestionCount)
	return nil
}

// cmdSay synthesizes text and writes it as a WAV file
func cmdSay(args []string) error {
	var (
		words []string
		out   string
	)
	for i := 0; i < len(args); i++ {
		if args[i] == "-o" && i+1 < len(args) {
			out = args[i+1]
			i++
			continue
		}
		words = append(words, args[i])
	}
	text := strings.TrimSpace(strings.Join(words, " "))
	if text == "" {
		return fmt.Errorf("text required (e.g., lingo say \"Good morning\")")
	}

	ctx, cancel := signalContext()
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.content == nil {
		return errNoAPIKey
	}

	data, ok := a.content.GenerateSpeech(ctx, text)
	if !ok {
		return fmt.Errorf("no audio produced for %q", text)
	}
	buf, err := audio.DecodePCM16(data, a.cfg.Audio.SampleRate, a.cfg.Audio.ChannelCount)
	if err != nil {
		return fmt.Errorf("decode audio: %w", err)
	}

	if out == "" {
		device, err := audio.NewWAVDevice(a.cfg.Audio.OutputDir, a.logger)
		if err != nil {
			return err
		}
		device.OnWritten = func(path string) { out = path }
		if err := device.Play(ctx, buf); err != nil {
			return err
		}
	} else if err := audio.WriteWAVFile(out, buf); err != nil {
		return err
	}

	fmt.Printf("✓ %q (%.2fs) -> %s\n", text, buf.Duration(), out)
	return nil
}
