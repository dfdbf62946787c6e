package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/felixgeelhaar/lingo/internal/domain"
	"github.com/felixgeelhaar/lingo/internal/interaction"
)

// cmdLeaderboard prints learners ranked by points
func cmdLeaderboard(args []string) error {
	limit := 0
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 0 {
			return fmt.Errorf("invalid limit %q", args[0])
		}
		limit = n
	}

	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	learners, err := a.progress.Leaderboard(ctx, limit)
	if err != nil {
		return err
	}
	if len(learners) == 0 {
		fmt.Println("No learners yet (try 'lingo seed').")
		return nil
	}

	fmt.Println("Leaderboard")
	fmt.Println("===========")
	for i, l := range learners {
		fmt.Printf("%2d. %-24s %5d pts  %d lessons\n", i+1, l.Name, l.Points, len(l.CompletedLessons))
	}
	return nil
}

// cmdProgress prints a learner's lesson scores
func cmdProgress(args []string) error {
	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	id := a.cfg.Learner.ID
	if len(args) > 0 {
		id = args[0]
	} else if err := a.ensureLearner(ctx); err != nil {
		return err
	}

	l, err := a.progress.Learner(ctx, id)
	if errors.Is(err, domain.ErrLearnerNotFound) {
		return fmt.Errorf("learner %q not found", id)
	}
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", l.Name, l.ID)
	fmt.Printf("Points:  %d\n", l.Points)
	fmt.Printf("Average: %.0f%%\n", l.AverageScore())
	if l.LearningGoals != "" {
		fmt.Printf("Goals:   %s\n", l.LearningGoals)
	}

	fmt.Println("\nLessons")
	fmt.Println("-------")
	for _, lesson := range a.lessons.List() {
		score, done := l.CompletedLessons[lesson.ID]
		if !done {
			fmt.Printf("%-32s %s  not started\n", lesson.Title, renderProgressBar(0, 20))
			continue
		}
		fmt.Printf("%-32s %s %3d%%\n", lesson.Title, renderProgressBar(float64(score)/100, 20), score)
	}
	return nil
}

// cmdSeed stores the demo class
func cmdSeed() error {
	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.progress.SeedDemo(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Seeded %d demo learner(s)\n", n)
	return nil
}

// cmdDashboard runs the AI weak-topic analysis and recommendations for a learner
func cmdDashboard(args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	svc := a.insights()
	if svc == nil {
		return errNoAPIKey
	}

	id := a.cfg.Learner.ID
	if len(args) > 0 {
		id = args[0]
	}

	fmt.Println("Analyzing...")
	start := time.Now()
	d, err := svc.Dashboard(ctx, id)
	if err != nil {
		return err
	}

	fmt.Println("\nWeak Topics")
	fmt.Println("-----------")
	fmt.Println(d.WeakTopics.Text)
	fmt.Println("\nRecommendations")
	fmt.Println("---------------")
	fmt.Println(d.Recommendations.Text)
	fmt.Printf("\n(%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// cmdActivity prints interaction counts from the local database
func cmdActivity() error {
	ctx := context.Background()
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.interactions == nil {
		return fmt.Errorf("activity requires the sqlite storage driver")
	}
	counts, err := a.interactions.CountByEvent(ctx)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		fmt.Println("No activity recorded yet.")
		return nil
	}

	events := make([]interaction.Event, 0, len(counts))
	for e := range counts {
		events = append(events, e)
	}
	sort.Slice(events, func(i, j int) bool { return counts[events[i]] > counts[events[j]] })

	fmt.Println("Activity")
	fmt.Println("========")
	for _, e := range events {
		fmt.Printf("%-30s %d\n", e, counts[e])
	}

	recent, err := a.interactions.Query(ctx, a.cfg.Learner.ID, "", time.Now().AddDate(0, 0, -7))
	if err != nil {
		return err
	}
	fmt.Printf("\nYour interactions this week: %d\n", len(recent))
	return nil
}
