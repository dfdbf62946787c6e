// Package insights produces AI analyses of learner and class progress.
package insights

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/felixgeelhaar/lingo/internal/domain"
	"github.com/felixgeelhaar/lingo/internal/enrichment"
	"github.com/felixgeelhaar/lingo/internal/interaction"
	"golang.org/x/sync/errgroup"
)

// ClassScope is the slot scope used for class-wide analysis
const ClassScope = "class"

// WeakScoreThreshold is the score below which a lesson counts as a weak topic
const WeakScoreThreshold = 75

// LearnerScope returns the slot scope for a learner's analyses
func LearnerScope(learnerID string) string {
	return "learner:" + learnerID
}

// LearnerSource reads learner progress; *progress.Service implements it
type LearnerSource interface {
	Learner(ctx context.Context, id string) (*domain.Learner, error)
	Leaderboard(ctx context.Context, limit int) ([]*domain.Learner, error)
}

// LessonLister lists the catalog; *catalog.Registry implements it
type LessonLister interface {
	List() []*domain.Lesson
}

// Config wires the insights service
type Config struct {
	Enrichment *enrichment.Client
	Learners   LearnerSource
	Lessons    LessonLister
	Recorder   interaction.Recorder
	Logger     *slog.Logger
}

// Service requests analyses into their own enrichment slots
type Service struct {
	enrich   *enrichment.Client
	learners LearnerSource
	lessons  LessonLister
	recorder interaction.Recorder
	logger   *slog.Logger
}

// NewService creates an insights service
func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		enrich:   cfg.Enrichment,
		learners: cfg.Learners,
		lessons:  cfg.Lessons,
		recorder: cfg.Recorder,
		logger:   cfg.Logger.With("component", "insights"),
	}
}

// WeakTopics analyzes a learner's quiz history in plain text mode
func (s *Service) WeakTopics(ctx context.Context, learnerID string) (<-chan enrichment.Result, error) {
	learner, err := s.learners.Learner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("weak topics for %s: %w", learnerID, err)
	}
	s.record(ctx, learnerID, interaction.EventAIAnalysisRequested, map[string]any{"kind": string(enrichment.KindWeakTopics)})
	prompt := enrichment.WeakTopicsPrompt(learner, s.lessons.List())
	return s.request(ctx, LearnerScope(learnerID), enrichment.KindWeakTopics, prompt), nil
}

// Recommendations suggests next lessons in thinking mode. Weak topics are
// taken from the learner's low scores so the call does not wait on WeakTopics.
func (s *Service) Recommendations(ctx context.Context, learnerID string) (<-chan enrichment.Result, error) {
	learner, err := s.learners.Learner(ctx, learnerID)
	if err != nil {
		return nil, fmt.Errorf("recommendations for %s: %w", learnerID, err)
	}
	s.record(ctx, learnerID, interaction.EventAIRecommendationsRequested, nil)
	weak := LowScoreTopics(learner, s.lessons.List(), WeakScoreThreshold)
	prompt := enrichment.RecommendationsPrompt(learner, weak)
	return s.request(ctx, LearnerScope(learnerID), enrichment.KindRecommendations, prompt), nil
}

// ClassAnalysis analyzes the whole class with search grounding
func (s *Service) ClassAnalysis(ctx context.Context) (<-chan enrichment.Result, error) {
	learners, err := s.learners.Leaderboard(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("class analysis: %w", err)
	}
	s.record(ctx, "", interaction.EventAIAnalysisRequested, map[string]any{"kind": string(enrichment.KindClassAnalysis)})
	hardest := HardestLesson(learners, s.lessons.List())
	prompt := enrichment.ClassAnalysisPrompt(learners, hardest)
	return s.request(ctx, ClassScope, enrichment.KindClassAnalysis, prompt), nil
}

// State returns the slot state for scope and kind
func (s *Service) State(scope string, kind enrichment.Kind) enrichment.SlotState {
	return s.enrich.Board().State(enrichment.SlotKey{Scope: scope, Kind: kind})
}

// Dashboard is a learner's combined analysis
type Dashboard struct {
	LearnerID       string
	WeakTopics      enrichment.Result
	Recommendations enrichment.Result
}

// Dashboard fetches weak topics and recommendations concurrently and waits for both
func (s *Service) Dashboard(ctx context.Context, learnerID string) (*Dashboard, error) {
	d := &Dashboard{LearnerID: learnerID}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ch, err := s.WeakTopics(gctx, learnerID)
		if err != nil {
			return err
		}
		return await(gctx, ch, &d.WeakTopics)
	})
	g.Go(func() error {
		ch, err := s.Recommendations(gctx, learnerID)
		if err != nil {
			return err
		}
		return await(gctx, ch, &d.Recommendations)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return d, nil
}

func await(ctx context.Context, ch <-chan enrichment.Result, out *enrichment.Result) error {
	select {
	case r := <-ch:
		*out = r
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) request(ctx context.Context, scope string, kind enrichment.Kind, prompt string) <-chan enrichment.Result {
	return s.enrich.Request(ctx, enrichment.SlotKey{Scope: scope, Kind: kind}, kind, prompt)
}

func (s *Service) record(ctx context.Context, learnerID string, event interaction.Event, data map[string]any) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, interaction.New(learnerID, event, data)); err != nil {
		s.logger.Warn("interaction not recorded", "event", string(event), "error", err)
	}
}

// HardestLesson returns the attempted lesson with the lowest average score,
// or nil when no learner attempted a catalog lesson. Ties go to catalog order.
func HardestLesson(learners []*domain.Learner, lessons []*domain.Lesson) *domain.Lesson {
	var (
		hardest *domain.Lesson
		lowest  float64
	)
	for _, lesson := range lessons {
		total, n := 0, 0
		for _, l := range learners {
			if score, ok := l.CompletedLessons[lesson.ID]; ok {
				total += score
				n++
			}
		}
		if n == 0 {
			continue
		}
		avg := float64(total) / float64(n)
		if hardest == nil || avg < lowest {
			hardest, lowest = lesson, avg
		}
	}
	return hardest
}

// LowScoreTopics lists the titles of lessons the learner scored below
// threshold on, lowest first. Empty when there are none.
func LowScoreTopics(learner *domain.Learner, lessons []*domain.Lesson, threshold int) string {
	type weak struct {
		title string
		score int
	}
	var found []weak
	for _, lesson := range lessons {
		if score, ok := learner.CompletedLessons[lesson.ID]; ok && score < threshold {
			found = append(found, weak{lesson.Title, score})
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].score < found[j].score })

	parts := make([]string, len(found))
	for i, w := range found {
		parts[i] = fmt.Sprintf("%s (%d%%)", w.title, w.score)
	}
	return strings.Join(parts, ", ")
}
