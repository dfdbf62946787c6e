// Package mcp exposes lesson sessions as Model Context Protocol tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/lingo/internal/domain"
	"github.com/felixgeelhaar/lingo/internal/enrichment"
	"github.com/felixgeelhaar/lingo/internal/insights"
	"github.com/felixgeelhaar/lingo/internal/session"
	mcp "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/server"
)

var ErrNoInsights = errors.New("insights not configured")

// LessonCatalog lists and resolves lessons; *catalog.Registry implements it
type LessonCatalog interface {
	List() []*domain.Lesson
	Get(id string) (*domain.Lesson, error)
}

// Leaderboard ranks learners; *progress.Service implements it
type Leaderboard interface {
	Leaderboard(ctx context.Context, limit int) ([]*domain.Learner, error)
}

// Server wraps the MCP server with lingo functionality
type Server struct {
	mcpServer   *server.Server
	sessions    *session.Manager
	lessons     LessonCatalog
	leaderboard Leaderboard
	insights    *insights.Service
	logger      *slog.Logger
}

// Config contains configuration for the MCP server
type Config struct {
	Sessions    *session.Manager
	Lessons     LessonCatalog
	Leaderboard Leaderboard
	Insights    *insights.Service
	Version     string
	Logger      *slog.Logger
}

// NewServer creates a new MCP server for lingo
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	s := &Server{
		sessions:    cfg.Sessions,
		lessons:     cfg.Lessons,
		leaderboard: cfg.Leaderboard,
		insights:    cfg.Insights,
		logger:      cfg.Logger.With("component", "mcp"),
	}

	s.mcpServer = server.New(server.Info{
		Name:    "lingo",
		Version: cfg.Version,
	}, server.WithInstructions(`
Lingo teaches English to Turkish speakers through short lessons.
A lesson is a sequence of vocabulary and phrase steps followed by a quiz.

Typical flow:
1. lingo_lessons to pick a lesson, then lingo_start
2. lingo_next / lingo_prev to move through the steps
3. lingo_info and lingo_example for AI explanations of the current step
4. lingo_pronounce to hear a word or a listening question
5. lingo_answer for each quiz question, then lingo_submit
6. lingo_finish to save the score to the learner's progress
`))

	s.registerTools()
	return s
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("lingo_lessons").
		Description("List available lessons with their difficulty and size.").
		Handler(s.handleLessons)

	s.mcpServer.Tool("lingo_start").
		Description("Start a lesson session.").
		Handler(s.handleStart)

	s.mcpServer.Tool("lingo_next").
		Description("Move to the next step. After the last step the quiz begins.").
		Handler(s.handleNext)

	s.mcpServer.Tool("lingo_prev").
		Description("Move back one step.").
		Handler(s.handlePrev)

	s.mcpServer.Tool("lingo_status").
		Description("Show the current step or quiz of a session.").
		Handler(s.handleStatus)

	s.mcpServer.Tool("lingo_answer").
		Description("Answer a quiz question by index.").
		Handler(s.handleAnswer)

	s.mcpServer.Tool("lingo_submit").
		Description("Submit the quiz and get the score.").
		Handler(s.handleSubmit)

	s.mcpServer.Tool("lingo_finish").
		Description("Finish a scored lesson and record progress. Ends the session.").
		Handler(s.handleFinish)

	s.mcpServer.Tool("lingo_info").
		Description("Get a definition, usage tips and examples for the current step, with web sources.").
		Handler(s.handleInfo)

	s.mcpServer.Tool("lingo_example").
		Description("Get a fresh example sentence for the current step.").
		Handler(s.handleExample)

	s.mcpServer.Tool("lingo_pronounce").
		Description("Speak a word, the current step, or a listening question.").
		Handler(s.handlePronounce)

	s.mcpServer.Tool("lingo_leaderboard").
		Description("Show learners ranked by points.").
		Handler(s.handleLeaderboard)

	s.mcpServer.Tool("lingo_dashboard").
		Description("Analyze a learner's weak topics and recommend next lessons.").
		Handler(s.handleDashboard)

	s.mcpServer.Tool("lingo_class_analysis").
		Description("Analyze class performance with cited teaching resources.").
		Handler(s.handleClassAnalysis)
}

// Input/Output types for tools

type LessonsInput struct {
	Difficulty string `json:"difficulty,omitempty" jsonschema:"description=Filter by difficulty,enum=Beginner,enum=Intermediate,enum=Advanced"`
}

type LessonSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Difficulty string `json:"difficulty"`
	Steps      int    `json:"steps"`
	Questions  int    `json:"questions"`
}

type LessonsOutput struct {
	Lessons []LessonSummary `json:"lessons"`
}

type StartInput struct {
	LessonID  string `json:"lesson_id" jsonschema:"description=Lesson ID from lingo_lessons"`
	LearnerID string `json:"learner_id,omitempty" jsonschema:"description=Learner taking the lesson (defaults to the configured learner)"`
}

type SessionInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from lingo_start"`
}

type StepView struct {
	Kind        string `json:"kind"`
	Term        string `json:"term"`
	Translation string `json:"translation"`
	Image       string `json:"image,omitempty"`
}

type QuestionView struct {
	Index    int      `json:"index"`
	Kind     string   `json:"kind"`
	Question string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   *string  `json:"answer,omitempty"`
}

type StatusOutput struct {
	SessionID string         `json:"session_id"`
	LessonID  string         `json:"lesson_id"`
	Title     string         `json:"title"`
	Phase     string         `json:"phase"`
	StepIndex int            `json:"step_index"`
	StepCount int            `json:"step_count"`
	Step      *StepView      `json:"step,omitempty"`
	Questions []QuestionView `json:"questions,omitempty"`
	Score     *int           `json:"score,omitempty"`
	Summary   string         `json:"summary,omitempty"`
}

type AnswerInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from lingo_start"`
	Question  int    `json:"question" jsonschema:"description=Zero-based question index"`
	Answer    string `json:"answer" jsonschema:"description=The learner's answer"`
}

type AnswerOutput struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

type SubmitOutput struct {
	Score   int    `json:"score"`
	Correct int    `json:"correct"`
	Total   int    `json:"total"`
	Passed  bool   `json:"passed"`
	Summary string `json:"summary"`
}

type FinishOutput struct {
	LessonID string `json:"lesson_id"`
	Score    int    `json:"score"`
	Message  string `json:"message"`
}

type SourceView struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type EnrichmentOutput struct {
	Text    string       `json:"text"`
	Sources []SourceView `json:"sources,omitempty"`
}

type PronounceInput struct {
	SessionID string `json:"session_id" jsonschema:"description=Session ID from lingo_start"`
	Text      string `json:"text,omitempty" jsonschema:"description=Text to speak (defaults to the current step)"`
	Question  *int   `json:"question,omitempty" jsonschema:"description=Listening question index to play"`
}

type PronounceOutput struct {
	Text    string `json:"text"`
	Message string `json:"message"`
}

type LeaderboardInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"description=Maximum number of learners (default: all)"`
}

type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	Name    string `json:"name"`
	Points  int    `json:"points"`
	Lessons int    `json:"lessons"`
}

type LeaderboardOutput struct {
	Entries []LeaderboardEntry `json:"entries"`
}

type DashboardInput struct {
	LearnerID string `json:"learner_id" jsonschema:"description=Learner to analyze"`
}

type DashboardOutput struct {
	WeakTopics      string `json:"weak_topics"`
	Recommendations string `json:"recommendations"`
}

type ClassAnalysisInput struct{}

// Tool handlers

func (s *Server) handleLessons(_ context.Context, input LessonsInput) (LessonsOutput, error) {
	out := LessonsOutput{Lessons: []LessonSummary{}}
	for _, l := range s.lessons.List() {
		if input.Difficulty != "" && string(l.Difficulty) != input.Difficulty {
			continue
		}
		out.Lessons = append(out.Lessons, LessonSummary{
			ID:         l.ID,
			Title:      l.Title,
			Difficulty: string(l.Difficulty),
			Steps:      len(l.Steps),
			Questions:  len(l.Quiz),
		})
	}
	return out, nil
}

func (s *Server) handleStart(ctx context.Context, input StartInput) (StatusOutput, error) {
	var (
		sess *session.LessonSession
		err  error
	)
	if input.LearnerID != "" {
		sess, err = s.sessions.StartSessionFor(ctx, input.LearnerID, input.LessonID)
	} else {
		sess, err = s.sessions.StartSession(ctx, input.LessonID)
	}
	if err != nil {
		return StatusOutput{}, fmt.Errorf("failed to start lesson: %w", err)
	}
	return s.status(sess), nil
}

func (s *Server) handleNext(_ context.Context, input SessionInput) (StatusOutput, error) {
	sess, err := s.sessions.Lookup(input.SessionID)
	if err != nil {
		return StatusOutput{}, err
	}
	if err := sess.Advance(); err != nil {
		return StatusOutput{}, err
	}
	return s.status(sess), nil
}

func (s *Server) handlePrev(_ context.Context, input SessionInput) (StatusOutput, error) {
	sess, err := s.sessions.Lookup(input.SessionID)
	if err != nil {
		return StatusOutput{}, err
	}
	if err := sess.Retreat(); err != nil {
		return StatusOutput{}, err
	}
	return s.status(sess), nil
}

func (s *Server) handleStatus(_ context.Context, input SessionInput) (StatusOutput, error) {
	sess, err := s.sessions.Lookup(input.SessionID)
	if err != nil {
		return StatusOutput{}, err
	}
	return s.status(sess), nil
}

func (s *Server) handleAnswer(_ context.Context, input AnswerInput) (AnswerOutput, error) {
	sess, err := s.sessions.Lookup(input.SessionID)
	if err != nil {
		return AnswerOutput{}, err
	}
	total := len(sess.Lesson().Quiz)
	// out-of-range indices panic inside the session; tool callers get an error
	if input.Question < 0 || input.Question >= total {
		return AnswerOutput{}, fmt.Errorf("question %d out of range: quiz has %d questions", input.Question, total)
	}
	if err := sess.RecordAnswer(input.Question, input.Answer); err != nil {
		return AnswerOutput{}, err
	}

	answered := 0
	for _, a := range sess.Snapshot().Answers {
		if a != nil {
			answered++
		}
	}
	return AnswerOutput{Answered: answered, Total: total}, nil
}

func (s *Server) handleSubmit(_ context.Context, input SessionInput) (SubmitOutput, error) {
	sess, err := s.sessions.Lookup(input.SessionID)
	if err != nil {
		return SubmitOutput{}, err
	}
	if _, err := sess.Submit(); err != nil {
		return SubmitOutput{}, err
	}
	r, err := sess.Result()
	if err != nil {
		return SubmitOutput{}, err
	}
	return SubmitOutput{
		Score:   r.Score,
		Correct: r.Correct,
		Total:   r.Total,
		Passed:  r.Passed(),
		Summary: r.Summary(),
	}, nil
}

func (s *Server) handleFinish(_ context.Context, input SessionInput) (FinishOutput, error) {
	sess, err := s.sessions.Lookup(input.SessionID)
	if err != nil {
		return FinishOutput{}, err
	}
	if err := sess.Finish(); err != nil {
		return FinishOutput{}, err
	}
	r, _ := sess.Result()
	if err := s.sessions.End(sess.ID()); err != nil {
		s.logger.Warn("end session failed", "session_id", sess.ID(), "error", err)
	}
	return FinishOutput{
		LessonID: sess.LessonID(),
		Score:    r.Score,
		Message:  fmt.Sprintf("Lesson complete! You scored %d points.", r.Score),
	}, nil
}

func (s *Server) handleInfo(ctx context.Context, input SessionInput) (EnrichmentOutput, error) {
	return s.enrich(ctx, input.SessionID, enrichment.KindInfo)
}

func (s *Server) handleExample(ctx context.Context, input SessionInput) (EnrichmentOutput, error) {
	return s.enrich(ctx, input.SessionID, enrichment.KindExample)
}

func (s *Server) enrich(ctx context.Context, sessionID string, kind enrichment.Kind) (EnrichmentOutput, error) {
	sess, err := s.sessions.Lookup(sessionID)
	if err != nil {
		return EnrichmentOutput{}, err
	}
	ch, err := sess.RequestEnrichment(ctx, kind)
	if err != nil {
		return EnrichmentOutput{}, err
	}
	select {
	case r := <-ch:
		return enrichmentOutput(r), nil
	case <-ctx.Done():
		return EnrichmentOutput{}, ctx.Err()
	}
}

func (s *Server) handlePronounce(ctx context.Context, input PronounceInput) (PronounceOutput, error) {
	sess, err := s.sessions.Lookup(input.SessionID)
	if err != nil {
		return PronounceOutput{}, err
	}

	text := input.Text
	switch {
	case text != "":
	case input.Question != nil:
		quiz := sess.Lesson().Quiz
		q := *input.Question
		if q < 0 || q >= len(quiz) || quiz[q].Kind != domain.QuestionListening {
			return PronounceOutput{}, fmt.Errorf("question %d is not a listening question", q)
		}
		text = quiz[q].AudioText
	default:
		snap := sess.Snapshot()
		if snap.Step == nil {
			return PronounceOutput{}, fmt.Errorf("no current step to pronounce: %w", session.ErrInvalidPhase)
		}
		text = snap.Step.Term()
	}

	select {
	case <-sess.PlayPronunciation(ctx, text):
	case <-ctx.Done():
		return PronounceOutput{}, ctx.Err()
	}
	return PronounceOutput{Text: text, Message: "Played pronunciation"}, nil
}

func (s *Server) handleLeaderboard(ctx context.Context, input LeaderboardInput) (LeaderboardOutput, error) {
	if s.leaderboard == nil {
		return LeaderboardOutput{Entries: []LeaderboardEntry{}}, nil
	}
	learners, err := s.leaderboard.Leaderboard(ctx, input.Limit)
	if err != nil {
		return LeaderboardOutput{}, err
	}
	out := LeaderboardOutput{Entries: make([]LeaderboardEntry, len(learners))}
	for i, l := range learners {
		out.Entries[i] = LeaderboardEntry{
			Rank:    i + 1,
			Name:    l.Name,
			Points:  l.Points,
			Lessons: len(l.CompletedLessons),
		}
	}
	return out, nil
}

func (s *Server) handleDashboard(ctx context.Context, input DashboardInput) (DashboardOutput, error) {
	if s.insights == nil {
		return DashboardOutput{}, ErrNoInsights
	}
	d, err := s.insights.Dashboard(ctx, input.LearnerID)
	if err != nil {
		return DashboardOutput{}, err
	}
	return DashboardOutput{
		WeakTopics:      d.WeakTopics.Text,
		Recommendations: d.Recommendations.Text,
	}, nil
}

func (s *Server) handleClassAnalysis(ctx context.Context, _ ClassAnalysisInput) (EnrichmentOutput, error) {
	if s.insights == nil {
		return EnrichmentOutput{}, ErrNoInsights
	}
	ch, err := s.insights.ClassAnalysis(ctx)
	if err != nil {
		return EnrichmentOutput{}, err
	}
	select {
	case r := <-ch:
		return enrichmentOutput(r), nil
	case <-ctx.Done():
		return EnrichmentOutput{}, ctx.Err()
	}
}

func (s *Server) status(sess *session.LessonSession) StatusOutput {
	snap := sess.Snapshot()
	out := StatusOutput{
		SessionID: snap.ID.String(),
		LessonID:  snap.LessonID,
		Title:     snap.LessonTitle,
		Phase:     string(snap.Phase),
		StepIndex: snap.StepIndex,
		StepCount: snap.StepCount,
	}
	if snap.Step != nil {
		out.Step = &StepView{
			Kind:        string(snap.Step.Kind),
			Term:        snap.Step.Term(),
			Translation: snap.Step.Translation,
			Image:       snap.Step.ImageRef,
		}
	}
	if snap.Phase != session.PhaseStepping {
		for i, q := range sess.Lesson().Quiz {
			out.Questions = append(out.Questions, QuestionView{
				Index:    i,
				Kind:     string(q.Kind),
				Question: q.Question,
				Options:  q.Options,
				Answer:   snap.Answers[i],
			})
		}
	}
	if snap.Result != nil {
		score := snap.Result.Score
		out.Score = &score
		out.Summary = snap.Result.Summary()
	}
	return out
}

func enrichmentOutput(r enrichment.Result) EnrichmentOutput {
	out := EnrichmentOutput{Text: r.Text}
	for _, src := range r.Sources {
		out.Sources = append(out.Sources, SourceView{Title: src.Title, URI: src.URI})
	}
	return out
}

// ServeStdio starts the MCP server on stdio
func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}

// ServeHTTP starts the MCP server on HTTP
func (s *Server) ServeHTTP(ctx context.Context, addr string) error {
	return mcp.ServeHTTP(ctx, s.mcpServer, addr)
}

// GetMCPServer returns the underlying MCP server
func (s *Server) GetMCPServer() *server.Server {
	return s.mcpServer
}
