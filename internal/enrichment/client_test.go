package enrichment

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/lingo/internal/content"
	"github.com/felixgeelhaar/lingo/internal/domain"
)

// gatedGenerator blocks each prompt until its gate is released,
// giving tests control over completion order.
type gatedGenerator struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
	modes []Mode
}

func newGatedGenerator() *gatedGenerator {
	return &gatedGenerator{gates: make(map[string]chan struct{})}
}

func (g *gatedGenerator) gate(prompt string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[prompt]
	if !ok {
		ch = make(chan struct{})
		g.gates[prompt] = ch
	}
	return ch
}

func (g *gatedGenerator) release(prompt string) { close(g.gate(prompt)) }

func (g *gatedGenerator) wait(mode Mode, prompt string) {
	g.mu.Lock()
	g.modes = append(g.modes, mode)
	g.mu.Unlock()
	<-g.gate(prompt)
}

func (g *gatedGenerator) GenerateText(ctx context.Context, prompt string) string {
	g.wait(ModeText, prompt)
	return "text:" + prompt
}

func (g *gatedGenerator) GenerateTextWithSearch(ctx context.Context, prompt string) content.SearchResult {
	g.wait(ModeSearch, prompt)
	return content.SearchResult{
		Text:    "search:" + prompt,
		Sources: []content.Source{{Title: "src", URI: "https://example.org/" + prompt}},
	}
}

func (g *gatedGenerator) GenerateTextWithThinking(ctx context.Context, prompt string) string {
	g.wait(ModeThinking, prompt)
	return "thinking:" + prompt
}

func receive(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case r := <-ch:
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for enrichment result")
		return Result{}
	}
}

func TestClient_Request(t *testing.T) {
	gen := newGatedGenerator()
	c := NewClient(gen, NewBoard(), nil)
	key := SlotKey{Scope: "s1", Kind: KindExample}

	ch := c.Request(context.Background(), key, KindExample, "hello")
	if st := c.Board().State(key); !st.Loading || st.Result != nil {
		t.Errorf("State() while in flight = %+v, want loading and empty", st)
	}

	gen.release("hello")
	res := receive(t, ch)
	if res.Text != "text:hello" {
		t.Errorf("Text = %q, want text:hello", res.Text)
	}

	st := c.Board().State(key)
	if st.Loading {
		t.Error("Loading should be cleared after settle")
	}
	if st.Result == nil || st.Result.Text != "text:hello" {
		t.Errorf("Result = %+v", st.Result)
	}
}

func TestClient_ModePerKind(t *testing.T) {
	tests := []struct {
		kind Kind
		want Mode
	}{
		{KindInfo, ModeSearch},
		{KindExample, ModeText},
		{KindClassAnalysis, ModeSearch},
		{KindWeakTopics, ModeText},
		{KindRecommendations, ModeThinking},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			gen := newGatedGenerator()
			c := NewClient(gen, NewBoard(), nil)
			gen.release("p")

			res := receive(t, c.Request(context.Background(), SlotKey{Kind: tt.kind}, tt.kind, "p"))
			if !strings.HasPrefix(res.Text, string(tt.want)+":") {
				t.Errorf("Text = %q, want %s mode", res.Text, tt.want)
			}
			if tt.want == ModeSearch && len(res.Sources) != 1 {
				t.Errorf("Sources = %v, want one source", res.Sources)
			}
		})
	}
}

func TestClient_LastToResolveWins(t *testing.T) {
	gen := newGatedGenerator()
	c := NewClient(gen, NewBoard(), nil)
	key := SlotKey{Scope: "s1", Kind: KindInfo, Generation: 3}

	first := c.Request(context.Background(), key, KindInfo, "first")
	second := c.Request(context.Background(), key, KindInfo, "second")

	// the later-issued request resolves first
	gen.release("second")
	receive(t, second)

	st := c.Board().State(key)
	if !st.Loading {
		t.Error("Loading should stay set while the first request is in flight")
	}
	if st.Result == nil || st.Result.Text != "search:second" {
		t.Fatalf("Result after second settles = %+v", st.Result)
	}

	gen.release("first")
	receive(t, first)

	st = c.Board().State(key)
	if st.Loading {
		t.Error("Loading should be cleared after both settle")
	}
	if st.Result == nil || st.Result.Text != "search:first" {
		t.Errorf("Result = %+v, want the later-resolving first request", st.Result)
	}
}

func TestClient_SlotsAreIndependent(t *testing.T) {
	gen := newGatedGenerator()
	c := NewClient(gen, NewBoard(), nil)
	info := SlotKey{Scope: "s1", Kind: KindInfo}
	example := SlotKey{Scope: "s1", Kind: KindExample}

	infoCh := c.Request(context.Background(), info, KindInfo, "i")
	exampleCh := c.Request(context.Background(), example, KindExample, "e")

	gen.release("e")
	receive(t, exampleCh)

	if !c.Board().State(info).Loading {
		t.Error("info slot should still be loading")
	}
	if c.Board().State(example).Loading {
		t.Error("example slot should be settled")
	}

	gen.release("i")
	receive(t, infoCh)
	if c.Board().State(info).Loading {
		t.Error("info slot should be settled")
	}
}

func TestClient_StaleResultDiscarded(t *testing.T) {
	gen := newGatedGenerator()
	board := NewBoard()
	c := NewClient(gen, board, nil)
	old := SlotKey{Scope: "s1", Kind: KindInfo, Generation: 0}

	ch := c.Request(context.Background(), old, KindInfo, "stale")
	board.Drop(func(k SlotKey) bool { return k.Generation == 0 })

	gen.release("stale")
	res := receive(t, ch)
	if res.Text != "search:stale" {
		t.Errorf("caller should still receive its result, got %q", res.Text)
	}
	if st := board.State(old); st.Loading || st.Result != nil {
		t.Errorf("dropped slot = %+v, want idle and empty", st)
	}
	if board.Len() != 0 {
		t.Errorf("Len() = %d, want 0", board.Len())
	}
}

func TestBoard_BeginClearsResult(t *testing.T) {
	b := NewBoard()
	key := SlotKey{Scope: "x", Kind: KindExample}

	b.Begin(key)
	b.Settle(key, Result{Text: "old"})
	b.Begin(key)

	st := b.State(key)
	if !st.Loading || st.Result != nil {
		t.Errorf("State() = %+v, want loading with no result", st)
	}
}

func TestBoard_DropScope(t *testing.T) {
	b := NewBoard()
	b.Begin(SlotKey{Scope: "a", Kind: KindInfo})
	b.Begin(SlotKey{Scope: "a", Kind: KindExample})
	b.Begin(SlotKey{Scope: "b", Kind: KindInfo})

	if n := b.DropScope("a"); n != 2 {
		t.Errorf("DropScope() = %d, want 2", n)
	}
	if b.Len() != 1 {
		t.Errorf("Len() = %d, want 1", b.Len())
	}
}

func TestPrompts(t *testing.T) {
	vocab := domain.VocabularyStep("Menu", "Menü", "img")
	phrase := domain.PhraseStep("The check, please.", "Hesap, lütfen.")

	if p := InfoPrompt(vocab); !strings.Contains(p, `English word "Menu"`) || !strings.Contains(p, "Turkish-speaking") {
		t.Errorf("InfoPrompt() = %q", p)
	}
	if p := ExamplePrompt(phrase); !strings.Contains(p, `English phrase "The check, please."`) ||
		!strings.Contains(p, "<p><strong>Turkish:</strong>") {
		t.Errorf("ExamplePrompt() = %q", p)
	}

	learner := domain.NewLearner("s1", "Ayşe")
	learner.Age = 24
	learner.RecordCompletion("lesson-1", 40)
	lessons := []*domain.Lesson{
		{ID: "lesson-1", Title: "Greetings & Introductions"},
		{ID: "lesson-2", Title: "At the Restaurant"},
	}

	weak := WeakTopicsPrompt(learner, lessons)
	if !strings.Contains(weak, "Lesson 'Greetings & Introductions': Score 40%.") {
		t.Errorf("WeakTopicsPrompt() missing history: %q", weak)
	}
	if strings.Contains(weak, "At the Restaurant") {
		t.Error("WeakTopicsPrompt() should only list completed lessons")
	}

	rec := RecommendationsPrompt(learner, "")
	if !strings.Contains(rec, "- Age: 24") || !strings.Contains(rec, "- Completed Lessons: lesson-1") ||
		!strings.Contains(rec, "None identified yet.") {
		t.Errorf("RecommendationsPrompt() = %q", rec)
	}

	class := ClassAnalysisPrompt([]*domain.Learner{learner}, lessons[0])
	if !strings.Contains(class, `"completedLessons":1`) || !strings.Contains(class, "Total Students: 1") ||
		!strings.Contains(class, "<h4>") {
		t.Errorf("ClassAnalysisPrompt() = %q", class)
	}
	if p := ClassAnalysisPrompt(nil, nil); !strings.Contains(p, "none identified yet") {
		t.Errorf("ClassAnalysisPrompt(nil) = %q", p)
	}
}

type panickingGenerator struct{}

func (panickingGenerator) GenerateText(context.Context, string) string { panic("provider exploded") }

func (panickingGenerator) GenerateTextWithSearch(context.Context, string) content.SearchResult {
	panic("provider exploded")
}

func (panickingGenerator) GenerateTextWithThinking(context.Context, string) string {
	panic("provider exploded")
}

func TestClient_PanicSettlesWithFallback(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindExample, content.FallbackText},
		{KindInfo, content.FallbackSearch},
		{KindRecommendations, content.FallbackThinking},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			c := NewClient(panickingGenerator{}, NewBoard(), nil)
			key := SlotKey{Scope: "s1", Kind: tt.kind}

			res := receive(t, c.Request(context.Background(), key, tt.kind, "p"))
			if res.Text != tt.want {
				t.Errorf("Text = %q, want %q", res.Text, tt.want)
			}

			st := c.Board().State(key)
			if st.Loading {
				t.Error("Loading should be cleared after a panic")
			}
			if st.Result == nil || st.Result.Text != tt.want {
				t.Errorf("Result = %+v", st.Result)
			}
		})
	}
}
