package catalog

import (
	"errors"
	"testing"
	"testing/fstest"

	"github.com/felixgeelhaar/lingo/internal/domain"
)

func TestBuiltinLoader_LoadAll(t *testing.T) {
	entries, err := BuiltinLoader().LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("len(entries) = %d, want 4", len(entries))
	}

	wantIDs := []string{"lesson-1", "lesson-2", "lesson-3", "lesson-4"}
	for i, id := range wantIDs {
		if entries[i].Lesson.ID != id {
			t.Errorf("entries[%d].ID = %q, want %q", i, entries[i].Lesson.ID, id)
		}
	}
}

func TestBuiltinLoader_Greetings(t *testing.T) {
	entry, err := BuiltinLoader().LoadLesson("lesson-1.yaml")
	if err != nil {
		t.Fatalf("LoadLesson() error = %v", err)
	}
	l := entry.Lesson

	if l.Title != "Greetings & Introductions" {
		t.Errorf("Title = %q", l.Title)
	}
	if l.Difficulty != domain.DifficultyBeginner {
		t.Errorf("Difficulty = %q, want Beginner", l.Difficulty)
	}
	if len(l.Steps) != 5 || len(l.Quiz) != 3 {
		t.Fatalf("steps/quiz = %d/%d, want 5/3", len(l.Steps), len(l.Quiz))
	}

	first := l.Steps[0]
	if first.Kind != domain.StepVocabulary || first.Word != "Hello" || first.Translation != "Merhaba" {
		t.Errorf("Steps[0] = %+v", first)
	}
	if first.ImageRef != "https://picsum.photos/seed/hello/400" {
		t.Errorf("ImageRef = %q", first.ImageRef)
	}
	if l.Steps[2].Kind != domain.StepPhrase || l.Steps[2].Phrase != "What's your name?" {
		t.Errorf("Steps[2] = %+v", l.Steps[2])
	}

	listening := l.Quiz[2]
	if listening.Kind != domain.QuestionListening || listening.AudioText != "Goodbye" {
		t.Errorf("Quiz[2] = %+v", listening)
	}
	if len(listening.Options) != 3 || listening.CorrectAnswer != "Goodbye" {
		t.Errorf("Quiz[2] options/answer = %v/%q", listening.Options, listening.CorrectAnswer)
	}
}

func TestLoader_LoadLesson_Errors(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.yaml":  {Data: []byte("id: [unterminated")},
		"invalid.yaml": {Data: []byte("id: x\ndifficulty: Expert\n")},
		"badstep.yaml": {Data: []byte("id: y\ndifficulty: Beginner\nsteps:\n  - type: video\n")},
	}
	l := NewLoader(fsys)

	if _, err := l.LoadLesson("missing.yaml"); err == nil {
		t.Error("LoadLesson(missing) expected error")
	}
	if _, err := l.LoadLesson("broken.yaml"); err == nil {
		t.Error("LoadLesson(broken) expected parse error")
	}
	if _, err := l.LoadLesson("invalid.yaml"); !errors.Is(err, domain.ErrInvalidLesson) {
		t.Errorf("LoadLesson(invalid) error = %v, want ErrInvalidLesson", err)
	}
	if _, err := l.LoadLesson("badstep.yaml"); !errors.Is(err, domain.ErrInvalidLesson) {
		t.Errorf("LoadLesson(badstep) error = %v, want ErrInvalidLesson", err)
	}
}

func TestLoader_IDFromFilename(t *testing.T) {
	fsys := fstest.MapFS{
		"colors.yml": {Data: []byte("title: Colors\ndifficulty: Beginner\nquiz:\n  - type: fill-in-the-blank\n    question: The sky is ____.\n    correct_answer: blue\n")},
		"README.md":  {Data: []byte("not a lesson")},
	}

	entries, err := NewLoader(fsys).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Lesson.ID != "colors" {
		t.Errorf("ID = %q, want colors", entries[0].Lesson.ID)
	}
	if len(entries[0].Lesson.Steps) != 0 {
		t.Errorf("Steps = %v, want none", entries[0].Lesson.Steps)
	}
}

func TestNewDirLoader_MissingDir(t *testing.T) {
	entries, err := NewDirLoader(t.TempDir() + "/does-not-exist").LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() on missing dir error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}
