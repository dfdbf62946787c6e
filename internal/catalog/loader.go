// Package catalog loads and serves lesson reference content.
package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/felixgeelhaar/lingo/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed lessons/*.yaml
var builtinFS embed.FS

// LessonFile represents the YAML structure for a lesson
type LessonFile struct {
	ID         string `yaml:"id"`
	Title      string `yaml:"title"`
	Difficulty string `yaml:"difficulty"`
	Order      int    `yaml:"order"`
	Steps      []struct {
		Type    string `yaml:"type"`
		Word    string `yaml:"word"`
		Phrase  string `yaml:"phrase"`
		Turkish string `yaml:"turkish"`
		Image   string `yaml:"image"`
	} `yaml:"steps"`
	Quiz []struct {
		Type          string   `yaml:"type"`
		Question      string   `yaml:"question"`
		Options       []string `yaml:"options"`
		AudioText     string   `yaml:"audio_text"`
		CorrectAnswer string   `yaml:"correct_answer"`
	} `yaml:"quiz"`
}

// Entry is a loaded lesson with its catalog position
type Entry struct {
	Lesson *domain.Lesson
	Order  int
}

// Loader reads lesson YAML files from a filesystem
type Loader struct {
	fsys fs.FS
}

// NewLoader creates a loader over fsys
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// NewDirLoader creates a loader for lesson files in dir
func NewDirLoader(dir string) *Loader {
	return NewLoader(os.DirFS(dir))
}

// BuiltinLoader returns a loader for the lessons shipped with the binary
func BuiltinLoader() *Loader {
	sub, err := fs.Sub(builtinFS, "lessons")
	if err != nil {
		panic(fmt.Sprintf("catalog: builtin lessons: %v", err))
	}
	return NewLoader(sub)
}

// LoadLesson parses and validates a single lesson file
func (l *Loader) LoadLesson(name string) (*Entry, error) {
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("read lesson file: %w", err)
	}

	var lf LessonFile
	if err := yaml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse lesson file %s: %w", name, err)
	}

	lesson := &domain.Lesson{
		ID:         lf.ID,
		Title:      lf.Title,
		Difficulty: domain.Difficulty(lf.Difficulty),
		Steps:      make([]domain.LessonStep, len(lf.Steps)),
		Quiz:       make([]domain.QuizQuestion, len(lf.Quiz)),
	}
	if lesson.ID == "" {
		lesson.ID = strings.TrimSuffix(path.Base(name), path.Ext(name))
	}

	for i, s := range lf.Steps {
		switch domain.StepKind(s.Type) {
		case domain.StepVocabulary:
			lesson.Steps[i] = domain.VocabularyStep(s.Word, s.Turkish, s.Image)
		case domain.StepPhrase:
			lesson.Steps[i] = domain.PhraseStep(s.Phrase, s.Turkish)
		default:
			lesson.Steps[i] = domain.LessonStep{Kind: domain.StepKind(s.Type)}
		}
	}

	for i, q := range lf.Quiz {
		lesson.Quiz[i] = domain.QuizQuestion{
			Kind:          domain.QuestionKind(q.Type),
			Question:      q.Question,
			Options:       q.Options,
			AudioText:     q.AudioText,
			CorrectAnswer: q.CorrectAnswer,
		}
	}

	if err := lesson.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	return &Entry{Lesson: lesson, Order: lf.Order}, nil
}

// LoadAll loads every .yaml/.yml file at the root of the filesystem
func (l *Loader) LoadAll() ([]*Entry, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read lessons directory: %w", err)
	}

	var out []*Entry
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		entry, err := l.LoadLesson(e.Name())
		if err != nil {
			return nil, fmt.Errorf("load lesson %s: %w", e.Name(), err)
		}
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}
