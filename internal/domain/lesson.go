package domain

import "fmt"

// Lesson is an immutable unit of reference content: a sequence of steps
// followed by a terminal quiz.
type Lesson struct {
	ID         string
	Title      string
	Difficulty Difficulty
	Steps      []LessonStep
	Quiz       []QuizQuestion
}

// Difficulty represents lesson difficulty tier
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
)

// Valid reports whether d is one of the known tiers
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// StepKind identifies the variant of a LessonStep
type StepKind string

const (
	StepVocabulary StepKind = "vocabulary"
	StepPhrase     StepKind = "phrase"
)

// LessonStep is either a vocabulary tile or a phrase module.
// Word and ImageRef are only set for vocabulary steps; Phrase only for phrase steps.
type LessonStep struct {
	Kind        StepKind
	Word        string
	Phrase      string
	Translation string
	ImageRef    string
}

// VocabularyStep builds a vocabulary tile
func VocabularyStep(word, translation, imageRef string) LessonStep {
	return LessonStep{Kind: StepVocabulary, Word: word, Translation: translation, ImageRef: imageRef}
}

// PhraseStep builds a phrase module
func PhraseStep(phrase, translation string) LessonStep {
	return LessonStep{Kind: StepPhrase, Phrase: phrase, Translation: translation}
}

// Term returns the English word or phrase the step teaches
func (s LessonStep) Term() string {
	if s.Kind == StepVocabulary {
		return s.Word
	}
	return s.Phrase
}

// TermNoun returns "word" or "phrase", used when building provider prompts
func (s LessonStep) TermNoun() string {
	if s.Kind == StepVocabulary {
		return "word"
	}
	return "phrase"
}

// QuestionKind identifies the variant of a QuizQuestion
type QuestionKind string

const (
	QuestionMultipleChoice QuestionKind = "multiple-choice"
	QuestionFillInBlank    QuestionKind = "fill-in-the-blank"
	QuestionListening      QuestionKind = "listening"
)

// QuizQuestion is one question of a lesson quiz. CorrectAnswer is always a
// plain string regardless of the variant.
type QuizQuestion struct {
	Kind          QuestionKind
	Question      string
	Options       []string // multiple-choice and listening
	AudioText     string   // listening only
	CorrectAnswer string
}

// MultipleChoice builds a multiple-choice question
func MultipleChoice(question string, options []string, correct string) QuizQuestion {
	return QuizQuestion{Kind: QuestionMultipleChoice, Question: question, Options: options, CorrectAnswer: correct}
}

// FillInBlank builds a fill-in-the-blank question
func FillInBlank(question, correct string) QuizQuestion {
	return QuizQuestion{Kind: QuestionFillInBlank, Question: question, CorrectAnswer: correct}
}

// Listening builds a listening question whose prompt is spoken aloud
func Listening(question, audioText string, options []string, correct string) QuizQuestion {
	return QuizQuestion{Kind: QuestionListening, Question: question, AudioText: audioText, Options: options, CorrectAnswer: correct}
}

// Validate checks structural invariants of the lesson
func (l *Lesson) Validate() error {
	if l.ID == "" {
		return fmt.Errorf("%w: lesson id required", ErrInvalidLesson)
	}
	if !l.Difficulty.Valid() {
		return fmt.Errorf("%w: lesson %s has unknown difficulty %q", ErrInvalidLesson, l.ID, l.Difficulty)
	}
	for i, step := range l.Steps {
		switch step.Kind {
		case StepVocabulary, StepPhrase:
		default:
			return fmt.Errorf("%w: lesson %s step %d has unknown kind %q", ErrInvalidLesson, l.ID, i, step.Kind)
		}
		if step.Term() == "" {
			return fmt.Errorf("%w: lesson %s step %d has no term", ErrInvalidLesson, l.ID, i)
		}
	}
	for i, q := range l.Quiz {
		switch q.Kind {
		case QuestionMultipleChoice, QuestionFillInBlank:
		case QuestionListening:
			if q.AudioText == "" {
				return fmt.Errorf("%w: lesson %s question %d missing audio text", ErrInvalidLesson, l.ID, i)
			}
		default:
			return fmt.Errorf("%w: lesson %s question %d has unknown kind %q", ErrInvalidLesson, l.ID, i, q.Kind)
		}
		if q.CorrectAnswer == "" {
			return fmt.Errorf("%w: lesson %s question %d has no correct answer", ErrInvalidLesson, l.ID, i)
		}
	}
	return nil
}
