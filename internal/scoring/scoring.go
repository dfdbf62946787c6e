// Package scoring grades lesson quizzes.
package scoring

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/felixgeelhaar/lingo/internal/domain"
)

// Result summarizes a graded quiz for the results screen
type Result struct {
	Score   int // percentage in [0,100]
	Correct int
	Total   int
}

// Summary renders the "You got N out of M correct" line
func (r Result) Summary() string {
	return fmt.Sprintf("You got %d out of %d correct", r.Correct, r.Total)
}

// Passed reports whether every question was answered correctly
func (r Result) Passed() bool {
	return r.Total > 0 && r.Correct == r.Total
}

// IsCorrect reports whether answer matches the expected answer after trimming
// surrounding whitespace and folding case. A nil answer is never correct.
func IsCorrect(answer *string, correctAnswer string) bool {
	if answer == nil {
		return false
	}
	return normalize(*answer) == normalize(correctAnswer)
}

func normalize(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// CorrectCount returns how many answers match their question.
// Panics if len(answers) != len(quiz).
func CorrectCount(quiz []domain.QuizQuestion, answers []*string) int {
	if len(answers) != len(quiz) {
		panic(fmt.Sprintf("scoring: %d answers for %d questions", len(answers), len(quiz)))
	}
	correct := 0
	for i, q := range quiz {
		if IsCorrect(answers[i], q.CorrectAnswer) {
			correct++
		}
	}
	return correct
}

// Score returns the percentage of correct answers rounded half up.
// An empty quiz scores 0. Panics if len(answers) != len(quiz).
func Score(quiz []domain.QuizQuestion, answers []*string) int {
	return percent(CorrectCount(quiz, answers), len(quiz))
}

// Grade scores the quiz and returns the full summary
func Grade(quiz []domain.QuizQuestion, answers []*string) Result {
	correct := CorrectCount(quiz, answers)
	return Result{
		Score:   percent(correct, len(quiz)),
		Correct: correct,
		Total:   len(quiz),
	}
}

func percent(correct, total int) int {
	if total == 0 {
		return 0
	}
	// round half up of correct/total*100, exact in integers
	return (200*correct + total) / (2 * total)
}
