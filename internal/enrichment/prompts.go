package enrichment

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/lingo/internal/domain"
)

// InfoPrompt asks for a definition, usage tips and two translated examples
func InfoPrompt(step domain.LessonStep) string {
	return fmt.Sprintf(`For a Turkish-speaking English learner, provide a simple definition, common usage tips, and two example sentences (with Turkish translations) for the English %s %q.
Format the response as clean, readable text.`, step.TermNoun(), step.Term())
}

// ExamplePrompt asks for one new example sentence as two HTML paragraphs
func ExamplePrompt(step domain.LessonStep) string {
	return fmt.Sprintf(`Please provide one new, simple example sentence using the English %s %q.
This is for a Turkish-speaking English learner.
Keep the sentence easy to understand.
Also, provide the Turkish translation of the sentence.
Format it as:
<p><strong>Example:</strong> [English sentence]</p>
<p><strong>Turkish:</strong> [Turkish translation]</p>`, step.TermNoun(), step.Term())
}

// WeakTopicsPrompt asks for flagged weak topics based on a learner's quiz history
func WeakTopicsPrompt(learner *domain.Learner, lessons []*domain.Lesson) string {
	var history []string
	for _, l := range lessons {
		score, ok := learner.CompletedLessons[l.ID]
		if !ok {
			continue
		}
		history = append(history, fmt.Sprintf("Lesson '%s': Score %d%%.", l.Title, score))
	}
	if len(history) == 0 {
		history = append(history, "No quizzes completed yet.")
	}

	return fmt.Sprintf(`Analyze the following student's quiz history to identify potential weak topics. The student is a Turkish speaker learning English.
Assume incorrect answers were related to the primary concepts of the lessons where scores are low.

Student Name: %s
Quiz History:
%s

Based on this, generate a concise list (2-3 bullet points) of flagged weak topics. For example, if the score for "Daily Routines" is low, a weak topic might be "Present Tense Verbs".
Format as a markdown list.`, learner.Name, strings.Join(history, "\n"))
}

// RecommendationsPrompt asks for personalized lesson recommendations
func RecommendationsPrompt(learner *domain.Learner, weakTopics string) string {
	completed := strings.Join(learner.CompletedLessonIDs(), ", ")
	if completed == "" {
		completed = "None"
	}
	if strings.TrimSpace(weakTopics) == "" {
		weakTopics = "None identified yet."
	}
	goals := learner.LearningGoals
	if goals == "" {
		goals = "Not specified"
	}

	return fmt.Sprintf(`Based on the following student profile, please provide 2-3 personalized lesson recommendations.
Keep the response concise and encouraging, formatted as a markdown list.

Student Profile:
- Name: %s
- Age: %d
- Learning Goals: %s
- Completed Lessons: %s
- Weak Topics (from past quizzes): %s

Focus on lessons that will help them achieve their goals and improve their weak areas.`,
		learner.Name, learner.Age, goals, completed, weakTopics)
}

type studentSummary struct {
	CompletedLessons int     `json:"completedLessons"`
	AverageScore     float64 `json:"averageScore"`
}

// ClassAnalysisPrompt asks for an anonymous class analysis grounded in web
// resources. hardest may be nil when no lesson has been attempted.
func ClassAnalysisPrompt(learners []*domain.Learner, hardest *domain.Lesson) string {
	summaries := make([]studentSummary, len(learners))
	for i, l := range learners {
		summaries[i] = studentSummary{
			CompletedLessons: len(l.CompletedLessons),
			AverageScore:     l.AverageScore(),
		}
	}
	data, _ := json.Marshal(summaries)

	challenge := "none identified yet"
	focus := "the lessons with the lowest scores"
	if hardest != nil {
		challenge = fmt.Sprintf("%q (lowest average score)", hardest.Title)
		focus = fmt.Sprintf("%q", hardest.Title)
	}

	return fmt.Sprintf(`As an educational analyst, review the following anonymous class data for Turkish-speaking English learners.

Class Data:
- Total Students: %d
- Student Performance Summaries: %s
- Most Challenging Lesson: %s

Provide a concise analysis including:
1. A brief summary of overall class performance.
2. Potential reasons why %s might be challenging.
3. Suggest 2-3 actionable teaching strategies to help improve understanding.
4. Find and cite 1-2 relevant online articles or resources for teaching these concepts using your search tool.

Format the response as clean HTML. Use <h4> for headings.`, len(learners), data, challenge, focus)
}
