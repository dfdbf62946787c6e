package domain

import "errors"

// -----------------------------------------------------------------------------
// Domain Errors
// These errors represent domain-level failures and are used by stores
// and services to communicate domain-specific error conditions.
// -----------------------------------------------------------------------------

// General errors
var (
	ErrInvalidInput = errors.New("invalid input")
)

// Lesson errors
var (
	ErrLessonNotFound = errors.New("lesson not found")
	ErrInvalidLesson  = errors.New("invalid lesson")
)

// Learner errors
var (
	ErrLearnerNotFound = errors.New("learner not found")
)
