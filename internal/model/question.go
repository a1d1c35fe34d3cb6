package model

import (
	"github.com/google/uuid"
)

// Question represents a single exam question with its answer options.
// Difficulty is an integer level in [1,10].
type Question struct {
	ID         uuid.UUID `json:"id"`
	Topic      string    `json:"topic"`
	Text       string    `json:"text"`
	Difficulty int       `json:"difficulty"`
	Answers    []Answer  `json:"answers"`
}

// Answer is one selectable option of a question. IsCorrect and Explanation
// are server-side grading data and must never reach a candidate before the
// answer has been checked.
type Answer struct {
	ID          uuid.UUID `json:"id"`
	QuestionID  uuid.UUID `json:"question_id"`
	Content     string    `json:"content"`
	IsCorrect   bool      `json:"is_correct"`
	Explanation string    `json:"explanation,omitempty"`
}

// QuestionView is the candidate-facing representation of a question.
// It carries no correctness flags and no explanations.
type QuestionView struct {
	ID         uuid.UUID    `json:"id"`
	Topic      string       `json:"topic"`
	Text       string       `json:"text"`
	Difficulty int          `json:"difficulty"`
	Answers    []AnswerView `json:"answers"`
}

// AnswerView is the candidate-facing representation of an answer option.
type AnswerView struct {
	ID      uuid.UUID `json:"id"`
	Content string    `json:"content"`
}
