package ai

import (
	"context"
	"errors"
)

// MaxScore is the upper bound of a single answer evaluation.
const MaxScore = 20

// ErrUnparseable marks a model response that arrived but could not be interpreted.
var ErrUnparseable = errors.New("unparseable model response")

// QuestionPrompt asks for one new interview question.
type QuestionPrompt struct {
	Role       string
	Difficulty string
	// Asked holds the literal texts of questions already used in the session.
	Asked []string
}

// ScorePrompt asks for an evaluation of a single answer.
type ScorePrompt struct {
	Question   string
	Answer     string
	Difficulty string
}

// Assessment is the collaborator's verdict on one answer.
type Assessment struct {
	Score    int
	Feedback string
	Raw      string
}

// Turn is one answered (or skipped) question handed to the summarizer.
type Turn struct {
	Question   string
	Answer     string
	Difficulty string
	Score      int
	Answered   bool
}

// Interviewer is the language model collaborator used by the interview flow.
type Interviewer interface {
	Question(ctx context.Context, prompt QuestionPrompt) (string, error)
	Score(ctx context.Context, prompt ScorePrompt) (*Assessment, error)
	Summarize(ctx context.Context, role string, turns []Turn) (string, error)
}
