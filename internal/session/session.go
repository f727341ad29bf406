// Package session holds the candidate record of an interview and the stores
// that own it.
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Difficulty labels a question of the interview schedule.
type Difficulty string

const (
	Easy   Difficulty = "Easy"
	Medium Difficulty = "Medium"
	Hard   Difficulty = "Hard"
)

// Schedule is the fixed order of difficulties asked in every interview.
var Schedule = [...]Difficulty{Easy, Easy, Medium, Medium, Hard, Hard}

// Steps is the number of questions in a complete interview.
const Steps = len(Schedule)

var (
	ErrNotFound           = errors.New("session not found")
	ErrNoPendingQuestion  = errors.New("no pending question to answer")
	ErrNoAnswers          = errors.New("no answers found for this session")
	ErrQuestionPending    = errors.New("a question is already pending")
	ErrCompleted          = errors.New("interview already completed")
	ErrDifficultyMismatch = errors.New("difficulty does not match the interview schedule")
	ErrUnknownDifficulty  = errors.New("unknown difficulty")
)

// ParseDifficulty maps a case-insensitive label to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return Easy, nil
	case "medium":
		return Medium, nil
	case "hard":
		return Hard, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
}

// QAEntry is one question of the interview with its answer and evaluation.
// Answer and Score stay nil until the answer is submitted.
type QAEntry struct {
	Question   string     `json:"question"`
	Answer     *string    `json:"answer"`
	Difficulty Difficulty `json:"difficulty"`
	Score      *int       `json:"score"`
	Feedback   string     `json:"feedback,omitempty"`
	Late       bool       `json:"late,omitempty"`
	AskedAt    time.Time  `json:"askedAt"`
	AnsweredAt *time.Time `json:"answeredAt,omitempty"`
}

// Session is a candidate record. Step counts answered entries: when
// len(Answers) == Step+1 the last entry is pending.
type Session struct {
	ID         string    `json:"sessionId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Answers    []QAEntry `json:"answers"`
	Step       int       `json:"step"`
	FinalScore int       `json:"finalScore"`
	Summary    *string   `json:"summary"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// New returns an empty session with zero score and no summary.
func New(id, name, email, phone string, now time.Time) *Session {
	return &Session{
		ID:        id,
		Name:      name,
		Email:     email,
		Phone:     phone,
		Answers:   []QAEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Phase is the orchestration state of a session.
type Phase string

const (
	AwaitingQuestion Phase = "awaiting_question"
	AwaitingAnswer   Phase = "awaiting_answer"
	Completed        Phase = "completed"
)

// State pairs a phase with the step it refers to.
type State struct {
	Phase Phase `json:"phase"`
	Step  int   `json:"step"`
}

func (s *Session) State() State {
	switch {
	case s.Step >= Steps:
		return State{Phase: Completed, Step: Steps}
	case len(s.Answers) > s.Step:
		return State{Phase: AwaitingAnswer, Step: s.Step}
	default:
		return State{Phase: AwaitingQuestion, Step: s.Step}
	}
}

// Pending returns the unanswered entry, if any.
func (s *Session) Pending() (*QAEntry, bool) {
	if s.Step < len(s.Answers) {
		return &s.Answers[s.Step], true
	}
	return nil, false
}

// NextDifficulty reports the difficulty of the current step.
func (s *Session) NextDifficulty() (Difficulty, bool) {
	if s.Step >= Steps {
		return "", false
	}
	return Schedule[s.Step], true
}

// AskedQuestions lists every question generated so far in order.
func (s *Session) AskedQuestions() []string {
	asked := make([]string, 0, len(s.Answers))
	for _, qa := range s.Answers {
		asked = append(asked, qa.Question)
	}
	return asked
}

// AppendQuestion records a new pending question for the current step.
func (s *Session) AppendQuestion(question string, difficulty Difficulty, now time.Time) error {
	switch s.State().Phase {
	case Completed:
		return ErrCompleted
	case AwaitingAnswer:
		return ErrQuestionPending
	}

	if want := Schedule[s.Step]; difficulty != want {
		return fmt.Errorf("%w: step %d expects %s, got %s", ErrDifficultyMismatch, s.Step+1, want, difficulty)
	}

	s.Answers = append(s.Answers, QAEntry{
		Question:   question,
		Difficulty: difficulty,
		AskedAt:    now,
	})
	s.UpdatedAt = now
	return nil
}

// RecordAnswer stores the answer and score on the pending entry and advances the cursor.
func (s *Session) RecordAnswer(answer string, score int, feedback string, late bool, now time.Time) error {
	pending, ok := s.Pending()
	if !ok {
		return ErrNoPendingQuestion
	}

	pending.Answer = &answer
	pending.Score = &score
	pending.Feedback = feedback
	pending.Late = late
	pending.AnsweredAt = &now

	s.Step++
	s.UpdatedAt = now
	return nil
}

// Finalize stores the summary and the total score.
func (s *Session) Finalize(summary string, score int, now time.Time) error {
	if len(s.Answers) == 0 {
		return ErrNoAnswers
	}

	s.Summary = &summary
	s.FinalScore = score
	s.UpdatedAt = now
	return nil
}

// Clone returns a deep copy so callers never share entries with a store.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}

	c := *s
	c.Answers = make([]QAEntry, len(s.Answers))
	for i, qa := range s.Answers {
		if qa.Answer != nil {
			answer := *qa.Answer
			qa.Answer = &answer
		}
		if qa.Score != nil {
			score := *qa.Score
			qa.Score = &score
		}
		if qa.AnsweredAt != nil {
			at := *qa.AnsweredAt
			qa.AnsweredAt = &at
		}
		c.Answers[i] = qa
	}
	if s.Summary != nil {
		summary := *s.Summary
		c.Summary = &summary
	}
	return &c
}
