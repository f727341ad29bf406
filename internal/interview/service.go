// Package interview drives a candidate through the fixed difficulty schedule:
// it asks the language model for questions, scores the answers and produces
// the final summary.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/ai"
	"github.com/spigell/ai-interviewer/internal/logger"
	"github.com/spigell/ai-interviewer/internal/metrics"
	"github.com/spigell/ai-interviewer/internal/session"
	"github.com/spigell/ai-interviewer/internal/validation"
)

var (
	ErrInterviewCompleted  = session.ErrCompleted
	ErrQuestionUnavailable = errors.New("failed to generate question")
)

// Answer outcomes reported to metrics.
const (
	outcomeScored      = "scored"
	outcomeEmpty       = "empty"
	outcomeLate        = "late"
	outcomeFailed      = "scoring_failed"
	outcomeUnparseable = "score_unparseable"
)

// Config holds the interview settings.
type Config struct {
	Role            string        `mapstructure:"role"`
	Scoring         string        `mapstructure:"scoring"`
	EnforceDeadline bool          `mapstructure:"enforce-deadline"`
	DeadlineGrace   time.Duration `mapstructure:"deadline-grace"`
}

// QuestionInput requests the question of the current step.
type QuestionInput struct {
	SessionID  string `json:"sessionId"`
	Difficulty string `json:"difficulty,omitempty"`
	Name       string `json:"name,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Question is the pending question handed to the candidate.
type Question struct {
	Question   string             `json:"question"`
	Timer      int                `json:"timer"`
	Difficulty session.Difficulty `json:"difficulty"`
	// Step is the 1-based number of the question in the schedule.
	Step int `json:"step"`
}

// AnswerInput submits an answer for the pending question.
type AnswerInput struct {
	SessionID string `json:"sessionId"`
	Answer    string `json:"answer"`
}

// AnswerResult reports the evaluation of a submitted answer.
type AnswerResult struct {
	Success   bool   `json:"success"`
	Score     int    `json:"score"`
	Feedback  string `json:"feedback,omitempty"`
	Late      bool   `json:"late,omitempty"`
	Completed bool   `json:"completed"`
}

// Summary is the outcome of a finished interview.
type Summary struct {
	Score   int               `json:"score"`
	Summary string            `json:"summary"`
	Answers []session.QAEntry `json:"answers"`
	Name    string            `json:"name"`
	Email   string            `json:"email"`
}

// View describes the progress of a session for clients restoring their state.
type View struct {
	SessionID       string             `json:"sessionId"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	Phone           string             `json:"phone"`
	Answers         []session.QAEntry  `json:"answers"`
	Step            int                `json:"step"`
	Phase           session.Phase      `json:"phase"`
	PendingQuestion string             `json:"pendingQuestion,omitempty"`
	NextDifficulty  session.Difficulty `json:"nextDifficulty,omitempty"`
	Timer           int                `json:"timer,omitempty"`
	FinalScore      int                `json:"finalScore"`
	Summary         *string            `json:"summary"`
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithFallbacks replaces the values used when evaluation fails.
func WithFallbacks(f Fallbacks) Option {
	return func(s *Service) {
		s.fallbacks = f
	}
}

// Service orchestrates interviews on top of a session store.
type Service struct {
	store       session.Store
	interviewer ai.Interviewer
	role        string
	policy      ScoringPolicy
	enforce     bool
	grace       time.Duration
	fallbacks   Fallbacks
	logger      *zap.Logger
	now         func() time.Time

	// createMu serializes lazy creation so two first requests do not both insert.
	createMu sync.Mutex
}

func NewService(store session.Store, interviewer ai.Interviewer, cfg Config, log *zap.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("session store is required")
	}
	if interviewer == nil {
		return nil, errors.New("interviewer is required")
	}

	policy, err := ParseScoringPolicy(cfg.Scoring)
	if err != nil {
		return nil, err
	}
	if cfg.DeadlineGrace < 0 {
		return nil, fmt.Errorf("deadline grace must not be negative, got %s", cfg.DeadlineGrace)
	}

	s := &Service{
		store:       store,
		interviewer: interviewer,
		role:        strings.TrimSpace(cfg.Role),
		policy:      policy,
		enforce:     cfg.EnforceDeadline,
		grace:       cfg.DeadlineGrace,
		fallbacks:   DefaultFallbacks(),
		logger:      logger.WithFields(log).Named("interview"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Policy reports the configured scoring policy.
func (s *Service) Policy() ScoringPolicy {
	return s.policy
}

// GenerateQuestion returns the pending question of the session, generating a
// new one when the current step has none yet.
func (s *Service) GenerateQuestion(ctx context.Context, in QuestionInput) (*Question, error) {
	id := strings.TrimSpace(in.SessionID)
	if id == "" {
		return nil, validation.New("sessionId is required")
	}

	var requested session.Difficulty
	if strings.TrimSpace(in.Difficulty) != "" {
		parsed, err := session.ParseDifficulty(in.Difficulty)
		if err != nil {
			return nil, &validation.Error{Message: err.Error()}
		}
		requested = parsed
	}

	current, err := s.getOrCreate(ctx, id, in.Name, in.Email, requested)
	if err != nil {
		return nil, err
	}

	switch current.State().Phase {
	case session.Completed:
		return nil, ErrInterviewCompleted
	case session.AwaitingAnswer:
		pending, _ := current.Pending()
		return questionFor(current.Step, pending), nil
	}

	want, _ := current.NextDifficulty()
	if requested != "" && requested != want {
		return nil, fmt.Errorf("%w: step %d expects %s, got %s", session.ErrDifficultyMismatch, current.Step+1, want, requested)
	}

	log := logger.WithSession(s.logger, id, string(want))

	text, err := s.newQuestion(ctx, log, want, current.AskedQuestions())
	if err != nil {
		log.Warn("question generation failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrQuestionUnavailable, err)
	}

	var reused bool
	updated, err := s.store.Update(ctx, id, func(sess *session.Session) error {
		if _, ok := sess.Pending(); ok {
			reused = true
			return nil
		}
		return sess.AppendQuestion(text, want, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("record question: %w", err)
	}

	pending, ok := updated.Pending()
	if !ok {
		return nil, fmt.Errorf("record question: %w", session.ErrNoPendingQuestion)
	}

	if reused {
		log.Info("question already pending, generated question discarded")
	} else {
		metrics.QuestionsGenerated.WithLabelValues(string(want)).Inc()
		log.Info("question generated", zap.Int("step", updated.Step+1))
	}

	return questionFor(updated.Step, pending), nil
}

// newQuestion asks for a question and regenerates it once when it repeats an
// earlier one.
func (s *Service) newQuestion(ctx context.Context, log *zap.Logger, d session.Difficulty, asked []string) (string, error) {
	prompt := ai.QuestionPrompt{Role: s.role, Difficulty: string(d), Asked: asked}

	text, err := s.callQuestion(ctx, prompt)
	if err != nil {
		return "", err
	}
	if !repeats(text, asked) {
		return text, nil
	}

	log.Info("generated question repeats an earlier one, regenerating")
	retry, err := s.callQuestion(ctx, prompt)
	if err != nil {
		// the repeated question is still usable
		log.Warn("question regeneration failed", zap.Error(err))
		return text, nil
	}
	return retry, nil
}

func (s *Service) callQuestion(ctx context.Context, prompt ai.QuestionPrompt) (string, error) {
	started := time.Now()
	text, err := s.interviewer.Question(ctx, prompt)
	metrics.ObserveLLMCall("question", started, err)
	return strings.TrimSpace(text), err
}

// getOrCreate loads the session or creates it lazily. A session is never
// created for a request whose difficulty cannot open the interview.
func (s *Service) getOrCreate(ctx context.Context, id, name, email string, requested session.Difficulty) (*session.Session, error) {
	current, err := s.store.Get(ctx, id)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	current, err = s.store.Get(ctx, id)
	if err == nil {
		return current, nil
	}
	if !errors.Is(err, session.ErrNotFound) {
		return nil, fmt.Errorf("load session: %w", err)
	}

	if first := session.Schedule[0]; requested != "" && requested != first {
		return nil, fmt.Errorf("%w: step 1 expects %s, got %s", session.ErrDifficultyMismatch, first, requested)
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = "Candidate " + id
	}
	created := session.New(id, name, strings.TrimSpace(email), "", s.now())
	if err := s.store.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session created on first question", logger.SessionFields(id, "")...)
	return created, nil
}

// SubmitAnswer scores the answer of the pending question and advances the step.
func (s *Service) SubmitAnswer(ctx context.Context, in AnswerInput) (*AnswerResult, error) {
	id := strings.TrimSpace(in.SessionID)
	if id == "" {
		return nil, validation.New("sessionId is required")
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	pending, ok := current.Pending()
	if !ok {
		return nil, session.ErrNoPendingQuestion
	}
	question, askedAt, difficulty := pending.Question, pending.AskedAt, pending.Difficulty

	log := logger.WithSession(s.logger, id, string(difficulty))

	answer := strings.TrimSpace(in.Answer)
	now := s.now()
	late := now.Sub(askedAt) > TimerFor(difficulty)+s.grace

	var (
		score    int
		feedback string
		outcome  string
	)
	switch {
	case answer == "":
		score, outcome = s.fallbacks.EmptyAnswer, outcomeEmpty
	case late && s.enforce:
		score, outcome = s.fallbacks.LateAnswer, outcomeLate
		log.Info("answer arrived after the deadline", zap.Duration("elapsed", now.Sub(askedAt)))
	default:
		score, feedback, outcome = s.score(ctx, log, question, answer, difficulty)
	}

	updated, err := s.store.Update(ctx, id, func(sess *session.Session) error {
		p, ok := sess.Pending()
		if !ok || p.Question != question || !p.AskedAt.Equal(askedAt) {
			return session.ErrNoPendingQuestion
		}
		return sess.RecordAnswer(answer, score, feedback, late, s.now())
	})
	if err != nil {
		return nil, err
	}

	metrics.AnswersScored.WithLabelValues(outcome).Inc()
	log.Info("answer recorded",
		zap.Int("score", score),
		zap.String("outcome", outcome),
		zap.Bool("late", late),
		zap.Int("step", updated.Step),
	)

	return &AnswerResult{
		Success:   true,
		Score:     score,
		Feedback:  feedback,
		Late:      late,
		Completed: updated.State().Phase == session.Completed,
	}, nil
}

func (s *Service) score(ctx context.Context, log *zap.Logger, question, answer string, d session.Difficulty) (int, string, string) {
	started := time.Now()
	assessment, err := s.interviewer.Score(ctx, ai.ScorePrompt{
		Question:   question,
		Answer:     answer,
		Difficulty: string(d),
	})
	metrics.ObserveLLMCall("score", started, err)

	switch {
	case errors.Is(err, ai.ErrUnparseable):
		log.Warn("score response could not be parsed, using fallback", zap.Error(err))
		return s.fallbacks.ScoreUnparseable, "", outcomeUnparseable
	case err != nil:
		log.Warn("scoring failed, using fallback", zap.Error(err))
		return s.fallbacks.ScoringFailed, "", outcomeFailed
	}

	score := min(max(assessment.Score, 0), ai.MaxScore)
	return score, assessment.Feedback, outcomeScored
}

// Summarize produces the final summary and total score of a session.
func (s *Service) Summarize(ctx context.Context, sessionID string) (*Summary, error) {
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return nil, validation.New("sessionId is required")
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(current.Answers) == 0 {
		return nil, session.ErrNoAnswers
	}

	log := logger.WithSession(s.logger, id, "")

	turns := make([]ai.Turn, 0, len(current.Answers))
	for _, qa := range current.Answers {
		turn := ai.Turn{Question: qa.Question, Difficulty: string(qa.Difficulty)}
		if qa.Answer != nil {
			turn.Answer = *qa.Answer
			turn.Answered = true
		}
		if qa.Score != nil {
			turn.Score = *qa.Score
		}
		turns = append(turns, turn)
	}

	started := time.Now()
	text, err := s.interviewer.Summarize(ctx, s.role, turns)
	metrics.ObserveLLMCall("summary", started, err)
	if err != nil {
		log.Warn("summary generation failed, using fallback", zap.Error(err))
		text = s.fallbacks.SummaryFailed
	}

	updated, err := s.store.Update(ctx, id, func(sess *session.Session) error {
		return sess.Finalize(text, s.policy.Total(sess.Answers), s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("store summary: %w", err)
	}

	metrics.InterviewsCompleted.Inc()
	log.Info("interview summarized",
		zap.Int("final_score", updated.FinalScore),
		zap.String("scoring", string(s.policy)),
	)

	return &Summary{
		Score:   updated.FinalScore,
		Summary: *updated.Summary,
		Answers: updated.Answers,
		Name:    updated.Name,
		Email:   updated.Email,
	}, nil
}

// Session returns the progress view of a session.
func (s *Service) Session(ctx context.Context, sessionID string) (*View, error) {
	current, err := s.store.Get(ctx, strings.TrimSpace(sessionID))
	if err != nil {
		return nil, err
	}

	view := &View{
		SessionID:  current.ID,
		Name:       current.Name,
		Email:      current.Email,
		Phone:      current.Phone,
		Answers:    current.Answers,
		Step:       current.Step,
		Phase:      current.State().Phase,
		FinalScore: current.FinalScore,
		Summary:    current.Summary,
	}
	if pending, ok := current.Pending(); ok {
		view.PendingQuestion = pending.Question
	}
	if next, ok := current.NextDifficulty(); ok {
		view.NextDifficulty = next
		view.Timer = int(TimerFor(next).Seconds())
	}

	return view, nil
}

func questionFor(step int, qa *session.QAEntry) *Question {
	return &Question{
		Question:   qa.Question,
		Timer:      int(TimerFor(qa.Difficulty).Seconds()),
		Difficulty: qa.Difficulty,
		Step:       step + 1,
	}
}

func repeats(question string, asked []string) bool {
	normalized := strings.ToLower(strings.TrimSpace(question))
	for _, q := range asked {
		if strings.ToLower(strings.TrimSpace(q)) == normalized {
			return true
		}
	}
	return false
}
