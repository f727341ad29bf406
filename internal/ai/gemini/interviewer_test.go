package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/ai"
)

type stubGenerator struct {
	response    string
	err         error
	lastSystem  string
	lastMessage string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, message string) (string, error) {
	s.lastSystem = system
	s.lastMessage = message
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

func TestInterviewerQuestion(t *testing.T) {
	stub := &stubGenerator{response: "**Question 1:** What is the virtual DOM\nand why does React use it?"}
	interviewer := NewInterviewer(stub, 0, zap.NewNop())

	question, err := interviewer.Question(context.Background(), ai.QuestionPrompt{
		Role:       "Go backend developer",
		Difficulty: "Medium",
		Asked:      []string{"What is a goroutine?", `Explain "defer".`},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if question != "What is the virtual DOM and why does React use it?" {
		t.Fatalf("unexpected question: %q", question)
	}

	if !strings.Contains(stub.lastSystem, "interviewer for a Go backend developer role") {
		t.Fatalf("expected role in system prompt, got: %s", stub.lastSystem)
	}

	if !strings.Contains(stub.lastMessage, "Generate ONE new Medium interview question.") {
		t.Fatalf("expected difficulty in prompt, got: %s", stub.lastMessage)
	}

	if !strings.Contains(stub.lastMessage, `"What is a goroutine?", "Explain \"defer\"."`) {
		t.Fatalf("expected asked questions in prompt, got: %s", stub.lastMessage)
	}
}

func TestInterviewerQuestionDefaults(t *testing.T) {
	stub := &stubGenerator{response: "What is JSX?"}
	interviewer := NewInterviewer(stub, 0, nil)

	if _, err := interviewer.Question(context.Background(), ai.QuestionPrompt{Difficulty: "Easy"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(stub.lastMessage, "Do NOT repeat any of these questions: None.") {
		t.Fatalf("expected None placeholder, got: %s", stub.lastMessage)
	}

	if !strings.Contains(stub.lastSystem, defaultRole) {
		t.Fatalf("expected default role, got: %s", stub.lastSystem)
	}
}

func TestInterviewerQuestionErrors(t *testing.T) {
	interviewer := NewInterviewer(&stubGenerator{err: errors.New("unavailable")}, 0, zap.NewNop())
	if _, err := interviewer.Question(context.Background(), ai.QuestionPrompt{Difficulty: "Easy"}); err == nil {
		t.Fatal("expected generator error to propagate")
	}

	interviewer = NewInterviewer(&stubGenerator{response: "**  **"}, 0, zap.NewNop())
	if _, err := interviewer.Question(context.Background(), ai.QuestionPrompt{Difficulty: "Easy"}); err == nil {
		t.Fatal("expected error for empty question")
	}
}

func TestInterviewerScore(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"score\": \"14\", \"feedback\": \"Clear and accurate.\"}\n```"}
	interviewer := NewInterviewer(stub, 0, zap.NewNop())

	assessment, err := interviewer.Score(context.Background(), ai.ScorePrompt{
		Question:   "What is a closure?",
		Answer:     "A function with its environment.",
		Difficulty: "Easy",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if assessment.Score != 14 {
		t.Fatalf("expected score 14, got %d", assessment.Score)
	}
	if assessment.Feedback != "Clear and accurate." {
		t.Fatalf("unexpected feedback: %q", assessment.Feedback)
	}
	if assessment.Raw == "" {
		t.Fatalf("expected raw response to be kept")
	}

	for _, want := range []string{
		`Question: "What is a closure?"`,
		`Candidate answer: "A function with its environment."`,
		"Difficulty: Easy",
		"strictly from 0 to 20",
	} {
		if !strings.Contains(stub.lastMessage, want) {
			t.Fatalf("expected %q in prompt, got: %s", want, stub.lastMessage)
		}
	}
}

func TestParseScore(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    int
		wantErr bool
	}{
		{name: "bare integer", raw: "17", want: 17},
		{name: "integer with text", raw: "12/20 - decent", want: 12},
		{name: "json number", raw: `{"score": 9}`, want: 9},
		{name: "json float rounds", raw: `{"score": 8.6, "feedback": "ok"}`, want: 9},
		{name: "clamps high", raw: `{"score": 45}`, want: 20},
		{name: "clamps low", raw: "-3", want: 0},
		{name: "no number", raw: "excellent answer", wantErr: true},
		{name: "missing score", raw: `{"feedback": "ok"}`, wantErr: true},
		{name: "broken json", raw: `{"score": `, wantErr: true},
		{name: "non numeric string", raw: `{"score": "great"}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseScore(tc.raw)
			if tc.wantErr {
				if !errors.Is(err, ai.ErrUnparseable) {
					t.Fatalf("expected unparseable error, got %+v, %v", got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Score != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got.Score)
			}
		})
	}
}

func TestInterviewerSummarize(t *testing.T) {
	stub := &stubGenerator{response: "The candidate shows **solid** fundamentals."}
	interviewer := NewInterviewer(stub, 0, zap.NewNop())

	summary, err := interviewer.Summarize(context.Background(), "", []ai.Turn{
		{Question: "Q one", Answer: "A one", Difficulty: "Easy", Score: 4, Answered: true},
		{Question: "Q two", Difficulty: "Easy"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary != "The candidate shows solid fundamentals." {
		t.Fatalf("unexpected summary: %q", summary)
	}

	if !strings.Contains(stub.lastMessage, "Q1 (Easy): Q one\nAnswer: A one\nScore: 4/20") {
		t.Fatalf("expected first turn in transcript, got: %s", stub.lastMessage)
	}

	if !strings.Contains(stub.lastMessage, "Q2 (Easy): Q two\nAnswer: (not answered)\nScore: -/20") {
		t.Fatalf("expected unanswered turn in transcript, got: %s", stub.lastMessage)
	}
}
