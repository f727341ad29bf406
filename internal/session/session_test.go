package session

import (
	"errors"
	"testing"
	"time"
)

var now = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func TestSessionFollowsSchedule(t *testing.T) {
	s := New("s1", "Jane Doe", "jane@example.com", "", now)

	if got := s.State(); got.Phase != AwaitingQuestion || got.Step != 0 {
		t.Fatalf("unexpected initial state: %+v", got)
	}

	for i, difficulty := range Schedule {
		if err := s.AppendQuestion("question", difficulty, now); err != nil {
			t.Fatalf("step %d: append question: %v", i, err)
		}

		if got := s.State(); got.Phase != AwaitingAnswer || got.Step != i {
			t.Fatalf("step %d: unexpected state after question: %+v", i, got)
		}

		if err := s.AppendQuestion("second", difficulty, now); !errors.Is(err, ErrQuestionPending) {
			t.Fatalf("step %d: expected ErrQuestionPending, got %v", i, err)
		}

		if err := s.RecordAnswer("answer", i, "", false, now); err != nil {
			t.Fatalf("step %d: record answer: %v", i, err)
		}
	}

	if got := s.State(); got.Phase != Completed {
		t.Fatalf("expected completed state, got %+v", got)
	}

	if len(s.Answers) != Steps {
		t.Fatalf("expected %d answers, got %d", Steps, len(s.Answers))
	}

	for i, qa := range s.Answers {
		if qa.Difficulty != Schedule[i] {
			t.Fatalf("entry %d: expected %s, got %s", i, Schedule[i], qa.Difficulty)
		}
		if qa.Answer == nil || qa.Score == nil {
			t.Fatalf("entry %d: expected answer and score to be recorded", i)
		}
	}

	if err := s.AppendQuestion("extra", Hard, now); !errors.Is(err, ErrCompleted) {
		t.Fatalf("expected ErrCompleted, got %v", err)
	}
}

func TestAppendQuestionRejectsOutOfScheduleDifficulty(t *testing.T) {
	s := New("s1", "", "", "", now)

	err := s.AppendQuestion("q", Hard, now)
	if !errors.Is(err, ErrDifficultyMismatch) {
		t.Fatalf("expected ErrDifficultyMismatch, got %v", err)
	}
	if len(s.Answers) != 0 {
		t.Fatalf("expected no entries after rejected question")
	}
}

func TestRecordAnswerWithoutPendingQuestion(t *testing.T) {
	s := New("s1", "", "", "", now)

	if err := s.RecordAnswer("answer", 3, "", false, now); !errors.Is(err, ErrNoPendingQuestion) {
		t.Fatalf("expected ErrNoPendingQuestion, got %v", err)
	}
}

func TestFinalizeRequiresEntries(t *testing.T) {
	s := New("s1", "", "", "", now)

	if err := s.Finalize("summary", 10, now); !errors.Is(err, ErrNoAnswers) {
		t.Fatalf("expected ErrNoAnswers, got %v", err)
	}

	if err := s.AppendQuestion("q", Easy, now); err != nil {
		t.Fatalf("append question: %v", err)
	}
	if err := s.Finalize("summary", 10, now); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if s.Summary == nil || *s.Summary != "summary" || s.FinalScore != 10 {
		t.Fatalf("unexpected finalized session: %+v", s)
	}
}

func TestParseDifficulty(t *testing.T) {
	for input, want := range map[string]Difficulty{"easy": Easy, " Medium ": Medium, "HARD": Hard} {
		got, err := ParseDifficulty(input)
		if err != nil || got != want {
			t.Fatalf("ParseDifficulty(%q) = %q, %v", input, got, err)
		}
	}

	if _, err := ParseDifficulty("insane"); !errors.Is(err, ErrUnknownDifficulty) {
		t.Fatalf("expected ErrUnknownDifficulty, got %v", err)
	}
}

func TestCloneIsDeep(t *testing.T) {
	s := New("s1", "", "", "", now)
	_ = s.AppendQuestion("q", Easy, now)
	_ = s.RecordAnswer("original", 4, "", false, now)

	c := s.Clone()
	*c.Answers[0].Answer = "changed"
	*c.Answers[0].Score = 20

	if *s.Answers[0].Answer != "original" || *s.Answers[0].Score != 4 {
		t.Fatalf("clone shares entry pointers with the original")
	}
}
