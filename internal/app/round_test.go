package app

import (
	"errors"
	"testing"

	"estimation-quiz-service/internal/domain"
)

func TestRoundStateMachine(t *testing.T) {
	r := newRound()

	if _, err := r.submit("a", "Alice", "3"); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("submit while idle: %v", err)
	}
	if _, err := r.evaluate(); !errors.Is(err, domain.ErrNoActiveQuestion) {
		t.Fatalf("evaluate while idle: %v", err)
	}

	r.activate(0, domain.Question{Prompt: "2+2", Target: 4})
	if _, err := r.submit("a", "Alice", "abc"); !errors.Is(err, domain.ErrInvalidAnswer) {
		t.Fatalf("expected invalid answer, got %v", err)
	}
	if _, err := r.submit("a", "Alice", "1"); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got, err := r.submit("a", "Alice", " 3.5 "); err != nil || got != 3.5 {
		t.Fatalf("resubmit: %v, %v", got, err)
	}

	scored, err := r.evaluate()
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if scored.points["a"] != 5 || len(scored.nonExceeding) != 1 {
		t.Fatalf("last submission should win: %+v", scored)
	}

	if _, err := r.evaluate(); !errors.Is(err, domain.ErrRoundAlreadyEvaluated) {
		t.Fatalf("expected already evaluated, got %v", err)
	}
	if _, err := r.submit("b", "Bob", "4"); !errors.Is(err, domain.ErrRoundClosed) {
		t.Fatalf("expected round closed, got %v", err)
	}

	r.activate(1, domain.Question{Prompt: "next", Target: 10})
	if len(r.submissions) != 0 || r.state != RoundCollecting {
		t.Fatalf("activate must clear submissions")
	}
}

func TestRoundRejectsNonFinite(t *testing.T) {
	r := newRound()
	r.activate(0, domain.Question{Prompt: "q", Target: 1})
	for _, raw := range []string{"NaN", "Inf", "-Inf", ""} {
		if _, err := r.submit("a", "Alice", raw); !errors.Is(err, domain.ErrInvalidAnswer) {
			t.Fatalf("%q: expected invalid answer, got %v", raw, err)
		}
	}
}
