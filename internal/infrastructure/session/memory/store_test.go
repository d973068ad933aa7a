package memory

import (
	"context"
	"testing"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
)

type lengthCounter struct{}

func (lengthCounter) Count(text string) int { return len(text) }

func TestHistoryOfUnknownSessionIsEmpty(t *testing.T) {
	store := NewStore(lengthCounter{}, 100)

	turns, err := store.History(context.Background(), "missing")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty history, got %v", turns)
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	store := NewStore(lengthCounter{}, 100)

	_ = store.Append(context.Background(), "s-1",
		domain.Turn{Role: domain.RoleUser, Content: "one"},
		domain.Turn{Role: domain.RoleAssistant, Content: "two"},
	)
	_ = store.Append(context.Background(), "s-1",
		domain.Turn{Role: domain.RoleUser, Content: "three"},
	)

	turns, _ := store.History(context.Background(), "s-1")
	if len(turns) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(turns))
	}
	if turns[0].Content != "one" || turns[2].Content != "three" {
		t.Fatalf("unexpected order: %+v", turns)
	}
}

func TestBudgetEvictsOldestFirst(t *testing.T) {
	store := NewStore(lengthCounter{}, 10)

	_ = store.Append(context.Background(), "s-1",
		domain.Turn{Role: domain.RoleUser, Content: "aaaa"},
		domain.Turn{Role: domain.RoleAssistant, Content: "bbbb"},
		domain.Turn{Role: domain.RoleUser, Content: "cccc"},
	)

	turns, _ := store.History(context.Background(), "s-1")
	if len(turns) != 2 {
		t.Fatalf("expected eviction down to 2 turns, got %d", len(turns))
	}
	if turns[0].Content != "bbbb" || turns[1].Content != "cccc" {
		t.Fatalf("oldest turn must go first: %+v", turns)
	}
}

func TestMostRecentTurnSurvivesOversizedBudget(t *testing.T) {
	store := NewStore(lengthCounter{}, 5)

	_ = store.Append(context.Background(), "s-1",
		domain.Turn{Role: domain.RoleUser, Content: "this single turn is far over the budget"},
	)

	turns, _ := store.History(context.Background(), "s-1")
	if len(turns) != 1 {
		t.Fatalf("most recent turn must always survive, got %d", len(turns))
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore(lengthCounter{}, 100)

	_ = store.Append(context.Background(), "s-1", domain.Turn{Role: domain.RoleUser, Content: "one"})
	_ = store.Append(context.Background(), "s-2", domain.Turn{Role: domain.RoleUser, Content: "two"})

	turns, _ := store.History(context.Background(), "s-1")
	if len(turns) != 1 || turns[0].Content != "one" {
		t.Fatalf("sessions must not share history: %+v", turns)
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	store := NewStore(lengthCounter{}, 100)
	_ = store.Append(context.Background(), "s-1", domain.Turn{Role: domain.RoleUser, Content: "one"})

	turns, _ := store.History(context.Background(), "s-1")
	turns[0].Content = "mutated"

	again, _ := store.History(context.Background(), "s-1")
	if again[0].Content != "one" {
		t.Fatalf("History must return a copy, got %q", again[0].Content)
	}
}
