package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
)

type lengthCounter struct{}

func (lengthCounter) Count(text string) int { return len(text) }

func TestHistoryReturnsChronologicalTurns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	store := NewStore(db, lengthCounter{}, 100)
	rows := sqlmock.NewRows([]string{"role", "content"}).
		AddRow("user", "misfire on bank two").
		AddRow("assistant", "check the coils")

	mock.ExpectQuery("FROM chat_turns").
		WithArgs("s-1").
		WillReturnRows(rows)

	turns, err := store.History(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != domain.RoleUser || turns[1].Content != "check the coils" {
		t.Fatalf("unexpected turns: %+v", turns)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestHistoryTrimsToTokenBudget(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	store := NewStore(db, lengthCounter{}, 10)
	rows := sqlmock.NewRows([]string{"role", "content"}).
		AddRow("user", "aaaa").
		AddRow("assistant", "bbbb").
		AddRow("user", "cccc")

	mock.ExpectQuery("FROM chat_turns").
		WithArgs("s-1").
		WillReturnRows(rows)

	turns, err := store.History(context.Background(), "s-1")
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("expected trim to 2 turns, got %d", len(turns))
	}
	if turns[0].Content != "bbbb" {
		t.Fatalf("oldest turn must be dropped first: %+v", turns)
	}
}

func TestAppendInsertsOneRowPerTurn(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	store := NewStore(db, lengthCounter{}, 100)
	mock.ExpectExec("INSERT INTO chat_turns").
		WithArgs(sqlmock.AnyArg(), "s-1", "user", "question", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO chat_turns").
		WithArgs(sqlmock.AnyArg(), "s-1", "assistant", "answer", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = store.Append(context.Background(), "s-1",
		domain.Turn{Role: domain.RoleUser, Content: "question"},
		domain.Turn{Role: domain.RoleAssistant, Content: "answer"},
	)
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendNoTurnsIsNoop(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	store := NewStore(db, lengthCounter{}, 100)
	if err := store.Append(context.Background(), "s-1"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
