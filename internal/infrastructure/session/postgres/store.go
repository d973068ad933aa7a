// Package postgres persists conversation history in a chat_turns table,
// one row per turn. History is trimmed to the token budget on read so
// old sessions never feed an oversized prompt.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
)

type Store struct {
	db      *sql.DB
	counter ports.TokenCounter
	budget  int
}

func NewStore(db *sql.DB, counter ports.TokenCounter, tokenBudget int) *Store {
	if tokenBudget <= 0 {
		tokenBudget = 4096
	}
	return &Store{db: db, counter: counter, budget: tokenBudget}
}

func (s *Store) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT role, content
FROM chat_turns
WHERE session_id = $1
ORDER BY created_at ASC, id ASC
`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var turns []domain.Turn
	for rows.Next() {
		var t domain.Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}
	return s.trim(turns), nil
}

func (s *Store) Append(ctx context.Context, sessionID string, turns ...domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i, t := range turns {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO chat_turns (id, session_id, role, content, created_at)
VALUES ($1, $2, $3, $4, $5)
`, uuid.NewString(), sessionID, string(t.Role), t.Content, now.Add(time.Duration(i)*time.Microsecond))
		if err != nil {
			return fmt.Errorf("append turn: %w", err)
		}
	}
	return nil
}

// trim drops the oldest turns until the remainder fits the token
// budget. The most recent turn is always kept.
func (s *Store) trim(turns []domain.Turn) []domain.Turn {
	total := 0
	for _, t := range turns {
		total += s.counter.Count(t.Content)
	}
	for len(turns) > 1 && total > s.budget {
		total -= s.counter.Count(turns[0].Content)
		turns = turns[1:]
	}
	return turns
}
