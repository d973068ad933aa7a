// Package memory keeps conversation history in process memory with a
// token budget per session. When the budget is exceeded the oldest
// turns are dropped first; the most recent turn always survives.
package memory

import (
	"context"
	"sync"

	"github.com/mkotelnikov/autotech-rag/internal/core/domain"
	"github.com/mkotelnikov/autotech-rag/internal/core/ports"
)

const DefaultTokenBudget = 4096

type Store struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Turn
	counter  ports.TokenCounter
	budget   int
}

func NewStore(counter ports.TokenCounter, tokenBudget int) *Store {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	return &Store{
		sessions: make(map[string][]domain.Turn),
		counter:  counter,
		budget:   tokenBudget,
	}
}

func (s *Store) History(ctx context.Context, sessionID string) ([]domain.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	out := make([]domain.Turn, len(turns))
	copy(out, turns)
	return out, nil
}

func (s *Store) Append(ctx context.Context, sessionID string, turns ...domain.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := append(s.sessions[sessionID], turns...)
	s.sessions[sessionID] = s.evict(buf)
	return nil
}

// evict drops turns from the front until the total fits the budget.
// The last turn is kept even when it alone exceeds the budget.
func (s *Store) evict(turns []domain.Turn) []domain.Turn {
	for len(turns) > 1 && s.totalTokens(turns) > s.budget {
		turns = turns[1:]
	}
	return turns
}

func (s *Store) totalTokens(turns []domain.Turn) int {
	total := 0
	for _, t := range turns {
		total += s.counter.Count(t.Content)
	}
	return total
}
