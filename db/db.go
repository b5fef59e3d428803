package db

import (
	"context"
	"sync"

	"github.com/jsphweid/simon/model"
	"github.com/jsphweid/simon/util"
	"golang.org/x/exp/slices"
)

type Store interface {
	Put(ctx context.Context, score model.Score) error
	// Top returns at most n scores, best first.
	Top(ctx context.Context, n int) ([]model.Score, error)
}

// best level first, earlier finish breaks ties
func rankSortScores(scores []model.Score) {
	slices.SortStableFunc(scores, func(a, b model.Score) bool {
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		return a.EndedAt.Before(b.EndedAt)
	})
}

func top(scores []model.Score, n int) []model.Score {
	rankSortScores(scores)
	if n < 0 {
		n = 0
	}
	return scores[:util.Min(n, len(scores))]
}

type MemoryStore struct {
	mu     sync.Mutex
	scores []model.Score
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Put(ctx context.Context, score model.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores = append(m.scores, score)
	return nil
}

func (m *MemoryStore) Top(ctx context.Context, n int) ([]model.Score, error) {
	m.mu.Lock()
	scores := make([]model.Score, len(m.scores))
	copy(scores, m.scores)
	m.mu.Unlock()
	return top(scores, n), nil
}
