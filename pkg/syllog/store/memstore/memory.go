package memstore

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/cognicore/syllog/pkg/syllog/store"
	"github.com/cognicore/syllog/pkg/syllog/term"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu    sync.RWMutex
	rules []term.Rule
}

// New creates an empty in-memory rule store.
func New() *Store {
	return &Store{}
}

// Close implements store.Store.
func (s *Store) Close() error { return nil }

// Append implements store.Store.
func (s *Store) Append(ctx context.Context, rules ...term.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range rules {
		s.rules = append(s.rules, r.Clone())
	}
	return nil
}

// Rules returns a snapshot. Later appends are not visible through it.
func (s *Store) Rules() []term.Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rules[:len(s.rules):len(s.rules)]
}

// Len implements store.Store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// Journal is an in-memory implementation of store.Journal for tests.
type Journal struct {
	mu      sync.RWMutex
	entries []store.Entry
}

// NewJournal creates an empty journal.
func NewJournal() *Journal {
	return &Journal{}
}

// Close implements store.Journal.
func (j *Journal) Close() error { return nil }

// Record implements store.Journal.
func (j *Journal) Record(ctx context.Context, e store.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = append(j.entries, copyEntry(e))
	return nil
}

// Entries implements store.Journal.
func (j *Journal) Entries(ctx context.Context, limit int) ([]store.Entry, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]store.Entry, 0, len(j.entries))
	for i := len(j.entries) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, copyEntry(j.entries[i]))
	}
	return out, nil
}

// Prune implements store.Journal.
func (j *Journal) Prune(ctx context.Context, before time.Time) (int, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	n := len(j.entries)
	j.entries = slices.DeleteFunc(j.entries, func(e store.Entry) bool {
		return e.At.Before(before)
	})
	return n - len(j.entries), nil
}

func copyEntry(e store.Entry) store.Entry {
	e.Answers = slices.Clone(e.Answers)
	return e
}
