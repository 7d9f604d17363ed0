package store

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cognicore/syllog/pkg/syllog/term"
)

// Store is the append-only rule base a knowledge base resolves against
type Store interface {
	Close() error

	// Append adds rules after the existing ones. Rules are copied.
	Append(ctx context.Context, rules ...term.Rule) error
	// Rules returns a snapshot in insertion order.
	Rules() []term.Rule
	Len() int
}

// Journal is an audit log of answered queries. Entries are never replayed
// into a Store.
type Journal interface {
	Close() error

	Record(ctx context.Context, e Entry) error
	// Entries returns up to limit entries, newest first. A limit <= 0 returns all.
	Entries(ctx context.Context, limit int) ([]Entry, error)
	// Prune deletes entries recorded before the cutoff and reports how many went.
	Prune(ctx context.Context, before time.Time) (int, error)
}

// Entry records one consulted query and what the caller pulled from it
type Entry struct {
	ID        ulid.ULID
	At        time.Time
	Query     string
	Answers   []string
	Exhausted bool // the caller pulled until the search ran out
	Refuted   bool
	Duration  time.Duration
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewID returns a ULID that sorts after every ID previously returned in this
// process for the same millisecond.
func NewID(at time.Time) ulid.ULID {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), entropy)
}
