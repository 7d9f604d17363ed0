package maintenance

import (
	"context"
	"errors"
	"time"

	"github.com/cognicore/syllog/pkg/syllog/store"
)

// Pruner enforces the journal retention window.
type Pruner struct {
	Journal store.Journal
	Retain  time.Duration
	Now     func() time.Time
}

// Result summarizes the pruning run.
type Result struct {
	Cutoff  time.Time
	Removed int
	Kept    int
}

// Prune removes journal entries older than Retain. A zero Retain keeps
// everything.
func (p *Pruner) Prune(ctx context.Context) (Result, error) {
	var res Result
	if p.Journal == nil || p.Retain < 0 {
		return res, errors.New("pruner: invalid configuration")
	}

	if p.Retain > 0 {
		now := time.Now
		if p.Now != nil {
			now = p.Now
		}
		res.Cutoff = now().Add(-p.Retain)
		n, err := p.Journal.Prune(ctx, res.Cutoff)
		if err != nil {
			return res, err
		}
		res.Removed = n
	}

	left, err := p.Journal.Entries(ctx, 0)
	if err != nil {
		return res, err
	}
	res.Kept = len(left)
	return res, nil
}
