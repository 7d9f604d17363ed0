package syllog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"go.uber.org/zap"

	"github.com/cognicore/syllog/pkg/syllog/ast"
	"github.com/cognicore/syllog/pkg/syllog/internalerr"
	"github.com/cognicore/syllog/pkg/syllog/normalize"
	"github.com/cognicore/syllog/pkg/syllog/resolve"
	"github.com/cognicore/syllog/pkg/syllog/store"
	"github.com/cognicore/syllog/pkg/syllog/store/memstore"
	"github.com/cognicore/syllog/pkg/syllog/term"
)

// KnowledgeBase is the main inference engine facade
type KnowledgeBase struct {
	store   store.Store
	journal store.Journal
	logger  *zap.Logger
	res     *resolve.Resolver
	now     func() time.Time
}

// Options configures a KnowledgeBase instance
type Options struct {
	Store    store.Store   // defaults to an empty memstore
	Journal  store.Journal // optional
	Logger   *zap.Logger
	Resolver []resolve.Option
}

// New creates a KnowledgeBase with the given dependencies
func New(opts Options) *KnowledgeBase {
	kb := &KnowledgeBase{
		store:   opts.Store,
		journal: opts.Journal,
		logger:  opts.Logger,
		now:     time.Now,
	}
	if kb.store == nil {
		kb.store = memstore.New()
	}
	if kb.logger == nil {
		kb.logger = zap.NewNop()
	}
	resOpts := append([]resolve.Option{resolve.WithLogger(kb.logger.Named("resolve"))}, opts.Resolver...)
	kb.res = resolve.New(kb.store, resOpts...)
	return kb
}

// Close cleanly shuts down the store and the journal
func (kb *KnowledgeBase) Close() error {
	err := kb.store.Close()
	if kb.journal != nil {
		err = errors.Join(err, kb.journal.Close())
	}
	return err
}

// Insert appends rules to the store as given, without normalization.
func (kb *KnowledgeBase) Insert(ctx context.Context, rules ...term.Rule) error {
	for i, r := range rules {
		if err := validateRule(r); err != nil {
			return fmt.Errorf("insert rule %d: %w", i, err)
		}
	}
	if len(rules) == 0 {
		return nil
	}
	if err := kb.store.Append(ctx, rules...); err != nil {
		return err
	}
	kb.logger.Debug("rules inserted",
		zap.Int("count", len(rules)),
		zap.Int("total", kb.store.Len()))
	return nil
}

func validateRule(r term.Rule) error {
	if r.Head.Pred == "" {
		return fmt.Errorf("%w: rule head without a predicate name", internalerr.ErrInvalidInput)
	}
	for _, l := range r.Body {
		if l.Pred == "" {
			return fmt.Errorf("%w: body literal without a predicate name in %s", internalerr.ErrInvalidInput, r)
		}
	}
	return nil
}

// Consult normalizes statements, stores assertions and commands, and returns
// the answers to the last question among them. Without a question the
// sequence is empty.
//
// An implication-shaped question such as "forall x: greek(x) => mortal(x)?"
// asks for the consequent with the antecedent assumed for that query only.
func (kb *KnowledgeBase) Consult(ctx context.Context, stmts ...ast.Statement) (iter.Seq[term.Substitution], error) {
	q, ok, err := kb.Pose(ctx, stmts...)
	if err != nil {
		return nil, err
	}
	if !ok {
		return func(func(term.Substitution) bool) {}, nil
	}
	return successes(kb.Stream(ctx, q)), nil
}

// Pose normalizes statements, stores everything but questions, and returns
// the query built from the last question. ok is false when there is none.
func (kb *KnowledgeBase) Pose(ctx context.Context, stmts ...ast.Statement) (q resolve.Query, ok bool, err error) {
	var asserted []term.Rule
	for i, st := range stmts {
		clauses, err := normalize.Normalize([]ast.Statement{st}, normalize.NewScope())
		if err != nil {
			return resolve.Query{}, false, fmt.Errorf("statement %d: %w", i, err)
		}
		var asked *resolve.Query
		for _, cl := range clauses {
			if cl.Op != normalize.OpQuestion {
				asserted = append(asserted, cl.Rule)
				continue
			}
			if asked == nil {
				asked = &resolve.Query{}
			}
			asked.Goals = append(asked.Goals, cl.Rule.Literal())
			for _, l := range cl.Rule.Body {
				asked.Assume = appendHypothesis(asked.Assume, l)
			}
		}
		if asked != nil {
			q, ok = *asked, true
		}
	}

	if err := kb.Insert(ctx, asserted...); err != nil {
		return resolve.Query{}, false, err
	}
	kb.logger.Debug("consulted",
		zap.Int("statements", len(stmts)),
		zap.Int("rules", len(asserted)),
		zap.Bool("question", ok))
	return q, ok, nil
}

func appendHypothesis(rules []term.Rule, l term.Literal) []term.Rule {
	h := term.Rule{Head: l.Atom.Clone(), Positive: l.Positive}
	for _, r := range rules {
		if r.Equal(h) {
			return rules
		}
	}
	return append(rules, h)
}

// Read decodes statements in nested-array form and consults them.
func (kb *KnowledgeBase) Read(ctx context.Context, docs ...any) (iter.Seq[term.Substitution], error) {
	stmts := make([]ast.Statement, 0, len(docs))
	for i, doc := range docs {
		st, err := ast.Decode(doc)
		if err != nil {
			return nil, fmt.Errorf("read %d: %w", i, err)
		}
		stmts = append(stmts, st)
	}
	return kb.Consult(ctx, stmts...)
}

// Query answers an already normalized conjunction of goals.
func (kb *KnowledgeBase) Query(ctx context.Context, goal term.Literal, conj ...term.Literal) iter.Seq[term.Substitution] {
	return successes(kb.Stream(ctx, resolve.NewQuery(goal, conj...)))
}

// Answers exposes the full answer stream, refutation included.
func (kb *KnowledgeBase) Answers(q resolve.Query) iter.Seq2[term.Substitution, error] {
	return kb.res.Answers(q)
}

// Prove summarizes a query as proved, refuted or unknown.
func (kb *KnowledgeBase) Prove(q resolve.Query) resolve.Verdict {
	return kb.res.Prove(q)
}

// Rules returns a copy of the stored rules in insertion order.
func (kb *KnowledgeBase) Rules() []term.Rule {
	rules := kb.store.Rules()
	out := make([]term.Rule, len(rules))
	for i, r := range rules {
		out[i] = r.Clone()
	}
	return out
}

// Stream is Answers plus journaling: when a journal is configured, what the
// caller pulled is recorded once it stops. A cancelled ctx ends the stream,
// even in the middle of a search that has not found anything yet, and is
// reported as ctx.Err().
func (kb *KnowledgeBase) Stream(ctx context.Context, q resolve.Query) iter.Seq2[term.Substitution, error] {
	return func(yield func(term.Substitution, error) bool) {
		start := kb.now()
		entry := store.Entry{At: start, Query: q.String(), Exhausted: true}
		defer func() {
			entry.Duration = kb.now().Sub(start)
			kb.record(ctx, entry)
		}()

		for sub, err := range kb.res.AnswersContext(ctx, q) {
			if err != nil {
				switch {
				case errors.Is(err, internalerr.ErrRefuted):
					entry.Refuted = true
				case ctx.Err() != nil:
					entry.Exhausted = false
				default:
					kb.logger.Warn("query abandoned", zap.String("query", entry.Query), zap.Error(err))
				}
				yield(nil, err)
				return
			}
			if err := ctx.Err(); err != nil {
				entry.Exhausted = false
				yield(nil, err)
				return
			}
			entry.Answers = append(entry.Answers, sub.String())
			if !yield(sub, nil) {
				entry.Exhausted = false
				return
			}
		}
	}
}

func successes(seq iter.Seq2[term.Substitution, error]) iter.Seq[term.Substitution] {
	return func(yield func(term.Substitution) bool) {
		for sub, err := range seq {
			if err != nil || !yield(sub) {
				return
			}
		}
	}
}

func (kb *KnowledgeBase) record(ctx context.Context, e store.Entry) {
	if kb.journal == nil {
		return
	}
	e.ID = store.NewID(e.At)
	if err := kb.journal.Record(context.WithoutCancel(ctx), e); err != nil {
		kb.logger.Warn("journal record failed", zap.String("query", e.Query), zap.Error(err))
	}
}
