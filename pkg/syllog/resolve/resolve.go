// Package resolve answers conjunctive goals by backward chaining over a rule
// source.
//
// The search is depth-first, left to right, and lazy: answers are produced on
// demand through Go iterators and the caller cancels by ceasing to pull.
// Every branch works on its own copy of the goal list and path, so an
// abandoned branch leaves nothing behind.
package resolve

import (
	"context"
	"errors"
	"iter"

	"go.uber.org/zap"

	"github.com/cognicore/syllog/pkg/syllog/internalerr"
	"github.com/cognicore/syllog/pkg/syllog/term"
	"github.com/cognicore/syllog/pkg/syllog/unify"
)

// RuleSource supplies the rules to search, in insertion order.
type RuleSource interface {
	Rules() []term.Rule
}

// RuleSlice adapts a plain slice to RuleSource.
type RuleSlice []term.Rule

// Rules returns the slice itself
func (s RuleSlice) Rules() []term.Rule { return s }

// Query is a conjunction of goals plus hypothesis facts that hold only while
// answering it.
type Query struct {
	Goals  []term.Literal
	Assume []term.Rule
}

// NewQuery builds a query from a head goal and its trailing conjunction.
func NewQuery(goal term.Literal, rest ...term.Literal) Query {
	return Query{Goals: append([]term.Literal{goal}, rest...)}
}

func (q Query) String() string {
	s := ""
	for i, g := range q.Goals {
		if i > 0 {
			s += ", "
		}
		s += g.String()
	}
	return s + "?"
}

// Verdict summarizes a query.
type Verdict int

const (
	Unknown Verdict = iota
	Proved
	Refuted
)

func (v Verdict) String() string {
	switch v {
	case Proved:
		return "proved"
	case Refuted:
		return "refuted"
	default:
		return "unknown"
	}
}

// Resolver runs queries against a rule source.
type Resolver struct {
	src       RuleSource
	logger    *zap.Logger
	tracer    Tracer
	maxDepth  int
	syllogism bool
}

// Option configures a Resolver
type Option func(*Resolver)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMaxDepth bounds the number of nested resolution steps on one branch.
// Zero means unlimited.
func WithMaxDepth(n int) Option {
	return func(r *Resolver) { r.maxDepth = n }
}

// WithSyllogism toggles the universal-chaining shortcut. It is on by default.
func WithSyllogism(on bool) Option {
	return func(r *Resolver) { r.syllogism = on }
}

// WithTracer receives an event for every search step.
func WithTracer(t Tracer) Option {
	return func(r *Resolver) { r.tracer = t }
}

// New creates a resolver over src
func New(src RuleSource, opts ...Option) *Resolver {
	r := &Resolver{
		src:       src,
		logger:    zap.NewNop(),
		syllogism: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Answers streams every answer to q in search order. A goal of q established
// with the opposite polarity yields internalerr.ErrRefuted, and a depth
// overflow yields internalerr.ErrDepthExceeded. Either ends the stream.
// Inside a rule body a refutation ends that body only.
//
// An answer binds only the query's own variables. An empty substitution means
// the goals hold without binding anything.
func (r *Resolver) Answers(q Query) iter.Seq2[term.Substitution, error] {
	return r.AnswersContext(context.Background(), q)
}

// AnswersContext is Answers bounded by ctx. The rule scan checks ctx before
// every candidate, so a search that finds nothing still stops once ctx is
// done, yielding ctx.Err().
func (r *Resolver) AnswersContext(ctx context.Context, q Query) iter.Seq2[term.Substitution, error] {
	return func(yield func(term.Substitution, error) bool) {
		if len(q.Goals) == 0 {
			return
		}
		s := r.newSearch(ctx, q)
		s.solve(term.CloneLiterals(q.Goals), nil, func(o outcome) bool {
			if o.err != nil {
				if errors.Is(o.err, internalerr.ErrDepthExceeded) {
					r.logger.Warn("search depth exceeded",
						zap.String("query", q.String()),
						zap.Int("max_depth", r.maxDepth))
				}
				yield(nil, o.err)
				return false
			}
			return yield(present(o.sub), nil)
		})
		r.logger.Debug("search finished",
			zap.String("query", q.String()),
			zap.Int("steps", s.steps))
	}
}

// Solve streams the successful answers to q, stopping at the first
// refutation or depth overflow.
func (r *Resolver) Solve(q Query) iter.Seq[term.Substitution] {
	return func(yield func(term.Substitution) bool) {
		for sub, err := range r.Answers(q) {
			if err != nil || !yield(sub) {
				return
			}
		}
	}
}

// Prove reports whether q has at least one answer, is refuted, or neither.
func (r *Resolver) Prove(q Query) Verdict {
	for _, err := range r.Answers(q) {
		switch {
		case err == nil:
			return Proved
		case errors.Is(err, internalerr.ErrRefuted):
			return Refuted
		default:
			return Unknown
		}
	}
	return Unknown
}

// outcome is one item of the internal stream: a success or a failure signal.
type outcome struct {
	sub term.Substitution
	err error
}

// search is the state of a single query. The generation counter only hands
// out fresh names; it never influences which branch is taken.
type search struct {
	r       *Resolver
	ctx     context.Context
	rules   []term.Rule
	assumed int
	gen     int
	steps   int
}

func (r *Resolver) newSearch(ctx context.Context, q Query) *search {
	var stored []term.Rule
	if r.src != nil {
		stored = r.src.Rules()
	}
	rules := make([]term.Rule, 0, len(q.Assume)+len(stored))
	rules = append(rules, q.Assume...)
	rules = append(rules, stored...)
	return &search{r: r, ctx: ctx, rules: rules, assumed: len(q.Assume)}
}

func (s *search) trace(kind EventKind, depth int, goal term.Literal, rule term.Rule) {
	if s.r.tracer != nil {
		s.r.tracer.Trace(Event{Kind: kind, Depth: depth, Goal: goal, Rule: rule})
	}
}

// solve resolves the conjunction goals. It reports false once the consumer
// has stopped or a failure signal has been passed on.
func (s *search) solve(goals []term.Literal, path [][]term.Literal, yield func(outcome) bool) bool {
	if len(goals) == 0 {
		return yield(outcome{sub: term.Substitution{}})
	}
	depth := len(path)
	goal, rest := goals[0], goals[1:]
	for _, seen := range path {
		if term.Variant(seen, goals) {
			s.trace(EventCycle, depth, goal, term.Rule{})
			return true
		}
	}
	if s.r.maxDepth > 0 && depth >= s.r.maxDepth {
		yield(outcome{err: internalerr.ErrDepthExceeded})
		return false
	}

	next := make([][]term.Literal, depth+1)
	copy(next, path)
	next[depth] = goals
	vars := variables(goals)

	s.trace(EventCall, depth, goal, term.Rule{})
	defer s.trace(EventExit, depth, goal, term.Rule{})

	return s.resolveGoal(goal, next, func(head outcome) bool {
		if head.err != nil {
			yield(head)
			return false
		}
		if len(rest) == 0 {
			return yield(outcome{sub: restrict(head.sub, vars)})
		}
		return s.solve(unify.Apply(rest, head.sub), path, func(tail outcome) bool {
			if tail.err != nil {
				yield(tail)
				return false
			}
			return yield(outcome{sub: restrict(merge(head.sub, tail.sub), vars)})
		})
	})
}

// resolveGoal scans hypotheses, then stored rules, for heads that unify with
// goal.
func (s *search) resolveGoal(goal term.Literal, path [][]term.Literal, yield func(outcome) bool) bool {
	depth := len(path) - 1
	for i, stored := range s.rules {
		if err := s.ctx.Err(); err != nil {
			yield(outcome{err: err})
			return false
		}
		if stored.Head.Pred != goal.Pred || len(stored.Head.Args) != len(goal.Args) {
			continue
		}
		rule := stored
		if i >= s.assumed {
			s.gen++
			rule = stored.Rename(s.gen)
		}
		s.steps++
		theta, ok := unify.Unify(goal.Atom, rule.Head)
		if !ok {
			continue
		}
		s.trace(EventMatch, depth, goal, rule)

		if rule.IsFact() {
			if rule.Positive != goal.Positive {
				s.trace(EventRefute, depth, goal, rule)
				yield(outcome{err: internalerr.ErrRefuted})
				return false
			}
			if !yield(outcome{sub: theta}) {
				return false
			}
			continue
		}

		body := unify.Apply(rule.Body, theta)
		if s.r.syllogism && rule.Positive == goal.Positive {
			if inv, ok := chain(rule, theta, body); ok {
				s.trace(EventSyllogism, depth, goal, rule)
				return yield(outcome{sub: inv})
			}
		}

		// A refuted body only rules out this rule.
		refuted := false
		ok = s.solve(body, path, func(o outcome) bool {
			if errors.Is(o.err, internalerr.ErrRefuted) {
				refuted = true
				return false
			}
			if o.err != nil {
				yield(o)
				return false
			}
			if rule.Positive != goal.Positive {
				s.trace(EventRefute, depth, goal, rule)
				yield(outcome{err: internalerr.ErrRefuted})
				return false
			}
			return yield(outcome{sub: merge(theta, o.sub)})
		})
		if !ok && !refuted {
			return false
		}
	}
	return true
}

// chain detects a universal chaining step: the rule's universal variable was
// matched to a generic individual of the query, and nothing left in the body
// depends on that match. The answer is then the generic read back as the
// rule's universal.
func chain(rule term.Rule, theta term.Substitution, body []term.Literal) (term.Substitution, bool) {
	universal := make(map[string]term.Binding)
	for _, arg := range rule.Head.Args {
		if arg.Kind == term.Every && arg.Gen > 0 {
			universal[arg.Key()] = arg
		}
	}
	inv := make(term.Substitution)
	bound := make(map[string]struct{}, 2*len(theta))
	for k, v := range theta {
		bound[k] = struct{}{}
		if v.Kind != term.Const {
			bound[v.Key()] = struct{}{}
		}
		if rv, ok := universal[k]; ok && v.IsGeneric() {
			inv[v.Key()] = term.NewEvery(rv.Name)
		}
	}
	if len(inv) == 0 {
		return nil, false
	}
	for _, l := range body {
		if l.Mentions(bound) {
			return nil, false
		}
	}
	return inv, true
}

// variables collects the keys an answer to goals may bind: query variables
// and generic individuals.
func variables(goals []term.Literal) []term.Binding {
	seen := make(map[string]struct{})
	var out []term.Binding
	for _, g := range goals {
		for _, arg := range g.Args {
			if !arg.Bindable() && !arg.IsGeneric() {
				continue
			}
			if _, ok := seen[arg.Key()]; ok {
				continue
			}
			seen[arg.Key()] = struct{}{}
			out = append(out, arg)
		}
	}
	return out
}

// restrict resolves each variable through sub and drops everything else.
func restrict(sub term.Substitution, vars []term.Binding) term.Substitution {
	out := make(term.Substitution, len(vars))
	for _, v := range vars {
		w := sub.Walk(v)
		if w.Equal(v) {
			continue
		}
		out[v.Key()] = w
	}
	return out
}

// merge combines a rule match with the answer to its body. Keys never clash:
// the body was rewritten with theta before it was solved.
func merge(theta, body term.Substitution) term.Substitution {
	out := theta.Clone()
	for k, v := range body {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// present drops bindings to variables that only exist inside one rule use.
func present(sub term.Substitution) term.Substitution {
	for k, v := range sub {
		if v.Kind != term.Const && v.Gen > 0 {
			delete(sub, k)
		}
	}
	return sub
}
