// Package unify matches query atoms against rule heads.
package unify

import (
	"github.com/cognicore/syllog/pkg/syllog/term"
)

// Unify matches a query atom against a rule head and returns the
// substitution that makes them agree.
//
// Position by position: a rule variable (Free, or Every other than a generic
// individual) is bound to the query value; otherwise a bindable query
// variable is bound to the rule value; otherwise both sides must be the
// identical constant or generic. The first binding established for a name is
// kept: a later position naming the same variable never overrides it and
// never fails the match.
func Unify(query, head term.Atom) (term.Substitution, bool) {
	if query.Pred != head.Pred || len(query.Args) != len(head.Args) {
		return nil, false
	}
	sub := make(term.Substitution)
	for i := range query.Args {
		q, h := query.Args[i], head.Args[i]
		switch {
		case open(h):
			bind(sub, h, q)
		case q.Bindable():
			bind(sub, q, h)
		default:
			if !q.Equal(h) {
				return nil, false
			}
		}
	}
	return sub, true
}

// bind records v = val unless v already has a value. A repeat only links two
// still-open variables.
func bind(sub term.Substitution, v, val term.Binding) {
	key := v.Key()
	prev, ok := sub[key]
	if !ok {
		if val.Kind != term.Const && val.Key() == key && val.Kind == v.Kind {
			return
		}
		sub[key] = val
		return
	}
	x, y := sub.Walk(prev), sub.Walk(val)
	switch {
	case x.Equal(y):
	case open(x):
		sub[x.Key()] = y
	case open(y):
		sub[y.Key()] = x
	}
}

// open reports whether b is a variable that may still take a value.
func open(b term.Binding) bool {
	return b.IsVar() && !b.IsGeneric()
}

// Apply rewrites a copy of lits, replacing every variable that has an entry
// in sub. The input is left untouched.
func Apply(lits []term.Literal, sub term.Substitution) []term.Literal {
	out := term.CloneLiterals(lits)
	for i := range out {
		applyArgs(out[i].Args, sub)
	}
	return out
}

// ApplyAtom is Apply for a single atom.
func ApplyAtom(a term.Atom, sub term.Substitution) term.Atom {
	out := a.Clone()
	applyArgs(out.Args, sub)
	return out
}

func applyArgs(args []term.Binding, sub term.Substitution) {
	if len(sub) == 0 {
		return
	}
	for i, arg := range args {
		if arg.Kind == term.Const {
			continue
		}
		if _, ok := sub[arg.Key()]; ok {
			args[i] = sub.Walk(arg)
		}
	}
}
