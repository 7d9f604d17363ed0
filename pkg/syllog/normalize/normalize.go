// Package normalize turns parsed statements into canonical rules.
//
// Every statement shape reduces to a flat, ordered list of rules of the form
// head :- body, each tagged with the operator of the statement it came from
// (assertion, question or command). Quantified names are tracked in an
// immutable Scope, so a declaration is visible in its own subtree only.
package normalize

import (
	"fmt"

	"github.com/cognicore/syllog/pkg/syllog/ast"
	"github.com/cognicore/syllog/pkg/syllog/internalerr"
	"github.com/cognicore/syllog/pkg/syllog/term"
)

// Op tags the statement form a clause was produced by
type Op string

const (
	OpAssert   Op = ""
	OpQuestion Op = "?"
	OpCommand  Op = "!"
)

// Clause is one normalized rule and the operator it was produced under
type Clause struct {
	Op   Op
	Rule term.Rule
}

func (c Clause) String() string {
	if c.Op == OpAssert {
		return c.Rule.String()
	}
	return string(c.Op) + " " + c.Rule.String()
}

// Scope maps declared names to the kind of variable they introduce.
// The zero value is an empty scope.
type Scope struct {
	kinds map[string]term.Kind
}

// NewScope returns an empty scope
func NewScope() Scope {
	return Scope{}
}

// With returns a copy of s extended with names declared as kind. Later
// declarations shadow earlier ones.
func (s Scope) With(kind term.Kind, names ...string) Scope {
	if len(names) == 0 {
		return s
	}
	kinds := make(map[string]term.Kind, len(s.kinds)+len(names))
	for k, v := range s.kinds {
		kinds[k] = v
	}
	for _, n := range names {
		kinds[n] = kind
	}
	return Scope{kinds: kinds}
}

// Lookup returns the kind a name was declared with
func (s Scope) Lookup(name string) (term.Kind, bool) {
	k, ok := s.kinds[name]
	return k, ok
}

// Normalize converts statements into clauses, preserving source order.
func Normalize(stmts []ast.Statement, scope Scope) ([]Clause, error) {
	var out []Clause
	for _, st := range stmts {
		clauses, err := normalize(st, scope)
		if err != nil {
			return nil, err
		}
		out = append(out, clauses...)
	}
	return out, nil
}

func normalize(st ast.Statement, scope Scope) ([]Clause, error) {
	switch s := st.(type) {
	case ast.Pred:
		return normalizePred(s, scope)

	case ast.Question:
		clauses, err := normalize(s.Body, scope.With(term.Free, s.Vars...))
		if err != nil {
			return nil, err
		}
		return tag(clauses, OpQuestion), nil

	case ast.Command:
		clauses, err := normalize(s.Body, scope)
		if err != nil {
			return nil, err
		}
		return tag(clauses, OpCommand), nil

	case ast.Not:
		clauses, err := Normalize([]ast.Statement{s.Body}, scope)
		if err != nil {
			return nil, err
		}
		for i := range clauses {
			clauses[i].Rule.Positive = !clauses[i].Rule.Positive
		}
		return clauses, nil

	case ast.Either:
		return normalizeEither(s, scope)

	case ast.If:
		return normalizeIf(s.Vars, s.Antecedent, s.Consequent, s.Else, scope)

	case ast.Quantified:
		if s.Quantifier == ast.QuantOnly {
			// only A are B: whatever is B is A
			return normalizeIf([]string{s.Var}, []ast.Statement{s.Body}, s.Range, nil, scope)
		}
		return normalizeIf([]string{s.Var}, []ast.Statement{s.Range}, s.Body, nil, scope)

	case ast.Let:
		return normalize(s.Body, scope.With(term.Every, s.Vars...))

	case ast.And:
		return Normalize(s, scope)

	case nil:
		return nil, fmt.Errorf("normalize: %w: nil statement", internalerr.ErrMalformed)

	default:
		return nil, fmt.Errorf("normalize: %w: unsupported node %T", internalerr.ErrMalformed, st)
	}
}

func normalizePred(p ast.Pred, scope Scope) ([]Clause, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("normalize: %w: predicate without a name", internalerr.ErrMalformed)
	}
	args := make([]term.Binding, len(p.Args))
	for i, a := range p.Args {
		args[i] = classify(a, scope)
	}
	return []Clause{{Rule: term.Fact(term.NewAtom(p.Name, args...))}}, nil
}

func classify(arg any, scope Scope) term.Binding {
	name, ok := arg.(string)
	if !ok {
		return term.NewConst(arg)
	}
	kind, declared := scope.Lookup(name)
	if !declared {
		return term.NewConst(name)
	}
	return term.Binding{Kind: kind, Name: name}
}

// normalizeEither encodes `either A or B` as A :- ~B and B :- ~A.
func normalizeEither(e ast.Either, scope Scope) ([]Clause, error) {
	left, err := normalize(e.Head, scope)
	if err != nil {
		return nil, err
	}
	right, err := normalize(e.Body, scope)
	if err != nil {
		return nil, err
	}
	out := make([]Clause, 0, len(left)+len(right))
	out = append(out, excludeAll(left, right)...)
	out = append(out, excludeAll(right, left)...)
	return out, nil
}

func excludeAll(clauses, others []Clause) []Clause {
	out := make([]Clause, len(clauses))
	for i, c := range clauses {
		r := c.Rule.Clone()
		for _, o := range others {
			r.Body = append(r.Body, o.Rule.Literal().Negate())
		}
		out[i] = Clause{Op: c.Op, Rule: r}
	}
	return out
}

// normalizeIf prepends the antecedent to every consequent rule. An else
// branch holds whenever one of the antecedent literals fails, so it becomes
// one rule per antecedent literal.
func normalizeIf(vars []string, antecedent []ast.Statement, consequent, otherwise ast.Statement, scope Scope) ([]Clause, error) {
	inner := scope.With(term.Every, vars...)

	ante, err := Normalize(antecedent, inner)
	if err != nil {
		return nil, err
	}
	conds := make([]term.Literal, len(ante))
	for i, a := range ante {
		conds[i] = a.Rule.Literal()
	}

	cons, err := Normalize([]ast.Statement{consequent}, inner)
	if err != nil {
		return nil, err
	}
	out := make([]Clause, 0, len(cons))
	for _, c := range cons {
		r := c.Rule.Clone()
		r.Body = append(term.CloneLiterals(conds), r.Body...)
		out = append(out, Clause{Op: c.Op, Rule: r})
	}

	if otherwise == nil {
		return out, nil
	}
	alt, err := Normalize([]ast.Statement{otherwise}, inner)
	if err != nil {
		return nil, err
	}
	for _, cond := range conds {
		for _, c := range alt {
			r := c.Rule.Clone()
			r.Body = append(r.Body, cond.Negate())
			out = append(out, Clause{Op: c.Op, Rule: r})
		}
	}
	return out, nil
}

func tag(clauses []Clause, op Op) []Clause {
	for i := range clauses {
		clauses[i].Op = op
	}
	return clauses
}
