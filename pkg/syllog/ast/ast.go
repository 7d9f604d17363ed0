// Package ast defines the parsed form of statements accepted by the engine.
//
// A statement is one of a closed set of node types. The surface grammar that
// produces them lives outside this module; documents holding the nested-array
// form (YAML or JSON) are turned into nodes by Decode.
package ast

import (
	"fmt"
	"strings"
)

// Statement is implemented by every node type in this package and nothing else.
type Statement interface {
	fmt.Stringer
	statement()
}

// Pred applies a predicate to arguments. Arguments are identifiers (string)
// or numbers; identifiers declared by an enclosing quantifier become
// variables, everything else is a constant.
type Pred struct {
	Name string
	Args []any
}

// Question asks for bindings of Vars that make Body hold.
type Question struct {
	Vars []string
	Body Statement
}

// Command is the imperative form; Body is asserted.
type Command struct {
	Body Statement
}

// Not negates each conjunct of Body.
type Not struct {
	Body Statement
}

// Either holds when exactly one of Head or Body can be shown.
type Either struct {
	Head Statement
	Body Statement
}

// If is an implication over universally quantified Vars. Else, when set,
// holds whenever the antecedent does not.
type If struct {
	Vars       []string
	Antecedent []Statement
	Consequent Statement
	Else       Statement
}

// Quantified is a generalized quantifier block: `every x: man(x) ... mortal(x)`.
type Quantified struct {
	Quantifier string
	Var        string
	Range      Statement
	Body       Statement
}

// Let binds several universally quantified names over Body.
type Let struct {
	Vars []string
	Body Statement
}

// And is an implicit conjunction.
type And []Statement

func (Pred) statement()       {}
func (Question) statement()   {}
func (Command) statement()    {}
func (Not) statement()        {}
func (Either) statement()     {}
func (If) statement()         {}
func (Quantified) statement() {}
func (Let) statement()        {}
func (And) statement()        {}

// Quantifier keywords accepted by Quantified.
const (
	QuantEvery = "every"
	QuantAll   = "all"
	QuantMost  = "most"
	QuantMany  = "many"
	QuantFew   = "few"
	QuantOnly  = "only"
)

// IsQuantifier reports whether s is a quantifier keyword
func IsQuantifier(s string) bool {
	switch s {
	case QuantEvery, QuantAll, QuantMost, QuantMany, QuantFew, QuantOnly:
		return true
	}
	return false
}

// P is shorthand for building a predicate node.
func P(name string, args ...any) Pred {
	return Pred{Name: name, Args: args}
}

func (p Pred) String() string {
	if len(p.Args) == 0 {
		return p.Name
	}
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = fmt.Sprint(a)
	}
	return p.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (q Question) String() string {
	if len(q.Vars) == 0 {
		return q.Body.String() + "?"
	}
	return "which " + strings.Join(q.Vars, ", ") + ": " + q.Body.String() + "?"
}

func (c Command) String() string {
	return c.Body.String() + "!"
}

func (n Not) String() string {
	return "not " + n.Body.String()
}

func (e Either) String() string {
	return "either " + e.Head.String() + " or " + e.Body.String()
}

func (f If) String() string {
	var b strings.Builder
	if len(f.Vars) > 0 {
		b.WriteString("forall(" + strings.Join(f.Vars, ", ") + ") ")
	}
	b.WriteString(And(f.Antecedent).String())
	b.WriteString(" => ")
	b.WriteString(f.Consequent.String())
	if f.Else != nil {
		b.WriteString(" else ")
		b.WriteString(f.Else.String())
	}
	return b.String()
}

func (q Quantified) String() string {
	return q.Quantifier + " " + q.Var + ": " + q.Range.String() + " ... " + q.Body.String()
}

func (l Let) String() string {
	return "let " + strings.Join(l.Vars, ", ") + ": " + l.Body.String()
}

func (a And) String() string {
	parts := make([]string, len(a))
	for i, s := range a {
		parts[i] = s.String()
	}
	return strings.Join(parts, " and ")
}
