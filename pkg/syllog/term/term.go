package term

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind classifies one argument slot
type Kind int

const (
	// Const is a literal fixed at its position
	Const Kind = iota
	// Free is a variable to be solved for, introduced by a question
	Free
	// Every is a universally quantified variable, introduced by forall-style statements
	Every
)

func (k Kind) String() string {
	switch k {
	case Const:
		return "const"
	case Free:
		return "free"
	case Every:
		return "every"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Binding is the content of one argument slot.
//
// Gen is the standardize-apart generation: 0 for bindings written by the user
// (source statements and queries), n > 0 for the variables of a rule copied
// for the n-th resolution step. Two variables are the same variable iff both
// Name and Gen match.
type Binding struct {
	Kind  Kind
	Name  string
	Value any // string, int64 or float64 for Const
	Gen   int
}

// NewConst builds a constant. Integral numbers are stored as int64 so that
// YAML and JSON sources agree on 3 versus 3.0.
func NewConst(v any) Binding {
	return Binding{Kind: Const, Value: normalizeValue(v)}
}

// NewFree builds a variable to be solved for
func NewFree(name string) Binding {
	return Binding{Kind: Free, Name: name}
}

// NewEvery builds a universally quantified variable
func NewEvery(name string) Binding {
	return Binding{Kind: Every, Name: name}
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case string:
		return x
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case int64:
		return x
	case uint:
		return normalizeValue(uint64(x))
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return float64(x)
		}
		return int64(x)
	case float32:
		return normalizeValue(float64(x))
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	default:
		return fmt.Sprint(x)
	}
}

// IsVar reports whether the binding is a variable when it sits in a rule.
func (b Binding) IsVar() bool {
	return b.Kind == Free || b.Kind == Every
}

// IsGeneric reports whether the binding is a generic individual: a universal
// declared by the query itself. It names an arbitrary but fixed element.
func (b Binding) IsGeneric() bool {
	return b.Kind == Every && b.Gen == 0
}

// Bindable reports whether the binding is a variable when it sits in a query.
func (b Binding) Bindable() bool {
	return b.Kind == Free || (b.Kind == Every && b.Gen > 0)
}

// Key is the substitution key of a variable.
func (b Binding) Key() string {
	if b.Gen == 0 {
		return b.Name
	}
	return b.Name + "#" + strconv.Itoa(b.Gen)
}

// Equal compares kind and identity (value for constants, name and generation for variables).
func (b Binding) Equal(o Binding) bool {
	if b.Kind != o.Kind {
		return false
	}
	if b.Kind == Const {
		return b.Value == o.Value
	}
	return b.Name == o.Name && b.Gen == o.Gen
}

func (b Binding) String() string {
	switch b.Kind {
	case Const:
		switch v := b.Value.(type) {
		case string:
			if needsQuote(v) {
				return strconv.Quote(v)
			}
			return v
		case float64:
			return strconv.FormatFloat(v, 'g', -1, 64)
		default:
			return fmt.Sprint(v)
		}
	case Every:
		return b.Key() + "*"
	default:
		return b.Key()
	}
}

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r == ' ' || r == ',' || r == '(' || r == ')' || r == '"' {
			return true
		}
	}
	return false
}

// Atom is a predicate name applied to an ordered argument list
type Atom struct {
	Pred string
	Args []Binding
}

// NewAtom builds an atom
func NewAtom(pred string, args ...Binding) Atom {
	return Atom{Pred: pred, Args: args}
}

// Arity is the number of arguments
func (a Atom) Arity() int { return len(a.Args) }

// Clone returns a copy sharing no storage with a
func (a Atom) Clone() Atom {
	out := Atom{Pred: a.Pred}
	if a.Args != nil {
		out.Args = make([]Binding, len(a.Args))
		copy(out.Args, a.Args)
	}
	return out
}

// Equal is exact structural equality
func (a Atom) Equal(o Atom) bool {
	if a.Pred != o.Pred || len(a.Args) != len(o.Args) {
		return false
	}
	for i := range a.Args {
		if !a.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

// Mentions reports whether any argument is a variable or generic with one of the given keys.
func (a Atom) Mentions(keys map[string]struct{}) bool {
	for _, arg := range a.Args {
		if arg.Kind == Const {
			continue
		}
		if _, ok := keys[arg.Key()]; ok {
			return true
		}
	}
	return false
}

func (a Atom) String() string {
	if len(a.Args) == 0 {
		return a.Pred
	}
	var b strings.Builder
	b.WriteString(a.Pred)
	b.WriteByte('(')
	for i, arg := range a.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(arg.String())
	}
	b.WriteByte(')')
	return b.String()
}

// Literal is an atom with the polarity it is expected to hold with.
type Literal struct {
	Atom
	Positive bool
}

// Pos wraps an atom as a positive literal
func Pos(a Atom) Literal { return Literal{Atom: a, Positive: true} }

// Neg wraps an atom as a negated literal
func Neg(a Atom) Literal { return Literal{Atom: a, Positive: false} }

// Negate flips the polarity of a copy
func (l Literal) Negate() Literal {
	return Literal{Atom: l.Atom.Clone(), Positive: !l.Positive}
}

// Clone returns a copy sharing no storage with l
func (l Literal) Clone() Literal {
	return Literal{Atom: l.Atom.Clone(), Positive: l.Positive}
}

// Equal is exact structural equality including polarity
func (l Literal) Equal(o Literal) bool {
	return l.Positive == o.Positive && l.Atom.Equal(o.Atom)
}

func (l Literal) String() string {
	if l.Positive {
		return l.Atom.String()
	}
	return "~" + l.Atom.String()
}

// Rule is a head that holds (or, with Positive false, fails) whenever every
// body literal resolves, left to right. An empty body makes it a fact.
type Rule struct {
	Head     Atom
	Positive bool
	Body     []Literal
}

// Fact builds a positive rule with no body
func Fact(head Atom) Rule {
	return Rule{Head: head, Positive: true}
}

// NewRule builds a positive rule
func NewRule(head Atom, body ...Literal) Rule {
	return Rule{Head: head, Positive: true, Body: body}
}

// IsFact reports whether the rule has no body
func (r Rule) IsFact() bool { return len(r.Body) == 0 }

// Literal returns the head with the rule's polarity
func (r Rule) Literal() Literal {
	return Literal{Atom: r.Head.Clone(), Positive: r.Positive}
}

// Clone returns a deep copy
func (r Rule) Clone() Rule {
	out := Rule{Head: r.Head.Clone(), Positive: r.Positive}
	if r.Body != nil {
		out.Body = CloneLiterals(r.Body)
	}
	return out
}

// Rename returns a deep copy whose variables all carry generation gen.
func (r Rule) Rename(gen int) Rule {
	out := r.Clone()
	renameArgs(out.Head.Args, gen)
	for i := range out.Body {
		renameArgs(out.Body[i].Args, gen)
	}
	return out
}

func renameArgs(args []Binding, gen int) {
	for i := range args {
		if args[i].IsVar() {
			args[i].Gen = gen
		}
	}
}

// Equal is exact structural equality
func (r Rule) Equal(o Rule) bool {
	if r.Positive != o.Positive || !r.Head.Equal(o.Head) || len(r.Body) != len(o.Body) {
		return false
	}
	for i := range r.Body {
		if !r.Body[i].Equal(o.Body[i]) {
			return false
		}
	}
	return true
}

func (r Rule) String() string {
	head := r.Literal().String()
	if r.IsFact() {
		return head + "."
	}
	parts := make([]string, len(r.Body))
	for i, l := range r.Body {
		parts[i] = l.String()
	}
	return head + " :- " + strings.Join(parts, ", ") + "."
}

// CloneLiterals deep-copies a literal list
func CloneLiterals(ls []Literal) []Literal {
	out := make([]Literal, len(ls))
	for i, l := range ls {
		out[i] = l.Clone()
	}
	return out
}

// Substitution maps variable keys to the bindings they stand for.
type Substitution map[string]Binding

// Clone returns an independent copy
func (s Substitution) Clone() Substitution {
	out := make(Substitution, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Walk follows b through the substitution until it reaches a constant, a
// generic, or a variable with no entry.
func (s Substitution) Walk(b Binding) Binding {
	for steps := 0; steps <= len(s); steps++ {
		if b.Kind == Const {
			return b
		}
		next, ok := s[b.Key()]
		if !ok || next.Equal(b) {
			return b
		}
		b = next
	}
	return b
}

// Keys returns the keys in sorted order
func (s Substitution) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s Substitution) String() string {
	if len(s) == 0 {
		return "true"
	}
	keys := s.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " = " + s[k].String()
	}
	return strings.Join(parts, ", ")
}
