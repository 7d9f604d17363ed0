package resolve

import (
	"context"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cognicore/syllog/pkg/syllog/ast"
	"github.com/cognicore/syllog/pkg/syllog/internalerr"
	"github.com/cognicore/syllog/pkg/syllog/normalize"
	"github.com/cognicore/syllog/pkg/syllog/term"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	c = term.NewConst
	f = term.NewFree
	e = term.NewEvery
	a = term.NewAtom
)

func forall(v string, ante ast.Statement, cons ast.Statement) ast.If {
	return ast.If{Vars: []string{v}, Antecedent: []ast.Statement{ante}, Consequent: cons}
}

// program normalizes statements into a rule slice.
func program(t *testing.T, stmts ...ast.Statement) RuleSlice {
	t.Helper()
	clauses, err := normalize.Normalize(stmts, normalize.NewScope())
	require.NoError(t, err)
	out := make(RuleSlice, 0, len(clauses))
	for _, cl := range clauses {
		out = append(out, cl.Rule)
	}
	return out
}

func socrates(t *testing.T) RuleSlice {
	return program(t,
		ast.P("man", "socrates"),
		forall("x", ast.P("man", "x"), ast.P("mortal", "x")),
	)
}

func solveAll(r *Resolver, goal term.Literal, rest ...term.Literal) []term.Substitution {
	return slices.Collect(r.Solve(NewQuery(goal, rest...)))
}

func TestFactRoundTrip(t *testing.T) {
	r := New(program(t, ast.P("likes", "sam", "salad")))

	got := solveAll(r, term.Pos(a("likes", c("sam"), c("salad"))))
	assert.Equal(t, []term.Substitution{{}}, got)
	assert.Equal(t, Proved, r.Prove(NewQuery(term.Pos(a("likes", c("sam"), c("salad"))))))
}

func TestAnswersFollowInsertionOrder(t *testing.T) {
	r := New(program(t,
		ast.P("likes", "sam", "salad"),
		ast.P("likes", "dean", "pie"),
		ast.P("likes", "sam", "apples"),
	))

	got := solveAll(r, term.Pos(a("likes", c("sam"), f("X"))))
	want := []term.Substitution{
		{"X": c("salad")},
		{"X": c("apples")},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestRepeatedQueryVariableTakesFirstValue(t *testing.T) {
	r := New(program(t, ast.P("likes", "sam", "salad")))

	got := solveAll(r, term.Pos(a("likes", f("X"), f("X"))))
	assert.Equal(t, []term.Substitution{{"X": c("sam")}}, got)
}

func TestImplicationChaining(t *testing.T) {
	r := New(socrates(t))

	assert.Equal(t, Proved, r.Prove(NewQuery(term.Pos(a("mortal", c("socrates"))))))

	got := solveAll(r, term.Pos(a("mortal", f("X"))))
	assert.Equal(t, []term.Substitution{{"X": c("socrates")}}, got)
}

func TestNegationAsFailure(t *testing.T) {
	r := New(socrates(t))

	assert.Empty(t, solveAll(r, term.Pos(a("mortal", c("foobar")))))
	assert.Empty(t, solveAll(r, term.Pos(a("immortal", c("socrates")))))
	assert.Equal(t, Unknown, r.Prove(NewQuery(term.Pos(a("mortal", c("foobar"))))))
}

func TestCycleTerminates(t *testing.T) {
	r := New(program(t,
		forall("x", ast.P("q", "x"), ast.P("p", "x")),
		forall("x", ast.P("p", "x"), ast.P("q", "x")),
	))

	assert.Empty(t, solveAll(r, term.Pos(a("p", c("a")))))
	assert.Empty(t, solveAll(r, term.Pos(a("p", f("X")))))
}

func TestRecursionStillFindsAnswers(t *testing.T) {
	r := New(program(t,
		ast.P("parent", "abe", "homer"),
		ast.P("parent", "homer", "bart"),
		ast.If{Vars: []string{"x", "y"}, Antecedent: []ast.Statement{ast.P("parent", "x", "y")}, Consequent: ast.P("ancestor", "x", "y")},
		ast.If{
			Vars:       []string{"x", "y", "z"},
			Antecedent: []ast.Statement{ast.P("ancestor", "x", "z"), ast.P("parent", "z", "y")},
			Consequent: ast.P("ancestor", "x", "y"),
		},
	))

	got := solveAll(r, term.Pos(a("ancestor", c("abe"), f("W"))))
	want := []term.Substitution{{"W": c("homer")}, {"W": c("bart")}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("answers mismatch (-want +got):\n%s", diff)
	}
}

func TestDisjunctionExclusivity(t *testing.T) {
	either := ast.Either{Head: ast.P("p", "x"), Body: ast.P("q", "x")}

	t.Run("alone proves neither side", func(t *testing.T) {
		r := New(program(t, either))
		assert.Equal(t, Unknown, r.Prove(NewQuery(term.Pos(a("p", c("x"))))))
	})

	t.Run("established side refutes the other", func(t *testing.T) {
		r := New(program(t, either, ast.P("q", "x")))
		assert.Empty(t, solveAll(r, term.Pos(a("p", c("x")))))
		assert.Equal(t, Unknown, r.Prove(NewQuery(term.Pos(a("p", c("x"))))))
		assert.Equal(t, Proved, r.Prove(NewQuery(term.Pos(a("q", c("x"))))))
		assert.Equal(t, Refuted, r.Prove(NewQuery(term.Neg(a("q", c("x"))))))
	})

	t.Run("denied side proves the other", func(t *testing.T) {
		r := New(program(t, either, ast.Not{Body: ast.P("q", "x")}))
		assert.Equal(t, Proved, r.Prove(NewQuery(term.Pos(a("p", c("x"))))))
	})
}

func TestRefutedBodyOnlySkipsTheRule(t *testing.T) {
	r := New(program(t,
		ast.Not{Body: ast.P("cold")},
		ast.If{Antecedent: []ast.Statement{ast.P("cold")}, Consequent: ast.P("snows")},
		ast.P("snows"),
	))

	assert.Equal(t, []term.Substitution{{}}, solveAll(r, term.Pos(a("snows"))))
}

func TestNegativeRuleRefutes(t *testing.T) {
	r := New(program(t,
		ast.P("penguin", "tux"),
		ast.Not{Body: forall("x", ast.P("penguin", "x"), ast.P("flies", "x"))},
	))

	var errs []error
	for _, err := range r.Answers(NewQuery(term.Pos(a("flies", c("tux"))))) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], internalerr.ErrRefuted)

	assert.Equal(t, Proved, r.Prove(NewQuery(term.Neg(a("flies", c("tux"))))))
}

func TestConjunctionSharesBindings(t *testing.T) {
	r := New(program(t,
		ast.P("likes", "sam", "salad"),
		ast.P("likes", "sam", "pie"),
		ast.P("cheap", "pie"),
	))

	got := solveAll(r,
		term.Pos(a("likes", c("sam"), f("X"))),
		term.Pos(a("cheap", f("X"))),
	)
	assert.Equal(t, []term.Substitution{{"X": c("pie")}}, got)
}

func TestUniversalRuleAnswersUnconstrained(t *testing.T) {
	r := New(program(t, ast.Let{Vars: []string{"x"}, Body: ast.P("thing", "x")}))

	got := solveAll(r, term.Pos(a("thing", f("X"))))
	assert.Equal(t, []term.Substitution{{}}, got, "a universal fact holds for any X")
}

func TestSyllogismShortcut(t *testing.T) {
	rules := program(t, forall("x", ast.P("q", "a"), ast.P("p", "x")))
	goal := term.Pos(a("p", e("y")))

	got := solveAll(New(rules), goal)
	assert.Equal(t, []term.Substitution{{"y": e("x")}}, got)

	off := New(rules, WithSyllogism(false))
	assert.Empty(t, solveAll(off, goal), "without the shortcut the body has to hold")
}

func TestSyllogismNeedsIrrelevantBody(t *testing.T) {
	r := New(socrates(t))

	assert.Empty(t, solveAll(r, term.Pos(a("mortal", e("y")))),
		"man(y) is still required, and nothing says every y is a man")
}

func TestHypothesesAnswerUniversalQuestions(t *testing.T) {
	rules := program(t,
		forall("x", ast.P("man", "x"), ast.P("mortal", "x")),
		forall("x", ast.P("greek", "x"), ast.P("man", "x")),
	)
	r := New(rules)
	y := e("y")

	q := Query{
		Goals:  []term.Literal{term.Pos(a("mortal", y))},
		Assume: []term.Rule{term.Fact(a("greek", y))},
	}
	assert.Equal(t, []term.Substitution{{}}, slices.Collect(r.Solve(q)))

	assert.Equal(t, Unknown, r.Prove(NewQuery(term.Pos(a("mortal", y)))), "hypotheses do not outlive the query")
	about := Query{
		Goals:  []term.Literal{term.Pos(a("greek", c("socrates")))},
		Assume: q.Assume,
	}
	assert.Empty(t, slices.Collect(r.Solve(about)), "a generic hypothesis says nothing about socrates")
}

func TestElseBranch(t *testing.T) {
	rules := program(t,
		ast.If{Antecedent: []ast.Statement{ast.P("rains")}, Consequent: ast.P("wet"), Else: ast.P("dry")},
		ast.Not{Body: ast.P("rains")},
	)
	r := New(rules)

	assert.Equal(t, Proved, r.Prove(NewQuery(term.Pos(a("dry")))))
	assert.Equal(t, Unknown, r.Prove(NewQuery(term.Pos(a("wet")))))
}

func TestIdempotence(t *testing.T) {
	r := New(socrates(t))
	goal := term.Pos(a("mortal", f("X")))

	first := solveAll(r, goal)
	second := solveAll(r, goal)
	assert.Equal(t, first, second)
}

func TestEarlyTermination(t *testing.T) {
	r := New(program(t,
		ast.P("n", 1), ast.P("n", 2), ast.P("n", 3),
		ast.Not{Body: ast.P("n", 4)},
	))

	var got []term.Substitution
	for sub := range r.Solve(NewQuery(term.Pos(a("n", f("N"))))) {
		got = append(got, sub)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []term.Substitution{{"N": c(1)}, {"N": c(2)}}, got)
}

// fruitless has many candidates for n(X) and nothing for m(X), so n(X), m(X)
// scans every n fact without ever producing an answer.
func fruitless() RuleSlice {
	var rules RuleSlice
	for i := range 50 {
		rules = append(rules, term.Fact(a("n", c(i))))
	}
	return rules
}

func TestCancellationStopsFruitlessSearch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	matches := 0
	r := New(fruitless(), WithTracer(TracerFunc(func(ev Event) {
		if ev.Kind == EventMatch {
			matches++
			cancel()
		}
	})))

	var errs []error
	for sub, err := range r.AnswersContext(ctx, NewQuery(term.Pos(a("n", f("X"))), term.Pos(a("m", f("X"))))) {
		assert.Nil(t, sub)
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.Equal(t, 1, matches)
}

func TestCancelledContextYieldsNothingElse(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for _, err := range New(socrates(t)).AnswersContext(ctx, NewQuery(term.Pos(a("mortal", f("X"))))) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}

func TestMaxDepth(t *testing.T) {
	rules := RuleSlice{
		term.NewRule(a("r1"), term.Pos(a("r2"))),
		term.NewRule(a("r2"), term.Pos(a("r3"))),
		term.NewRule(a("r3"), term.Pos(a("r4"))),
		term.Fact(a("r4")),
	}
	q := NewQuery(term.Pos(a("r1")))

	var errs []error
	for _, err := range New(rules, WithMaxDepth(3)).Answers(q) {
		errs = append(errs, err)
	}
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], internalerr.ErrDepthExceeded)

	assert.Equal(t, Proved, New(rules, WithMaxDepth(4)).Prove(q))
	assert.Equal(t, Proved, New(rules).Prove(q))
}

func TestQueryIsNotModified(t *testing.T) {
	r := New(socrates(t))
	q := NewQuery(term.Pos(a("mortal", f("X"))))
	before := term.CloneLiterals(q.Goals)

	_ = solveAll(r, q.Goals[0])
	assert.Equal(t, before, q.Goals)
}

func TestTracerSeesCycle(t *testing.T) {
	var kinds []EventKind
	r := New(program(t,
		forall("x", ast.P("q", "x"), ast.P("p", "x")),
		forall("x", ast.P("p", "x"), ast.P("q", "x")),
	), WithTracer(TracerFunc(func(ev Event) {
		kinds = append(kinds, ev.Kind)
	})))
	_ = solveAll(r, term.Pos(a("p", c("a"))))

	require.NotEmpty(t, kinds)
	assert.Equal(t, EventCall, kinds[0])
	assert.Contains(t, kinds, EventMatch)
	assert.Contains(t, kinds, EventCycle)
	assert.Equal(t, EventExit, kinds[len(kinds)-1])
}

func TestEmptyQuery(t *testing.T) {
	r := New(socrates(t))
	assert.Empty(t, slices.Collect(r.Solve(Query{})))
	assert.Equal(t, Unknown, r.Prove(Query{}))
}
