package ast

import (
	"fmt"
	"math"

	"github.com/cognicore/syllog/pkg/syllog/internalerr"
)

// DecodeAll decodes a document whose top level is a list of statements.
func DecodeAll(doc any) ([]Statement, error) {
	list, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("document: %w: expected a list of statements, got %T", internalerr.ErrMalformed, doc)
	}
	out := make([]Statement, 0, len(list))
	for i, v := range list {
		st, err := decode(v, fmt.Sprintf("statement[%d]", i))
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

// Decode decodes one statement in nested-array form:
//
//	[name, [args...]]                         predicate
//	["?", body] | ["?", [vars...], body]      question
//	["!", body]                               command
//	["not", body]                             negation
//	["either", head, body]                    disjunction
//	["if", [vars...], [antecedents...], consequent(, else)]
//	[quantifier, var, range, body]            every, all, most, many, few, only
//	["let", [vars...], body]
//	[[...], [...], ...]                       conjunction
func Decode(v any) (Statement, error) {
	return decode(v, "statement")
}

func decode(v any, path string) (Statement, error) {
	node, ok := v.([]any)
	if !ok || len(node) == 0 {
		return nil, malformed(path, "expected a non-empty list, got %T", v)
	}

	if _, ok := node[0].([]any); ok {
		conj := make(And, 0, len(node))
		for i, member := range node {
			st, err := decode(member, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			conj = append(conj, st)
		}
		return conj, nil
	}

	tag, ok := node[0].(string)
	if !ok || tag == "" {
		return nil, malformed(path, "head must be a name or a nested statement, got %v", node[0])
	}

	switch {
	case tag == "?":
		switch len(node) {
		case 2:
			body, err := decode(node[1], path+".body")
			if err != nil {
				return nil, err
			}
			return Question{Body: body}, nil
		case 3:
			vars, err := names(node[1], path+".vars")
			if err != nil {
				return nil, err
			}
			body, err := decode(node[2], path+".body")
			if err != nil {
				return nil, err
			}
			return Question{Vars: vars, Body: body}, nil
		}
		return nil, malformed(path, "question takes a body and optional variables")

	case tag == "!":
		if len(node) != 2 {
			return nil, malformed(path, "command takes exactly one body")
		}
		body, err := decode(node[1], path+".body")
		if err != nil {
			return nil, err
		}
		return Command{Body: body}, nil

	case tag == "not":
		if len(node) != 2 {
			return nil, malformed(path, "negation takes exactly one body")
		}
		body, err := decode(node[1], path+".body")
		if err != nil {
			return nil, err
		}
		return Not{Body: body}, nil

	case tag == "either":
		if len(node) != 3 {
			return nil, malformed(path, "either takes two alternatives")
		}
		head, err := decode(node[1], path+".head")
		if err != nil {
			return nil, err
		}
		body, err := decode(node[2], path+".body")
		if err != nil {
			return nil, err
		}
		return Either{Head: head, Body: body}, nil

	case tag == "if":
		return decodeIf(node, path)

	case tag == "let":
		if len(node) != 3 {
			return nil, malformed(path, "let takes variables and a body")
		}
		vars, err := names(node[1], path+".vars")
		if err != nil {
			return nil, err
		}
		if len(vars) == 0 {
			return nil, malformed(path, "let binds at least one variable")
		}
		body, err := decode(node[2], path+".body")
		if err != nil {
			return nil, err
		}
		return Let{Vars: vars, Body: body}, nil

	case IsQuantifier(tag) && len(node) == 4:
		name, ok := node[1].(string)
		if !ok || name == "" {
			return nil, malformed(path+".var", "expected a variable name, got %v", node[1])
		}
		rng, err := decode(node[2], path+".range")
		if err != nil {
			return nil, err
		}
		body, err := decode(node[3], path+".body")
		if err != nil {
			return nil, err
		}
		return Quantified{Quantifier: tag, Var: name, Range: rng, Body: body}, nil
	}

	return decodePred(tag, node, path)
}

func decodeIf(node []any, path string) (Statement, error) {
	if len(node) != 4 && len(node) != 5 {
		return nil, malformed(path, "if takes variables, antecedents, a consequent and an optional else")
	}
	vars, err := names(node[1], path+".vars")
	if err != nil {
		return nil, err
	}
	ante, err := statements(node[2], path+".antecedent")
	if err != nil {
		return nil, err
	}
	cons, err := decode(node[3], path+".consequent")
	if err != nil {
		return nil, err
	}
	out := If{Vars: vars, Antecedent: ante, Consequent: cons}
	if len(node) == 5 {
		out.Else, err = decode(node[4], path+".else")
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func decodePred(name string, node []any, path string) (Statement, error) {
	switch len(node) {
	case 1:
		return Pred{Name: name}, nil
	case 2:
	default:
		return nil, malformed(path, "predicate %q takes one argument list", name)
	}
	rawArgs, ok := node[1].([]any)
	if !ok {
		return nil, malformed(path+".args", "expected an argument list for %q, got %T", name, node[1])
	}
	args := make([]any, len(rawArgs))
	for i, a := range rawArgs {
		switch x := a.(type) {
		case string, int, int64, float64:
			args[i] = a
		case uint64:
			if x > math.MaxInt64 {
				return nil, malformed(fmt.Sprintf("%s.args[%d]", path, i), "integer %d out of range", x)
			}
			args[i] = int64(x)
		default:
			return nil, malformed(fmt.Sprintf("%s.args[%d]", path, i), "expected a name or a number, got %T", a)
		}
	}
	return Pred{Name: name, Args: args}, nil
}

// statements accepts either a single statement or a list of them.
func statements(v any, path string) ([]Statement, error) {
	list, ok := v.([]any)
	if !ok || len(list) == 0 {
		return nil, malformed(path, "expected a statement or a list of statements")
	}
	if _, single := list[0].(string); single {
		st, err := decode(list, path)
		if err != nil {
			return nil, err
		}
		return []Statement{st}, nil
	}
	out := make([]Statement, 0, len(list))
	for i, item := range list {
		st, err := decode(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}

func names(v any, path string) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		return []string{s}, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, malformed(path, "expected a list of variable names, got %T", v)
	}
	out := make([]string, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok || s == "" {
			return nil, malformed(fmt.Sprintf("%s[%d]", path, i), "expected a variable name, got %v", item)
		}
		out[i] = s
	}
	return out, nil
}

func malformed(path, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", path, internalerr.ErrMalformed, fmt.Sprintf(format, args...))
}
