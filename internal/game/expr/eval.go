package expr

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPath is returned by environments for paths they cannot resolve.
var ErrUnknownPath = errors.New("unknown path")

// Env resolves dotted context paths to int, string or bool values.
type Env interface {
	Lookup(path []string) (any, error)
}

// MapEnv is an Env backed by a map keyed by the dotted path.
type MapEnv map[string]any

// Lookup implements Env.
func (m MapEnv) Lookup(path []string) (any, error) {
	key := strings.Join(path, ".")
	v, ok := m[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPath, key)
	}
	return v, nil
}

// Expr is a compiled guard.
type Expr struct {
	source string
	ast    *Expression
}

// Parse compiles a guard expression.
func Parse(source string) (*Expr, error) {
	src := strings.TrimSpace(source)
	if src == "" {
		return nil, errors.New("empty expression")
	}
	ast, err := guardParser.ParseString("", src)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", src, err)
	}
	return &Expr{source: src, ast: ast}, nil
}

// MustParse is Parse for expressions known at compile time.
func MustParse(source string) *Expr {
	e, err := Parse(source)
	if err != nil {
		panic(err)
	}
	return e
}

// String returns the source text.
func (e *Expr) String() string {
	if e == nil {
		return ""
	}
	return e.source
}

// Eval evaluates the guard. A nil guard is always true.
func (e *Expr) Eval(env Env) (bool, error) {
	if e == nil {
		return true, nil
	}
	v, err := e.ast.eval(env)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%q evaluates to %T, want bool", e.source, v)
	}
	return b, nil
}

func (x *Expression) eval(env Env) (any, error) {
	if len(x.Or) == 1 {
		return x.Or[0].eval(env)
	}
	for _, term := range x.Or {
		b, err := evalBool(term.eval(env))
		if err != nil {
			return nil, err
		}
		if b {
			return true, nil
		}
	}
	return false, nil
}

func (x *AndExpr) eval(env Env) (any, error) {
	if len(x.And) == 1 {
		return x.And[0].eval(env)
	}
	for _, term := range x.And {
		b, err := evalBool(term.eval(env))
		if err != nil {
			return nil, err
		}
		if !b {
			return false, nil
		}
	}
	return true, nil
}

func (x *NotExpr) eval(env Env) (any, error) {
	if x.Not != nil {
		b, err := evalBool(x.Not.eval(env))
		if err != nil {
			return nil, err
		}
		return !b, nil
	}
	return x.Cmp.eval(env)
}

func (x *Comparison) eval(env Env) (any, error) {
	left, err := x.Left.eval(env)
	if err != nil {
		return nil, err
	}
	if x.Op == "" {
		return left, nil
	}
	right, err := x.Right.eval(env)
	if err != nil {
		return nil, err
	}
	ok, err := compare(x.Op, left, right)
	if err != nil {
		return nil, err
	}
	return ok, nil
}

func (x *Operand) eval(env Env) (any, error) {
	switch {
	case x.Int != nil:
		return *x.Int, nil
	case x.Str != nil:
		return *x.Str, nil
	case x.Bool != nil:
		return bool(*x.Bool), nil
	case x.Sub != nil:
		return x.Sub.eval(env)
	case len(x.Path) > 0:
		if env == nil {
			return nil, fmt.Errorf("%w: %s (no context)", ErrUnknownPath, strings.Join(x.Path, "."))
		}
		v, err := env.Lookup(x.Path)
		if err != nil {
			return nil, err
		}
		return normalize(v)
	}
	return nil, errors.New("empty operand")
}

func evalBool(v any, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool operand, got %T", v)
	}
	return b, nil
}

func normalize(v any) (any, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case string, bool:
		return n, nil
	case fmt.Stringer:
		return n.String(), nil
	}
	return nil, fmt.Errorf("unsupported value type %T", v)
}

func compare(op string, left, right any) (bool, error) {
	switch l := left.(type) {
	case int:
		r, ok := right.(int)
		if !ok {
			return false, fmt.Errorf("cannot compare int with %T", right)
		}
		switch op {
		case "==":
			return l == r, nil
		case "!=":
			return l != r, nil
		case "<":
			return l < r, nil
		case "<=":
			return l <= r, nil
		case ">":
			return l > r, nil
		case ">=":
			return l >= r, nil
		}
	case string:
		r, ok := right.(string)
		if !ok {
			return false, fmt.Errorf("cannot compare string with %T", right)
		}
		switch op {
		case "==":
			return l == r, nil
		case "!=":
			return l != r, nil
		}
		return false, fmt.Errorf("operator %s not defined on strings", op)
	case bool:
		r, ok := right.(bool)
		if !ok {
			return false, fmt.Errorf("cannot compare bool with %T", right)
		}
		switch op {
		case "==":
			return l == r, nil
		case "!=":
			return l != r, nil
		}
		return false, fmt.Errorf("operator %s not defined on bools", op)
	}
	return false, fmt.Errorf("unsupported operand %T", left)
}
