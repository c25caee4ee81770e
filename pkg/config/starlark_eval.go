package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/openfroyo/variantspace/pkg/variant"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
	"go.starlark.net/syntax"
)

// DefaultExpressionTimeout bounds a single expression evaluation.
const DefaultExpressionTimeout = time.Second

// StarlarkEvaluator compiles the Starlark expressions of declarations.
type StarlarkEvaluator struct {
	timeout time.Duration
}

// NewStarlarkEvaluator creates a new Starlark evaluator.
func NewStarlarkEvaluator(timeout time.Duration) *StarlarkEvaluator {
	if timeout == 0 {
		timeout = DefaultExpressionTimeout
	}
	return &StarlarkEvaluator{
		timeout: timeout,
	}
}

// Expression is a compiled Starlark expression bound to named parameters.
type Expression struct {
	name    string
	source  string
	params  []string
	fn      starlark.Callable
	timeout time.Duration
}

// predicateParams are the names visible to only_if and except_if.
var predicateParams = []string{"current", "other", "axis"}

// validatorParams are the names visible to validate.
var validatorParams = []string{"values"}

// CompilePredicate compiles a filter expression over current, other and axis.
func (se *StarlarkEvaluator) CompilePredicate(name, expr string) (*Expression, error) {
	return se.compile(name, expr, predicateParams)
}

// CompileValidator compiles a validation expression over values.
func (se *StarlarkEvaluator) CompileValidator(name, expr string) (*Expression, error) {
	return se.compile(name, expr, validatorParams)
}

func (se *StarlarkEvaluator) compile(name, expr string, params []string) (*Expression, error) {
	if _, err := syntax.ParseExpr(name, expr, 0); err != nil {
		return nil, fmt.Errorf("invalid expression: %w", err)
	}

	src := fmt.Sprintf("def _expr(%s):\n    return (%s)\n", strings.Join(params, ", "), expr)

	thread := newThread(name)
	globals, err := starlark.ExecFile(thread, name, src, starlark.StringDict{
		"struct": starlark.NewBuiltin("struct", starlarkstruct.Make),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}
	globals.Freeze()

	fn, ok := globals["_expr"].(starlark.Callable)
	if !ok {
		return nil, fmt.Errorf("failed to compile expression %q", expr)
	}

	return &Expression{
		name:    name,
		source:  expr,
		params:  params,
		fn:      fn,
		timeout: se.timeout,
	}, nil
}

// Source returns the expression text.
func (e *Expression) Source() string { return e.source }

// Call evaluates the expression. Arguments are converted with toStarlarkValue.
func (e *Expression) Call(args ...interface{}) (starlark.Value, error) {
	if len(args) != len(e.params) {
		return nil, fmt.Errorf("%s: expected %d arguments, got %d", e.name, len(e.params), len(args))
	}

	tuple := make(starlark.Tuple, len(args))
	for i, a := range args {
		v, err := toStarlarkValue(a)
		if err != nil {
			return nil, fmt.Errorf("%s: argument %s: %w", e.name, e.params[i], err)
		}
		tuple[i] = v
	}

	thread := newThread(e.name)
	timer := time.AfterFunc(e.timeout, func() {
		thread.Cancel(fmt.Sprintf("execution timeout after %v", e.timeout))
	})
	defer timer.Stop()

	result, err := starlark.Call(thread, e.fn, tuple, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	return result, nil
}

// Predicate evaluates a filter expression. An absent current value is None.
func (e *Expression) Predicate(current variant.Optional[AxisValue], other AxisValue, axis AxisInfo) (bool, error) {
	var cur interface{}
	if v, ok := current.Get(); ok {
		cur = string(v)
	}

	result, err := e.Call(cur, string(other), axis)
	if err != nil {
		return false, err
	}
	return bool(result.Truth()), nil
}

// Validate evaluates a validation expression. True or None accept the
// values, False rejects them, and a non-empty string rejects them with
// that message.
func (e *Expression) Validate(values []AxisValue) error {
	list := make([]interface{}, len(values))
	for i, v := range values {
		list[i] = string(v)
	}

	result, err := e.Call(list)
	if err != nil {
		return err
	}

	switch r := result.(type) {
	case starlark.NoneType:
		return nil
	case starlark.String:
		if r == "" {
			return nil
		}
		return fmt.Errorf("%s", string(r))
	default:
		if result.Truth() {
			return nil
		}
		return fmt.Errorf("%s does not hold", e.source)
	}
}

// AxisInfo is the axis struct visible to predicates.
type AxisInfo struct {
	Name   string
	Values []string
}

func newThread(name string) *starlark.Thread {
	return &starlark.Thread{
		Name:  name,
		Print: func(_ *starlark.Thread, msg string) {},
	}
}

// toStarlarkValue converts a Go value to a frozen Starlark value.
func toStarlarkValue(v interface{}) (starlark.Value, error) {
	if v == nil {
		return starlark.None, nil
	}

	switch val := v.(type) {
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []string:
		items := make([]interface{}, len(val))
		for i, s := range val {
			items[i] = s
		}
		return toStarlarkValue(items)
	case []interface{}:
		list := make([]starlark.Value, len(val))
		for i, item := range val {
			starlarkItem, err := toStarlarkValue(item)
			if err != nil {
				return nil, err
			}
			list[i] = starlarkItem
		}
		l := starlark.NewList(list)
		l.Freeze()
		return l, nil
	case map[string]interface{}:
		dict := starlark.NewDict(len(val))
		for k, v := range val {
			starlarkVal, err := toStarlarkValue(v)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), starlarkVal); err != nil {
				return nil, err
			}
		}
		dict.Freeze()
		return dict, nil
	case AxisInfo:
		values, err := toStarlarkValue(val.Values)
		if err != nil {
			return nil, err
		}
		s := starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
			"name":   starlark.String(val.Name),
			"values": values,
		})
		s.Freeze()
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
