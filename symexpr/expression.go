// SPDX-License-Identifier: MIT

package symexpr

import (
	"fmt"

	"github.com/katalvlaran/glmnet/matrix"
)

// Evaluator is a compiled expression. args are positional, in Flatten order.
type Evaluator func(args []any) (any, error)

// Expression is a declaratively-built computation over named free variables.
//
// Compile must depend only on params and cond: the cache shares the resulting
// Evaluator between every caller presenting the same key.
type Expression interface {
	// ID is the expression identity used in cache keys.
	ID() string
	// Compile binds the expression to a positional parameter list and a
	// conditioning set. It is called at most once per distinct key.
	Compile(params []Leaf, cond Conditioning) (Evaluator, error)
}

// Func adapts a build function into an Expression.
//
// Identity is Name alone: two *Func values with the same Name share every
// cached evaluator, whatever their Build does. Names must be unique per
// computation within one Cache; the priors use "<variant>.<quantity>".
type Func struct {
	Name  string
	Build func(params []Leaf, cond Conditioning) (Evaluator, error)
}

var _ Expression = (*Func)(nil)

// ID implements Expression. It returns Name.
func (f *Func) ID() string { return f.Name }

// Compile implements Expression.
func (f *Func) Compile(params []Leaf, cond Conditioning) (Evaluator, error) {
	if f.Build == nil {
		return nil, fmt.Errorf("%s: nil Build", f.Name)
	}
	return f.Build(params, cond)
}

// Binding maps symbol names to their position in the flattened parameter list.
// Compiled expressions resolve positions once and index args directly.
type Binding map[string]int

// Bind builds a Binding from the flattened parameters. If the same symbol name
// appears under two paths, the first position wins.
func Bind(params []Leaf) Binding {
	b := make(Binding, len(params))
	for i, p := range params {
		if _, dup := b[p.Symbol.Name]; !dup {
			b[p.Symbol.Name] = i
		}
	}

	return b
}

// Index returns the position of name or ErrUnknownParam.
func (b Binding) Index(name string) (int, error) {
	i, ok := b[name]
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownParam)
	}
	return i, nil
}

// Indices resolves several names at once, in the given order.
func (b Binding) Indices(names ...string) ([]int, error) {
	out := make([]int, len(names))
	for i, n := range names {
		idx, err := b.Index(n)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}

	return out, nil
}

// AsFloat converts a numeric scalar to float64.
func AsFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return 0, fmt.Errorf("want scalar, got %T: %w", v, ErrType)
}

// AsDense asserts v is a non-nil *matrix.Dense.
func AsDense(v any) (*matrix.Dense, error) {
	m, ok := v.(*matrix.Dense)
	if !ok || m == nil {
		return nil, fmt.Errorf("want *matrix.Dense, got %T: %w", v, ErrType)
	}
	return m, nil
}

// AsFloats asserts v is []float64.
func AsFloats(v any) ([]float64, error) {
	xs, ok := v.([]float64)
	if !ok {
		return nil, fmt.Errorf("want []float64, got %T: %w", v, ErrType)
	}
	return xs, nil
}

// AsInts asserts v is []int.
func AsInts(v any) ([]int, error) {
	xs, ok := v.([]int)
	if !ok {
		return nil, fmt.Errorf("want []int, got %T: %w", v, ErrType)
	}
	return xs, nil
}
