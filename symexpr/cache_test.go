package symexpr_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/katalvlaran/glmnet/matrix"
	"github.com/katalvlaran/glmnet/symexpr"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// scaledSum is x·Σ(weights) where weights come from conditioning.
// builds counts how many times Build ran.
func scaledSum(builds *int64) *symexpr.Func {
	return &symexpr.Func{
		Name: "test.scaled_sum",
		Build: func(params []symexpr.Leaf, cond symexpr.Conditioning) (symexpr.Evaluator, error) {
			atomic.AddInt64(builds, 1)
			ix, err := symexpr.Bind(params).Index("x")
			if err != nil {
				return nil, err
			}
			w, err := symexpr.AsFloats(cond["w"])
			if err != nil {
				return nil, err
			}
			var total float64
			for _, v := range w {
				total += v
			}
			return func(args []any) (any, error) {
				x, err := symexpr.AsFloat(args[ix])
				if err != nil {
					return nil, err
				}
				return x * total, nil
			}, nil
		},
	}
}

var xSyms = symexpr.SymbolTree{"x": symexpr.Symbol{Name: "x", Kind: symexpr.KindScalar}}

// TestCache_CompilesOncePerContent covers the reuse / recompile contract.
func TestCache_CompilesOncePerContent(t *testing.T) {
	var builds int64
	expr := scaledSum(&builds)
	c := symexpr.New()

	// two distinct slices, identical content
	v, err := c.EvaluateFloat(expr, xSyms, symexpr.ValueTree{"x": 2.0}, nil, symexpr.Conditioning{"w": []float64{1, 2, 3}})
	require.NoError(t, err)
	require.Equal(t, 12.0, v)

	v, err = c.EvaluateFloat(expr, xSyms, symexpr.ValueTree{"x": 3.0}, nil, symexpr.Conditioning{"w": []float64{1, 2, 3}})
	require.NoError(t, err)
	require.Equal(t, 18.0, v)
	require.EqualValues(t, 1, c.Stats().Compiles)
	require.EqualValues(t, 1, builds)

	// one value changed ⇒ exactly one new compilation, never the stale evaluator
	v, err = c.EvaluateFloat(expr, xSyms, symexpr.ValueTree{"x": 3.0}, nil, symexpr.Conditioning{"w": []float64{1, 2, 4}})
	require.NoError(t, err)
	require.Equal(t, 21.0, v)

	st := c.Stats()
	require.EqualValues(t, 2, st.Compiles)
	require.Equal(t, 2, st.Entries)
	require.EqualValues(t, 1, st.Hits)
	require.EqualValues(t, 2, st.Misses)
}

// TestCache_DenseConditioningByContent verifies arrays are keyed by content, not identity.
func TestCache_DenseConditioningByContent(t *testing.T) {
	var builds int64
	expr := &symexpr.Func{
		Name: "test.dense",
		Build: func(params []symexpr.Leaf, cond symexpr.Conditioning) (symexpr.Evaluator, error) {
			atomic.AddInt64(&builds, 1)
			rho, err := symexpr.AsDense(cond["rho"])
			if err != nil {
				return nil, err
			}
			s := rho.Sum()
			return func(args []any) (any, error) { return s, nil }, nil
		},
	}
	c := symexpr.New()

	a, err := matrix.NewFilled(3, 3, 0.2)
	require.NoError(t, err)
	b := a.Clone()

	_, err = c.Evaluate(expr, symexpr.SymbolTree{}, nil, nil, symexpr.Conditioning{"rho": a})
	require.NoError(t, err)
	_, err = c.Evaluate(expr, symexpr.SymbolTree{}, nil, nil, symexpr.Conditioning{"rho": b})
	require.NoError(t, err)
	require.EqualValues(t, 1, builds)

	require.NoError(t, b.Set(2, 2, 0.9))
	v, err := c.Evaluate(expr, symexpr.SymbolTree{}, nil, nil, symexpr.Conditioning{"rho": b})
	require.NoError(t, err)
	require.InDelta(t, 8*0.2+0.9, v.(float64), 1e-12)
	require.EqualValues(t, 2, builds)
}

// TestCache_SignatureIsPartOfKey checks that a different free-variable signature recompiles.
func TestCache_SignatureIsPartOfKey(t *testing.T) {
	var builds int64
	expr := scaledSum(&builds)
	c := symexpr.New()
	cond := symexpr.Conditioning{"w": []float64{1}}

	_, err := c.Evaluate(expr, xSyms, symexpr.ValueTree{"x": 1.0}, nil, cond)
	require.NoError(t, err)

	wider := symexpr.SymbolTree{
		"x": symexpr.Symbol{Name: "x", Kind: symexpr.KindScalar},
		"y": symexpr.Symbol{Name: "y", Kind: symexpr.KindScalar},
	}
	_, err = c.Evaluate(expr, wider, symexpr.ValueTree{"x": 1.0, "y": 0.0}, nil, cond)
	require.NoError(t, err)
	require.EqualValues(t, 2, builds)
}

// TestCache_ScalarConditioningVerbatim checks scalars and strings are keyed by value and type.
func TestCache_ScalarConditioningVerbatim(t *testing.T) {
	k1, err := symexpr.NewKey("e", nil, symexpr.Conditioning{"a": 1.0, "b": "x"})
	require.NoError(t, err)
	k2, err := symexpr.NewKey("e", nil, symexpr.Conditioning{"b": "x", "a": 1.0})
	require.NoError(t, err)
	require.Equal(t, k1, k2)

	k3, err := symexpr.NewKey("e", nil, symexpr.Conditioning{"a": 1, "b": "x"})
	require.NoError(t, err)
	require.NotEqual(t, k1, k3)

	_, err = symexpr.NewKey("e", nil, symexpr.Conditioning{"a": struct{}{}})
	require.ErrorIs(t, err, symexpr.ErrType)
}

// TestCache_DefaultsUsedWhenUnbound exercises the defaults fallback through Evaluate.
func TestCache_DefaultsUsedWhenUnbound(t *testing.T) {
	var builds int64
	c := symexpr.New()
	cond := symexpr.Conditioning{"w": []float64{2}}

	v, err := c.EvaluateFloat(scaledSum(&builds), xSyms, symexpr.ValueTree{}, symexpr.ValueTree{"x": 5.0}, cond)
	require.NoError(t, err)
	require.Equal(t, 10.0, v)

	_, err = c.EvaluateFloat(scaledSum(&builds), xSyms, nil, nil, cond)
	require.ErrorIs(t, err, symexpr.ErrMissingValue)
}

// TestCache_CompileErrorSurfaces ensures compile failures are wrapped and not cached.
func TestCache_CompileErrorSurfaces(t *testing.T) {
	boom := errors.New("boom")
	var calls int64
	expr := &symexpr.Func{
		Name: "test.broken",
		Build: func([]symexpr.Leaf, symexpr.Conditioning) (symexpr.Evaluator, error) {
			atomic.AddInt64(&calls, 1)
			return nil, boom
		},
	}
	c := symexpr.New()

	_, err := c.Evaluate(expr, symexpr.SymbolTree{}, nil, nil, nil)
	require.ErrorIs(t, err, symexpr.ErrCompile)
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, c.Stats().Entries)
}

// TestCache_UnknownParamIsCompileError covers Binding lookups of absent names.
func TestCache_UnknownParamIsCompileError(t *testing.T) {
	var builds int64
	c := symexpr.New()
	other := symexpr.SymbolTree{"z": symexpr.Symbol{Name: "z", Kind: symexpr.KindScalar}}

	_, err := c.Evaluate(scaledSum(&builds), other, symexpr.ValueTree{"z": 1.0}, nil, symexpr.Conditioning{"w": []float64{1}})
	require.ErrorIs(t, err, symexpr.ErrCompile)
	require.ErrorIs(t, err, symexpr.ErrUnknownParam)
}

// TestCache_ConcurrentSingleCompile hammers one key from many goroutines.
func TestCache_ConcurrentSingleCompile(t *testing.T) {
	var builds int64
	expr := &symexpr.Func{
		Name: "test.slow",
		Build: func([]symexpr.Leaf, symexpr.Conditioning) (symexpr.Evaluator, error) {
			atomic.AddInt64(&builds, 1)
			time.Sleep(5 * time.Millisecond)
			return func([]any) (any, error) { return 1.0, nil }, nil
		},
	}
	c := symexpr.New()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Evaluate(expr, symexpr.SymbolTree{}, nil, nil, symexpr.Conditioning{"k": 1})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.EqualValues(t, 1, builds)
	require.EqualValues(t, 1, c.Stats().Compiles)
}

// TestCache_ResetAndRunID covers teardown and identity.
func TestCache_ResetAndRunID(t *testing.T) {
	var builds int64
	c := symexpr.New(symexpr.WithRunID("run-1"))
	require.Equal(t, "run-1", c.RunID())
	require.NotEmpty(t, symexpr.New().RunID())

	cond := symexpr.Conditioning{"w": []float64{1}}
	_, err := c.Evaluate(scaledSum(&builds), xSyms, symexpr.ValueTree{"x": 1.0}, nil, cond)
	require.NoError(t, err)

	leaves, err := symexpr.Flatten(xSyms)
	require.NoError(t, err)
	key, err := symexpr.NewKey("test.scaled_sum", leaves, cond)
	require.NoError(t, err)
	_, ok := c.Lookup(key)
	require.True(t, ok)

	c.Reset()
	require.Equal(t, 0, c.Stats().Entries)
	_, err = c.Evaluate(scaledSum(&builds), xSyms, symexpr.ValueTree{"x": 1.0}, nil, cond)
	require.NoError(t, err)
	require.EqualValues(t, 2, builds)
}

// TestOptions_PanicOnNil keeps option constructors strict.
func TestOptions_PanicOnNil(t *testing.T) {
	require.Panics(t, func() { symexpr.WithLogger(nil) })
	require.Panics(t, func() { symexpr.WithMetrics(nil) })
}

type namedDist string

func (d namedDist) ContentKey() string { return string(d) }

// TestKey_ContentKeyer checks distribution-valued conditioning keys by ContentKey.
func TestKey_ContentKeyer(t *testing.T) {
	k1, err := symexpr.NewKey("e", nil, symexpr.Conditioning{"p": namedDist("gaussian(0,1)")})
	require.NoError(t, err)
	k2, err := symexpr.NewKey("e", nil, symexpr.Conditioning{"p": namedDist("gaussian(0,1)")})
	require.NoError(t, err)
	k3, err := symexpr.NewKey("e", nil, symexpr.Conditioning{"p": namedDist("gaussian(0,2)")})
	require.NoError(t, err)
	require.Equal(t, k1, k2)
	require.NotEqual(t, k1, k3)
}

// TestKey_SeparatorsInNamesDoNotCollide checks that names containing the key
// separators cannot forge another signature.
func TestKey_SeparatorsInNamesDoNotCollide(t *testing.T) {
	joined, err := symexpr.Flatten(symexpr.SymbolTree{
		"a": symexpr.Symbol{Name: "a:scalar,b", Kind: symexpr.KindScalar},
	})
	require.NoError(t, err)
	split, err := symexpr.Flatten(symexpr.SymbolTree{
		"a": symexpr.Symbol{Name: "a", Kind: symexpr.KindScalar},
		"b": symexpr.Symbol{Name: "b", Kind: symexpr.KindScalar},
	})
	require.NoError(t, err)

	k1, err := symexpr.NewKey("e", joined, nil)
	require.NoError(t, err)
	k2, err := symexpr.NewKey("e", split, nil)
	require.NoError(t, err)
	require.NotEqual(t, k1, k2)

	c1, err := symexpr.NewKey("e", nil, symexpr.Conditioning{"a=f:1;b": 2.0})
	require.NoError(t, err)
	c2, err := symexpr.NewKey("e", nil, symexpr.Conditioning{"a": 1.0, "b": 2.0})
	require.NoError(t, err)
	require.NotEqual(t, c1, c2)
}

// TestCache_SeparatorInNameRecompiles checks the cache compiles separately for
// a single leaf whose name spells out two leaves.
func TestCache_SeparatorInNameRecompiles(t *testing.T) {
	var builds int64
	expr := &symexpr.Func{
		Name: "test.arity",
		Build: func(params []symexpr.Leaf, _ symexpr.Conditioning) (symexpr.Evaluator, error) {
			atomic.AddInt64(&builds, 1)
			n := float64(len(params))
			return func([]any) (any, error) { return n, nil }, nil
		},
	}
	c := symexpr.New()

	one := symexpr.SymbolTree{"a": symexpr.Symbol{Name: "a:scalar,b", Kind: symexpr.KindScalar}}
	v, err := c.EvaluateFloat(expr, one, symexpr.ValueTree{"a": 1.0}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)

	two := symexpr.SymbolTree{
		"a": symexpr.Symbol{Name: "a", Kind: symexpr.KindScalar},
		"b": symexpr.Symbol{Name: "b", Kind: symexpr.KindScalar},
	}
	v, err = c.EvaluateFloat(expr, two, symexpr.ValueTree{"a": 1.0, "b": 2.0}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 2.0, v)
	require.EqualValues(t, 2, builds)
}

// TestCache_FuncIdentityIsName pins that identity is the Name, not the pointer.
func TestCache_FuncIdentityIsName(t *testing.T) {
	constant := func(v float64) *symexpr.Func {
		return &symexpr.Func{
			Name: "test.shared_name",
			Build: func([]symexpr.Leaf, symexpr.Conditioning) (symexpr.Evaluator, error) {
				return func([]any) (any, error) { return v, nil }, nil
			},
		}
	}
	c := symexpr.New()

	v, err := c.EvaluateFloat(constant(1), symexpr.SymbolTree{}, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)
	v, err = c.EvaluateFloat(constant(2), symexpr.SymbolTree{}, nil, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 1.0, v)
	require.EqualValues(t, 1, c.Stats().Compiles)
}
