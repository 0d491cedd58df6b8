// SPDX-License-Identifier: MIT

package prior

import (
	"math"

	"github.com/katalvlaran/glmnet/matrix"
	"github.com/katalvlaran/glmnet/symexpr"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distmv"
	"gonum.org/v1/gonum/stat/distuv"
)

// sbmEdgeProbability is pA[i,j] = B[Y_i, Y_j].
var sbmEdgeProbability = &symexpr.Func{
	Name: "sbm.p_a",
	Build: func(params []symexpr.Leaf, cond symexpr.Conditioning) (symexpr.Evaluator, error) {
		ix, err := symexpr.Bind(params).Indices(VarB, VarY)
		if err != nil {
			return nil, err
		}
		n, r, err := sbmShape(cond)
		if err != nil {
			return nil, err
		}

		return func(args []any) (any, error) {
			return blockProbability(args[ix[0]], args[ix[1]], n, r)
		}, nil
	},
}

// sbmLogP is Beta(B) + Dirichlet(alpha) + lkhd_scale · Σ Bernoulli(A; B[Y,Yᵀ]).
var sbmLogP = &symexpr.Func{
	Name: "sbm.log_p",
	Build: func(params []symexpr.Leaf, cond symexpr.Conditioning) (symexpr.Evaluator, error) {
		ix, err := symexpr.Bind(params).Indices(VarA, VarB, VarY, VarAlpha, VarLkhdScale)
		if err != nil {
			return nil, err
		}
		n, r, err := sbmShape(cond)
		if err != nil {
			return nil, err
		}
		b0, err := symexpr.AsFloat(cond[condB0])
		if err != nil {
			return nil, err
		}
		b1, err := symexpr.AsFloat(cond[condB1])
		if err != nil {
			return nil, err
		}
		alpha0, err := symexpr.AsFloats(cond[condAlpha])
		if err != nil {
			return nil, err
		}
		beta := distuv.Beta{Alpha: b0, Beta: b1}
		dir := distmv.NewDirichlet(alpha0, nil)

		return func(args []any) (any, error) {
			a, err := adjacencyFrom(args[ix[0]], n)
			if err != nil {
				return nil, err
			}
			pA, err := blockProbability(args[ix[1]], args[ix[2]], n, r)
			if err != nil {
				return nil, err
			}
			alpha, err := alphaFrom(args[ix[3]], r)
			if err != nil {
				return nil, err
			}
			s, err := symexpr.AsFloat(args[ix[4]])
			if err != nil {
				return nil, err
			}

			// B was validated by blockProbability.
			b := args[ix[1]].(*matrix.Dense)
			var lp float64
			for _, v := range b.Data() {
				lp += beta.LogProb(matrix.ClampProb(v))
			}
			lp += dir.LogProb(matrix.ClampProbs(alpha))

			ll, err := matrix.BernoulliLogLik(a, pA)
			if err != nil {
				return nil, stateErrorf(VarA, "%v", err)
			}
			return lp + s*ll, nil
		}, nil
	},
}

// sbmShape reads N and R from the conditioning set.
func sbmShape(cond symexpr.Conditioning) (n, r int, err error) {
	nv, ok1 := cond[condN].(int)
	rv, ok2 := cond[condR].(int)
	if !ok1 || !ok2 {
		return 0, 0, symexpr.ErrType
	}
	return nv, rv, nil
}

// blockProbability validates B (R×R, entries in [0,1]) and Y (length N, in
// [0,R)) and expands them into the N×N edge probability matrix.
func blockProbability(bv, yv any, n, r int) (*matrix.Dense, error) {
	b, err := blocksFrom(bv, r)
	if err != nil {
		return nil, err
	}
	y, err := labelsFrom(yv, n, r)
	if err != nil {
		return nil, err
	}
	pA, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	bd, pd := b.Data(), pA.Data()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			pd[i*n+j] = bd[y[i]*r+y[j]]
		}
	}
	return pA, nil
}

func blocksFrom(v any, r int) (*matrix.Dense, error) {
	b, err := symexpr.AsDense(v)
	if err != nil {
		return nil, stateErrorf(VarB, "%v", err)
	}
	if err := matrix.ValidateSquare(b, r); err != nil {
		return nil, stateErrorf(VarB, "%v", err)
	}
	for _, x := range b.Data() {
		if !(x >= 0 && x <= 1) {
			return nil, stateErrorf(VarB, "entry %v not in [0,1]", x)
		}
	}
	return b, nil
}

func labelsFrom(v any, n, r int) ([]int, error) {
	y, err := symexpr.AsInts(v)
	if err != nil {
		return nil, stateErrorf(VarY, "%v", err)
	}
	if len(y) != n {
		return nil, stateErrorf(VarY, "want length %d, got %d", n, len(y))
	}
	for i, c := range y {
		if c < 0 || c >= r {
			return nil, stateErrorf(VarY, "Y[%d]=%d not in [0,%d)", i, c, r)
		}
	}
	return y, nil
}

func alphaFrom(v any, r int) ([]float64, error) {
	alpha, err := symexpr.AsFloats(v)
	if err != nil {
		return nil, stateErrorf(VarAlpha, "%v", err)
	}
	if len(alpha) != r {
		return nil, stateErrorf(VarAlpha, "want length %d, got %d", r, len(alpha))
	}
	for i, x := range alpha {
		if !(x >= 0 && x <= 1) {
			return nil, stateErrorf(VarAlpha, "alpha[%d]=%v not in [0,1]", i, x)
		}
	}
	return alpha, nil
}

// stochasticBlockModel assigns every node to one of R blocks; the edge
// probability depends only on the pair of blocks.
type stochasticBlockModel struct {
	base
	annealer
	r      int
	b0, b1 float64
	alpha0 []float64
}

var (
	_ Model      = (*stochasticBlockModel)(nil)
	_ Annealable = (*stochasticBlockModel)(nil)
)

// newStochasticBlock reads R, b0, b1 and alpha0 (all required, all > 0).
func newStochasticBlock(cfg Config, mc modelConfig) (*stochasticBlockModel, error) {
	g := cfg.Graph
	r, err := g.Int(keyR)
	if err != nil {
		return nil, err
	}
	if err := size(keyR, r); err != nil {
		return nil, err
	}
	b0, err := g.Float(keyB0)
	if err != nil {
		return nil, err
	}
	if err := positive(keyB0, b0); err != nil {
		return nil, err
	}
	b1, err := g.Float(keyB1)
	if err != nil {
		return nil, err
	}
	if err := positive(keyB1, b1); err != nil {
		return nil, err
	}
	alpha0, err := g.Floats(keyAlpha0, r)
	if err != nil {
		return nil, err
	}
	for _, a := range alpha0 {
		if err := positive(keyAlpha0, a); err != nil {
			return nil, err
		}
	}

	m := &stochasticBlockModel{
		base:     newBase(StochasticBlock, cfg, mc),
		annealer: annealer{scale: mc.scale},
		r:        r,
		b0:       b0,
		b1:       b1,
		alpha0:   alpha0,
	}
	if _, err := m.Sample(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *stochasticBlockModel) conditioning() symexpr.Conditioning {
	return symexpr.Conditioning{
		condN:     m.n,
		condR:     m.r,
		condB0:    m.b0,
		condB1:    m.b1,
		condAlpha: m.alpha0,
	}
}

// Variables returns {A, B, Y, alpha}.
func (m *stochasticBlockModel) Variables() symexpr.SymbolTree {
	return symexpr.SymbolTree{VarA: symA, VarB: symB, VarY: symY, VarAlpha: symAlpha}
}

// LogP evaluates the Beta and Dirichlet priors plus the scaled likelihood.
func (m *stochasticBlockModel) LogP(state symexpr.ValueTree) (float64, error) {
	return m.cache.EvaluateFloat(sbmLogP, withScale(m.Variables()), state, m.defaults(&m.base), m.conditioning())
}

// EdgeProbability returns B[Y_i,Y_j] for the given (or current) B and Y.
func (m *stochasticBlockModel) EdgeProbability(state symexpr.ValueTree) (*matrix.Dense, error) {
	syms := symexpr.SymbolTree{VarB: symB, VarY: symY}
	return m.cache.EvaluateDense(sbmEdgeProbability, syms, state, m.state, m.conditioning())
}

// Sample draws alpha ~ Dir(alpha0), B ~ Beta(b0,b1), Y ~ Cat(alpha), then A.
func (m *stochasticBlockModel) Sample() (symexpr.ValueTree, error) {
	alpha, err := sampleDirichlet(m.alpha0, m.rng)
	if err != nil {
		return nil, err
	}

	b, err := matrix.NewDense(m.r, m.r)
	if err != nil {
		return nil, err
	}
	beta := distuv.Beta{Alpha: m.b0, Beta: m.b1, Src: m.rng}
	bd := b.Data()
	for i := range bd {
		bd[i] = matrix.ClampProb(beta.Rand())
	}

	if _, err := alphaFrom(alpha, m.r); err != nil {
		return nil, err
	}
	cat := distuv.NewCategorical(alpha, m.rng)
	y := make([]int, m.n)
	for i := range y {
		y[i] = int(cat.Rand())
	}

	pA, err := m.EdgeProbability(symexpr.ValueTree{VarB: b, VarY: y})
	if err != nil {
		return nil, err
	}
	a, err := sampleAdjacency(pA, m.rng)
	if err != nil {
		return nil, err
	}
	m.commit(symexpr.ValueTree{VarA: a, VarB: b, VarY: y, VarAlpha: alpha})

	return m.State(), nil
}

// sampleDirichlet draws alpha ~ Dir(alpha0) in log space.
//
// Each component is log Gamma(a_k, 1); for a_k < 1 it is boosted as
// log Gamma(a_k+1, 1) + log(U)/a_k so that tiny concentrations do not
// underflow. Normalizing with LogSumExp leaves the largest component at
// exp(0) relative weight, so the result always sums to 1 with no NaN.
func sampleDirichlet(alpha0 []float64, rng *rand.Rand) ([]float64, error) {
	logs := make([]float64, len(alpha0))
	for k, a := range alpha0 {
		shape := a
		if a < 1 {
			shape = a + 1
		}
		g := distuv.Gamma{Alpha: shape, Beta: 1, Src: rng}.Rand()
		lg := math.Log(g)
		if a < 1 {
			u := rng.Float64()
			for u == 0 {
				u = rng.Float64()
			}
			lg += math.Log(u) / a
		}
		logs[k] = lg
	}
	lse := floats.LogSumExp(logs)
	if math.IsNaN(lse) || math.IsInf(lse, 0) {
		return nil, stateErrorf(VarAlpha, "dirichlet draw degenerate for alpha0=%v", alpha0)
	}
	alpha := make([]float64, len(logs))
	for k, lg := range logs {
		alpha[k] = math.Exp(lg - lse)
	}
	return alpha, nil
}

// SetState validates every present variable before storing any of them.
func (m *stochasticBlockModel) SetState(state symexpr.ValueTree) error {
	next := symexpr.ValueTree{}
	if v, ok := state[VarA]; ok && v != nil {
		a, err := adjacencyFrom(v, m.n)
		if err != nil {
			return err
		}
		next[VarA] = a
	}
	if v, ok := state[VarB]; ok && v != nil {
		b, err := blocksFrom(v, m.r)
		if err != nil {
			return err
		}
		next[VarB] = b
	}
	if v, ok := state[VarY]; ok && v != nil {
		y, err := labelsFrom(v, m.n, m.r)
		if err != nil {
			return err
		}
		next[VarY] = y
	}
	if v, ok := state[VarAlpha]; ok && v != nil {
		alpha, err := alphaFrom(v, m.r)
		if err != nil {
			return err
		}
		next[VarAlpha] = alpha
	}
	m.commit(next)
	return nil
}
