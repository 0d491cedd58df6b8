// SPDX-License-Identifier: MIT

package prior

import (
	"math"

	"github.com/katalvlaran/glmnet/matrix"
	"github.com/katalvlaran/glmnet/symexpr"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// distanceEdgeProbability is pA[i,j] = exp(-0.5·‖L_i−L_j‖²/delta²) with an
// optional constant diagonal.
var distanceEdgeProbability = &symexpr.Func{
	Name: "distance.p_a",
	Build: func(params []symexpr.Leaf, cond symexpr.Conditioning) (symexpr.Evaluator, error) {
		ix, err := symexpr.Bind(params).Indices(VarL, VarDelta)
		if err != nil {
			return nil, err
		}
		g, err := distanceGeometryFrom(cond)
		if err != nil {
			return nil, err
		}

		return func(args []any) (any, error) {
			return g.edgeProbability(args[ix[0]], args[ix[1]])
		}, nil
	},
}

// distanceLogP is lkhd_scale · Σ Bernoulli(A; pA) + location_prior.LogP(L).
var distanceLogP = &symexpr.Func{
	Name: "distance.log_p",
	Build: func(params []symexpr.Leaf, cond symexpr.Conditioning) (symexpr.Evaluator, error) {
		ix, err := symexpr.Bind(params).Indices(VarA, VarL, VarDelta, VarLkhdScale)
		if err != nil {
			return nil, err
		}
		g, err := distanceGeometryFrom(cond)
		if err != nil {
			return nil, err
		}
		loc, ok := cond[condLoc].(LocationPrior)
		if !ok {
			return nil, symexpr.ErrType
		}

		return func(args []any) (any, error) {
			a, err := adjacencyFrom(args[ix[0]], g.n)
			if err != nil {
				return nil, err
			}
			pA, err := g.edgeProbability(args[ix[1]], args[ix[2]])
			if err != nil {
				return nil, err
			}
			s, err := symexpr.AsFloat(args[ix[3]])
			if err != nil {
				return nil, err
			}
			ll, err := matrix.BernoulliLogLik(a, pA)
			if err != nil {
				return nil, stateErrorf(VarA, "%v", err)
			}
			// L was validated by edgeProbability.
			return s*ll + loc.LogP(args[ix[1]].(*matrix.Dense)), nil
		}, nil
	},
}

// distanceGeometry is the compile-time part of the edge probability.
type distanceGeometry struct {
	n, d       int
	refractory float64
	override   bool
}

func distanceGeometryFrom(cond symexpr.Conditioning) (distanceGeometry, error) {
	n, ok1 := cond[condN].(int)
	d, ok2 := cond[condD].(int)
	if !ok1 || !ok2 {
		return distanceGeometry{}, symexpr.ErrType
	}
	g := distanceGeometry{n: n, d: d}
	if v, ok := cond[condRefr]; ok {
		r, err := symexpr.AsFloat(v)
		if err != nil {
			return distanceGeometry{}, err
		}
		g.refractory, g.override = r, true
	}
	return g, nil
}

// edgeProbability validates L (N×D) and delta (> 0) and computes pA.
// Complexity: O(N²·D).
func (g distanceGeometry) edgeProbability(lv, dv any) (*matrix.Dense, error) {
	l, err := locationsFrom(lv, g.n, g.d)
	if err != nil {
		return nil, err
	}
	delta, err := deltaFrom(dv)
	if err != nil {
		return nil, err
	}
	pA, err := matrix.NewDense(g.n, g.n)
	if err != nil {
		return nil, err
	}
	ld, pd := l.Data(), pA.Data()
	inv := -0.5 / (delta * delta)
	for i := 0; i < g.n; i++ {
		li := ld[i*g.d : (i+1)*g.d]
		for j := 0; j < g.n; j++ {
			lj := ld[j*g.d : (j+1)*g.d]
			var sq float64
			for k := range li {
				diff := li[k] - lj[k]
				sq += diff * diff
			}
			pd[i*g.n+j] = math.Exp(inv * sq)
		}
	}
	if g.override {
		pA.SetDiagonal(g.refractory)
	}
	return pA, nil
}

func locationsFrom(v any, n, d int) (*matrix.Dense, error) {
	l, err := symexpr.AsDense(v)
	if err != nil {
		return nil, stateErrorf(VarL, "%v", err)
	}
	if l.Rows() != n || l.Cols() != d {
		return nil, stateErrorf(VarL, "want %dx%d, got %dx%d", n, d, l.Rows(), l.Cols())
	}
	return l, nil
}

func deltaFrom(v any) (float64, error) {
	delta, err := symexpr.AsFloat(v)
	if err != nil {
		return 0, stateErrorf(VarDelta, "%v", err)
	}
	if !(delta > 0) || math.IsInf(delta, 0) {
		return 0, stateErrorf(VarDelta, "want finite > 0, got %v", delta)
	}
	return delta, nil
}

// latentDistanceModel embeds nodes in R^D; nearby nodes connect with high
// probability.
type latentDistanceModel struct {
	base
	annealer
	d          int
	delta      float64
	refractory *float64
	sorted     bool
	location   LocationPrior
}

var (
	_ Model      = (*latentDistanceModel)(nil)
	_ Annealable = (*latentDistanceModel)(nil)
)

// newLatentDistance reads N_dims, delta, location_prior (optional when given
// via WithLocationPrior, which takes precedence), rho_refractory and sorted.
func newLatentDistance(cfg Config, mc modelConfig) (*latentDistanceModel, error) {
	g := cfg.Graph
	d, err := g.Int(keyNDims)
	if err != nil {
		return nil, err
	}
	if err := size(keyNDims, d); err != nil {
		return nil, err
	}
	delta, err := g.Float(keyDelta)
	if err != nil {
		return nil, err
	}
	if err := positive(keyDelta, delta); err != nil {
		return nil, err
	}

	loc := mc.location
	if loc == nil {
		sub, err := g.Sub(keyLocationPrior)
		if err != nil {
			return nil, err
		}
		if loc, err = NewLocationPrior(sub, mc.rng); err != nil {
			return nil, prefixed(keyLocationPrior, err)
		}
	}

	var refractory *float64
	if g.Has(keyRhoRefractory) {
		r, err := g.Float(keyRhoRefractory)
		if err != nil {
			return nil, err
		}
		if err := probability(keyRhoRefractory, r); err != nil {
			return nil, err
		}
		refractory = &r
	}
	sorted, err := g.Bool(keySorted, false)
	if err != nil {
		return nil, err
	}

	m := &latentDistanceModel{
		base:       newBase(LatentDistance, cfg, mc),
		annealer:   annealer{scale: mc.scale},
		d:          d,
		delta:      delta,
		refractory: refractory,
		sorted:     sorted,
		location:   loc,
	}
	if _, err := m.Sample(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *latentDistanceModel) conditioning() symexpr.Conditioning {
	c := symexpr.Conditioning{
		condN:   m.n,
		condD:   m.d,
		condLoc: m.location,
	}
	if m.refractory != nil {
		c[condRefr] = *m.refractory
	}
	return c
}

// Variables returns {A, L, delta}.
func (m *latentDistanceModel) Variables() symexpr.SymbolTree {
	return symexpr.SymbolTree{VarA: symA, VarL: symL, VarDelta: symDelta}
}

// LogP evaluates the scaled likelihood plus the location prior of L.
func (m *latentDistanceModel) LogP(state symexpr.ValueTree) (float64, error) {
	return m.cache.EvaluateFloat(distanceLogP, withScale(m.Variables()), state, m.defaults(&m.base), m.conditioning())
}

// EdgeProbability returns exp(-0.5·d²/delta²) for the given (or current) L and delta.
func (m *latentDistanceModel) EdgeProbability(state symexpr.ValueTree) (*matrix.Dense, error) {
	syms := symexpr.SymbolTree{VarL: symL, VarDelta: symDelta}
	return m.cache.EvaluateDense(distanceEdgeProbability, syms, state, m.state, m.conditioning())
}

// Sample draws L from the location prior, takes delta from the config and
// draws A. With sorted set, nodes are permuted by their first coordinate;
// this is for generating data only and is logged as a warning.
func (m *latentDistanceModel) Sample() (symexpr.ValueTree, error) {
	l, err := m.location.Sample(m.n, m.d)
	if err != nil {
		return nil, err
	}
	if m.sorted {
		m.logger.Warn("sorting nodes by latent location; do not use during inference")
		if l, err = sortByFirstCoordinate(l); err != nil {
			return nil, err
		}
	}

	pA, err := m.EdgeProbability(symexpr.ValueTree{VarL: l, VarDelta: m.delta})
	if err != nil {
		return nil, err
	}
	a, err := sampleAdjacency(pA, m.rng)
	if err != nil {
		return nil, err
	}
	m.commit(symexpr.ValueTree{VarA: a, VarL: l, VarDelta: m.delta})
	m.logger.Debug("latent distance sample", zap.Float64("density", a.Sum()/float64(m.n*m.n)))

	return m.State(), nil
}

// sortByFirstCoordinate reorders the rows of l by ascending l[:,0].
func sortByFirstCoordinate(l *matrix.Dense) (*matrix.Dense, error) {
	rows, cols := l.Rows(), l.Cols()
	first := make([]float64, rows)
	for i := range first {
		first[i] = l.Data()[i*cols]
	}
	perm := make([]int, rows)
	floats.Argsort(first, perm)

	out, err := matrix.NewDense(rows, cols)
	if err != nil {
		return nil, err
	}
	src, dst := l.Data(), out.Data()
	for i, p := range perm {
		copy(dst[i*cols:(i+1)*cols], src[p*cols:(p+1)*cols])
	}
	return out, nil
}

// SetState validates every present variable before storing any of them.
func (m *latentDistanceModel) SetState(state symexpr.ValueTree) error {
	next := symexpr.ValueTree{}
	if v, ok := state[VarA]; ok && v != nil {
		a, err := adjacencyFrom(v, m.n)
		if err != nil {
			return err
		}
		next[VarA] = a
	}
	if v, ok := state[VarL]; ok && v != nil {
		l, err := locationsFrom(v, m.n, m.d)
		if err != nil {
			return err
		}
		next[VarL] = l
	}
	if v, ok := state[VarDelta]; ok && v != nil {
		delta, err := deltaFrom(v)
		if err != nil {
			return err
		}
		next[VarDelta] = delta
	}
	m.commit(next)
	return nil
}
