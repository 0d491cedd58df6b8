// SPDX-License-Identifier: MIT

package prior

import (
	"github.com/katalvlaran/glmnet/matrix"
	"github.com/katalvlaran/glmnet/symexpr"
)

// erLogP is lkhd_scale · Σ Bernoulli(A; clamp(rho)).
var erLogP = &symexpr.Func{
	Name: "erdos_renyi.log_p",
	Build: func(params []symexpr.Leaf, cond symexpr.Conditioning) (symexpr.Evaluator, error) {
		ix, err := symexpr.Bind(params).Indices(VarA, VarLkhdScale)
		if err != nil {
			return nil, err
		}
		rho, err := symexpr.AsDense(cond[condRho])
		if err != nil {
			return nil, err
		}
		lp, err := matrix.NewLogProbPair(rho)
		if err != nil {
			return nil, err
		}
		n := rho.Rows()

		return func(args []any) (any, error) {
			a, err := adjacencyFrom(args[ix[0]], n)
			if err != nil {
				return nil, err
			}
			s, err := symexpr.AsFloat(args[ix[1]])
			if err != nil {
				return nil, err
			}
			ll, err := lp.BernoulliLogLik(a)
			if err != nil {
				return nil, stateErrorf(VarA, "%v", err)
			}
			return s * ll, nil
		}, nil
	},
}

// erEdgeProbability is the fixed rho field.
var erEdgeProbability = &symexpr.Func{
	Name: "erdos_renyi.p_a",
	Build: func(_ []symexpr.Leaf, cond symexpr.Conditioning) (symexpr.Evaluator, error) {
		rho, err := symexpr.AsDense(cond[condRho])
		if err != nil {
			return nil, err
		}
		rho = rho.Clone()
		return func([]any) (any, error) { return rho.Clone(), nil }, nil
	},
}

// erdosRenyiModel draws every edge independently with probability rho[i,j].
type erdosRenyiModel struct {
	base
	annealer
	rho *matrix.Dense
}

var (
	_ Model      = (*erdosRenyiModel)(nil)
	_ Annealable = (*erdosRenyiModel)(nil)
)

// newErdosRenyi reads rho (required) and rho_refractory (optional diagonal).
func newErdosRenyi(cfg Config, mc modelConfig) (*erdosRenyiModel, error) {
	rho, err := cfg.Graph.Float(keyRho)
	if err != nil {
		return nil, err
	}
	if err := probability(keyRho, rho); err != nil {
		return nil, err
	}
	field, err := matrix.NewFilled(cfg.N, cfg.N, rho)
	if err != nil {
		return nil, configErrorf(keyN, "%v", err)
	}
	if cfg.Graph.Has(keyRhoRefractory) {
		refr, err := cfg.Graph.Float(keyRhoRefractory)
		if err != nil {
			return nil, err
		}
		if err := probability(keyRhoRefractory, refr); err != nil {
			return nil, err
		}
		field.SetDiagonal(refr)
	}

	m := &erdosRenyiModel{
		base:     newBase(ErdosRenyi, cfg, mc),
		annealer: annealer{scale: mc.scale},
		rho:      field,
	}
	if _, err := m.Sample(); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *erdosRenyiModel) conditioning() symexpr.Conditioning {
	return symexpr.Conditioning{condRho: m.rho}
}

// Variables returns {A}.
func (m *erdosRenyiModel) Variables() symexpr.SymbolTree {
	return symexpr.SymbolTree{VarA: symA}
}

// LogP evaluates the scaled Bernoulli likelihood of A under rho.
func (m *erdosRenyiModel) LogP(state symexpr.ValueTree) (float64, error) {
	return m.cache.EvaluateFloat(erLogP, withScale(m.Variables()), state, m.defaults(&m.base), m.conditioning())
}

// EdgeProbability returns a copy of rho; state is unused.
func (m *erdosRenyiModel) EdgeProbability(symexpr.ValueTree) (*matrix.Dense, error) {
	return m.cache.EvaluateDense(erEdgeProbability, symexpr.SymbolTree{}, nil, nil, m.conditioning())
}

// Sample draws A ~ Bernoulli(rho).
func (m *erdosRenyiModel) Sample() (symexpr.ValueTree, error) {
	pA, err := m.EdgeProbability(nil)
	if err != nil {
		return nil, err
	}
	a, err := sampleAdjacency(pA, m.rng)
	if err != nil {
		return nil, err
	}
	m.commit(symexpr.ValueTree{VarA: a})

	return m.State(), nil
}

// SetState stores A after validating it is an N×N binary matrix.
func (m *erdosRenyiModel) SetState(state symexpr.ValueTree) error {
	v, ok := state[VarA]
	if !ok || v == nil {
		return nil
	}
	a, err := adjacencyFrom(v, m.n)
	if err != nil {
		return err
	}
	m.commit(symexpr.ValueTree{VarA: a})
	return nil
}
