// SPDX-License-Identifier: MIT

package prior

import (
	"github.com/katalvlaran/glmnet/matrix"
	"github.com/katalvlaran/glmnet/symexpr"
)

// completeLogP is the constant zero prior of the complete graph.
var completeLogP = &symexpr.Func{
	Name: "complete.log_p",
	Build: func([]symexpr.Leaf, symexpr.Conditioning) (symexpr.Evaluator, error) {
		return func([]any) (any, error) { return 0.0, nil }, nil
	},
}

// completeModel is the fully connected network: A is all ones and fixed.
type completeModel struct {
	base
	ones *matrix.Dense
}

var _ Model = (*completeModel)(nil)

func newComplete(cfg Config, mc modelConfig) (*completeModel, error) {
	ones, err := matrix.NewFilled(cfg.N, cfg.N, 1)
	if err != nil {
		return nil, configErrorf(keyN, "%v", err)
	}
	m := &completeModel{base: newBase(Complete, cfg, mc), ones: ones}
	m.state[VarA] = ones.Clone()

	return m, nil
}

// Variables is empty: the complete graph has no latent variables.
func (m *completeModel) Variables() symexpr.SymbolTree { return symexpr.SymbolTree{} }

// LogP is identically zero.
func (m *completeModel) LogP(symexpr.ValueTree) (float64, error) {
	return m.cache.EvaluateFloat(completeLogP, symexpr.SymbolTree{}, nil, nil, nil)
}

// EdgeProbability is the all-ones matrix.
func (m *completeModel) EdgeProbability(symexpr.ValueTree) (*matrix.Dense, error) {
	return m.ones.Clone(), nil
}

// Sample returns the all-ones adjacency.
func (m *completeModel) Sample() (symexpr.ValueTree, error) {
	return m.State(), nil
}

// SetState accepts only the all-ones adjacency.
func (m *completeModel) SetState(state symexpr.ValueTree) error {
	v, ok := state[VarA]
	if !ok || v == nil {
		return nil
	}
	a, err := adjacencyFrom(v, m.n)
	if err != nil {
		return err
	}
	if a.Sum() != float64(m.n*m.n) {
		return stateErrorf(VarA, "complete graph requires every edge")
	}
	return nil
}
