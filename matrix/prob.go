// SPDX-License-Identifier: MIT

// Package matrix - probability helpers and structural checks.
//
// Numeric policy:
//   - Every probability that reaches a logarithm goes through ClampProb first,
//     which maps it into [ProbEpsilon, 1-ProbEpsilon]. log(0) never happens.
//   - BernoulliLogLik is the single place where Σ A·log p + (1-A)·log(1-p) is
//     computed, so all variants share identical clamping.

package matrix

import (
	"fmt"
	"math"
)

// ProbEpsilon is the clamp margin for probabilities entering a logarithm.
const ProbEpsilon = 1e-8

// ClampProb maps p into [ProbEpsilon, 1-ProbEpsilon]. NaN maps to ProbEpsilon.
func ClampProb(p float64) float64 {
	if p < ProbEpsilon || math.IsNaN(p) {
		return ProbEpsilon
	}
	if p > 1-ProbEpsilon {
		return 1 - ProbEpsilon
	}

	return p
}

// ClampProbs returns a clamped copy of ps.
func ClampProbs(ps []float64) []float64 {
	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = ClampProb(p)
	}

	return out
}

// LogProbPair holds the precomputed log p and log(1-p) fields of a probability matrix.
// Both are derived from the clamped probability.
type LogProbPair struct {
	LogP   *Dense // log(clamp(p))
	LogNot *Dense // log(1-clamp(p))
}

// NewLogProbPair precomputes log(clamp(p)) and log(1-clamp(p)) for every cell.
// Complexity: O(r*c).
func NewLogProbPair(p *Dense) (LogProbPair, error) {
	if p == nil {
		return LogProbPair{}, ErrNilMatrix
	}
	lp := &Dense{r: p.r, c: p.c, data: make([]float64, len(p.data))}
	ln := &Dense{r: p.r, c: p.c, data: make([]float64, len(p.data))}
	for i, v := range p.data {
		c := ClampProb(v)
		lp.data[i] = math.Log(c)
		ln.data[i] = math.Log1p(-c)
	}

	return LogProbPair{LogP: lp, LogNot: ln}, nil
}

// BernoulliLogLik returns Σ_ij A·log p + (1-A)·log(1-p) using precomputed logs.
//
// Errors:
//   - ErrNilMatrix if any operand is nil.
//   - ErrDimensionMismatch if shapes differ.
func (lp LogProbPair) BernoulliLogLik(a *Dense) (float64, error) {
	if a == nil || lp.LogP == nil || lp.LogNot == nil {
		return 0, ErrNilMatrix
	}
	if !a.SameShape(lp.LogP) {
		return 0, fmt.Errorf("BernoulliLogLik %dx%d vs %dx%d: %w",
			a.r, a.c, lp.LogP.r, lp.LogP.c, ErrDimensionMismatch)
	}
	var s float64
	for i, v := range a.data {
		s += v*lp.LogP.data[i] + (1-v)*lp.LogNot.data[i]
	}

	return s, nil
}

// BernoulliLogLik is the one-shot form: clamp p, then sum the Bernoulli terms.
func BernoulliLogLik(a, p *Dense) (float64, error) {
	if a == nil || p == nil {
		return 0, ErrNilMatrix
	}
	if !a.SameShape(p) {
		return 0, fmt.Errorf("BernoulliLogLik %dx%d vs %dx%d: %w", a.r, a.c, p.r, p.c, ErrDimensionMismatch)
	}
	var s float64
	for i, v := range a.data {
		c := ClampProb(p.data[i])
		s += v*math.Log(c) + (1-v)*math.Log1p(-c)
	}

	return s, nil
}

// ValidateSquare returns ErrNonSquare (wrapped) unless m is n×n.
func ValidateSquare(m *Dense, n int) error {
	if m == nil {
		return ErrNilMatrix
	}
	if m.r != n || m.c != n {
		return fmt.Errorf("want %dx%d, got %dx%d: %w", n, n, m.r, m.c, ErrNonSquare)
	}

	return nil
}

// IsBinary reports whether every entry of m is exactly 0 or 1.
func IsBinary(m *Dense) bool {
	if m == nil {
		return false
	}
	for _, v := range m.data {
		if v != 0 && v != 1 {
			return false
		}
	}

	return true
}

// ValidateAdjacency checks that a is n×n with entries in {0,1}.
func ValidateAdjacency(a *Dense, n int) error {
	if err := ValidateSquare(a, n); err != nil {
		return err
	}
	if !IsBinary(a) {
		return ErrNonBinary
	}

	return nil
}
