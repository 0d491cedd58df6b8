// Package matrix_test contains unit tests for Dense, the probability helpers
// and content hashing.
package matrix_test

import (
	"math"
	"testing"

	"github.com/katalvlaran/glmnet/matrix"
	"github.com/stretchr/testify/require"
)

// TestNewDenseInvalidDimensions ensures that NewDense rejects non-positive dimensions.
func TestNewDenseInvalidDimensions(t *testing.T) {
	_, err := matrix.NewDense(0, 5)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDense(5, 0)
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)

	_, err = matrix.NewDenseFrom(2, 2, []float64{1, 2, 3})
	require.ErrorIs(t, err, matrix.ErrInvalidDimensions)
}

// TestAtSetOutOfBounds ensures At() and Set() return ErrOutOfRange on invalid access.
func TestAtSetOutOfBounds(t *testing.T) {
	m, err := matrix.NewDense(2, 2)
	require.NoError(t, err)

	_, err = m.At(-1, 0)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	_, err = m.At(0, 2)
	require.ErrorIs(t, err, matrix.ErrOutOfRange)

	require.ErrorIs(t, m.Set(2, 0, 1.23), matrix.ErrOutOfRange)
	require.ErrorIs(t, m.Set(0, -1, 4.56), matrix.ErrOutOfRange)
}

// TestSetGetFillDiagonal validates Set/At, Fill and SetDiagonal.
func TestSetGetFillDiagonal(t *testing.T) {
	m, err := matrix.NewFilled(3, 3, 0.25)
	require.NoError(t, err)
	require.InDelta(t, 9*0.25, m.Sum(), 1e-12)

	m.SetDiagonal(1)
	for i := 0; i < 3; i++ {
		v, err := m.At(i, i)
		require.NoError(t, err)
		require.Equal(t, 1.0, v)
	}

	require.NoError(t, m.Set(0, 2, 7.5))
	v, err := m.At(0, 2)
	require.NoError(t, err)
	require.Equal(t, 7.5, v)

	row, err := m.Row(0)
	require.NoError(t, err)
	require.Equal(t, []float64{1, 0.25, 7.5}, row)
}

// TestCloneIndependence ensures Clone() returns a deep copy that does not share storage.
func TestCloneIndependence(t *testing.T) {
	m, err := matrix.NewDenseFrom(2, 2, []float64{1, 0, 0, 2})
	require.NoError(t, err)

	clone := m.Clone()
	require.NoError(t, clone.Set(0, 0, 3.0))

	orig, err := m.At(0, 0)
	require.NoError(t, err)
	require.Equal(t, 1.0, orig)
}

// TestClampProb checks the [ε, 1-ε] clamp, including NaN and the interior.
func TestClampProb(t *testing.T) {
	require.Equal(t, matrix.ProbEpsilon, matrix.ClampProb(0))
	require.Equal(t, matrix.ProbEpsilon, matrix.ClampProb(-3))
	require.Equal(t, matrix.ProbEpsilon, matrix.ClampProb(math.NaN()))
	require.Equal(t, 1-matrix.ProbEpsilon, matrix.ClampProb(1))
	require.Equal(t, 0.3, matrix.ClampProb(0.3))
}

// TestBernoulliLogLik_FiniteAtExtremes verifies that p∈{0,1} never yields -Inf.
func TestBernoulliLogLik_FiniteAtExtremes(t *testing.T) {
	a, err := matrix.NewDenseFrom(2, 2, []float64{1, 0, 0, 1})
	require.NoError(t, err)
	p, err := matrix.NewDenseFrom(2, 2, []float64{0, 1, 1, 0})
	require.NoError(t, err)

	ll, err := matrix.BernoulliLogLik(a, p)
	require.NoError(t, err)
	require.False(t, math.IsInf(ll, 0) || math.IsNaN(ll))
	require.InDelta(t, 4*math.Log(matrix.ProbEpsilon), ll, 1e-6)

	pair, err := matrix.NewLogProbPair(p)
	require.NoError(t, err)
	ll2, err := pair.BernoulliLogLik(a)
	require.NoError(t, err)
	require.InDelta(t, ll, ll2, 1e-9)

	small, err := matrix.NewDense(1, 1)
	require.NoError(t, err)
	_, err = pair.BernoulliLogLik(small)
	require.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

// TestBernoulliLogLik_Half checks the closed form at p=0.5.
func TestBernoulliLogLik_Half(t *testing.T) {
	a, err := matrix.NewDenseFrom(1, 3, []float64{1, 0, 1})
	require.NoError(t, err)
	p, err := matrix.NewFilled(1, 3, 0.5)
	require.NoError(t, err)

	ll, err := matrix.BernoulliLogLik(a, p)
	require.NoError(t, err)
	require.InDelta(t, 3*math.Log(0.5), ll, 1e-12)
}

// TestValidateAdjacency covers shape and binary checks.
func TestValidateAdjacency(t *testing.T) {
	a, err := matrix.NewDenseFrom(2, 2, []float64{1, 0, 0, 1})
	require.NoError(t, err)
	require.NoError(t, matrix.ValidateAdjacency(a, 2))
	require.ErrorIs(t, matrix.ValidateAdjacency(a, 3), matrix.ErrNonSquare)
	require.ErrorIs(t, matrix.ValidateAdjacency(nil, 2), matrix.ErrNilMatrix)

	require.NoError(t, a.Set(0, 1, 0.5))
	require.ErrorIs(t, matrix.ValidateAdjacency(a, 2), matrix.ErrNonBinary)
}

// TestHash_ContentAddressed verifies equal content ⇒ equal hash, any change ⇒ different hash.
func TestHash_ContentAddressed(t *testing.T) {
	a, err := matrix.NewDenseFrom(2, 2, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	b, err := matrix.NewDenseFrom(2, 2, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	require.Equal(t, a.Hash(), b.Hash())

	require.NoError(t, b.Set(1, 1, 0.41))
	require.NotEqual(t, a.Hash(), b.Hash())

	// same bits, different shape
	c, err := matrix.NewDenseFrom(1, 4, []float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	require.NotEqual(t, a.Hash(), c.Hash())
	require.NotEqual(t, matrix.HashFloats(c.Data()), c.Hash())

	require.Equal(t, matrix.HashInts([]int{0, 1, 2}), matrix.HashInts([]int{0, 1, 2}))
	require.NotEqual(t, matrix.HashInts([]int{0, 1, 2}), matrix.HashInts([]int{0, 2, 1}))
}
