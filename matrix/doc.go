// SPDX-License-Identifier: MIT

// Package matrix provides the dense numeric storage used by the network priors.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with bounds-checked At/Set that return
//     sentinel errors instead of panicking.
//   - Probability helpers (ClampProb, ProbEpsilon) that keep every value fed to a
//     logarithm inside [ε, 1−ε].
//   - Structural checks used on adjacency matrices (IsBinary, ValidateSquare).
//   - Content hashing (Dense.Hash, HashFloats, HashInts) so that structurally
//     identical arrays produce identical cache keys regardless of identity.
//
// Adjacency matrices are stored as Dense with entries in {0,1}; A[i,j]=1 means a
// directed edge i→j. Self-loops live on the diagonal.
package matrix
