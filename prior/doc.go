// SPDX-License-Identifier: MIT

// Package prior implements the network priors of a spike-train GLM: the
// distribution over the directed adjacency matrix A (and any latent
// variables that generate it).
//
// Variants (selected by network.graph.type):
//
//	complete     A ≡ 1, log_p ≡ 0.
//	erdos_renyi  A[i,j] ~ Bernoulli(rho[i,j]); rho_refractory overrides the diagonal.
//	sbm          alpha ~ Dir(alpha0), B ~ Beta(b0,b1), Y_i ~ Cat(alpha),
//	             A[i,j] ~ Bernoulli(B[Y_i,Y_j]).
//	distance     L ~ location prior, A[i,j] ~ Bernoulli(exp(-0.5·‖L_i−L_j‖²/delta²)).
//
// Every log_p and edge probability is evaluated through a symexpr.Cache: the
// expression is compiled once per (symbol signature, conditioning content)
// and reused on every sampler iteration. Probabilities feeding a logarithm
// are clamped to [ε, 1−ε] with ε = matrix.ProbEpsilon.
//
// Annealing:
//
//	Variants with a likelihood term implement Annealable. The scale multiplies
//	the Bernoulli likelihood only and reaches the evaluator as the free
//	variable lkhd_scale, defaulting to the model's value; a state entry of the
//	same name overrides it for one call.
//
// Determinism:
//
//	All randomness flows from one *rand.Rand (golang.org/x/exp/rand), set by
//	WithSeed or WithRand and shared with the gonum distributions. Models are
//	not safe for concurrent use.
package prior
