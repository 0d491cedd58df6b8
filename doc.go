// SPDX-License-Identifier: MIT

// Package glmnet provides the network priors of a spike-train generalized
// linear model together with the memoized expression evaluator they run on.
//
// Every neuron pair (i,j) has a directed edge A[i,j] ∈ {0,1}; a network prior
// is the distribution over A (and the latent variables that generate it). The
// inference engine asks a prior for fresh samples and for log-probabilities
// many thousands of times per run; each such evaluation goes through a
// run-scoped cache of compiled expressions keyed by content.
//
// Packages:
//
//	matrix/     row-major Dense matrix, probability clamping, content hashing
//	symexpr/    symbol trees, canonical flattening, compiled-expression cache
//	prior/      Complete, Erdős–Rényi, stochastic block and latent distance priors
//	config/     YAML model files into prior.Config
//	ensemble/   parallel independent draws, one model and cache per chain
//	cmd/glmnet  CLI: sample and logp
//
// Quick example:
//
//	cfg, _ := config.Parse([]byte(`
//	N: 10
//	network:
//	  graph: {type: erdos_renyi, rho: 0.2, rho_refractory: 1.0}
//	`))
//	m, _ := prior.New(cfg, prior.WithSeed(7))
//	state, _ := m.Sample()
//	logp, _ := m.LogP(state)
package glmnet
