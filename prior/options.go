// SPDX-License-Identifier: MIT
// Package: glmnet/prior
//
// options.go: functional options for New.
//
// Contract (strict):
//   • Options are functional (type Option func(*modelConfig)).
//   • Option constructors VALIDATE and PANIC on meaningless inputs.
//     Construction and sampling themselves never panic.
//   • Determinism is explicit: seeding is done via WithSeed or WithRand; the
//     default is a fixed seed, never the clock.

package prior

import (
	"math"

	"github.com/katalvlaran/glmnet/symexpr"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// defaultSeed is used when neither WithSeed nor WithRand is given.
const defaultSeed uint64 = 1

// Option customizes a model before construction.
type Option func(*modelConfig)

// modelConfig aggregates all knobs used by constructors.
type modelConfig struct {
	rng      *rand.Rand
	cache    *symexpr.Cache
	logger   *zap.Logger
	location LocationPrior
	scale    float64
}

// newModelConfig applies options in order (last wins) and resolves defaults.
func newModelConfig(opts ...Option) modelConfig {
	cfg := modelConfig{scale: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	if cfg.rng == nil {
		cfg.rng = rand.New(rand.NewSource(defaultSeed))
	}
	if cfg.cache == nil {
		cfg.cache = symexpr.New(symexpr.WithLogger(cfg.logger))
	}

	return cfg
}

// WithSeed creates a new seeded RNG (deterministic draws).
func WithSeed(seed uint64) Option {
	return func(c *modelConfig) { c.rng = rand.New(rand.NewSource(seed)) }
}

// WithRand provides an explicit RNG. Panics on nil.
// The RNG is not goroutine-safe; do not share it across models used concurrently.
func WithRand(r *rand.Rand) Option {
	if r == nil {
		panic("prior: WithRand(nil)")
	}
	return func(c *modelConfig) { c.rng = r }
}

// WithCache shares an evaluator cache between models of one run. Panics on nil.
func WithCache(cache *symexpr.Cache) Option {
	if cache == nil {
		panic("prior: WithCache(nil)")
	}
	return func(c *modelConfig) { c.cache = cache }
}

// WithLogger sets the logger. Panics on nil.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("prior: WithLogger(nil)")
	}
	return func(c *modelConfig) { c.logger = l }
}

// WithLocationPrior injects the location prior of a LatentDistance model,
// making location_prior optional in the config. Panics on nil.
func WithLocationPrior(p LocationPrior) Option {
	if p == nil {
		panic("prior: WithLocationPrior(nil)")
	}
	return func(c *modelConfig) { c.location = p }
}

// WithLikelihoodScale sets the initial likelihood scale (default 1).
// Panics on negative or non-finite values. Ignored by Complete.
func WithLikelihoodScale(s float64) Option {
	if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		panic("prior: WithLikelihoodScale(s<0 or non-finite)")
	}
	return func(c *modelConfig) { c.scale = s }
}
