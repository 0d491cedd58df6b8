// SPDX-License-Identifier: MIT

package prior

import (
	"fmt"
	"math"

	"github.com/katalvlaran/glmnet/matrix"
	"github.com/katalvlaran/glmnet/symexpr"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// Variable names shared with the weight/bias sub-models and the sampler.
const (
	VarA         = "A"
	VarY         = "Y"
	VarB         = "B"
	VarAlpha     = "alpha"
	VarL         = "L"
	VarDelta     = "delta"
	VarLkhdScale = "lkhd_scale"
)

// Conditioning keys.
const (
	condRho   = "rho"
	condN     = "N"
	condR     = "R"
	condB0    = "b0"
	condB1    = "b1"
	condAlpha = "alpha0"
	condD     = "D"
	condRefr  = "rho_refractory"
	condLoc   = "location_prior"
)

// Free-variable handles.
var (
	symA         = symexpr.Symbol{Name: VarA, Kind: symexpr.KindMatrix}
	symY         = symexpr.Symbol{Name: VarY, Kind: symexpr.KindIntVector}
	symB         = symexpr.Symbol{Name: VarB, Kind: symexpr.KindMatrix}
	symAlpha     = symexpr.Symbol{Name: VarAlpha, Kind: symexpr.KindVector}
	symL         = symexpr.Symbol{Name: VarL, Kind: symexpr.KindMatrix}
	symDelta     = symexpr.Symbol{Name: VarDelta, Kind: symexpr.KindScalar}
	symLkhdScale = symexpr.Symbol{Name: VarLkhdScale, Kind: symexpr.KindScalar}
)

// Model is the uniform contract of every network prior.
//
// Models hold an RNG and mutable state and are not safe for concurrent use.
type Model interface {
	// Kind reports the variant.
	Kind() Kind
	// N is the number of nodes.
	N() int
	// Variables returns the latent free variables of the prior, keyed by name.
	Variables() symexpr.SymbolTree
	// LogP is the log-probability contribution of the prior. Variables absent
	// from state fall back to the model's current state.
	LogP(state symexpr.ValueTree) (float64, error)
	// EdgeProbability returns the N×N matrix of edge probabilities.
	EdgeProbability(state symexpr.ValueTree) (*matrix.Dense, error)
	// Sample draws a complete, consistent assignment (latents first, A last)
	// and makes it the current state.
	Sample() (symexpr.ValueTree, error)
	// State returns a copy of the current values (A is always present).
	State() symexpr.ValueTree
	// SetState validates and stores values written back by the sampler.
	// Keys that are not variables of this prior are ignored.
	SetState(state symexpr.ValueTree) error
}

// Annealable is implemented by variants with a likelihood term.
// The scale multiplies the likelihood only; prior terms are untouched.
type Annealable interface {
	LikelihoodScale() float64
	SetLikelihoodScale(s float64) error
}

// New constructs the variant selected by cfg.Graph["type"].
//
// Errors:
//   - *ConfigError (ErrConfig) for an unknown type, a missing required option
//     (the error names the key) or an out-of-domain value.
func New(cfg Config, opts ...Option) (Model, error) {
	if err := size(keyN, cfg.N); err != nil {
		return nil, err
	}
	typ, err := cfg.Graph.Text(keyType)
	if err != nil {
		return nil, err
	}
	kind, err := ParseKind(typ)
	if err != nil {
		return nil, err
	}
	mc := newModelConfig(opts...)

	var m Model
	switch kind {
	case Complete:
		m, err = newComplete(cfg, mc)
	case ErdosRenyi:
		m, err = newErdosRenyi(cfg, mc)
	case StochasticBlock:
		m, err = newStochasticBlock(cfg, mc)
	case LatentDistance:
		m, err = newLatentDistance(cfg, mc)
	}
	if err != nil {
		return nil, err
	}
	mc.logger.Debug("network prior created",
		zap.Stringer("kind", kind),
		zap.Int("N", cfg.N),
		zap.String("run", mc.cache.RunID()))

	return m, nil
}

// base carries what every variant shares.
type base struct {
	kind   Kind
	n      int
	cache  *symexpr.Cache
	rng    *rand.Rand
	logger *zap.Logger
	state  symexpr.ValueTree
}

func newBase(kind Kind, cfg Config, mc modelConfig) base {
	return base{
		kind:   kind,
		n:      cfg.N,
		cache:  mc.cache,
		rng:    mc.rng,
		logger: mc.logger.With(zap.Stringer("prior", kind)),
		state:  symexpr.ValueTree{},
	}
}

func (b *base) Kind() Kind { return b.kind }

func (b *base) N() int { return b.n }

// State returns a deep copy of the current values.
func (b *base) State() symexpr.ValueTree {
	out := make(symexpr.ValueTree, len(b.state))
	for k, v := range b.state {
		out[k] = cloneValue(v)
	}
	return out
}

// commit replaces the current state with vals (already validated).
func (b *base) commit(vals symexpr.ValueTree) {
	for k, v := range vals {
		b.state[k] = cloneValue(v)
	}
}

// annealer holds the likelihood scale of variants with a likelihood term.
type annealer struct {
	scale float64
}

// LikelihoodScale returns the current likelihood multiplier.
func (a *annealer) LikelihoodScale() float64 { return a.scale }

// SetLikelihoodScale sets the likelihood multiplier (finite, >= 0).
func (a *annealer) SetLikelihoodScale(s float64) error {
	if s < 0 || math.IsNaN(s) || math.IsInf(s, 0) {
		return fmt.Errorf("lkhd_scale=%v: %w", s, ErrScale)
	}
	a.scale = s
	return nil
}

// defaults layers the likelihood scale over the model's current state; these
// back the values a caller did not bind.
func (a *annealer) defaults(b *base) symexpr.ValueTree {
	d := make(symexpr.ValueTree, len(b.state)+1)
	for k, v := range b.state {
		d[k] = v
	}
	d[VarLkhdScale] = a.scale
	return d
}

// withScale extends a variable tree with the likelihood scale symbol.
func withScale(vars symexpr.SymbolTree) symexpr.SymbolTree {
	out := make(symexpr.SymbolTree, len(vars)+1)
	for k, v := range vars {
		out[k] = v
	}
	out[VarLkhdScale] = symLkhdScale
	return out
}

// sampleAdjacency draws A[i,j] ~ Bernoulli(pA[i,j]) independently, row-major.
func sampleAdjacency(pA *matrix.Dense, rng *rand.Rand) (*matrix.Dense, error) {
	a, err := matrix.NewDense(pA.Rows(), pA.Cols())
	if err != nil {
		return nil, err
	}
	ad := a.Data()
	for i, p := range pA.Data() {
		if rng.Float64() < p {
			ad[i] = 1
		}
	}
	return a, nil
}

// cloneValue deep-copies the value types the priors produce.
func cloneValue(v any) any {
	switch x := v.(type) {
	case *matrix.Dense:
		return x.Clone()
	case []float64:
		return append([]float64(nil), x...)
	case []int:
		return append([]int(nil), x...)
	}
	return v
}

// adjacencyFrom validates a state entry as an n×n binary matrix.
func adjacencyFrom(v any, n int) (*matrix.Dense, error) {
	a, err := symexpr.AsDense(v)
	if err != nil {
		return nil, stateErrorf(VarA, "%v", err)
	}
	if err := matrix.ValidateAdjacency(a, n); err != nil {
		return nil, stateErrorf(VarA, "%v", err)
	}
	return a, nil
}
