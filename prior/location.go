// SPDX-License-Identifier: MIT

package prior

import (
	"fmt"
	"strings"

	"github.com/katalvlaran/glmnet/matrix"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// LocationPrior is the distribution of the latent locations L of a
// LatentDistance model. Entries are i.i.d. under the built-in priors.
type LocationPrior interface {
	// Sample draws a rows×cols matrix of locations.
	Sample(rows, cols int) (*matrix.Dense, error)
	// LogP is the log-density of L.
	LogP(l *matrix.Dense) float64
	// ContentKey identifies the distribution and its parameters; it keys
	// compiled expressions that depend on the prior.
	ContentKey() string
}

// univariate is what the built-in priors need from a gonum distribution.
type univariate interface {
	Rand() float64
	LogProb(x float64) float64
}

// iidPrior places the same univariate distribution on every entry of L.
type iidPrior struct {
	dist univariate
	key  string
}

var _ LocationPrior = (*iidPrior)(nil)

// Sample fills a rows×cols matrix row-major with independent draws.
func (p *iidPrior) Sample(rows, cols int) (*matrix.Dense, error) {
	l, err := matrix.NewDense(rows, cols)
	if err != nil {
		return nil, err
	}
	data := l.Data()
	for i := range data {
		data[i] = p.dist.Rand()
	}
	return l, nil
}

// LogP sums the entrywise log-densities.
func (p *iidPrior) LogP(l *matrix.Dense) float64 {
	var s float64
	for _, x := range l.Data() {
		s += p.dist.LogProb(x)
	}
	return s
}

// ContentKey implements LocationPrior.
func (p *iidPrior) ContentKey() string { return p.key }

// String returns the prior name and parameters.
func (p *iidPrior) String() string { return p.key }

// source keeps a nil *rand.Rand from becoming a non-nil rand.Source; gonum
// falls back to its global source on a nil Src.
func source(rng *rand.Rand) rand.Source {
	if rng == nil {
		return nil
	}
	return rng
}

// NewGaussianPrior returns N(mu, sigma²) on every entry. sigma must be > 0.
// A nil rng draws from gonum's global source.
func NewGaussianPrior(mu, sigma float64, rng *rand.Rand) (LocationPrior, error) {
	if err := positive(keySigma, sigma); err != nil {
		return nil, err
	}
	return &iidPrior{
		dist: distuv.Normal{Mu: mu, Sigma: sigma, Src: source(rng)},
		key:  fmt.Sprintf("gaussian(mu=%g,sigma=%g)", mu, sigma),
	}, nil
}

// NewLaplacePrior returns Laplace(mu, scale) on every entry. scale must be > 0.
func NewLaplacePrior(mu, scale float64, rng *rand.Rand) (LocationPrior, error) {
	if err := positive(keyScale, scale); err != nil {
		return nil, err
	}
	return &iidPrior{
		dist: distuv.Laplace{Mu: mu, Scale: scale, Src: source(rng)},
		key:  fmt.Sprintf("laplace(mu=%g,scale=%g)", mu, scale),
	}, nil
}

// NewLocationPrior builds a prior from its option mapping:
//
//	{type: gaussian, mu: 0, sigma: 1}
//	{type: laplace,  mu: 0, scale: 1}
//
// mu defaults to 0. Errors are *ConfigError naming the key.
func NewLocationPrior(opts Options, rng *rand.Rand) (LocationPrior, error) {
	typ, err := opts.Text(keyType)
	if err != nil {
		return nil, err
	}
	mu, err := opts.FloatOr(keyMu, 0)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "gaussian", "normal":
		sigma, err := opts.Float(keySigma)
		if err != nil {
			return nil, err
		}
		return NewGaussianPrior(mu, sigma, rng)
	case "laplace":
		scale, err := opts.Float(keyScale)
		if err != nil {
			return nil, err
		}
		return NewLaplacePrior(mu, scale, rng)
	}
	return nil, configErrorf(keyType, "unrecognized location prior %q", typ)
}
