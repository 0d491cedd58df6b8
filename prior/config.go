// SPDX-License-Identifier: MIT
// Package: glmnet/prior
//
// config.go: the nested option mapping consumed by New.
//
// Shape (mirrors the model dictionary of the GLM):
//
//	N: 10
//	network:
//	  graph:
//	    type: sbm
//	    R: 2
//	    b0: 1.0
//	    b1: 1.0
//	    alpha0: 1.0
//
// Contract:
//   • Accessors never panic; every failure is a *ConfigError naming the key.
//   • Numbers may arrive as int or float64 (YAML/JSON decoders differ); both
//     are accepted wherever a real is expected. Integers must be integral.
//   • Vectors accept a scalar (broadcast) or a list of exactly the wanted length.

package prior

import (
	"fmt"
	"math"
)

// MaxNodes bounds N and the other size options (R, N_dims); N×N matrices of
// float64 are allocated eagerly.
const MaxNodes = 1 << 13

// Option keys (no magic strings).
const (
	keyN             = "N"
	keyNetwork       = "network"
	keyGraph         = "graph"
	keyType          = "type"
	keyRho           = "rho"
	keyRhoRefractory = "rho_refractory"
	keyR             = "R"
	keyB0            = "b0"
	keyB1            = "b1"
	keyAlpha0        = "alpha0"
	keyNDims         = "N_dims"
	keyDelta         = "delta"
	keyLocationPrior = "location_prior"
	keySorted        = "sorted"
	keyMu            = "mu"
	keySigma         = "sigma"
	keyScale         = "scale"
)

// Config selects and parameterizes one network prior.
type Config struct {
	// N is the number of nodes (neurons), fixed per run.
	N int
	// Graph holds graph.type plus the variant-specific options.
	Graph Options
}

// Options is one level of the nested option mapping.
type Options map[string]any

// ConfigFromMap extracts N and network.graph from a decoded model mapping.
func ConfigFromMap(m map[string]any) (Config, error) {
	root := Options(m)
	n, err := root.Int(keyN)
	if err != nil {
		return Config{}, err
	}
	network, err := root.Sub(keyNetwork)
	if err != nil {
		return Config{}, err
	}
	graph, err := network.Sub(keyGraph)
	if err != nil {
		return Config{}, prefixed(keyNetwork, err)
	}

	return Config{N: n, Graph: graph}, nil
}

// Has reports whether key is present with a non-nil value.
func (o Options) Has(key string) bool {
	v, ok := o[key]
	return ok && v != nil
}

// Text returns a required string option.
func (o Options) Text(key string) (string, error) {
	if !o.Has(key) {
		return "", missing(key)
	}
	s, ok := o[key].(string)
	if !ok {
		return "", configErrorf(key, "want string, got %T", o[key])
	}
	return s, nil
}

// Float returns a required finite real option.
func (o Options) Float(key string) (float64, error) {
	if !o.Has(key) {
		return 0, missing(key)
	}
	return toFloat(key, o[key])
}

// FloatOr returns an optional real option or def when absent.
func (o Options) FloatOr(key string, def float64) (float64, error) {
	if !o.Has(key) {
		return def, nil
	}
	return toFloat(key, o[key])
}

// Int returns a required integral option within the int32 range.
func (o Options) Int(key string) (int, error) {
	if !o.Has(key) {
		return 0, missing(key)
	}
	f, err := toFloat(key, o[key])
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, configErrorf(key, "want integer, got %v", f)
	}
	if math.Abs(f) > math.MaxInt32 {
		return 0, configErrorf(key, "integer %v out of range", f)
	}
	return int(f), nil
}

// Bool returns an optional boolean option or def when absent.
func (o Options) Bool(key string, def bool) (bool, error) {
	if !o.Has(key) {
		return def, nil
	}
	b, ok := o[key].(bool)
	if !ok {
		return false, configErrorf(key, "want bool, got %T", o[key])
	}
	return b, nil
}

// Floats returns a required vector of length n. A scalar is broadcast.
func (o Options) Floats(key string, n int) ([]float64, error) {
	if !o.Has(key) {
		return nil, missing(key)
	}
	var raw []any
	switch v := o[key].(type) {
	case []float64:
		for _, x := range v {
			raw = append(raw, x)
		}
	case []any:
		raw = v
	default:
		f, err := toFloat(key, v)
		if err != nil {
			return nil, err
		}
		out := make([]float64, n)
		for i := range out {
			out[i] = f
		}
		return out, nil
	}
	if len(raw) != n {
		return nil, configErrorf(key, "want %d values, got %d", n, len(raw))
	}
	out := make([]float64, n)
	for i, x := range raw {
		f, err := toFloat(fmt.Sprintf("%s[%d]", key, i), x)
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// Sub returns a required nested mapping.
func (o Options) Sub(key string) (Options, error) {
	if !o.Has(key) {
		return nil, missing(key)
	}
	switch v := o[key].(type) {
	case Options:
		return v, nil
	case map[string]any:
		return Options(v), nil
	}
	return nil, configErrorf(key, "want mapping, got %T", o[key])
}

// toFloat widens a decoded number to float64 and rejects NaN/Inf.
func toFloat(key string, v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	default:
		return 0, configErrorf(key, "want number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, configErrorf(key, "want finite number, got %v", f)
	}
	return f, nil
}

// probability validates p ∈ [0,1].
func probability(key string, p float64) error {
	if p < 0 || p > 1 {
		return configErrorf(key, "probability %v not in [0,1]", p)
	}
	return nil
}

// size validates 1 <= v <= MaxNodes.
func size(key string, v int) error {
	if v < 1 || v > MaxNodes {
		return configErrorf(key, "want 1..%d, got %d", MaxNodes, v)
	}
	return nil
}

// positive validates x > 0.
func positive(key string, x float64) error {
	if x <= 0 {
		return configErrorf(key, "want > 0, got %v", x)
	}
	return nil
}

// prefixed qualifies the key of a *ConfigError with a parent mapping name.
func prefixed(parent string, err error) error {
	if ce, ok := err.(*ConfigError); ok {
		return &ConfigError{Key: parent + "." + ce.Key, Reason: ce.Reason}
	}
	return err
}
