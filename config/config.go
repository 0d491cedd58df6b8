// SPDX-License-Identifier: MIT

// Package config loads the model description of a run from YAML.
//
// The document is decoded into a generic nested mapping and handed to
// prior.ConfigFromMap, so validation (and the key named in every error)
// lives in one place:
//
//	N: 10
//	network:
//	  graph:
//	    type: distance
//	    N_dims: 2
//	    delta: 1.0
//	    location_prior: {type: gaussian, mu: 0.0, sigma: 1.0}
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/katalvlaran/glmnet/prior"
	"gopkg.in/yaml.v3"
)

// ErrEmpty indicates a document without a top-level mapping.
var ErrEmpty = errors.New("config: empty document")

// Load reads and parses the YAML model file at path.
func Load(path string) (prior.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return prior.Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return prior.Config{}, fmt.Errorf("%s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes a YAML model document.
//
// Errors:
//   - ErrEmpty for an empty document.
//   - yaml syntax errors, wrapped.
//   - *prior.ConfigError for a missing or malformed N / network.graph.
func Parse(data []byte) (prior.Config, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return prior.Config{}, fmt.Errorf("config: decode: %w", err)
	}
	if len(doc) == 0 {
		return prior.Config{}, ErrEmpty
	}

	return prior.ConfigFromMap(doc)
}

// Marshal renders cfg back to YAML in the same nested shape.
func Marshal(cfg prior.Config) ([]byte, error) {
	doc := map[string]any{
		"N":       cfg.N,
		"network": map[string]any{"graph": map[string]any(cfg.Graph)},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("config: encode: %w", err)
	}

	return out, nil
}
