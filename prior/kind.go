// SPDX-License-Identifier: MIT

package prior

import "strings"

// Kind enumerates the network prior variants.
type Kind int

const (
	// Complete: every edge present, log_p ≡ 0.
	Complete Kind = iota
	// ErdosRenyi: independent edges with a fixed probability field rho.
	ErdosRenyi
	// StochasticBlock: edge probability B[Y_i,Y_j] over R latent blocks.
	StochasticBlock
	// LatentDistance: edge probability decays with squared latent distance.
	LatentDistance
)

var kindNames = map[Kind]string{
	Complete:        "complete",
	ErdosRenyi:      "erdos_renyi",
	StochasticBlock: "sbm",
	LatentDistance:  "distance",
}

// String returns the canonical config name of the variant.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind maps a graph.type string to a Kind. Matching is case-insensitive
// and "erdosrenyi" is accepted as an alias of "erdos_renyi".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "complete":
		return Complete, nil
	case "erdos_renyi", "erdosrenyi":
		return ErdosRenyi, nil
	case "sbm":
		return StochasticBlock, nil
	case "distance":
		return LatentDistance, nil
	}
	return 0, configErrorf(keyType, "unrecognized graph model %q", s)
}
