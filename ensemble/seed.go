// SPDX-License-Identifier: MIT

package ensemble

// defaultSeed is used when the caller passes seed == 0.
const defaultSeed uint64 = 1

// deriveSeed mixes a parent seed and a chain id into an independent 64-bit
// seed with the SplitMix64 finalizer. Small input changes avalanche, so
// neighbouring chains get uncorrelated RNG streams.
//
// Complexity: O(1).
func deriveSeed(parent, chain uint64) uint64 {
	if parent == 0 {
		parent = defaultSeed
	}
	x := parent ^ (chain + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
