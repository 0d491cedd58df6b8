// SPDX-License-Identifier: MIT

// Package matrix - content hashing.
//
// Hashes are computed over (kind tag, shape, IEEE-754 bit patterns) with
// xxhash64, so two arrays hash equal iff they have the same shape and the same
// bits in the same order. -0 and +0 hash differently, which is acceptable for
// cache keys (a spurious miss costs one compilation, never a wrong result).

package matrix

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
)

// kind tags keep a []float64 and a 1×n Dense with equal bits from colliding.
const (
	hashTagDense  byte = 'D'
	hashTagFloats byte = 'F'
	hashTagInts   byte = 'I'
)

// hasher is a small helper around xxhash.Digest that writes fixed-width words.
type hasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

func newHasher(tag byte) *hasher {
	h := &hasher{d: xxhash.New()}
	_, _ = h.d.Write([]byte{tag})

	return h
}

func (h *hasher) word(u uint64) {
	binary.LittleEndian.PutUint64(h.buf[:], u)
	_, _ = h.d.Write(h.buf[:])
}

// Hash returns a content hash of m (shape + values).
// Complexity: O(r*c).
func (m *Dense) Hash() uint64 {
	h := newHasher(hashTagDense)
	h.word(uint64(m.r))
	h.word(uint64(m.c))
	for _, v := range m.data {
		h.word(math.Float64bits(v))
	}

	return h.d.Sum64()
}

// HashFloats returns a content hash of xs (length + values).
func HashFloats(xs []float64) uint64 {
	h := newHasher(hashTagFloats)
	h.word(uint64(len(xs)))
	for _, v := range xs {
		h.word(math.Float64bits(v))
	}

	return h.d.Sum64()
}

// HashInts returns a content hash of xs (length + values).
func HashInts(xs []int) uint64 {
	h := newHasher(hashTagInts)
	h.word(uint64(len(xs)))
	for _, v := range xs {
		h.word(uint64(int64(v)))
	}

	return h.d.Sum64()
}
