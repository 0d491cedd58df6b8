// SPDX-License-Identifier: MIT

package symexpr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/katalvlaran/glmnet/matrix"
)

// Key identifies one compiled evaluator.
// Symbols and Conditioning are canonical strings so Key is comparable.
type Key struct {
	Expr         string
	Symbols      string
	Conditioning string
}

// String renders the key for singleflight and logs.
func (k Key) String() string {
	return k.Expr + "|" + k.Symbols + "|" + k.Conditioning
}

// NewKey builds the cache key from an expression id, the flattened leaves and
// the conditioning set. Conditioning entries are sorted by name. Every name,
// symbol id and free-form value is quoted, so separators inside names can
// not make two different signatures render to the same key.
//
// Errors:
//   - ErrType for conditioning values that cannot be content-addressed.
func NewKey(exprID string, leaves []Leaf, cond Conditioning) (Key, error) {
	ids := make([]string, len(leaves))
	for i, l := range leaves {
		ids[i] = strconv.Quote(l.Symbol.ID())
	}

	names := make([]string, 0, len(cond))
	for k := range cond {
		names = append(names, k)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		h, err := hashValue(cond[name])
		if err != nil {
			return Key{}, fmt.Errorf("conditioning %q: %w", name, err)
		}
		parts[i] = strconv.Quote(name) + "=" + h
	}

	return Key{
		Expr:         exprID,
		Symbols:      strings.Join(ids, ","),
		Conditioning: strings.Join(parts, ";"),
	}, nil
}

// ContentKeyer is implemented by conditioning values that are neither arrays
// nor scalars (e.g. a parameterized distribution). ContentKey must change
// whenever the value's behavior changes.
type ContentKeyer interface {
	ContentKey() string
}

// hashValue renders a conditioning value: arrays by content hash, scalars and
// strings verbatim. The type tag keeps 1 and 1.0 and "1" apart.
func hashValue(v any) (string, error) {
	switch x := v.(type) {
	case *matrix.Dense:
		if x == nil {
			return "", fmt.Errorf("nil *matrix.Dense: %w", ErrType)
		}
		return "D#" + strconv.FormatUint(x.Hash(), 16), nil
	case []float64:
		return "F#" + strconv.FormatUint(matrix.HashFloats(x), 16), nil
	case []int:
		return "I#" + strconv.FormatUint(matrix.HashInts(x), 16), nil
	case float64:
		return "f:" + strconv.FormatFloat(x, 'g', -1, 64), nil
	case int:
		return "i:" + strconv.Itoa(x), nil
	case string:
		return "s:" + strconv.Quote(x), nil
	case bool:
		return "b:" + strconv.FormatBool(x), nil
	case ContentKeyer:
		return "k:" + strconv.Quote(x.ContentKey()), nil
	}
	return "", fmt.Errorf("%T: %w", v, ErrType)
}
