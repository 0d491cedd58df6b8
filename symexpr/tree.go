// SPDX-License-Identifier: MIT

// Package symexpr - symbols, trees, flatten and extract.
//
// Contract:
//   - A SymbolTree node is either a Symbol (leaf) or a nested tree
//     (SymbolTree or map[string]any).
//   - A ValueTree mirrors the SymbolTree shape; leaves are bound values.
//   - Flatten is the single canonical ordering routine. ExtractLeaves consumes
//     its output; nothing else decides argument order.
//   - Resolution per leaf: values first, defaults second. A nil leaf value is
//     treated as absent. Neither ⇒ *MissingValueError naming the full path.

package symexpr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/katalvlaran/glmnet/matrix"
)

const pathSep = "."

// Kind classifies the Go type a Symbol expects its bound value to have.
type Kind int

const (
	// KindAny skips value type checks.
	KindAny Kind = iota
	// KindScalar expects float64 (ints are widened).
	KindScalar
	// KindVector expects []float64.
	KindVector
	// KindIntVector expects []int.
	KindIntVector
	// KindMatrix expects *matrix.Dense.
	KindMatrix
)

var kindNames = [...]string{"any", "scalar", "vector", "ivector", "matrix"}

// String returns a short stable name used inside cache keys.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Symbol is a free-variable handle: a name plus the kind of value it binds to.
type Symbol struct {
	Name string
	Kind Kind
}

// ID is the symbol identity used in cache keys.
func (s Symbol) ID() string { return s.Name + ":" + s.Kind.String() }

// SymbolTree is a hierarchical mapping of names to Symbols or nested trees.
type SymbolTree map[string]any

// ValueTree is a hierarchical mapping of names to bound values or nested trees.
type ValueTree map[string]any

// Conditioning is a set of fixed substitutions applied when compiling.
type Conditioning map[string]any

// Leaf is one flattened symbol together with its key path.
type Leaf struct {
	Path   []string
	Symbol Symbol
}

// PathString joins the path with dots ("network.graph.A").
func (l Leaf) PathString() string { return strings.Join(l.Path, pathSep) }

// asTree returns node as a plain map if it is a tree node.
func asTree(node any) (map[string]any, bool) {
	switch t := node.(type) {
	case SymbolTree:
		return t, true
	case ValueTree:
		return t, true
	case map[string]any:
		return t, true
	}
	return nil, false
}

// sortedKeys returns the keys of m in lexicographic order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys
}

// Flatten packs a hierarchical symbol tree into an ordered leaf list.
// Keys are sorted at every level; this ordering is what makes positional
// binding safe across calls.
//
// Errors:
//   - ErrType when a node is neither a Symbol nor a tree.
//
// Complexity: O(S log S) for S total keys.
func Flatten(tree SymbolTree) ([]Leaf, error) {
	var out []Leaf
	if err := flattenInto(&out, nil, tree); err != nil {
		return nil, err
	}

	return out, nil
}

func flattenInto(out *[]Leaf, prefix []string, node map[string]any) error {
	for _, k := range sortedKeys(node) {
		path := append(append(make([]string, 0, len(prefix)+1), prefix...), k)
		switch v := node[k].(type) {
		case Symbol:
			*out = append(*out, Leaf{Path: path, Symbol: v})
		default:
			sub, ok := asTree(v)
			if !ok {
				return fmt.Errorf("Flatten %s: %T: %w", strings.Join(path, pathSep), v, ErrType)
			}
			if err := flattenInto(out, path, sub); err != nil {
				return err
			}
		}
	}

	return nil
}

// lookup walks tree along path. A nil leaf counts as absent.
func lookup(tree map[string]any, path []string) (any, bool, error) {
	node := any(tree)
	for i, k := range path {
		m, ok := asTree(node)
		if !ok {
			if node == nil {
				return nil, false, nil
			}
			return nil, false, fmt.Errorf("lookup %s: %T is not a tree: %w",
				strings.Join(path[:i], pathSep), node, ErrType)
		}
		node, ok = m[k]
		if !ok || node == nil {
			return nil, false, nil
		}
	}

	return node, true, nil
}

// ExtractLeaves resolves one value per leaf, in leaf order.
//
// Errors:
//   - *MissingValueError when a leaf is in neither values nor defaults.
//   - ErrType when a bound value does not match the symbol Kind.
//
// Complexity: O(L·d) for L leaves of depth d.
func ExtractLeaves(leaves []Leaf, values, defaults ValueTree) ([]any, error) {
	args := make([]any, len(leaves))
	for i, leaf := range leaves {
		v, ok, err := lookup(values, leaf.Path)
		if err != nil {
			return nil, err
		}
		if !ok {
			v, ok, err = lookup(defaults, leaf.Path)
			if err != nil {
				return nil, err
			}
		}
		if !ok {
			return nil, &MissingValueError{Path: leaf.Path}
		}
		if err := checkKind(leaf, v); err != nil {
			return nil, err
		}
		args[i] = v
	}

	return args, nil
}

// Extract is Flatten followed by ExtractLeaves.
func Extract(symbols SymbolTree, values, defaults ValueTree) ([]any, error) {
	leaves, err := Flatten(symbols)
	if err != nil {
		return nil, err
	}

	return ExtractLeaves(leaves, values, defaults)
}

// checkKind verifies that v has the Go type the leaf's Symbol declares.
func checkKind(leaf Leaf, v any) error {
	ok := true
	switch leaf.Symbol.Kind {
	case KindScalar:
		_, err := AsFloat(v)
		ok = err == nil
	case KindVector:
		_, ok = v.([]float64)
	case KindIntVector:
		_, ok = v.([]int)
	case KindMatrix:
		_, ok = v.(*matrix.Dense)
	}
	if !ok {
		return fmt.Errorf("%s: want %s, got %T: %w", leaf.PathString(), leaf.Symbol.Kind, v, ErrType)
	}

	return nil
}
