// SPDX-License-Identifier: MIT

package symexpr

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/katalvlaran/glmnet/matrix"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Entry is one compiled evaluator bound to a Key.
type Entry struct {
	Key        Key
	Params     []Leaf
	CompiledAt time.Time

	eval Evaluator
	hits int64
}

// Hits returns how many Evaluate calls reused this entry.
func (e *Entry) Hits() int64 { return atomic.LoadInt64(&e.hits) }

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	RunID    string
	Entries  int
	Hits     int64
	Misses   int64
	Compiles int64
}

// Option customizes a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for compile events. Panics on nil.
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("symexpr: WithLogger(nil)")
	}
	return func(c *Cache) { c.logger = l }
}

// WithMetrics attaches prometheus collectors. Panics on nil.
func WithMetrics(m *Metrics) Option {
	if m == nil {
		panic("symexpr: WithMetrics(nil)")
	}
	return func(c *Cache) { c.metrics = m }
}

// WithRunID overrides the generated run id reported in logs and Stats.
func WithRunID(id string) Option {
	return func(c *Cache) { c.runID = id }
}

// Cache memoizes compiled evaluators for the lifetime of one inference run.
//
// Thread Safety:
//
//	The entry map is guarded by an RWMutex and concurrent compilations of the
//	same key are collapsed with singleflight, so a Cache may be shared. The
//	priors that call into it are not goroutine-safe themselves; parallel chains
//	should each hold their own Cache (see package ensemble).
type Cache struct {
	mu      sync.RWMutex
	entries map[Key]*Entry
	flight  singleflight.Group

	logger  *zap.Logger
	metrics *Metrics
	runID   string

	// Stats
	hits     int64
	misses   int64
	compiles int64
}

// New creates an empty run-scoped Cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[Key]*Entry),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.runID == "" {
		c.runID = uuid.NewString()
	}

	return c
}

// RunID returns the identifier of the run this cache belongs to.
func (c *Cache) RunID() string { return c.runID }

// Evaluate resolves the evaluator for (expr, symbols, cond), compiling it on
// first use, then calls it with the values extracted for symbols.
//
// Inputs:
//   - symbols:  the free variables of expr (hierarchical).
//   - values:   bound values, same shape as symbols; takes precedence.
//   - defaults: fallback values, same shape as symbols; may be nil.
//   - cond:     fixed substitutions; part of the key by content.
//
// Errors:
//   - *MissingValueError (ErrMissingValue), ErrType, ErrCompile, or whatever the
//     evaluator returns.
func (c *Cache) Evaluate(expr Expression, symbols SymbolTree, values, defaults ValueTree, cond Conditioning) (any, error) {
	leaves, err := Flatten(symbols)
	if err != nil {
		return nil, err
	}
	key, err := NewKey(expr.ID(), leaves, cond)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", expr.ID(), err)
	}
	args, err := ExtractLeaves(leaves, values, defaults)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", expr.ID(), err)
	}
	entry, err := c.entry(key, expr, leaves, cond)
	if err != nil {
		return nil, err
	}

	return entry.eval(args)
}

// EvaluateFloat is Evaluate for scalar-valued expressions.
func (c *Cache) EvaluateFloat(expr Expression, symbols SymbolTree, values, defaults ValueTree, cond Conditioning) (float64, error) {
	v, err := c.Evaluate(expr, symbols, values, defaults, cond)
	if err != nil {
		return 0, err
	}
	f, err := AsFloat(v)
	if err != nil {
		return 0, fmt.Errorf("%s result: %w", expr.ID(), err)
	}

	return f, nil
}

// EvaluateDense is Evaluate for matrix-valued expressions.
func (c *Cache) EvaluateDense(expr Expression, symbols SymbolTree, values, defaults ValueTree, cond Conditioning) (*matrix.Dense, error) {
	v, err := c.Evaluate(expr, symbols, values, defaults, cond)
	if err != nil {
		return nil, err
	}
	m, err := AsDense(v)
	if err != nil {
		return nil, fmt.Errorf("%s result: %w", expr.ID(), err)
	}

	return m, nil
}

// entry returns the cached entry for key or compiles it exactly once.
func (c *Cache) entry(key Key, expr Expression, leaves []Leaf, cond Conditioning) (*Entry, error) {
	// Fast path
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		atomic.AddInt64(&c.hits, 1)
		atomic.AddInt64(&e.hits, 1)
		c.metrics.hit()
		return e, nil
	}
	atomic.AddInt64(&c.misses, 1)
	c.metrics.miss()

	// Singleflight: only one compilation per key
	res, err, _ := c.flight.Do(key.String(), func() (interface{}, error) {
		c.mu.RLock()
		existing, ok := c.entries[key]
		c.mu.RUnlock()
		if ok {
			return existing, nil
		}
		return c.compile(key, expr, leaves, cond)
	})
	if err != nil {
		return nil, err
	}

	return res.(*Entry), nil
}

// compile builds and stores a new entry.
func (c *Cache) compile(key Key, expr Expression, leaves []Leaf, cond Conditioning) (*Entry, error) {
	start := time.Now()
	eval, err := expr.Compile(leaves, cond)
	if err != nil {
		c.logger.Error("compile failed",
			zap.String("run", c.runID),
			zap.String("expr", key.Expr),
			zap.Error(err))
		return nil, fmt.Errorf("%s: %w: %w", key.Expr, ErrCompile, err)
	}
	if eval == nil {
		return nil, fmt.Errorf("%s: nil evaluator: %w", key.Expr, ErrCompile)
	}
	took := time.Since(start)

	e := &Entry{Key: key, Params: leaves, CompiledAt: start, eval: eval}

	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()

	atomic.AddInt64(&c.compiles, 1)
	c.metrics.compiled(key.Expr, took.Seconds())
	c.logger.Debug("compiled expression",
		zap.String("run", c.runID),
		zap.String("expr", key.Expr),
		zap.String("symbols", key.Symbols),
		zap.Int("conditioning", len(cond)),
		zap.Duration("took", took))

	return e, nil
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	n := len(c.entries)
	c.mu.RUnlock()

	return Stats{
		RunID:    c.runID,
		Entries:  n,
		Hits:     atomic.LoadInt64(&c.hits),
		Misses:   atomic.LoadInt64(&c.misses),
		Compiles: atomic.LoadInt64(&c.compiles),
	}
}

// Lookup returns the entry for key, if compiled.
func (c *Cache) Lookup(key Key) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]

	return e, ok
}

// Reset drops every entry. Counters are kept; call at the end of a run.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Key]*Entry)
}
