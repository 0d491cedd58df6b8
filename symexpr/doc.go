// SPDX-License-Identifier: MIT

// Package symexpr memoizes compiled probability expressions.
//
// An Expression is declared once (an identity plus a Compile step). Compiling
// binds the expression to an ordered parameter list and a conditioning set of
// fixed substitutions, and may precompute anything that depends only on the
// conditioning (log-probability fields, hyperparameter constants). The result
// is an Evaluator that is then called on every iteration of a sampling loop
// with freshly extracted positional arguments.
//
// Cache keys are (expression id, flattened symbol ids, conditioning content).
// Array-valued conditioning is hashed by content, so two distinct arrays with
// identical contents reuse one evaluator, while any changed value forces
// exactly one new compilation.
//
// Ordering contract:
//
//	Flatten visits a SymbolTree with keys sorted lexicographically at every
//	level. The same []Leaf drives both the compile-time parameter list and the
//	call-time argument extraction, so positions can never drift apart.
//
// Lifetime:
//
//	A Cache is run-scoped: construct one per inference run (or per worker when
//	chains run in parallel) and drop it when the run ends. Entries are never
//	evicted; the key set is bounded by the model structure, not by the number
//	of sampler iterations.
package symexpr
