// Package perm enumerates every ordering of an input's characters.
//
// A character is a rune. Starting from an empty prefix and the whole input
// as the remainder, each step picks every remaining rune in turn (left to
// right, no sorting), appends it to the prefix and continues with that rune
// removed from the remainder. An empty remainder means the prefix is a
// completed arrangement, which is handed to a Sink.
//
// The enumeration is deterministic but not lexicographic, and inputs with
// repeated runes produce the same arrangement several times. Deduplication
// is the Sink's job.
//
// # Strategies
//
//   - StrategyRecursive: one call frame per input rune
//   - StrategyIterative: an explicit stack visiting arrangements in the
//     same order as the recursion, for inputs too long for deep recursion
//   - StrategyAuto: iterative above MaxRecursiveDepth runes, recursive otherwise
//
// # Parallelism
//
// With more than one worker, each choice of first rune becomes an
// independent branch run under an errgroup. The first failing branch
// cancels the others. Sinks must then be safe for concurrent use.
package perm
