// Package shard provides the file-backed partitions used to deduplicate
// arrangements without holding them in memory.
//
// A shard is a plain text file holding one committed arrangement per line.
// Every arrangement is routed to exactly one shard by its Shard Key:
//
//   - width 1: every arrangement maps to the empty key (a single shard)
//   - width w > 1: the key is the first w runes of the arrangement
//
// The key is a pure function of the arrangement's content, so two identical
// arrangements always land in the same file no matter when they are produced.
//
// # File Layout
//
// Shard files live in the store's directory and are named
// <prefix><suffix>. Keys made only of ASCII letters, digits, '-', '_' and
// '.' are used verbatim as the suffix. Any other key is written as '~'
// followed by the hex encoding of its bytes, which keeps names portable and
// cannot collide with a verbatim key because '~' is never verbatim.
//
// # Registry
//
// Registry is the run-scoped set of keys whose shard files were written
// during the run. It drives the merge phase and is safe for concurrent use.
package shard
