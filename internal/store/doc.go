// Package store provides a SQLite-backed cache of emitted model sources.
//
// The cache holds two tables:
//   - models: ModelSpec JSON keyed by its content hash (ir.ModelHash)
//   - emissions: zstd-compressed source text keyed by ir.EmissionKey
//
// Keys are content addresses, so writes are idempotent and a changed model,
// backend, parameter list or emitter version simply misses the cache.
//
// # Ordering
//
//   - Rows carry a seq INTEGER logical clock, never timestamps
//   - List queries use ORDER BY seq ASC, key COLLATE BINARY ASC
//
// # Connection
//
// Open sets WAL journaling, synchronous=NORMAL, a 5s busy timeout and
// foreign keys through the DSN. Schema changes are the migrations slice,
// applied in order against PRAGMA user_version.
package store
