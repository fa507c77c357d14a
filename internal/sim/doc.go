// Package sim is the boundary to the execution collaborator that integrates
// emitted source text.
//
// The collaborator runs out of process (a sandboxed worker or another
// runtime) and is reached through the Executor interface. Requests carry
// emitted source plus numeric inputs; responses carry a time series.
//
// ARCHITECTURE:
//
// Last-Request-Wins:
// Callers submit requests under a logical key (e.g. "model/plot-1").
// Submitting a new request for a key cancels the previous one's context,
// and a response whose request is no longer the latest for its key is
// dropped instead of delivered. Requests under different keys never affect
// each other.
//
// Ordering:
// Submissions are stamped from a logical Clock; the latest stamp per key
// decides staleness. Wall-clock time is never compared.
package sim
