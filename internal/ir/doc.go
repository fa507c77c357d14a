// Package ir provides the serializable definition of an ODE model.
//
// A ModelSpec is what the compiler produces from CUE sources and what the
// store keys its cache on. This package imports nothing internal; the
// conversion to live expression trees lives in the compiler.
//
// Key design constraints:
//   - Collections are slices so declaration order survives serialization
//   - All JSON tags use snake_case
//   - Numbers enter canonical JSON as shortest round-trip decimal strings,
//     so hashes never depend on float formatting
package ir
