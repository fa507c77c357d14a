package ir

import (
	"encoding/hex"
	"fmt"

	"lukechampine.com/blake3"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm migration.
const (
	DomainModel    = "odegen/model/v1"
	DomainEmission = "odegen/emission/v1"
)

// hashWithDomain computes BLAKE3(domain + 0x00 + data) as hex.
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := blake3.New(32, nil)
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ModelHash computes the content address of a model definition.
// Two specs with the same declarations in the same order hash equal.
func ModelHash(spec ModelSpec) (string, error) {
	canonical, err := MarshalCanonical(spec.Canonical())
	if err != nil {
		return "", fmt.Errorf("ModelHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainModel, canonical), nil
}

// EmissionKey identifies one emitted source text: a model, a backend and
// the ordered parameter list, under the current emitter version.
func EmissionKey(modelHash, backend string, params []string) (string, error) {
	ps := make(Array, len(params))
	for i, p := range params {
		ps[i] = String(p)
	}
	obj := Object{
		"model":           String(modelHash),
		"backend":         String(backend),
		"params":          ps,
		"emitter_version": String(EmitterVersion),
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EmissionKey: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEmission, canonical), nil
}

// MustModelHash is like ModelHash but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustModelHash(spec ModelSpec) string {
	h, err := ModelHash(spec)
	if err != nil {
		panic(err)
	}
	return h
}
