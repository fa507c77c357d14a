package ir

// Version constants for the model schema and the code emitter.
const (
	// IRVersion is the ModelSpec schema version.
	IRVersion = "1"

	// EmitterVersion changes whenever emitted source text would change for
	// the same model. It is part of every emission cache key.
	EmitterVersion = "0.1.0"
)
