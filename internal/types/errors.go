package types

import "errors"

// Sentinel errors for rulesynth operations.
var (
	// ErrUnknownPolicy indicates an unrecognised schema sampling policy.
	ErrUnknownPolicy = errors.New("unknown sampling policy")

	// ErrSchemaNotFound indicates no approved schema exists for a kind.
	ErrSchemaNotFound = errors.New("schema not found")

	// ErrNoSchemas indicates the store returned no approved schemas.
	ErrNoSchemas = errors.New("no approved schemas")

	// ErrNoChannels indicates a schema has no channel of the requested kind.
	ErrNoChannels = errors.New("schema has no channels of requested kind")

	// ErrTooManyAttempts indicates schema resampling gave up.
	ErrTooManyAttempts = errors.New("too many sampling attempts")

	// ErrInvalidType indicates a type string could not be parsed.
	ErrInvalidType = errors.New("invalid type")

	// ErrEmptyUtterance indicates an utterance with no tokens.
	ErrEmptyUtterance = errors.New("utterance is empty")
)
