package types

import "errors"

// Sentinel errors for ntfyrelay operations.
var (
	// ErrFieldNotFound indicates a field path could not be resolved.
	ErrFieldNotFound = errors.New("field not found")

	// ErrPathTooDeep indicates a field path exceeds MaxPathDepth.
	ErrPathTooDeep = errors.New("field path exceeds maximum depth")

	// ErrInvalidLeaf indicates a filter leaf has neither or both of key/key_not_defined.
	ErrInvalidLeaf = errors.New("filter leaf must set exactly one of key or key_not_defined")

	// ErrInvalidGroup indicates a filter entry is neither an and/or group nor a leaf.
	ErrInvalidGroup = errors.New("filter entry must be an and group, an or group, or a leaf")

	// ErrEventNotObject indicates the request body is not a JSON object.
	ErrEventNotObject = errors.New("event must be a JSON object")

	// ErrPayloadTooLarge indicates the request body exceeds the configured limit.
	ErrPayloadTooLarge = errors.New("payload exceeds maximum size")
)
