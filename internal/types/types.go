// Package types provides domain models shared across ntfyrelay components.
//
// Zero-dependency design: types.go, rules.go and errors.go use only the
// standard library so the rules and template packages stay importable on
// their own. ID utilities in ids.go import uuid and are only used by the
// delivery history.
package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Event is one decoded inbound request body.
// Values are string, json.Number, bool, nil, map[string]any or []any, as
// produced by a UseNumber decoder, so integers beyond 2^53 keep their exact
// digits. Hand-built events may also hold float64. Treated as immutable once
// decoded.
type Event map[string]any

// RawMessageKey is the reserved key under which the renderer exposes the
// canonical JSON form of the original event.
const RawMessageKey = "raw_message"

// DefaultFormat is the message template used when a topic declares none.
const DefaultFormat = "{{" + RawMessageKey + "}}"

// DecodeEvent parses a JSON request body into an Event.
// Rejects anything other than a JSON object (arrays, scalars, null).
func DecodeEvent(data []byte) (Event, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrEventNotObject
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var ev Event
	if err := dec.Decode(&ev); err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, ErrEventNotObject
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON object")
	}
	return ev, nil
}

// Resource limits enforced by the core to bound work per event.
const (
	// MaxPathDepth caps both dotted path resolution and flattening recursion.
	// Event trees decoded from JSON are acyclic; the cap guards hand-built ones.
	MaxPathDepth = 64

	// MaxPayloadSize is the default inbound body limit (1MB).
	MaxPayloadSize = 1024 * 1024
)
