// internal/rules/fieldpath.go
package rules

import (
	"strings"

	"github.com/solatis/ntfyrelay/internal/types"
)

/*
 * Field path resolution for event trees.
 *
 * Resolves dotted key paths ("alert.labels.severity") through nested
 * mappings. Lists are never indexed: a path that reaches a list, a scalar or
 * null before its last segment does not resolve. Enforces MaxPathDepth at
 * resolution time.
 *
 * Key functions:
 *   - ParsePath: splits a dotted path into segments
 *   - Resolve: traverses an event following the segment chain
 *   - Lookup: error-free wrapper used by leaf evaluation
 */

// ResolveResult contains the resolved value.
type ResolveResult struct {
	Value any  // resolved value (nil if not found or JSON null)
	Found bool // true if path resolved, including to null
}

// ParsePath splits a dotted key path into its segments.
// Empty segments are kept so that "a..b" only matches a literal "" key.
func ParsePath(path string) []string {
	return strings.Split(path, ".")
}

// Resolve traverses data following path segments.
// Returns ErrPathTooDeep if path exceeds MaxPathDepth.
// Returns ErrFieldNotFound if path does not exist in data.
func Resolve(path []string, data any) (ResolveResult, error) {
	if len(path) > types.MaxPathDepth {
		return ResolveResult{}, types.ErrPathTooDeep
	}

	current := data
	for _, seg := range path {
		m, ok := asMap(current)
		if !ok {
			// Scalar, list or null value but path continues
			return ResolveResult{}, types.ErrFieldNotFound
		}
		val, ok := m[seg]
		if !ok {
			return ResolveResult{}, types.ErrFieldNotFound
		}
		current = val
	}

	return ResolveResult{Value: current, Found: true}, nil
}

// Lookup resolves a dotted path against an event.
// Malformed paths, missing keys and depth violations all report found=false.
func Lookup(event types.Event, path string) (any, bool) {
	res, err := Resolve(ParsePath(path), event)
	if err != nil {
		return nil, false
	}
	return res.Value, res.Found
}

// asMap accepts both decoded JSON objects and Event values.
func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case types.Event:
		return m, true
	default:
		return nil, false
	}
}
