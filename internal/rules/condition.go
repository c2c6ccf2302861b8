// internal/rules/condition.go
package rules

import "github.com/solatis/ntfyrelay/internal/types"

// EvaluateLeaf reports whether a single leaf holds for the event.
// Invalid leaves and leaves flagged Discard always evaluate false.
func EvaluateLeaf(event types.Event, leaf types.Leaf) bool {
	if leaf.Discard {
		return false
	}

	switch leaf.Kind {
	case types.LeafKeyAbsent:
		_, found := Lookup(event, leaf.Path)
		return !found
	case types.LeafKeyExists:
		_, found := Lookup(event, leaf.Path)
		return found
	case types.LeafKeyEquals:
		value, found := Lookup(event, leaf.Path)
		return found && compareEqual(value, leaf.Value)
	default:
		// Unknown leaf shape fails closed
		return false
	}
}
