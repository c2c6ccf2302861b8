// internal/rules/evaluate.go
package rules

import "github.com/solatis/ntfyrelay/internal/types"

/*
 * Rule group evaluation.
 *
 * Evaluates a topic's ordered rule groups against an event and reports
 * whether it is forwarded and which template override applies.
 *
 * Evaluation flow:
 *   1. Empty group list: forward with topic defaults
 *   2. Groups in declaration order, first match wins
 *   3. AND group: every leaf true, short-circuit on first false leaf
 *   4. OR group: first true leaf wins, short-circuit on it
 *   5. No group matched: discard
 *
 * Override selection differs between group kinds:
 *   - AND: format from the first leaf declaring one, title from the first
 *     leaf declaring one (both in declaration order)
 *   - OR: format and title of the first true leaf only
 */

// ReasonNoMatch is the discard reason when no rule group matched.
const ReasonNoMatch = "no rule group matched"

// Decision contains the outcome of rule evaluation.
type Decision struct {
	Matched   bool
	Format    string // message template override (valid when HasFormat)
	HasFormat bool   // false means "use the topic default format"
	Title     string // title template override (valid when HasTitle)
	HasTitle  bool   // false means "use the topic default title"
	Group     int    // index of the matching group, -1 if none
	Leaf      int    // index of the leaf supplying the override, -1 if none
	Reason    string // set when Matched is false
}

// Decide evaluates groups against event.
func Decide(event types.Event, groups []types.RuleGroup) Decision {
	if len(groups) == 0 {
		return Decision{Matched: true, Group: -1, Leaf: -1}
	}

	for groupIdx, group := range groups {
		var (
			matched bool
			d       Decision
		)
		switch group.Op {
		case types.GroupAnd:
			matched, d = evaluateAnd(event, group.Leaves)
		case types.GroupOr:
			matched, d = evaluateOr(event, group.Leaves)
		default:
			// Malformed group never matches
			continue
		}
		if matched {
			d.Matched = true
			d.Group = groupIdx
			return d
		}
	}

	return Decision{Group: -1, Leaf: -1, Reason: ReasonNoMatch}
}

// Templates resolves the decision's overrides against topic defaults.
func (d Decision) Templates(defaultFormat, defaultTitle string) (format, title string) {
	format = defaultFormat
	if d.HasFormat {
		format = d.Format
	}
	title = defaultTitle
	if d.HasTitle {
		title = d.Title
	}
	return format, title
}

// evaluateAnd evaluates an AND group (all leaves must hold).
// An empty AND group never matches; it has nothing to route on.
func evaluateAnd(event types.Event, leaves []types.Leaf) (bool, Decision) {
	if len(leaves) == 0 {
		return false, Decision{}
	}
	for _, leaf := range leaves {
		if !EvaluateLeaf(event, leaf) {
			return false, Decision{}
		}
	}

	d := Decision{Leaf: -1}
	for i, leaf := range leaves {
		if leaf.HasFormat && !d.HasFormat {
			d.Format = leaf.Format
			d.HasFormat = true
			d.Leaf = i
		}
		if leaf.HasTitle && !d.HasTitle {
			d.Title = leaf.Title
			d.HasTitle = true
		}
	}
	return true, d
}

// evaluateOr evaluates an OR group (first true leaf wins).
func evaluateOr(event types.Event, leaves []types.Leaf) (bool, Decision) {
	for i, leaf := range leaves {
		if !EvaluateLeaf(event, leaf) {
			continue
		}
		d := Decision{Leaf: i}
		if leaf.HasFormat {
			d.Format = leaf.Format
			d.HasFormat = true
		}
		if leaf.HasTitle {
			d.Title = leaf.Title
			d.HasTitle = true
		}
		return true, d
	}
	return false, Decision{}
}
