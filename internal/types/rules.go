// internal/types/rules.go
package types

/*
 * Domain types for rule evaluation.
 *
 * Provides Topic, RuleGroup and Leaf structures used by internal/rules for
 * compilation and evaluation. These types are config-format agnostic: YAML
 * decoding happens in internal/core/config and the conversion to these
 * types in rules.CompileFilters.
 *
 * Key types:
 *   - Topic: filters plus default message/title templates for one destination
 *   - RuleGroup: AND or OR aggregation of leaves
 *   - Leaf: one key test with optional format/title override
 */

// LeafKind selects which test a Leaf performs.
type LeafKind int

const (
	LeafInvalid LeafKind = iota
	LeafKeyEquals
	LeafKeyExists
	LeafKeyAbsent
)

func (k LeafKind) String() string {
	switch k {
	case LeafKeyEquals:
		return "key_equals"
	case LeafKeyExists:
		return "key_exists"
	case LeafKeyAbsent:
		return "key_absent"
	default:
		return "invalid"
	}
}

// Leaf is a single condition against one dotted key path.
type Leaf struct {
	Kind      LeafKind
	Path      string // dotted path, e.g. "alert.labels.severity"
	Value     any    // expected value for LeafKeyEquals
	Format    string // message template override (valid when HasFormat)
	HasFormat bool   // disambiguates an explicit empty format from none
	Title     string // title template override (valid when HasTitle)
	HasTitle  bool
	Discard   bool // forces the leaf to evaluate false
}

// GroupOp is the aggregation applied to a group's leaves.
type GroupOp int

const (
	GroupInvalid GroupOp = iota
	GroupAnd
	GroupOr
)

func (op GroupOp) String() string {
	switch op {
	case GroupAnd:
		return "and"
	case GroupOr:
		return "or"
	default:
		return "invalid"
	}
}

// RuleGroup is one filtering alternative.
type RuleGroup struct {
	Op     GroupOp
	Leaves []Leaf
}

// Topic is the compiled configuration of one destination.
// Read-only after construction; safe to share across goroutines.
type Topic struct {
	Name   string
	Groups []RuleGroup
	Format string // default message template
	Title  string // default title template
}

// DefaultTopic returns the configuration used for destinations that have none.
func DefaultTopic(name string) Topic {
	return Topic{Name: name, Format: DefaultFormat}
}
