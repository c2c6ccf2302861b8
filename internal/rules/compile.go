// internal/rules/compile.go
package rules

import (
	"fmt"

	"github.com/solatis/ntfyrelay/internal/types"
)

/*
 * Filter compilation from decoded configuration.
 *
 * Converts the loosely typed `filters` list decoded from YAML into
 * []types.RuleGroup. Compilation never fails: malformed entries are kept as
 * never-matching groups or leaves (fail closed) and reported as problems so
 * the caller can log them at startup.
 *
 * Accepted shapes:
 *   - {and: [leaf...]} / {or: [leaf...]}
 *   - leaf: {key | key_not_defined, value?, format?, title?, discard?}
 *   - a list made only of bare leaves is one implicit AND group (legacy form)
 *   - bare leaves mixed with groups become single-leaf AND groups in place
 */

// CompileFilters converts decoded filter entries into rule groups.
// The returned groups are always usable; problems lists every malformed entry.
func CompileFilters(filters []any) (groups []types.RuleGroup, problems []error) {
	if len(filters) == 0 {
		return nil, nil
	}

	if isLegacyForm(filters) {
		group := types.RuleGroup{Op: types.GroupAnd, Leaves: make([]types.Leaf, 0, len(filters))}
		for i, entry := range filters {
			leaf, err := compileLeaf(entry)
			if err != nil {
				problems = append(problems, fmt.Errorf("filter %d: %w", i, err))
			}
			group.Leaves = append(group.Leaves, leaf)
		}
		return []types.RuleGroup{group}, problems
	}

	groups = make([]types.RuleGroup, 0, len(filters))
	for i, entry := range filters {
		group, errs := compileGroup(entry)
		for _, err := range errs {
			problems = append(problems, fmt.Errorf("filter %d: %w", i, err))
		}
		groups = append(groups, group)
	}
	return groups, problems
}

// isLegacyForm reports whether no entry declares an and/or group.
func isLegacyForm(filters []any) bool {
	for _, entry := range filters {
		m, ok := entry.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := m["and"]; ok {
			return false
		}
		if _, ok := m["or"]; ok {
			return false
		}
	}
	return true
}

// compileGroup converts one filters entry into a rule group.
func compileGroup(entry any) (types.RuleGroup, []error) {
	m, ok := entry.(map[string]any)
	if !ok {
		return types.RuleGroup{Op: types.GroupInvalid}, []error{types.ErrInvalidGroup}
	}

	andLeaves, hasAnd := m["and"]
	orLeaves, hasOr := m["or"]

	switch {
	case hasAnd && hasOr:
		return types.RuleGroup{Op: types.GroupInvalid}, []error{fmt.Errorf("both and and or set: %w", types.ErrInvalidGroup)}
	case hasAnd:
		return compileLeaves(types.GroupAnd, andLeaves)
	case hasOr:
		return compileLeaves(types.GroupOr, orLeaves)
	default:
		// Bare leaf among groups
		leaf, err := compileLeaf(m)
		group := types.RuleGroup{Op: types.GroupAnd, Leaves: []types.Leaf{leaf}}
		if err != nil {
			return group, []error{err}
		}
		return group, nil
	}
}

// compileLeaves converts the leaf list of an and/or group.
func compileLeaves(op types.GroupOp, raw any) (types.RuleGroup, []error) {
	list, ok := raw.([]any)
	if !ok {
		return types.RuleGroup{Op: types.GroupInvalid}, []error{fmt.Errorf("%s must be a list: %w", op, types.ErrInvalidGroup)}
	}

	var errs []error
	group := types.RuleGroup{Op: op, Leaves: make([]types.Leaf, 0, len(list))}
	for i, entry := range list {
		leaf, err := compileLeaf(entry)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s leaf %d: %w", op, i, err))
		}
		group.Leaves = append(group.Leaves, leaf)
	}
	return group, errs
}

// compileLeaf converts one leaf mapping. On error the returned leaf has
// Kind LeafInvalid and evaluates false.
func compileLeaf(entry any) (types.Leaf, error) {
	m, ok := entry.(map[string]any)
	if !ok {
		return types.Leaf{}, types.ErrInvalidLeaf
	}

	key, hasKey := m["key"]
	absentKey, hasAbsent := m["key_not_defined"]
	if hasKey == hasAbsent {
		return types.Leaf{}, types.ErrInvalidLeaf
	}

	var leaf types.Leaf
	if hasKey {
		path, ok := key.(string)
		if !ok {
			return types.Leaf{}, fmt.Errorf("key must be a string: %w", types.ErrInvalidLeaf)
		}
		leaf.Path = path
		leaf.Kind = types.LeafKeyExists
		if value, ok := m["value"]; ok {
			leaf.Kind = types.LeafKeyEquals
			leaf.Value = value
		}
	} else {
		path, ok := absentKey.(string)
		if !ok {
			return types.Leaf{}, fmt.Errorf("key_not_defined must be a string: %w", types.ErrInvalidLeaf)
		}
		leaf.Path = path
		leaf.Kind = types.LeafKeyAbsent
	}

	if raw, ok := m["format"]; ok {
		format, ok := raw.(string)
		if !ok {
			return types.Leaf{}, fmt.Errorf("format must be a string: %w", types.ErrInvalidLeaf)
		}
		leaf.Format = format
		leaf.HasFormat = true
	}
	if raw, ok := m["title"]; ok {
		title, ok := raw.(string)
		if !ok {
			return types.Leaf{}, fmt.Errorf("title must be a string: %w", types.ErrInvalidLeaf)
		}
		leaf.Title = title
		leaf.HasTitle = true
	}
	if raw, ok := m["discard"]; ok {
		leaf.Discard = truthy(raw)
	}

	return leaf, nil
}

// truthy interprets a decoded config value as a flag.
// Empty strings, zero numbers, false and null are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		if n, ok := toFloat64(v); ok {
			return n != 0
		}
		return true
	}
}
