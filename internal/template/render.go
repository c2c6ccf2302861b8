// internal/template/render.go
package template

import (
	"regexp"
	"strings"

	"github.com/solatis/ntfyrelay/internal/types"
)

var (
	// loopPattern matches {{loop:VAR in LISTKEY:[ITEM]}}; ITEM ends at the first "]}}".
	loopPattern = regexp.MustCompile(`(?s)\{\{loop:([A-Za-z_][A-Za-z0-9_]*)\s+in\s+([^\s:\[\]{}]+):\[(.*?)\]\}\}`)

	// placeholderPattern matches {{name}} where name contains no braces.
	placeholderPattern = regexp.MustCompile(`\{\{([^{}]+)\}\}`)
)

// loopSeparator joins rendered loop items.
const loopSeparator = "\n"

// Render expands tmpl against event.
// Missing keys never fail rendering: their placeholders stay in the output.
// Every placeholder is resolved exactly once; text produced by a loop or a
// substitution is never scanned again.
func Render(event types.Event, tmpl string) string {
	if !strings.Contains(tmpl, "{{") {
		return tmpl
	}

	scalars, lists := Flatten(WithRawMessage(event))

	var b strings.Builder
	last := 0
	for _, loc := range loopPattern.FindAllStringSubmatchIndex(tmpl, -1) {
		b.WriteString(substitute(tmpl[last:loc[0]], scalars))
		b.WriteString(expandLoop(tmpl, loc, scalars, lists))
		last = loc[1]
	}
	b.WriteString(substitute(tmpl[last:], scalars))
	return b.String()
}

// WithRawMessage returns a shallow copy of event carrying the canonical JSON
// of the original under types.RawMessageKey. The input is not modified.
func WithRawMessage(event types.Event) types.Event {
	injected := make(types.Event, len(event)+1)
	for k, v := range event {
		injected[k] = v
	}
	injected[types.RawMessageKey] = canonicalJSON(map[string]any(event))
	return injected
}

// expandLoop renders the loop block at loc, a submatch index into tmpl.
// A source that is not a list leaves the whole block as literal text.
func expandLoop(tmpl string, loc []int, scalars map[string]string, lists map[string][]any) string {
	varName := tmpl[loc[2]:loc[3]]
	listKey := tmpl[loc[4]:loc[5]]
	item := tmpl[loc[6]:loc[7]]

	elems, ok := lists[listKey]
	if !ok {
		return tmpl[loc[0]:loc[1]]
	}

	rendered := make([]string, 0, len(elems))
	for _, elem := range elems {
		rendered = append(rendered, renderItem(varName, item, elem, scalars))
	}
	return strings.Join(rendered, loopSeparator)
}

// renderItem fills one list element into the loop item template in a single
// pass. Mapping elements fill {{VAR.field}} from their own top-level pairs;
// scalar elements fill {{VAR}}. Other placeholders resolve against the
// event's scalars.
func renderItem(varName, item string, elem any, scalars map[string]string) string {
	fields, isMap := elem.(map[string]any)
	if ev, ok := elem.(types.Event); ok {
		fields, isMap = ev, true
	}
	prefix := varName + "."

	return placeholderPattern.ReplaceAllStringFunc(item, func(token string) string {
		name := token[2 : len(token)-2]
		switch {
		case isMap && strings.HasPrefix(name, prefix):
			if v, ok := fields[strings.TrimPrefix(name, prefix)]; ok {
				return stringify(v)
			}
			return token
		case !isMap && name == varName:
			return stringify(elem)
		}
		if v, ok := scalars[name]; ok {
			return v
		}
		return token
	})
}

// substitute replaces {{key}} tokens with flattened scalar values in one pass.
func substitute(tmpl string, scalars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		if v, ok := scalars[token[2:len(token)-2]]; ok {
			return v
		}
		return token
	})
}
