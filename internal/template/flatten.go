// internal/template/flatten.go
package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/solatis/ntfyrelay/internal/types"
)

// Flatten walks nested mappings and returns dotted-key views of the event:
// scalars holds the string form of every scalar leaf (null included), lists
// holds every list value. Lists are not descended into. Keys are visited in
// sorted order so colliding dotted keys resolve the same way every time.
// Mappings nested deeper than types.MaxPathDepth are skipped.
func Flatten(event types.Event) (scalars map[string]string, lists map[string][]any) {
	scalars = make(map[string]string)
	lists = make(map[string][]any)
	flattenInto(map[string]any(event), "", 1, scalars, lists)
	return scalars, lists
}

func flattenInto(m map[string]any, prefix string, depth int, scalars map[string]string, lists map[string][]any) {
	if depth > types.MaxPathDepth {
		return
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		full := k
		if prefix != "" {
			full = prefix + "." + k
		}
		switch v := m[k].(type) {
		case map[string]any:
			flattenInto(v, full, depth+1, scalars, lists)
		case types.Event:
			flattenInto(v, full, depth+1, scalars, lists)
		case []any:
			lists[full] = v
		default:
			scalars[full] = stringify(v)
		}
	}
}

// stringify renders a value for substitution.
// Numbers use the shortest exact decimal form, null renders empty, and
// mappings and lists render as compact JSON.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return formatNumber(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case map[string]any, types.Event, []any:
		return canonicalJSON(t)
	default:
		return fmt.Sprint(t)
	}
}

// formatNumber keeps integer literals digit for digit and renders any other
// number like a float64 (1.50 -> 1.5, 1e21 -> 1000000000000000000000).
func formatNumber(n json.Number) string {
	if isIntegerLiteral(string(n)) {
		return string(n)
	}
	f, err := n.Float64()
	if err != nil {
		return string(n)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isIntegerLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// canonicalJSON serializes v with sorted keys and no HTML escaping.
func canonicalJSON(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
