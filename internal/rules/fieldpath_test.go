package rules

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/solatis/ntfyrelay/internal/types"
)

func mustEvent(t *testing.T, data string) types.Event {
	t.Helper()
	ev, err := types.DecodeEvent([]byte(data))
	if err != nil {
		t.Fatalf("DecodeEvent(%s) error = %v", data, err)
	}
	return ev
}

// Test normal path resolution cases
func TestResolve_Normal(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		data     string
		expected any
	}{
		{"top-level string", "host", `{"host": "db1"}`, "db1"},
		{"nested object traversal", "user.name", `{"user": {"name": "Alice"}}`, "Alice"},
		{"deep nesting", "a.b.c.d", `{"a": {"b": {"c": {"d": "deep"}}}}`, "deep"},
		{"number leaf keeps its literal", "load", `{"load": 1.5}`, json.Number("1.5")},
		{"boolean leaf", "ok", `{"ok": false}`, false},
		{"null leaf", "gone", `{"gone": null}`, nil},
		{"key containing no dot resolves literally", "a-b", `{"a-b": "x"}`, "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Resolve(ParsePath(tt.path), mustEvent(t, tt.data))
			if err != nil {
				t.Fatalf("Resolve() error = %v, want nil", err)
			}
			if !result.Found {
				t.Fatalf("Resolve() Found = false, want true")
			}
			if result.Value != tt.expected {
				t.Errorf("Resolve() Value = %v, expected %v", result.Value, tt.expected)
			}
		})
	}
}

// Test edge cases
func TestResolve_EdgeCases(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		data    string
		wantErr error
	}{
		{"empty object", "missing", `{}`, types.ErrFieldNotFound},
		{"null value at intermediate level", "user.name", `{"user": null}`, types.ErrFieldNotFound},
		{"scalar value but path continues", "value.nested", `{"value": "scalar"}`, types.ErrFieldNotFound},
		{"list is never indexed", "items.0", `{"items": [{"name": "a"}]}`, types.ErrFieldNotFound},
		{"missing intermediate key", "a.b.c", `{"a": {"x": "wrong"}}`, types.ErrFieldNotFound},
		{"empty path", "", `{"a": 1}`, types.ErrFieldNotFound},
		{"double dot", "a..b", `{"a": {"b": 1}}`, types.ErrFieldNotFound},
		{"trailing dot", "a.", `{"a": {"b": 1}}`, types.ErrFieldNotFound},
		{"path too deep", strings.Repeat("a.", types.MaxPathDepth) + "a", `{}`, types.ErrPathTooDeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(ParsePath(tt.path), mustEvent(t, tt.data))
			if err != tt.wantErr {
				t.Errorf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

// nestedKey builds an event holding "bottom" under a path of n "k" segments.
func nestedKey(n int) (types.Event, string) {
	var leaf any = "bottom"
	for i := 1; i < n; i++ {
		leaf = map[string]any{"k": leaf}
	}
	return types.Event{"k": leaf}, strings.TrimSuffix(strings.Repeat("k.", n), ".")
}

func TestLookup_DepthBoundary(t *testing.T) {
	tests := []struct {
		name  string
		depth int
		found bool
	}{
		{"seventeen segments", 17, true},
		{"exactly at the cap", types.MaxPathDepth, true},
		{"one past the cap", types.MaxPathDepth + 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, path := nestedKey(tt.depth)
			v, found := Lookup(ev, path)
			if found != tt.found {
				t.Fatalf("Lookup(depth %d) found = %v, want %v", tt.depth, found, tt.found)
			}
			if found && v != "bottom" {
				t.Errorf("Lookup(depth %d) = %v, want bottom", tt.depth, v)
			}
			absent := EvaluateLeaf(ev, types.Leaf{Kind: types.LeafKeyAbsent, Path: path})
			if absent == tt.found {
				t.Errorf("KeyAbsent(depth %d) = %v, want %v", tt.depth, absent, !tt.found)
			}
		})
	}
}

func TestLookup_NeverErrors(t *testing.T) {
	ev := mustEvent(t, `{"a": {"b": null}, "c": [1, 2]}`)

	if v, found := Lookup(ev, "a.b"); !found || v != nil {
		t.Errorf("Lookup(a.b) = (%v, %v), want (nil, true)", v, found)
	}
	if _, found := Lookup(ev, "a.b.c"); found {
		t.Errorf("Lookup(a.b.c) found = true, want false (null is not a mapping)")
	}
	if _, found := Lookup(ev, "c.0"); found {
		t.Errorf("Lookup(c.0) found = true, want false")
	}
	if v, found := Lookup(ev, "c"); !found {
		t.Errorf("Lookup(c) = (%v, %v), want list found", v, found)
	}
}

// Lookup walks hand-built events with nested Event values too.
func TestLookup_NestedEventType(t *testing.T) {
	ev := types.Event{"outer": types.Event{"inner": "x"}}
	if v, found := Lookup(ev, "outer.inner"); !found || v != "x" {
		t.Errorf("Lookup(outer.inner) = (%v, %v), want (x, true)", v, found)
	}
}

// Property-based test: resolution never crashes
func TestResolve_PropertyNeverCrashes(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	documents := []string{
		`{}`,
		`{"key": [{"key": "value"}]}`,
		`{"key": {"key": {"key": null}}}`,
		`{"key": 1, "other": true}`,
	}

	properties.Property("resolution never crashes regardless of input", prop.ForAll(
		func(path string, doc int) bool {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("Resolve() panicked: %v", r)
				}
			}()

			var data any
			if err := json.Unmarshal([]byte(documents[doc]), &data); err != nil {
				return false
			}
			_, _ = Resolve(ParsePath(path), data)
			return true
		},
		gen.AnyString(),
		gen.IntRange(0, len(documents)-1),
	))

	properties.TestingRun(t)
}

// Property-based test: every path of a nested chain resolves
func TestResolve_PropertyChainResolves(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("chain of depth n resolves to its leaf", prop.ForAll(
		func(depth int) bool {
			var data any = "leaf"
			path := make([]string, depth)
			for i := depth - 1; i >= 0; i-- {
				path[i] = "k"
				data = map[string]any{"k": data}
			}
			result, err := Resolve(path, data)
			return err == nil && result.Found && result.Value == "leaf"
		},
		gen.IntRange(1, types.MaxPathDepth),
	))

	properties.TestingRun(t)
}
