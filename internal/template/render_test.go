package template

import (
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

func TestRender(t *testing.T) {
	tests := []struct {
		name  string
		event string
		tmpl  string
		want  string
	}{
		{"scalar", `{"host": "db1"}`, "Host {{host}} is fine", "Host db1 is fine"},
		{"nested", `{"a": {"b": {"c": "deep"}}}`, "{{a.b.c}}", "deep"},
		{"missing key left literal", `{"a": 1}`, "{{b}}", "{{b}}"},
		{"integer number", `{"n": 1}`, "n={{n}}", "n=1"},
		{"decimal number", `{"n": 1.25}`, "n={{n}}", "n=1.25"},
		{"large number", `{"n": 1e21}`, "{{n}}", "1000000000000000000000"},
		{"decimal is normalised", `{"n": 1.50}`, "{{n}}", "1.5"},
		{"integer beyond 2^53 keeps its digits", `{"id": 9007199254740993}`, "{{id}}", "9007199254740993"},
		{"negative integer", `{"n": -42}`, "{{n}}", "-42"},
		{"raw message keeps integer digits", `{"id": 9007199254740993}`, "{{raw_message}}", `{"id":9007199254740993}`},
		{"boolean", `{"ok": true, "bad": false}`, "{{ok}}/{{bad}}", "true/false"},
		{"null renders empty", `{"gone": null}`, "[{{gone}}]", "[]"},
		{"repeated placeholder", `{"x": "y"}`, "{{x}}{{x}}{{x}}", "yyy"},
		{"mapping is not a scalar", `{"a": {"b": 1}}`, "{{a}}", "{{a}}"},
		{"list is not flattened", `{"items": [1, 2]}`, "{{items}}", "{{items}}"},
		{"placeholder with spaces is a different key", `{"host": "db1"}`, "{{ host }}", "{{ host }}"},
		{"substituted values are not re-expanded", `{"a": "{{b}}", "b": "x"}`, "{{a}}", "{{b}}"},
		{"raw message", `{"b": 2, "a": "<x>"}`, "{{raw_message}}", `{"a":"<x>","b":2}`},
		{"raw message of nested event", `{"z": {"y": [1, {"k": null}]}}`, "{{raw_message}}", `{"z":{"y":[1,{"k":null}]}}`},
		{"inbound raw_message is shadowed", `{"raw_message": "spoof"}`, "{{raw_message}}", `{"raw_message":"spoof"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(mustEvent(t, tt.event), tt.tmpl); got != tt.want {
				t.Errorf("Render(%s, %q) = %q, want %q", tt.event, tt.tmpl, got, tt.want)
			}
		})
	}
}

func TestRender_Loops(t *testing.T) {
	tests := []struct {
		name  string
		event string
		tmpl  string
		want  string
	}{
		{
			name:  "loop precedes scalar substitution",
			event: `{"items": [{"name": "a"}, {"name": "b"}]}`,
			tmpl:  "{{loop:i in items:[{{i.name}}]}} and {{items}}",
			want:  "a\nb and {{items}}",
		},
		{
			name:  "item template with text and several fields",
			event: `{"alerts": [{"name": "cpu", "value": 93.5}, {"name": "disk", "value": 80}]}`,
			tmpl:  "Alerts:\n{{loop:a in alerts:[- {{a.name}}: {{a.value}}%]}}",
			want:  "Alerts:\n- cpu: 93.5%\n- disk: 80%",
		},
		{
			name:  "scalars around loop",
			event: `{"host": "db1", "alerts": [{"name": "cpu"}]}`,
			tmpl:  "{{host}}: {{loop:a in alerts:[{{a.name}}@{{host}}]}}",
			want:  "db1: cpu@db1",
		},
		{
			name:  "dotted list key",
			event: `{"report": {"checks": [{"id": 1}, {"id": 2}]}}`,
			tmpl:  "{{loop:c in report.checks:[#{{c.id}}]}}",
			want:  "#1\n#2",
		},
		{
			name:  "element fields are one level only",
			event: `{"items": [{"meta": {"k": "v"}, "tags": ["x"]}]}`,
			tmpl:  "{{loop:i in items:[{{i.meta}} {{i.tags}} {{i.meta.k}}]}}",
			want:  `{"k":"v"} ["x"] {{i.meta.k}}`,
		},
		{
			name:  "missing element field left literal",
			event: `{"items": [{"name": "a"}]}`,
			tmpl:  "{{loop:i in items:[{{i.name}}/{{i.other}}]}}",
			want:  "a/{{i.other}}",
		},
		{
			name:  "scalar elements",
			event: `{"hosts": ["db1", "db2", 3]}`,
			tmpl:  "{{loop:h in hosts:[* {{h}}]}}",
			want:  "* db1\n* db2\n* 3",
		},
		{
			name:  "empty list renders empty",
			event: `{"items": []}`,
			tmpl:  "[{{loop:i in items:[{{i.name}}]}}]",
			want:  "[]",
		},
		{
			name:  "missing list left literal",
			event: `{"other": 1}`,
			tmpl:  "{{loop:i in items:[{{i.name}}]}}",
			want:  "{{loop:i in items:[{{i.name}}]}}",
		},
		{
			name:  "non-list source left literal",
			event: `{"items": "nope"}`,
			tmpl:  "{{loop:i in items:[{{i.name}}]}}",
			want:  "{{loop:i in items:[{{i.name}}]}}",
		},
		{
			name:  "item field values are not expanded again",
			event: `{"secret": "S", "items": [{"name": "{{secret}}"}]}`,
			tmpl:  "{{loop:i in items:[{{i.name}}]}}",
			want:  "{{secret}}",
		},
		{
			name:  "scalar item values are not expanded again",
			event: `{"host": "db1", "hosts": ["{{raw_message}}", "{{host}}"]}`,
			tmpl:  "{{loop:h in hosts:[{{h}}]}}",
			want:  "{{raw_message}}\n{{host}}",
		},
		{
			name:  "scalar value shaped like a loop stays literal",
			event: `{"a": "{{loop:i in items:[{{i.x}}]}}", "items": [{"x": 1}]}`,
			tmpl:  "{{a}}",
			want:  "{{loop:i in items:[{{i.x}}]}}",
		},
		{
			name:  "missing list keeps inner placeholders literal",
			event: `{"host": "db1"}`,
			tmpl:  "{{loop:i in items:[{{host}}]}} {{host}}",
			want:  "{{loop:i in items:[{{host}}]}} db1",
		},
		{
			name:  "two loops",
			event: `{"a": [{"x": 1}], "b": [{"y": 2}, {"y": 3}]}`,
			tmpl:  "{{loop:i in a:[{{i.x}}]}}|{{loop:j in b:[{{j.y}}]}}",
			want:  "1|2\n3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Render(mustEvent(t, tt.event), tt.tmpl); got != tt.want {
				t.Errorf("Render() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRender_DoesNotMutateEvent(t *testing.T) {
	ev := mustEvent(t, `{"host": "db1"}`)
	_ = Render(ev, "{{raw_message}} {{host}}")
	if _, ok := ev[types.RawMessageKey]; ok {
		t.Errorf("Render() injected %s into the caller's event", types.RawMessageKey)
	}
	if len(ev) != 1 {
		t.Errorf("len(event) = %d, want 1", len(ev))
	}
}

func TestFlatten(t *testing.T) {
	scalars, lists := Flatten(mustEvent(t, `{"a": {"b": 1, "c": {"d": null}}, "e": [1], "f": "g"}`))

	wantScalars := map[string]string{"a.b": "1", "a.c.d": "", "f": "g"}
	if len(scalars) != len(wantScalars) {
		t.Fatalf("scalars = %v, want %v", scalars, wantScalars)
	}
	for k, v := range wantScalars {
		if scalars[k] != v {
			t.Errorf("scalars[%q] = %q, want %q", k, scalars[k], v)
		}
	}
	if len(lists) != 1 || len(lists["e"]) != 1 {
		t.Errorf("lists = %v, want only e", lists)
	}
}

func TestFlatten_DeepKeysBelowCap(t *testing.T) {
	var leaf any = "bottom"
	path := "root"
	for i := 1; i < types.MaxPathDepth; i++ {
		leaf = map[string]any{"k": leaf}
		path += ".k"
	}
	ev := types.Event{"root": leaf}

	scalars, _ := Flatten(ev)
	if scalars[path] != "bottom" {
		t.Errorf("Flatten() lost the key at depth %d", types.MaxPathDepth)
	}
	if got := Render(ev, "{{"+path+"}}"); got != "bottom" {
		t.Errorf("Render() = %q, want bottom", got)
	}
}

func TestFlatten_DepthCap(t *testing.T) {
	var leaf any = "bottom"
	for i := 0; i < types.MaxPathDepth+4; i++ {
		leaf = map[string]any{"k": leaf}
	}
	scalars, _ := Flatten(types.Event{"root": leaf})
	if len(scalars) != 0 {
		t.Errorf("Flatten() kept %d scalars beyond MaxPathDepth, want 0", len(scalars))
	}
}

// Property-based test: templates without placeholders are returned unchanged
func TestRender_PropertyIdentityWithoutPlaceholders(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	ev := types.Event{"host": "db1", "n": float64(2)}

	properties.Property("render(E, T) == T when T has no {{", prop.ForAll(
		func(tmpl string) bool {
			return Render(ev, tmpl) == tmpl
		},
		gen.AnyString().SuchThat(func(s string) bool { return !strings.Contains(s, "{{") }),
	))

	properties.TestingRun(t)
}

// Property-based test: rendering is deterministic
func TestRender_PropertyDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("same event and template render identically", prop.ForAll(
		func(key, value string) bool {
			ev := types.Event{key: value, "a.b": "flat", "a": map[string]any{"b": "nested"}}
			tmpl := "{{" + key + "}} {{a.b}} {{raw_message}}"
			return Render(ev, tmpl) == Render(ev, tmpl)
		},
		gen.AlphaString(),
		gen.AnyString(),
	))

	properties.TestingRun(t)
}
