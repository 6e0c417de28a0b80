package extract

import (
	"encoding/json"
	"testing"
)

func testDoc(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("bad test document: %v", err)
	}
	return doc
}

func TestParsePath_Segments(t *testing.T) {
	segs, err := ParsePath("medHistory.claims[0].lines[2].srvcStart")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(segs) != 4 {
		t.Fatalf("Expected 4 segments, got %d", len(segs))
	}
	if segs[1].Key != "claims" || !segs[1].HasIndex || segs[1].Index != 0 {
		t.Errorf("Unexpected segment: %+v", segs[1])
	}
	if segs[3].Key != "srvcStart" || segs[3].HasIndex {
		t.Errorf("Unexpected segment: %+v", segs[3])
	}
}

func TestParsePath_Malformed(t *testing.T) {
	for _, path := range []string{"", "a..b", "a[", "a[x]", "[0]", "a[-1]"} {
		if _, err := ParsePath(path); err == nil {
			t.Errorf("Expected error for path %q", path)
		}
	}
}

func TestResolve_NestedAndIndexed(t *testing.T) {
	doc := testDoc(t, `{
		"medHistory": {
			"claims": [
				{"lines": [{"srvcStart": "2024-03-01"}, {"srvcStart": "2024-03-05"}]}
			]
		}
	}`)

	v, ok := Resolve(doc, "medHistory.claims[0].lines[1].srvcStart")
	if !ok {
		t.Fatal("Expected path to resolve")
	}
	if v != "2024-03-05" {
		t.Errorf("Expected 2024-03-05, got %v", v)
	}
}

func TestResolve_MissingNeverFails(t *testing.T) {
	doc := testDoc(t, `{"a": {"b": null}, "s": "str", "arr": [1, 2]}`)

	for _, path := range []string{
		"missing",
		"a.missing",
		"a.b.c",      // nil intermediate
		"s.field",    // scalar intermediate
		"arr[5]",     // out of range
		"a[0]",       // index into a non-array
		"bad..path",  // malformed
	} {
		if _, ok := Resolve(doc, path); ok {
			t.Errorf("Expected path %q not to resolve", path)
		}
	}
}

func TestResolveDefault(t *testing.T) {
	doc := testDoc(t, `{"id": "rx1"}`)
	if got := ResolveDefault(doc, "id", "fallback"); got != "rx1" {
		t.Errorf("Expected rx1, got %v", got)
	}
	if got := ResolveDefault(doc, "nope", "fallback"); got != "fallback" {
		t.Errorf("Expected fallback, got %v", got)
	}
}

func TestResolveString_Scalars(t *testing.T) {
	doc := testDoc(t, `{"n": 30, "f": 1.5, "b": true, "s": " padded ", "o": {}}`)

	cases := map[string]string{
		"n": "30",
		"f": "1.5",
		"b": "true",
		"s": "padded",
		"o": "",
	}
	for path, want := range cases {
		if got := ResolveString(doc, path); got != want {
			t.Errorf("ResolveString(%q) = %q, want %q", path, got, want)
		}
	}
}
