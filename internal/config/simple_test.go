package config

import (
	"os"
	"strings"
	"testing"
)

func writeToString(t *testing.T, s *Simple) string {
	var b strings.Builder
	if !s.Write(&b) {
		t.Fatalf("Write failed")
	}
	return b.String()
}

// Property 1 (spec §8): write(parse(input)) preserves every variable's
// value and section membership, plus comment/blank line order.
func TestRoundTrip(t *testing.T) {
	input := "# header comment\n" +
		"\n" +
		"globalvar = 1\n" +
		"\n" +
		"[sec one]\n" +
		"# a comment about foo\n" +
		"foo = bar\n" +
		"baz = qux\n"

	s := NewFromString(input, FlagNone)
	if !s.OK() {
		t.Fatal("parse failed")
	}
	if v, ok := s.Get("globalvar", ""); !ok || v != "1" {
		t.Fatalf("globalvar = %q, %v", v, ok)
	}
	if v, ok := s.Get("foo", "sec one"); !ok || v != "bar" {
		t.Fatalf("foo = %q, %v", v, ok)
	}

	out := writeToString(t, s)
	s2 := NewFromString(out, FlagNone)
	if v, ok := s2.Get("globalvar", ""); !ok || v != "1" {
		t.Fatalf("round trip globalvar = %q, %v", v, ok)
	}
	if v, ok := s2.Get("foo", "sec one"); !ok || v != "bar" {
		t.Fatalf("round trip foo = %q, %v", v, ok)
	}
	if v, ok := s2.Get("baz", "sec one"); !ok || v != "qux" {
		t.Fatalf("round trip baz = %q, %v", v, ok)
	}
}

// set(k,v); write preserves all other lines' order, and a set on an
// existing key does not move it or disturb surrounding comments.
func TestSetPreservesOrder(t *testing.T) {
	input := "a = 1\nb = 2\nc = 3\n"
	s := NewFromString(input, FlagNone)
	s.Set("b", "22", "")
	out := writeToString(t, s)
	wantOrder := []string{"a = 1", "b = 22", "c = 3"}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(wantOrder) {
		t.Fatalf("got lines %v, want %v", lines, wantOrder)
	}
	for i, w := range wantOrder {
		if lines[i] != w {
			t.Fatalf("line %d = %q, want %q", i, lines[i], w)
		}
	}
}

// A new key appended right after its var-comment, else at section end.
func TestSetAfterVarComment(t *testing.T) {
	input := "# myvar = default explanation\na = 1\n"
	s := NewFromString(input, FlagNone)
	s.Set("myvar", "5", "")
	out := writeToString(t, s)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if lines[0] != "# myvar = default explanation" || lines[1] != "myvar = 5" {
		t.Fatalf("unexpected layout: %v", lines)
	}
}

func TestEraseKeepsPlacement(t *testing.T) {
	s := NewFromString("a = 1\nb = 2\n", FlagNone)
	s.Erase("a", "")
	if _, ok := s.Get("a", ""); ok {
		t.Fatal("a should be gone")
	}
	s.Set("a", "1", "")
	out := writeToString(t, s)
	if strings.Index(out, "a = 1") > strings.Index(out, "b = 2") {
		t.Fatalf("re-added key should regenerate its original placement: %q", out)
	}
}

// Property 2: hierarchical inheritance via Tree.
func TestTreeInheritance(t *testing.T) {
	data := "[/]\nx = root\n\n[/a]\nx = a\n\n[/a/b]\ny = ab\n"
	tr := NewTreeFromString(data, FlagNone)
	if v, ok := tr.Get("x", "/a/b/c"); !ok || v != "a" {
		t.Fatalf("expected inherited x=a, got %q, %v", v, ok)
	}
	if v, ok := tr.Get("y", "/a/b/c"); !ok || v != "ab" {
		t.Fatalf("expected y=ab, got %q, %v", v, ok)
	}
	if _, ok := tr.Get("nope", "/a/b/c"); ok {
		t.Fatal("unexpected hit for undefined name")
	}
}

// Property 3: stack override collapse.
func TestStackCollapse(t *testing.T) {
	dir := t.TempDir()
	lower := dir + "/lower.conf"
	upper := dir + "/upper.conf"
	if err := os.WriteFile(lower, []byte("k = fromlower\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(upper, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	st := NewStack(FlagNone, []string{upper, lower})
	if !st.OK() {
		t.Fatal("stack should be ok")
	}
	st.Set("k", "fromlower", "")
	if _, ok := st.layers[0].Get("k", ""); ok {
		t.Fatal("top layer should not carry a redundant override")
	}
	st.Set("k", "different", "")
	if v, ok := st.layers[0].Get("k", ""); !ok || v != "different" {
		t.Fatalf("top layer should carry a differing override, got %q %v", v, ok)
	}
	if v, ok := st.Get("k", ""); !ok || v != "different" {
		t.Fatalf("stack get should see the override, got %q %v", v, ok)
	}
}
