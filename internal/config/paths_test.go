package config

import (
	"reflect"
	"testing"
)

func testDoc() map[string]any {
	return map[string]any{
		"options": map[string]any{
			"max_results": 0,
			"headless":    false,
			"user_agent":  "",
		},
		"payload": map[string]any{
			"target_folder": "/tmp/runs",
		},
		"log_levels": []any{"info", "warning"},
	}
}

func TestDotexpandAlternatives(t *testing.T) {
	got := Dotexpand("a.b, c.d")
	want := []string{"a.b", "c.d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDotexpandColonVariants(t *testing.T) {
	got := Dotexpand("options:max_results")
	want := []string{"options.max_results", "options_max_results"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestDotgetSeparatorEquivalence(t *testing.T) {
	data := testDoc()
	for _, path := range []string{"payload.target_folder", "payload:target_folder"} {
		v, ok := Dotget(data, path)
		if !ok {
			t.Fatalf("path %q not found", path)
		}
		if v != "/tmp/runs" {
			t.Errorf("path %q: expected /tmp/runs, got %v", path, v)
		}
	}
}

func TestDotgetFalsyIsPresent(t *testing.T) {
	data := testDoc()
	cases := map[string]any{
		"options.max_results": 0,
		"options.headless":    false,
		"options.user_agent":  "",
	}
	for path, want := range cases {
		v, ok := Dotget(data, path)
		if !ok {
			t.Fatalf("falsy value at %q reported missing", path)
		}
		if v != want {
			t.Errorf("path %q: expected %v, got %v", path, want, v)
		}
	}
}

func TestDotgetFirstAlternativeWins(t *testing.T) {
	data := testDoc()
	v, ok := Dotget(data, "nope.missing, payload.target_folder")
	if !ok || v != "/tmp/runs" {
		t.Errorf("expected fallthrough to second alternative, got %v (ok=%t)", v, ok)
	}
}

func TestResolvePathDefault(t *testing.T) {
	data := testDoc()
	if v := ResolvePath(data, "nope.missing", "fallback"); v != "fallback" {
		t.Errorf("expected default, got %v", v)
	}
	// A present falsy value beats the default.
	if v := ResolvePath(data, "options.max_results", 42); v != 0 {
		t.Errorf("expected present 0 over default, got %v", v)
	}
}

func TestPathExists(t *testing.T) {
	data := testDoc()
	if !PathExists(data, "options.headless") {
		t.Error("present falsy key reported missing")
	}
	if PathExists(data, "options.nope") {
		t.Error("absent key reported present")
	}
}

func TestDotsetCreatesIntermediates(t *testing.T) {
	data := map[string]any{}
	Dotset(data, "a.b.c", 7)
	if v, ok := Dotget(data, "a.b.c"); !ok || v != 7 {
		t.Errorf("expected 7 at a.b.c, got %v (ok=%t)", v, ok)
	}
}

func TestEnvOverlay(t *testing.T) {
	t.Setenv("AMZTEST_OPTIONS_HEADLESS", "false")
	t.Setenv("OTHER_OPTIONS_HEADLESS", "true")

	data := map[string]any{}
	EnvOverlay("AMZTEST", data)

	// The overlaid key stays flat; the ':' separator's underscore
	// variant reaches it.
	v, ok := Dotget(data, "options:headless")
	if !ok {
		t.Fatal("overlaid key not reachable via ':' separator")
	}
	if v != "false" {
		t.Errorf("expected raw env value, got %v", v)
	}
	if PathExists(data, "options_headless") != true {
		t.Error("flat underscore key missing")
	}
	if PathExists(data, "options.headless") {
		t.Error("foreign-prefix variable leaked into the document")
	}
}
