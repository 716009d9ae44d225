package main

import (
	"net/url"
	"testing"
)

func TestQueryToBindingsSingleValue(t *testing.T) {
	values := url.Values{"name": {"world"}}
	bindings := queryToBindings(values)

	if got := bindings["name"].String(); got != "world" {
		t.Errorf("name = %q, want %q", got, "world")
	}
}

func TestQueryToBindingsRepeatedKeyBecomesList(t *testing.T) {
	values := url.Values{"tag": {"a", "b", "c"}}
	bindings := queryToBindings(values)

	if got := bindings["tag"].String(); got != "a, b, c" {
		t.Errorf("tag = %q, want %q", got, "a, b, c")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{
		"debug": "DEBUG",
		"warn":  "WARN",
		"error": "ERROR",
		"info":  "INFO",
		"":      "INFO",
	}
	for in, want := range cases {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q).String() = %q, want %q", in, got, want)
		}
	}
}
