package util

import (
	"strings"
	"testing"
)

func TestTruncateLog(t *testing.T) {
	short := "hello"
	if got := TruncateLog(short, 10); got != short {
		t.Fatalf("expected unchanged string, got %q", got)
	}

	long := strings.Repeat("x", 100)
	got := TruncateLog(long, 10)
	if !strings.HasPrefix(got, "xxxxxxxxxx...") {
		t.Fatalf("expected truncated prefix, got %q", got)
	}
	if !strings.Contains(got, "100 bytes total") {
		t.Fatalf("expected byte count annotation, got %q", got)
	}
}

func TestClip(t *testing.T) {
	if got := Clip("abcdef", 3); got != "abc" {
		t.Fatalf("expected abc, got %q", got)
	}
	if got := Clip("abc", 10); got != "abc" {
		t.Fatalf("expected unchanged string, got %q", got)
	}
	if got := Clip("abc", 0); got != "abc" {
		t.Fatalf("expected zero max to mean no limit, got %q", got)
	}
}
