package logger

import (
	"testing"
	"time"
)

func TestBuildAndCompactRID(t *testing.T) {
	rid := BuildRID(42, 100, 7)
	if rid != "42:100:7" {
		t.Fatalf("rid = %s", rid)
	}
	if got := CompactRID(rid); got != "42:7" {
		t.Fatalf("compact rid = %s", got)
	}
	if got := CompactRID("weird"); got != "weird" {
		t.Fatalf("compact passthrough = %s", got)
	}
}

func TestContextMeta(t *testing.T) {
	ctx := WithRID(Background(), "rid-1")
	ctx = WithUpdateMeta(ctx, 9, 7, 100)

	if got := RIDFrom(ctx); got != "rid-1" {
		t.Fatalf("rid = %s", got)
	}
	if got := UpdateIDFrom(ctx); got != 9 {
		t.Fatalf("update id = %d", got)
	}
	if got := UserIDFrom(ctx); got != 7 {
		t.Fatalf("user id = %d", got)
	}
	if got := ChatIDFrom(ctx); got != 100 {
		t.Fatalf("chat id = %d", got)
	}
}

func TestSanitizeLimit(t *testing.T) {
	if got := SanitizeLimit("a\nb\tc", 0); got != "a b c" {
		t.Fatalf("sanitized = %q", got)
	}
	if got := SanitizeLimit("abcdef", 3); got != "abc" {
		t.Fatalf("limited = %q", got)
	}
}

func TestSummarizeStrings(t *testing.T) {
	preview, truncated := SummarizeStrings([]string{"a", "b", "c"}, 2)
	if preview != "a,b" || !truncated {
		t.Fatalf("preview = %q truncated = %v", preview, truncated)
	}
	preview, truncated = SummarizeStrings(nil, 2)
	if preview != "" || truncated {
		t.Fatalf("empty preview = %q truncated = %v", preview, truncated)
	}
}

func TestRoundMS(t *testing.T) {
	if got := RoundMS(1501 * time.Microsecond); got != 2*time.Millisecond {
		t.Fatalf("rounded = %v", got)
	}
}
