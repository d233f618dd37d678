package envutil

import (
	"testing"
	"time"
)

func TestIntFallsBackOnGarbage(t *testing.T) {
	t.Setenv("ENVUTIL_INT", "abc")
	if got := Int("ENVUTIL_INT", 7); got != 7 {
		t.Fatalf("Int: want=7 got=%d", got)
	}
	t.Setenv("ENVUTIL_INT", " 12 ")
	if got := Int("ENVUTIL_INT", 7); got != 12 {
		t.Fatalf("Int: want=12 got=%d", got)
	}
}

func TestBool(t *testing.T) {
	cases := map[string]bool{"on": true, "TRUE": true, "0": false, "off": false}
	for raw, want := range cases {
		t.Setenv("ENVUTIL_BOOL", raw)
		if got := Bool("ENVUTIL_BOOL", !want); got != want {
			t.Fatalf("Bool(%q): want=%v got=%v", raw, want, got)
		}
	}
	t.Setenv("ENVUTIL_BOOL", "maybe")
	if got := Bool("ENVUTIL_BOOL", true); !got {
		t.Fatalf("Bool(maybe): want default true")
	}
}

func TestDuration(t *testing.T) {
	t.Setenv("ENVUTIL_DUR", "45")
	if got := Duration("ENVUTIL_DUR", time.Second); got != 45*time.Second {
		t.Fatalf("Duration(45): got=%s", got)
	}
	t.Setenv("ENVUTIL_DUR", "1m30s")
	if got := Duration("ENVUTIL_DUR", time.Second); got != 90*time.Second {
		t.Fatalf("Duration(1m30s): got=%s", got)
	}
}

func TestFloat64(t *testing.T) {
	t.Setenv("ENVUTIL_FLOAT", "0.25")
	if got := Float64("ENVUTIL_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float64: want=0.25 got=%v", got)
	}
	t.Setenv("ENVUTIL_FLOAT", "lots")
	if got := Float64("ENVUTIL_FLOAT", 1); got != 1 {
		t.Fatalf("Float64: want default 1 got=%v", got)
	}
}
