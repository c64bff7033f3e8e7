package config

import "testing"

func TestInt(t *testing.T) {
	t.Setenv("CFG_INT", "42")
	if got := Int("CFG_INT", 7); got != 42 {
		t.Fatalf("expected 42, got %d", got)
	}
	if got := Int("CFG_INT_UNSET", 7); got != 7 {
		t.Fatalf("expected fallback 7, got %d", got)
	}
	t.Setenv("CFG_INT_BAD", "not-a-number")
	if got := Int("CFG_INT_BAD", 7); got != 7 {
		t.Fatalf("expected fallback on junk value, got %d", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("CFG_BOOL_OFF", "false")
	if Bool("CFG_BOOL_OFF", true) {
		t.Fatal("expected false for \"false\"")
	}
	t.Setenv("CFG_BOOL_ZERO", "0")
	if Bool("CFG_BOOL_ZERO", true) {
		t.Fatal("expected false for \"0\"")
	}
	t.Setenv("CFG_BOOL_ON", "true")
	if !Bool("CFG_BOOL_ON", false) {
		t.Fatal("expected true for \"true\"")
	}
	if !Bool("CFG_BOOL_UNSET", true) {
		t.Fatal("expected fallback when unset")
	}
}

func TestPort(t *testing.T) {
	t.Setenv("CFG_PORT", "8084")
	p, err := Port("CFG_PORT", "8080")
	if err != nil || p != "8084" {
		t.Fatalf("expected 8084, got %q (err %v)", p, err)
	}
	t.Setenv("CFG_PORT_BAD", "eighty")
	if _, err := Port("CFG_PORT_BAD", "8080"); err == nil {
		t.Fatal("expected error for non-numeric port")
	}
}
