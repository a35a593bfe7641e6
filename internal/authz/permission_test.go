package authz

import (
	"testing"
)

func TestParse(t *testing.T) {
	p, err := Parse("edit_task")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p != PermEditTask {
		t.Errorf("Parse() = %q, expected %q", p, PermEditTask)
	}

	if _, err := Parse("launch_missiles"); err == nil {
		t.Error("Parse() should reject unknown tokens")
	}
	if _, err := Parse(""); err == nil {
		t.Error("Parse() should reject empty token")
	}
}

func TestParse_TrimsWhitespace(t *testing.T) {
	p, err := Parse("  view_tasks ")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p != PermViewTasks {
		t.Errorf("Parse() = %q, expected %q", p, PermViewTasks)
	}
}

func TestParseList(t *testing.T) {
	set, err := ParseList([]string{"create_task", "view_tasks"})
	if err != nil {
		t.Fatalf("ParseList() error = %v", err)
	}
	if !set.Has(PermCreateTask) || !set.Has(PermViewTasks) {
		t.Errorf("ParseList() missing tokens: %v", set.Strings())
	}

	if _, err := ParseList([]string{"view_tasks", "bogus"}); err == nil {
		t.Error("ParseList() should reject a list containing an unknown token")
	}
}

func TestSetEncodeDecode(t *testing.T) {
	set := NewSet(PermViewTasks, PermCreateTask, PermComment)

	decoded, err := DecodeSet(set.Encode())
	if err != nil {
		t.Fatalf("DecodeSet() error = %v", err)
	}
	if len(decoded) != 3 {
		t.Errorf("decoded set has %d tokens, expected 3", len(decoded))
	}
	for p := range set {
		if !decoded.Has(p) {
			t.Errorf("decoded set missing %q", p)
		}
	}
}

func TestDecodeSet_Empty(t *testing.T) {
	set, err := DecodeSet("")
	if err != nil {
		t.Fatalf("DecodeSet(\"\") error = %v", err)
	}
	if len(set) != 0 {
		t.Errorf("expected empty set, got %v", set.Strings())
	}
}

func TestDecodeSet_CorruptedRow(t *testing.T) {
	if _, err := DecodeSet("view_tasks,not_a_permission"); err == nil {
		t.Error("DecodeSet() should surface unknown tokens as errors")
	}
}

func TestSetEncode_Deterministic(t *testing.T) {
	a := NewSet(PermViewTasks, PermCreateTask).Encode()
	b := NewSet(PermCreateTask, PermViewTasks).Encode()
	if a != b {
		t.Errorf("Encode() not deterministic: %q vs %q", a, b)
	}
}

func TestAllTokensValid(t *testing.T) {
	for _, p := range All() {
		if !p.Valid() {
			t.Errorf("permission %q should be valid", p)
		}
	}
}
