package idgen

import (
	"testing"
)

func TestGenerateIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := GenerateID()
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestInitializeRejectsBadNode(t *testing.T) {
	if err := Initialize(5000); err == nil {
		t.Error("expected error for node id out of range")
	}
	if err := Initialize(7); err != nil {
		t.Errorf("Initialize(7) error = %v", err)
	}
	if RequestID() == "" {
		t.Error("expected non-empty request id")
	}
}
