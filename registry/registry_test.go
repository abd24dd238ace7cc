package registry

import (
	"testing"

	"github.com/fieldOfView/zocp-go/capability"
)

func TestOnEnterCreatesEmptyMirror(t *testing.T) {
	r := New()
	r.OnEnter("peer1")

	cap, ok := r.Get("peer1")
	if !ok {
		t.Fatal("expected peer1 to be registered")
	}
	if len(cap) != 0 {
		t.Fatalf("expected empty mirror, got %#v", cap)
	}
}

func TestApplyPeerUpdateMerges(t *testing.T) {
	r := New()
	r.OnEnter("peer1")
	r.ApplyPeerUpdate("peer1", capability.Node{"A": capability.Node{"value": 1, "typeHint": "int", "access": "r"}})

	cap, _ := r.Get("peer1")
	if cap["A"].(capability.Node)["value"] != 1 {
		t.Fatalf("unexpected mirror: %#v", cap)
	}
}

func TestOnExitRemovesPeer(t *testing.T) {
	r := New()
	r.OnEnter("peer1")
	r.OnExit("peer1")

	if _, ok := r.Get("peer1"); ok {
		t.Fatal("expected peer1 to be gone after exit")
	}
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d entries", r.Len())
	}
}
