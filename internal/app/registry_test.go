package app

import (
	"testing"

	"coedit/server/internal/core"
)

func TestRegistryUnbindIsExactlyOnce(t *testing.T) {
	r := NewRegistry()
	sess := core.NewSession("c-1", &fakeConn{})
	r.Bind("c-1", sess, nil)
	r.AddRoom("c-1", "R1")
	r.AddRoom("c-1", "R2")
	r.AddRoom("c-1", "R2") // idempotent

	got, rooms, ok := r.Unbind("c-1")
	if !ok || got != sess {
		t.Fatalf("unbind: ok=%v", ok)
	}
	if len(rooms) != 2 {
		t.Fatalf("rooms = %v, want 2", rooms)
	}

	if _, _, ok := r.Unbind("c-1"); ok {
		t.Fatalf("second unbind succeeded")
	}
	if r.Len() != 0 {
		t.Fatalf("registry not empty: %d", r.Len())
	}
}

func TestRegistryRoomsUnknownSession(t *testing.T) {
	r := NewRegistry()
	if rooms := r.Rooms("nope"); rooms != nil {
		t.Fatalf("rooms for unknown sid = %v", rooms)
	}
	if r.AddRoom("nope", "R1") {
		t.Fatalf("AddRoom succeeded for unknown sid")
	}
}

func TestRegistryCancel(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Bind("c-1", core.NewSession("c-1", &fakeConn{}), func() { called = true })

	if !r.Cancel("c-1") {
		t.Fatalf("cancel reported unknown sid")
	}
	if !called {
		t.Fatalf("cancel func not invoked")
	}
	if r.Cancel("ghost") {
		t.Fatalf("cancel succeeded for unknown sid")
	}
}
