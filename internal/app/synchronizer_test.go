package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"coedit/server/internal/domain"
)

func TestApplyEditMissingRoom(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.connect("c-1")
	err := f.orch.Sync.ApplyEdit(ctx, "c-1", "ghost", "x = 1")
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("err = %v, want ErrRoomNotFound", err)
	}

	// The edit must not create the room.
	if _, err := f.store.FindByID(ctx, "ghost"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("edit created a room")
	}
}

func TestApplyEditExcludesOriginator(t *testing.T) {
	f := newFixture()
	f.store.addRoom("R1")
	ctx := context.Background()

	author := f.connect("c-author")
	reader := f.connect("c-reader")
	if err := f.orch.OnJoin(ctx, "c-author", "R1", ident("author")); err != nil {
		t.Fatal(err)
	}
	if err := f.orch.OnJoin(ctx, "c-reader", "R1", ident("reader")); err != nil {
		t.Fatal(err)
	}

	if err := f.orch.Sync.ApplyEdit(ctx, "c-author", "R1", "fmt.Println(42)"); err != nil {
		t.Fatalf("apply edit: %v", err)
	}

	if got := author.countType(t, EventCodeChange); got != 0 {
		t.Fatalf("author received echo, count = %d", got)
	}
	if got := reader.countType(t, EventCodeChange); got != 1 {
		t.Fatalf("reader CODE_CHANGE = %d, want 1", got)
	}

	room, _ := f.store.FindByID(ctx, "R1")
	if room.Code != "fmt.Println(42)" {
		t.Fatalf("persisted code = %q", room.Code)
	}
	if room.LastModified.IsZero() {
		t.Fatalf("last modified not set")
	}
}

func TestConcurrentEditsLastWriteWins(t *testing.T) {
	f := newFixture()
	f.store.addRoom("R1")
	ctx := context.Background()

	const n = 16
	texts := make(map[string]bool, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		text := fmt.Sprintf("document revision %d", i)
		texts[text] = true
		wg.Add(1)
		go func(text string) {
			defer wg.Done()
			if err := f.orch.Sync.ApplyEdit(ctx, "c-x", "R1", text); err != nil {
				t.Errorf("apply edit: %v", err)
			}
		}(text)
	}
	wg.Wait()

	room, err := f.store.FindByID(ctx, "R1")
	if err != nil {
		t.Fatal(err)
	}
	// Whole-document overwrite: the winner is one submitted text, never
	// a merge.
	if !texts[room.Code] {
		t.Fatalf("persisted code %q is not one of the submitted texts", room.Code)
	}
}

func TestResyncDeliversOnlyToTarget(t *testing.T) {
	f := newFixture()
	f.store.addRoom("R1")
	ctx := context.Background()

	target := f.connect("c-target")
	other := f.connect("c-other")
	if err := f.orch.OnJoin(ctx, "c-target", "R1", ident("target")); err != nil {
		t.Fatal(err)
	}
	if err := f.orch.OnJoin(ctx, "c-other", "R1", ident("other")); err != nil {
		t.Fatal(err)
	}

	sess, ok := f.orch.Registry.Session("c-target")
	if !ok {
		t.Fatal("target session missing")
	}
	if err := f.orch.Sync.Resync(sess, "current text"); err != nil {
		t.Fatalf("resync: %v", err)
	}

	if got := target.countType(t, EventCodeChange); got != 1 {
		t.Fatalf("target CODE_CHANGE = %d, want 1", got)
	}
	if got := other.countType(t, EventCodeChange); got != 0 {
		t.Fatalf("resync leaked to other session")
	}
}

func TestCurrentCodeFallsBackToStore(t *testing.T) {
	f := newFixture()
	f.store.addRoom("R1")
	ctx := context.Background()

	if err := f.store.UpdateCode(ctx, "R1", "stored text", f.orch.Reconciler.now()); err != nil {
		t.Fatal(err)
	}

	code, err := f.orch.Sync.CurrentCode(ctx, "R1")
	if err != nil {
		t.Fatalf("current code: %v", err)
	}
	if code != "stored text" {
		t.Fatalf("code = %q", code)
	}

	if _, err := f.orch.Sync.CurrentCode(ctx, "ghost"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("missing room err = %v", err)
	}
}
