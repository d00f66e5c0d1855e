package dispatch

import (
	"testing"

	"motiond/internal/event"
)

func TestDispatchRunsHandlersInRegistrationOrder(t *testing.T) {
	var order []string
	b := NewBuilder()
	b.Register(event.FileCreate, "first", func(event.Call) { order = append(order, "first") })
	b.Register(event.FileCreate, "second", func(event.Call) { order = append(order, "second") })
	b.Register(event.FileCreate, "third", func(event.Call) { order = append(order, "third") })
	d := b.Build()

	d.Dispatch(event.Call{Kind: event.FileCreate})

	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("got %v, want %v", order, want)
		}
	}
}

func TestDispatchOnlyRunsHandlersForMatchingKind(t *testing.T) {
	called := false
	b := NewBuilder()
	b.Register(event.FirstMotion, "only-first-motion", func(event.Call) { called = true })
	d := b.Build()

	d.Dispatch(event.Call{Kind: event.EndMotion})
	if called {
		t.Fatal("handler registered for FirstMotion ran on EndMotion")
	}

	d.Dispatch(event.Call{Kind: event.FirstMotion})
	if !called {
		t.Fatal("handler registered for FirstMotion did not run on FirstMotion")
	}
}

func TestHandlerNamesReflectsRegistrationOrder(t *testing.T) {
	b := NewBuilder()
	b.Register(event.FileCreate, "a", func(event.Call) {})
	b.Register(event.FileCreate, "b", func(event.Call) {})
	d := b.Build()

	got := d.HandlerNames(event.FileCreate)
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("HandlerNames = %v, want [a b]", got)
	}
}

func TestHandlerNamesEmptyForUnregisteredKind(t *testing.T) {
	d := NewBuilder().Build()
	if got := d.HandlerNames(event.Stop); len(got) != 0 {
		t.Fatalf("HandlerNames = %v, want empty", got)
	}
}
