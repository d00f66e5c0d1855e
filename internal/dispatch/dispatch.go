// Package dispatch implements the event dispatcher (C5): a static,
// ordered table mapping each event kind to the handlers that must run for
// it, in the exact order spec §6 requires. Dispatch is synchronous and
// single-threaded per camera; ordering across handlers within one call is
// part of the observable contract (e.g. the SQL binder always runs before
// the user shell hook on FileCreate).
package dispatch

import "motiond/internal/event"

// HandlerFunc is a side-effecting leaf invoked once per matching EventCall.
// Handlers must not block for more than a few milliseconds; long-running
// work (shell commands, encoding) is made asynchronous inside the handler
// itself.
type HandlerFunc func(event.Call)

// entry pairs a handler with the name it is registered under, purely for
// diagnostics (SIGUSR1 state dump, logging).
type entry struct {
	name string
	fn   HandlerFunc
}

// Dispatcher holds the static per-kind handler lists. It is built once at
// camera-construction time via Builder and never mutated afterward, so
// Dispatch needs no lock.
type Dispatcher struct {
	table map[event.Kind][]entry
}

// Builder accumulates handler registrations in the order Register is
// called, then Build freezes them into a Dispatcher. This mirrors the
// teacher's convention of assembling config in a builder before handing
// over an immutable runtime object.
type Builder struct {
	table map[event.Kind][]entry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{table: make(map[event.Kind][]entry)}
}

// Register appends fn to kind's handler list, under name, preserving call
// order. Calling Register repeatedly for the same kind in the order given
// by spec §6's table reproduces the required dispatch order exactly.
func (b *Builder) Register(kind event.Kind, name string, fn HandlerFunc) *Builder {
	b.table[kind] = append(b.table[kind], entry{name: name, fn: fn})
	return b
}

// Build freezes the builder into a Dispatcher.
func (b *Builder) Build() *Dispatcher {
	return &Dispatcher{table: b.table}
}

// Dispatch invokes, in registration order, every handler registered for
// call.Kind. A handler is never skipped because an earlier one panics to
// recover(); panics propagate, since a misbehaving handler indicates a
// programming error rather than a runtime condition to absorb.
func (d *Dispatcher) Dispatch(call event.Call) {
	for _, e := range d.table[call.Kind] {
		e.fn(call)
	}
}

// HandlerNames returns the registered handler names for kind, in dispatch
// order. Used by the SIGUSR1 state dump and by tests asserting order.
func (d *Dispatcher) HandlerNames(kind event.Kind) []string {
	entries := d.table[kind]
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.name
	}
	return names
}
