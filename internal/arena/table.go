package arena

import "fmt"

// Table is a fixed-capacity, append-only arena table. The type tables
// (arrays, tuples, structs, function signatures) are Tables; the function,
// constant, expression and call-metadata tables in internal/ast are their
// own types. Entities reference each other by Index, never by pointer,
// per spec.md §3 "Ownership".
type Table[T any] struct {
	name     string
	capacity int
	entries  []T
}

// NewTable creates an empty table with the given fixed capacity. Exceeding
// capacity is always a fatal per-compile error (spec.md §3 "Arena
// regions").
func NewTable[T any](name string, capacity int) *Table[T] {
	return &Table[T]{name: name, capacity: capacity, entries: make([]T, 0, capacity)}
}

// Len returns the number of entries currently stored.
func (t *Table[T]) Len() int { return len(t.entries) }

// Cap returns the table's fixed capacity.
func (t *Table[T]) Cap() int { return t.capacity }

// Name identifies the sub-arena for diagnostics, e.g. "function table".
func (t *Table[T]) Name() string { return t.name }

// Append adds v and returns its index, or ok=false if the table is full.
func (t *Table[T]) Append(v T) (index uint32, ok bool) {
	if len(t.entries) >= t.capacity {
		return 0, false
	}
	t.entries = append(t.entries, v)
	return uint32(len(t.entries) - 1), true
}

// Get returns the entry at index. Panics on an out-of-range index: callers
// only ever hold indices this table itself produced.
func (t *Table[T]) Get(index uint32) T {
	if int(index) >= len(t.entries) {
		panic(fmt.Sprintf("%s: index %d out of range (len=%d)", t.name, index, len(t.entries)))
	}
	return t.entries[index]
}

// Set overwrites an existing entry in place (used by the specializer to
// patch a clone after its body has been substituted).
func (t *Table[T]) Set(index uint32, v T) {
	if int(index) >= len(t.entries) {
		panic(fmt.Sprintf("%s: index %d out of range (len=%d)", t.name, index, len(t.entries)))
	}
	t.entries[index] = v
}

// All returns a read-only view of every stored entry, in index order.
func (t *Table[T]) All() []T { return t.entries }

// Reset empties the table while keeping its capacity, for reuse across
// compiles (spec.md §4.1 reset_output).
func (t *Table[T]) Reset() { t.entries = t.entries[:0] }
