// Package arena implements the compiler's linear-memory arena: a single
// contiguous, bump-allocated region that owns module source bytes, the
// diagnostic/output buffer, and every name interned out of source text.
//
// This mirrors the "fixed-layout arena" contract in spec.md §3/§4.1/§6: all
// later components reference arena contents by integer offset, never by
// pointer, so the arena can be hosted by anything that can read linear
// memory (including, eventually, a self-hosted WebAssembly build of this
// compiler).
package arena

import (
	"fmt"

	"github.com/edsrzf/mmap-go"
)

// Default capacity for a compiler instance's backing memory. Chosen well
// above the module/function/type/expression capacities in spec.md §3 so
// that exhaustion is reached at one of those named sub-region limits
// first, not by running out of raw bytes.
const DefaultCapacity = 64 * 1024 * 1024

// Arena owns a single bump-allocated linear memory region. It is not safe
// for concurrent use — spec.md §5 specifies a single-threaded, synchronous
// core, and the arena is the one piece of shared state a compile touches.
type Arena struct {
	mem  mmap.MMap
	raw  []byte // nil when backed by mem; used for testing-friendly fallback
	top  int
	name string // diagnostic label, e.g. "module-storage" or "output"
}

// New allocates an anonymous, zero-filled region of the given capacity.
func New(capacity int, name string) (*Arena, error) {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	m, err := mmap.MapRegion(nil, capacity, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		// mmap is unavailable on some hosts (e.g. certain sandboxes); fall
		// back to a plain heap slice so the compiler still functions. The
		// arena's bump-allocation discipline is identical either way.
		return &Arena{raw: make([]byte, capacity), name: name}, nil
	}
	return &Arena{mem: m, name: name}, nil
}

func (a *Arena) bytes() []byte {
	if a.mem != nil {
		return a.mem
	}
	return a.raw
}

// Cap returns the arena's total capacity in bytes.
func (a *Arena) Cap() int { return len(a.bytes()) }

// Top returns the current bump-allocation offset (the "storage top" of
// spec.md §3).
func (a *Arena) Top() int { return a.top }

// Allocate reserves n bytes at the current top and returns the offset they
// start at. Returns ok=false (a "sentinel negative index" per spec.md
// §4.1) when the allocation would exceed capacity.
func (a *Arena) Allocate(n int) (offset int, ok bool) {
	if n < 0 {
		return 0, false
	}
	buf := a.bytes()
	if a.top+n > len(buf) {
		return 0, false
	}
	offset = a.top
	a.top += n
	return offset, true
}

// Write copies b into a freshly bumped region and returns its offset.
func (a *Arena) Write(b []byte) (offset int, ok bool) {
	offset, ok = a.Allocate(len(b))
	if !ok {
		return 0, false
	}
	copy(a.bytes()[offset:offset+len(b)], b)
	return offset, true
}

// Slice returns a view into the arena at [offset, offset+length). Panics on
// out-of-range access the way a direct linear-memory read would trap — all
// callers are expected to have validated offsets against Top() already.
func (a *Arena) Slice(offset, length int) []byte {
	buf := a.bytes()
	if offset < 0 || length < 0 || offset+length > len(buf) {
		panic(fmt.Sprintf("arena %s: out-of-range slice [%d:%d) (cap=%d)", a.name, offset, offset+length, len(buf)))
	}
	return buf[offset : offset+length]
}

// Reset zeroes the bump offset without releasing the backing memory,
// matching spec.md §4.1 reset_output: sub-arena counters are cleared but
// the memory itself (and, at a higher level, the module registry) is left
// intact for reuse across compiles.
func (a *Arena) Reset() { a.top = 0 }

// InternName copies the bytes of s into the arena's string pool and
// returns a stable (offset, length) reference. Content equality, not
// identity, is how callers compare names (spec.md §4.1).
func (a *Arena) InternName(s string) (offset, length int, ok bool) {
	offset, ok = a.Write([]byte(s))
	return offset, len(s), ok
}

// String reads back an interned name.
func (a *Arena) String(offset, length int) string {
	return string(a.Slice(offset, length))
}
