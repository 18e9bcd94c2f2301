package cbor

// StringAllocator supplies the memory used to reassemble indefinite-length
// strings. It is a capability handed to the decoder, not a global.
//
// Allocate follows a realloc-style contract:
//   - old == nil, size > 0: fresh allocation of size bytes.
//   - size == 0: frees old (old may be nil); returns nil, nil.
//   - old != nil, size > 0: grow old in place to size bytes; may fail
//     even when a fresh allocation of that size would have succeeded.
//
// Returned slices must have len == size.
type StringAllocator interface {
	Allocate(old []byte, size int) ([]byte, error)
}

// MinPoolSize is the smallest buffer a BumpPool accepts. Anything smaller
// cannot hold the pool bookkeeping plus a useful string.
const MinPoolSize = 72

// BumpPool is a StringAllocator over a fixed caller-provided buffer. It
// hands out consecutive regions and can grow or free only the most recent
// allocation, which is exactly the pattern the chunk-reassembly loop
// produces.
type BumpPool struct {
	buf       []byte
	used      int
	lastStart int // start of the most recent allocation, -1 if none
}

// NewBumpPool wraps buf as an allocator. Buffers below MinPoolSize are
// rejected at setup time with ErrTooSmall rather than on first use.
func NewBumpPool(buf []byte) (*BumpPool, error) {
	if len(buf) < MinPoolSize {
		return nil, ErrTooSmall
	}
	return &BumpPool{buf: buf, lastStart: -1}, nil
}

// Free returns how many bytes remain available.
func (p *BumpPool) Free() int { return len(p.buf) - p.used }

// Reset abandons all allocations. Items holding pool memory must not be
// used afterwards.
func (p *BumpPool) Reset() {
	p.used = 0
	p.lastStart = -1
}

// Allocate implements StringAllocator.
func (p *BumpPool) Allocate(old []byte, size int) ([]byte, error) {
	if size == 0 {
		// Free. Only the most recent allocation can be reclaimed.
		if len(old) > 0 && p.lastStart >= 0 && &old[0] == &p.buf[p.lastStart] {
			p.used = p.lastStart
			p.lastStart = -1
		}
		return nil, nil
	}
	if old == nil {
		if size > p.Free() {
			return nil, ErrStringAllocate
		}
		start := p.used
		p.used += size
		p.lastStart = start
		return p.buf[start : start+size : start+size], nil
	}
	// Grow in place: only the most recent allocation, only if room.
	if p.lastStart < 0 || len(old) == 0 || &old[0] != &p.buf[p.lastStart] {
		return nil, ErrStringAllocate
	}
	if size < len(old) {
		p.used = p.lastStart + size
		return p.buf[p.lastStart : p.lastStart+size : p.lastStart+size], nil
	}
	if p.lastStart+size > len(p.buf) {
		return nil, ErrStringAllocate
	}
	p.used = p.lastStart + size
	return p.buf[p.lastStart : p.lastStart+size : p.lastStart+size], nil
}

// heapAllocator backs decoders that prefer convenience over bounded
// memory, such as the diagnostic renderer and tests.
type heapAllocator struct{}

// HeapAllocator returns a StringAllocator backed by the Go heap.
func HeapAllocator() StringAllocator { return heapAllocator{} }

func (heapAllocator) Allocate(old []byte, size int) ([]byte, error) {
	if size == 0 {
		return nil, nil
	}
	if old == nil {
		return make([]byte, size), nil
	}
	if size <= cap(old) {
		return old[:size], nil
	}
	grown := make([]byte, size)
	copy(grown, old)
	return grown, nil
}
