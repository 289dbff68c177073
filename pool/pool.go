// Package pool provides a fixed-block allocator for small records. Records
// are carved from blocks of BlockSize elements and recycled through a free
// list of indices, so allocation and release are O(1) and nothing is handed
// back to the runtime until the pool itself is released.
//
// A Pool is not safe for concurrent use; owners serialize access.
package pool

import (
	"fmt"
	"unsafe"
)

// DefaultBlockSize is the number of elements added each time a pool grows.
const DefaultBlockSize = 256

// Handle identifies an element carved from a Pool. The zero Handle is
// never issued, so it can mark "no element".
type Handle uint32

const NilHandle Handle = 0

// Pool is an index-based slab of E records.
type Pool[E any] struct {
	blockSize int
	blocks    [][]E
	free      []Handle
	carved    int // elements handed out at least once
	live      int
	freed     []bool // indexed by handle
}

// New creates an empty pool growing by blockSize elements at a time.
func New[E any](blockSize int) *Pool[E] {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Pool[E]{blockSize: blockSize, freed: []bool{false}}
}

// Allocate returns a zeroed element, growing the pool by one block when the
// free list is exhausted.
func (p *Pool[E]) Allocate() Handle {
	var h Handle
	if n := len(p.free); n > 0 {
		h = p.free[n-1]
		p.free = p.free[:n-1]
		p.freed[h] = false
		var zero E
		*p.At(h) = zero
	} else {
		if p.carved == len(p.blocks)*p.blockSize {
			p.grow()
		}
		p.carved++
		h = Handle(p.carved)
		p.freed = append(p.freed, false)
	}
	p.live++
	return h
}

// Deallocate pushes h back on the free list.
func (p *Pool[E]) Deallocate(h Handle) {
	if h == NilHandle || int(h) > p.carved {
		panic(fmt.Sprintf("pool: deallocating foreign handle %d", h))
	}
	if p.freed[h] {
		panic(fmt.Sprintf("pool: handle %d deallocated twice", h))
	}
	p.freed[h] = true
	p.free = append(p.free, h)
	p.live--
}

// At returns the element behind h. The pointer stays valid until the pool
// is released; blocks are never moved.
func (p *Pool[E]) At(h Handle) *E {
	idx := int(h) - 1
	return &p.blocks[idx/p.blockSize][idx%p.blockSize]
}

// Reset returns every element to the free list while keeping the blocks.
func (p *Pool[E]) Reset() {
	p.free = p.free[:0]
	for i := p.carved; i >= 1; i-- {
		p.free = append(p.free, Handle(i))
		p.freed[i] = true
	}
	p.live = 0
}

// Release drops all blocks.
func (p *Pool[E]) Release() {
	p.blocks = nil
	p.free = nil
	p.freed = []bool{false}
	p.carved = 0
	p.live = 0
}

// ESize is the size of one element rounded up to its alignment, i.e. the
// stride between consecutive elements of a block.
func (p *Pool[E]) ESize() uintptr {
	var e E
	size, align := unsafe.Sizeof(e), unsafe.Alignof(e)
	return (size + align - 1) / align * align
}

func (p *Pool[E]) Len() int       { return p.live }
func (p *Pool[E]) Cap() int       { return len(p.blocks) * p.blockSize }
func (p *Pool[E]) Blocks() int    { return len(p.blocks) }
func (p *Pool[E]) Free() int      { return len(p.free) + p.Cap() - p.carved }
func (p *Pool[E]) BlockSize() int { return p.blockSize }

func (p *Pool[E]) grow() {
	p.blocks = append(p.blocks, make([]E, p.blockSize))
}
