package iobuf

import "sync"

// Pool recycles DefaultSize buffers across requests, the generalization of
// the teacher's byte-slice sync.Pool from scratch encode/decode buffers to
// whole *Buffer values so a Session can reuse its output buffers across
// connections instead of allocating a fresh one per response.
type Pool struct {
	pool sync.Pool
}

// NewPool constructs a Pool whose buffers are allocated with DefaultSize.
func NewPool() *Pool {
	return &Pool{
		pool: sync.Pool{
			New: func() any { return NewDefault() },
		},
	}
}

// Get returns a buffer ready for write-mode use: position zero, limit at
// full capacity.
func (p *Pool) Get() *Buffer {
	b := p.pool.Get().(*Buffer)
	b.pos = 0
	b.limit = len(b.data)
	return b
}

// Put returns b to the pool. Buffers whose capacity has grown unreasonably
// large are dropped instead of pooled, matching the teacher's cap-based
// eviction for its own byte buffers.
func (p *Pool) Put(b *Buffer) {
	if b == nil {
		return
	}
	if len(b.data) > DefaultSize {
		return
	}
	p.pool.Put(b)
}
