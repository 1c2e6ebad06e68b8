package asyncio

import (
	"sync"
	"sync/atomic"
)

// Buffer is a pooled byte buffer handed out with completed reads. Ownership
// passes to whoever consumes the outcome; they must call Release exactly
// once when done with the payload.
type Buffer struct {
	data     []byte
	pool     *BufferPool
	released atomic.Bool
}

// Bytes returns the payload. It returns nil once the buffer was released.
func (b *Buffer) Bytes() []byte {
	if b == nil || b.released.Load() {
		return nil
	}
	return b.data
}

func (b *Buffer) Len() int {
	return len(b.Bytes())
}

// Release returns the buffer to its pool. Calling it more than once has
// no effect.
func (b *Buffer) Release() {
	if b == nil {
		return
	}
	if !b.released.CompareAndSwap(false, true) {
		return
	}
	if b.pool != nil {
		b.pool.pool.Put(b)
	}
}

// BufferPool recycles read buffers between loads. Backing arrays are kept
// and regrown only when a requested size exceeds their capacity.
type BufferPool struct {
	pool sync.Pool
}

func NewBufferPool() *BufferPool {
	return &BufferPool{
		pool: sync.Pool{
			New: func() interface{} {
				return &Buffer{}
			},
		},
	}
}

func (p *BufferPool) Get(size int) *Buffer {
	b := p.pool.Get().(*Buffer)
	if cap(b.data) < size {
		b.data = make([]byte, size)
	} else {
		b.data = b.data[:size]
	}
	b.pool = p
	b.released.Store(false)
	return b
}
