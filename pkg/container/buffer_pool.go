// buffer_pool.go implements buffer pooling for chunk frame assembly.
//
// A generation run writes thousands of fixed-shape frames; pooling the
// scratch buffers keeps the per-chunk allocation count flat regardless of
// container size.
package container

import (
	"sync"
)

// bufferPool provides pooled byte slices for chunk frame and payload
// scratch space. It uses size classes to handle different chunk sizes.
type bufferPool struct {
	small  sync.Pool // <= 256 bytes (prologues, nonces)
	medium sync.Pool // <= 4KB (typical digit chunks)
	large  sync.Pool // <= 64KB (large chunk sizes)
}

// Buffer size class thresholds.
const (
	smallBufferSize  = 256
	mediumBufferSize = 4 * 1024
	largeBufferSize  = 64 * 1024
)

// framePool is the shared pool used by Writer and Reader.
var framePool = newBufferPool()

func newBufferPool() *bufferPool {
	return &bufferPool{
		small: sync.Pool{
			New: func() any {
				buf := make([]byte, smallBufferSize)
				return &buf
			},
		},
		medium: sync.Pool{
			New: func() any {
				buf := make([]byte, mediumBufferSize)
				return &buf
			},
		},
		large: sync.Pool{
			New: func() any {
				buf := make([]byte, largeBufferSize)
				return &buf
			},
		},
	}
}

// get returns a buffer of exactly the requested length. The returned
// buffer may have larger capacity. The caller must call put when done.
func (p *bufferPool) get(size int) []byte {
	if size <= 0 {
		return nil
	}

	var bufPtr *[]byte

	switch {
	case size <= smallBufferSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= mediumBufferSize:
		bufPtr = p.medium.Get().(*[]byte)
	case size <= largeBufferSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		// Too large for pool, allocate directly.
		return make([]byte, size)
	}

	return (*bufPtr)[:size]
}

// put returns a buffer obtained from get. Oversized direct allocations
// are dropped.
func (p *bufferPool) put(buf []byte) {
	c := cap(buf)
	if c == 0 {
		return
	}

	buf = buf[:c]
	bufPtr := &buf

	switch c {
	case smallBufferSize:
		p.small.Put(bufPtr)
	case mediumBufferSize:
		p.medium.Put(bufPtr)
	case largeBufferSize:
		p.large.Put(bufPtr)
	}
}
