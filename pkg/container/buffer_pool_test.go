package container

import (
	"testing"
)

func TestBufferPool(t *testing.T) {
	pool := newBufferPool()

	t.Run("GetSmall", func(t *testing.T) {
		buf := pool.get(100)
		if len(buf) != 100 {
			t.Errorf("buffer length = %d, want 100", len(buf))
		}
		if cap(buf) != smallBufferSize {
			t.Errorf("buffer capacity = %d, want %d", cap(buf), smallBufferSize)
		}
		pool.put(buf)
	})

	t.Run("GetMedium", func(t *testing.T) {
		buf := pool.get(smallBufferSize + 1)
		if len(buf) != smallBufferSize+1 {
			t.Errorf("buffer length = %d, want %d", len(buf), smallBufferSize+1)
		}
		if cap(buf) != mediumBufferSize {
			t.Errorf("buffer capacity = %d, want %d", cap(buf), mediumBufferSize)
		}
		pool.put(buf)
	})

	t.Run("GetLarge", func(t *testing.T) {
		buf := pool.get(mediumBufferSize + 1)
		if cap(buf) != largeBufferSize {
			t.Errorf("buffer capacity = %d, want %d", cap(buf), largeBufferSize)
		}
		pool.put(buf)
	})

	t.Run("GetOversized", func(t *testing.T) {
		// Beyond the largest class: allocated directly, exact capacity.
		buf := pool.get(largeBufferSize + 1)
		if len(buf) != largeBufferSize+1 {
			t.Errorf("buffer length = %d, want %d", len(buf), largeBufferSize+1)
		}
		if cap(buf) != largeBufferSize+1 {
			t.Errorf("buffer capacity = %d, want %d", cap(buf), largeBufferSize+1)
		}
		pool.put(buf) // dropped, must not panic
	})

	t.Run("GetZero", func(t *testing.T) {
		if buf := pool.get(0); buf != nil {
			t.Errorf("expected nil buffer for zero size, got len %d", len(buf))
		}
		if buf := pool.get(-1); buf != nil {
			t.Errorf("expected nil buffer for negative size, got len %d", len(buf))
		}
	})

	t.Run("PutNil", func(t *testing.T) {
		pool.put(nil) // must not panic
	})

	t.Run("Reuse", func(t *testing.T) {
		buf := pool.get(mediumBufferSize)
		buf[0] = 0xAB
		pool.put(buf)

		again := pool.get(mediumBufferSize)
		if len(again) != mediumBufferSize {
			t.Errorf("buffer length = %d, want %d", len(again), mediumBufferSize)
		}
		pool.put(again)
	})
}
