// Package mempool recycles the float32 buffers that hold detector input
// tensors. A detector run allocates one 3xSxS tensor per photo, and the
// same few input sizes repeat for the life of the process.
package mempool

import (
	"math/bits"
	"sync"
)

// minClassBits is the smallest pooled capacity, 1<<minClassBits elements.
const minClassBits = 10

// pools[i] holds buffers with capacity exactly 1<<i.
var pools [bits.UintSize]sync.Pool

// classBits returns the exponent of the power-of-two capacity for n elements.
func classBits(n int) int {
	if n <= 1<<minClassBits {
		return minClassBits
	}
	return bits.Len(uint(n - 1))
}

// GetFloat32 returns a buffer of length n. Its contents are unspecified and
// it should go back through PutFloat32.
func GetFloat32(n int) []float32 {
	b := classBits(n)
	if buf, ok := pools[b].Get().([]float32); ok {
		return buf[:n]
	}
	return make([]float32, n, 1<<b)
}

// PutFloat32 hands buf back for reuse. Buffers not obtained from
// GetFloat32, including nil, are dropped.
func PutFloat32(buf []float32) {
	c := cap(buf)
	if c < 1<<minClassBits || c&(c-1) != 0 {
		return
	}
	pools[bits.Len(uint(c))-1].Put(buf[:c]) //nolint:staticcheck // slices are small headers
}
