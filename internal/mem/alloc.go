package mem

import (
	"unsafe"

	"golang.org/x/sys/cpu"
)

// CacheLineSize is the cache line size of the target architecture.
const CacheLineSize = int(unsafe.Sizeof(cpu.CacheLinePad{}))

// AllocAligned allocates a zeroed byte slice of the given size aligned to CacheLineSize.
// The returned slice is guaranteed to start at a memory address divisible by CacheLineSize.
//
// Note: This function allocates slightly more memory than requested to ensure alignment.
// The underlying array is kept alive by the returned slice.
func AllocAligned(size int) []byte {
	if size <= 0 {
		return nil
	}

	// Allocate size + alignment to ensure we can find an aligned offset
	totalSize := size + CacheLineSize
	buf := make([]byte, totalSize)

	ptr := unsafe.Pointer(&buf[0]) //nolint:gosec // unsafe is required for memory alignment
	addr := uintptr(ptr)
	offset := (uintptr(CacheLineSize) - (addr & uintptr(CacheLineSize-1))) & uintptr(CacheLineSize-1)

	return buf[offset : offset+uintptr(size) : offset+uintptr(size)]
}

// Stride returns the smallest multiple of CacheLineSize that holds elemSize bytes.
// Cells laid out with this stride never share a cache line.
func Stride(elemSize int) int {
	if elemSize <= 0 {
		return CacheLineSize
	}
	return (elemSize + CacheLineSize - 1) / CacheLineSize * CacheLineSize
}

// Slice reinterprets b as n contiguous values of T.
// b must be at least n*sizeof(T) bytes and suitably aligned for T.
func Slice[T any](b []byte, n int) []T {
	if n == 0 || len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n) //nolint:gosec // unsafe is required for typed views over raw memory
}

// At returns a pointer to the value of T stored at byte offset off of b.
func At[T any](b []byte, off int) *T {
	return (*T)(unsafe.Pointer(&b[off])) //nolint:gosec // unsafe is required for strided access
}

// Clear zeroes b.
func Clear(b []byte) {
	clear(b)
}
