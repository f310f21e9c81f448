package smbios

import (
	"math/bits"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// ReadLE assembles an unsigned little-endian integer of T's width from
// b[off:]. Bytes are combined low byte first, so a WORD is b[off] | b[off+1]<<8
// and a DWORD is two such WORDs with the high one shifted by 16.
func ReadLE[T constraints.Unsigned](b []byte, off int) (T, error) {
	size := bits.Len64(uint64(^T(0))) / 8
	if off < 0 || off+size > len(b) {
		return 0, errors.Wrapf(ErrOutOfBounds, "%d-byte field at offset %#x, buffer length %d", size, off, len(b))
	}

	var v uint64
	for i := size - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[off+i])
	}
	return T(v), nil
}

// PutLE is the inverse of ReadLE. It panics if b is too short, and is meant
// for building fixtures.
func PutLE[T constraints.Unsigned](b []byte, off int, v T) {
	size := bits.Len64(uint64(^T(0))) / 8
	x := uint64(v)
	for i := 0; i < size; i++ {
		b[off+i] = byte(x)
		x >>= 8
	}
}
