package smbios

import "github.com/pkg/errors"

// Checksum reports whether the bytes of b add up to zero using 8-bit
// wraparound addition, as required for SMBIOS entry point structures.
func Checksum(b []byte) bool {
	return sum8(b) == 0
}

func sum8(b []byte) uint8 {
	var sum uint8
	for _, c := range b {
		sum += c
	}
	return sum
}

// checksumRange validates b[off:off+length] and returns a *ChecksumError
// naming what was checked when the sum is not zero. The checksum byte itself
// is expected at b[off+chkIndex].
func checksumRange(b []byte, off, length, chkIndex int, what string) error {
	if off < 0 || length <= 0 || off+length > len(b) || chkIndex >= length {
		return errors.Wrapf(ErrOutOfBounds, "%s checksum over %d bytes at offset %#x, buffer length %d", what, length, off, len(b))
	}

	sum := sum8(b[off : off+length])
	if sum == 0 {
		return nil
	}

	stored := b[off+chkIndex]
	return &ChecksumError{
		Offset:   off,
		Length:   length,
		Stored:   stored,
		Expected: stored - sum,
		What:     what,
	}
}
