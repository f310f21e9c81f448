// Package smbios locates the SMBIOS entry point, validates it and walks the
// structure table it describes.
//
// The package never trusts firmware data: every multi-byte read is bounds
// checked against the table buffer, and malformed input is reported as an
// error instead of being followed.
package smbios

import (
	"fmt"

	"github.com/pkg/errors"
)

// Legacy BIOS ROM window scanned for the 32-bit entry point.
const (
	WindowStart = 0xF0000
	WindowEnd   = 0xFFFFF
)

// Structure types decoded by this module.
const (
	TypeBIOSInformation   uint8 = 0
	TypeSystemInformation uint8 = 1
	TypeSystemEnclosure   uint8 = 3
	TypeProcessor         uint8 = 4
	TypeBIOSLanguage      uint8 = 13
	TypeSystemReset       uint8 = 23
	TypeEndOfTable        uint8 = 127
)

var (
	// ErrNotPresent reports routine absence of SMBIOS data: the memory
	// window could not be read or no anchor was found.
	ErrNotPresent = errors.New("smbios: not present")

	// ErrShortRead is returned when a device yields fewer bytes than requested.
	ErrShortRead = errors.New("smbios: short read")

	// ErrChecksum is the cause of every *ChecksumError.
	ErrChecksum = errors.New("smbios: checksum mismatch")

	// ErrEntryPoint reports an anchor whose surrounding structure is unusable.
	ErrEntryPoint = errors.New("smbios: malformed entry point")

	// ErrOutOfBounds reports a field read that would leave its buffer.
	ErrOutOfBounds = errors.New("smbios: read out of bounds")

	// ErrStringIndex reports a string index beyond the record's string pool.
	ErrStringIndex = errors.New("smbios: string index out of range")

	// ErrBrokenTable reports a structure table that cannot be walked further.
	ErrBrokenTable = errors.New("smbios: broken structure table")

	// ErrUnsupported is returned by sources that do not exist on this platform.
	ErrUnsupported = errors.New("smbios: unsupported on this platform")

	// ErrStopWalk may be returned by a Walk callback to end the walk early.
	ErrStopWalk = errors.New("smbios: stop walk")
)

// ChecksumError describes a failed 8-bit additive checksum.
type ChecksumError struct {
	// Offset of the checksummed range, relative to the scanned buffer.
	Offset int
	Length int
	// Stored is the checksum byte found in the structure, Expected is the
	// value that would have made the range sum to zero.
	Stored   uint8
	Expected uint8
	What     string
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("smbios: %s checksum mismatch at offset %#x (length %d): stored %#02x, expected %#02x",
		e.What, e.Offset, e.Length, e.Stored, e.Expected)
}

// Unwrap lets errors.Is match ErrChecksum.
func (e *ChecksumError) Unwrap() error { return ErrChecksum }

// IsAbsent reports whether err means "no SMBIOS here" rather than bad data.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNotPresent) || errors.Is(err, ErrShortRead) || errors.Is(err, ErrUnsupported)
}
