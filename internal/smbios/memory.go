package smbios

import (
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// MemoryReader reads a contiguous range of physical-memory-like storage.
//
// ReadMemory fills buf from offset. Failing to open or read the device is an
// ordinary outcome on most systems and is reported as ErrNotPresent; a read
// that yields fewer than len(buf) bytes is reported as ErrShortRead.
// Implementations do not keep the device open between calls.
type MemoryReader interface {
	ReadMemory(offset int64, buf []byte) error
}

// MemoryReaderFunc adapts a function to MemoryReader.
type MemoryReaderFunc func(offset int64, buf []byte) error

func (f MemoryReaderFunc) ReadMemory(offset int64, buf []byte) error { return f(offset, buf) }

// DeviceReader reads memory through a seekable device file such as /dev/mem.
type DeviceReader struct {
	fs   afero.Fs
	path string
	log  zerolog.Logger
}

// NewDeviceReader returns a reader for the device at path on fs.
func NewDeviceReader(fs afero.Fs, path string, log zerolog.Logger) *DeviceReader {
	return &DeviceReader{fs: fs, path: path, log: log}
}

// Path returns the device path.
func (d *DeviceReader) Path() string { return d.path }

func (d *DeviceReader) ReadMemory(offset int64, buf []byte) error {
	f, err := d.fs.Open(d.path)
	if err != nil {
		return errors.Wrapf(ErrNotPresent, "open %s: %v", d.path, err)
	}
	defer f.Close()

	n, err := f.ReadAt(buf, offset)
	d.log.Trace().
		Str("device", d.path).
		Int64("offset", offset).
		Int("want", len(buf)).
		Int("got", n).
		Msg("memory read")

	if n < len(buf) {
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
			return errors.Wrapf(ErrNotPresent, "read %s at %#x: %v", d.path, offset, err)
		}
		return errors.Wrapf(ErrShortRead, "%s at %#x: got %d of %d bytes", d.path, offset, n, len(buf))
	}
	return nil
}
