//go:build linux

package smbios

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tklauser/go-sysconf"
	"golang.org/x/sys/unix"
)

var pageSize int64 = 4096

func init() {
	if sc, err := sysconf.Sysconf(sysconf.SC_PAGESIZE); err == nil && sc > 0 {
		pageSize = sc
	}
}

// MmapReader reads physical memory by mapping the requested range of a
// memory device. Some kernels refuse read(2) on /dev/mem below 1 MiB but
// allow a read-only shared mapping.
type MmapReader struct {
	path string
	log  zerolog.Logger
}

func NewMmapReader(path string, log zerolog.Logger) *MmapReader {
	return &MmapReader{path: path, log: log}
}

func (m *MmapReader) ReadMemory(offset int64, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return errors.Wrapf(ErrNotPresent, "open %s: %v", m.path, err)
	}
	defer f.Close()

	base := offset &^ (pageSize - 1)
	skip := int(offset - base)

	data, err := unix.Mmap(int(f.Fd()), base, skip+len(buf), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return errors.Wrapf(ErrNotPresent, "mmap %s at %#x: %v", m.path, base, err)
	}
	defer unix.Munmap(data)

	n := copy(buf, data[skip:])
	m.log.Trace().
		Str("device", m.path).
		Int64("offset", offset).
		Int64("page", base).
		Int("got", n).
		Msg("memory mapped")

	if n < len(buf) {
		return errors.Wrapf(ErrShortRead, "%s at %#x: got %d of %d bytes", m.path, offset, n, len(buf))
	}
	return nil
}
