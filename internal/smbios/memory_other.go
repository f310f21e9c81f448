//go:build !linux

package smbios

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// MmapReader is only implemented on Linux.
type MmapReader struct {
	path string
}

func NewMmapReader(path string, _ zerolog.Logger) *MmapReader {
	return &MmapReader{path: path}
}

func (m *MmapReader) ReadMemory(int64, []byte) error {
	return errors.Wrapf(ErrUnsupported, "mmap %s", m.path)
}
