// Package smbiostest builds synthetic SMBIOS tables and memory images for
// tests.
package smbiostest

import (
	"github.com/pkg/errors"

	"github.com/nhdewitt/dmiscan/internal/smbios"
)

// Table accumulates structure records.
type Table struct {
	buf   []byte
	count uint16
}

// Add appends a record. formatted holds the bytes after the 4-byte header;
// the header length field is derived from it. A record without strings gets
// the empty double-NUL pool.
func (t *Table) Add(typ uint8, handle uint16, formatted []byte, strs ...string) *Table {
	t.buf = append(t.buf, typ, uint8(4+len(formatted)), uint8(handle), uint8(handle>>8))
	t.buf = append(t.buf, formatted...)

	if len(strs) == 0 {
		t.buf = append(t.buf, 0, 0)
	} else {
		for _, s := range strs {
			t.buf = append(t.buf, s...)
			t.buf = append(t.buf, 0)
		}
		t.buf = append(t.buf, 0)
	}

	t.count++
	return t
}

// End appends the type 127 end-of-table record.
func (t *Table) End() *Table {
	return t.Add(smbios.TypeEndOfTable, 0xFEFF, nil)
}

// Bytes returns the encoded table.
func (t *Table) Bytes() []byte { return t.buf }

// Count returns the number of records added.
func (t *Table) Count() uint16 { return t.count }

// EntryPoint returns a present 32-bit entry point describing the table.
func (t *Table) EntryPoint(major, minor uint16, address uint64) smbios.EntryPoint {
	return smbios.EntryPoint{
		Present:        true,
		Anchor:         "_SM_",
		MajorVersion:   major,
		MinorVersion:   minor,
		TableAddress:   address,
		TableLength:    uint32(len(t.buf)),
		StructureCount: t.count,
	}
}

// Memory is a sparse physical memory image implementing
// smbios.MemoryReader. Reads record the requested ranges.
type Memory struct {
	Image []byte
	Reads []Read
}

// Read is one recorded ReadMemory call.
type Read struct {
	Offset int64
	Length int
}

// NewMemory allocates size bytes of zeroed memory.
func NewMemory(size int) *Memory {
	return &Memory{Image: make([]byte, size)}
}

// Put copies b into memory at off.
func (m *Memory) Put(off int, b []byte) {
	copy(m.Image[off:], b)
}

func (m *Memory) ReadMemory(offset int64, buf []byte) error {
	m.Reads = append(m.Reads, Read{Offset: offset, Length: len(buf)})
	if offset < 0 || offset > int64(len(m.Image)) {
		return errors.Wrapf(smbios.ErrNotPresent, "offset %#x outside image", offset)
	}
	n := copy(buf, m.Image[offset:])
	if n < len(buf) {
		return errors.Wrapf(smbios.ErrShortRead, "got %d of %d bytes", n, len(buf))
	}
	return nil
}

// Image lays out a legacy memory image: ep encoded at window offset epOff
// of the 0xF0000 window and table copied to ep.TableAddress.
func Image(ep smbios.EntryPoint, epOff int, table []byte) (*Memory, error) {
	raw, err := ep.MarshalBinary()
	if err != nil {
		return nil, err
	}

	size := smbios.WindowEnd + 1
	if end := int(ep.TableAddress) + len(table); end > size {
		size = end
	}
	m := NewMemory(size)
	m.Put(smbios.WindowStart+epOff, raw)
	m.Put(int(ep.TableAddress), table)
	return m, nil
}
