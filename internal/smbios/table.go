package smbios

import (
	"math/bits"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/exp/constraints"
)

// headerLen is the size of the type/length/handle header of every record.
const headerLen = 4

// Table is a read-only view over a raw SMBIOS structure table. The
// underlying buffer must not be modified once the Table is built; records
// and consumers reference it without copying.
type Table struct {
	entry EntryPoint
	buf   []byte
	log   zerolog.Logger
}

// NewTable wraps buf as the structure table described by ep. A buffer longer
// than ep.TableLength is truncated to it.
func NewTable(ep EntryPoint, buf []byte, log zerolog.Logger) (*Table, error) {
	if len(buf) == 0 {
		return nil, errors.Wrap(ErrBrokenTable, "empty structure table")
	}

	if ep.TableLength > 0 && int(ep.TableLength) < len(buf) {
		buf = buf[:ep.TableLength]
	}

	return &Table{entry: ep, buf: buf, log: log}, nil
}

// EntryPoint returns the entry point the table was located through.
func (t *Table) EntryPoint() EntryPoint { return t.entry }

// Len returns the table length in bytes.
func (t *Table) Len() int { return len(t.buf) }

// Bytes returns the raw table. Callers must not modify it.
func (t *Table) Bytes() []byte { return t.buf }

// Walk calls fn for each record in table order. The walk ends after
// EntryPoint.StructureCount records (when non-zero), when fewer than four
// bytes remain, or after the end-of-table record, whichever comes first.
//
// A record whose length is below the header size or that overruns the table
// stops the walk with ErrBrokenTable. If fn returns ErrStopWalk the walk ends
// and Walk returns nil; any other error is returned as is.
func (t *Table) Walk(fn func(Record) error) error {
	count := int(t.entry.StructureCount)
	off := 0

	for n := 0; (count == 0 || n < count) && len(t.buf)-off >= headerLen; n++ {
		rec := Record{
			Type:   t.buf[off],
			Length: t.buf[off+1],
			Handle: uint16(t.buf[off+2]) | uint16(t.buf[off+3])<<8,
			Offset: off,
			table:  t,
		}

		t.log.Trace().
			Int("offset", off).
			Uint8("type", rec.Type).
			Uint8("length", rec.Length).
			Uint16("handle", rec.Handle).
			Msg("structure")

		if rec.Length < headerLen {
			return errors.Wrapf(ErrBrokenTable, "record %d at %#x: length %d below header size", n, off, rec.Length)
		}
		if off+int(rec.Length) > len(t.buf) {
			return errors.Wrapf(ErrBrokenTable, "record %d at %#x: length %d overruns table of %d bytes", n, off, rec.Length, len(t.buf))
		}

		if err := fn(rec); err != nil {
			if errors.Is(err, ErrStopWalk) {
				return nil
			}
			return err
		}

		if rec.Type == TypeEndOfTable {
			return nil
		}

		next, ok := poolEnd(t.buf, rec.StringPoolOffset())
		if !ok {
			t.log.Warn().
				Int("offset", off).
				Uint8("type", rec.Type).
				Uint16("handle", rec.Handle).
				Msg("string pool not terminated before end of table")
		}
		off = next
	}

	return nil
}

// Records returns every record of the table, in order.
func (t *Table) Records() ([]Record, error) {
	var out []Record
	err := t.Walk(func(r Record) error {
		out = append(out, r)
		return nil
	})
	return out, err
}

// Find returns all records of type typ, in table order.
func (t *Table) Find(typ uint8) ([]Record, error) {
	var out []Record
	err := t.Walk(func(r Record) error {
		if r.Type == typ {
			out = append(out, r)
		}
		return nil
	})
	return out, err
}

// First returns the first record of type typ. The boolean is false when the
// table holds no such record.
func (t *Table) First(typ uint8) (Record, bool, error) {
	var (
		found Record
		ok    bool
	)
	err := t.Walk(func(r Record) error {
		if r.Type == typ {
			found, ok = r, true
			return ErrStopWalk
		}
		return nil
	})
	return found, ok, err
}

// Record is one structure of the table. It holds offsets into the table
// buffer rather than a copy of the data.
type Record struct {
	Type   uint8
	Length uint8
	Handle uint16
	// Offset of the record header within the table.
	Offset int

	table *Table
}

// StringPoolOffset returns the table offset where the record's string pool
// begins, right after the formatted area.
func (r Record) StringPoolOffset() int {
	return r.Offset + int(r.Length)
}

// Formatted returns the formatted area, header included. Callers must not
// modify it.
func (r Record) Formatted() []byte {
	return r.table.buf[r.Offset : r.Offset+int(r.Length)]
}

// Has reports whether the formatted area is long enough to hold a field of
// size bytes at off. Fields added in later SMBIOS versions are only present
// in longer records.
func (r Record) Has(off, size int) bool {
	return off >= 0 && off+size <= int(r.Length)
}

// Byte reads the byte at off within the formatted area.
func (r Record) Byte(off int) (uint8, error) {
	return readField[uint8](r, off)
}

// Word reads a little-endian 16-bit field.
func (r Record) Word(off int) (uint16, error) {
	return readField[uint16](r, off)
}

// DWord reads a little-endian 32-bit field.
func (r Record) DWord(off int) (uint32, error) {
	return readField[uint32](r, off)
}

// QWord reads a little-endian 64-bit field.
func (r Record) QWord(off int) (uint64, error) {
	return readField[uint64](r, off)
}

// Bytes returns n bytes of the formatted area starting at off.
func (r Record) Bytes(off, n int) ([]byte, error) {
	if !r.Has(off, n) {
		return nil, errors.Wrapf(ErrOutOfBounds, "type %d handle %#04x: %d bytes at %#x, formatted length %d", r.Type, r.Handle, n, off, r.Length)
	}
	start := r.Offset + off
	return r.table.buf[start : start+n], nil
}

// String resolves the string whose 1-based index is stored in the byte at
// off. An index of zero yields "".
func (r Record) String(off int) (string, error) {
	idx, err := r.Byte(off)
	if err != nil {
		return "", err
	}
	r.table.log.Trace().Uint8("type", r.Type).Int("field", off).Uint8("index", idx).Msg("string lookup")
	return ReadString(r.table.buf, r.StringPoolOffset(), int(idx))
}

// Strings returns every string of the record's pool, in index order.
func (r Record) Strings() []string {
	var out []string
	for i := 1; ; i++ {
		s, err := ReadString(r.table.buf, r.StringPoolOffset(), i)
		if err != nil {
			return out
		}
		out = append(out, s)
	}
}

func readField[T constraints.Unsigned](r Record, off int) (T, error) {
	size := bits.Len64(uint64(^T(0))) / 8
	if !r.Has(off, size) {
		return 0, errors.Wrapf(ErrOutOfBounds, "type %d handle %#04x: %d-byte field at %#x, formatted length %d", r.Type, r.Handle, size, off, r.Length)
	}
	return ReadLE[T](r.table.buf, r.Offset+off)
}
