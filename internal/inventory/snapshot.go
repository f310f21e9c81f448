// Package inventory decodes BIOS, computer system and processor attributes
// from an SMBIOS structure table.
package inventory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/nhdewitt/dmiscan/internal/protocol"
	"github.com/nhdewitt/dmiscan/internal/smbios"
)

// Snapshot is the entry point and structure table obtained once per update
// cycle. It is read-only and may be shared by all consumers.
type Snapshot struct {
	EntryPoint smbios.EntryPoint
	Source     string
	// Table is nil when SMBIOS is not present.
	Table *smbios.Table
}

// Load reads the table from src. A source reporting absence yields a
// snapshot with Present() false and a nil error; malformed data is returned
// as an error.
func Load(ctx context.Context, src smbios.Source, log zerolog.Logger) (*Snapshot, error) {
	ep, buf, err := src.Load(ctx)
	if err != nil {
		if smbios.IsAbsent(err) {
			log.Info().Err(err).Str("source", src.Name()).Msg("SMBIOS not present")
			return &Snapshot{Source: src.Name()}, nil
		}
		return nil, err
	}

	tbl, err := smbios.NewTable(ep, buf, log)
	if err != nil {
		return nil, err
	}

	return &Snapshot{EntryPoint: ep, Source: src.Name(), Table: tbl}, nil
}

// Present reports whether the snapshot holds a structure table.
func (s *Snapshot) Present() bool {
	return s != nil && s.Table != nil && s.EntryPoint.Present
}

// EntryPointMetric describes the snapshot's entry point.
func (s *Snapshot) EntryPointMetric() protocol.EntryPointMetric {
	ep := s.EntryPoint
	return protocol.EntryPointMetric{
		Present:        s.Present(),
		Source:         s.Source,
		Anchor:         ep.Anchor,
		MajorVersion:   ep.MajorVersion,
		MinorVersion:   ep.MinorVersion,
		TableAddress:   ep.TableAddress,
		TableLength:    ep.TableLength,
		StructureCount: ep.StructureCount,
	}
}

// fields reads formatted fields of one record. Fields beyond the record's
// formatted length were added in a later SMBIOS version and read as zero.
type fields struct {
	rec smbios.Record
	log zerolog.Logger
}

func (f fields) u8(off int) uint8 {
	v, _ := f.rec.Byte(off)
	return v
}

func (f fields) u16(off int) uint16 {
	v, _ := f.rec.Word(off)
	return v
}

func (f fields) u32(off int) uint32 {
	v, _ := f.rec.DWord(off)
	return v
}

func (f fields) u64(off int) uint64 {
	v, _ := f.rec.QWord(off)
	return v
}

// str resolves a string field. A bad string index is logged and read as "".
func (f fields) str(off int, name string) string {
	if !f.rec.Has(off, 1) {
		return ""
	}

	s, err := f.rec.String(off)
	if err != nil {
		f.log.Warn().
			Err(err).
			Uint8("type", f.rec.Type).
			Uint16("handle", f.rec.Handle).
			Int("offset", f.rec.Offset+off).
			Str("field", name).
			Msg("unreadable SMBIOS string")
		return ""
	}
	return trimString(s)
}
