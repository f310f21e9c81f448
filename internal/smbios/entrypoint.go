package smbios

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

var (
	anchor32  = []byte("_SM_")
	anchor64  = []byte("_SM3_")
	anchorDMI = []byte("_DMI_")
)

// Layout of the 32-bit entry point, relative to the _SM_ anchor.
const (
	paragraph = 16

	ep32Checksum       = 0x04
	ep32Length         = 0x05
	ep32MajorVersion   = 0x06
	ep32MinorVersion   = 0x07
	ep32DMIAnchor      = 0x10
	ep32DMIChecksumLen = 15
	ep32TableLength    = 0x16
	ep32TableAddress   = 0x18
	ep32StructureCount = 0x1C
	ep32BCDRevision    = 0x1E
	ep32Size           = 0x1F
	// Firmware in the field reports 0x1E; the kernel accepts it too.
	ep32MinLength      = 0x1E
)

// Layout of the 64-bit (SMBIOS 3.x) entry point.
const (
	ep64Checksum     = 0x05
	ep64Length       = 0x06
	ep64MajorVersion = 0x07
	ep64MinorVersion = 0x08
	ep64DocRevision  = 0x09
	ep64TableMaxSize = 0x0C
	ep64TableAddress = 0x10
	ep64MinLength    = 0x18
)

// EntryPoint is the decoded table-location metadata of an SMBIOS entry
// point. A zero EntryPoint means SMBIOS is not present.
//
// When Present is true both the entry point checksum and, for 32-bit entry
// points, the intermediate _DMI_ checksum were validated.
type EntryPoint struct {
	Present      bool   `json:"present" yaml:"present"`
	Anchor       string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	MajorVersion uint16 `json:"major_version" yaml:"major_version"`
	MinorVersion uint16 `json:"minor_version" yaml:"minor_version"`
	// Revision is the document revision, only carried by _SM3_ entry points.
	Revision uint8 `json:"revision,omitempty" yaml:"revision,omitempty"`
	// TableAddress is a 32-bit physical address for _SM_ entry points.
	TableAddress uint64 `json:"table_address" yaml:"table_address"`
	// TableLength is the exact table length for _SM_ entry points and the
	// maximum table size for _SM3_ ones.
	TableLength uint32 `json:"table_length" yaml:"table_length"`
	// StructureCount is zero when unknown; the walk then ends at the
	// end-of-table record or the end of the buffer.
	StructureCount uint16 `json:"structure_count" yaml:"structure_count"`
	// Offset of the anchor in the scanned buffer.
	Offset int `json:"-" yaml:"-"`
	// Raw holds the entry point bytes as found, covering its length byte.
	Raw []byte `json:"-" yaml:"-"`
}

// Version reports the SMBIOS version as major*100+minor, e.g. 207 for 2.7.
func (ep EntryPoint) Version() int {
	return int(ep.MajorVersion)*100 + int(ep.MinorVersion)
}

// AtLeast reports whether the entry point declares at least major.minor.
func (ep EntryPoint) AtLeast(major, minor int) bool {
	return ep.Version() >= major*100+minor
}

// ScanEntryPoint searches window on 16-byte boundaries for the _SM_ anchor
// and decodes the first one found. Anchors straddling a paragraph boundary
// are not considered.
//
// A window without any anchor yields a zero EntryPoint and a nil error. An
// anchor whose checksums do not validate is malformed data and is returned
// as an error; scanning never continues past the first _SM_ anchor.
func ScanEntryPoint(window []byte, log zerolog.Logger) (EntryPoint, error) {
	for i := 0; i+paragraph <= len(window); i += paragraph {
		p := window[i:]

		if bytes.HasPrefix(p, anchor32) {
			log.Trace().Int("offset", i).Msg("found _SM_ anchor")
			ep, err := parseEntryPoint32(window, i)
			if err != nil {
				log.Warn().Err(err).Int("offset", i).Msg("invalid SMBIOS entry point")
				return EntryPoint{}, err
			}
			log.Trace().
				Uint64("address", ep.TableAddress).
				Uint32("length", ep.TableLength).
				Uint16("count", ep.StructureCount).
				Msg("SMBIOS is present")
			return ep, nil
		}

		if bytes.HasPrefix(p, anchorDMI) {
			log.Trace().Int("offset", i).Msg("legacy DMI anchor present")
		}
	}

	return EntryPoint{}, nil
}

// ParseEntryPoint decodes a standalone entry point, as exposed by
// /sys/firmware/dmi/tables/smbios_entry_point or a raw dump.
func ParseEntryPoint(b []byte) (EntryPoint, error) {
	switch {
	case bytes.HasPrefix(b, anchor64):
		return parseEntryPoint64(b)
	case bytes.HasPrefix(b, anchor32):
		return parseEntryPoint32(b, 0)
	}

	n := len(b)
	if n > 5 {
		n = 5
	}
	return EntryPoint{}, errors.Wrapf(ErrEntryPoint, "unrecognized anchor %q", b[:n])
}

func parseEntryPoint32(b []byte, off int) (EntryPoint, error) {
	if off+ep32MinLength > len(b) {
		return EntryPoint{}, errors.Wrapf(ErrEntryPoint, "_SM_ at %#x: %d bytes left, need %d", off, len(b)-off, ep32MinLength)
	}

	length := int(b[off+ep32Length])
	if length < ep32MinLength {
		return EntryPoint{}, errors.Wrapf(ErrEntryPoint, "_SM_ at %#x: entry point length %d below %d", off, length, ep32MinLength)
	}
	if err := checksumRange(b, off, length, ep32Checksum, "entry point"); err != nil {
		return EntryPoint{}, err
	}

	if !bytes.Equal(b[off+ep32DMIAnchor:off+ep32DMIAnchor+len(anchorDMI)], anchorDMI) {
		return EntryPoint{}, errors.Wrapf(ErrEntryPoint, "_SM_ at %#x: intermediate _DMI_ anchor missing", off)
	}
	// The intermediate checksum ends on the BCD revision byte, which a
	// 0x1E-byte entry point exported on its own does not carry.
	if off+ep32DMIAnchor+ep32DMIChecksumLen <= len(b) {
		if err := checksumRange(b, off+ep32DMIAnchor, ep32DMIChecksumLen, len(anchorDMI), "intermediate"); err != nil {
			return EntryPoint{}, err
		}
	}

	address, _ := ReadLE[uint32](b, off+ep32TableAddress)
	tableLen, _ := ReadLE[uint16](b, off+ep32TableLength)
	count, _ := ReadLE[uint16](b, off+ep32StructureCount)

	return EntryPoint{
		Present:        true,
		Anchor:         string(anchor32),
		MajorVersion:   uint16(b[off+ep32MajorVersion]),
		MinorVersion:   uint16(b[off+ep32MinorVersion]),
		TableAddress:   uint64(address),
		TableLength:    uint32(tableLen),
		StructureCount: count,
		Offset:         off,
		Raw:            bytes.Clone(b[off : off+length]),
	}, nil
}

func parseEntryPoint64(b []byte) (EntryPoint, error) {
	if len(b) < ep64MinLength {
		return EntryPoint{}, errors.Wrapf(ErrEntryPoint, "_SM3_: %d bytes, need %d", len(b), ep64MinLength)
	}

	length := int(b[ep64Length])
	if length < ep64MinLength {
		return EntryPoint{}, errors.Wrapf(ErrEntryPoint, "_SM3_: entry point length %d below %d", length, ep64MinLength)
	}
	if err := checksumRange(b, 0, length, ep64Checksum, "entry point"); err != nil {
		return EntryPoint{}, err
	}

	maxSize, _ := ReadLE[uint32](b, ep64TableMaxSize)
	address, _ := ReadLE[uint64](b, ep64TableAddress)

	return EntryPoint{
		Present:      true,
		Anchor:       string(anchor64),
		MajorVersion: uint16(b[ep64MajorVersion]),
		MinorVersion: uint16(b[ep64MinorVersion]),
		Revision:     b[ep64DocRevision],
		TableAddress: address,
		TableLength:  maxSize,
		Raw:          bytes.Clone(b[:length]),
	}, nil
}
