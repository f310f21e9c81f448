package smbios

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// MarshalBinary returns the entry point bytes. A parsed entry point is
// returned as it was read. Otherwise one is built with valid checksums: an
// _SM_ anchor, or no anchor with a structure count, gives _SM_ as long as
// the address and length fit, everything else _SM3_.
func (ep EntryPoint) MarshalBinary() ([]byte, error) {
	if !ep.Present {
		return nil, ErrNotPresent
	}
	if len(ep.Raw) > 0 {
		return bytes.Clone(ep.Raw), nil
	}

	want32 := ep.Anchor == string(anchor32) || (ep.Anchor == "" && ep.StructureCount > 0)
	if want32 && ep.TableAddress <= 0xFFFFFFFF && ep.TableLength <= 0xFFFF {
		return ep.marshal32(), nil
	}
	return ep.marshal64(), nil
}

func (ep EntryPoint) marshal32() []byte {
	b := make([]byte, ep32Size)
	copy(b, anchor32)
	b[ep32Length] = ep32Size
	b[ep32MajorVersion] = uint8(ep.MajorVersion)
	b[ep32MinorVersion] = uint8(ep.MinorVersion)
	copy(b[ep32DMIAnchor:], anchorDMI)
	PutLE(b, ep32TableLength, uint16(ep.TableLength))
	PutLE(b, ep32TableAddress, uint32(ep.TableAddress))
	PutLE(b, ep32StructureCount, ep.StructureCount)
	b[ep32BCDRevision] = uint8(ep.MajorVersion<<4) | uint8(ep.MinorVersion&0x0F)

	b[ep32DMIAnchor+len(anchorDMI)] = -sum8(b[ep32DMIAnchor : ep32DMIAnchor+ep32DMIChecksumLen])
	b[ep32Checksum] = -sum8(b)
	return b
}

func (ep EntryPoint) marshal64() []byte {
	b := make([]byte, ep64MinLength)
	copy(b, anchor64)
	b[ep64Length] = ep64MinLength
	b[ep64MajorVersion] = uint8(ep.MajorVersion)
	b[ep64MinorVersion] = uint8(ep.MinorVersion)
	b[ep64DocRevision] = ep.Revision
	// entry point structure revision 3.0
	b[0x0A] = 0x01
	PutLE(b, ep64TableMaxSize, ep.TableLength)
	PutLE(b, ep64TableAddress, ep.TableAddress)

	b[ep64Checksum] = -sum8(b)
	return b
}

// WriteDump stores ep and table under dir using the sysfs file names, so
// that NewSysfsSource(fs, dir) reads them back.
func WriteDump(fs afero.Fs, dir string, ep EntryPoint, table []byte) error {
	raw, err := ep.MarshalBinary()
	if err != nil {
		return err
	}

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	src := NewSysfsSource(fs, dir, zerolog.Nop())
	if err := afero.WriteFile(fs, src.entryPath, raw, 0o644); err != nil {
		return errors.Wrap(err, "write entry point")
	}
	if err := afero.WriteFile(fs, src.tablePath, table, 0o644); err != nil {
		return errors.Wrap(err, "write table")
	}
	return nil
}
