package inventory

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nhdewitt/dmiscan/internal/protocol"
	"github.com/nhdewitt/dmiscan/internal/smbios"
)

const defaultBIOSName = "Default System BIOS"

// BIOS Information (type 0) layout.
const (
	biosVendor              = 0x04
	biosVersion             = 0x05
	biosReleaseDate         = 0x08
	biosROMSize             = 0x09
	biosCharacteristics     = 0x0A
	biosCharacteristicsHigh = 0x12
	biosSystemMajor         = 0x14
	biosSystemMinor         = 0x15
	biosFirmwareMajor       = 0x16
	biosFirmwareMinor       = 0x17
	biosExtendedROMSize     = 0x18

	// The high characteristics byte is only read from records longer
	// than this.
	biosShortLength = 0x13
	biosCharBits    = 40
)

// BIOS Language (type 13) layout.
const (
	langInstallable = 0x04
	langCurrent     = 0x15
)

// ReadBIOS decodes the BIOS Information and BIOS Language records.
func ReadBIOS(s *Snapshot, log zerolog.Logger) (protocol.BIOSMetric, error) {
	var m protocol.BIOSMetric
	if !s.Present() {
		return m, nil
	}

	ep := s.EntryPoint
	m.SMBIOSPresent = true
	m.SMBIOSMajorVersion = ep.MajorVersion
	m.SMBIOSMinorVersion = ep.MinorVersion
	m.Name = defaultBIOSName

	err := s.Table.Walk(func(r smbios.Record) error {
		f := fields{rec: r, log: log}

		switch r.Type {
		case smbios.TypeBIOSInformation:
			readBIOSInformation(f, &m)
		case smbios.TypeBIOSLanguage:
			m.InstallableLanguages = f.u8(langInstallable)
			m.CurrentLanguage = f.str(langCurrent, "current language")
			log.Trace().Uint8("languages", m.InstallableLanguages).Msg("BIOS language")
		}
		return nil
	})

	return m, err
}

func readBIOSInformation(f fields, m *protocol.BIOSMetric) {
	m.SMBIOSBIOSVersion = f.str(biosVersion, "BIOS version")
	m.Manufacturer = f.str(biosVendor, "vendor")
	m.ReleaseDate = f.str(biosReleaseDate, "release date")

	if month, day, year, ok := splitDate(m.ReleaseDate); ok {
		m.Version = m.Manufacturer + "-" + year + month + day
		if t, err := parseDate(month, day, year); err == nil {
			m.InstallDate = &t
		} else {
			f.log.Warn().Err(err).Str("date", m.ReleaseDate).Msg("invalid BIOS release date")
		}
	}

	low := f.u32(biosCharacteristics)
	var high uint8
	if f.rec.Length > biosShortLength {
		high = f.u8(biosCharacteristicsHigh)
	}
	m.Characteristics = characteristics(low, high)

	m.ROMSize = romSize(f)

	if major := f.u8(biosSystemMajor); f.rec.Has(biosSystemMinor, 1) && major != 0xFF {
		m.SystemRelease = fmt.Sprintf("%d.%d", major, f.u8(biosSystemMinor))
	}
	if major := f.u8(biosFirmwareMajor); f.rec.Has(biosFirmwareMinor, 1) && major != 0xFF {
		m.FirmwareRelease = fmt.Sprintf("%d.%d", major, f.u8(biosFirmwareMinor))
	}
}

// characteristics lists the numbers of the set bits among the 32 low
// characteristic bits and the 8 bits of the high byte.
func characteristics(low uint32, high uint8) []uint16 {
	out := []uint16{}
	for bit := 0; bit < biosCharBits; bit++ {
		var set bool
		if bit < 32 {
			set = low&(1<<bit) != 0
		} else {
			set = high&(1<<(bit-32)) != 0
		}
		if set {
			out = append(out, uint16(bit))
		}
	}
	return out
}

// romSize returns the BIOS ROM size in bytes. 0xFF in the legacy field
// defers to the extended size word of SMBIOS 3.1.
func romSize(f fields) uint64 {
	if !f.rec.Has(biosROMSize, 1) {
		return 0
	}

	n := f.u8(biosROMSize)
	if n != 0xFF {
		return (uint64(n) + 1) * 64 << 10
	}
	if !f.rec.Has(biosExtendedROMSize, 2) {
		return 0
	}

	ext := f.u16(biosExtendedROMSize)
	size := uint64(ext & 0x3FFF)
	switch ext >> 14 {
	case 0:
		return size << 20
	case 1:
		return size << 30
	}
	return 0
}

// splitDate splits a MM/DD/YYYY release date.
func splitDate(s string) (month, day, year string, ok bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func parseDate(month, day, year string) (time.Time, error) {
	m, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, err
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, err
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, err
	}

	// Pre-2.3 firmware may use two-digit years.
	if len(year) == 2 {
		if y >= 80 {
			y += 1900
		} else {
			y += 2000
		}
	}

	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, errors.Errorf("date %s/%s/%s out of range", month, day, year)
	}
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC), nil
}

func trimString(s string) string {
	return strings.TrimSpace(s)
}
