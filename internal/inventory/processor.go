package inventory

import (
	"github.com/rs/zerolog"

	"github.com/nhdewitt/dmiscan/internal/protocol"
	"github.com/nhdewitt/dmiscan/internal/smbios"
)

// Processor Information (type 4) layout.
const (
	procSocket          = 0x04
	procType            = 0x05
	procFamily          = 0x06
	procManufacturer    = 0x07
	procID              = 0x08
	procVersion         = 0x10
	procVoltage         = 0x11
	procExternalClock   = 0x12
	procMaxSpeed        = 0x14
	procCurrentSpeed    = 0x16
	procStatus          = 0x18
	procUpgrade         = 0x19
	procSerialNumber    = 0x20
	procAssetTag        = 0x21
	procPartNumber      = 0x22
	procCoreCount       = 0x23
	procCoreEnabled     = 0x24
	procThreadCount     = 0x25
	procCharacteristics = 0x26
	procFamily2         = 0x28
	procCoreCount2      = 0x2A
	procCoreEnabled2    = 0x2C
	procThreadCount2    = 0x2E
)

const (
	familyUseFamily2 = 0xFE
	countUseExtended = 0xFF

	statusPopulated = 1 << 6
	statusCPUMask   = 0x07

	char64Bit          = 1 << 2
	charMultiThread    = 1 << 4
	charVirtualization = 1 << 6
)

// ReadProcessors decodes every Processor Information record, one per socket.
func ReadProcessors(s *Snapshot, log zerolog.Logger) (protocol.ProcessorListMetric, error) {
	m := protocol.ProcessorListMetric{Processors: []protocol.ProcessorMetric{}}
	if !s.Present() {
		return m, nil
	}

	recs, err := s.Table.Find(smbios.TypeProcessor)
	for _, r := range recs {
		m.Processors = append(m.Processors, readProcessor(fields{rec: r, log: log}))
	}
	return m, err
}

func readProcessor(f fields) protocol.ProcessorMetric {
	p := protocol.ProcessorMetric{
		Handle:            f.rec.Handle,
		SocketDesignation: f.str(procSocket, "socket designation"),
		Type:              f.u8(procType),
		Family:            uint16(f.u8(procFamily)),
		Manufacturer:      f.str(procManufacturer, "manufacturer"),
		ID:                f.u64(procID),
		Version:           f.str(procVersion, "version"),
		Voltage:           voltage(f.u8(procVoltage)),
		ExternalClock:     f.u16(procExternalClock),
		MaxSpeed:          f.u16(procMaxSpeed),
		CurrentSpeed:      f.u16(procCurrentSpeed),
		Upgrade:           f.u8(procUpgrade),
		SerialNumber:      f.str(procSerialNumber, "serial number"),
		AssetTag:          f.str(procAssetTag, "asset tag"),
		PartNumber:        f.str(procPartNumber, "part number"),
	}

	if p.Family == familyUseFamily2 && f.rec.Has(procFamily2, 2) {
		p.Family = f.u16(procFamily2)
	}

	status := f.u8(procStatus)
	p.Populated = status&statusPopulated != 0
	p.Status = status & statusCPUMask

	// Low nibble of the EAX signature.
	p.Stepping = uint8(p.ID) & 0x0F

	p.CoreCount = count(f, procCoreCount, procCoreCount2)
	p.EnabledCores = count(f, procCoreEnabled, procCoreEnabled2)
	p.ThreadCount = count(f, procThreadCount, procThreadCount2)

	chars := f.u16(procCharacteristics)
	p.Is64Bit = chars&char64Bit != 0
	p.HyperthreadCapable = chars&charMultiThread != 0
	p.VirtualizationCapable = chars&charVirtualization != 0
	p.HyperthreadEnabled = p.ThreadCount > p.CoreCount

	f.log.Trace().
		Uint16("handle", p.Handle).
		Str("socket", p.SocketDesignation).
		Uint16("family", p.Family).
		Uint16("cores", p.CoreCount).
		Uint16("threads", p.ThreadCount).
		Msg("processor")

	return p
}

// count reads a core or thread count. 0xFF in the byte field defers to the
// 16-bit field added in SMBIOS 3.0.
func count(f fields, off, extOff int) uint16 {
	n := f.u8(off)
	if n == countUseExtended && f.rec.Has(extOff, 2) {
		return f.u16(extOff)
	}
	return uint16(n)
}

// voltage decodes the voltage byte: bit 7 selects a value in tenths of a
// volt, otherwise bits 0-2 flag the legacy 5V, 3.3V and 2.9V levels.
func voltage(v uint8) float64 {
	if v&0x80 != 0 {
		return float64(v&0x7F) / 10
	}

	switch {
	case v&0x01 != 0:
		return 5.0
	case v&0x02 != 0:
		return 3.3
	case v&0x04 != 0:
		return 2.9
	}
	return 0
}
