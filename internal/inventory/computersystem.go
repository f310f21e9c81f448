package inventory

import (
	"bytes"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhdewitt/dmiscan/internal/protocol"
	"github.com/nhdewitt/dmiscan/internal/smbios"
)

// System Information (type 1) layout.
const (
	sysManufacturer = 0x04
	sysProductName  = 0x05
	sysSerialNumber = 0x07
	sysUUID         = 0x08
	sysWakeUpType   = 0x18
	sysSKU          = 0x19
	sysFamily       = 0x1A
)

// System Enclosure (type 3) layout.
const (
	chassisType             = 0x05
	chassisBootupState      = 0x09
	chassisPowerSupplyState = 0x0A
	chassisThermalState     = 0x0B

	chassisTypeMask       = 0x7F
	chassisTypePeripheral = 0x15
)

// System Reset (type 23) layout.
const (
	resetCapabilities = 0x04
	resetCount        = 0x05
	resetLimit        = 0x07
)

// ReadComputerSystem decodes the System Information, System Enclosure and
// System Reset records.
func ReadComputerSystem(s *Snapshot, log zerolog.Logger) (protocol.ComputerSystemMetric, error) {
	var m protocol.ComputerSystemMetric
	if !s.Present() {
		return m, nil
	}

	ep := s.EntryPoint
	err := s.Table.Walk(func(r smbios.Record) error {
		f := fields{rec: r, log: log}

		switch r.Type {
		case smbios.TypeSystemInformation:
			readSystemInformation(f, ep, &m)
		case smbios.TypeSystemEnclosure:
			readSystemEnclosure(f, &m)
		case smbios.TypeSystemReset:
			readSystemReset(f, &m)
		}
		return nil
	})

	return m, err
}

func readSystemInformation(f fields, ep smbios.EntryPoint, m *protocol.ComputerSystemMetric) {
	m.Manufacturer = f.str(sysManufacturer, "manufacturer")
	m.Model = f.str(sysProductName, "product name")
	m.SerialNumber = f.str(sysSerialNumber, "serial number")
	m.WakeUpType = f.u8(sysWakeUpType)
	m.SKU = f.str(sysSKU, "SKU")
	m.Family = f.str(sysFamily, "family")

	if raw, err := f.rec.Bytes(sysUUID, 16); err == nil {
		if id, ok := systemUUID(raw, ep); ok {
			m.UUID = id.String()
		}
	}

	f.log.Trace().
		Str("manufacturer", m.Manufacturer).
		Str("model", m.Model).
		Uint8("wake_up_type", m.WakeUpType).
		Msg("system information")
}

// systemUUID decodes the 16-byte UUID field. From SMBIOS 2.6 on the first
// three fields are stored little-endian. All-zero and all-0xFF values mean
// the UUID is not set.
func systemUUID(raw []byte, ep smbios.EntryPoint) (uuid.UUID, bool) {
	if bytes.Count(raw, []byte{0x00}) == len(raw) || bytes.Count(raw, []byte{0xFF}) == len(raw) {
		return uuid.Nil, false
	}

	b := make([]byte, 16)
	copy(b, raw)
	if ep.AtLeast(2, 6) {
		b[0], b[1], b[2], b[3] = b[3], b[2], b[1], b[0]
		b[4], b[5] = b[5], b[4]
		b[6], b[7] = b[7], b[6]
	}

	id, err := uuid.FromBytes(b)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func readSystemEnclosure(f fields, m *protocol.ComputerSystemMetric) {
	typ := f.u8(chassisType) & chassisTypeMask
	f.log.Trace().Uint8("chassis_type", typ).Uint16("handle", f.rec.Handle).Msg("system enclosure")

	// Peripheral enclosures do not describe the system chassis.
	if typ == chassisTypePeripheral {
		return
	}

	m.ChassisType = typ
	m.ChassisBootupState = f.u8(chassisBootupState)
	m.PowerSupplyState = f.u8(chassisPowerSupplyState)
	m.ThermalState = f.u8(chassisThermalState)
}

func readSystemReset(f fields, m *protocol.ComputerSystemMetric) {
	caps := f.u8(resetCapabilities)

	m.AutomaticResetCapability = caps&0x01 != 0
	m.BootOptionOnLimit = bootOption(caps >> 3)
	m.BootOptionOnWatchdog = bootOption(caps >> 1)
	m.ResetCount = f.u16(resetCount)
	m.ResetLimit = f.u16(resetLimit)

	f.log.Trace().
		Uint8("capabilities", caps).
		Uint16("reset_count", m.ResetCount).
		Uint16("reset_limit", m.ResetLimit).
		Msg("system reset")
}

// bootOption maps a two-bit boot option field (00b..11b) to its value.
func bootOption(bits uint8) protocol.BootOption {
	return protocol.BootOption(bits&0x03) + protocol.BootOptionReserved
}
