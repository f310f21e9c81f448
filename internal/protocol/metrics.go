package protocol

import (
	"encoding/json"
	"time"
)

// Metric is implemented by all metric types
type Metric interface {
	MetricType() string
}

// Envelope wraps any metric with metadata for transmission
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Hostname  string    `json:"hostname"`
	Data      Metric    `json:"data"`
}

// MarshalJSON ensures proper serialization with the concrete type
func (e Envelope) MarshalJSON() ([]byte, error) {
	type Alias Envelope
	return json.Marshal(&struct {
		Alias
		Data any `json:"data"`
	}{
		Alias: Alias(e),
		Data:  e.Data,
	})
}

// Implement the interface on each metric type
func (EntryPointMetric) MetricType() string     { return "smbios_entry_point" }
func (BIOSMetric) MetricType() string           { return "bios" }
func (ComputerSystemMetric) MetricType() string { return "computer_system" }
func (ProcessorListMetric) MetricType() string  { return "processor_list" }
func (HostInfo) MetricType() string             { return "host_info" }

// EntryPointMetric describes where the structure table was found.
type EntryPointMetric struct {
	Present        bool   `json:"present" yaml:"present"`
	Source         string `json:"source,omitempty" yaml:"source,omitempty"`
	Anchor         string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	MajorVersion   uint16 `json:"major_version" yaml:"major_version"`
	MinorVersion   uint16 `json:"minor_version" yaml:"minor_version"`
	TableAddress   uint64 `json:"table_address" yaml:"table_address"`
	TableLength    uint32 `json:"table_length" yaml:"table_length"`
	StructureCount uint16 `json:"structure_count" yaml:"structure_count"`
}

// BIOSMetric holds the BIOS Information (type 0) and BIOS Language
// (type 13) attributes.
type BIOSMetric struct {
	SMBIOSPresent      bool   `json:"smbios_present" yaml:"smbios_present"`
	SMBIOSMajorVersion uint16 `json:"smbios_major_version" yaml:"smbios_major_version"`
	SMBIOSMinorVersion uint16 `json:"smbios_minor_version" yaml:"smbios_minor_version"`

	Name              string     `json:"name,omitempty" yaml:"name,omitempty"`
	Manufacturer      string     `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	SMBIOSBIOSVersion string     `json:"smbios_bios_version,omitempty" yaml:"smbios_bios_version,omitempty"`
	ReleaseDate       string     `json:"release_date,omitempty" yaml:"release_date,omitempty"`
	InstallDate       *time.Time `json:"install_date,omitempty" yaml:"install_date,omitempty"`
	// Version is the manufacturer followed by the release date as YYYYMMDD.
	Version         string   `json:"version,omitempty" yaml:"version,omitempty"`
	Characteristics []uint16 `json:"characteristics" yaml:"characteristics"`
	ROMSize         uint64   `json:"rom_size,omitempty" yaml:"rom_size,omitempty"`
	SystemRelease   string   `json:"system_bios_release,omitempty" yaml:"system_bios_release,omitempty"`
	FirmwareRelease string   `json:"firmware_release,omitempty" yaml:"firmware_release,omitempty"`

	InstallableLanguages uint8  `json:"installable_languages" yaml:"installable_languages"`
	CurrentLanguage      string `json:"current_language,omitempty" yaml:"current_language,omitempty"`
}

// ComputerSystemMetric combines System Information (type 1), System
// Enclosure (type 3) and System Reset (type 23).
type ComputerSystemMetric struct {
	Manufacturer string `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty" yaml:"model,omitempty"`
	SerialNumber string `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	UUID         string `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	SKU          string `json:"sku,omitempty" yaml:"sku,omitempty"`
	Family       string `json:"family,omitempty" yaml:"family,omitempty"`
	WakeUpType   uint8  `json:"wake_up_type" yaml:"wake_up_type"`

	ChassisType        uint8 `json:"chassis_type" yaml:"chassis_type"`
	ChassisBootupState uint8 `json:"chassis_bootup_state" yaml:"chassis_bootup_state"`
	PowerSupplyState   uint8 `json:"power_supply_state" yaml:"power_supply_state"`
	ThermalState       uint8 `json:"thermal_state" yaml:"thermal_state"`

	AutomaticResetCapability bool       `json:"automatic_reset_capability" yaml:"automatic_reset_capability"`
	BootOptionOnLimit        BootOption `json:"boot_option_on_limit" yaml:"boot_option_on_limit"`
	BootOptionOnWatchdog     BootOption `json:"boot_option_on_watchdog" yaml:"boot_option_on_watchdog"`
	ResetCount               uint16     `json:"reset_count" yaml:"reset_count"`
	ResetLimit               uint16     `json:"reset_limit" yaml:"reset_limit"`
}

// BootOption is the action taken on reset limit or watchdog expiry.
type BootOption uint8

const (
	BootOptionUnknown BootOption = iota
	BootOptionReserved
	BootOptionOperatingSystem
	BootOptionSystemUtilities
	BootOptionDoNotReboot
)

func (b BootOption) String() string {
	switch b {
	case BootOptionReserved:
		return "Reserved"
	case BootOptionOperatingSystem:
		return "Operating System"
	case BootOptionSystemUtilities:
		return "System Utilities"
	case BootOptionDoNotReboot:
		return "Do Not Reboot"
	}
	return "Unknown"
}

// ProcessorMetric holds one Processor Information (type 4) record.
type ProcessorMetric struct {
	Handle            uint16  `json:"handle" yaml:"handle"`
	SocketDesignation string  `json:"socket_designation,omitempty" yaml:"socket_designation,omitempty"`
	Type              uint8   `json:"processor_type" yaml:"processor_type"`
	Family            uint16  `json:"family" yaml:"family"`
	Manufacturer      string  `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	ID                uint64  `json:"processor_id" yaml:"processor_id"`
	Stepping          uint8   `json:"stepping" yaml:"stepping"`
	Version           string  `json:"version,omitempty" yaml:"version,omitempty"`
	Voltage           float64 `json:"voltage,omitempty" yaml:"voltage,omitempty"`
	ExternalClock     uint16  `json:"external_clock_mhz" yaml:"external_clock_mhz"`
	MaxSpeed          uint16  `json:"max_speed_mhz" yaml:"max_speed_mhz"`
	CurrentSpeed      uint16  `json:"current_speed_mhz" yaml:"current_speed_mhz"`
	Populated         bool    `json:"populated" yaml:"populated"`
	Status            uint8   `json:"cpu_status" yaml:"cpu_status"`
	Upgrade           uint8   `json:"upgrade_method" yaml:"upgrade_method"`
	SerialNumber      string  `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	AssetTag          string  `json:"asset_tag,omitempty" yaml:"asset_tag,omitempty"`
	PartNumber        string  `json:"part_number,omitempty" yaml:"part_number,omitempty"`

	CoreCount    uint16 `json:"core_count" yaml:"core_count"`
	EnabledCores uint16 `json:"enabled_cores" yaml:"enabled_cores"`
	ThreadCount  uint16 `json:"thread_count" yaml:"thread_count"`

	Is64Bit               bool `json:"is_64bit" yaml:"is_64bit"`
	HyperthreadCapable    bool `json:"hyperthread_capable" yaml:"hyperthread_capable"`
	HyperthreadEnabled    bool `json:"hyperthread_enabled" yaml:"hyperthread_enabled"`
	VirtualizationCapable bool `json:"virtualization_capable" yaml:"virtualization_capable"`
}

// ProcessorListMetric holds all processor sockets from a single collection
type ProcessorListMetric struct {
	Processors []ProcessorMetric `json:"processors" yaml:"processors"`
}

// HostInfo identifies the host the inventory was taken on.
type HostInfo struct {
	Hostname     string `json:"hostname"`
	OS           string `json:"os"`
	Platform     string `json:"platform,omitempty"`
	PlatVer      string `json:"platform_version,omitempty"`
	Kernel       string `json:"kernel,omitempty"`
	Arch         string `json:"arch"`
	Manufacturer string `json:"manufacturer,omitempty"`
	Model        string `json:"model,omitempty"`
	SerialNumber string `json:"serial_number,omitempty"`
	UUID         string `json:"uuid,omitempty"`
	SMBIOS       string `json:"smbios_version,omitempty"`
	AgentVer     string `json:"agent_version"`
}
