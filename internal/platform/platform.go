// Package platform reports which SMBIOS sources the running host offers.
package platform

import (
	"path"

	"github.com/spf13/afero"
)

// Source names, matching the config values.
const (
	SourceSysfs  = "sysfs"
	SourceMemory = "memory"
	SourceWMI    = "wmi"
)

type Info struct {
	OS     string
	NumCPU int

	// Linux exports the entry point and table under /sys/firmware/dmi/tables.
	SysfsTables bool
	SysfsDir    string

	// Physical memory device for scanning the legacy BIOS window.
	MemoryDevice string

	// Windows exposes the raw table through WMI.
	HasWMI bool

	// Device-tree boards (Raspberry Pi and friends) usually carry no SMBIOS.
	DeviceTreeModel string
}

// Sources lists the usable sources in order of preference.
func (i Info) Sources() []string {
	var out []string
	if i.SysfsTables {
		out = append(out, SourceSysfs)
	}
	if i.MemoryDevice != "" {
		out = append(out, SourceMemory)
	}
	if i.HasWMI {
		out = append(out, SourceWMI)
	}
	return out
}

// firstDevice returns the first candidate that exists on fs.
func firstDevice(fs afero.Fs, candidates ...string) string {
	for _, c := range candidates {
		if fileExists(fs, c) {
			return c
		}
	}
	return ""
}

func sysfsTables(fs afero.Fs, dir string) bool {
	return fileExists(fs, path.Join(dir, "smbios_entry_point")) &&
		fileExists(fs, path.Join(dir, "DMI"))
}

func fileExists(fs afero.Fs, p string) bool {
	ok, err := afero.Exists(fs, p)
	return err == nil && ok
}
