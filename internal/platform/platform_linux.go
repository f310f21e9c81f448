//go:build linux

package platform

import (
	"runtime"
	"strings"

	"github.com/spf13/afero"
)

// Detect probes fs for the sysfs tables under sysfsDir, /dev/mem and a
// device-tree model.
func Detect(fs afero.Fs, sysfsDir string) Info {
	info := Info{
		OS:       runtime.GOOS,
		NumCPU:   runtime.NumCPU(),
		SysfsDir: sysfsDir,
	}

	info.SysfsTables = sysfsTables(fs, sysfsDir)
	info.MemoryDevice = firstDevice(fs, "/dev/mem")
	info.DeviceTreeModel = detectDeviceTree(fs)

	return info
}

func detectDeviceTree(fs afero.Fs) string {
	data, err := afero.ReadFile(fs, "/proc/device-tree/model")
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(data), "\x00\n")
}
