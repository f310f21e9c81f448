//go:build !linux && !windows

package platform

import (
	"runtime"

	"github.com/spf13/afero"
)

// Detect probes fs for a memory device. illumos and Solaris expose the BIOS
// area through /dev/xsvc, the BSDs through /dev/mem.
func Detect(fs afero.Fs, sysfsDir string) Info {
	return Info{
		OS:           runtime.GOOS,
		NumCPU:       runtime.NumCPU(),
		SysfsDir:     sysfsDir,
		SysfsTables:  sysfsTables(fs, sysfsDir),
		MemoryDevice: firstDevice(fs, "/dev/xsvc", "/dev/mem"),
	}
}
