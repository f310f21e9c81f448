//go:build windows

package platform

import (
	"runtime"

	"github.com/spf13/afero"
)

// Detect reports WMI as the only source; fs and sysfsDir are unused.
func Detect(_ afero.Fs, _ string) Info {
	return Info{
		OS:     runtime.GOOS,
		NumCPU: runtime.NumCPU(),
		HasWMI: true,
	}
}
