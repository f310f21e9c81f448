//go:build !windows

package collector

import (
	"bufio"
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sys/unix"
)

func getPlatformInfo() (string, string) {
	f, err := os.Open("/etc/os-release")
	if err != nil {
		return runtime.GOOS, ""
	}
	defer f.Close()

	return getPlatformInfoFrom(f, runtime.GOOS)
}

// getPlatformInfoFrom reads ID and VERSION_ID from an os-release file,
// falling back to fallback when ID is missing or empty.
func getPlatformInfoFrom(r io.Reader, fallback string) (platform, version string) {
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "ID="):
			platform = strings.TrimSpace(strings.Trim(line[3:], `"`))
		case strings.HasPrefix(line, "VERSION_ID="):
			version = strings.TrimSpace(strings.Trim(line[11:], `"`))
		}

		if platform != "" && version != "" {
			break
		}
	}

	if platform == "" {
		platform = fallback
	}

	return platform, version
}

func getKernel() string {
	var uname unix.Utsname
	if err := unix.Uname(&uname); err != nil {
		return ""
	}

	return charsToString(uname.Release[:])
}

// charsToString converts a NUL-terminated C char buffer to a Go string.
func charsToString[T ~int8 | ~uint8](ca []T) string {
	buf := make([]byte, 0, len(ca))

	for _, c := range ca {
		if c == 0 {
			break
		}
		buf = append(buf, byte(c))
	}

	return string(buf)
}
