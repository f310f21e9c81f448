package collector

import (
	"fmt"
	"os"
	"runtime"

	"github.com/nhdewitt/dmiscan/internal/inventory"
	"github.com/nhdewitt/dmiscan/internal/protocol"
)

// AgentVersion is reported in HostInfo and by "dmiscan version".
const AgentVersion = "0.1.0"

// CollectHostInfo describes this host. Hardware identity comes from inv,
// which may be nil.
func CollectHostInfo(inv *inventory.Inventory) protocol.HostInfo {
	platform, platVer := getPlatformInfo()

	info := protocol.HostInfo{
		Hostname: getHostname(),
		OS:       runtime.GOOS,
		Platform: platform,
		PlatVer:  platVer,
		Kernel:   getKernel(),
		Arch:     runtime.GOARCH,
		AgentVer: AgentVersion,
	}

	if inv == nil {
		return info
	}

	cs := inv.ComputerSystem
	info.Manufacturer = cs.Manufacturer
	info.Model = cs.Model
	info.SerialNumber = cs.SerialNumber
	info.UUID = cs.UUID
	if inv.EntryPoint.Present {
		info.SMBIOS = fmt.Sprintf("%d.%d", inv.EntryPoint.MajorVersion, inv.EntryPoint.MinorVersion)
	}

	return info
}

func getHostname() string {
	h, _ := os.Hostname()
	return h
}
