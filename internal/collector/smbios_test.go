package collector

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhdewitt/dmiscan/internal/protocol"
	"github.com/nhdewitt/dmiscan/internal/smbios"
	"github.com/nhdewitt/dmiscan/internal/smbios/smbiostest"
)

func systemTable() *smbiostest.Table {
	sys := make([]byte, 0x19)
	sys[0x04] = 1 // manufacturer
	sys[0x05] = 2 // product
	sys[0x07] = 3 // serial
	for i := range 16 {
		sys[0x08+i] = byte(i)
	}

	return (&smbiostest.Table{}).
		Add(smbios.TypeSystemInformation, 0x0100, sys[4:], "Acme", "Rack 1U", "SN-42").
		End()
}

func TestMakeSMBIOSCollector(t *testing.T) {
	fs := afero.NewMemMapFs()
	tb := systemTable()
	require.NoError(t, smbios.WriteDump(fs, "/dump", tb.EntryPoint(3, 2, 0x000E0000), tb.Bytes()))

	collect := MakeSMBIOSCollector(smbios.NewSysfsSource(fs, "/dump", zerolog.Nop()), zerolog.Nop())
	metrics, err := collect(context.Background())
	require.NoError(t, err)

	var types []string
	for _, m := range metrics {
		types = append(types, m.MetricType())
	}
	assert.Equal(t, []string{"smbios_entry_point", "bios", "computer_system", "processor_list", "host_info"}, types)

	host, ok := metrics[len(metrics)-1].(protocol.HostInfo)
	require.True(t, ok)
	assert.Equal(t, "Acme", host.Manufacturer)
	assert.Equal(t, "Rack 1U", host.Model)
	assert.Equal(t, "SN-42", host.SerialNumber)
	assert.Equal(t, "3.2", host.SMBIOS)
	assert.Equal(t, "03020100-0504-0706-0809-0a0b0c0d0e0f", host.UUID)
	assert.Equal(t, AgentVersion, host.AgentVer)

	require.NotNil(t, LastInventory())
	assert.Equal(t, "Acme", LastInventory().ComputerSystem.Manufacturer)
}

func TestMakeSMBIOSCollectorAbsent(t *testing.T) {
	collect := MakeSMBIOSCollector(smbios.NewSysfsSource(afero.NewMemMapFs(), "/none", zerolog.Nop()), zerolog.Nop())

	metrics, err := collect(context.Background())
	require.NoError(t, err)
	require.Len(t, metrics, 5)

	bios, ok := metrics[1].(protocol.BIOSMetric)
	require.True(t, ok)
	assert.False(t, bios.SMBIOSPresent)

	host := metrics[4].(protocol.HostInfo)
	assert.Empty(t, host.SMBIOS)
}

func TestMakeSMBIOSCollectorMalformed(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad/smbios_entry_point", []byte("_SM3_xx"), 0o644))

	collect := MakeSMBIOSCollector(smbios.NewSysfsSource(fs, "/bad", zerolog.Nop()), zerolog.Nop())
	_, err := collect(context.Background())
	assert.Error(t, err)
}

func TestCollectHostInfoWithoutInventory(t *testing.T) {
	info := CollectHostInfo(nil)

	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
	assert.Empty(t, info.Manufacturer)
	assert.Equal(t, "host_info", info.MetricType())
}
