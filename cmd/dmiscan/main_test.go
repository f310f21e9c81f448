package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/nhdewitt/dmiscan/internal/config"
	"github.com/nhdewitt/dmiscan/internal/inventory"
	"github.com/nhdewitt/dmiscan/internal/platform"
	"github.com/nhdewitt/dmiscan/internal/protocol"
	"github.com/nhdewitt/dmiscan/internal/smbios"
	"github.com/nhdewitt/dmiscan/internal/smbios/smbiostest"
)

func init() {
	logger = zerolog.Nop()
}

func biosTableBytes() *smbiostest.Table {
	bios := make([]byte, 0x18)
	bios[0x04] = 1 // vendor
	bios[0x05] = 2 // version
	bios[0x08] = 3 // release date
	bios[0x09] = 0x0F

	proc := make([]byte, 0x28)
	proc[0x04] = 1 // socket
	proc[0x06] = 0x6B
	proc[0x07] = 2 // manufacturer
	proc[0x18] = 0x41
	proc[0x23] = 8
	proc[0x24] = 8
	proc[0x25] = 16

	return (&smbiostest.Table{}).
		Add(smbios.TypeBIOSInformation, 0x0000, bios[4:], "Acme", "1.2.3", "03/15/2021").
		Add(smbios.TypeProcessor, 0x0004, proc[4:], "CPU0", "AuthenticAMD").
		End()
}

func dumpDir(t *testing.T) (afero.Fs, string) {
	t.Helper()
	fs := afero.NewMemMapFs()
	tb := biosTableBytes()
	require.NoError(t, smbios.WriteDump(fs, "/dump", tb.EntryPoint(2, 7, 0x000F1000), tb.Bytes()))
	return fs, "/dump"
}

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer

	l := setupLogger(&buf, zerolog.InfoLevel, false, false)
	l.Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	l = setupLogger(&buf, zerolog.InfoLevel, true, false)
	l.Debug().Msg("shown")
	assert.Contains(t, buf.String(), "shown")

	l = setupLogger(&buf, zerolog.InfoLevel, false, true)
	assert.Equal(t, zerolog.TraceLevel, l.GetLevel())
}

func TestApplyFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringVar(&sourceFlag, "source", "", "")
	flags.StringVar(&deviceFlag, "device", "", "")
	flags.StringVar(&fromDir, "from", "", "")
	flags.Duration("interval", time.Minute, "")

	require.NoError(t, flags.Parse([]string{"--device", "/dev/xsvc", "--from", "/tmp/dump", "--interval", "30s"}))

	c := config.Default()
	require.NoError(t, applyFlags(flags, &c))

	assert.Equal(t, config.SourceSysfs, c.Source)
	assert.Equal(t, "/tmp/dump", c.SysfsDir)
	assert.Equal(t, "/dev/xsvc", c.Device)
	assert.Equal(t, 30*time.Second, c.Interval)
}

func TestApplyFlagsInvalid(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.StringVar(&sourceFlag, "source", "", "")
	require.NoError(t, flags.Parse([]string{"--source", "floppy"}))

	c := config.Default()
	assert.Error(t, applyFlags(flags, &c))
}

func TestOutputFormat(t *testing.T) {
	for _, f := range []string{outputTable, outputJSON, outputYAML} {
		got, err := outputFormat(f)
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}

	_, err := outputFormat("xml")
	assert.Error(t, err)

	// go test's stdout is not a terminal
	got, err := outputFormat("")
	require.NoError(t, err)
	assert.Equal(t, outputJSON, got)
}

func collectDump(t *testing.T) *inventory.Inventory {
	t.Helper()
	fs, dir := dumpDir(t)
	inv, err := inventory.Collect(context.Background(), smbios.NewSysfsSource(fs, dir, logger), logger)
	require.NoError(t, err)
	return inv
}

func TestRenderInventory(t *testing.T) {
	inv := collectDump(t)

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderInventory(&buf, outputJSON, inv))

		var got inventory.Inventory
		require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
		assert.Equal(t, "Acme", got.BIOS.Manufacturer)
		assert.Len(t, got.Processors, 1)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderInventory(&buf, outputYAML, inv))

		var got map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
		assert.Contains(t, got, "bios")
		assert.Contains(t, got, "processors")
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, renderInventory(&buf, outputTable, inv))

		out := buf.String()
		for _, want := range []string{"BIOS", "Acme", "Acme-20210315", "CPU0", "AuthenticAMD", "Processors"} {
			assert.Contains(t, out, want)
		}
	})
}

func TestRenderEntryPointAbsent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, renderEntryPoint(&buf, outputTable, protocol.EntryPointMetric{}))
	assert.Contains(t, buf.String(), "Present")
	assert.NotContains(t, buf.String(), "Anchor")
}

func TestBuildSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	c := config.Default()

	tests := []struct {
		source string
		name   string
	}{
		{config.SourceSysfs, "file:" + c.SysfsDir},
		{config.SourceMemory, "memory"},
		{config.SourceWMI, "wmi"},
		{config.SourceAuto, "auto"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			c.Source = tt.source
			src, err := buildSource(c, platform.Info{}, fs, logger)
			require.NoError(t, err)
			assert.Equal(t, tt.name, src.Name())
		})
	}

	c.Source = "floppy"
	_, err := buildSource(c, platform.Info{}, fs, logger)
	assert.Error(t, err)
}

func TestBuildSourceAutoReadsDump(t *testing.T) {
	fs, dir := dumpDir(t)
	c := config.Default()

	info := platform.Info{SysfsTables: true, SysfsDir: dir}
	src, err := buildSource(c, info, fs, logger)
	require.NoError(t, err)

	ep, table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ep.Present)
	assert.Equal(t, biosTableBytes().Bytes(), table)
}

func TestBuildSourceAutoLegacy(t *testing.T) {
	tb := biosTableBytes()
	mem, err := smbiostest.Image(tb.EntryPoint(2, 4, 0x1000), 0x20, tb.Bytes())
	require.NoError(t, err)

	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/dev/mem", mem.Image, 0o600))

	c := config.Default()
	src, err := buildSource(c, platform.Info{MemoryDevice: "/dev/mem"}, fs, logger)
	require.NoError(t, err)

	ep, table, err := src.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1000), ep.TableAddress)
	assert.Equal(t, tb.Bytes(), table)
}

func TestFirstOf(t *testing.T) {
	failing := smbios.MemoryReaderFunc(func(int64, []byte) error { return smbios.ErrNotPresent })
	filling := smbios.MemoryReaderFunc(func(_ int64, buf []byte) error {
		for i := range buf {
			buf[i] = 0xAB
		}
		return nil
	})

	buf := make([]byte, 4)
	require.NoError(t, firstOf(failing, filling).ReadMemory(0, buf))
	assert.Equal(t, []byte{0xAB, 0xAB, 0xAB, 0xAB}, buf)

	err := firstOf(failing).ReadMemory(0, buf)
	assert.True(t, smbios.IsAbsent(err))

	err = firstOf().ReadMemory(0, buf)
	assert.True(t, smbios.IsAbsent(err))
}

func TestWriteRaw(t *testing.T) {
	fs, dir := dumpDir(t)
	src := smbios.NewSysfsSource(fs, dir, logger)

	require.NoError(t, writeRaw(context.Background(), fs, "/out/copy", src))

	ep, table, err := smbios.NewSysfsSource(fs, "/out/copy", logger).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ep.Present)
	assert.Equal(t, biosTableBytes().Bytes(), table)
}

func TestWriteRawAbsent(t *testing.T) {
	fs := afero.NewMemMapFs()
	err := writeRaw(context.Background(), fs, "/out", smbios.NewSysfsSource(fs, "/none", logger))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no SMBIOS table")
}

func TestWatch(t *testing.T) {
	fs, dir := dumpDir(t)
	src := smbios.NewSysfsSource(fs, dir, logger)

	ctx, cancel := context.WithCancel(context.Background())
	pr, pw := io.Pipe()

	errCh := make(chan error, 1)
	go func() { errCh <- watch(ctx, pw, src, "node-1", time.Hour) }()

	sc := bufio.NewScanner(pr)
	var types []string
	for len(types) < 5 && sc.Scan() {
		var env struct {
			Type     string `json:"type"`
			Hostname string `json:"hostname"`
		}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &env))
		assert.Equal(t, "node-1", env.Hostname)
		types = append(types, env.Type)
	}
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop after cancel")
	}
	assert.Equal(t, "smbios_entry_point,bios,computer_system,processor_list,host_info", strings.Join(types, ","))
}
