package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/nhdewitt/dmiscan/internal/inventory"
	"github.com/nhdewitt/dmiscan/internal/protocol"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// outputFormat returns the requested format, or table when stdout is a
// terminal and JSON otherwise.
func outputFormat(requested string) (string, error) {
	switch requested {
	case outputTable, outputJSON, outputYAML:
		return requested, nil
	case "":
		if term.IsTerminal(int(os.Stdout.Fd())) {
			return outputTable, nil
		}
		return outputJSON, nil
	}
	return "", errors.Errorf("unknown output format %q", requested)
}

// render writes v as JSON or YAML. Table output is handled by the callers
// since each value has its own layout.
func render(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return errors.Errorf("format %q not supported here", format)
}

func renderInventory(w io.Writer, format string, inv *inventory.Inventory) error {
	if format != outputTable {
		return render(w, format, inv)
	}

	sections := []string{
		entryPointTable(inv.EntryPoint),
		biosTable(inv.BIOS),
		computerSystemTable(inv.ComputerSystem),
		processorTable(inv.Processors),
	}
	_, err := fmt.Fprintln(w, strings.Join(sections, "\n\n"))
	return err
}

func renderEntryPoint(w io.Writer, format string, ep protocol.EntryPointMetric) error {
	if format != outputTable {
		return render(w, format, ep)
	}
	_, err := fmt.Fprintln(w, entryPointTable(ep))
	return err
}

func keyValueTable(title string, rows []table.Row) string {
	t := table.NewWriter()
	t.SetTitle(title)
	for _, r := range rows {
		t.AppendRow(r)
	}
	t.SetStyle(table.StyleLight)
	return t.Render()
}

func entryPointTable(ep protocol.EntryPointMetric) string {
	if !ep.Present {
		return keyValueTable("SMBIOS", []table.Row{{"Present", false}})
	}
	return keyValueTable("SMBIOS", []table.Row{
		{"Present", true},
		{"Source", ep.Source},
		{"Anchor", ep.Anchor},
		{"Version", fmt.Sprintf("%d.%d", ep.MajorVersion, ep.MinorVersion)},
		{"Table address", fmt.Sprintf("%#010x", ep.TableAddress)},
		{"Table length", ep.TableLength},
		{"Structures", ep.StructureCount},
	})
}

func biosTable(b protocol.BIOSMetric) string {
	chars := make([]string, 0, len(b.Characteristics))
	for _, c := range b.Characteristics {
		chars = append(chars, fmt.Sprint(c))
	}

	var installed string
	if b.InstallDate != nil {
		installed = b.InstallDate.Format("2006-01-02")
	}

	return keyValueTable("BIOS", []table.Row{
		{"Name", b.Name},
		{"Manufacturer", b.Manufacturer},
		{"SMBIOS BIOS version", b.SMBIOSBIOSVersion},
		{"Release date", b.ReleaseDate},
		{"Install date", installed},
		{"Version", b.Version},
		{"ROM size", b.ROMSize},
		{"System BIOS release", b.SystemRelease},
		{"Firmware release", b.FirmwareRelease},
		{"Characteristics", strings.Join(chars, " ")},
		{"Installable languages", b.InstallableLanguages},
		{"Current language", b.CurrentLanguage},
	})
}

func computerSystemTable(cs protocol.ComputerSystemMetric) string {
	return keyValueTable("Computer System", []table.Row{
		{"Manufacturer", cs.Manufacturer},
		{"Model", cs.Model},
		{"Serial number", cs.SerialNumber},
		{"UUID", cs.UUID},
		{"SKU", cs.SKU},
		{"Family", cs.Family},
		{"Wake-up type", cs.WakeUpType},
		{"Chassis type", cs.ChassisType},
		{"Bootup state", cs.ChassisBootupState},
		{"Power supply state", cs.PowerSupplyState},
		{"Thermal state", cs.ThermalState},
		{"Automatic reset", cs.AutomaticResetCapability},
		{"Boot option on limit", cs.BootOptionOnLimit},
		{"Boot option on watchdog", cs.BootOptionOnWatchdog},
		{"Reset count", cs.ResetCount},
		{"Reset limit", cs.ResetLimit},
	})
}

func processorTable(procs []protocol.ProcessorMetric) string {
	t := table.NewWriter()
	t.SetTitle("Processors")
	t.AppendHeader(table.Row{
		"Socket",
		"Manufacturer",
		"Version",
		"Family",
		"Stepping",
		"Cores",
		"Enabled",
		"Threads",
		"Max MHz",
		"Current MHz",
		"Voltage",
		"Populated",
		"64-bit",
		"HT",
		"VT",
	})

	for _, p := range procs {
		t.AppendRow(table.Row{
			p.SocketDesignation,
			p.Manufacturer,
			p.Version,
			p.Family,
			p.Stepping,
			p.CoreCount,
			p.EnabledCores,
			p.ThreadCount,
			p.MaxSpeed,
			p.CurrentSpeed,
			fmt.Sprintf("%.1fV", p.Voltage),
			p.Populated,
			p.Is64Bit,
			p.HyperthreadEnabled,
			p.VirtualizationCapable,
		})
	}

	t.SetStyle(table.StyleLight)
	return t.Render()
}
