package inventory

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nhdewitt/dmiscan/internal/protocol"
	"github.com/nhdewitt/dmiscan/internal/smbios"
)

// Inventory is everything decoded from one snapshot.
type Inventory struct {
	EntryPoint     protocol.EntryPointMetric     `json:"entry_point" yaml:"entry_point"`
	BIOS           protocol.BIOSMetric           `json:"bios" yaml:"bios"`
	ComputerSystem protocol.ComputerSystemMetric `json:"computer_system" yaml:"computer_system"`
	Processors     []protocol.ProcessorMetric    `json:"processors" yaml:"processors"`
}

// Collect loads one snapshot from src and runs every consumer over it.
func Collect(ctx context.Context, src smbios.Source, log zerolog.Logger) (*Inventory, error) {
	snap, err := Load(ctx, src, log)
	if err != nil {
		return nil, errors.Wrapf(err, "load SMBIOS from %s", src.Name())
	}
	return FromSnapshot(snap, log), nil
}

// FromSnapshot decodes an already loaded snapshot. A record that breaks the
// table walk is logged and ends that consumer; whatever was decoded before it
// is kept.
func FromSnapshot(snap *Snapshot, log zerolog.Logger) *Inventory {
	inv := &Inventory{EntryPoint: snap.EntryPointMetric()}

	var err error
	inv.BIOS, err = ReadBIOS(snap, log)
	warnPartial(log, snap, "BIOS", err)

	inv.ComputerSystem, err = ReadComputerSystem(snap, log)
	warnPartial(log, snap, "computer system", err)

	procs, err := ReadProcessors(snap, log)
	warnPartial(log, snap, "processors", err)
	inv.Processors = procs.Processors

	return inv
}

func warnPartial(log zerolog.Logger, snap *Snapshot, what string, err error) {
	if err == nil {
		return
	}
	log.Warn().
		Err(err).
		Str("source", snap.Source).
		Str("consumer", what).
		Msg("SMBIOS table is damaged, returning partial data")
}

// Metrics returns the inventory as individual metrics.
func (inv *Inventory) Metrics() []protocol.Metric {
	return []protocol.Metric{
		inv.EntryPoint,
		inv.BIOS,
		inv.ComputerSystem,
		protocol.ProcessorListMetric{Processors: inv.Processors},
	}
}
