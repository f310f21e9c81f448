package collector

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/nhdewitt/dmiscan/internal/inventory"
	"github.com/nhdewitt/dmiscan/internal/protocol"
	"github.com/nhdewitt/dmiscan/internal/smbios"
)

// lastInventory holds the most recent successful collection so host info
// can report hardware identity without walking the table again.
var lastInventory atomic.Pointer[inventory.Inventory]

// LastInventory returns the cached inventory or nil if no SMBIOS collector
// has completed yet.
func LastInventory() *inventory.Inventory {
	return lastInventory.Load()
}

// MakeSMBIOSCollector returns a CollectFunc that reads a fresh snapshot from
// src on every run and emits the BIOS, computer system and processor
// metrics followed by host info.
func MakeSMBIOSCollector(src smbios.Source, log zerolog.Logger) CollectFunc {
	log = log.With().Str("source", src.Name()).Logger()

	return func(ctx context.Context) ([]protocol.Metric, error) {
		inv, err := inventory.Collect(ctx, src, log)
		if err != nil {
			return nil, err
		}
		lastInventory.Store(inv)

		return append(inv.Metrics(), CollectHostInfo(inv)), nil
	}
}
