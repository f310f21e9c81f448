package smbios

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Locator finds the entry point in a legacy memory window and reads the
// structure table it points to.
type Locator struct {
	mem   MemoryReader
	start int64
	end   int64
	log   zerolog.Logger
}

// NewLocator scans the inclusive window [start, end] of mem.
func NewLocator(mem MemoryReader, start, end int64, log zerolog.Logger) *Locator {
	return &Locator{mem: mem, start: start, end: end, log: log}
}

// EntryPoint reads the window and scans it for the entry point. An
// unreadable window is routine and yields a zero EntryPoint and nil error;
// a corrupt entry point is returned as an error.
func (l *Locator) EntryPoint(ctx context.Context) (EntryPoint, error) {
	if err := ctx.Err(); err != nil {
		return EntryPoint{}, err
	}
	if l.end < l.start {
		return EntryPoint{}, errors.Errorf("smbios: empty scan window %#x-%#x", l.start, l.end)
	}

	window := make([]byte, l.end-l.start+1)
	if err := l.mem.ReadMemory(l.start, window); err != nil {
		l.log.Info().Err(err).Int64("start", l.start).Int64("end", l.end).Msg("SMBIOS window not readable")
		return EntryPoint{}, nil
	}

	return ScanEntryPoint(window, l.log)
}

// Table reads exactly ep.TableLength bytes at ep.TableAddress.
func (l *Locator) Table(ctx context.Context, ep EntryPoint) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !ep.Present {
		return nil, ErrNotPresent
	}
	if ep.TableLength < 1 {
		return nil, errors.Wrap(ErrBrokenTable, "entry point declares an empty table")
	}

	buf := make([]byte, ep.TableLength)
	if err := l.mem.ReadMemory(int64(ep.TableAddress), buf); err != nil {
		return nil, errors.Wrapf(err, "structure table at %#x", ep.TableAddress)
	}
	return buf, nil
}
