package smbios

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Source yields an entry point together with the raw structure table it
// describes. Sources return an error matching IsAbsent when the host simply
// does not expose SMBIOS through them.
type Source interface {
	Name() string
	Load(ctx context.Context) (EntryPoint, []byte, error)
}

// Well-known file names under /sys/firmware/dmi/tables.
const (
	SysfsDir        = "/sys/firmware/dmi/tables"
	SysfsEntryPoint = "smbios_entry_point"
	SysfsTable      = "DMI"
)

// LegacySource scans the BIOS ROM window of a memory device.
type LegacySource struct {
	loc *Locator
}

func NewLegacySource(mem MemoryReader, start, end int64, log zerolog.Logger) *LegacySource {
	return &LegacySource{loc: NewLocator(mem, start, end, log)}
}

func (s *LegacySource) Name() string { return "memory" }

func (s *LegacySource) Load(ctx context.Context) (EntryPoint, []byte, error) {
	ep, err := s.loc.EntryPoint(ctx)
	if err != nil {
		return EntryPoint{}, nil, err
	}
	if !ep.Present {
		return EntryPoint{}, nil, errors.Wrap(ErrNotPresent, "no _SM_ anchor in window")
	}

	table, err := s.loc.Table(ctx, ep)
	if err != nil {
		return EntryPoint{}, nil, err
	}
	return ep, table, nil
}

// FileSource reads an entry point and a table from two files, as laid out
// by the kernel in sysfs or by a raw dump.
type FileSource struct {
	fs        afero.Fs
	entryPath string
	tablePath string
	log       zerolog.Logger
}

func NewFileSource(fs afero.Fs, entryPath, tablePath string, log zerolog.Logger) *FileSource {
	return &FileSource{fs: fs, entryPath: entryPath, tablePath: tablePath, log: log}
}

// NewSysfsSource reads the tables the kernel exports under dir.
func NewSysfsSource(fs afero.Fs, dir string, log zerolog.Logger) *FileSource {
	return NewFileSource(fs, filepath.Join(dir, SysfsEntryPoint), filepath.Join(dir, SysfsTable), log)
}

func (s *FileSource) Name() string { return "file:" + filepath.Dir(s.tablePath) }

func (s *FileSource) Load(ctx context.Context) (EntryPoint, []byte, error) {
	if err := ctx.Err(); err != nil {
		return EntryPoint{}, nil, err
	}

	raw, err := afero.ReadFile(s.fs, s.entryPath)
	if err != nil {
		return EntryPoint{}, nil, errors.Wrapf(ErrNotPresent, "read %s: %v", s.entryPath, err)
	}

	ep, err := ParseEntryPoint(raw)
	if err != nil {
		s.log.Warn().Err(err).Str("path", s.entryPath).Msg("invalid SMBIOS entry point")
		return EntryPoint{}, nil, err
	}

	table, err := afero.ReadFile(s.fs, s.tablePath)
	if err != nil {
		return EntryPoint{}, nil, errors.Wrapf(ErrNotPresent, "read %s: %v", s.tablePath, err)
	}

	// _SM_ gives the exact table length, _SM3_ only an upper bound.
	if ep.Anchor == string(anchor32) && len(table) < int(ep.TableLength) {
		return EntryPoint{}, nil, errors.Wrapf(ErrShortRead, "%s: got %d of %d bytes", s.tablePath, len(table), ep.TableLength)
	}
	if len(table) == 0 {
		return EntryPoint{}, nil, errors.Wrapf(ErrBrokenTable, "%s is empty", s.tablePath)
	}

	s.log.Debug().
		Str("anchor", ep.Anchor).
		Int("version", ep.Version()).
		Int("bytes", len(table)).
		Msg("loaded SMBIOS table from files")

	return ep, table, nil
}

// AutoSource tries each source in turn and returns the first table found.
// A source that reports absence or malformed data is skipped.
type AutoSource struct {
	sources []Source
	log     zerolog.Logger
}

func NewAutoSource(log zerolog.Logger, sources ...Source) *AutoSource {
	return &AutoSource{sources: sources, log: log}
}

func (s *AutoSource) Name() string { return "auto" }

// Load returns ErrNotPresent if every source was absent, otherwise the last
// malformed-data error seen.
func (s *AutoSource) Load(ctx context.Context) (EntryPoint, []byte, error) {
	var last error
	for _, src := range s.sources {
		ep, table, err := src.Load(ctx)
		if err == nil {
			s.log.Debug().Str("source", src.Name()).Msg("SMBIOS source selected")
			return ep, table, nil
		}
		if ctx.Err() != nil {
			return EntryPoint{}, nil, ctx.Err()
		}

		if IsAbsent(err) {
			s.log.Debug().Err(err).Str("source", src.Name()).Msg("SMBIOS source unavailable")
			continue
		}
		s.log.Warn().Err(err).Str("source", src.Name()).Msg("SMBIOS source returned malformed data")
		last = err
	}

	if last != nil {
		return EntryPoint{}, nil, last
	}
	return EntryPoint{}, nil, ErrNotPresent
}
