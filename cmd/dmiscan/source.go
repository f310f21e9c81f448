package main

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/nhdewitt/dmiscan/internal/config"
	"github.com/nhdewitt/dmiscan/internal/platform"
	"github.com/nhdewitt/dmiscan/internal/smbios"
)

// buildSource turns the configured source name into a smbios.Source. For
// "auto" the order comes from platform detection.
func buildSource(c config.Config, info platform.Info, fs afero.Fs, log zerolog.Logger) (smbios.Source, error) {
	switch c.Source {
	case config.SourceSysfs:
		return smbios.NewSysfsSource(fs, c.SysfsDir, log), nil
	case config.SourceMemory:
		return memorySource(c, c.Device, fs, log), nil
	case config.SourceWMI:
		return smbios.NewWMISource(log), nil
	case config.SourceAuto:
	default:
		return nil, errors.Errorf("unknown source %q", c.Source)
	}

	if info.DeviceTreeModel != "" {
		log.Debug().Str("model", info.DeviceTreeModel).Msg("device-tree board, SMBIOS is unlikely")
	}

	var sources []smbios.Source
	for _, name := range info.Sources() {
		switch name {
		case platform.SourceSysfs:
			sources = append(sources, smbios.NewSysfsSource(fs, info.SysfsDir, log))
		case platform.SourceMemory:
			dev := c.Device
			if dev == "" {
				dev = info.MemoryDevice
			}
			sources = append(sources, memorySource(c, dev, fs, log))
		case platform.SourceWMI:
			sources = append(sources, smbios.NewWMISource(log))
		}
	}

	log.Debug().Strs("order", info.Sources()).Msg("auto source")
	return smbios.NewAutoSource(log, sources...), nil
}

// memorySource scans the legacy window on dev, reading with pread first and
// falling back to mmap.
func memorySource(c config.Config, dev string, fs afero.Fs, log zerolog.Logger) smbios.Source {
	mem := firstOf(
		smbios.NewDeviceReader(fs, dev, log),
		smbios.NewMmapReader(dev, log),
	)
	return smbios.NewLegacySource(mem, c.WindowStart, c.WindowEnd, log)
}

// firstOf tries each reader in turn and returns the first success, or the
// last error.
func firstOf(readers ...smbios.MemoryReader) smbios.MemoryReader {
	return smbios.MemoryReaderFunc(func(offset int64, buf []byte) error {
		err := errors.Wrap(smbios.ErrNotPresent, "no memory reader")
		for _, r := range readers {
			if err = r.ReadMemory(offset, buf); err == nil {
				return nil
			}
		}
		return err
	})
}
