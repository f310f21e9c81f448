// Package config loads dmiscan settings from defaults, an optional env file
// and the process environment.
package config

import (
	"bytes"
	"os"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	env "github.com/hashicorp/go-envparse"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/nhdewitt/dmiscan/internal/smbios"
)

// Prefix is prepended to every configuration key.
const Prefix = "DMISCAN_"

// Table sources.
const (
	SourceAuto   = "auto"
	SourceSysfs  = "sysfs"
	SourceMemory = "memory"
	SourceWMI    = "wmi"
)

// Config holds all runtime settings.
type Config struct {
	Source      string
	Device      string
	WindowStart int64
	WindowEnd   int64
	SysfsDir    string
	Interval    time.Duration
	LogLevel    string
	Hostname    string
}

// Default returns the built-in settings for this platform.
func Default() Config {
	host, _ := os.Hostname()

	return Config{
		Source:      SourceAuto,
		Device:      DefaultDevice(runtime.GOOS),
		WindowStart: smbios.WindowStart,
		WindowEnd:   smbios.WindowEnd,
		SysfsDir:    smbios.SysfsDir,
		Interval:    5 * time.Minute,
		LogLevel:    zerolog.LevelInfoValue,
		Hostname:    host,
	}
}

// DefaultDevice returns the physical memory device for goos.
func DefaultDevice(goos string) string {
	switch goos {
	case "illumos", "solaris":
		return "/dev/xsvc"
	case "windows":
		return ""
	}
	return "/dev/mem"
}

// Load starts from Default, applies the env file at path (if path is not
// empty) and then any DMISCAN_* variables returned by getenv.
func Load(fs afero.Fs, path string, getenv func(string) string) (Config, error) {
	cfg := Default()

	if path != "" {
		content, err := afero.ReadFile(fs, path)
		if err != nil {
			return Config{}, errors.Wrap(err, "failed to open config file")
		}
		if err := cfg.ApplyFile(content); err != nil {
			return Config{}, errors.Wrapf(err, "config file %s", path)
		}
	}

	if getenv != nil {
		if err := cfg.ApplyEnv(getenv); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyFile applies KEY=value lines. Unknown keys are rejected.
func (c *Config) ApplyFile(content []byte) error {
	configMap, err := env.Parse(bytes.NewReader(content))
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	// Apply in a stable order so errors are deterministic.
	keys := make([]string, 0, len(configMap))
	for k := range configMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := c.Set(key, configMap[key]); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv applies every known key that getenv returns a value for.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for _, key := range Keys() {
		if v := getenv(key); v != "" {
			if err := c.Set(key, v); err != nil {
				return errors.Wrap(err, "environment")
			}
		}
	}
	return nil
}

// Keys lists the accepted configuration keys.
func Keys() []string {
	return []string{
		Prefix + "SOURCE",
		Prefix + "DEVICE",
		Prefix + "WINDOW_START",
		Prefix + "WINDOW_END",
		Prefix + "SYSFS_DIR",
		Prefix + "INTERVAL",
		Prefix + "LOG_LEVEL",
		Prefix + "HOSTNAME",
	}
}

// Set assigns one key.
func (c *Config) Set(key, value string) error {
	if !strings.HasPrefix(key, Prefix) {
		return errors.Errorf("key %v is invalid", key)
	}
	value = strings.TrimSpace(value)

	switch strings.TrimPrefix(key, Prefix) {
	case "SOURCE":
		c.Source = strings.ToLower(value)

	case "DEVICE":
		c.Device = value

	case "WINDOW_START":
		n, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return errors.Wrapf(err, "%s", key)
		}
		c.WindowStart = n

	case "WINDOW_END":
		n, err := strconv.ParseInt(value, 0, 64)
		if err != nil {
			return errors.Wrapf(err, "%s", key)
		}
		c.WindowEnd = n

	case "SYSFS_DIR":
		c.SysfsDir = value

	case "INTERVAL":
		d, err := time.ParseDuration(value)
		if err != nil {
			return errors.Wrapf(err, "%s", key)
		}
		c.Interval = d

	case "LOG_LEVEL":
		c.LogLevel = strings.ToLower(value)

	case "HOSTNAME":
		c.Hostname = value

	default:
		return errors.Errorf("key %v is invalid", key)
	}
	return nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	switch c.Source {
	case SourceAuto, SourceSysfs, SourceMemory, SourceWMI:
	default:
		return errors.Errorf("unknown source %q", c.Source)
	}

	switch {
	case c.WindowStart < 0:
		return errors.Errorf("window start %#x is negative", c.WindowStart)
	case c.WindowStart%16 != 0:
		return errors.Errorf("window start %#x is not paragraph aligned", c.WindowStart)
	case c.WindowEnd < c.WindowStart:
		return errors.Errorf("window end %#x below start %#x", c.WindowEnd, c.WindowStart)
	case (c.WindowEnd-c.WindowStart+1)%16 != 0:
		return errors.Errorf("window %#x-%#x is not a whole number of 16-byte paragraphs", c.WindowStart, c.WindowEnd)
	case c.Interval <= 0:
		return errors.Errorf("interval %s must be positive", c.Interval)
	case c.Source == SourceMemory && c.Device == "":
		return errors.New("memory source needs a device")
	}

	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "log level")
	}
	return nil
}

// Level returns the configured log level, defaulting to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
