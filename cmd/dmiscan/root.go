package main

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nhdewitt/dmiscan/internal/config"
)

var (
	configFile string
	sourceFlag string
	deviceFlag string
	fromDir    string
	outputFlag string
	debug      bool
	trace      bool

	cfg    config.Config
	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:           "dmiscan",
	Short:         "Locate, validate and decode the SMBIOS structure table",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(afero.NewOsFs(), configFile, os.Getenv)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd.Flags(), &cfg); err != nil {
			return err
		}
		logger = setupLogger(os.Stderr, cfg.Level(), debug, trace)
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", "", "env file with DMISCAN_* settings")
	flags.StringVarP(&sourceFlag, "source", "s", "", "table source: auto, sysfs, memory or wmi")
	flags.StringVar(&deviceFlag, "device", "", "physical memory device for the memory source")
	flags.StringVar(&fromDir, "from", "", "read a raw dump written by \"dmiscan raw\" instead of the host")
	flags.StringVarP(&outputFlag, "output", "o", "", "output format: table, json or yaml (default table on a terminal, json otherwise)")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.BoolVar(&trace, "trace", false, "enable trace logging of every anchor, record and string")

	rootCmd.AddCommand(dumpCmd, entryCmd, rawCmd, watchCmd, versionCmd)
}

// applyFlags layers explicitly set flags over the loaded config.
func applyFlags(flags *pflag.FlagSet, c *config.Config) error {
	if flags.Changed("source") {
		c.Source = sourceFlag
	}
	if flags.Changed("device") {
		c.Device = deviceFlag
	}
	if flags.Changed("from") {
		c.Source = config.SourceSysfs
		c.SysfsDir = fromDir
	}
	if flags.Lookup("interval") != nil && flags.Changed("interval") {
		d, err := flags.GetDuration("interval")
		if err != nil {
			return err
		}
		c.Interval = d
	}
	return errors.Wrap(c.Validate(), "invalid settings")
}

func setupLogger(w io.Writer, level zerolog.Level, debug, trace bool) zerolog.Logger {
	switch {
	case trace:
		level = zerolog.TraceLevel
	case debug:
		level = zerolog.DebugLevel
	}
	if level < zerolog.GlobalLevel() {
		zerolog.SetGlobalLevel(level)
	}

	l := zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
	log.Logger = l
	return l
}
