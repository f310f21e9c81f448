package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/nhdewitt/dmiscan/internal/collector"
	"github.com/nhdewitt/dmiscan/internal/inventory"
	"github.com/nhdewitt/dmiscan/internal/platform"
	"github.com/nhdewitt/dmiscan/internal/smbios"
)

// set at build time
var commit string

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Decode BIOS, computer system and processor information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(outputFlag)
		if err != nil {
			return err
		}

		src, err := hostSource()
		if err != nil {
			return err
		}

		inv, err := inventory.Collect(cmd.Context(), src, logger)
		if err != nil {
			return err
		}
		return renderInventory(cmd.OutOrStdout(), format, inv)
	},
}

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Locate and validate the SMBIOS entry point",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := outputFormat(outputFlag)
		if err != nil {
			return err
		}

		src, err := hostSource()
		if err != nil {
			return err
		}

		snap, err := inventory.Load(cmd.Context(), src, logger)
		if err != nil {
			return err
		}
		return renderEntryPoint(cmd.OutOrStdout(), format, snap.EntryPointMetric())
	},
}

var rawCmd = &cobra.Command{
	Use:   "raw DIR",
	Short: "Write the raw entry point and structure table to DIR",
	Long: `Write the entry point and table bytes to DIR using the sysfs file
names (smbios_entry_point and DMI). Read them back with --from DIR.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := hostSource()
		if err != nil {
			return err
		}
		return writeRaw(cmd.Context(), afero.NewOsFs(), args[0], src)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the dmiscan version",
	Args:  cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), collector.AgentVersion, commit)
	},
}

func hostSource() (smbios.Source, error) {
	fs := afero.NewOsFs()
	return buildSource(cfg, platform.Detect(fs, cfg.SysfsDir), fs, logger)
}

func writeRaw(ctx context.Context, fs afero.Fs, dir string, src smbios.Source) error {
	ep, table, err := src.Load(ctx)
	if err != nil {
		if smbios.IsAbsent(err) {
			return errors.Errorf("no SMBIOS table available from %s", src.Name())
		}
		return err
	}

	if err := fs.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrapf(err, "create %s", dir)
	}
	if err := smbios.WriteDump(fs, dir, ep, table); err != nil {
		return err
	}

	logger.Info().
		Str("dir", dir).
		Str("source", src.Name()).
		Int("bytes", len(table)).
		Msg("raw table written")
	return nil
}
