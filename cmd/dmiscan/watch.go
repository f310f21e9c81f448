package main

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhdewitt/dmiscan/internal/collector"
	"github.com/nhdewitt/dmiscan/internal/protocol"
	"github.com/nhdewitt/dmiscan/internal/smbios"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-read the table periodically and print metrics as JSON lines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := hostSource()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		setupSignalHandler(cancel)

		logger.Info().
			Str("source", src.Name()).
			Dur("interval", cfg.Interval).
			Msg("watching SMBIOS")

		return watch(ctx, cmd.OutOrStdout(), src, cfg.Hostname, cfg.Interval)
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Minute, "collection interval")
}

// watch runs the SMBIOS collector every interval and writes each envelope
// as one JSON line until ctx is cancelled.
func watch(ctx context.Context, w io.Writer, src smbios.Source, hostname string, interval time.Duration) error {
	ch := make(chan protocol.Envelope, 16)
	c := collector.New(hostname, ch, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Run(ctx, interval, collector.MakeSMBIOSCollector(src, logger))
	}()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-ctx.Done():
			<-done
			return nil
		case env := <-ch:
			if err := enc.Encode(env); err != nil {
				return err
			}
		}
	}
}
