package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/nhdewitt/dmiscan/internal/protocol"
)

type CollectFunc func(context.Context) ([]protocol.Metric, error)

type Collector struct {
	hostname string
	out      chan<- protocol.Envelope
	log      zerolog.Logger
}

func New(hostname string, out chan<- protocol.Envelope, log zerolog.Logger) *Collector {
	return &Collector{
		hostname: hostname,
		out:      out,
		log:      log.With().Str("component", "collector").Logger(),
	}
}

// wrap creates an envelope from any metric
func (c *Collector) wrap(m protocol.Metric) protocol.Envelope {
	return protocol.Envelope{
		Type:      m.MetricType(),
		Timestamp: time.Now(),
		Hostname:  c.hostname,
		Data:      m,
	}
}

// send handles channel send with context cancellation
func (c *Collector) send(ctx context.Context, m protocol.Metric) {
	select {
	case c.out <- c.wrap(m):
	case <-ctx.Done():
	}
}

// Run executes a collection function at the specified interval
func (c *Collector) Run(ctx context.Context, interval time.Duration, collect CollectFunc) {
	collectAndSend := func() {
		defer func() {
			if r := recover(); r != nil {
				c.log.Error().Interface("panic", r).Msg("panic recovered in collector")
			}
		}()

		start := time.Now()
		data, err := collect(ctx)
		if err != nil {
			c.log.Error().Err(err).Msg("collection failed")
			return
		}
		c.log.Debug().
			Int("metrics", len(data)).
			Dur("took", time.Since(start)).
			Msg("collected")

		for _, m := range data {
			if m == nil {
				continue
			}
			c.send(ctx, m)
		}
	}

	// Collect Baseline
	collectAndSend()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			collectAndSend()
		}
	}
}
