// Package collector validates readings arriving from live feeds and appends
// them to the reading store.
package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/metrics"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/types"
)

const (
	SourceWebsocket = "websocket"
	SourceMQTT      = "mqtt"
)

// ReadingSink is implemented by *readingdb.DB.
type ReadingSink interface {
	InsertReadings(ctx context.Context, readings []types.Reading) error
}

// Broadcaster is implemented by *livefeed.Hub.
type Broadcaster interface {
	Broadcast(readings []types.Reading)
}

type Collector struct {
	sink    ReadingSink
	metrics *metrics.Metrics
	logger  *zap.Logger
	live    Broadcaster
}

func New(sink ReadingSink, m *metrics.Metrics, logger *zap.Logger) *Collector {
	return &Collector{sink: sink, metrics: m, logger: logger}
}

// WithBroadcaster forwards every stored batch to b.
func (c *Collector) WithBroadcaster(b Broadcaster) *Collector {
	c.live = b
	return c
}

// Ingest drops invalid readings and appends the rest as one batch.
// It returns how many readings were stored.
func (c *Collector) Ingest(ctx context.Context, source string, readings []types.Reading) (int, error) {
	valid := make([]types.Reading, 0, len(readings))
	for _, r := range readings {
		n, err := types.NormalizeReading(r)
		if err != nil {
			c.metrics.ReadingRejected(source)
			c.logger.Warn("Rejected reading", zap.String("source", source), zap.Error(err))
			continue
		}
		valid = append(valid, n)
	}
	if len(valid) == 0 {
		return 0, nil
	}

	if err := c.sink.InsertReadings(ctx, valid); err != nil {
		return 0, fmt.Errorf("storing %d readings from %s: %w", len(valid), source, err)
	}
	c.metrics.ReadingsIngested(source, len(valid))
	if c.live != nil {
		c.live.Broadcast(valid)
	}
	return len(valid), nil
}

// Handler returns a payload callback for a feed. Payloads are a single
// reading object or an array of them.
func (c *Collector) Handler(source string) func(ctx context.Context, payload []byte) {
	return func(ctx context.Context, payload []byte) {
		readings, err := types.ReadingsFromJsonBytes(payload)
		if err != nil {
			c.metrics.ReadingRejected(source)
			c.logger.Warn("Failed to parse reading payload",
				zap.String("source", source),
				zap.ByteString("payload", payload),
				zap.Error(err))
			return
		}
		stored, err := c.Ingest(ctx, source, readings)
		if err != nil {
			c.logger.Error("Failed to store readings", zap.Error(err))
			return
		}
		c.logger.Debug("Stored readings", zap.String("source", source), zap.Int("count", stored))
	}
}
