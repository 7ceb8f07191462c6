package metrics

import (
	"sync"
	"time"

	"media-bridge/internal/logging"
)

// StatsProvider supplies the library summary exported as gauges.
type StatsProvider interface {
	LibraryStats() Stats
}

// Stats counts assets and collections by kind.
type Stats struct {
	AssetsByKind      map[string]int
	CollectionsByKind map[string]int
}

// Collector copies library statistics into gauges on a fixed interval.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewCollector returns a collector polling provider every interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start collects once immediately and then on every tick.
func (c *Collector) Start() {
	go func() {
		defer close(c.done)

		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			c.collect()
			select {
			case <-ticker.C:
			case <-c.stop:
				return
			}
		}
	}()
}

// Stop ends collection and waits for the loop to exit. It is safe to call
// more than once, but only after Start.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	stats := c.provider.LibraryStats()
	for kind, n := range stats.AssetsByKind {
		LibraryAssetsTotal.WithLabelValues(kind).Set(float64(n))
	}
	for kind, n := range stats.CollectionsByKind {
		LibraryCollectionsTotal.WithLabelValues(kind).Set(float64(n))
	}
	logging.Debug("Library gauges updated: %d asset kinds, %d collection kinds",
		len(stats.AssetsByKind), len(stats.CollectionsByKind))
}
