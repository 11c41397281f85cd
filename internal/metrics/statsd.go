package metrics

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/statsd"
)

// StatsdClient is an abstraction over a UDP statsd emitter.
type StatsdClient struct {
	backend     statsd.Statter
	defaultTags map[string]string
	sampleRate  float32
}

// NewStatsdClient creates a new statsd client pointing the specified server address with an
// optional prefix and set of default tags to include with every metric.
func NewStatsdClient(addr string, prefix string, defaultTags map[string]string, sampleRate float32) (*StatsdClient, error) {
	client, err := statsd.NewClient(addr, prefix)
	if err != nil {
		return nil, fmt.Errorf("statsd: create client: %w", err)
	}

	return &StatsdClient{
		backend:     client,
		defaultTags: defaultTags,
		sampleRate:  sampleRate,
	}, nil
}

// Count emits a count metric with a configurable delta.
func (c *StatsdClient) Count(metric string, delta int64, tags map[string]string) error {
	return c.backend.Inc(c.formatMetric(metric, tags), delta, c.sampleRate)
}

// Gauge emits a gauge metric.
func (c *StatsdClient) Gauge(metric string, value int64, tags map[string]string) error {
	return c.backend.Gauge(c.formatMetric(metric, tags), value, c.sampleRate)
}

// Timing emits a time duration metric.
func (c *StatsdClient) Timing(metric string, duration time.Duration, tags map[string]string) error {
	return c.backend.TimingDuration(c.formatMetric(metric, tags), duration, c.sampleRate)
}

// Close releases the underlying socket.
func (c *StatsdClient) Close() error {
	return c.backend.Close()
}

// formatMetric serializes a metric and its tags (merged over the default tags) InfluxDB-style.
func (c *StatsdClient) formatMetric(metric string, tags map[string]string) string {
	escapedMetric := url.QueryEscape(metric)

	merged := make(map[string]string, len(c.defaultTags)+len(tags))
	for key, value := range c.defaultTags {
		merged[key] = value
	}
	for key, value := range tags {
		merged[key] = value
	}
	if len(merged) == 0 {
		return escapedMetric
	}

	components := make([]string, 0, len(merged))
	for key, value := range merged {
		components = append(components, fmt.Sprintf("%s=%s", url.QueryEscape(key), url.QueryEscape(value)))
	}
	sort.Strings(components)

	return fmt.Sprintf("%s,%s", escapedMetric, strings.Join(components, ","))
}
