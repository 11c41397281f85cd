package metrics

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// CommandHook is a metrics hook interface for reporting stopwatch activity.
type CommandHook interface {
	// EmitCommand reports that a command changed the stopwatch state.
	EmitCommand(command string)

	// EmitLap reports a recorded lap and the time since the previous lap.
	EmitLap(number int, delta time.Duration)

	// EmitExport reports that laps were exported.
	EmitExport(laps int)

	// Close flushes pending emissions and releases the hook's resources.
	Close() error
}

// AsyncStatsdCommandHook is an implementation of CommandHook that outputs metrics
// asynchronously to statsd.
type AsyncStatsdCommandHook struct {
	client  *StatsdClient
	pending sync.WaitGroup
}

// NoopCommandHook implements CommandHook but noops on all emissions.
type NoopCommandHook struct{}

// NewAsyncStatsdCommandHook creates a hook reporting to the statsd server at addr.
func NewAsyncStatsdCommandHook(addr string, sampleRate float32, version string) (CommandHook, error) {
	client, err := statsdClientFactory(addr, sampleRate, version)
	if err != nil {
		return nil, err
	}
	return &AsyncStatsdCommandHook{client: client}, nil
}

// EmitCommand statsd implementation.
func (h *AsyncStatsdCommandHook) EmitCommand(command string) {
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.report(h.client.Count(fmt.Sprintf("event.command.%s", command), 1, nil))
	}()
}

// EmitLap statsd implementation.
func (h *AsyncStatsdCommandHook) EmitLap(number int, delta time.Duration) {
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.report(h.client.Count("event.lap.recorded", 1, nil))
		if number > 1 {
			h.report(h.client.Timing("latency.lap.delta", delta, nil))
		}
	}()
}

// EmitExport statsd implementation.
func (h *AsyncStatsdCommandHook) EmitExport(laps int) {
	h.pending.Add(1)
	go func() {
		defer h.pending.Done()
		h.report(h.client.Gauge("size.export.laps", int64(laps), nil))
	}()
}

// Close waits for in-flight emissions and closes the statsd socket.
func (h *AsyncStatsdCommandHook) Close() error {
	h.pending.Wait()
	return h.client.Close()
}

func (h *AsyncStatsdCommandHook) report(err error) {
	if err != nil {
		logrus.WithError(err).Debug("emit statsd metric")
	}
}

// NewNoopCommandHook creates a noop implementation of CommandHook.
func NewNoopCommandHook() CommandHook {
	return &NoopCommandHook{}
}

// EmitCommand noops.
func (h *NoopCommandHook) EmitCommand(command string) {}

// EmitLap noops.
func (h *NoopCommandHook) EmitLap(number int, delta time.Duration) {}

// EmitExport noops.
func (h *NoopCommandHook) EmitExport(laps int) {}

// Close noops.
func (h *NoopCommandHook) Close() error { return nil }

// statsdClientFactory creates a StatsdClient tagged with the host name and build version.
func statsdClientFactory(addr string, sampleRate float32, version string) (*StatsdClient, error) {
	hostname, err := os.Hostname()
	if err != nil {
		return nil, err
	}

	defaultTags := map[string]string{
		"host": hostname,
	}
	if version != "" {
		defaultTags["version"] = version
	}

	return NewStatsdClient(addr, "stopwatch", defaultTags, sampleRate)
}
