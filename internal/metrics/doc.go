// Package metrics contains abstractions for emission of metrics generated while the stopwatch
// is driven. The only supported output engine is statsd.
//
// Metrics are structured around hooks: the session invokes hook methods at lifecycle points
// (a command was applied, a lap was recorded, laps were exported) and the hook implementation
// ships the values to a backend. Emission is decoupled from the session's control flow.
package metrics
