// Package cli implements the landcells command-line interface.
//
// The CLI partitions map images into land regions, inspects stored or
// exported regions, serves partitions over HTTP and manages the partition
// cache. It is built on cobra and logs through charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - partition: Sample, relax and export regions for a map image
//   - regions: List regions from a result, GeoJSON file or file store
//   - serve: Run the HTTP API
//   - cache: Manage the partition cache
//
// # Configuration
//
// Settings come from $XDG_CONFIG_HOME/landcells/config.toml (or --config),
// then .env, then LANDCELLS_* variables. Flags set on the command line win.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers are
// passed through context.Context to stages that write files.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a timestamped logger ("14:32:01.45") writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a command step took.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Partitioned map.png (1.234s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, time.Since(p.start).Round(time.Millisecond))
}

type ctxKey int

const loggerKey ctxKey = 0

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default when there is none.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
