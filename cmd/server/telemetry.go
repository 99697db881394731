package main

import (
	"context"
	"log/slog"

	"eventreg-backend/internal/components/serviceutil"
	"eventreg-backend/internal/components/telemetry"
)

// InitTelemetry installs the otlp exporters that are configured and starts
// the perf gauges, the returned func flushes them.
func InitTelemetry(ctx context.Context, cfg telemetry.Config) func() {
	t, err := telemetry.Setup(ctx, "eventreg-server", cfg)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	telemetry.InstrumentPerfStats(ctx)

	return func() {
		err := t.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
	}
}
