package main

import (
	"context"
	"log/slog"
	"time"

	"payform-backend/lib/restyutil"
	"payform-backend/lib/serviceutil"
	"payform-backend/lib/telemetry"

	"github.com/gin-gonic/gin"
)

const perfStatsInterval = 30 * time.Second

// InitTelemetry configures logging and the otel providers, it returns the
// output scraped http exchanges are dumped to in verbose mode.
func InitTelemetry(ctx context.Context, cfg telemetry.Config, verbose bool) restyutil.InstrumentOutput {
	telemetry.InitSlog(verbose)
	gin.SetMode(gin.ReleaseMode)

	if !cfg.Enabled() {
		slog.WarnContext(ctx, "no otlp exporters configured, traces and metrics will not be exported")
	}
	providers, err := telemetry.Setup(ctx, "payform", cfg)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		err := providers.Shutdown(context.Background())
		if err != nil {
			slog.Error("shutdown telemetry", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(ctx, perfStatsInterval)

	if !verbose {
		return nil
	}
	slog.DebugContext(ctx, "verbose logging enabled")
	gin.SetMode(gin.DebugMode)

	output, err := restyutil.NewFilesystemOutput(".dev/resty/auctionsite")
	if err != nil {
		slog.WarnContext(ctx, "failed to create resty output directory", "err", err)
		return nil
	}
	return output
}
