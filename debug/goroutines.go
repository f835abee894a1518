package debug

// Debug runtime loggers, started only when debug mode is on. They run until
// the context is cancelled.

import (
	"context"
	"log/slog"
	"runtime"
	"runtime/metrics"
	"time"
)

const (
	goroutineInterval = time.Second
	memInterval       = 2 * time.Second
)

// Start launches the goroutine and memory loggers with their default intervals.
func Start(ctx context.Context, logger *slog.Logger) {
	StartGoroutineLogger(ctx, goroutineInterval, logger)
	StartMemLogger(ctx, memInterval, logger)
}

// StartGoroutineLogger logs goroutine count and stack memory every interval.
func StartGoroutineLogger(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = goroutineInterval
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		samples := []metrics.Sample{{Name: "/sched/goroutines:goroutines"}}
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
			metrics.Read(samples)
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			logger.Debug("goroutine-stacks",
				slog.Uint64("goroutines", samples[0].Value.Uint64()),
				slog.Uint64("stack_inuse", ms.StackInuse),
				slog.Uint64("stack_sys", ms.StackSys),
				slog.Uint64("heap_alloc", ms.HeapAlloc),
			)
		}
	}()
}
