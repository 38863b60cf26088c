package service

import (
	"context"
	"time"

	"rentalhub/internal/config"
	"rentalhub/internal/logging"
	"rentalhub/internal/metrics"

	"github.com/rs/zerolog"
)

type Options struct {
	// Latency is added to every call to mimic a remote backend.
	Latency            time.Duration
	ReviewRequestDelay time.Duration
	Logger             *zerolog.Logger
	Now                func() time.Time
}

// OptionsFromConfig maps the service section of the configuration.
func OptionsFromConfig(cfg config.ServiceConfig, logger *zerolog.Logger) Options {
	return Options{
		Latency:            cfg.LatencyDuration(),
		ReviewRequestDelay: cfg.ReviewRequestDelay,
		Logger:             logger,
	}
}

type base struct {
	latency time.Duration
	logger  *zerolog.Logger
	now     func() time.Time
}

func newBase(opts Options, component string) base {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return base{
		latency: opts.Latency,
		logger:  logging.Component(opts.Logger, component),
		now:     now,
	}
}

// enter applies the configured latency and starts the call timer. The
// returned func must be called when the call finishes.
func (b *base) enter(ctx context.Context, method string) (func(), error) {
	start := time.Now()
	if err := wait(ctx, b.latency); err != nil {
		return nil, err
	}
	return func() { metrics.ObserveCall(method, time.Since(start)) }, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
