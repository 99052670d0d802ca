package globesync

import (
	"context"
	"time"

	"github.com/peakatlas/globesync/internal/metrics"
	"github.com/peakatlas/globesync/pkg/constants"
	"github.com/peakatlas/globesync/pkg/errors"
)

// AutoRefreshOn starts the poll scheduler: a fixed-interval ticker that
// runs fetch-and-reconcile cycles until AutoRefreshOff or Close. Calling
// it while a scheduler is already running restarts it, picking up an
// interval changed since the last start.
func (c *client) AutoRefreshOn() error {
	if c.closed.Load() {
		return errors.ErrClosed
	}
	interval := c.options.pollInterval
	if interval <= 0 {
		return errors.NewValidationError("pollInterval", interval, "must be positive")
	}

	if err := c.AutoRefreshOff(); err != nil {
		return err
	}

	c.mu.Lock()
	c.stopCh = make(chan struct{})
	c.pollTicker = time.NewTicker(interval)
	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel
	ticker := c.pollTicker
	stopCh := c.stopCh
	c.mu.Unlock()

	c.log().Info().Dur("interval", interval).Msg("Poll scheduler started")

	go c.pollLoop(ctx, ticker, stopCh)
	return nil
}

// AutoRefreshOff stops the poll scheduler. It is safe to call when no
// scheduler is running. A cycle already in flight finishes; no new cycle
// starts after AutoRefreshOff returns.
func (c *client) AutoRefreshOff() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pollTicker == nil {
		return nil
	}

	c.pollTicker.Stop()
	c.pollTicker = nil
	if c.pollCancel != nil {
		c.pollCancel()
		c.pollCancel = nil
	}
	close(c.stopCh)
	c.stopCh = nil

	c.log().Info().Msg("Poll scheduler stopped")
	return nil
}

// pollLoop dispatches one cycle per tick. Each cycle runs in its own
// goroutine behind a single-flight guard, so a fetch slower than the poll
// interval causes ticks to be skipped rather than cycles to pile up.
func (c *client) pollLoop(ctx context.Context, ticker *time.Ticker, stopCh chan struct{}) {
	for {
		select {
		case <-ticker.C:
			if !c.inFlight.CompareAndSwap(false, true) {
				c.metrics.Cycles.WithLabelValues(metrics.ResultSkipped).Inc()
				c.log().Debug().Msg("Skipping poll tick, previous cycle still in flight")
				continue
			}
			go func() {
				defer c.inFlight.Store(false)
				c.runCycle(ctx)
			}()
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		}
	}
}

// runCycle executes one scheduled fetch-and-reconcile cycle. Fetch
// failures skip the cycle and keep the rendered set intact; adapter
// failures are logged as errors since they leave the scene behind the
// dataset until a later cycle converges.
func (c *client) runCycle(ctx context.Context) {
	cycleCtx, cancel := context.WithTimeout(ctx, constants.RefreshContextTimeout)
	defer cancel()

	_, err := c.Refresh(cycleCtx)
	switch {
	case err == nil:
	case errors.IsFetchError(err) || errors.IsTimeout(err) || errors.IsCanceled(err):
		c.log().Warn().Err(err).Msg("Dataset fetch failed, skipping cycle")
	case errors.IsAdapterViolation(err):
		c.log().Error().Err(err).Msg("Scene adapter rejected a mutation")
	default:
		c.log().Error().Err(err).Msg("Poll cycle failed")
	}
}
