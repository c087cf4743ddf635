// Package scheduler runs the periodic staleness sweep, isolated from
// request handling: a failed tick is logged and retried on the next one, and
// at most one sweep is in flight process-wide.
package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/smallbiznis/fleetwatch/internal/clock"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	obsmetrics "github.com/smallbiznis/fleetwatch/internal/observability/metrics"
	"github.com/smallbiznis/fleetwatch/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const sweepLockKey = "fleetwatch:sweep:lock"

var ErrInvalidConfig = errors.New("scheduler requires log, clock and device service")

type Params struct {
	fx.In

	Log       *zap.Logger
	Clock     clock.Clock
	DeviceSvc devicedomain.Service
	Locker    *ratelimit.Locker `optional:"true"`
	Config    Config            `optional:"true"`
}

type Scheduler struct {
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	devices devicedomain.Service
	locker  *ratelimit.Locker

	running atomic.Bool
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.Clock == nil || p.DeviceSvc == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:     p.Log.Named("scheduler").With(zap.String("component", "sweep")),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		devices: p.DeviceSvc,
		locker:  p.Locker,
	}, nil
}

// RunForever ticks on the configured interval until ctx is canceled. Tick
// failures never terminate the loop.
func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil {
			s.log.Warn("sweep tick failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce executes one sweep, single-flight. A tick arriving while a sweep
// runs is dropped, not queued: it returns zero transitions immediately.
// When redis is configured, a lease extends the guarantee across replicas;
// on redis failure the local guard still applies (fail open, logged).
func (s *Scheduler) RunOnce(parent context.Context) (int64, error) {
	metrics := obsmetrics.Sweep()

	if !s.running.CompareAndSwap(false, true) {
		metrics.IncSkip()
		return 0, nil
	}
	defer s.running.Store(false)

	ctx, cancel := context.WithTimeout(parent, s.cfg.TickTimeout)
	defer cancel()

	if s.locker != nil {
		token, ok, err := s.locker.Acquire(ctx, sweepLockKey, s.cfg.RunInterval)
		if err != nil {
			s.log.Warn("sweep lease unavailable, proceeding with local guard only", zap.Error(err))
		} else if !ok {
			metrics.IncSkip()
			return 0, nil
		} else {
			defer func() {
				if releaseErr := s.locker.Release(context.WithoutCancel(ctx), sweepLockKey, token); releaseErr != nil {
					s.log.Warn("sweep lease release failed", zap.Error(releaseErr))
				}
			}()
		}
	}

	start := s.clock.Now()
	metrics.IncRun()

	count, err := s.devices.SweepStale(ctx, s.cfg.StaleThreshold)
	metrics.ObserveDuration(time.Since(start))
	if err != nil {
		metrics.IncError()
		return 0, err
	}

	metrics.AddTransitions(count)
	return count, nil
}
