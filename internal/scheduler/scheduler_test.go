package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/smallbiznis/fleetwatch/internal/clock"
	devicedomain "github.com/smallbiznis/fleetwatch/internal/device/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeDeviceService lets a test hold a sweep open or make it fail.
type fakeDeviceService struct {
	mu      sync.Mutex
	calls   int
	result  int64
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *fakeDeviceService) Heartbeat(ctx context.Context, req devicedomain.HeartbeatRequest) (*devicedomain.HeartbeatResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeDeviceService) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.result, f.err
}

func (f *fakeDeviceService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newScheduler(t *testing.T, svc devicedomain.Service) *Scheduler {
	t.Helper()

	s, err := New(Params{
		Log:       zap.NewNop(),
		Clock:     clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		DeviceSvc: svc,
	})
	require.NoError(t, err)
	return s
}

func TestRunOnceReportsTransitions(t *testing.T) {
	svc := &fakeDeviceService{result: 4}
	s := newScheduler(t, svc)

	count, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.Equal(t, 1, svc.callCount())
}

func TestRunOnceDropsOverlappingTick(t *testing.T) {
	svc := &fakeDeviceService{
		result:  2,
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	s := newScheduler(t, svc)

	done := make(chan int64)
	go func() {
		count, err := s.RunOnce(context.Background())
		assert.NoError(t, err)
		done <- count
	}()

	<-svc.started

	// The sweep is still holding; a second tick must return without
	// queueing behind it.
	count, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
	assert.Equal(t, 1, svc.callCount())

	close(svc.release)
	assert.Equal(t, int64(2), <-done)
}

func TestRunOnceReleasesGuardAfterError(t *testing.T) {
	svc := &fakeDeviceService{err: errors.New("db unavailable")}
	s := newScheduler(t, svc)

	_, err := s.RunOnce(context.Background())
	require.Error(t, err)

	// A failed sweep must not wedge the guard.
	svc.err = nil
	svc.result = 1
	count, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, 2, svc.callCount())
}

func TestNewRejectsMissingDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
