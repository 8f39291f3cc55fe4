package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"ride-backend/internal/application/health"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloser struct {
	calls  int
	closed int
	err    error
}

func (f *fakeCloser) FinishExpired(context.Context) (int, error) {
	f.calls++
	return f.closed, f.err
}

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		rdb.Close()
		mr.Close()
	})
	return mr, rdb
}

func TestRunRideCloser_RunsAndReleasesLock(t *testing.T) {
	mr, rdb := setup(t)
	closer := &fakeCloser{closed: 2}
	s := New(rdb, closer, "")

	ran, closed, err := s.RunRideCloser(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
	assert.Equal(t, 2, closed)
	assert.Equal(t, 1, closer.calls)
	assert.False(t, mr.Exists(rideCloserLock))
	assert.True(t, mr.Exists(health.KeySchedulerLastRun))
}

func TestRunRideCloser_SkipsWhenLocked(t *testing.T) {
	mr, rdb := setup(t)
	require.NoError(t, mr.Set(rideCloserLock, "other-instance"))
	mr.SetTTL(rideCloserLock, time.Minute)
	closer := &fakeCloser{}
	s := New(rdb, closer, "")

	ran, _, err := s.RunRideCloser(context.Background())
	require.NoError(t, err)
	assert.False(t, ran)
	assert.Zero(t, closer.calls)

	v, err := mr.Get(rideCloserLock)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", v)
}

func TestRunRideCloser_LockExpires(t *testing.T) {
	mr, rdb := setup(t)
	require.NoError(t, mr.Set(rideCloserLock, "crashed-instance"))
	mr.SetTTL(rideCloserLock, rideCloserTTL)
	mr.FastForward(rideCloserTTL + time.Second)

	closer := &fakeCloser{}
	ran, _, err := New(rdb, closer, "").RunRideCloser(context.Background())
	require.NoError(t, err)
	assert.True(t, ran)
}

func TestRelease_KeepsLockTakenOverByAnotherInstance(t *testing.T) {
	mr, rdb := setup(t)
	s := New(rdb, &fakeCloser{}, "")
	require.NoError(t, mr.Set(rideCloserLock, "other-instance"))

	s.release(rideCloserLock)
	v, err := mr.Get(rideCloserLock)
	require.NoError(t, err)
	assert.Equal(t, "other-instance", v)

	require.NoError(t, mr.Set(rideCloserLock, s.instanceID))
	s.release(rideCloserLock)
	assert.False(t, mr.Exists(rideCloserLock))
}

func TestRunRideCloser_Error(t *testing.T) {
	mr, rdb := setup(t)
	closer := &fakeCloser{err: errors.New("store down")}

	ran, _, err := New(rdb, closer, "").RunRideCloser(context.Background())
	assert.True(t, ran)
	assert.EqualError(t, err, "store down")
	assert.False(t, mr.Exists(rideCloserLock))
}

func TestStart_InvalidSchedule(t *testing.T) {
	_, rdb := setup(t)
	s := New(rdb, &fakeCloser{}, "not a cron spec")
	assert.Error(t, s.Start())
}
