package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"ride-backend/internal/application/health"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const (
	DefaultSchedule = "*/5 * * * *"
	rideCloserLock  = "scheduler:ride_closer"
	rideCloserTTL   = 4 * time.Minute
)

// RideCloser deactivates rides whose arrival time has passed.
type RideCloser interface {
	FinishExpired(ctx context.Context) (int, error)
}

// Scheduler runs periodic background jobs. Jobs take a Redis lock first so
// only one instance runs each tick.
type Scheduler struct {
	cron       *cron.Cron
	rdb        *redis.Client
	closer     RideCloser
	schedule   string
	instanceID string
}

func New(rdb *redis.Client, closer RideCloser, schedule string) *Scheduler {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	instanceID, _ := os.Hostname()
	instanceID = fmt.Sprintf("%s-%d", instanceID, time.Now().UnixNano())

	logger := cronLogger{}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(logger),
			cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
		),
		rdb:        rdb,
		closer:     closer,
		schedule:   schedule,
		instanceID: instanceID,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.closeRides); err != nil {
		return fmt.Errorf("scheduler: register ride closer %q: %w", s.schedule, err)
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Str("instance", s.instanceID).Msg("scheduler: started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("scheduler: stopped")
}

func (s *Scheduler) closeRides() {
	ctx, cancel := context.WithTimeout(context.Background(), rideCloserTTL)
	defer cancel()
	if _, _, err := s.RunRideCloser(ctx); err != nil {
		log.Error().Err(err).Msg("scheduler: ride closer failed")
	}
}

// RunRideCloser runs one ride closer pass if no other instance holds the lock.
// ran is false when the lock was taken.
func (s *Scheduler) RunRideCloser(ctx context.Context) (ran bool, closed int, err error) {
	acquired, err := s.rdb.SetNX(ctx, rideCloserLock, s.instanceID, rideCloserTTL).Result()
	if err != nil {
		return false, 0, fmt.Errorf("scheduler: acquire lock: %w", err)
	}
	if !acquired {
		log.Debug().Msg("scheduler: ride closer already running on another instance, skipping")
		return false, 0, nil
	}
	defer s.release(rideCloserLock)

	closed, err = s.closer.FinishExpired(ctx)
	if err != nil {
		return true, 0, err
	}
	b, _ := json.Marshal(map[string]interface{}{"time": time.Now().UTC(), "closed": closed, "instance": s.instanceID})
	s.rdb.Set(ctx, health.KeySchedulerLastRun, b, 0)
	if closed > 0 {
		log.Info().Int("closed", closed).Msg("scheduler: finished expired rides")
	}
	return true, closed, nil
}

// releaseScript deletes the lock only while it still holds our instance id.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (s *Scheduler) release(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := releaseScript.Run(ctx, s.rdb, []string{key}, s.instanceID).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("scheduler: failed to release lock")
	}
}

// cronLogger routes cron's own logging through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
