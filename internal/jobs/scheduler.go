package jobs

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const taskStream = "library:tasks"

// Scheduler enqueues recurring back-office work for the report workers:
// the daily session digest and reminders for ID proofs sitting in review.
type Scheduler struct {
	cron  *cron.Cron
	queue *redis.Client
	log   zerolog.Logger
}

func NewScheduler(queue *redis.Client, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		queue: queue,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc("0 10 0 * * *", s.enqueueSessionDigest); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("0 0 8 * * *", s.enqueueVerificationReminder); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits up to five seconds for in-flight jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Second):
		s.log.Warn().Msg("scheduler stop timed out")
	}
}

func (s *Scheduler) enqueueSessionDigest() {
	yesterday := time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02")
	if err := s.enqueueTask(map[string]any{
		"type": "session_digest",
		"date": yesterday,
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue session digest failed")
	}
}

func (s *Scheduler) enqueueVerificationReminder() {
	if err := s.enqueueTask(map[string]any{
		"type": "verification_reminder",
	}); err != nil {
		s.log.Error().Err(err).Msg("enqueue verification reminder failed")
	}
}

func (s *Scheduler) enqueueTask(payload map[string]any) error {
	if s.queue == nil {
		return nil
	}
	_, err := s.queue.XAdd(context.Background(), &redis.XAddArgs{
		Stream: taskStream,
		Values: payload,
	}).Result()
	return err
}
