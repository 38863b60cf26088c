package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"rentalhub/internal/database"
	"rentalhub/internal/domain"
	"rentalhub/internal/metrics"
	"rentalhub/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const DefaultDeadLetterKey = "rentalhub:jobs:deadletter"

// Handler processes the payload of one job.
type Handler func(ctx context.Context, payload []byte) error

// Scheduler runs delayed jobs persisted in the scheduled_jobs collection.
// Failed jobs are retried with backoff and, once retries are exhausted,
// marked failed and pushed to a redis dead-letter list when redis is set.
type Scheduler struct {
	jobs          domain.Collection[models.ScheduledJob]
	redis         *redis.Client
	retryPolicy   RetryPolicy
	deadLetterKey string
	pollInterval  time.Duration
	batchSize     int
	logger        *zerolog.Logger
	now           func() time.Time

	mu       sync.RWMutex
	handlers map[string]Handler
	wake     chan struct{}
	running  sync.Mutex
}

// NewScheduler builds a scheduler with sane defaults. redisClient may be nil.
func NewScheduler(jobs domain.Collection[models.ScheduledJob], redisClient *redis.Client, retry RetryPolicy, pollInterval time.Duration, logger *zerolog.Logger) *Scheduler {
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.BackoffFactor == 0 {
		retry.BackoffFactor = 2
	}
	if pollInterval <= 0 {
		pollInterval = 500 * time.Millisecond
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "scheduler").Logger()

	return &Scheduler{
		jobs:          jobs,
		redis:         redisClient,
		retryPolicy:   retry,
		deadLetterKey: DefaultDeadLetterKey,
		pollInterval:  pollInterval,
		batchSize:     50,
		logger:        &l,
		now:           time.Now,
		handlers:      make(map[string]Handler),
		wake:          make(chan struct{}, 1),
	}
}

// Handle registers the handler for a job type.
func (s *Scheduler) Handle(jobType string, handler func(ctx context.Context, payload []byte) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[jobType] = handler
}

// Schedule persists a job that becomes due after delay.
func (s *Scheduler) Schedule(ctx context.Context, jobType string, payload any, delay time.Duration) (*models.ScheduledJob, error) {
	if jobType == "" {
		return nil, errors.New("job type is required")
	}
	if delay < 0 {
		delay = 0
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	now := s.now()
	job := models.ScheduledJob{
		Type:      jobType,
		Payload:   string(raw),
		RunAt:     ceilSecond(now.Add(delay)),
		Status:    models.JobStatusPending,
		CreatedAt: models.NewTimestamp(now),
	}

	created, err := s.jobs.Add(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("persist job: %w", err)
	}

	s.logger.Debug().Str("type", jobType).Int64("job_id", created.ID.Int64()).Time("run_at", created.RunAt.Time).Msg("Job scheduled")
	s.notify()
	return created, nil
}

// Start runs due jobs until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Dur("poll_interval", s.pollInterval).Msg("Scheduler started")
	defer s.logger.Info().Msg("Scheduler stopped")

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		if _, err := s.RunDue(ctx, s.now()); err != nil && ctx.Err() == nil {
			s.logger.Error().Err(err).Msg("Failed to run due jobs")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		case <-s.wake:
		}
	}
}

// RunDue processes the jobs due at now, oldest first, and returns how many
// were processed.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) (int, error) {
	s.running.Lock()
	defer s.running.Unlock()

	at := models.NewTimestamp(now)
	due, err := s.jobs.Filter(ctx, func(j *models.ScheduledJob) bool { return j.Due(at) })
	if err != nil {
		return 0, fmt.Errorf("fetch due jobs: %w", err)
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].RunAt.Equal(due[j].RunAt.Time) {
			return due[i].RunAt.Before(due[j].RunAt.Time)
		}
		return due[i].ID < due[j].ID
	})
	if len(due) > s.batchSize {
		due = due[:s.batchSize]
	}

	processed := 0
	for i := range due {
		if ctx.Err() != nil {
			break
		}
		s.processJob(ctx, &due[i], now)
		processed++
	}
	return processed, nil
}

func (s *Scheduler) processJob(ctx context.Context, job *models.ScheduledJob, now time.Time) {
	handler := s.handler(job.Type)
	if handler == nil {
		s.failJob(ctx, job, now, fmt.Errorf("no handler for job type %q", job.Type))
		return
	}

	if err := handler(ctx, []byte(job.Payload)); err != nil {
		s.retryOrFail(ctx, job, now, err)
		return
	}

	s.update(ctx, job, database.Record{
		"status":       models.JobStatusCompleted,
		"attempts":     job.Attempts + 1,
		"last_error":   "",
		"processed_at": models.NewTimestamp(now),
	})
	metrics.IncJob(job.Type, models.JobStatusCompleted)
}

func (s *Scheduler) retryOrFail(ctx context.Context, job *models.ScheduledJob, now time.Time, cause error) {
	attempt := job.Attempts + 1
	if attempt >= s.retryPolicy.MaxRetries {
		s.failJob(ctx, job, now, cause)
		return
	}

	next := now.Add(s.retryPolicy.NextDelay(attempt))
	s.logger.Warn().Err(cause).Str("type", job.Type).Int64("job_id", job.ID.Int64()).Int("attempt", attempt).Time("next_run", next).Msg("Job failed, will retry")
	s.update(ctx, job, database.Record{
		"status":     models.JobStatusRetry,
		"attempts":   attempt,
		"last_error": cause.Error(),
		"run_at":     ceilSecond(next),
	})
	metrics.IncJob(job.Type, models.JobStatusRetry)
}

func (s *Scheduler) failJob(ctx context.Context, job *models.ScheduledJob, now time.Time, cause error) {
	s.logger.Error().Err(cause).Str("type", job.Type).Int64("job_id", job.ID.Int64()).Msg("Job failed")
	job.Status = models.JobStatusFailed
	job.Attempts++
	job.LastError = cause.Error()
	job.ProcessedAt = models.NewTimestamp(now)

	s.update(ctx, job, database.Record{
		"status":       job.Status,
		"attempts":     job.Attempts,
		"last_error":   job.LastError,
		"processed_at": job.ProcessedAt,
	})
	s.pushDeadLetter(ctx, job)
	metrics.IncJob(job.Type, models.JobStatusFailed)
}

func (s *Scheduler) update(ctx context.Context, job *models.ScheduledJob, fields database.Record) {
	if _, err := s.jobs.Update(ctx, job.ID, fields); err != nil {
		s.logger.Error().Err(err).Int64("job_id", job.ID.Int64()).Msg("Failed to update job")
	}
}

func (s *Scheduler) pushDeadLetter(ctx context.Context, job *models.ScheduledJob) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(job)
	if err != nil {
		s.logger.Error().Err(err).Int64("job_id", job.ID.Int64()).Msg("Failed to encode dead letter")
		return
	}
	if err := s.redis.LPush(ctx, s.deadLetterKey, data).Err(); err != nil {
		s.logger.Error().Err(err).Int64("job_id", job.ID.Int64()).Msg("Failed to push dead letter")
	}
}

func (s *Scheduler) handler(jobType string) Handler {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handlers[jobType]
}

func (s *Scheduler) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// ceilSecond rounds t up to a whole second, the precision of stored
// timestamps, so a job never becomes due before its delay has passed.
func ceilSecond(t time.Time) models.Timestamp {
	truncated := t.Truncate(time.Second)
	if truncated.Before(t) {
		truncated = truncated.Add(time.Second)
	}
	return models.NewTimestamp(truncated)
}
