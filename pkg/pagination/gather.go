package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// Config holds fan-out configuration.
type Config struct {
	// MaxConcurrency limits in-flight jobs. Zero or negative means no limit:
	// every job is launched at once.
	MaxConcurrency int

	// Timeout bounds each individual job. Zero means jobs only inherit the
	// caller's deadline.
	Timeout time.Duration

	// Name labels log lines for this fan-out.
	Name string
}

// DefaultConfig launches every job at once with no per-job timeout.
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 0,
		Timeout:        0,
		Name:           "gather",
	}
}

// Job is one independent request of a fan-out.
type Job[T any] func(ctx context.Context) ([]T, error)

// Gather runs all jobs concurrently and waits for every one of them.
// If any job fails the first error is returned and no results are; otherwise
// the results of all jobs are concatenated. Callers must not rely on the order
// of the merged results.
func Gather[T any](ctx context.Context, cfg Config, jobs []Job[T]) ([]T, error) {
	if len(jobs) == 0 {
		return nil, nil
	}

	start := time.Now()
	logger := log.With().Str("fanout", cfg.Name).Logger()
	logger.Debug().Int("jobs", len(jobs)).Msg("Starting fan-out")

	// One slot per job; each goroutine writes only its own slot.
	parts := make([][]T, len(jobs))

	var g errgroup.Group
	if cfg.MaxConcurrency > 0 {
		g.SetLimit(cfg.MaxConcurrency)
	}

	for i, job := range jobs {
		g.Go(func() error {
			jobCtx := ctx
			if cfg.Timeout > 0 {
				var cancel context.CancelFunc
				jobCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
			}

			items, err := job(jobCtx)
			if err != nil {
				logger.Warn().Err(err).Int("job", i).Msg("Fan-out job failed")
				return fmt.Errorf("job %d: %w", i, err)
			}
			parts[i] = items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Warn().
			Err(err).
			Int("jobs", len(jobs)).
			Dur("duration", time.Since(start)).
			Msg("Fan-out failed - discarding all results")
		return nil, err
	}

	total := 0
	for _, p := range parts {
		total += len(p)
	}
	results := make([]T, 0, total)
	for _, p := range parts {
		results = append(results, p...)
	}

	logger.Debug().
		Int("jobs", len(jobs)).
		Int("items", total).
		Dur("duration", time.Since(start)).
		Msg("Fan-out complete")

	return results, nil
}
