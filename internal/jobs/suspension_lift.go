package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"tripguard/internal/repository"
	"tripguard/internal/service"
)

// SuspensionLiftJob sweeps ACTIVE TEMPORARY suspensions whose window has
// elapsed and lifts them. Lifting restores eligibility only when no other
// active suspension remains, so a PERMANENT suspension created after the
// temporary one keeps the driver off the road.
type SuspensionLiftJob struct {
	suspensionRepo repository.SuspensionRepository
	engine         *service.SuspensionEngine
	interval       time.Duration
	batchSize      int
	logger         zerolog.Logger
	stopChan       chan struct{}
	doneChan       chan struct{}
}

func NewSuspensionLiftJob(
	suspensionRepo repository.SuspensionRepository,
	engine *service.SuspensionEngine,
	interval time.Duration,
	batchSize int,
	logger zerolog.Logger,
) *SuspensionLiftJob {
	return &SuspensionLiftJob{
		suspensionRepo: suspensionRepo,
		engine:         engine,
		interval:       interval,
		batchSize:      batchSize,
		logger:         logger.With().Str("job", "suspension_lift").Logger(),
		stopChan:       make(chan struct{}),
		doneChan:       make(chan struct{}),
	}
}

func (j *SuspensionLiftJob) Start() {
	go j.run()
}

func (j *SuspensionLiftJob) Stop() {
	close(j.stopChan)
	<-j.doneChan
}

func (j *SuspensionLiftJob) run() {
	defer close(j.doneChan)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopChan:
			j.logger.Info().Msg("suspension lift job stopped")
			return
		}
	}
}

func (j *SuspensionLiftJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepRunTimeout)
	defer cancel()

	startTime := time.Now()

	due, err := j.suspensionRepo.ListExpiredTemporary(ctx, startTime, j.batchSize)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to list expired suspensions")
		return
	}
	if len(due) == 0 {
		return
	}

	lifted := 0
	for _, suspension := range due {
		if err := j.engine.Lift(ctx, suspension.ID); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue // already lifted or superseded
			}
			j.logger.Error().
				Str("suspension_id", suspension.ID).
				Str("driver_id", suspension.DriverID).
				Err(err).
				Msg("failed to lift suspension")
			continue
		}
		lifted++
	}

	j.logger.Info().
		Int("suspensions_lifted", lifted).
		Dur("duration_ms", time.Since(startTime)).
		Msg("suspension lift sweep completed")
}
