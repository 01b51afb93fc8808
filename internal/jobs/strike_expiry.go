package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"tripguard/internal/domain"
	"tripguard/internal/repository"
	"tripguard/internal/service"
)

const sweepRunTimeout = 5 * time.Minute

// StrikeExpiryJob sweeps ACTIVE strikes whose expiry window has passed and
// marks them EXPIRED. After a driver's strikes change, their suspension is
// re-derived from the remaining active set, so an expiry can downgrade or
// lift a suspension the same way an appeal does.
type StrikeExpiryJob struct {
	strikeRepo repository.StrikeRepository
	engine     *service.SuspensionEngine
	interval   time.Duration
	batchSize  int
	logger     zerolog.Logger
	stopChan   chan struct{}
	doneChan   chan struct{}
}

func NewStrikeExpiryJob(
	strikeRepo repository.StrikeRepository,
	engine *service.SuspensionEngine,
	interval time.Duration,
	batchSize int,
	logger zerolog.Logger,
) *StrikeExpiryJob {
	return &StrikeExpiryJob{
		strikeRepo: strikeRepo,
		engine:     engine,
		interval:   interval,
		batchSize:  batchSize,
		logger:     logger.With().Str("job", "strike_expiry").Logger(),
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

func (j *StrikeExpiryJob) Start() {
	go j.run()
}

func (j *StrikeExpiryJob) Stop() {
	close(j.stopChan)
	<-j.doneChan
}

func (j *StrikeExpiryJob) run() {
	defer close(j.doneChan)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopChan:
			j.logger.Info().Msg("strike expiry job stopped")
			return
		}
	}
}

func (j *StrikeExpiryJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepRunTimeout)
	defer cancel()

	startTime := time.Now()

	expired, err := j.strikeRepo.ListExpired(ctx, startTime, j.batchSize)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to list expired strikes")
		return
	}
	if len(expired) == 0 {
		return
	}

	drivers := make(map[string]struct{})
	processed := 0
	for _, strike := range expired {
		err := j.strikeRepo.UpdateStatus(ctx, strike.ID, domain.StrikeStatusActive, domain.StrikeStatusExpired)
		if err != nil {
			// ErrConflict means another sweep or an appeal got there first.
			if !errors.Is(err, repository.ErrConflict) {
				j.logger.Error().
					Str("strike_id", strike.ID).
					Err(err).
					Msg("failed to expire strike")
			}
			continue
		}
		drivers[strike.DriverID] = struct{}{}
		processed++
	}

	for driverID := range drivers {
		if err := j.engine.Rederive(ctx, driverID); err != nil {
			j.logger.Error().
				Str("driver_id", driverID).
				Err(err).
				Msg("failed to re-derive suspension after expiry")
		}
	}

	j.logger.Info().
		Int("strikes_expired", processed).
		Int("drivers_rederived", len(drivers)).
		Dur("duration_ms", time.Since(startTime)).
		Msg("strike expiry sweep completed")
}
