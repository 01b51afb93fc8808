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

// HoldSettleJob closes out holds once the dispute window has passed.
// CAPTURED holds with no open dispute are marked settled; holds still HELD
// past the window (the trip never got a driver and nobody released) are
// released back to the rider. The open-dispute check runs per hold
// immediately before acting, so a dispute opened after the batch was listed
// still blocks settlement.
type HoldSettleJob struct {
	holdRepo      repository.HoldRepository
	disputeRepo   repository.DisputeRepository
	holds         *service.HoldService
	disputeWindow time.Duration
	interval      time.Duration
	batchSize     int
	logger        zerolog.Logger
	stopChan      chan struct{}
	doneChan      chan struct{}
}

func NewHoldSettleJob(
	holdRepo repository.HoldRepository,
	disputeRepo repository.DisputeRepository,
	holds *service.HoldService,
	disputeWindow time.Duration,
	interval time.Duration,
	batchSize int,
	logger zerolog.Logger,
) *HoldSettleJob {
	return &HoldSettleJob{
		holdRepo:      holdRepo,
		disputeRepo:   disputeRepo,
		holds:         holds,
		disputeWindow: disputeWindow,
		interval:      interval,
		batchSize:     batchSize,
		logger:        logger.With().Str("job", "hold_settle").Logger(),
		stopChan:      make(chan struct{}),
		doneChan:      make(chan struct{}),
	}
}

func (j *HoldSettleJob) Start() {
	go j.run()
}

func (j *HoldSettleJob) Stop() {
	close(j.stopChan)
	<-j.doneChan
}

func (j *HoldSettleJob) run() {
	defer close(j.doneChan)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	j.sweep()

	for {
		select {
		case <-ticker.C:
			j.sweep()
		case <-j.stopChan:
			j.logger.Info().Msg("hold settle job stopped")
			return
		}
	}
}

func (j *HoldSettleJob) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepRunTimeout)
	defer cancel()

	startTime := time.Now()
	cutoff := startTime.Add(-j.disputeWindow)

	holds, err := j.holdRepo.ListUnsettledBefore(ctx, cutoff, j.batchSize)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to list unsettled holds")
		return
	}
	if len(holds) == 0 {
		return
	}

	settled, released := 0, 0
	for _, hold := range holds {
		switch hold.Status {
		case domain.HoldStatusCaptured:
			open, err := j.disputeRepo.OpenExistsForTrip(ctx, hold.TripID)
			if err != nil {
				j.logger.Error().Str("hold_id", hold.ID).Err(err).Msg("dispute check failed")
				continue
			}
			if open {
				continue
			}
			if err := j.holdRepo.MarkSettled(ctx, hold.ID); err != nil {
				j.logger.Error().Str("hold_id", hold.ID).Err(err).Msg("failed to mark settled")
				continue
			}
			settled++

		case domain.HoldStatusHeld:
			_, err := j.holds.ReleaseHold(ctx, hold.TripID, "hold expired without acceptance", domain.ActorSweep)
			if err != nil {
				if errors.Is(err, service.ErrHoldNotReleasable) || errors.Is(err, repository.ErrConflict) {
					continue // state moved since the listing; next sweep re-evaluates
				}
				j.logger.Error().Str("hold_id", hold.ID).Err(err).Msg("failed to release stale hold")
				continue
			}
			released++
		}
	}

	j.logger.Info().
		Int("holds_settled", settled).
		Int("holds_released", released).
		Dur("duration_ms", time.Since(startTime)).
		Msg("hold settle sweep completed")
}
