package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tripguard/internal/service"
)

// QueueDrainJob pulls candidate strikes off the detector queue and issues
// them. Issuance dedups on trip and violation type, so a re-delivered
// candidate never produces a second strike.
type QueueDrainJob struct {
	strikes  *service.StrikeService
	interval time.Duration
	limit    int
	logger   zerolog.Logger
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewQueueDrainJob(strikes *service.StrikeService, interval time.Duration, limit int, logger zerolog.Logger) *QueueDrainJob {
	return &QueueDrainJob{
		strikes:  strikes,
		interval: interval,
		limit:    limit,
		logger:   logger.With().Str("job", "queue_drain").Logger(),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
}

func (j *QueueDrainJob) Start() {
	go j.run()
}

func (j *QueueDrainJob) Stop() {
	close(j.stopChan)
	<-j.doneChan
}

func (j *QueueDrainJob) run() {
	defer close(j.doneChan)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			j.drain()
		case <-j.stopChan:
			j.logger.Info().Msg("queue drain job stopped")
			return
		}
	}
}

func (j *QueueDrainJob) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepRunTimeout)
	defer cancel()

	issued, err := j.strikes.DrainQueue(ctx, j.limit)
	if err != nil {
		j.logger.Error().Err(err).Int("issued", issued).Msg("queue drain failed")
		return
	}
	if issued > 0 {
		j.logger.Info().Int("strikes_issued", issued).Msg("queue drained")
	}
}
