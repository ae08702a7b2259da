package pipeline

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/common"
)

// Supervisor periodically sweeps for stuck processing jobs and hands
// them back to the pipeline. The same sweep is available on demand via
// the admin recover endpoint; the supervisor just automates it.
type Supervisor struct {
	pipeline  *Service
	threshold time.Duration
	interval  time.Duration
	logger    arbor.ILogger
	cancel    context.CancelFunc
}

// NewSupervisor creates a recovery supervisor
func NewSupervisor(pipeline *Service, threshold, interval time.Duration, logger arbor.ILogger) *Supervisor {
	if threshold <= 0 {
		threshold = 2 * time.Minute
	}
	return &Supervisor{
		pipeline:  pipeline,
		threshold: threshold,
		interval:  interval,
		logger:    logger,
	}
}

// Threshold returns the configured stuck-job age
func (s *Supervisor) Threshold() time.Duration {
	return s.threshold
}

// Start launches the periodic sweep. A non-positive interval disables it.
func (s *Supervisor) Start() {
	if s.interval <= 0 {
		s.logger.Debug().Msg("Recovery supervisor disabled (no interval configured)")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.logger.Info().
		Str("interval", s.interval.String()).
		Str("threshold", s.threshold.String()).
		Msg("Recovery supervisor started")

	common.SafeGoWithContext(ctx, s.logger, "recovery-supervisor", func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				recovered, err := s.pipeline.RecoverStuckJobs(ctx, s.threshold)
				if err != nil {
					s.logger.Error().Err(err).Msg("Recovery sweep failed")
					continue
				}
				if recovered > 0 {
					s.logger.Warn().Int("recovered", recovered).Msg("Recovery sweep reset stuck jobs")
				}
			}
		}
	})
}

// Stop halts the periodic sweep
func (s *Supervisor) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}
