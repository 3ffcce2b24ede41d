package serverrouter

import (
	"context"
	"time"
)

// sweepInterval is the expiry sweeper's wall-clock cadence (spec §4.8).
const sweepInterval = 5 * time.Second

// runSweeper implements spec §4.8: periodically remove clients whose
// last-received timestamp is older than the configured client timeout, a
// redundancy with the inline check in fanOut so idle clients are reaped
// even when no tunnel traffic is flowing.
func (s *Service) runSweeper(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	now := time.Now()
	timeout := s.cfg.ClientTimeoutDuration()

	for _, rec := range s.table.Snapshot() {
		if now.Sub(rec.LastReceivedAt()) > timeout {
			if err := s.table.Remove(rec.ID); err != nil {
				s.logger.Warn("sweeper failed to remove client", "component", "serverrouter", "client", rec.ID, "error", err)
				continue
			}
			s.logger.Info("client timed out", "component", "serverrouter", "client", rec.ID)
		}
	}
}
