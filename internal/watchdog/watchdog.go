package watchdog

import (
	"context"
	"log"
	"time"

	"locker-fleet-backend/config"
	"locker-fleet-backend/internal/store"
)

// Service sweeps the fleet for devices that stopped reporting. A locker whose
// controller has gone quiet past the configured threshold is flagged offline
// so the administrative listing surfaces it; the flag clears on the next
// report.
type Service struct {
	cfg   *config.Config
	store store.Store
}

// NewService creates a new watchdog service.
func NewService(cfg *config.Config, store store.Store) *Service {
	return &Service{cfg: cfg, store: store}
}

// Run starts the sweep loop.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Watchdog.Enabled {
		log.Println("Watchdog is disabled. Not starting.")
		return
	}
	log.Println("Starting watchdog service...")

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Watchdog.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Watchdog service shutting down.")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Watchdog.Interval)
		}
	}
}

// SweepOnce performs a single sweep over the fleet.
func (s *Service) SweepOnce(ctx context.Context) {
	flagged, err := s.store.MarkStaleOffline(ctx, time.Now().UTC(), s.cfg.Watchdog.OfflineAfter)
	if err != nil {
		log.Printf("Error sweeping for stale devices: %v", err)
		return
	}
	for _, physicalID := range flagged {
		log.Printf("Locker %s flagged offline: no device report within %s", physicalID, s.cfg.Watchdog.OfflineAfter)
	}
}
