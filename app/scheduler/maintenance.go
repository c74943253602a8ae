// Package scheduler
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	"github.com/TecnoAcceso/Piker-sub000/utils"
)

// MaintenanceScheduler periodically deactivates expired sessions and licenses
// so that stale credentials stop working without waiting for the next login.
type MaintenanceScheduler struct {
	sessionRepo repository.UserSessionRepository
	licenseRepo repository.LicenseRepository
	logger      *log.Logger
	interval    time.Duration
}

func NewMaintenanceScheduler(
	sessionRepo repository.UserSessionRepository,
	licenseRepo repository.LicenseRepository,
	logger *log.Logger,
	interval time.Duration,
) *MaintenanceScheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = log.Default()
	}

	return &MaintenanceScheduler{
		sessionRepo: sessionRepo,
		licenseRepo: licenseRepo,
		logger:      logger,
		interval:    interval,
	}
}

// Start launches the maintenance loop in a background goroutine and returns a stop function
func (s *MaintenanceScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *MaintenanceScheduler) runOnce(ctx context.Context) {
	if err := s.sessionRepo.CleanupExpired(ctx); err != nil {
		s.logger.Printf("maintenance: session cleanup failed: %v", err)
	}
	s.deactivateExpiredLicenses(ctx)
}

// deactivateExpiredLicenses flips IsActive off for active licenses whose
// ValidUntil date has passed. Login and batch checks reject expired licenses
// on their own; the sweep keeps the stored state consistent with reality.
func (s *MaintenanceScheduler) deactivateExpiredLicenses(ctx context.Context) {
	now := utils.UTCNow()
	active := true
	cutoff := now
	filter := models.LicenseFilter{IsActive: &active, ValidBefore: &cutoff}

	licenses, err := s.licenseRepo.ByFilter(ctx, filter, "id ASC", 0, 0)
	if err != nil {
		s.logger.Printf("maintenance: list expired licenses failed: %v", err)
		return
	}

	deactivated := 0
	for _, lic := range licenses {
		// ValidUntil is a date; the filter may include licenses still good
		// through the end of today
		if !lic.IsExpired(now) {
			continue
		}
		inactive := false
		lic.IsActive = &inactive
		if err := s.licenseRepo.Update(ctx, lic); err != nil {
			s.logger.Printf("maintenance: deactivate license id=%d failed: %v", lic.ID, err)
			continue
		}
		deactivated++
	}
	if deactivated > 0 {
		s.logger.Printf("maintenance: deactivated %d expired licenses", deactivated)
	}
}
