// Package businessflow contains the core business logic and use cases for messaging workflows
package businessflow

import (
	"context"

	"github.com/TecnoAcceso/Piker-sub000/app/dto"
	"github.com/TecnoAcceso/Piker-sub000/models"
	"github.com/TecnoAcceso/Piker-sub000/repository"
	"github.com/TecnoAcceso/Piker-sub000/utils"
)

// StatsFlow aggregates a user's sending activity
type StatsFlow interface {
	UserStats(ctx context.Context, userID uint) (*dto.UserStatsResponse, error)
}

// StatsFlowImpl implements the stats flow
type StatsFlowImpl struct {
	sentRepo    repository.SentMessageRepository
	batchRepo   repository.MessageBatchRepository
	licenseRepo repository.LicenseRepository
}

// NewStatsFlow creates a new stats flow instance
func NewStatsFlow(
	sentRepo repository.SentMessageRepository,
	batchRepo repository.MessageBatchRepository,
	licenseRepo repository.LicenseRepository,
) StatsFlow {
	return &StatsFlowImpl{
		sentRepo:    sentRepo,
		batchRepo:   batchRepo,
		licenseRepo: licenseRepo,
	}
}

// UserStats returns today/week/total successful sends, total batches and
// the license usage snapshot.
func (sf *StatsFlowImpl) UserStats(ctx context.Context, userID uint) (*dto.UserStatsResponse, error) {
	now := utils.UTCNow()
	dayStart, _ := utils.DayBoundsUTC(now)
	weekStart := dayStart.AddDate(0, 0, -6)
	statusSent := models.SendStatusSent

	sentToday, err := sf.sentRepo.Count(ctx, models.SentMessageFilter{
		UserID:       &userID,
		Status:       &statusSent,
		CreatedAfter: &dayStart,
	})
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count today's messages", err)
	}

	sentThisWeek, err := sf.sentRepo.Count(ctx, models.SentMessageFilter{
		UserID:       &userID,
		Status:       &statusSent,
		CreatedAfter: &weekStart,
	})
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count this week's messages", err)
	}

	sentTotal, err := sf.sentRepo.Count(ctx, models.SentMessageFilter{
		UserID: &userID,
		Status: &statusSent,
	})
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count messages", err)
	}

	totalBatches, err := sf.batchRepo.Count(ctx, models.MessageBatchFilter{UserID: &userID})
	if err != nil {
		return nil, NewBusinessError("STATS_FAILED", "Failed to count batches", err)
	}

	resp := &dto.UserStatsResponse{
		SentToday:    sentToday,
		SentThisWeek: sentThisWeek,
		SentTotal:    sentTotal,
		TotalBatches: totalBatches,
	}

	if license, err := sf.licenseRepo.ByUserID(ctx, userID); err == nil && license != nil {
		lic := ToLicenseDTO(*license)
		resp.License = &lic
	}

	return resp, nil
}
