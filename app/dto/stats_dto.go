// Package dto contains Data Transfer Objects for API request and response structures
package dto

// UserStatsResponse aggregates a user's sending activity and license usage
type UserStatsResponse struct {
	SentToday    int64       `json:"sent_today"`
	SentThisWeek int64       `json:"sent_this_week"`
	SentTotal    int64       `json:"sent_total"`
	TotalBatches int64       `json:"total_batches"`
	License      *LicenseDTO `json:"license,omitempty"`
}
