package dto

import "github.com/spec-kit/servicedesk/internal/domain"

// AvailabilityQuery selects a window to check.
type AvailabilityQuery struct {
	Date      string `query:"date" json:"date" validate:"required"`
	StartTime string `query:"start_time" json:"start_time" validate:"required"`
	EndTime   string `query:"end_time" json:"end_time" validate:"required"`
	Exclude   string `query:"exclude_ticket_id" json:"exclude_ticket_id"`
}

// CalendarQuery selects a date range.
type CalendarQuery struct {
	From string `query:"from" json:"from" validate:"required"`
	To   string `query:"to" json:"to" validate:"required"`
}

// ZoomAccountResponse hides host keys unless filled by the service.
type ZoomAccountResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	HostKey  string `json:"host_key,omitempty"`
	Color    string `json:"color"`
	Priority int    `json:"priority"`
	IsActive bool   `json:"is_active"`
}

// ZoomAccounts maps accounts.
func ZoomAccounts(items []domain.ZoomAccount) []ZoomAccountResponse {
	out := make([]ZoomAccountResponse, 0, len(items))
	for _, a := range items {
		out = append(out, ZoomAccountResponse{
			ID:       a.ID,
			Name:     a.Name,
			Email:    a.Email,
			HostKey:  a.HostKey,
			Color:    a.Color,
			Priority: a.Priority,
			IsActive: a.IsActive,
		})
	}
	return out
}
