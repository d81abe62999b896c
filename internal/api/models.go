package api

import (
	"encoding/json"

	"github.com/tripkit/tripkit-api/internal/domain"
)

// TravelDates carries the requested travel window.
type TravelDates struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end"   validate:"required"`
}

// RecommendRequest represents the request body for submitting a
// recommendation request.
type RecommendRequest struct {
	Destination        string         `json:"destination" validate:"required,min=1"`
	TravelDates        TravelDates    `json:"travel_dates" validate:"required"`
	ExternalAccountRef string         `json:"external_account_ref,omitempty"`
	Preferences        map[string]any `json:"preferences,omitempty"`
}

// toDomain maps the transport shape onto the domain request.
func (r RecommendRequest) toDomain() domain.TravelRequest {
	return domain.TravelRequest{
		Destination:        r.Destination,
		StartDate:          r.TravelDates.Start,
		EndDate:            r.TravelDates.End,
		ExternalAccountRef: r.ExternalAccountRef,
		Preferences:        r.Preferences,
	}
}

// TaskCreationResponse is returned on submission.
type TaskCreationResponse struct {
	TaskID string `json:"task_id"`
}

// TaskResultResponse is returned when polling a task. Result is null while
// the task is pending.
type TaskResultResponse struct {
	TaskID string            `json:"task_id"`
	Status domain.TaskStatus `json:"status"`
	Result json.RawMessage   `json:"result"`
}

// QueueStatusResponse is returned when polling a task's queue position.
type QueueStatusResponse struct {
	Total    int64 `json:"total"`
	Position int   `json:"position"`
}

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
