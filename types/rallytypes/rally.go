package rallytypes

import "time"

// CreateRequest creates a rally.
type CreateRequest struct {
	Championship  string    `json:"championship" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
	CategoryIDs   []uint    `json:"category_ids"`
}

// RescheduleRequest moves a rally to a new date.
type RescheduleRequest struct {
	ScheduledDate time.Time `json:"scheduled_date" validate:"required"`
}

// MoveRentalRequest re-keys a rental onto another rally.
type MoveRentalRequest struct {
	RallyID uint `json:"rally_id" validate:"required"`
}
