package domain

import "time"

// Application is an organizer invitation/application record tied to an event.
// It is a read-only projection for this service.
// swagger:model Application
type Application struct {
	EventID     int64     `json:"event_id"`
	CreatorID   int64     `json:"creator_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}
