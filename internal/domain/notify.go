package domain

import "context"

// Aggregate change kinds published after a successful commit.
const (
	EventCreated           = "created"
	EventUpdated           = "updated"
	EventDeleted           = "deleted"
	EventParticipantJoined = "participant.joined"
	EventParticipantLeft   = "participant.left"
)

// EventChange is the payload of a change notification.
type EventChange struct {
	EventID     int64  `json:"event_id"`
	OrganizerID int64  `json:"organizer_id,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	Kind        string `json:"kind"`
}

// EventPublisher emits change notifications. Delivery is best-effort.
type EventPublisher interface {
	Publish(ctx context.Context, change EventChange) error
}
