package domain

import "context"

// ParticipantRepository is the join accessor over events_participants.
// The (eventid, participantid) pair is unique; a second insert fails with ErrConflict.
type ParticipantRepository interface {
	Add(ctx context.Context, eventID, participantID int64) error
	Remove(ctx context.Context, eventID, participantID int64) (int64, error)
	Exists(ctx context.Context, eventID, participantID int64) (bool, error)
	ListByEvent(ctx context.Context, eventID int64) ([]int64, error)
	ListEventIDsByParticipant(ctx context.Context, participantID int64) ([]int64, error)
	DeleteByEvent(ctx context.Context, eventID int64) error
}

// ImageRepository is the join accessor over events_images. UUIDs are returned in
// the order they were attached.
type ImageRepository interface {
	Add(ctx context.Context, eventID int64, imageUUID string, position int) error
	ListByEvent(ctx context.Context, eventID int64) ([]string, error)
	DeleteByEvent(ctx context.Context, eventID int64) error
	// ListAll returns every referenced UUID across all events; used by the blob sweeper.
	ListAll(ctx context.Context) ([]string, error)
}
