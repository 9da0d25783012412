package domain

import (
	"context"
	"time"
)

// Event is the aggregate root: one events row plus the participants, images and likes
// join relations that exist only because the event exists.
// swagger:model Event
type Event struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	OrganizerID    int64          `json:"organizer_id"`
	Rating         float64        `json:"rating"`
	GeoData        string         `json:"geo_data"`
	Specialization Specialization `json:"specialization"`
	Date           time.Time      `json:"date"`

	ParticipantIDs []int64 `json:"participant_ids"`
	// Images hold base64-encoded image content, in submission order.
	Images []string `json:"images"`
	Likes  []int64  `json:"likes"`
}

// EventRegistration is the creation payload of an event. It carries no id.
type EventRegistration struct {
	Name           string
	Description    string
	OrganizerID    int64
	Rating         float64
	GeoData        string
	Specialization Specialization
	Date           time.Time
	ParticipantIDs []int64
	Images         []string
}

// NewEvent builds a fresh aggregate from registration data: no id and empty collections.
func NewEvent(reg *EventRegistration) *Event {
	return &Event{
		Name:           reg.Name,
		Description:    reg.Description,
		OrganizerID:    reg.OrganizerID,
		Rating:         reg.Rating,
		GeoData:        reg.GeoData,
		Specialization: reg.Specialization,
		Date:           reg.Date,
		ParticipantIDs: []int64{},
		Images:         []string{},
		Likes:          []int64{},
	}
}

// TimeFrame partitions events around a reference instant.
type TimeFrame int

const (
	// Upcoming selects events with date strictly after now.
	Upcoming TimeFrame = iota
	// Past selects events with date strictly before now.
	Past
)

// ParseTimeFrame accepts "upcoming"/"future" and "past"; empty means Upcoming.
func ParseTimeFrame(s string) (TimeFrame, bool) {
	switch s {
	case "", "upcoming", "future":
		return Upcoming, true
	case "past":
		return Past, true
	}
	return Upcoming, false
}

// EventRepository is the row accessor over the events table and the application records.
// It holds no business logic and does not validate existence on writes.
type EventRepository interface {
	Exists(ctx context.Context, id int64) (bool, error)
	// GetByID returns the scalar projection only; collections are left nil.
	GetByID(ctx context.Context, id int64) (*Event, error)
	// GetForUpdate is GetByID holding an exclusive row lock until the enclosing tx ends.
	GetForUpdate(ctx context.Context, id int64) (*Event, error)
	// GetForShare is GetByID holding a shared row lock: concurrent deletes and updates
	// of the row wait, concurrent GetForShare calls do not.
	GetForShare(ctx context.Context, id int64) (*Event, error)
	Create(ctx context.Context, event *Event) (int64, error)
	// Update overwrites scalar fields and reports the number of affected rows.
	Update(ctx context.Context, id int64, event *Event) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
	ListByIDs(ctx context.Context, ids []int64, frame TimeFrame, now time.Time) ([]*Event, error)
	ListByOrganizer(ctx context.Context, organizerID int64, frame TimeFrame, now time.Time) ([]*Event, error)
	// List returns one page; callers must bound size. An empty filter means all specializations.
	List(ctx context.Context, offset, size int, specializations []Specialization) ([]*Event, error)
	ListIDsByOrganizer(ctx context.Context, organizerID int64) ([]int64, error)
	ListIDsByApplicant(ctx context.Context, creatorID int64) ([]int64, error)
	ListApplications(ctx context.Context, eventID int64) ([]*Application, error)
	DeleteApplications(ctx context.Context, eventID int64) error
}

// EventService is the aggregate orchestrator: the only component that sequences writes
// across the row accessor, the join accessors and the blob store.
type EventService interface {
	CreateEvent(ctx context.Context, reg *EventRegistration) (*Event, error)
	UpdateEvent(ctx context.Context, eventID int64, event *Event) error
	GetEvent(ctx context.Context, eventID int64) (*Event, error)
	DeleteEvent(ctx context.Context, eventID int64) error

	GetEventOrganizer(ctx context.Context, eventID int64) (int64, error)
	ListParticipants(ctx context.Context, eventID int64) ([]*User, error)
	ListApplications(ctx context.Context, eventID int64) ([]*Application, error)

	ListEvents(ctx context.Context, params PaginationParams, specializations []Specialization) ([]*Event, error)
	ListOrganizerEvents(ctx context.Context, organizerID int64, frame TimeFrame) ([]*Event, error)
	ListParticipantEvents(ctx context.Context, userID int64, frame TimeFrame) ([]*Event, error)
	ListApplicantEvents(ctx context.Context, creatorID int64, frame TimeFrame) ([]*Event, error)

	JoinEvent(ctx context.Context, eventID, userID int64) error
	LeaveEvent(ctx context.Context, eventID, userID int64) error
	IsParticipant(ctx context.Context, eventID, userID int64) (bool, error)
}
