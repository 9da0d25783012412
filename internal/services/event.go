package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"eventhub/internal/domain"
)

const (
	// DefaultPageSize and MaxPageSize bound ListEvents; the row accessor enforces no limit itself.
	DefaultPageSize = 20
	MaxPageSize     = 100

	hydrationConcurrency = 4
)

// EventServiceDeps are the collaborators of the event orchestrator.
type EventServiceDeps struct {
	Tx           domain.Transactor
	Events       domain.EventRepository
	Participants domain.ParticipantRepository
	Images       domain.ImageRepository
	Likes        domain.LikeRepository
	Users        domain.UserLookup
	Blobs        domain.BlobStore
	Coder        domain.Coder
	Publisher    domain.EventPublisher
	EmailService domain.EmailService
	Logger       *slog.Logger
	// Now defaults to time.Now.
	Now func() time.Time
}

type eventService struct {
	tx             domain.Transactor
	eventRepo      domain.EventRepository
	participants   domain.ParticipantRepository
	images         domain.ImageRepository
	likes          domain.LikeRepository
	users          domain.UserLookup
	blobs          domain.BlobStore
	coder          domain.Coder
	publisher      domain.EventPublisher
	emailService   domain.EmailService
	logger         *slog.Logger
	now            func() time.Time
	contextTimeout time.Duration
}

func NewEventService(deps EventServiceDeps, timeout time.Duration) domain.EventService {
	s := &eventService{
		tx:             deps.Tx,
		eventRepo:      deps.Events,
		participants:   deps.Participants,
		images:         deps.Images,
		likes:          deps.Likes,
		users:          deps.Users,
		blobs:          deps.Blobs,
		coder:          deps.Coder,
		publisher:      deps.Publisher,
		emailService:   deps.EmailService,
		logger:         deps.Logger,
		now:            deps.Now,
		contextTimeout: timeout,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// CreateEvent inserts the row, the participant rows, the image blobs and the image rows
// as one unit. Blobs written before a rollback are deleted again.
func (s *eventService) CreateEvent(ctx context.Context, reg *domain.EventRegistration) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if reg == nil {
		return nil, fmt.Errorf("%w: registration is required", domain.ErrInvalidInput)
	}
	if err := validateEvent(reg.Name, reg.OrganizerID, reg.Specialization); err != nil {
		return nil, err
	}
	images, err := s.decodeImages(reg.Images)
	if err != nil {
		return nil, err
	}
	if err := s.checkParticipants(ctx, reg.ParticipantIDs); err != nil {
		return nil, err
	}

	event := domain.NewEvent(reg)
	var stored []string
	committing := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		id, err := s.eventRepo.Create(ctx, event)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		event.ID = id
		if err := s.addParticipants(ctx, id, reg.ParticipantIDs); err != nil {
			return err
		}
		stored, err = s.storeImages(ctx, images)
		if err != nil {
			return err
		}
		if err := s.attachImages(ctx, id, stored); err != nil {
			return err
		}
		committing = true
		return nil
	})
	if err != nil {
		s.releaseUnlessCommitting(ctx, committing, stored)
		return nil, err
	}

	event.ParticipantIDs = append(event.ParticipantIDs, reg.ParticipantIDs...)
	for _, img := range images {
		event.Images = append(event.Images, s.coder.Encode(img))
	}
	s.publish(ctx, domain.EventChange{EventID: event.ID, OrganizerID: event.OrganizerID, Kind: domain.EventCreated})
	return event, nil
}

// UpdateEvent overwrites the scalar fields and fully replaces the participant and image
// collections. Replaced blobs are deleted once the new state has committed.
func (s *eventService) UpdateEvent(ctx context.Context, eventID int64, event *domain.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	if event == nil {
		return fmt.Errorf("%w: event is required", domain.ErrInvalidInput)
	}
	if err := validateEvent(event.Name, event.OrganizerID, event.Specialization); err != nil {
		return err
	}
	images, err := s.decodeImages(event.Images)
	if err != nil {
		return err
	}
	if err := s.checkParticipants(ctx, event.ParticipantIDs); err != nil {
		return err
	}

	var previous, stored []string
	committing := false
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.loadRow(ctx, eventID, s.eventRepo.GetForUpdate); err != nil {
			return err
		}
		n, err := s.eventRepo.Update(ctx, eventID, event)
		if err != nil {
			return fmt.Errorf("update event: %w", err)
		}
		if n == 0 {
			return noSuchEvent(eventID)
		}

		if err := s.participants.DeleteByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("clear participants: %w", err)
		}
		if err := s.addParticipants(ctx, eventID, event.ParticipantIDs); err != nil {
			return err
		}

		previous, err = s.images.ListByEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("list images: %w", err)
		}
		if err := s.images.DeleteByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("clear images: %w", err)
		}
		stored, err = s.storeImages(ctx, images)
		if err != nil {
			return err
		}
		if err := s.attachImages(ctx, eventID, stored); err != nil {
			return err
		}
		committing = true
		return nil
	})
	if err != nil {
		s.releaseUnlessCommitting(ctx, committing, stored)
		return err
	}

	s.releaseBlobs(ctx, previous)
	event.ID = eventID
	s.publish(ctx, domain.EventChange{EventID: eventID, OrganizerID: event.OrganizerID, Kind: domain.EventUpdated})
	return nil
}

// GetEvent returns the fully hydrated aggregate. The relational part is read from one
// snapshot; image blobs are resolved afterwards, in order.
func (s *eventService) GetEvent(ctx context.Context, eventID int64) (*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var event *domain.Event
	var refs []string
	err := s.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		e, err := s.getRow(ctx, eventID)
		if err != nil {
			return err
		}
		if e.ParticipantIDs, err = s.participants.ListByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		if refs, err = s.images.ListByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("list images: %w", err)
		}
		if e.Likes, err = s.likes.ListUserIDsByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("list likes: %w", err)
		}
		event = e
		return nil
	})
	if err != nil {
		return nil, err
	}

	event.Images, err = s.hydrateImages(ctx, eventID, refs)
	if err != nil {
		return nil, err
	}
	return event, nil
}

// DeleteEvent removes every join row of the aggregate and the row itself, then releases
// the image blobs. The row is locked before anything is read, so image refs and join
// rows written by a concurrent update are seen and removed too.
func (s *eventService) DeleteEvent(ctx context.Context, eventID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var organizerID int64
	var refs []string
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		e, err := s.loadRow(ctx, eventID, s.eventRepo.GetForUpdate)
		if err != nil {
			return err
		}
		organizerID = e.OrganizerID
		if refs, err = s.images.ListByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("list images: %w", err)
		}
		if err := s.participants.DeleteByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("delete participants: %w", err)
		}
		if err := s.images.DeleteByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("delete images: %w", err)
		}
		if err := s.likes.DeleteByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("delete likes: %w", err)
		}
		if err := s.eventRepo.DeleteApplications(ctx, eventID); err != nil {
			return fmt.Errorf("delete applications: %w", err)
		}
		n, err := s.eventRepo.Delete(ctx, eventID)
		if err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		if n == 0 {
			return noSuchEvent(eventID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.releaseBlobs(ctx, refs)
	s.publish(ctx, domain.EventChange{EventID: eventID, OrganizerID: organizerID, Kind: domain.EventDeleted})
	return nil
}

func (s *eventService) GetEventOrganizer(ctx context.Context, eventID int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	e, err := s.getRow(ctx, eventID)
	if err != nil {
		return 0, err
	}
	return e.OrganizerID, nil
}

// ListParticipants resolves the participant ids to users, in participant order.
// A participant without a backing user is a consistency fault.
func (s *eventService) ListParticipants(ctx context.Context, eventID int64) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var ids []int64
	var users []*domain.User
	err := s.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		if err := s.requireEvent(ctx, eventID); err != nil {
			return err
		}
		var err error
		if ids, err = s.participants.ListByEvent(ctx, eventID); err != nil {
			return fmt.Errorf("list participants: %w", err)
		}
		if users, err = s.users.ListByIDs(ctx, ids); err != nil {
			return fmt.Errorf("lookup participants: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	out := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: participant %d of event %d has no user record", domain.ErrConsistency, id, eventID)
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *eventService) ListApplications(ctx context.Context, eventID int64) ([]*domain.Application, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var apps []*domain.Application
	err := s.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		if err := s.requireEvent(ctx, eventID); err != nil {
			return err
		}
		var err error
		apps, err = s.eventRepo.ListApplications(ctx, eventID)
		if err != nil {
			return fmt.Errorf("list applications: %w", err)
		}
		return nil
	})
	return apps, err
}

// ListEvents returns one page of scalar projections. Page size is clamped to MaxPageSize.
func (s *eventService) ListEvents(ctx context.Context, params domain.PaginationParams, specializations []domain.Specialization) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	for _, sp := range specializations {
		if !sp.Valid() {
			return nil, fmt.Errorf("%w: invalid specialization %d", domain.ErrInvalidInput, int(sp))
		}
	}
	params = params.Bounded(DefaultPageSize, MaxPageSize)
	events, err := s.eventRepo.List(ctx, params.Offset(), params.PageSize, specializations)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

func (s *eventService) ListOrganizerEvents(ctx context.Context, organizerID int64, frame domain.TimeFrame) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	events, err := s.eventRepo.ListByOrganizer(ctx, organizerID, frame, s.now())
	if err != nil {
		return nil, fmt.Errorf("list organizer events: %w", err)
	}
	return events, nil
}

func (s *eventService) ListParticipantEvents(ctx context.Context, userID int64, frame domain.TimeFrame) ([]*domain.Event, error) {
	return s.listByIDSource(ctx, frame, func(ctx context.Context) ([]int64, error) {
		return s.participants.ListEventIDsByParticipant(ctx, userID)
	})
}

func (s *eventService) ListApplicantEvents(ctx context.Context, creatorID int64, frame domain.TimeFrame) ([]*domain.Event, error) {
	return s.listByIDSource(ctx, frame, func(ctx context.Context) ([]int64, error) {
		return s.eventRepo.ListIDsByApplicant(ctx, creatorID)
	})
}

// JoinEvent adds userID to the event. Joining twice fails with ErrConflict.
func (s *eventService) JoinEvent(ctx context.Context, eventID, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var event *domain.Event
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if event, err = s.loadRow(ctx, eventID, s.eventRepo.GetForShare); err != nil {
			return err
		}
		if _, err := s.users.GetByID(ctx, userID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: unknown user %d", domain.ErrInvalidInput, userID)
			}
			return fmt.Errorf("lookup user: %w", err)
		}
		if err := s.participants.Add(ctx, eventID, userID); err != nil {
			return fmt.Errorf("add participant: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifyOrganizer(ctx, event, userID)
	s.publish(ctx, domain.EventChange{EventID: eventID, OrganizerID: event.OrganizerID, UserID: userID, Kind: domain.EventParticipantJoined})
	return nil
}

// LeaveEvent removes userID from the event; ErrNotFound if they were not participating.
func (s *eventService) LeaveEvent(ctx context.Context, eventID, userID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var organizerID int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		e, err := s.loadRow(ctx, eventID, s.eventRepo.GetForShare)
		if err != nil {
			return err
		}
		organizerID = e.OrganizerID
		n, err := s.participants.Remove(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("remove participant: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("user %d is not a participant of event %d: %w", userID, eventID, domain.ErrNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, domain.EventChange{EventID: eventID, OrganizerID: organizerID, UserID: userID, Kind: domain.EventParticipantLeft})
	return nil
}

func (s *eventService) IsParticipant(ctx context.Context, eventID, userID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var ok bool
	err := s.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		if err := s.requireEvent(ctx, eventID); err != nil {
			return err
		}
		var err error
		ok, err = s.participants.Exists(ctx, eventID, userID)
		if err != nil {
			return fmt.Errorf("check participant: %w", err)
		}
		return nil
	})
	return ok, err
}

func (s *eventService) listByIDSource(ctx context.Context, frame domain.TimeFrame, ids func(ctx context.Context) ([]int64, error)) ([]*domain.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	var events []*domain.Event
	err := s.tx.WithinReadTx(ctx, func(ctx context.Context) error {
		eventIDs, err := ids(ctx)
		if err != nil {
			return fmt.Errorf("list event ids: %w", err)
		}
		events, err = s.eventRepo.ListByIDs(ctx, eventIDs, frame, s.now())
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		return nil
	})
	return events, err
}

func (s *eventService) getRow(ctx context.Context, eventID int64) (*domain.Event, error) {
	return s.loadRow(ctx, eventID, s.eventRepo.GetByID)
}

// loadRow reads the scalar row through get, which may also lock it.
func (s *eventService) loadRow(ctx context.Context, eventID int64, get func(context.Context, int64) (*domain.Event, error)) (*domain.Event, error) {
	e, err := get(ctx, eventID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, noSuchEvent(eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *eventService) requireEvent(ctx context.Context, eventID int64) error {
	ok, err := s.eventRepo.Exists(ctx, eventID)
	if err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	if !ok {
		return noSuchEvent(eventID)
	}
	return nil
}

func noSuchEvent(eventID int64) error {
	return fmt.Errorf("no event with id %d: %w", eventID, domain.ErrNotFound)
}

func validateEvent(name string, organizerID int64, sp domain.Specialization) error {
	if name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	if organizerID <= 0 {
		return fmt.Errorf("%w: organizer is required", domain.ErrInvalidInput)
	}
	if !sp.Valid() {
		return fmt.Errorf("%w: invalid specialization %d", domain.ErrInvalidInput, int(sp))
	}
	return nil
}

func (s *eventService) decodeImages(encoded []string) ([][]byte, error) {
	out := make([][]byte, 0, len(encoded))
	for i, text := range encoded {
		data, err := s.coder.Decode(text)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", i, err)
		}
		out = append(out, data)
	}
	return out, nil
}

// checkParticipants rejects ids with no backing user before anything is written.
func (s *eventService) checkParticipants(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := s.users.ListByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("lookup participants: %w", err)
	}
	known := make(map[int64]struct{}, len(users))
	for _, u := range users {
		known[u.ID] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: unknown participant %d", domain.ErrInvalidInput, id)
		}
	}
	return nil
}

func (s *eventService) addParticipants(ctx context.Context, eventID int64, ids []int64) error {
	for _, id := range ids {
		if err := s.participants.Add(ctx, eventID, id); err != nil {
			return fmt.Errorf("add participant %d: %w", id, err)
		}
	}
	return nil
}

// storeImages writes each image to the blob store in order. On failure it returns the
// UUIDs stored so far together with the error.
func (s *eventService) storeImages(ctx context.Context, images [][]byte) ([]string, error) {
	stored := make([]string, 0, len(images))
	for i, img := range images {
		id, err := s.blobs.Store(ctx, img)
		if err != nil {
			return stored, fmt.Errorf("store image %d: %w", i, err)
		}
		stored = append(stored, id)
	}
	return stored, nil
}

func (s *eventService) attachImages(ctx context.Context, eventID int64, uuids []string) error {
	for i, id := range uuids {
		if err := s.images.Add(ctx, eventID, id, i); err != nil {
			return fmt.Errorf("attach image %s: %w", id, err)
		}
	}
	return nil
}

func (s *eventService) hydrateImages(ctx context.Context, eventID int64, refs []string) ([]string, error) {
	out := make([]string, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hydrationConcurrency)
	for i, ref := range refs {
		g.Go(func() error {
			data, err := s.blobs.Retrieve(gctx, ref)
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("%w: image %s of event %d is missing from the blob store", domain.ErrConsistency, ref, eventID)
			}
			if err != nil {
				return fmt.Errorf("retrieve image %s: %w", ref, err)
			}
			out[i] = s.coder.Encode(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// releaseUnlessCommitting deletes blobs written by a unit that rolled back. When the
// failure came from commit itself the outcome is unknown, so the blobs are left for the sweeper.
func (s *eventService) releaseUnlessCommitting(ctx context.Context, committing bool, uuids []string) {
	if committing {
		if len(uuids) > 0 {
			s.logger.WarnContext(ctx, "commit failed after storing images, leaving blobs for sweeper", "count", len(uuids))
		}
		return
	}
	s.releaseBlobs(ctx, uuids)
}

// releaseBlobs is best-effort; blobs it fails to delete are reclaimed by the sweeper.
func (s *eventService) releaseBlobs(ctx context.Context, uuids []string) {
	ctx = context.WithoutCancel(ctx)
	for _, id := range uuids {
		if err := s.blobs.Delete(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to delete blob", "uuid", id, "err", err)
		}
	}
}

func (s *eventService) publish(ctx context.Context, change domain.EventChange) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), change); err != nil {
		s.logger.WarnContext(ctx, "failed to publish event change", "event_id", change.EventID, "kind", change.Kind, "err", err)
	}
}

func (s *eventService) notifyOrganizer(ctx context.Context, event *domain.Event, participantID int64) {
	if s.emailService == nil {
		return
	}
	users, err := s.users.ListByIDs(ctx, []int64{event.OrganizerID, participantID})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to lookup users for join email", "event_id", event.ID, "err", err)
		return
	}
	var organizer, participant *domain.User
	for _, u := range users {
		switch u.ID {
		case event.OrganizerID:
			organizer = u
		case participantID:
			participant = u
		}
	}
	if organizer == nil || participant == nil {
		return
	}
	data := &domain.ParticipantJoinedEmailData{
		Email:           organizer.Email,
		OrganizerName:   organizer.Name,
		EventName:       event.Name,
		ParticipantName: participant.Name,
	}
	if err := s.emailService.SendParticipantJoined(ctx, data); err != nil {
		s.logger.WarnContext(ctx, "failed to send participant joined email", "event_id", event.ID, "err", err)
	}
}
