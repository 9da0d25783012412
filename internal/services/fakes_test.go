package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"eventhub/internal/domain"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// memDB is an in-memory relational store shared by the repository fakes.
// memTx snapshots it on begin and restores the snapshot on rollback.
type memDB struct {
	nextID       int64
	events       map[int64]domain.Event
	participants map[int64][]int64
	images       map[int64][]string
	likes        map[int64][]int64
	applications map[int64][]*domain.Application
	users        map[int64]*domain.User

	// fail makes the named operation return a storage error.
	fail map[string]error

	// locks records row locks as "update:<id>" or "share:<id>", in acquisition order.
	locks []string
	// onLock runs once a row lock is granted, standing in for a writer that
	// committed while the caller was waiting on it.
	onLock func(id int64)

	// outer is the begin snapshot of the transaction in progress.
	outer *memSnapshot
}

func newMemDB() *memDB {
	return &memDB{
		nextID:       1,
		events:       map[int64]domain.Event{},
		participants: map[int64][]int64{},
		images:       map[int64][]string{},
		likes:        map[int64][]int64{},
		applications: map[int64][]*domain.Application{},
		users:        map[int64]*domain.User{},
		fail:         map[string]error{},
	}
}

func (db *memDB) check(op string) error {
	if err, ok := db.fail[op]; ok {
		return fmt.Errorf("%w: %s: %w", domain.ErrStorage, op, err)
	}
	return nil
}

type memSnapshot struct {
	nextID       int64
	events       map[int64]domain.Event
	participants map[int64][]int64
	images       map[int64][]string
	likes        map[int64][]int64
	applications map[int64][]*domain.Application
}

func cloneSlices[K comparable, V any](m map[K][]V) map[K][]V {
	out := make(map[K][]V, len(m))
	for k, v := range m {
		out[k] = slices.Clone(v)
	}
	return out
}

func (db *memDB) snapshot() memSnapshot {
	return memSnapshot{
		nextID:       db.nextID,
		events:       maps.Clone(db.events),
		participants: cloneSlices(db.participants),
		images:       cloneSlices(db.images),
		likes:        cloneSlices(db.likes),
		applications: cloneSlices(db.applications),
	}
}

func (db *memDB) restore(s memSnapshot) {
	db.nextID = s.nextID
	db.events = s.events
	db.participants = s.participants
	db.images = s.images
	db.likes = s.likes
	db.applications = s.applications
}

// committed applies fn as a write committed by another connection: it survives a
// rollback of the transaction in progress.
func (db *memDB) committed(fn func(db *memDB)) {
	fn(db)
	if db.outer != nil {
		other := &memDB{users: db.users, fail: db.fail}
		other.restore(*db.outer)
		fn(other)
		*db.outer = other.snapshot()
	}
}

func (db *memDB) addUser(id int64, name, email string) {
	db.users[id] = &domain.User{ID: id, Name: name, Email: email}
}

type memTx struct {
	db        *memDB
	commitErr error
	commits   int
	rollbacks int
}

func (t *memTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.db.outer != nil {
		return fn(ctx)
	}
	snap := t.db.snapshot()
	t.db.outer = &snap
	defer func() { t.db.outer = nil }()
	if err := fn(ctx); err != nil {
		t.db.restore(snap)
		t.rollbacks++
		return err
	}
	if t.commitErr != nil {
		t.db.restore(snap)
		return fmt.Errorf("commit tx: %w: %w", domain.ErrStorage, t.commitErr)
	}
	t.commits++
	return nil
}

func (t *memTx) WithinReadTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type memEvents struct{ db *memDB }

func (r memEvents) Exists(_ context.Context, id int64) (bool, error) {
	if err := r.db.check("events.exists"); err != nil {
		return false, err
	}
	_, ok := r.db.events[id]
	return ok, nil
}

func (r memEvents) GetByID(_ context.Context, id int64) (*domain.Event, error) {
	if err := r.db.check("events.get"); err != nil {
		return nil, err
	}
	e, ok := r.db.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (r memEvents) GetForUpdate(ctx context.Context, id int64) (*domain.Event, error) {
	return r.lock(ctx, "update", id)
}

func (r memEvents) GetForShare(ctx context.Context, id int64) (*domain.Event, error) {
	return r.lock(ctx, "share", id)
}

func (r memEvents) lock(ctx context.Context, mode string, id int64) (*domain.Event, error) {
	if err := r.db.check("events.lock"); err != nil {
		return nil, err
	}
	r.db.locks = append(r.db.locks, fmt.Sprintf("%s:%d", mode, id))
	if r.db.onLock != nil {
		r.db.onLock(id)
	}
	return r.GetByID(ctx, id)
}

func scalarOnly(e *domain.Event) domain.Event {
	return domain.Event{
		ID: e.ID, Name: e.Name, Description: e.Description, OrganizerID: e.OrganizerID,
		Rating: e.Rating, GeoData: e.GeoData, Specialization: e.Specialization, Date: e.Date,
	}
}

func (r memEvents) Create(_ context.Context, e *domain.Event) (int64, error) {
	if err := r.db.check("events.create"); err != nil {
		return 0, err
	}
	id := r.db.nextID
	r.db.nextID++
	row := scalarOnly(e)
	row.ID = id
	r.db.events[id] = row
	return id, nil
}

func (r memEvents) Update(_ context.Context, id int64, e *domain.Event) (int64, error) {
	if err := r.db.check("events.update"); err != nil {
		return 0, err
	}
	if _, ok := r.db.events[id]; !ok {
		return 0, nil
	}
	row := scalarOnly(e)
	row.ID = id
	r.db.events[id] = row
	return 1, nil
}

func (r memEvents) Delete(_ context.Context, id int64) (int64, error) {
	if err := r.db.check("events.delete"); err != nil {
		return 0, err
	}
	if _, ok := r.db.events[id]; !ok {
		return 0, nil
	}
	delete(r.db.events, id)
	return 1, nil
}

func inFrame(date time.Time, frame domain.TimeFrame, now time.Time) bool {
	if frame == domain.Past {
		return date.Before(now)
	}
	return date.After(now)
}

func (r memEvents) ListByIDs(_ context.Context, ids []int64, frame domain.TimeFrame, now time.Time) ([]*domain.Event, error) {
	out := []*domain.Event{}
	for _, id := range ids {
		if e, ok := r.db.events[id]; ok && inFrame(e.Date, frame, now) {
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r memEvents) sorted() []domain.Event {
	ids := slices.Sorted(maps.Keys(r.db.events))
	out := make([]domain.Event, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.db.events[id])
	}
	return out
}

func (r memEvents) ListByOrganizer(_ context.Context, organizerID int64, frame domain.TimeFrame, now time.Time) ([]*domain.Event, error) {
	out := []*domain.Event{}
	for _, e := range r.sorted() {
		if e.OrganizerID == organizerID && inFrame(e.Date, frame, now) {
			out = append(out, &e)
		}
	}
	return out, nil
}

func (r memEvents) List(_ context.Context, offset, size int, specs []domain.Specialization) ([]*domain.Event, error) {
	out := []*domain.Event{}
	skipped := 0
	for _, e := range r.sorted() {
		if len(specs) > 0 && !slices.Contains(specs, e.Specialization) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if len(out) == size {
			break
		}
		out = append(out, &e)
	}
	return out, nil
}

func (r memEvents) ListIDsByOrganizer(_ context.Context, organizerID int64) ([]int64, error) {
	out := []int64{}
	for _, e := range r.sorted() {
		if e.OrganizerID == organizerID {
			out = append(out, e.ID)
		}
	}
	return out, nil
}

func (r memEvents) ListIDsByApplicant(_ context.Context, creatorID int64) ([]int64, error) {
	out := []int64{}
	for _, id := range slices.Sorted(maps.Keys(r.db.applications)) {
		for _, a := range r.db.applications[id] {
			if a.CreatorID == creatorID {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

func (r memEvents) ListApplications(_ context.Context, eventID int64) ([]*domain.Application, error) {
	return slices.Clone(r.db.applications[eventID]), nil
}

func (r memEvents) DeleteApplications(_ context.Context, eventID int64) error {
	delete(r.db.applications, eventID)
	return nil
}

type memParticipants struct{ db *memDB }

func (r memParticipants) Add(_ context.Context, eventID, participantID int64) error {
	if err := r.db.check("participants.add"); err != nil {
		return err
	}
	if slices.Contains(r.db.participants[eventID], participantID) {
		return fmt.Errorf("%w: %w: duplicate participant", domain.ErrStorage, domain.ErrConflict)
	}
	r.db.participants[eventID] = append(r.db.participants[eventID], participantID)
	return nil
}

func (r memParticipants) Remove(_ context.Context, eventID, participantID int64) (int64, error) {
	ids := r.db.participants[eventID]
	i := slices.Index(ids, participantID)
	if i < 0 {
		return 0, nil
	}
	r.db.participants[eventID] = slices.Delete(ids, i, i+1)
	return 1, nil
}

func (r memParticipants) Exists(_ context.Context, eventID, participantID int64) (bool, error) {
	return slices.Contains(r.db.participants[eventID], participantID), nil
}

func (r memParticipants) ListByEvent(_ context.Context, eventID int64) ([]int64, error) {
	out := slices.Clone(r.db.participants[eventID])
	if out == nil {
		out = []int64{}
	}
	return out, nil
}

func (r memParticipants) ListEventIDsByParticipant(_ context.Context, participantID int64) ([]int64, error) {
	out := []int64{}
	for _, id := range slices.Sorted(maps.Keys(r.db.participants)) {
		if slices.Contains(r.db.participants[id], participantID) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r memParticipants) DeleteByEvent(_ context.Context, eventID int64) error {
	delete(r.db.participants, eventID)
	return nil
}

type memImages struct{ db *memDB }

func (r memImages) Add(_ context.Context, eventID int64, imageUUID string, position int) error {
	if err := r.db.check("images.add"); err != nil {
		return err
	}
	if position != len(r.db.images[eventID]) {
		return fmt.Errorf("%w: position %d out of order", domain.ErrStorage, position)
	}
	r.db.images[eventID] = append(r.db.images[eventID], imageUUID)
	return nil
}

func (r memImages) ListByEvent(_ context.Context, eventID int64) ([]string, error) {
	out := slices.Clone(r.db.images[eventID])
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (r memImages) DeleteByEvent(_ context.Context, eventID int64) error {
	delete(r.db.images, eventID)
	return nil
}

func (r memImages) ListAll(_ context.Context) ([]string, error) {
	out := []string{}
	for _, refs := range r.db.images {
		out = append(out, refs...)
	}
	return out, nil
}

type memLikes struct{ db *memDB }

func (r memLikes) Add(_ context.Context, userID, eventID int64) error {
	if !slices.Contains(r.db.likes[eventID], userID) {
		r.db.likes[eventID] = append(r.db.likes[eventID], userID)
	}
	return nil
}

func (r memLikes) Remove(_ context.Context, userID, eventID int64) (int64, error) {
	ids := r.db.likes[eventID]
	i := slices.Index(ids, userID)
	if i < 0 {
		return 0, nil
	}
	r.db.likes[eventID] = slices.Delete(ids, i, i+1)
	return 1, nil
}

func (r memLikes) Exists(_ context.Context, userID, eventID int64) (bool, error) {
	return slices.Contains(r.db.likes[eventID], userID), nil
}

func (r memLikes) ListUserIDsByEvent(_ context.Context, eventID int64) ([]int64, error) {
	out := slices.Clone(r.db.likes[eventID])
	if out == nil {
		out = []int64{}
	}
	return out, nil
}

func (r memLikes) ListEventIDsByUser(_ context.Context, userID int64) ([]int64, error) {
	out := []int64{}
	for _, id := range slices.Sorted(maps.Keys(r.db.likes)) {
		if slices.Contains(r.db.likes[id], userID) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r memLikes) DeleteByEvent(_ context.Context, eventID int64) error {
	delete(r.db.likes, eventID)
	return nil
}

type memUsers struct{ db *memDB }

func (r memUsers) GetByID(_ context.Context, id int64) (*domain.User, error) {
	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

func (r memUsers) ListByIDs(_ context.Context, ids []int64) ([]*domain.User, error) {
	out := []*domain.User{}
	seen := map[int64]bool{}
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, u)
		}
	}
	return out, nil
}

// memBlobs is a concurrency-safe in-memory blob store.
type memBlobs struct {
	mu        sync.Mutex
	data      map[string][]byte
	created   map[string]time.Time
	seq       int
	storeErr  error
	failAfter int // with storeErr set, Store fails once this many blobs were stored
	deleted   []string
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: map[string][]byte{}, created: map[string]time.Time{}}
}

func (b *memBlobs) Store(_ context.Context, data []byte) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.storeErr != nil && b.failAfter <= b.seq {
		return "", b.storeErr
	}
	b.seq++
	id := fmt.Sprintf("blob-%d", b.seq)
	b.data[id] = slices.Clone(data)
	b.created[id] = time.Time{}
	return id, nil
}

func (b *memBlobs) Retrieve(_ context.Context, id string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.data[id]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, domain.ErrNotFound)
	}
	return data, nil
}

func (b *memBlobs) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, id)
	delete(b.created, id)
	b.deleted = append(b.deleted, id)
	return nil
}

func (b *memBlobs) List(_ context.Context) ([]domain.BlobInfo, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := []domain.BlobInfo{}
	for _, id := range slices.Sorted(maps.Keys(b.data)) {
		out = append(out, domain.BlobInfo{UUID: id, CreatedAt: b.created[id]})
	}
	return out, nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []domain.EventChange
}

func (p *recordingPublisher) Publish(_ context.Context, c domain.EventChange) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.changes = append(p.changes, c)
	return nil
}

func (p *recordingPublisher) kinds() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.changes))
	for _, c := range p.changes {
		out = append(out, c.Kind)
	}
	return out
}

type fakeEmailService struct {
	welcome []*domain.WelcomeMessageEmailData
	joined  []*domain.ParticipantJoinedEmailData
	err     error
}

func (f *fakeEmailService) SendWelcomeMessage(_ context.Context, data *domain.WelcomeMessageEmailData) error {
	f.welcome = append(f.welcome, data)
	return f.err
}

func (f *fakeEmailService) SendParticipantJoined(_ context.Context, data *domain.ParticipantJoinedEmailData) error {
	f.joined = append(f.joined, data)
	return f.err
}
