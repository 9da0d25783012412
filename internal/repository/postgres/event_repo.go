package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"eventhub/internal/domain"
)

const eventColumns = `id, name, description, organizerid, rating, geodata, specialization, date`

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(s rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var descNull, geoNull sql.NullString
	var ratingNull sql.NullFloat64
	if err := s.Scan(&e.ID, &e.Name, &descNull, &e.OrganizerID, &ratingNull, &geoNull, &e.Specialization, &e.Date); err != nil {
		return nil, err
	}
	e.Description = descNull.String
	e.GeoData = geoNull.String
	e.Rating = ratingNull.Float64
	return e, nil
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, storageErr(err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return events, nil
}

func (r *eventRepository) Exists(ctx context.Context, id int64) (bool, error) {
	return queryExists(ctx, conn(ctx, r.DB), `SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, id)
}

func (r *eventRepository) GetByID(ctx context.Context, id int64) (*domain.Event, error) {
	return r.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
}

// GetForUpdate must run inside a tx; outside one the lock is released with the statement.
func (r *eventRepository) GetForUpdate(ctx context.Context, id int64) (*domain.Event, error) {
	return r.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id)
}

func (r *eventRepository) GetForShare(ctx context.Context, id int64) (*domain.Event, error) {
	return r.getEvent(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1 FOR SHARE`, id)
}

func (r *eventRepository) getEvent(ctx context.Context, query string, id int64) (*domain.Event, error) {
	e, err := scanEvent(conn(ctx, r.DB).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, storageErr(err)
	}
	return e, nil
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) (int64, error) {
	query := `
		INSERT INTO events (name, description, organizerid, rating, geodata, specialization, date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	if err := checkRequired(e); err != nil {
		return 0, err
	}
	var id int64
	err := conn(ctx, r.DB).QueryRowContext(ctx, query,
		e.Name, e.Description, e.OrganizerID, e.Rating, e.GeoData, e.Specialization, e.Date,
	).Scan(&id)
	if err != nil {
		return 0, storageErr(err)
	}
	return id, nil
}

func (r *eventRepository) Update(ctx context.Context, id int64, e *domain.Event) (int64, error) {
	query := `
		UPDATE events
		SET name = $1, description = $2, organizerid = $3, rating = $4, geodata = $5, specialization = $6, date = $7
		WHERE id = $8
	`
	if err := checkRequired(e); err != nil {
		return 0, err
	}
	res, err := conn(ctx, r.DB).ExecContext(ctx, query,
		e.Name, e.Description, e.OrganizerID, e.Rating, e.GeoData, e.Specialization, e.Date, id,
	)
	if err != nil {
		return 0, storageErr(err)
	}
	return rowsAffected(res)
}

func (r *eventRepository) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, storageErr(err)
	}
	return rowsAffected(res)
}

func (r *eventRepository) ListByIDs(ctx context.Context, ids []int64, frame domain.TimeFrame, now time.Time) ([]*domain.Event, error) {
	if len(ids) == 0 {
		return []*domain.Event{}, nil
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ANY($1) AND ` + dateCondition(frame, 2)
	return r.queryEvents(ctx, query, pq.Array(ids), now)
}

func (r *eventRepository) ListByOrganizer(ctx context.Context, organizerID int64, frame domain.TimeFrame, now time.Time) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE organizerid = $1 AND ` + dateCondition(frame, 2)
	return r.queryEvents(ctx, query, organizerID, now)
}

func (r *eventRepository) List(ctx context.Context, offset, size int, specializations []domain.Specialization) ([]*domain.Event, error) {
	if len(specializations) == 0 {
		query := `SELECT ` + eventColumns + ` FROM events ORDER BY id OFFSET $1 ROWS FETCH FIRST $2 ROWS ONLY`
		return r.queryEvents(ctx, query, offset, size)
	}
	query := `
		SELECT ` + eventColumns + ` FROM events
		WHERE specialization = ANY($3)
		ORDER BY id OFFSET $1 ROWS FETCH FIRST $2 ROWS ONLY
	`
	return r.queryEvents(ctx, query, offset, size, pq.Array(domain.SpecializationNames(specializations)))
}

func (r *eventRepository) ListIDsByOrganizer(ctx context.Context, organizerID int64) ([]int64, error) {
	return queryIDs(ctx, conn(ctx, r.DB), `SELECT id FROM events WHERE organizerid = $1 ORDER BY id`, organizerID)
}

func (r *eventRepository) ListIDsByApplicant(ctx context.Context, creatorID int64) ([]int64, error) {
	return queryIDs(ctx, conn(ctx, r.DB), `SELECT eventid FROM event_applications WHERE creatorid = $1`, creatorID)
}

func (r *eventRepository) ListApplications(ctx context.Context, eventID int64) ([]*domain.Application, error) {
	query := `
		SELECT eventid, creatorid, description, created_at
		FROM event_applications
		WHERE eventid = $1
		ORDER BY created_at
	`
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()
	apps := make([]*domain.Application, 0)
	for rows.Next() {
		a := &domain.Application{}
		var desc sql.NullString
		if err := rows.Scan(&a.EventID, &a.CreatorID, &desc, &a.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		a.Description = desc.String
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return apps, nil
}

func (r *eventRepository) DeleteApplications(ctx context.Context, eventID int64) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM event_applications WHERE eventid = $1`, eventID)
	return storageErr(err)
}

// checkRequired mirrors the table's NOT NULL and enum constraints.
func checkRequired(e *domain.Event) error {
	if e.Name == "" {
		return fmt.Errorf("%w: event name is required", domain.ErrInvalidInput)
	}
	if e.OrganizerID <= 0 {
		return fmt.Errorf("%w: event organizer is required", domain.ErrInvalidInput)
	}
	if !e.Specialization.Valid() {
		return fmt.Errorf("%w: invalid specialization %d", domain.ErrInvalidInput, int(e.Specialization))
	}
	return nil
}

// dateCondition renders the strict temporal predicate with now bound to $n.
func dateCondition(frame domain.TimeFrame, n int) string {
	if frame == domain.Past {
		return fmt.Sprintf("date < $%d", n)
	}
	return fmt.Sprintf("date > $%d", n)
}
