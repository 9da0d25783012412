package postgres

import (
	"context"
	"database/sql"

	"eventhub/internal/domain"
)

type participantRepository struct {
	DB *sql.DB
}

func NewParticipantRepository(db *sql.DB) domain.ParticipantRepository {
	return &participantRepository{
		DB: db,
	}
}

func (r *participantRepository) Add(ctx context.Context, eventID, participantID int64) error {
	query := `
		INSERT INTO events_participants (eventid, participantid)
		VALUES ($1, $2)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID, participantID)
	return storageErr(err)
}

func (r *participantRepository) Remove(ctx context.Context, eventID, participantID int64) (int64, error) {
	query := `DELETE FROM events_participants WHERE eventid = $1 AND participantid = $2`
	res, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID, participantID)
	if err != nil {
		return 0, storageErr(err)
	}
	return rowsAffected(res)
}

func (r *participantRepository) Exists(ctx context.Context, eventID, participantID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM events_participants WHERE eventid = $1 AND participantid = $2)`
	return queryExists(ctx, conn(ctx, r.DB), query, eventID, participantID)
}

func (r *participantRepository) ListByEvent(ctx context.Context, eventID int64) ([]int64, error) {
	query := `SELECT participantid FROM events_participants WHERE eventid = $1 ORDER BY participantid`
	return queryIDs(ctx, conn(ctx, r.DB), query, eventID)
}

func (r *participantRepository) ListEventIDsByParticipant(ctx context.Context, participantID int64) ([]int64, error) {
	query := `SELECT eventid FROM events_participants WHERE participantid = $1 ORDER BY eventid`
	return queryIDs(ctx, conn(ctx, r.DB), query, participantID)
}

func (r *participantRepository) DeleteByEvent(ctx context.Context, eventID int64) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM events_participants WHERE eventid = $1`, eventID)
	return storageErr(err)
}
