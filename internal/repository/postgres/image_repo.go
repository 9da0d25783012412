package postgres

import (
	"context"
	"database/sql"

	"eventhub/internal/domain"
)

type imageRepository struct {
	DB *sql.DB
}

func NewImageRepository(db *sql.DB) domain.ImageRepository {
	return &imageRepository{
		DB: db,
	}
}

func (r *imageRepository) Add(ctx context.Context, eventID int64, imageUUID string, position int) error {
	query := `
		INSERT INTO events_images (eventid, imageuuid, position)
		VALUES ($1, $2, $3)
	`
	_, err := conn(ctx, r.DB).ExecContext(ctx, query, eventID, imageUUID, position)
	return storageErr(err)
}

func (r *imageRepository) ListByEvent(ctx context.Context, eventID int64) ([]string, error) {
	query := `SELECT imageuuid FROM events_images WHERE eventid = $1 ORDER BY position`
	return r.queryUUIDs(ctx, query, eventID)
}

func (r *imageRepository) DeleteByEvent(ctx context.Context, eventID int64) error {
	_, err := conn(ctx, r.DB).ExecContext(ctx, `DELETE FROM events_images WHERE eventid = $1`, eventID)
	return storageErr(err)
}

func (r *imageRepository) ListAll(ctx context.Context) ([]string, error) {
	return r.queryUUIDs(ctx, `SELECT imageuuid FROM events_images`)
}

func (r *imageRepository) queryUUIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := conn(ctx, r.DB).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()
	uuids := make([]string, 0)
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, storageErr(err)
		}
		uuids = append(uuids, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return uuids, nil
}
